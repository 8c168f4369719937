package http

import (
	"net/http"
	"strings"

	"hoa-backend/internal/handlers"
	"hoa-backend/internal/middleware"
	"hoa-backend/internal/models"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups everything the router mounts.
type Handlers struct {
	Auth          *handlers.AuthHandler
	TOTP          *handlers.TOTPHandler
	Users         *handlers.UserHandler
	Dues          *handlers.DueHandler
	Payments      *handlers.PaymentHandler
	Contributions *handlers.ContributionHandler
	Reservations  *handlers.ReservationHandler
	Visitors      *handlers.VisitorHandler
	Projects      *handlers.ProjectHandler
	Announcements *handlers.AnnouncementHandler
	CCTV          *handlers.CCTVHandler
	Settings      *handlers.SettingHandler
	Finance       *handlers.FinanceHandler
	Checkout      *handlers.CheckoutHandler
	AuditLogs     *handlers.AuditLogHandler
	Health        *handlers.HealthHandler
	WS            *handlers.WSHandler
	Gateway       *handlers.GatewayHandler
}

// Options carries the non-handler pieces of the router. CORS wraps the
// returned router in main so preflight requests never reach mux.
type Options struct {
	Auth        *middleware.AuthMiddleware
	RateLimiter *middleware.RateLimiter
	// FilesDir is served under /files/ when proofs are kept on local disk.
	FilesDir string
}

func NewRouter(h Handlers, opts Options) *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.PanicRecovery)
	r.Use(middleware.RequestLogging)
	r.Use(middleware.MetricsMiddleware)

	am := opts.Auth
	user := func(f http.HandlerFunc) http.Handler { return am.Authenticate(f) }
	staff := func(f http.HandlerFunc) http.Handler { return am.RequireRole(models.RoleAdmin, models.RoleStaff)(f) }
	admin := func(f http.HandlerFunc) http.Handler { return am.RequireRole(models.RoleAdmin)(f) }
	limited := func(next http.Handler) http.Handler {
		if opts.RateLimiter == nil {
			return next
		}
		return opts.RateLimiter.Middleware(next)
	}

	// Health and metrics (no auth)
	r.HandleFunc("/health", h.Health.BasicHealth).Methods("GET")
	r.HandleFunc("/health/ready", h.Health.ReadinessHealth).Methods("GET")
	r.Handle("/health/detailed", admin(h.Health.DetailedHealth)).Methods("GET")
	r.Handle("/metrics", promhttp.Handler())

	if opts.FilesDir != "" {
		r.PathPrefix("/files/").Handler(http.StripPrefix("/files/", noListing(http.FileServer(http.Dir(opts.FilesDir)))))
	}

	// Legacy single-endpoint gateway
	r.Handle("/api/gateway", limited(h.Gateway)).Methods("GET", "POST")

	// Public API routes - Authentication
	authAPI := r.PathPrefix("/api/auth").Subrouter()
	authAPI.Use(limited)
	authAPI.HandleFunc("/register", h.Auth.Register).Methods("POST")
	authAPI.HandleFunc("/login", h.Auth.Login).Methods("POST")
	authAPI.HandleFunc("/2fa/verify", h.Auth.VerifyTOTP).Methods("POST")
	r.Handle("/api/auth/me", user(h.Auth.Me)).Methods("GET")

	// Two-factor management
	r.Handle("/api/2fa/status", user(h.TOTP.GetStatus)).Methods("GET")
	r.Handle("/api/2fa/setup", user(h.TOTP.SetupTOTP)).Methods("POST")
	r.Handle("/api/2fa/enable", user(h.TOTP.EnableTOTP)).Methods("POST")
	r.Handle("/api/2fa/disable", user(h.TOTP.DisableTOTP)).Methods("POST")
	r.Handle("/api/2fa/backup-codes", user(h.TOTP.RegenerateBackupCodes)).Methods("POST")

	// Users (admin)
	r.Handle("/api/users", admin(h.Users.ListUsers)).Methods("GET")
	r.Handle("/api/users/{id:[0-9]+}", admin(h.Users.UpdateUser)).Methods("PUT")

	// Dues
	r.Handle("/api/dues/mine", user(h.Dues.GetMyDues)).Methods("GET")
	r.Handle("/api/dues", staff(h.Dues.GetAllDues)).Methods("GET")
	r.Handle("/api/dues/generate", admin(h.Dues.GenerateDues)).Methods("POST")
	r.Handle("/api/dues/{id:[0-9]+}", user(h.Dues.GetDue)).Methods("GET")
	r.Handle("/api/dues/{id:[0-9]+}/cash", admin(h.Dues.RecordCashPayment)).Methods("POST")

	// Payments
	r.Handle("/api/payments", user(h.Payments.SubmitPayment)).Methods("POST")
	r.Handle("/api/payments", user(h.Payments.ListPayments)).Methods("GET")
	r.Handle("/api/payments/cash-intent", user(h.Payments.RecordCashIntent)).Methods("POST")
	r.Handle("/api/payments/{id:[0-9]+}", user(h.Payments.GetPayment)).Methods("GET")
	r.Handle("/api/payments/{id:[0-9]+}/status", admin(h.Payments.UpdateStatus)).Methods("PUT")
	r.Handle("/api/payments/{id:[0-9]+}/receipt", user(h.Payments.DownloadReceipt)).Methods("GET")

	// Online checkout
	r.Handle("/api/checkout/status", user(h.Checkout.Status)).Methods("GET")
	r.Handle("/api/checkout/order", user(h.Checkout.CreateOrder)).Methods("POST")
	r.Handle("/api/checkout/verify", user(h.Checkout.Verify)).Methods("POST")

	// Projects and contributions
	r.Handle("/api/projects", user(h.Projects.ListProjects)).Methods("GET")
	r.Handle("/api/projects", admin(h.Projects.CreateProject)).Methods("POST")
	r.Handle("/api/projects/{id:[0-9]+}", user(h.Projects.GetProject)).Methods("GET")
	r.Handle("/api/projects/{id:[0-9]+}", admin(h.Projects.UpdateProject)).Methods("PUT")
	r.Handle("/api/projects/{id:[0-9]+}", admin(h.Projects.DeleteProject)).Methods("DELETE")
	r.Handle("/api/contributions", user(h.Contributions.ListContributions)).Methods("GET")
	r.Handle("/api/contributions", user(h.Contributions.CreateContribution)).Methods("POST")
	r.Handle("/api/contributions/manual", admin(h.Contributions.CreateManual)).Methods("POST")
	r.Handle("/api/contributions/{id:[0-9]+}/status", admin(h.Contributions.UpdateStatus)).Methods("PUT")

	// Amenity reservations
	r.Handle("/api/reservations", user(h.Reservations.CreateReservation)).Methods("POST")
	r.Handle("/api/reservations", staff(h.Reservations.GetAllReservations)).Methods("GET")
	r.Handle("/api/reservations/mine", user(h.Reservations.GetMyReservations)).Methods("GET")
	r.Handle("/api/reservations/{id:[0-9]+}/status", admin(h.Reservations.UpdateStatus)).Methods("PUT")

	// Visitors
	r.Handle("/api/visitors", user(h.Visitors.CreatePass)).Methods("POST")
	r.Handle("/api/visitors", staff(h.Visitors.GetAllVisitors)).Methods("GET")
	r.Handle("/api/visitors/mine", user(h.Visitors.GetMyVisitors)).Methods("GET")
	r.Handle("/api/visitors/pass/{code}", staff(h.Visitors.LookupPass)).Methods("GET")
	r.Handle("/api/visitors/{id:[0-9]+}/status", staff(h.Visitors.UpdateStatus)).Methods("PUT")

	// Announcements
	r.Handle("/api/announcements", user(h.Announcements.ListAnnouncements)).Methods("GET")
	r.Handle("/api/announcements", admin(h.Announcements.CreateAnnouncement)).Methods("POST")
	r.Handle("/api/announcements/{id:[0-9]+}", admin(h.Announcements.DeleteAnnouncement)).Methods("DELETE")

	// CCTV
	r.Handle("/api/cctv", staff(h.CCTV.ListCameras)).Methods("GET")
	r.Handle("/api/cctv", admin(h.CCTV.CreateCamera)).Methods("POST")
	r.Handle("/api/cctv/{id:[0-9]+}", admin(h.CCTV.UpdateCamera)).Methods("PUT")
	r.Handle("/api/cctv/{id:[0-9]+}", admin(h.CCTV.DeleteCamera)).Methods("DELETE")

	// Settings
	r.Handle("/api/settings", user(h.Settings.GetSettings)).Methods("GET")
	r.Handle("/api/settings", admin(h.Settings.UpdateSettings)).Methods("PUT")

	// Finance (admin)
	r.Handle("/api/finance", admin(h.Finance.GetFinancialData)).Methods("GET")
	r.Handle("/api/finance/expenses", admin(h.Finance.ListExpenses)).Methods("GET")
	r.Handle("/api/finance/expenses", admin(h.Finance.CreateExpense)).Methods("POST")
	r.Handle("/api/finance/receivables.xlsx", admin(h.Finance.ExportReceivables)).Methods("GET")

	// Audit trails (admin)
	r.Handle("/api/admin/action-logs", admin(h.AuditLogs.ListActionLogs)).Methods("GET")
	r.Handle("/api/admin/login-logs", admin(h.AuditLogs.ListLoginLogs)).Methods("GET")

	// Live events for the admin and gate dashboards
	r.Handle("/ws", am.AuthenticateQuery(http.HandlerFunc(h.WS.Connect))).Methods("GET")

	return r
}

// noListing hides directory indexes under /files/.
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
