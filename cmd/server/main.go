package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"hoa-backend/internal/auth"
	"hoa-backend/internal/cache"
	"hoa-backend/internal/config"
	"hoa-backend/internal/database"
	"hoa-backend/internal/db"
	"hoa-backend/internal/handlers"
	"hoa-backend/internal/health"
	h "hoa-backend/internal/http"
	"hoa-backend/internal/middleware"
	"hoa-backend/internal/notify"
	"hoa-backend/internal/repositories"
	"hoa-backend/internal/services"
	"hoa-backend/internal/storage"
	"hoa-backend/internal/timeutil"
	"hoa-backend/migrations"
	"hoa-backend/pkg/utils"

	"github.com/shopspring/decimal"
)

func main() {
	port := flag.Int("port", 0, "Server port (overrides config)")
	migrateOnly := flag.Bool("migrate", false, "Apply database migrations and exit")
	flag.Parse()

	utils.InitLogger("hoa-backend")
	cfg := config.Load()
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if err := timeutil.SetLocation(cfg.Server.Timezone); err != nil {
		utils.Logger.Warnf("[Config] Unknown timezone %q, using UTC: %v", cfg.Server.Timezone, err)
	}

	pool := db.Connect(cfg)
	defer pool.Close()

	// Run database migrations
	// Uses embedded migrations for standalone binary operation
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	if err := database.NewMigratorWithFS(pool, migrations.FS).RunMigrations(ctx); err != nil {
		cancel()
		utils.Logger.Fatalf("Failed to run migrations: %v", err)
	}
	cancel()
	if *migrateOnly {
		utils.Logger.Info("Migrations applied")
		return
	}

	// Redis is optional: without it the finance report is not cached and
	// failed logins are not counted.
	redisCache, err := cache.New(cfg)
	if err != nil {
		utils.Logger.Warnf("[Redis] Cache unavailable: %v (running without cache and login lockout)", err)
		redisCache = nil
	} else {
		defer redisCache.Close()
		utils.Logger.Info("[Redis] Cache connected successfully")
	}

	storeCtx, storeCancel := context.WithTimeout(context.Background(), 15*time.Second)
	objectStore, err := storage.New(storeCtx, cfg)
	storeCancel()
	if err != nil {
		utils.Logger.Fatalf("Failed to initialise proof storage: %v", err)
	}

	billing, err := billingConfig(cfg)
	if err != nil {
		utils.Logger.Fatalf("Invalid billing config: %v", err)
	}

	jwtManager := auth.NewJWTManager(cfg)
	hub := notify.NewHub()

	// Initialize repositories
	userRepo := repositories.NewUserRepository(pool)
	dueRepo := repositories.NewDueRepository(pool)
	paymentRepo := repositories.NewPaymentRepository(pool)
	contributionRepo := repositories.NewContributionRepository(pool)
	projectRepo := repositories.NewProjectRepository(pool)
	reservationRepo := repositories.NewReservationRepository(pool)
	visitorRepo := repositories.NewVisitorRepository(pool)
	announcementRepo := repositories.NewAnnouncementRepository(pool)
	cameraRepo := repositories.NewCameraRepository(pool)
	settingRepo := repositories.NewSystemSettingRepository(pool)
	expenseRepo := repositories.NewExpenseRepository(pool)
	financeRepo := repositories.NewFinanceRepository(pool)
	onlineTxRepo := repositories.NewOnlineTransactionRepository(pool)
	loginLogRepo := repositories.NewLoginLogRepository(pool)
	actionLogRepo := repositories.NewAdminActionLogRepository(pool)

	// Initialize services
	proofService := services.NewProofService(objectStore)
	totpService := services.NewTOTPService(userRepo, redisCache, cfg.Auth.TOTPIssuer)
	userService := services.NewUserService(userRepo, jwtManager, totpService, redisCache, loginLogRepo, actionLogRepo,
		services.LoginPolicy{MaxAttempts: cfg.Auth.MaxLoginAttempts, Window: cfg.LockoutWindow()})
	settingService := services.NewSystemSettingService(settingRepo, actionLogRepo)
	dueService := services.NewDueService(dueRepo, paymentRepo, userRepo, settingRepo, proofService, actionLogRepo, redisCache, billing)
	paymentService := services.NewPaymentService(dueRepo, paymentRepo, proofService, actionLogRepo, hub, redisCache)
	receiptService := services.NewReceiptService(paymentRepo, dueRepo, settingRepo, cfg.Billing.Currency)
	checkoutService := services.NewCheckoutService(dueRepo, paymentRepo, onlineTxRepo, settingRepo, hub, redisCache,
		services.CheckoutCredentials{
			KeyID:     cfg.Razorpay.KeyID,
			KeySecret: cfg.Razorpay.KeySecret,
			Currency:  cfg.Billing.Currency,
		})
	projectService := services.NewProjectService(projectRepo, actionLogRepo, redisCache)
	contributionService := services.NewContributionService(contributionRepo, projectRepo, proofService, actionLogRepo, hub, redisCache)
	reservationService := services.NewReservationService(reservationRepo, actionLogRepo, hub)
	visitorService := services.NewVisitorService(visitorRepo)
	announcementService := services.NewAnnouncementService(announcementRepo)
	cctvService := services.NewCCTVService(cameraRepo)
	financeService := services.NewFinanceService(financeRepo, expenseRepo, dueRepo, paymentRepo, actionLogRepo, redisCache)

	authMiddleware := middleware.NewAuthMiddleware(jwtManager, userRepo)
	rateLimiter := middleware.NewRateLimiter(cfg.Auth.RateLimitPerMin, cfg.Auth.RateLimitBurst)

	var healthChecker *health.HealthChecker
	if redisCache != nil {
		healthChecker = health.NewHealthChecker(pool, redisCache)
	} else {
		healthChecker = health.NewHealthChecker(pool, nil)
	}

	filesDir := ""
	if local, ok := objectStore.(*storage.LocalStore); ok {
		filesDir = local.BaseDir
	}

	router := h.NewRouter(h.Handlers{
		Auth:          handlers.NewAuthHandler(userService),
		TOTP:          handlers.NewTOTPHandler(totpService, userService),
		Users:         handlers.NewUserHandler(userService),
		Dues:          handlers.NewDueHandler(dueService),
		Payments:      handlers.NewPaymentHandler(paymentService, receiptService),
		Contributions: handlers.NewContributionHandler(contributionService),
		Reservations:  handlers.NewReservationHandler(reservationService),
		Visitors:      handlers.NewVisitorHandler(visitorService),
		Projects:      handlers.NewProjectHandler(projectService),
		Announcements: handlers.NewAnnouncementHandler(announcementService),
		CCTV:          handlers.NewCCTVHandler(cctvService),
		Settings:      handlers.NewSettingHandler(settingService),
		Finance:       handlers.NewFinanceHandler(financeService),
		Checkout:      handlers.NewCheckoutHandler(checkoutService),
		AuditLogs:     handlers.NewAuditLogHandler(actionLogRepo, loginLogRepo),
		Health:        handlers.NewHealthHandler(healthChecker),
		WS:            handlers.NewWSHandler(hub),
		Gateway: handlers.NewGatewayHandler(authMiddleware, handlers.GatewayServices{
			Users:         userService,
			Announcements: announcementService,
			Dues:          dueService,
			Payments:      paymentService,
			Settings:      settingService,
			Visitors:      visitorService,
			Reservations:  reservationService,
			Projects:      projectService,
			Contributions: contributionService,
			CCTV:          cctvService,
			Finance:       financeService,
		}),
	}, h.Options{
		Auth:        authMiddleware,
		RateLimiter: rateLimiter,
		FilesDir:    filesDir,
	})

	runCtx, stopRun := context.WithCancel(context.Background())
	defer stopRun()
	go hub.Run(runCtx)
	rateLimiter.StartCleanup(runCtx.Done())

	scheduler := services.NewScheduler(dueService)
	if err := scheduler.Register(cfg.Billing.GenerateDuesCron, cfg.Billing.OverdueCron); err != nil {
		utils.Logger.Fatalf("Invalid billing schedule: %v", err)
	}
	scheduler.Start()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           middleware.NewCORS(cfg)(router),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	go func() {
		utils.Logger.Infof("Server running on %s (storage=%s)", srv.Addr, storageDriver(cfg))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	utils.Logger.Info("Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.Logger.Errorf("Graceful shutdown failed: %v", err)
	}
	scheduler.Stop(shutdownCtx)
	stopRun()
}

func billingConfig(cfg *config.Config) (services.BillingConfig, error) {
	monthly, err := decimal.NewFromString(cfg.Billing.MonthlyDues)
	if err != nil {
		return services.BillingConfig{}, fmt.Errorf("billing.monthly_dues: %w", err)
	}
	return services.BillingConfig{
		MonthlyDues:    monthly,
		DueDay:         cfg.Billing.DueDay,
		PenaltyPercent: decimal.NewFromFloat(cfg.Billing.PenaltyPercent),
	}, nil
}

func storageDriver(cfg *config.Config) string {
	if cfg.Storage.Driver == "" {
		return "local"
	}
	return strings.ToLower(cfg.Storage.Driver)
}
