package handlers

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"hoa-backend/internal/models"
	"hoa-backend/internal/services"
	"hoa-backend/pkg/utils"
)

// Action names one gateway operation. Anything outside the table below is
// rejected before authentication.
type Action string

const (
	ActionLogin                          Action = "login"
	ActionVerifyTOTP                     Action = "verifyTotp"
	ActionRegister                       Action = "register"
	ActionGetAnnouncements               Action = "getAnnouncements"
	ActionCreateAnnouncement             Action = "createAnnouncement"
	ActionDeleteAnnouncement             Action = "deleteAnnouncement"
	ActionGetDuesForUser                 Action = "getDuesForUser"
	ActionGetAllDues                     Action = "getAllDues"
	ActionSubmitPayment                  Action = "submitPayment"
	ActionUpdatePaymentStatus            Action = "updatePaymentStatus"
	ActionRecordAdminCashPayment         Action = "recordAdminCashPayment"
	ActionRecordCashPaymentIntent        Action = "recordCashPaymentIntent"
	ActionGetAllUsers                    Action = "getAllUsers"
	ActionUpdateUser                     Action = "updateUser"
	ActionGetAppSettings                 Action = "getAppSettings"
	ActionUpdateAppSettings              Action = "updateAppSettings"
	ActionCreateVisitorPass              Action = "createVisitorPass"
	ActionGetVisitorsForUser             Action = "getVisitorsForUser"
	ActionGetAmenityReservationsForUser  Action = "getAmenityReservationsForUser"
	ActionGetAllAmenityReservations      Action = "getAllAmenityReservations"
	ActionCreateAmenityReservation       Action = "createAmenityReservation"
	ActionUpdateAmenityReservationStatus Action = "updateAmenityReservationStatus"
	ActionGetProjects                    Action = "getProjects"
	ActionCreateProject                  Action = "createProject"
	ActionUpdateProject                  Action = "updateProject"
	ActionDeleteProject                  Action = "deleteProject"
	ActionGetProjectContributions        Action = "getProjectContributions"
	ActionCreateManualContribution       Action = "createManualProjectContribution"
	ActionCreateContribution             Action = "createProjectContribution"
	ActionUpdateContributionStatus       Action = "updateContributionStatus"
	ActionGetCCTVList                    Action = "getCCTVList"
	ActionCreateCCTV                     Action = "createCCTV"
	ActionUpdateCCTV                     Action = "updateCCTV"
	ActionDeleteCCTV                     Action = "deleteCCTV"
	ActionGetFinancialData               Action = "getFinancialData"
	ActionCreateExpense                  Action = "createExpense"
)

// a base64 proof is about 4/3 the size of the image
const maxGatewayBody = services.MaxProofBytes*4/3 + 1<<20

type access int

const (
	accessPublic access = iota
	accessUser
	accessStaff
	accessAdmin
)

func (a access) allows(role string) bool {
	switch a {
	case accessStaff:
		return role == models.RoleAdmin || role == models.RoleStaff
	case accessAdmin:
		return role == models.RoleAdmin
	}
	return true
}

// ActorResolver authenticates a gateway request without writing a response.
type ActorResolver interface {
	Resolve(r *http.Request) (models.Actor, error)
}

// GatewayServices are the targets of gateway actions.
type GatewayServices struct {
	Users         *services.UserService
	Announcements *services.AnnouncementService
	Dues          *services.DueService
	Payments      *services.PaymentService
	Settings      *services.SystemSettingService
	Visitors      *services.VisitorService
	Reservations  *services.ReservationService
	Projects      *services.ProjectService
	Contributions *services.ContributionService
	CCTV          *services.CCTVService
	Finance       *services.FinanceService
}

type gatewayCall struct {
	actor   models.Actor
	payload json.RawMessage
	query   url.Values
	meta    services.LoginMeta
	fields  map[string]any
}

type actionFunc func(ctx context.Context, c *gatewayCall) (any, error)

type gatewayRoute struct {
	access access
	run    actionFunc
}

// GatewayHandler serves the legacy single-endpoint protocol:
// GET ?action=name&params for reads and POST {action, payload} for writes.
// Every reply is the {success, data} envelope with status 200.
type GatewayHandler struct {
	auth   ActorResolver
	routes map[Action]gatewayRoute
}

func NewGatewayHandler(auth ActorResolver, svc GatewayServices) *GatewayHandler {
	return &GatewayHandler{auth: auth, routes: gatewayRoutes(svc)}
}

type gatewayRequest struct {
	Action  Action          `json:"action"`
	Payload json.RawMessage `json:"payload"`
}

// ServeHTTP ignores the content type on POST; the legacy client sends text/plain.
func (h *GatewayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req gatewayRequest
	switch r.Method {
	case http.MethodGet:
		req.Action = Action(r.URL.Query().Get("action"))
	case http.MethodPost:
		r.Body = http.MaxBytesReader(w, r.Body, maxGatewayBody)
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				utils.RespondEnvelopeError(w, gatewayMessage(req.Action, services.ErrProofTooLarge))
				return
			}
			utils.RespondEnvelopeError(w, "Malformed request body")
			return
		}
	default:
		utils.RespondEnvelopeError(w, "Method not allowed")
		return
	}

	route, ok := h.routes[req.Action]
	if !ok {
		utils.RespondEnvelopeError(w, "Unknown action: "+string(req.Action))
		return
	}

	call := &gatewayCall{payload: req.Payload, query: r.URL.Query(), meta: loginMeta(r)}
	if route.access != accessPublic {
		actor, err := h.auth.Resolve(r)
		if err != nil {
			if errors.Is(err, utils.ErrAccountInactive) {
				utils.RespondEnvelopeError(w, "Account is not active")
				return
			}
			utils.RespondEnvelopeError(w, "Session expired, please sign in again")
			return
		}
		if !route.access.allows(actor.Role) {
			utils.RespondEnvelopeError(w, "You are not allowed to perform this action")
			return
		}
		call.actor = actor
	}

	data, err := route.run(r.Context(), call)
	if err != nil {
		utils.RespondEnvelopeError(w, gatewayMessage(req.Action, err))
		return
	}
	utils.RespondEnvelope(w, data)
}

func gatewayMessage(action Action, err error) string {
	var totpErr *services.TOTPError
	if errors.As(err, &totpErr) {
		return totpErr.Message
	}
	status, _, msg := utils.Classify(err)
	if status >= http.StatusInternalServerError {
		utils.Logger.WithError(err).WithField("action", action).Error("gateway action failed")
	}
	return msg
}

// decode unmarshals the payload into dst.
func (c *gatewayCall) decode(dst any) error {
	if len(c.payload) == 0 || string(c.payload) == "null" {
		return utils.NewValidationError("payload", "Payload is required")
	}
	if err := json.Unmarshal(c.payload, dst); err != nil {
		return utils.NewValidationError("payload", "Malformed payload")
	}
	return nil
}

// param reads a read-action parameter from the query string, falling back to
// a top-level payload field so reads also work over POST.
func (c *gatewayCall) param(key string) string {
	if v := c.query.Get(key); v != "" {
		return v
	}
	if c.fields == nil {
		c.fields = map[string]any{}
		if len(c.payload) > 0 {
			_ = json.Unmarshal(c.payload, &c.fields)
		}
	}
	switch v := c.fields[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func (c *gatewayCall) intParam(key string) int {
	n, _ := strconv.Atoi(c.param(key))
	return n
}

type idPayload struct {
	ID int `json:"id"`
}

func (p idPayload) check() error {
	if p.ID <= 0 {
		return utils.NewValidationError("id", "id is required")
	}
	return nil
}

// proofPayload carries an inline proof image as a data URL.
type proofPayload struct {
	Proof         string `json:"proof"`
	ProofFilename string `json:"proof_filename"`
}

type submitPaymentPayload struct {
	models.SubmitPaymentRequest
	proofPayload
}

type contributionPayload struct {
	models.ContributionRequest
	proofPayload
}

// decodeDataURL accepts "data:image/png;base64,...." or bare base64.
func decodeDataURL(s string) ([]byte, error) {
	if i := strings.Index(s, ","); strings.HasPrefix(s, "data:") && i > 0 {
		s = s[i+1:]
	}
	if base64.StdEncoding.DecodedLen(len(s)) > services.MaxProofBytes+3 {
		return nil, services.ErrProofTooLarge
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, utils.NewValidationError("proof", "Proof is not valid base64")
	}
	if len(data) > services.MaxProofBytes {
		return nil, services.ErrProofTooLarge
	}
	return data, nil
}

func (p proofPayload) proof() (*services.Proof, error) {
	if p.Proof == "" {
		return nil, nil
	}
	data, err := decodeDataURL(p.Proof)
	if err != nil {
		return nil, err
	}
	name := p.ProofFilename
	if name == "" {
		name = "proof"
	}
	return &services.Proof{Filename: name, Data: data}, nil
}

func gatewayRoutes(s GatewayServices) map[Action]gatewayRoute {
	return map[Action]gatewayRoute{
		ActionLogin: {accessPublic, func(ctx context.Context, c *gatewayCall) (any, error) {
			var req models.LoginRequest
			if err := c.decode(&req); err != nil {
				return nil, err
			}
			return s.Users.Login(ctx, req, c.meta)
		}},
		ActionVerifyTOTP: {accessPublic, func(ctx context.Context, c *gatewayCall) (any, error) {
			var req models.TOTPVerifyRequest
			if err := c.decode(&req); err != nil {
				return nil, err
			}
			return s.Users.CompleteTOTPLogin(ctx, req, c.meta)
		}},
		ActionRegister: {accessPublic, func(ctx context.Context, c *gatewayCall) (any, error) {
			var req models.RegisterRequest
			if err := c.decode(&req); err != nil {
				return nil, err
			}
			return s.Users.Register(ctx, req)
		}},

		ActionGetAnnouncements: {accessUser, func(ctx context.Context, c *gatewayCall) (any, error) {
			return s.Announcements.GetAnnouncements(ctx)
		}},
		ActionCreateAnnouncement: {accessAdmin, func(ctx context.Context, c *gatewayCall) (any, error) {
			var req models.CreateAnnouncementRequest
			if err := c.decode(&req); err != nil {
				return nil, err
			}
			return s.Announcements.CreateAnnouncement(ctx, c.actor, req)
		}},
		ActionDeleteAnnouncement: {accessAdmin, func(ctx context.Context, c *gatewayCall) (any, error) {
			var p idPayload
			if err := c.decode(&p); err != nil {
				return nil, err
			}
			if err := p.check(); err != nil {
				return nil, err
			}
			return p, s.Announcements.DeleteAnnouncement(ctx, c.actor, p.ID)
		}},

		ActionGetDuesForUser: {accessUser, func(ctx context.Context, c *gatewayCall) (any, error) {
			return s.Dues.GetDuesForUser(ctx, c.actor, models.DueFilter{
				Status: c.param("status"),
				Period: c.param("period"),
			})
		}},
		ActionGetAllDues: {accessStaff, func(ctx context.Context, c *gatewayCall) (any, error) {
			return s.Dues.GetAllDues(ctx, c.actor, models.DueFilter{
				Status:  c.param("status"),
				Period:  c.param("period"),
				OwnerID: c.intParam("owner_id"),
			})
		}},
		ActionSubmitPayment: {accessUser, func(ctx context.Context, c *gatewayCall) (any, error) {
			var p submitPaymentPayload
			if err := c.decode(&p); err != nil {
				return nil, err
			}
			proof, err := p.proof()
			if err != nil {
				return nil, err
			}
			return s.Payments.SubmitPayment(ctx, c.actor, p.SubmitPaymentRequest, proof)
		}},
		ActionUpdatePaymentStatus: {accessAdmin, func(ctx context.Context, c *gatewayCall) (any, error) {
			var p struct {
				idPayload
				models.DecisionRequest
			}
			if err := c.decode(&p); err != nil {
				return nil, err
			}
			if err := p.check(); err != nil {
				return nil, err
			}
			return s.Payments.UpdatePaymentStatus(ctx, c.actor, p.ID, p.DecisionRequest)
		}},
		ActionRecordAdminCashPayment: {accessAdmin, func(ctx context.Context, c *gatewayCall) (any, error) {
			var req models.CashSettlementRequest
			if err := c.decode(&req); err != nil {
				return nil, err
			}
			return s.Dues.RecordAdminCashPayment(ctx, c.actor, req)
		}},
		ActionRecordCashPaymentIntent: {accessUser, func(ctx context.Context, c *gatewayCall) (any, error) {
			var req models.CashIntentRequest
			if err := c.decode(&req); err != nil {
				return nil, err
			}
			return s.Payments.RecordCashPaymentIntent(ctx, c.actor, req)
		}},

		ActionGetAllUsers: {accessAdmin, func(ctx context.Context, c *gatewayCall) (any, error) {
			return s.Users.ListUsers(ctx, c.actor, models.UserFilter{
				Role:   c.param("role"),
				Status: c.param("status"),
			})
		}},
		ActionUpdateUser: {accessAdmin, func(ctx context.Context, c *gatewayCall) (any, error) {
			var p struct {
				idPayload
				models.UpdateUserRequest
			}
			if err := c.decode(&p); err != nil {
				return nil, err
			}
			if err := p.check(); err != nil {
				return nil, err
			}
			return s.Users.UpdateUser(ctx, c.actor, p.ID, p.UpdateUserRequest)
		}},

		ActionGetAppSettings: {accessUser, func(ctx context.Context, c *gatewayCall) (any, error) {
			return s.Settings.GetAppSettings(ctx, c.actor)
		}},
		ActionUpdateAppSettings: {accessAdmin, func(ctx context.Context, c *gatewayCall) (any, error) {
			var req models.UpdateSettingsRequest
			if err := c.decode(&req); err != nil {
				return nil, err
			}
			if err := s.Settings.UpdateAppSettings(ctx, c.actor, req); err != nil {
				return nil, err
			}
			return s.Settings.GetAppSettings(ctx, c.actor)
		}},

		ActionCreateVisitorPass: {accessUser, func(ctx context.Context, c *gatewayCall) (any, error) {
			var req models.CreateVisitorRequest
			if err := c.decode(&req); err != nil {
				return nil, err
			}
			return s.Visitors.CreateVisitorPass(ctx, c.actor, req)
		}},
		ActionGetVisitorsForUser: {accessUser, func(ctx context.Context, c *gatewayCall) (any, error) {
			return s.Visitors.GetVisitorsForUser(ctx, c.actor, models.VisitorFilter{
				Status: c.param("status"),
				Date:   c.param("date"),
			})
		}},

		ActionGetAmenityReservationsForUser: {accessUser, func(ctx context.Context, c *gatewayCall) (any, error) {
			return s.Reservations.GetReservationsForUser(ctx, c.actor, models.ReservationFilter{
				Status:  c.param("status"),
				Amenity: c.param("amenity"),
			})
		}},
		ActionGetAllAmenityReservations: {accessStaff, func(ctx context.Context, c *gatewayCall) (any, error) {
			return s.Reservations.GetAllReservations(ctx, c.actor, models.ReservationFilter{
				Status:  c.param("status"),
				Amenity: c.param("amenity"),
				UserID:  c.intParam("user_id"),
			})
		}},
		ActionCreateAmenityReservation: {accessUser, func(ctx context.Context, c *gatewayCall) (any, error) {
			var req models.CreateReservationRequest
			if err := c.decode(&req); err != nil {
				return nil, err
			}
			return s.Reservations.CreateReservation(ctx, c.actor, req)
		}},
		ActionUpdateAmenityReservationStatus: {accessAdmin, func(ctx context.Context, c *gatewayCall) (any, error) {
			var p struct {
				idPayload
				models.UpdateReservationStatusRequest
			}
			if err := c.decode(&p); err != nil {
				return nil, err
			}
			if err := p.check(); err != nil {
				return nil, err
			}
			return s.Reservations.UpdateReservationStatus(ctx, c.actor, p.ID, p.UpdateReservationStatusRequest)
		}},

		ActionGetProjects: {accessUser, func(ctx context.Context, c *gatewayCall) (any, error) {
			return s.Projects.GetProjects(ctx)
		}},
		ActionCreateProject: {accessAdmin, func(ctx context.Context, c *gatewayCall) (any, error) {
			var req models.ProjectRequest
			if err := c.decode(&req); err != nil {
				return nil, err
			}
			return s.Projects.CreateProject(ctx, c.actor, req)
		}},
		ActionUpdateProject: {accessAdmin, func(ctx context.Context, c *gatewayCall) (any, error) {
			var p struct {
				idPayload
				models.ProjectRequest
			}
			if err := c.decode(&p); err != nil {
				return nil, err
			}
			if err := p.check(); err != nil {
				return nil, err
			}
			return s.Projects.UpdateProject(ctx, c.actor, p.ID, p.ProjectRequest)
		}},
		ActionDeleteProject: {accessAdmin, func(ctx context.Context, c *gatewayCall) (any, error) {
			var p idPayload
			if err := c.decode(&p); err != nil {
				return nil, err
			}
			if err := p.check(); err != nil {
				return nil, err
			}
			return p, s.Projects.DeleteProject(ctx, c.actor, p.ID)
		}},
		ActionGetProjectContributions: {accessUser, func(ctx context.Context, c *gatewayCall) (any, error) {
			return s.Contributions.ListContributions(ctx, c.actor, c.intParam("project_id"))
		}},
		ActionCreateManualContribution: {accessAdmin, func(ctx context.Context, c *gatewayCall) (any, error) {
			var req models.ManualContributionRequest
			if err := c.decode(&req); err != nil {
				return nil, err
			}
			return s.Contributions.CreateManualContribution(ctx, c.actor, req)
		}},
		ActionCreateContribution: {accessUser, func(ctx context.Context, c *gatewayCall) (any, error) {
			var p contributionPayload
			if err := c.decode(&p); err != nil {
				return nil, err
			}
			proof, err := p.proof()
			if err != nil {
				return nil, err
			}
			return s.Contributions.CreateContribution(ctx, c.actor, p.ContributionRequest, proof)
		}},
		ActionUpdateContributionStatus: {accessAdmin, func(ctx context.Context, c *gatewayCall) (any, error) {
			var p struct {
				idPayload
				models.DecisionRequest
			}
			if err := c.decode(&p); err != nil {
				return nil, err
			}
			if err := p.check(); err != nil {
				return nil, err
			}
			return s.Contributions.UpdateContributionStatus(ctx, c.actor, p.ID, p.DecisionRequest)
		}},

		ActionGetCCTVList: {accessStaff, func(ctx context.Context, c *gatewayCall) (any, error) {
			return s.CCTV.GetCCTVList(ctx, c.actor)
		}},
		ActionCreateCCTV: {accessAdmin, func(ctx context.Context, c *gatewayCall) (any, error) {
			var req models.CameraRequest
			if err := c.decode(&req); err != nil {
				return nil, err
			}
			return s.CCTV.CreateCCTV(ctx, c.actor, req)
		}},
		ActionUpdateCCTV: {accessAdmin, func(ctx context.Context, c *gatewayCall) (any, error) {
			var p struct {
				idPayload
				models.CameraRequest
			}
			if err := c.decode(&p); err != nil {
				return nil, err
			}
			if err := p.check(); err != nil {
				return nil, err
			}
			return s.CCTV.UpdateCCTV(ctx, c.actor, p.ID, p.CameraRequest)
		}},
		ActionDeleteCCTV: {accessAdmin, func(ctx context.Context, c *gatewayCall) (any, error) {
			var p idPayload
			if err := c.decode(&p); err != nil {
				return nil, err
			}
			if err := p.check(); err != nil {
				return nil, err
			}
			return p, s.CCTV.DeleteCCTV(ctx, c.actor, p.ID)
		}},

		ActionGetFinancialData: {accessAdmin, func(ctx context.Context, c *gatewayCall) (any, error) {
			return s.Finance.GetFinancialData(ctx, c.actor)
		}},
		ActionCreateExpense: {accessAdmin, func(ctx context.Context, c *gatewayCall) (any, error) {
			var req models.CreateExpenseRequest
			if err := c.decode(&req); err != nil {
				return nil, err
			}
			return s.Finance.CreateExpense(ctx, c.actor, req)
		}},
	}
}
