package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"hoa-backend/internal/auth"
	"hoa-backend/internal/models"
	"hoa-backend/pkg/utils"

	"github.com/sirupsen/logrus"
)

// LoginThrottle counts failed logins per email. *cache.Cache implements it on Redis.
type LoginThrottle interface {
	RecordLoginFailure(ctx context.Context, email string, window time.Duration) (int64, error)
	LoginFailures(ctx context.Context, email string) int64
	ResetLoginFailures(ctx context.Context, email string)
}

// LoginPolicy is the lockout rule: MaxAttempts failures within Window lock
// the email for the rest of the window.
type LoginPolicy struct {
	MaxAttempts int
	Window      time.Duration
}

// LoginMeta describes where a login attempt came from.
type LoginMeta struct {
	IP        string
	UserAgent string
}

type UserService struct {
	Repo       UserStore
	JWTManager *auth.JWTManager
	totp       *TOTPService
	throttle   LoginThrottle
	logins     LoginLogger
	audit      AuditLogger
	policy     LoginPolicy
}

func NewUserService(
	repo UserStore,
	jwtManager *auth.JWTManager,
	totp *TOTPService,
	throttle LoginThrottle,
	logins LoginLogger,
	audit AuditLogger,
	policy LoginPolicy,
) *UserService {
	if policy.MaxAttempts <= 0 {
		policy.MaxAttempts = 5
	}
	if policy.Window <= 0 {
		policy.Window = 15 * time.Minute
	}
	return &UserService{
		Repo:       repo,
		JWTManager: jwtManager,
		totp:       totp,
		throttle:   throttle,
		logins:     logins,
		audit:      audit,
		policy:     policy,
	}
}

// Register creates a pending resident account. An admin activates it.
func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) (*models.User, error) {
	req.Email = normalizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	hashedPassword, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = models.RoleHomeowner
	}
	user := &models.User{
		Name:         strings.TrimSpace(req.Name),
		Email:        req.Email,
		Phone:        req.Phone,
		Unit:         strings.TrimSpace(req.Unit),
		PasswordHash: hashedPassword,
		Role:         role,
		Status:       models.UserStatusPending,
	}
	if err := s.Repo.Create(ctx, user); err != nil {
		return nil, err
	}

	utils.Logger.WithFields(logrus.Fields{"user_id": user.ID, "role": user.Role}).Info("user registered")
	return user, nil
}

// Login checks the password. Users with 2FA get a temp token for step 2
// instead of a session token.
func (s *UserService) Login(ctx context.Context, req models.LoginRequest, meta LoginMeta) (*models.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}

	if s.throttle.LoginFailures(ctx, req.Email) >= int64(s.policy.MaxAttempts) {
		s.logLogin(ctx, nil, req.Email, false, meta)
		return nil, utils.ErrLoginLocked
	}

	user, err := s.Repo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, utils.ErrNotFound) {
			return nil, s.loginFailed(ctx, nil, req.Email, meta)
		}
		return nil, err
	}

	if !auth.VerifyPassword(user.PasswordHash, req.Password) {
		return nil, s.loginFailed(ctx, &user.ID, req.Email, meta)
	}

	if !user.IsActive() {
		s.logLogin(ctx, &user.ID, req.Email, false, meta)
		return nil, utils.ErrAccountInactive
	}

	s.throttle.ResetLoginFailures(ctx, req.Email)

	if user.TOTPEnabled {
		tempToken, err := s.JWTManager.GenerateTempToken(user)
		if err != nil {
			return nil, err
		}
		return &models.AuthResponse{Requires2FA: true, TempToken: tempToken}, nil
	}

	s.logLogin(ctx, &user.ID, req.Email, true, meta)
	return s.session(user)
}

// CompleteTOTPLogin is login step 2: exchange a temp token and a code for a
// session token.
func (s *UserService) CompleteTOTPLogin(ctx context.Context, req models.TOTPVerifyRequest, meta LoginMeta) (*models.AuthResponse, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	claims, err := s.JWTManager.ValidateTempToken(req.TempToken)
	if err != nil {
		return nil, utils.ErrInvalidCredentials
	}

	if err := s.totp.Verify(ctx, claims.UserID, strings.TrimSpace(req.Code)); err != nil {
		if errors.Is(err, ErrInvalidTOTPCode) {
			s.logLogin(ctx, &claims.UserID, claims.Email, false, meta)
		}
		return nil, err
	}

	user, err := s.Repo.Get(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if !user.IsActive() {
		return nil, utils.ErrAccountInactive
	}

	s.logLogin(ctx, &user.ID, user.Email, true, meta)
	return s.session(user)
}

func (s *UserService) session(user *models.User) (*models.AuthResponse, error) {
	token, err := s.JWTManager.GenerateToken(user)
	if err != nil {
		return nil, err
	}
	return &models.AuthResponse{Token: token, User: user}, nil
}

// loginFailed counts the failure and returns the error to report.
func (s *UserService) loginFailed(ctx context.Context, userID *int, email string, meta LoginMeta) error {
	s.logLogin(ctx, userID, email, false, meta)

	n, err := s.throttle.RecordLoginFailure(ctx, email, s.policy.Window)
	if err != nil {
		utils.Logger.WithError(err).Warn("failed to record login failure")
	}
	if n >= int64(s.policy.MaxAttempts) {
		utils.Logger.WithField("email", email).Warn("login locked after repeated failures")
		return utils.ErrLoginLocked
	}
	return utils.ErrInvalidCredentials
}

func (s *UserService) logLogin(ctx context.Context, userID *int, email string, success bool, meta LoginMeta) {
	if s.logins == nil {
		return
	}
	entry := &models.LoginLog{
		UserID:    userID,
		Email:     email,
		Success:   success,
		IPAddress: meta.IP,
		UserAgent: meta.UserAgent,
	}
	if err := s.logins.CreateLoginLog(ctx, entry); err != nil {
		utils.Logger.WithError(err).Warn("failed to write login log")
	}
}

// Profile returns the signed-in user's own record.
func (s *UserService) Profile(ctx context.Context, actor models.Actor) (*models.User, error) {
	return s.Repo.Get(ctx, actor.ID)
}

// ListUsers returns all accounts. Admin only.
func (s *UserService) ListUsers(ctx context.Context, actor models.Actor, filter models.UserFilter) ([]*models.User, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	return s.Repo.List(ctx, filter)
}

// UpdateUser edits a user's profile, role or status. Admins cannot demote or
// deactivate themselves.
func (s *UserService) UpdateUser(ctx context.Context, actor models.Actor, id int, req models.UpdateUserRequest) (*models.User, error) {
	if err := utils.ValidateStruct(req); err != nil {
		return nil, err
	}
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	if id == actor.ID {
		if req.Role != "" && req.Role != models.RoleAdmin {
			return nil, utils.NewValidationError("role", "You cannot change your own role")
		}
		if req.Status != "" && req.Status != models.UserStatusActive {
			return nil, utils.NewValidationError("status", "You cannot deactivate your own account")
		}
	}

	user, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	before := user.Role + "/" + user.Status

	if req.Name != "" {
		user.Name = strings.TrimSpace(req.Name)
	}
	if req.Phone != "" {
		user.Phone = req.Phone
	}
	if req.Unit != "" {
		user.Unit = strings.TrimSpace(req.Unit)
	}
	if req.Role != "" {
		user.Role = req.Role
	}
	if req.Status != "" {
		user.Status = req.Status
	}
	if err := s.Repo.Update(ctx, user); err != nil {
		return nil, err
	}

	audit(ctx, s.audit, actor, models.ActionUserUpdate, "user", user.ID,
		fmt.Sprintf("Updated %s (%s -> %s/%s)", user.Email, before, user.Role, user.Status))
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
