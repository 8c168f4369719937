package services

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"image/png"
	"strconv"
	"time"

	"hoa-backend/internal/auth"
	"hoa-backend/internal/cache"
	"hoa-backend/internal/models"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
	"golang.org/x/crypto/bcrypt"
)

const (
	backupCodeCount   = 10
	backupCodeLength  = 8
	maxFailedAttempts = 5
	totpFailureWindow = 15 * time.Minute
)

// TOTPService manages authenticator-app 2FA for admin accounts.
type TOTPService struct {
	users  UserStore
	cache  *cache.Cache
	issuer string
}

func NewTOTPService(users UserStore, c *cache.Cache, issuer string) *TOTPService {
	if issuer == "" {
		issuer = "HOA Portal"
	}
	return &TOTPService{users: users, cache: c, issuer: issuer}
}

// GenerateSetup creates a new TOTP secret and QR code for a user
func (s *TOTPService) GenerateSetup(ctx context.Context, user *models.User) (*models.TOTPSetupResponse, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.issuer,
		AccountName: user.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
		Algorithm:   otp.AlgorithmSHA1,
	})
	if err != nil {
		return nil, err
	}

	// Store the secret (not yet enabled)
	if err := s.users.SetTOTPSecret(ctx, user.ID, key.Secret()); err != nil {
		return nil, err
	}

	qrImage, err := key.Image(200, 200)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, qrImage); err != nil {
		return nil, err
	}

	return &models.TOTPSetupResponse{
		Secret:      key.Secret(),
		QRCode:      "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()),
		Issuer:      s.issuer,
		AccountName: user.Email,
	}, nil
}

// VerifyAndEnable verifies the first code from the app and enables 2FA
func (s *TOTPService) VerifyAndEnable(ctx context.Context, userID int, code string) (*models.BackupCodesResponse, error) {
	if s.isRateLimited(ctx, userID) {
		return nil, ErrTooManyAttempts
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TOTPSecret == "" {
		return nil, ErrNoTOTPSecret
	}

	if !totp.Validate(code, user.TOTPSecret) {
		s.recordFailure(ctx, userID)
		return nil, ErrInvalidTOTPCode
	}
	s.cache.ResetTOTPFailures(ctx, strconv.Itoa(userID))

	if err := s.users.EnableTOTP(ctx, userID); err != nil {
		return nil, err
	}

	codes, err := s.generateBackupCodes(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.BackupCodesResponse{Codes: codes}, nil
}

// Verify validates a TOTP code or backup code during login
func (s *TOTPService) Verify(ctx context.Context, userID int, code string) error {
	if s.isRateLimited(ctx, userID) {
		return ErrTooManyAttempts
	}

	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !user.TOTPEnabled || user.TOTPSecret == "" {
		return ErrTOTPNotEnabled
	}

	if totp.Validate(code, user.TOTPSecret) || s.consumeBackupCode(ctx, userID, code, user.BackupCodes) {
		s.cache.ResetTOTPFailures(ctx, strconv.Itoa(userID))
		return nil
	}

	s.recordFailure(ctx, userID)
	return ErrInvalidTOTPCode
}

// Disable turns 2FA off after checking the password and a current code
func (s *TOTPService) Disable(ctx context.Context, userID int, password, code string) error {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return err
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return ErrInvalidPassword
	}
	if !totp.Validate(code, user.TOTPSecret) {
		return ErrInvalidTOTPCode
	}
	return s.users.DisableTOTP(ctx, userID)
}

// RegenerateBackupCodes creates new backup codes (invalidates old ones)
func (s *TOTPService) RegenerateBackupCodes(ctx context.Context, userID int, password string) (*models.BackupCodesResponse, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !auth.VerifyPassword(user.PasswordHash, password) {
		return nil, ErrInvalidPassword
	}
	if !user.TOTPEnabled {
		return nil, ErrTOTPNotEnabled
	}

	codes, err := s.generateBackupCodes(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.BackupCodesResponse{Codes: codes}, nil
}

// GetStatus returns the 2FA status for a user
func (s *TOTPService) GetStatus(ctx context.Context, userID int) (*models.User2FAStatus, error) {
	user, err := s.users.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &models.User2FAStatus{
		Enabled:        user.TOTPEnabled,
		EnabledAt:      user.TOTPVerifiedAt,
		HasBackupCodes: user.BackupCodes != "" && user.BackupCodes != "[]",
	}, nil
}

func (s *TOTPService) generateBackupCodes(ctx context.Context, userID int) ([]string, error) {
	codes := make([]string, backupCodeCount)
	hashed := make([]string, backupCodeCount)

	for i := range codes {
		codes[i] = generateRandomCode(backupCodeLength)
		hash, err := bcrypt.GenerateFromPassword([]byte(codes[i]), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
		hashed[i] = string(hash)
	}

	hashedJSON, err := json.Marshal(hashed)
	if err != nil {
		return nil, err
	}
	if err := s.users.SetBackupCodes(ctx, userID, string(hashedJSON)); err != nil {
		return nil, err
	}
	return codes, nil
}

// consumeBackupCode checks code against the stored hashes and removes the match
func (s *TOTPService) consumeBackupCode(ctx context.Context, userID int, code, stored string) bool {
	if stored == "" {
		return false
	}
	var hashed []string
	if err := json.Unmarshal([]byte(stored), &hashed); err != nil {
		return false
	}

	for i, hash := range hashed {
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(code)) == nil {
			hashed = append(hashed[:i], hashed[i+1:]...)
			updated, _ := json.Marshal(hashed)
			_ = s.users.SetBackupCodes(ctx, userID, string(updated))
			return true
		}
	}
	return false
}

func (s *TOTPService) isRateLimited(ctx context.Context, userID int) bool {
	return s.cache.TOTPFailures(ctx, strconv.Itoa(userID)) >= maxFailedAttempts
}

func (s *TOTPService) recordFailure(ctx context.Context, userID int) {
	_, _ = s.cache.RecordTOTPFailure(ctx, strconv.Itoa(userID), totpFailureWindow)
}

// generateRandomCode creates a random code without look-alike characters
func generateRandomCode(length int) string {
	const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	code := make([]byte, length)
	_, _ = rand.Read(code)
	for i := range code {
		code[i] = charset[int(code[i])%len(charset)]
	}
	return string(code)
}

var (
	ErrTooManyAttempts = &TOTPError{Message: "too many failed attempts, please try again later"}
	ErrNoTOTPSecret    = &TOTPError{Message: "2FA setup not initiated"}
	ErrInvalidTOTPCode = &TOTPError{Message: "invalid verification code"}
	ErrTOTPNotEnabled  = &TOTPError{Message: "2FA is not enabled"}
	ErrInvalidPassword = &TOTPError{Message: "invalid password"}
)

type TOTPError struct {
	Message string
}

func (e *TOTPError) Error() string {
	return e.Message
}
