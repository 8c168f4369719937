package auth

import (
	"errors"
	"time"

	"hoa-backend/internal/config"
	"hoa-backend/internal/models"
	"hoa-backend/internal/timeutil"

	"github.com/golang-jwt/jwt/v5"
)

const (
	tokenTypeAccess     = "access"
	tokenType2FAPending = "2fa_pending"
	tempTokenTTL        = 5 * time.Minute
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrInvalidTokenType = errors.New("invalid token type")
)

// Claims identify the signed-in actor on every authenticated request.
type Claims struct {
	UserID int    `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

type JWTManager struct {
	cfg *config.Config
}

func NewJWTManager(cfg *config.Config) *JWTManager {
	return &JWTManager{cfg: cfg}
}

// GenerateToken creates a session token for a user
func (j *JWTManager) GenerateToken(user *models.User) (string, error) {
	ttl := time.Duration(j.cfg.JWT.ExpirationHours) * time.Hour
	return j.sign(user, tokenTypeAccess, ttl)
}

// GenerateTempToken creates the short-lived token handed out between login
// step 1 (password) and step 2 (TOTP code).
func (j *JWTManager) GenerateTempToken(user *models.User) (string, error) {
	return j.sign(user, tokenType2FAPending, tempTokenTTL)
}

// ValidateToken verifies a session token and returns its claims
func (j *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	return j.parse(tokenString, tokenTypeAccess)
}

// ValidateTempToken verifies a pending-2FA token
func (j *JWTManager) ValidateTempToken(tokenString string) (*Claims, error) {
	return j.parse(tokenString, tokenType2FAPending)
}

func (j *JWTManager) sign(user *models.User, tokenType string, ttl time.Duration) (string, error) {
	now := timeutil.Now()
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		Type:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    j.cfg.JWT.Issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.cfg.JWT.Secret))
}

func (j *JWTManager) parse(tokenString, wantType string) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid signing method")
		}
		return []byte(j.cfg.JWT.Secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Type != wantType {
		return nil, ErrInvalidTokenType
	}
	return claims, nil
}
