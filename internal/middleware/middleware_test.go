package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"hoa-backend/internal/auth"
	"hoa-backend/internal/config"
	"hoa-backend/internal/models"
	"hoa-backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUsers map[int]*models.User

func (s stubUsers) Get(_ context.Context, id int) (*models.User, error) {
	if u, ok := s[id]; ok {
		return u, nil
	}
	return nil, utils.ErrNotFound
}

func newAuth(t *testing.T, users stubUsers) (*AuthMiddleware, *auth.JWTManager) {
	t.Helper()
	cfg := &config.Config{}
	cfg.JWT.Secret = "middleware-secret"
	cfg.JWT.ExpirationHours = 1
	jm := auth.NewJWTManager(cfg)
	return NewAuthMiddleware(jm, users), jm
}

func okHandler(t *testing.T, wantID int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		require.True(t, ok)
		assert.Equal(t, wantID, actor.ID)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestRequireRole(t *testing.T) {
	users := stubUsers{
		1: {ID: 1, Role: models.RoleAdmin, Status: models.UserStatusActive},
		2: {ID: 2, Role: models.RoleHomeowner, Status: models.UserStatusActive},
		3: {ID: 3, Role: models.RoleAdmin, Status: models.UserStatusInactive},
	}
	m, jm := newAuth(t, users)

	tests := []struct {
		name   string
		userID int
		noAuth bool
		want   int
	}{
		{name: "admin allowed", userID: 1, want: http.StatusNoContent},
		{name: "homeowner forbidden", userID: 2, want: http.StatusForbidden},
		{name: "inactive admin forbidden", userID: 3, want: http.StatusForbidden},
		{name: "missing token", noAuth: true, want: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/admin", nil)
			if !tt.noAuth {
				token, err := jm.GenerateToken(users[tt.userID])
				require.NoError(t, err)
				req.Header.Set("Authorization", "Bearer "+token)
			}
			rec := httptest.NewRecorder()

			m.RequireRole(models.RoleAdmin)(okHandler(t, tt.userID)).ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)

			if tt.want >= 400 {
				var body utils.ErrorResponse
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.NotEmpty(t, body.Code)
			}
		})
	}
}

func TestAuthenticateQuery(t *testing.T) {
	users := stubUsers{7: {ID: 7, Role: models.RoleStaff, Status: models.UserStatusActive}}
	m, jm := newAuth(t, users)

	token, err := jm.GenerateToken(users[7])
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/ws?token="+token, nil)
	rec := httptest.NewRecorder()
	m.AuthenticateQuery(okHandler(t, 7)).ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestRateLimiter(t *testing.T) {
	rl := NewRateLimiter(60, 2)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// a different client has its own bucket
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 2, rl.Cleanup(time.Now().Add(time.Hour)))
}

func TestPanicRecovery(t *testing.T) {
	h := PanicRecovery(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", ClientIP(req))
}
