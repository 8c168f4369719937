package middleware

import (
	"context"
	"net/http"
	"strings"

	"hoa-backend/internal/auth"
	"hoa-backend/internal/models"
	"hoa-backend/pkg/utils"
)

type contextKey string

const UserIDKey contextKey = "user_id"
const EmailKey contextKey = "email"
const RoleKey contextKey = "role"
const ActorKey contextKey = "actor"
const actorSinkKey contextKey = "actor_sink"

// Actor is an alias so handlers need not import models for it.
type Actor = models.Actor

// UserGetter loads the current user record for a token.
type UserGetter interface {
	Get(ctx context.Context, id int) (*models.User, error)
}

type AuthMiddleware struct {
	jwtManager *auth.JWTManager
	users      UserGetter
}

func NewAuthMiddleware(jwtManager *auth.JWTManager, users UserGetter) *AuthMiddleware {
	return &AuthMiddleware{
		jwtManager: jwtManager,
		users:      users,
	}
}

// Authenticate is a middleware that validates the bearer token
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := m.resolve(w, r, bearerToken(r))
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// AuthenticateQuery accepts the token as ?token=. Browsers cannot set headers
// on websocket upgrades.
func (m *AuthMiddleware) AuthenticateQuery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			token = bearerToken(r)
		}
		actor, ok := m.resolve(w, r, token)
		if !ok {
			return
		}
		next.ServeHTTP(w, r.WithContext(WithActor(r.Context(), actor)))
	})
}

// RequireRole authenticates and then ensures the user has one of the allowed roles
func (m *AuthMiddleware) RequireRole(allowedRoles ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return m.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, _ := ActorFromContext(r.Context())
			if !hasRole(actor.Role, allowedRoles) {
				utils.RespondErrorWithCode(w, http.StatusForbidden, utils.ErrCodeForbidden,
					"You are not allowed to perform this action", nil)
				return
			}
			next.ServeHTTP(w, r)
		}))
	}
}

// Resolve validates a raw token and loads the actor without writing a response.
// The gateway uses it to answer auth failures inside its envelope.
func (m *AuthMiddleware) Resolve(r *http.Request) (Actor, error) {
	token := bearerToken(r)
	if token == "" {
		return Actor{}, utils.ErrInvalidCredentials
	}
	claims, err := m.jwtManager.ValidateToken(token)
	if err != nil {
		return Actor{}, utils.ErrInvalidCredentials
	}
	// Check database for current status so deactivation applies immediately
	user, err := m.users.Get(r.Context(), claims.UserID)
	if err != nil {
		return Actor{}, utils.ErrInvalidCredentials
	}
	if !user.IsActive() {
		return Actor{}, utils.ErrAccountInactive
	}
	return Actor{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
		IP:    ClientIP(r),
	}, nil
}

func (m *AuthMiddleware) resolve(w http.ResponseWriter, r *http.Request, token string) (Actor, bool) {
	if token == "" {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authorization header required", nil)
		return Actor{}, false
	}

	claims, err := m.jwtManager.ValidateToken(token)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid or expired token", nil, err)
		return Actor{}, false
	}

	user, err := m.users.Get(r.Context(), claims.UserID)
	if err != nil {
		utils.RespondErrorWithCode(w, http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not found", nil, err)
		return Actor{}, false
	}

	if !user.IsActive() {
		utils.RespondErrorWithCode(w, http.StatusForbidden, utils.ErrCodeForbidden, "Account is not active. Please contact the administrator.", nil)
		return Actor{}, false
	}

	return Actor{
		ID:    user.ID,
		Email: user.Email,
		Name:  user.Name,
		Role:  user.Role,
		IP:    ClientIP(r),
	}, true
}

func bearerToken(r *http.Request) string {
	parts := strings.Split(r.Header.Get("Authorization"), " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

func hasRole(role string, allowed []string) bool {
	for _, a := range allowed {
		if role == a {
			return true
		}
	}
	return false
}

// withActorSink lets an outer middleware learn who the request acted as.
func withActorSink(ctx context.Context, id *int) context.Context {
	return context.WithValue(ctx, actorSinkKey, id)
}

// WithActor stores the actor (and its id, email and role) on ctx.
func WithActor(ctx context.Context, actor Actor) context.Context {
	if sink, ok := ctx.Value(actorSinkKey).(*int); ok {
		*sink = actor.ID
	}
	ctx = context.WithValue(ctx, ActorKey, actor)
	ctx = context.WithValue(ctx, UserIDKey, actor.ID)
	ctx = context.WithValue(ctx, EmailKey, actor.Email)
	return context.WithValue(ctx, RoleKey, actor.Role)
}

// ActorFromContext returns the signed-in actor of the request.
func ActorFromContext(ctx context.Context) (Actor, bool) {
	actor, ok := ctx.Value(ActorKey).(Actor)
	return actor, ok
}

// GetUserIDFromContext extracts user ID from request context
func GetUserIDFromContext(ctx context.Context) (int, bool) {
	userID, ok := ctx.Value(UserIDKey).(int)
	return userID, ok
}

// GetRoleFromContext extracts role from request context
func GetRoleFromContext(ctx context.Context) (string, bool) {
	role, ok := ctx.Value(RoleKey).(string)
	return role, ok
}

// ClientIP extracts the client IP from the request
func ClientIP(r *http.Request) string {
	// Check X-Forwarded-For header (for proxies/load balancers)
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}
