// file: internal/middleware/auth.go
package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"ecotrack/internal/contextutils"
	"ecotrack/internal/models"
	"ecotrack/internal/response"
	"ecotrack/internal/services"

	"go.uber.org/zap"
)

// AuthConfig holds authentication middleware configuration
type AuthConfig struct {
	// QueryTokenParam is accepted instead of the Authorization header on
	// websocket upgrades, where browsers cannot set headers
	QueryTokenParam string

	LogSuccessfulAuth bool
	LogFailedAuth     bool
}

// DefaultAuthConfig returns the production authentication configuration
func DefaultAuthConfig() *AuthConfig {
	return &AuthConfig{
		QueryTokenParam:   "token",
		LogSuccessfulAuth: false,
		LogFailedAuth:     true,
	}
}

// AuthContext holds authentication context for requests
type AuthContext struct {
	UserID    string               `json:"user_id"`
	Email     string               `json:"email"`
	Role      models.Role          `json:"role"`
	Status    models.AccountStatus `json:"status"`
	ExpiresAt time.Time            `json:"expires_at"`
}

// AuthMiddleware verifies bearer tokens and re-checks account state on
// every request, so role changes and bans apply before tokens expire.
type AuthMiddleware struct {
	config *AuthConfig
	auth   services.AuthService
	logger *zap.Logger
	now    func() time.Time
}

// NewAuthMiddleware creates the authentication middleware
func NewAuthMiddleware(config *AuthConfig, auth services.AuthService, logger *zap.Logger) *AuthMiddleware {
	if config == nil {
		config = DefaultAuthConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{
		config: config,
		auth:   auth,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ===============================
// MAIN AUTHENTICATION MIDDLEWARE
// ===============================

// Authenticate resolves the caller. Anonymous requests pass through unless
// required is set; a presented but invalid token is always rejected.
func (am *AuthMiddleware) Authenticate(required bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			requestLogger := GetRequestLogger(ctx)

			token := am.extractToken(r)
			if token == "" {
				if required {
					response.QuickError(w, r, services.NewUnauthorizedError("Authentication required"))
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			authCtx, err := am.authenticate(ctx, token)
			if err != nil {
				if am.config.LogFailedAuth {
					requestLogger.Warn("Authentication failed", zap.Error(err))
				}
				response.QuickError(w, r, err)
				return
			}

			if am.config.LogSuccessfulAuth {
				requestLogger.Info("Authentication successful",
					zap.String("user_id", authCtx.UserID),
					zap.String("role", string(authCtx.Role)))
			}

			ctx = WithAuthContext(ctx, authCtx)
			ctx = context.WithValue(ctx, LoggerKey, requestLogger.With(zap.String("user_id", authCtx.UserID)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAuth requires authentication for the endpoint
func (am *AuthMiddleware) RequireAuth() func(http.Handler) http.Handler {
	return am.Authenticate(true)
}

// OptionalAuth attaches the caller when a token is present
func (am *AuthMiddleware) OptionalAuth() func(http.Handler) http.Handler {
	return am.Authenticate(false)
}

// ===============================
// AUTHORIZATION MIDDLEWARE
// ===============================

// RequireRole admits only the given roles. Must run after RequireAuth.
func (am *AuthMiddleware) RequireRole(roles ...models.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authCtx := GetAuthContext(r.Context())
			if authCtx == nil {
				response.QuickError(w, r, services.NewUnauthorizedError("Authentication required"))
				return
			}

			for _, role := range roles {
				if authCtx.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}

			GetRequestLogger(r.Context()).Warn("Role check failed",
				zap.String("role", string(authCtx.Role)),
				zap.Any("required", roles))
			response.QuickError(w, r, services.NewForbiddenError("Insufficient role"))
		})
	}
}

// ===============================
// AUTHENTICATION METHODS
// ===============================

func (am *AuthMiddleware) authenticate(ctx context.Context, token string) (*AuthContext, error) {
	claims, err := am.auth.ValidateToken(token)
	if err != nil {
		return nil, err
	}

	state, err := am.auth.AccountState(ctx, claims.UserID())
	if err != nil {
		return nil, err
	}
	if state.Blocked(am.now()) {
		return nil, services.AccountSuspendedError()
	}

	authCtx := &AuthContext{
		UserID: state.UserID,
		Email:  state.Email,
		Role:   state.Role,
		Status: state.Status,
	}
	if claims.ExpiresAt != nil {
		authCtx.ExpiresAt = claims.ExpiresAt.Time
	}
	return authCtx, nil
}

func (am *AuthMiddleware) extractToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
		return ""
	}
	if am.config.QueryTokenParam != "" && strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
		return r.URL.Query().Get(am.config.QueryTokenParam)
	}
	return ""
}

// ===============================
// CONTEXT HELPERS
// ===============================

type contextKey string

// AuthContextKey stores the *AuthContext
const AuthContextKey contextKey = "auth_context"

// GetAuthContext extracts auth context from request context
func GetAuthContext(ctx context.Context) *AuthContext {
	if authCtx, ok := ctx.Value(AuthContextKey).(*AuthContext); ok {
		return authCtx
	}
	return nil
}

// WithAuthContext stores authCtx along with the user id and role
func WithAuthContext(ctx context.Context, authCtx *AuthContext) context.Context {
	ctx = context.WithValue(ctx, AuthContextKey, authCtx)
	ctx = contextutils.WithUserID(ctx, authCtx.UserID)
	return contextutils.WithRole(ctx, authCtx.Role)
}
