package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ecotrack/internal/contextutils"
	"ecotrack/internal/models"
	"ecotrack/internal/services"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubAuthService answers the two calls the middleware makes
type stubAuthService struct {
	services.AuthService
	states map[string]*services.AccountState
}

func (s *stubAuthService) ValidateToken(token string) (*services.TokenClaims, error) {
	if _, ok := s.states[token]; !ok {
		return nil, services.NewUnauthorizedError("Invalid or expired token")
	}
	return &services.TokenClaims{RegisteredClaims: jwt.RegisteredClaims{
		Subject:   token,
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}}, nil
}

func (s *stubAuthService) AccountState(ctx context.Context, userID string) (*services.AccountState, error) {
	return s.states[userID], nil
}

func newStubAuth() *AuthMiddleware {
	banned := time.Now().Add(720 * time.Hour)
	stub := &stubAuthService{states: map[string]*services.AccountState{
		"citizen": {UserID: "citizen", Role: models.RoleCitizen, Status: models.AccountActive},
		"admin":   {UserID: "admin", Role: models.RoleAdmin, Status: models.AccountActive},
		"blocked": {UserID: "blocked", Role: models.RoleCitizen, Status: models.AccountSuspended, BannedUntil: &banned},
	}}
	return NewAuthMiddleware(nil, stub, zap.NewNop())
}

func whoAmI(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("X-User", contextutils.GetUserID(r.Context()))
	w.Header().Set("X-Role", string(contextutils.GetRole(r.Context())))
	w.WriteHeader(http.StatusOK)
}

func serve(h http.Handler, token string, mutate ...func(*http.Request)) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for _, m := range mutate {
		m(req)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error struct {
			Code string `json:"code"`
			Type string `json:"type"`
		} `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	if body.Error.Code != "" {
		return body.Error.Code
	}
	return body.Error.Type
}

func TestRequireAuth(t *testing.T) {
	am := newStubAuth()
	h := am.RequireAuth()(http.HandlerFunc(whoAmI))

	rec := serve(h, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(h, "forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = serve(h, "citizen")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "citizen", rec.Header().Get("X-User"))
	assert.Equal(t, "citizen", rec.Header().Get("X-Role"))
}

func TestSuspendedAccountsAreRejected(t *testing.T) {
	rec := serve(newStubAuth().RequireAuth()(http.HandlerFunc(whoAmI)), "blocked")

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, services.CodeAccountSuspended, errorCode(t, rec))
}

func TestOptionalAuthPassesAnonymous(t *testing.T) {
	h := newStubAuth().OptionalAuth()(http.HandlerFunc(whoAmI))

	rec := serve(h, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("X-User"))

	rec = serve(h, "forged")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireRole(t *testing.T) {
	am := newStubAuth()
	h := am.RequireAuth()(am.RequireRole(models.RoleAdmin)(http.HandlerFunc(whoAmI)))

	rec := serve(h, "citizen")
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))

	assert.Equal(t, http.StatusOK, serve(h, "admin").Code)
}

func TestQueryTokenOnlyForWebsocketUpgrades(t *testing.T) {
	h := newStubAuth().RequireAuth()(http.HandlerFunc(whoAmI))
	withQuery := func(r *http.Request) { r.URL.RawQuery = "token=citizen" }

	assert.Equal(t, http.StatusUnauthorized, serve(h, "", withQuery).Code)

	rec := serve(h, "", withQuery, func(r *http.Request) { r.Header.Set("Upgrade", "websocket") })
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "citizen", rec.Header().Get("X-User"))
}
