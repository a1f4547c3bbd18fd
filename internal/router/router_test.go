package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"ecotrack/internal/cache"
	"ecotrack/internal/config"
	"ecotrack/internal/middleware"
	"ecotrack/internal/models"
	"ecotrack/internal/repositories"
	"ecotrack/internal/response"
	"ecotrack/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testServer struct {
	t       *testing.T
	handler http.Handler
	repos   *repositories.Collection
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	c := cache.NewMemoryCache(cache.DefaultConfig(), zap.NewNop())
	t.Cleanup(func() { c.Close() })

	cfg := &config.Config{
		Server: config.ServerConfig{CORSOrigin: "*", MaxBodyBytes: 1 << 20},
		Verification: config.VerificationConfig{
			RateLimit:       1,
			RateLimitWindow: time.Minute,
		},
	}
	repos := repositories.NewMemoryCollection(zap.NewNop())

	sc, err := services.NewServiceCollection(&services.Dependencies{
		Config:       cfg,
		Repositories: repos,
		Cache:        c,
		Sets:         cache.NewMemorySetStore(),
		Tokens:       services.NewTokenIssuer("router-test-secret", time.Hour),
		Logger:       zap.NewNop(),
	})
	require.NoError(t, err)

	handler := SetupRouter(&Dependencies{
		Config:          cfg,
		Services:        sc,
		AuthMiddleware:  middleware.NewAuthMiddleware(nil, sc.AuthService, zap.NewNop()),
		RateLimiter:     middleware.NewRateLimiter(c, zap.NewNop()),
		ResponseBuilder: response.NewBuilder(response.DefaultConfig(), zap.NewNop()),
		Logger:          zap.NewNop(),
	})
	return &testServer{t: t, handler: handler, repos: repos}
}

func (s *testServer) do(method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	s.t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var decoded map[string]interface{}
	if rec.Body.Len() > 0 {
		require.NoError(s.t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

// register returns the new account's token and user id
func (s *testServer) register(name string) (string, string) {
	s.t.Helper()
	rec, body := s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email":    name + "@example.com",
		"password": "password123",
		"name":     name,
	})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())

	data := body["data"].(map[string]interface{})
	user := data["user"].(map[string]interface{})
	return data["access_token"].(string), user["user_id"].(string)
}

func errorOf(body map[string]interface{}) map[string]interface{} {
	if e, ok := body["error"].(map[string]interface{}); ok {
		return e
	}
	return nil
}

func TestHealthAndUnknownRoutes(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, true, body["success"])
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec, body = s.do(http.MethodGet, "/api/v1/does-not-exist", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "NOT_FOUND", errorOf(body)["type"])
}

func TestRegisterAndMe(t *testing.T) {
	s := newTestServer(t)
	token, userID := s.register("asha")

	rec, body := s.do(http.MethodGet, "/api/v1/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].(map[string]interface{})
	assert.Equal(t, userID, data["user_id"])
	assert.Equal(t, "asha@example.com", data["email"])
	assert.Equal(t, "citizen", data["role"])

	rec, body = s.do(http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"email": "asha@example.com", "password": "password123", "name": "Asha",
	})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, services.CodeEmailTaken, errorOf(body)["code"])
}

func TestAuthenticationRequired(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(http.MethodGet, "/api/v1/dashboard", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, false, body["success"])

	rec, _ = s.do(http.MethodGet, "/api/v1/dashboard", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPublicCatalogs(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/v1/leaderboard", "/api/v1/badges", "/api/v1/rewards", "/api/v1/stats/landing", "/api/v1/events"} {
		rec, body := s.do(http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusOK, rec.Code, path)
		assert.Equal(t, true, body["success"], path)
	}
}

func TestReviewerRoutesRejectCitizens(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register("citizen")

	rec, body := s.do(http.MethodPost, "/api/v1/events", token, map[string]interface{}{
		"title":      "Beach cleanup",
		"event_date": time.Now().Add(24 * time.Hour),
	})
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorOf(body)["type"])

	rec, _ = s.do(http.MethodGet, "/api/v1/admin/overview", token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestManageUserStatusFunction(t *testing.T) {
	s := newTestServer(t)
	citizenToken, citizenID := s.register("citizen")
	adminToken, adminID := s.register("admin")
	require.NoError(t, s.repos.Role.SetRole(context.Background(), adminID, models.RoleAdmin))

	rec, body := s.do(http.MethodPost, "/api/v1/functions/manage-user-status", citizenToken, map[string]string{
		"user_id": adminID, "status": "banned",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, map[string]interface{}{"error": "Only super admins can manage user status"}, body)

	rec, body = s.do(http.MethodPost, "/api/v1/functions/manage-user-status", adminToken, map[string]string{
		"user_id": adminID, "status": "banned",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Cannot change your own account status", body["error"])

	rec, body = s.do(http.MethodPost, "/api/v1/functions/manage-user-status", adminToken, map[string]string{
		"user_id": citizenID, "status": "suspended",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"success": true}, body)

	rec, body = s.do(http.MethodGet, "/api/v1/me", citizenToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, services.CodeAccountSuspended, errorOf(body)["code"])
}

func TestVerifyImageRateLimitUsesFunctionBody(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register("snapper")
	payload := map[string]string{"imageBase64": "aGVsbG8=", "activityType": "cleanup"}

	// No verifier is configured, so the first call fails upstream
	rec, body := s.do(http.MethodPost, "/api/v1/functions/verify-activity-image", token, payload)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, body, "error")
	assert.NotContains(t, body, "success")

	rec, body = s.do(http.MethodPost, "/api/v1/functions/verify-activity-image", token, payload)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, map[string]interface{}{"error": "Rate limit exceeded. Please try again in a moment."}, body)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestReverseGeocodeIsBestEffort(t *testing.T) {
	s := newTestServer(t)

	rec, body := s.do(http.MethodGet, "/api/v1/geocode/reverse?lat=-1.28&lon=36.82", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]interface{}{"display_name": ""}, body["data"])

	rec, _ = s.do(http.MethodGet, "/api/v1/geocode/search?q=Nairobi", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
