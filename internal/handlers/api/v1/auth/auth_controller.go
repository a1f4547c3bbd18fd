package auth

import (
	"net/http"
	"time"

	"ecotrack/internal/handlers/api/v1/base"
	"ecotrack/internal/models"
	"ecotrack/internal/response"
	"ecotrack/internal/services"
	"ecotrack/internal/utils"

	"go.uber.org/zap"
)

const (
	oauthStateCookie = "ecotrack_oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

// AuthController handles accounts, sign-in and role checks
type AuthController struct {
	base.Controller
	auth services.AuthService
}

// NewAuthController creates a new authentication controller
func NewAuthController(serviceCollection *services.ServiceCollection, logger *zap.Logger, responseBuilder *response.Builder) *AuthController {
	return &AuthController{
		Controller: base.New(serviceCollection, logger, responseBuilder),
		auth:       serviceCollection.AuthService,
	}
}

// ===============================
// AUTHENTICATION ENDPOINTS
// ===============================

// Register godoc
// @Summary Register a new citizen account
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body services.RegisterRequest true "Registration details"
// @Success 201 {object} response.APIResponse{data=services.AuthResponse}
// @Failure 400 {object} response.APIResponse
// @Failure 409 {object} response.APIResponse
// @Router /auth/register [post]
func (c *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	var req services.RegisterRequest
	if !c.Decode(w, r, &req) {
		return
	}

	authResp, err := c.auth.Register(ctx, &req)
	if err != nil {
		c.Fail(w, r, err, "register")
		return
	}

	c.Log(r, "register").Info("User registered", zap.String("user_id", authResp.User.UserID))
	c.ResponseBuilder.WriteCreated(w, r, authResp)
}

// Login godoc
// @Summary Sign in with email and password
// @Tags Authentication
// @Accept json
// @Produce json
// @Param request body services.LoginRequest true "Credentials"
// @Success 200 {object} response.APIResponse{data=services.AuthResponse}
// @Failure 401 {object} response.APIResponse
// @Failure 403 {object} response.APIResponse "Account suspended"
// @Router /auth/login [post]
func (c *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	var req services.LoginRequest
	if !c.Decode(w, r, &req) {
		return
	}

	authResp, err := c.auth.Login(ctx, &req)
	if err != nil {
		c.Log(r, "login").Warn("Login failed", zap.Error(err))
		c.Fail(w, r, err, "login")
		return
	}

	c.ResponseBuilder.WriteSuccess(w, r, authResp)
}

// GoogleLogin redirects to Google's consent screen with a state cookie
func (c *AuthController) GoogleLogin(w http.ResponseWriter, r *http.Request) {
	if !c.auth.GoogleEnabled() {
		c.Fail(w, r, services.NewServiceUnavailableError("Google sign-in is not configured"), "google_login")
		return
	}

	state, err := utils.RandomCode(24)
	if err != nil {
		c.Fail(w, r, services.NewInternalError("Failed to start sign-in"), "google_login")
		return
	}

	url, err := c.auth.GoogleLoginURL(state)
	if err != nil {
		c.Fail(w, r, err, "google_login")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     oauthStateCookie,
		Value:    state,
		Path:     "/",
		Expires:  time.Now().Add(oauthStateTTL),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// GoogleCallback exchanges the authorization code for an EcoTrack token
func (c *AuthController) GoogleCallback(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
		c.Fail(w, r, services.NewUnauthorizedError("Invalid OAuth state"), "google_callback")
		return
	}
	http.SetCookie(w, &http.Cookie{Name: oauthStateCookie, Value: "", Path: "/", MaxAge: -1})

	authResp, err := c.auth.GoogleCallback(ctx, r.URL.Query().Get("code"))
	if err != nil {
		c.Fail(w, r, err, "google_callback")
		return
	}

	c.ResponseBuilder.WriteSuccess(w, r, authResp)
}

// ===============================
// CURRENT ACCOUNT
// ===============================

// Me godoc
// @Summary Current account
// @Tags Authentication
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse{data=services.MeResponse}
// @Router /me [get]
func (c *AuthController) Me(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	me, err := c.auth.Me(ctx, c.UserID(r))
	if err != nil {
		c.Fail(w, r, err, "me")
		return
	}
	c.ResponseBuilder.WriteSuccess(w, r, me)
}

// UpdateMe edits name, city and avatar
func (c *AuthController) UpdateMe(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	var req services.UpdateProfileRequest
	if !c.Decode(w, r, &req) {
		return
	}

	profile, err := c.auth.UpdateProfile(ctx, c.UserID(r), &req)
	if err != nil {
		c.Fail(w, r, err, "update_me")
		return
	}
	c.ResponseBuilder.WriteSuccess(w, r, profile)
}

// CheckRole answers has_role for the caller: GET /roles/check?role=
func (c *AuthController) CheckRole(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	role := models.Role(r.URL.Query().Get("role"))
	if !role.Valid() {
		c.Fail(w, r, services.InvalidInputError("role", "must be citizen, organizer or admin"), "check_role")
		return
	}

	has, err := c.auth.HasRole(ctx, c.UserID(r), role)
	if err != nil {
		c.Fail(w, r, err, "check_role")
		return
	}
	c.ResponseBuilder.WriteSuccess(w, r, map[string]interface{}{
		"role":     role,
		"has_role": has,
	})
}
