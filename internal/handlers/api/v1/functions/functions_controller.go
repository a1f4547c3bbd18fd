// Package functions serves the two function-style endpoints. Their bodies
// are bare JSON objects: a result on success and {"error": "..."} otherwise.
package functions

import (
	"net/http"

	"ecotrack/internal/handlers/api/v1/base"
	"ecotrack/internal/middleware"
	"ecotrack/internal/response"
	"ecotrack/internal/services"
	"ecotrack/internal/utils"

	"go.uber.org/zap"
)

const rateLimitedMessage = "Rate limit exceeded. Please try again in a moment."

// FunctionsController handles account status changes and image verification
type FunctionsController struct {
	base.Controller
	admin    services.AdminService
	verifier services.VerificationService
}

// NewFunctionsController creates the controller
func NewFunctionsController(serviceCollection *services.ServiceCollection, logger *zap.Logger, responseBuilder *response.Builder) *FunctionsController {
	return &FunctionsController{
		Controller: base.New(serviceCollection, logger, responseBuilder),
		admin:      serviceCollection.AdminService,
		verifier:   serviceCollection.VerificationService,
	}
}

// ManageUserStatus godoc
// @Summary Ban, suspend or reactivate an account
// @Tags Functions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body services.ManageUserStatusRequest true "Target user and status"
// @Success 200 {object} map[string]bool
// @Failure 400 {object} response.FunctionError
// @Router /functions/manage-user-status [post]
func (c *FunctionsController) ManageUserStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	var req services.ManageUserStatusRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		c.ResponseBuilder.WriteFunctionError(w, r, "Invalid user_id or status", http.StatusBadRequest)
		return
	}

	if err := c.admin.ManageUserStatus(ctx, c.UserID(r), &req); err != nil {
		status := http.StatusBadRequest
		serviceErr := services.GetServiceError(err)
		message := serviceErr.Message
		if serviceErr.GetStatusCode() >= http.StatusInternalServerError {
			c.Log(r, "manage_user_status").Error("Status change failed", zap.Error(err))
			status = http.StatusInternalServerError
			message = "Failed to update account status"
		}
		c.ResponseBuilder.WriteFunctionError(w, r, message, status)
		return
	}

	c.Log(r, "manage_user_status").Info("Account status changed",
		zap.String("target_user_id", req.UserID),
		zap.String("status", string(req.Status)))
	c.ResponseBuilder.WriteJSON(w, r, map[string]bool{"success": true}, http.StatusOK)
}

// VerifyActivityImage godoc
// @Summary Check whether a photo shows the claimed activity
// @Tags Functions
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body services.VerifyImageRequest true "Image and activity type"
// @Success 200 {object} verification.Result
// @Failure 400 {object} response.FunctionError
// @Failure 402 {object} response.FunctionError "AI credits exhausted"
// @Failure 409 {object} response.FunctionError "Superseded by a newer request"
// @Failure 429 {object} response.FunctionError
// @Failure 500 {object} response.FunctionError
// @Router /functions/verify-activity-image [post]
func (c *FunctionsController) VerifyActivityImage(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	var req services.VerifyImageRequest
	if err := utils.DecodeJSON(r, &req); err != nil {
		c.ResponseBuilder.WriteFunctionError(w, r, "Missing imageBase64 or activityType", http.StatusBadRequest)
		return
	}

	result, err := c.verifier.Verify(ctx, CallerKey(r), &req)
	if err != nil {
		serviceErr := services.GetServiceError(err)
		c.ResponseBuilder.WriteFunctionError(w, r, serviceErr.Message, serviceErr.GetStatusCode())
		return
	}
	c.ResponseBuilder.WriteJSON(w, r, result, http.StatusOK)
}

// RateLimited answers a throttled function call in the function body shape
func RateLimited(w http.ResponseWriter, r *http.Request) {
	response.QuickFunctionError(w, r, rateLimitedMessage, http.StatusTooManyRequests)
}

// CallerKey groups superseding lookups by user, falling back to client IP
func CallerKey(r *http.Request) string {
	if userID := base.CallerID(r); userID != "" {
		return "user:" + userID
	}
	return "ip:" + middleware.ClientIP(r)
}
