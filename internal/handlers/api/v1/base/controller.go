// Package base holds what every v1 controller shares: the service
// collection, the response builder and error handling.
package base

import (
	"context"
	"net/http"
	"time"

	"ecotrack/internal/contextutils"
	"ecotrack/internal/middleware"
	"ecotrack/internal/response"
	"ecotrack/internal/services"
	"ecotrack/internal/utils"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a single handler's service calls
const DefaultTimeout = 30 * time.Second

// Controller is embedded by the v1 controllers
type Controller struct {
	Services        *services.ServiceCollection
	Logger          *zap.Logger
	ResponseBuilder *response.Builder
	Pagination      *response.PaginationParser
}

// New creates the shared controller state
func New(serviceCollection *services.ServiceCollection, logger *zap.Logger, responseBuilder *response.Builder) Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	if responseBuilder == nil {
		responseBuilder = response.NewBuilder(response.DefaultConfig(), logger)
	}
	return Controller{
		Services:        serviceCollection,
		Logger:          logger,
		ResponseBuilder: responseBuilder,
		Pagination:      response.NewPaginationParser(nil),
	}
}

// Context derives the handler's deadline from the request
func (c *Controller) Context(r *http.Request) (context.Context, context.CancelFunc) {
	return context.WithTimeout(r.Context(), DefaultTimeout)
}

// UserID is the authenticated caller, "" when anonymous
func (c *Controller) UserID(r *http.Request) string {
	return CallerID(r)
}

// CallerID reads the user id set by the auth middleware
func CallerID(r *http.Request) string {
	return contextutils.GetUserID(r.Context())
}

// Log returns the request logger tagged with the endpoint
func (c *Controller) Log(r *http.Request, endpoint string) *zap.Logger {
	return middleware.GetRequestLogger(r.Context()).With(zap.String("endpoint", endpoint))
}

// Decode reads a JSON body, writing a 400 and returning false on failure
func (c *Controller) Decode(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := utils.DecodeJSON(r, dst); err != nil {
		c.ResponseBuilder.WriteError(w, r, services.NewValidationError("Invalid request body", err).
			WithDetail("reason", err.Error()))
		return false
	}
	return true
}

// Fail writes err through the response builder
func (c *Controller) Fail(w http.ResponseWriter, r *http.Request, err error, operation string) {
	serviceErr := services.GetServiceError(err)
	if serviceErr.GetStatusCode() >= http.StatusInternalServerError {
		c.Log(r, operation).Error("Service error", zap.Error(err))
	}
	c.ResponseBuilder.WriteError(w, r, err)
}
