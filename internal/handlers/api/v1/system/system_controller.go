// Package system serves health, public statistics and the realtime socket.
package system

import (
	"net/http"

	"ecotrack/internal/handlers/api/v1/base"
	"ecotrack/internal/middleware"
	"ecotrack/internal/realtime"
	"ecotrack/internal/response"
	"ecotrack/internal/services"

	"go.uber.org/zap"
)

// SystemController serves health, landing stats and websocket upgrades
type SystemController struct {
	base.Controller
	hub     *realtime.Hub
	metrics *middleware.Metrics
}

// NewSystemController creates the controller. hub and metrics may be nil.
func NewSystemController(serviceCollection *services.ServiceCollection, hub *realtime.Hub, metrics *middleware.Metrics, logger *zap.Logger, responseBuilder *response.Builder) *SystemController {
	return &SystemController{
		Controller: base.New(serviceCollection, logger, responseBuilder),
		hub:        hub,
		metrics:    metrics,
	}
}

type healthResponse struct {
	*services.ServiceHealth
	HTTP *middleware.MetricsSnapshot `json:"http,omitempty"`
}

// Health godoc
// @Summary Service and dependency health
// @Tags System
// @Produce json
// @Success 200 {object} response.APIResponse{data=services.ServiceHealth}
// @Failure 503 {object} response.APIResponse{data=services.ServiceHealth}
// @Router /health [get]
func (c *SystemController) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	health := c.Services.HealthCheck(ctx)
	body := healthResponse{ServiceHealth: health}
	if c.metrics != nil {
		snap := c.metrics.Snapshot()
		body.HTTP = &snap
	}
	c.ResponseBuilder.WriteHealthCheck(w, r, health, body)
}

// LandingStats godoc
// @Summary Public impact numbers for the landing page
// @Tags System
// @Produce json
// @Success 200 {object} response.APIResponse{data=models.LandingStats}
// @Router /stats/landing [get]
func (c *SystemController) LandingStats(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	stats, err := c.Services.StatsService.Landing(ctx)
	if err != nil {
		c.Fail(w, r, err, "landing_stats")
		return
	}
	c.ResponseBuilder.WriteSuccess(w, r, stats)
}

// WebSocket upgrades an authenticated caller to the realtime feed
func (c *SystemController) WebSocket(w http.ResponseWriter, r *http.Request) {
	if c.hub == nil {
		c.Fail(w, r, services.NewServiceUnavailableError("Realtime updates are unavailable"), "websocket")
		return
	}
	c.hub.ServeWS(w, r, c.UserID(r))
}
