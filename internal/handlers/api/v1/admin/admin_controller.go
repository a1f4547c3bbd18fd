package admin

import (
	"net/http"

	"ecotrack/internal/handlers/api/v1/base"
	"ecotrack/internal/response"
	"ecotrack/internal/services"

	"go.uber.org/zap"
)

// AdminController serves the admin overview
type AdminController struct {
	base.Controller
	admin services.AdminService
}

// NewAdminController creates the controller
func NewAdminController(serviceCollection *services.ServiceCollection, logger *zap.Logger, responseBuilder *response.Builder) *AdminController {
	return &AdminController{
		Controller: base.New(serviceCollection, logger, responseBuilder),
		admin:      serviceCollection.AdminService,
	}
}

// Overview godoc
// @Summary Users, totals, activity breakdowns and events for admins
// @Tags Admin
// @Security BearerAuth
// @Produce json
// @Success 200 {object} response.APIResponse{data=models.AdminOverview}
// @Failure 403 {object} response.APIResponse
// @Router /admin/overview [get]
func (c *AdminController) Overview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	overview, err := c.admin.Overview(ctx, c.UserID(r))
	if err != nil {
		c.Fail(w, r, err, "admin_overview")
		return
	}
	c.ResponseBuilder.WriteSuccess(w, r, overview)
}
