package organizers

import (
	"context"
	"net/http"

	"ecotrack/internal/handlers/api/v1/base"
	"ecotrack/internal/models"
	"ecotrack/internal/response"
	"ecotrack/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// OrganizersController handles organizer applications and their review
type OrganizersController struct {
	base.Controller
	organizers services.OrganizerService
}

// NewOrganizersController creates the controller
func NewOrganizersController(serviceCollection *services.ServiceCollection, logger *zap.Logger, responseBuilder *response.Builder) *OrganizersController {
	return &OrganizersController{
		Controller: base.New(serviceCollection, logger, responseBuilder),
		organizers: serviceCollection.OrganizerService,
	}
}

// Apply godoc
// @Summary Apply for organizer status
// @Tags Organizers
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body services.ApplicationRequest true "Application"
// @Success 201 {object} response.APIResponse{data=models.OrganizerApplication}
// @Failure 409 {object} response.APIResponse "Already organizer or application pending"
// @Router /organizer-applications [post]
func (c *OrganizersController) Apply(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	var req services.ApplicationRequest
	if !c.Decode(w, r, &req) {
		return
	}

	application, err := c.organizers.Submit(ctx, c.UserID(r), &req)
	if err != nil {
		c.Fail(w, r, err, "apply_organizer")
		return
	}
	c.ResponseBuilder.WriteCreated(w, r, application)
}

// Mine returns the caller's latest application, or null
func (c *OrganizersController) Mine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	application, err := c.organizers.Mine(ctx, c.UserID(r))
	if err != nil {
		c.Fail(w, r, err, "my_application")
		return
	}
	c.ResponseBuilder.WriteSuccess(w, r, application)
}

// ===============================
// ADMIN REVIEW
// ===============================

// List returns applications, optionally filtered by ?status=
func (c *OrganizersController) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	var status *models.ApplicationStatus
	if raw := r.URL.Query().Get("status"); raw != "" {
		s := models.ApplicationStatus(raw)
		switch s {
		case models.ApplicationPending, models.ApplicationApproved, models.ApplicationRejected:
			status = &s
		default:
			c.Fail(w, r, services.InvalidInputError("status", "must be pending, approved or rejected"), "list_applications")
			return
		}
	}

	applications, err := c.organizers.List(ctx, c.UserID(r), status)
	if err != nil {
		c.Fail(w, r, err, "list_applications")
		return
	}
	c.ResponseBuilder.WriteSuccess(w, r, applications)
}

func (c *OrganizersController) Approve(w http.ResponseWriter, r *http.Request) {
	c.review(w, r, "approve_application", c.organizers.Approve)
}

func (c *OrganizersController) Reject(w http.ResponseWriter, r *http.Request) {
	c.review(w, r, "reject_application", c.organizers.Reject)
}

type reviewFunc func(ctx context.Context, callerID, applicationID, remarks string) (*models.OrganizerApplication, error)

// review accepts an optional {"remarks": ""} body
func (c *OrganizersController) review(w http.ResponseWriter, r *http.Request, operation string, fn reviewFunc) {
	ctx, cancel := c.Context(r)
	defer cancel()

	var req services.ReviewRequest
	if r.ContentLength != 0 {
		if !c.Decode(w, r, &req) {
			return
		}
	}

	application, err := fn(ctx, c.UserID(r), chi.URLParam(r, "id"), req.Remarks)
	if err != nil {
		c.Fail(w, r, err, operation)
		return
	}
	c.Log(r, operation).Info("Application reviewed",
		zap.String("application_id", application.ID),
		zap.String("status", string(application.Status)))
	c.ResponseBuilder.WriteSuccess(w, r, application)
}
