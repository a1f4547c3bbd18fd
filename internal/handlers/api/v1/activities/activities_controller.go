package activities

import (
	"net/http"

	"ecotrack/internal/handlers/api/v1/base"
	"ecotrack/internal/response"
	"ecotrack/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ActivitiesController serves submission and review of activities
type ActivitiesController struct {
	base.Controller
	activities services.ActivityService
}

// NewActivitiesController creates the controller
func NewActivitiesController(serviceCollection *services.ServiceCollection, logger *zap.Logger, responseBuilder *response.Builder) *ActivitiesController {
	return &ActivitiesController{
		Controller: base.New(serviceCollection, logger, responseBuilder),
		activities: serviceCollection.ActivityService,
	}
}

// Submit godoc
// @Summary Log an eco activity for review
// @Tags Activities
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body services.SubmitActivityRequest true "Activity"
// @Success 201 {object} response.APIResponse{data=models.Activity}
// @Failure 400 {object} response.APIResponse
// @Failure 422 {object} response.APIResponse "Image withheld for low confidence"
// @Router /activities [post]
func (c *ActivitiesController) Submit(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	var req services.SubmitActivityRequest
	if !c.Decode(w, r, &req) {
		return
	}

	activity, err := c.activities.Submit(ctx, c.UserID(r), &req)
	if err != nil {
		c.Fail(w, r, err, "submit_activity")
		return
	}
	c.ResponseBuilder.WriteCreated(w, r, activity)
}

// Mine lists the caller's recent activities: GET /activities/mine?limit=
func (c *ActivitiesController) Mine(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	limit, err := response.IntQuery(r, "limit", 0)
	if err != nil {
		c.Fail(w, r, err, "my_activities")
		return
	}

	activities, err := c.activities.ListMine(ctx, c.UserID(r), limit)
	if err != nil {
		c.Fail(w, r, err, "my_activities")
		return
	}
	c.ResponseBuilder.WriteSuccess(w, r, activities)
}

// Get returns one activity visible to the caller
func (c *ActivitiesController) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	activity, err := c.activities.Get(ctx, c.UserID(r), chi.URLParam(r, "id"))
	if err != nil {
		c.Fail(w, r, err, "get_activity")
		return
	}
	c.ResponseBuilder.WriteSuccess(w, r, activity)
}

// Certificate godoc
// @Summary Certificate data for an approved activity
// @Tags Activities
// @Security BearerAuth
// @Produce json
// @Param id path string true "Activity ID"
// @Success 200 {object} response.APIResponse{data=models.Certificate}
// @Failure 404 {object} response.APIResponse
// @Router /activities/{id}/certificate [get]
func (c *ActivitiesController) Certificate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	certificate, err := c.activities.Certificate(ctx, c.UserID(r), chi.URLParam(r, "id"))
	if err != nil {
		c.Fail(w, r, err, "certificate")
		return
	}
	c.ResponseBuilder.WriteSuccess(w, r, certificate)
}

// ===============================
// REVIEW
// ===============================

// Pending lists the review queue for organizers and admins
func (c *ActivitiesController) Pending(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	activities, err := c.activities.ListPending(ctx, c.UserID(r))
	if err != nil {
		c.Fail(w, r, err, "pending_activities")
		return
	}
	c.ResponseBuilder.WriteSuccess(w, r, activities)
}

// Approve godoc
// @Summary Approve a pending activity and award its points
// @Tags Activities
// @Security BearerAuth
// @Produce json
// @Param id path string true "Activity ID"
// @Success 200 {object} response.APIResponse{data=models.Activity}
// @Failure 403 {object} response.APIResponse
// @Failure 404 {object} response.APIResponse
// @Router /activities/{id}/approve [post]
func (c *ActivitiesController) Approve(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	activity, err := c.activities.Approve(ctx, c.UserID(r), chi.URLParam(r, "id"))
	if err != nil {
		c.Fail(w, r, err, "approve_activity")
		return
	}
	c.Log(r, "approve_activity").Info("Activity approved", zap.String("activity_id", activity.ID))
	c.ResponseBuilder.WriteSuccess(w, r, activity)
}

// Reject marks a pending activity rejected
func (c *ActivitiesController) Reject(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	activity, err := c.activities.Reject(ctx, c.UserID(r), chi.URLParam(r, "id"))
	if err != nil {
		c.Fail(w, r, err, "reject_activity")
		return
	}
	c.ResponseBuilder.WriteSuccess(w, r, activity)
}

// All pages through every activity for admins: GET /admin/activities
func (c *ActivitiesController) All(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	params, err := c.Pagination.ParseFromRequest(r)
	if err != nil {
		c.Fail(w, r, err, "all_activities")
		return
	}

	page, err := c.activities.ListAll(ctx, c.UserID(r), params)
	if err != nil {
		c.Fail(w, r, err, "all_activities")
		return
	}
	response.WritePage(c.ResponseBuilder, w, r, page)
}
