package events

import (
	"net/http"

	"ecotrack/internal/handlers/api/v1/base"
	"ecotrack/internal/response"
	"ecotrack/internal/services"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// EventsController manages community events, membership and check-ins
type EventsController struct {
	base.Controller
	events services.EventService
}

// NewEventsController creates the controller
func NewEventsController(serviceCollection *services.ServiceCollection, logger *zap.Logger, responseBuilder *response.Builder) *EventsController {
	return &EventsController{
		Controller: base.New(serviceCollection, logger, responseBuilder),
		events:     serviceCollection.EventService,
	}
}

// List returns upcoming and past events. Membership flags are set for signed-in callers.
func (c *EventsController) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	events, err := c.events.List(ctx, c.UserID(r))
	if err != nil {
		c.Fail(w, r, err, "list_events")
		return
	}
	c.ResponseBuilder.WriteSuccess(w, r, events)
}

func (c *EventsController) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	event, err := c.events.Get(ctx, c.UserID(r), chi.URLParam(r, "id"))
	if err != nil {
		c.Fail(w, r, err, "get_event")
		return
	}
	c.ResponseBuilder.WriteSuccess(w, r, event)
}

// Create godoc
// @Summary Schedule a community event
// @Tags Events
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body services.CreateEventRequest true "Event"
// @Success 201 {object} response.APIResponse{data=models.Event}
// @Failure 403 {object} response.APIResponse
// @Router /events [post]
func (c *EventsController) Create(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	var req services.CreateEventRequest
	if !c.Decode(w, r, &req) {
		return
	}

	event, err := c.events.Create(ctx, c.UserID(r), &req)
	if err != nil {
		c.Fail(w, r, err, "create_event")
		return
	}
	c.ResponseBuilder.WriteCreated(w, r, event)
}

func (c *EventsController) Delete(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	if err := c.events.Delete(ctx, c.UserID(r), chi.URLParam(r, "id")); err != nil {
		c.Fail(w, r, err, "delete_event")
		return
	}
	c.ResponseBuilder.WriteNoContent(w, r)
}

// CheckinPayload returns the QR payload organizers display at the venue
func (c *EventsController) CheckinPayload(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	payload, err := c.events.CheckinPayload(ctx, c.UserID(r), chi.URLParam(r, "id"))
	if err != nil {
		c.Fail(w, r, err, "checkin_payload")
		return
	}
	c.ResponseBuilder.WriteSuccess(w, r, map[string]string{"payload": payload})
}

// ===============================
// MEMBERSHIP & ATTENDANCE
// ===============================

func (c *EventsController) Join(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	if err := c.events.Join(ctx, c.UserID(r), chi.URLParam(r, "id")); err != nil {
		c.Fail(w, r, err, "join_event")
		return
	}
	c.ResponseBuilder.WriteNoContent(w, r)
}

func (c *EventsController) Leave(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	if err := c.events.Leave(ctx, c.UserID(r), chi.URLParam(r, "id")); err != nil {
		c.Fail(w, r, err, "leave_event")
		return
	}
	c.ResponseBuilder.WriteNoContent(w, r)
}

// CheckIn godoc
// @Summary Check in to an event with a scanned or typed code
// @Tags Events
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body services.CheckinRequest true "Payload or event_id and code"
// @Success 201 {object} response.APIResponse{data=models.EventCheckin}
// @Failure 409 {object} response.APIResponse "Already checked in"
// @Failure 422 {object} response.APIResponse "Invalid check-in code"
// @Router /events/checkin [post]
func (c *EventsController) CheckIn(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	var req services.CheckinRequest
	if !c.Decode(w, r, &req) {
		return
	}

	checkin, err := c.events.CheckIn(ctx, c.UserID(r), &req)
	if err != nil {
		c.Fail(w, r, err, "checkin")
		return
	}
	c.Log(r, "checkin").Info("Checked in",
		zap.String("event_id", checkin.EventID),
		zap.Int("points", checkin.PointsAwarded))
	c.ResponseBuilder.WriteCreated(w, r, checkin)
}

// MyCheckins lists the caller's attendance history
func (c *EventsController) MyCheckins(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	history, err := c.events.CheckinHistory(ctx, c.UserID(r))
	if err != nil {
		c.Fail(w, r, err, "my_checkins")
		return
	}
	c.ResponseBuilder.WriteSuccess(w, r, history)
}

// OrganizerDashboard returns totals across the caller's events
func (c *EventsController) OrganizerDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := c.Context(r)
	defer cancel()

	stats, err := c.events.OrganizerDashboard(ctx, c.UserID(r))
	if err != nil {
		c.Fail(w, r, err, "organizer_dashboard")
		return
	}
	c.ResponseBuilder.WriteSuccess(w, r, stats)
}
