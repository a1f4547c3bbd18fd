package services

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"ecotrack/internal/events"
	"ecotrack/internal/models"
	"ecotrack/internal/repositories"
	"ecotrack/internal/utils"

	"go.uber.org/zap"
)

const (
	checkinCodeLength       = 8
	defaultAttendancePoints = 25
	eventManagerMessage     = "Only organizers or admins can manage events"
)

type eventService struct {
	baseService
}

// NewEventService creates the community event service
func NewEventService(deps *Dependencies) EventService {
	return &eventService{baseService: newBaseService(deps, "events")}
}

// ParseCheckinPayload decodes the text encoded in an event QR code
func ParseCheckinPayload(text string) (*CheckinPayload, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, InvalidInputError("payload", "is required")
	}

	var payload CheckinPayload
	decoder := json.NewDecoder(strings.NewReader(text))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&payload); err != nil {
		return nil, NewValidationError("Invalid QR code", err)
	}
	if payload.EventID == "" || payload.Code == "" {
		return nil, NewValidationError("Invalid QR code", nil)
	}
	return &payload, nil
}

// EncodeCheckinPayload is the inverse of ParseCheckinPayload
func EncodeCheckinPayload(eventID, code string) (string, error) {
	raw, err := json.Marshal(CheckinPayload{EventID: eventID, Code: code})
	if err != nil {
		return "", err
	}
	return string(raw), nil
}

func (s *eventService) Create(ctx context.Context, callerID string, req *CreateEventRequest) (*models.Event, error) {
	if _, err := s.requireRole(ctx, callerID, eventManagerMessage, models.RoleOrganizer, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.validate(req); err != nil {
		return nil, err
	}

	code, err := utils.RandomCode(checkinCodeLength)
	if err != nil {
		return nil, wrapInternal("Failed to generate check-in code", err)
	}

	event := &models.Event{
		Title:            strings.TrimSpace(req.Title),
		Description:      utils.OptionalString(req.Description),
		Location:         utils.OptionalString(req.Location),
		Latitude:         req.Latitude,
		Longitude:        req.Longitude,
		EventDate:        req.EventDate.UTC(),
		AttendancePoints: defaultAttendancePoints,
		EventType:        req.EventType,
		CheckinCode:      &code,
		CreatedBy:        callerID,
	}
	if req.AttendancePoints != nil {
		event.AttendancePoints = *req.AttendancePoints
	}
	if event.EventType == "" {
		event.EventType = models.ActivityCleanup
	}

	if err := s.repos.Event.Create(ctx, event); err != nil {
		return nil, wrapInternal("Failed to create event", err)
	}
	s.invalidate(ctx, landingStatsKey)

	s.logger.Info("Event created",
		zap.String("event_id", event.ID),
		zap.String("created_by", callerID),
		zap.Time("event_date", event.EventDate))
	return event, nil
}

func (s *eventService) List(ctx context.Context, callerID string) ([]models.EventSummary, error) {
	list, err := s.repos.Event.List(ctx)
	if err != nil {
		return nil, wrapInternal("Failed to load events", err)
	}
	for i := range list {
		list[i].Event = list[i].Event.Public()
		if callerID == "" {
			continue
		}
		if err := s.markMembership(ctx, &list[i], callerID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (s *eventService) markMembership(ctx context.Context, summary *models.EventSummary, userID string) error {
	joined, err := s.repos.Event.IsParticipant(ctx, summary.ID, userID)
	if err != nil {
		return wrapInternal("Failed to load membership", err)
	}
	checkin, err := s.repos.Event.GetCheckin(ctx, summary.ID, userID)
	if err != nil {
		return wrapInternal("Failed to load membership", err)
	}
	summary.Joined = joined
	summary.CheckedIn = checkin != nil
	return nil
}

func (s *eventService) Get(ctx context.Context, callerID, eventID string) (*models.EventSummary, error) {
	list, err := s.repos.Event.List(ctx)
	if err != nil {
		return nil, wrapInternal("Failed to load event", err)
	}

	var summary *models.EventSummary
	for i := range list {
		if list[i].ID == eventID {
			summary = &list[i]
			break
		}
	}
	if summary == nil {
		return nil, EntityNotFoundError("event", eventID)
	}

	manage, err := s.canManage(ctx, callerID, &summary.Event)
	if err != nil {
		return nil, err
	}
	if !manage {
		summary.Event = summary.Event.Public()
	}
	if callerID != "" {
		if err := s.markMembership(ctx, summary, callerID); err != nil {
			return nil, err
		}
	}
	return summary, nil
}

// canManage reports whether the caller created the event or is an admin
func (s *eventService) canManage(ctx context.Context, callerID string, event *models.Event) (bool, error) {
	if callerID == "" {
		return false, nil
	}
	if event.CreatedBy == callerID {
		return true, nil
	}
	role, err := s.roleOf(ctx, s.repos, callerID)
	if err != nil {
		return false, err
	}
	return role == models.RoleAdmin, nil
}

func (s *eventService) loadManaged(ctx context.Context, callerID, eventID string) (*models.Event, error) {
	if callerID == "" {
		return nil, NewUnauthorizedError("Authentication required")
	}
	event, err := s.repos.Event.GetByID(ctx, eventID)
	if err != nil {
		return nil, wrapInternal("Failed to load event", err)
	}
	if event == nil {
		return nil, EntityNotFoundError("event", eventID)
	}
	manage, err := s.canManage(ctx, callerID, event)
	if err != nil {
		return nil, err
	}
	if !manage {
		return nil, NewForbiddenError("Only the event creator or an admin can manage this event")
	}
	return event, nil
}

func (s *eventService) Delete(ctx context.Context, callerID, eventID string) error {
	if _, err := s.loadManaged(ctx, callerID, eventID); err != nil {
		return err
	}
	if err := s.repos.Event.Delete(ctx, eventID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return EntityNotFoundError("event", eventID)
		}
		return wrapInternal("Failed to delete event", err)
	}
	s.invalidate(ctx, landingStatsKey)
	s.logger.Info("Event deleted", zap.String("event_id", eventID), zap.String("deleted_by", callerID))
	return nil
}

func (s *eventService) CheckinPayload(ctx context.Context, callerID, eventID string) (string, error) {
	event, err := s.loadManaged(ctx, callerID, eventID)
	if err != nil {
		return "", err
	}
	if event.CheckinCode == nil || *event.CheckinCode == "" {
		return "", NewBusinessError("This event has no check-in code", CodeInvalidCheckinCode)
	}
	payload, err := EncodeCheckinPayload(event.ID, *event.CheckinCode)
	if err != nil {
		return "", wrapInternal("Failed to build check-in payload", err)
	}
	return payload, nil
}

// ===============================
// MEMBERSHIP
// ===============================

func (s *eventService) Join(ctx context.Context, userID, eventID string) error {
	if err := s.repos.Event.AddParticipant(ctx, eventID, userID); err != nil {
		switch {
		case errors.Is(err, repositories.ErrDuplicate):
			return NewConflictError("You have already joined this event", CodeAlreadyJoined)
		case errors.Is(err, repositories.ErrNotFound):
			return EntityNotFoundError("event", eventID)
		}
		return wrapInternal("Failed to join event", err)
	}
	return nil
}

func (s *eventService) Leave(ctx context.Context, userID, eventID string) error {
	if err := s.repos.Event.RemoveParticipant(ctx, eventID, userID); err != nil {
		return wrapInternal("Failed to leave event", err)
	}
	return nil
}

// ===============================
// CHECK-IN
// ===============================

func (s *eventService) CheckIn(ctx context.Context, userID string, req *CheckinRequest) (*models.EventCheckin, error) {
	eventID, code := strings.TrimSpace(req.EventID), strings.TrimSpace(req.Code)
	if req.Payload != "" {
		payload, err := ParseCheckinPayload(req.Payload)
		if err != nil {
			return nil, err
		}
		eventID, code = payload.EventID, payload.Code
	}
	if eventID == "" || code == "" {
		return nil, NewValidationError("event_id and code are required", nil)
	}

	var (
		checkin *models.EventCheckin
		title   string
	)
	err := s.repos.WithTransaction(ctx, func(tx *repositories.Collection) error {
		event, err := tx.Event.GetByIDForUpdate(ctx, eventID)
		if err != nil {
			return err
		}
		if event == nil {
			err := NewNotFoundError("Event not found")
			err.Code = CodeEventNotFound
			return err
		}
		if !codesMatch(event.CheckinCode, code) {
			return NewBusinessError("Invalid check-in code", CodeInvalidCheckinCode)
		}

		existing, err := tx.Event.GetCheckin(ctx, eventID, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			return NewConflictError("You have already checked in to this event", CodeAlreadyCheckedIn)
		}

		checkin = &models.EventCheckin{
			EventID:       eventID,
			UserID:        userID,
			PointsAwarded: event.AttendancePoints,
		}
		if err := tx.Event.CreateCheckin(ctx, checkin); err != nil {
			if errors.Is(err, repositories.ErrDuplicate) {
				return NewConflictError("You have already checked in to this event", CodeAlreadyCheckedIn)
			}
			return err
		}
		if _, err := tx.Profile.AddPoints(ctx, userID, event.AttendancePoints); err != nil {
			return fmt.Errorf("failed to credit points: %w", err)
		}
		title = event.Title
		_, err = evaluateRewards(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, txError("Failed to check in", err)
	}

	s.logger.Info("Checked in",
		zap.String("event_id", eventID),
		zap.String("user_id", userID),
		zap.Int("points", checkin.PointsAwarded))
	s.publish(ctx, &events.CheckedInEvent{
		BaseEvent:     events.NewBaseEvent(events.EventCheckedIn, userID),
		EventID:       eventID,
		EventTitle:    title,
		PointsAwarded: checkin.PointsAwarded,
	})
	return checkin, nil
}

func codesMatch(stored *string, given string) bool {
	if stored == nil || *stored == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(*stored), []byte(strings.ToUpper(given))) == 1
}

func (s *eventService) CheckinHistory(ctx context.Context, userID string) ([]models.CheckinHistoryItem, error) {
	items, err := s.repos.Event.CheckinsByUser(ctx, userID)
	if err != nil {
		return nil, wrapInternal("Failed to load check-ins", err)
	}
	return items, nil
}

func (s *eventService) OrganizerDashboard(ctx context.Context, callerID string) (*models.OrganizerStats, error) {
	if _, err := s.requireRole(ctx, callerID, "Only organizers or admins have an organizer dashboard", models.RoleOrganizer, models.RoleAdmin); err != nil {
		return nil, err
	}

	owned, err := s.repos.Event.ListByCreator(ctx, callerID)
	if err != nil {
		return nil, wrapInternal("Failed to load events", err)
	}

	stats := &models.OrganizerStats{Events: owned, TotalEvents: len(owned)}
	now := s.now()
	for _, e := range owned {
		stats.TotalParticipants += e.ParticipantCount
		stats.TotalCheckins += e.CheckinCount
		if e.EventDate.After(now) {
			stats.UpcomingEvents++
		}
	}
	return stats, nil
}
