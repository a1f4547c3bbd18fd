package services

import (
	"context"
	"time"

	"ecotrack/internal/events"
	"ecotrack/internal/models"
	"ecotrack/internal/repositories"

	"go.uber.org/zap"
)

// Messages returned verbatim by the status function
const (
	msgStatusAdminOnly   = "Only super admins can manage user status"
	msgStatusInvalid     = "Invalid user_id or status"
	msgStatusSelfTargets = "Cannot change your own account status"
)

type adminService struct {
	baseService
}

// NewAdminService creates the moderation and overview service
func NewAdminService(deps *Dependencies) AdminService {
	return &adminService{baseService: newBaseService(deps, "admin")}
}

func (s *adminService) ManageUserStatus(ctx context.Context, callerID string, req *ManageUserStatusRequest) error {
	if _, err := s.requireRole(ctx, callerID, msgStatusAdminOnly, models.RoleAdmin); err != nil {
		return err
	}
	if req.UserID == "" || !req.Status.Valid() {
		return NewValidationError(msgStatusInvalid, nil)
	}
	if req.UserID == callerID {
		return NewValidationError(msgStatusSelfTargets, nil)
	}

	var bannedUntil *time.Time
	if d := req.Status.BanDuration(); d > 0 {
		until := s.now().Add(d)
		bannedUntil = &until
	}

	err := s.repos.WithTransaction(ctx, func(tx *repositories.Collection) error {
		user, err := tx.User.GetByID(ctx, req.UserID)
		if err != nil {
			return err
		}
		if user == nil {
			return NewValidationError(msgStatusInvalid, nil)
		}
		if err := tx.Profile.SetAccountStatus(ctx, req.UserID, req.Status); err != nil {
			return err
		}
		return tx.User.SetBannedUntil(ctx, req.UserID, bannedUntil)
	})
	if err != nil {
		return txError("Failed to update account status", err)
	}

	s.invalidate(ctx, accountKeyPrefix+req.UserID)
	s.logger.Info("Account status changed",
		zap.String("user_id", req.UserID),
		zap.String("status", string(req.Status)),
		zap.String("actor_id", callerID))
	s.publish(ctx, &events.AccountStatusChangedEvent{
		BaseEvent: events.NewBaseEvent(events.AccountStatusChanged, req.UserID),
		Status:    req.Status,
		ActorID:   callerID,
	})
	return nil
}

func (s *adminService) Overview(ctx context.Context, callerID string) (*models.AdminOverview, error) {
	if _, err := s.requireRole(ctx, callerID, "Only admins can view the overview", models.RoleAdmin); err != nil {
		return nil, err
	}

	users, err := s.repos.Profile.ListSummaries(ctx)
	if err != nil {
		return nil, wrapInternal("Failed to load users", err)
	}
	totalPoints, err := s.repos.Profile.TotalPoints(ctx)
	if err != nil {
		return nil, wrapInternal("Failed to load points", err)
	}
	counts, err := s.repos.Activity.Counts(ctx)
	if err != nil {
		return nil, wrapInternal("Failed to load activity counts", err)
	}
	eventList, err := s.repos.Event.List(ctx)
	if err != nil {
		return nil, wrapInternal("Failed to load events", err)
	}

	return &models.AdminOverview{
		Users:       users,
		TotalUsers:  len(users),
		TotalPoints: totalPoints,
		Activities:  *counts,
		Events:      eventList,
	}, nil
}
