package services

import (
	"context"
	"strings"

	"ecotrack/internal/events"
	"ecotrack/internal/models"
	"ecotrack/internal/repositories"
	"ecotrack/internal/utils"

	"go.uber.org/zap"
)

const applicationAdminMessage = "Only admins can review organizer applications"

type organizerService struct {
	baseService
}

// NewOrganizerService creates the organizer application service
func NewOrganizerService(deps *Dependencies) OrganizerService {
	return &organizerService{baseService: newBaseService(deps, "organizers")}
}

func (s *organizerService) Submit(ctx context.Context, userID string, req *ApplicationRequest) (*models.OrganizerApplication, error) {
	req.OfficialEmail = strings.ToLower(strings.TrimSpace(req.OfficialEmail))
	req.OrganizationName = strings.TrimSpace(req.OrganizationName)
	if err := s.validate(req); err != nil {
		return nil, err
	}

	role, err := s.roleOf(ctx, s.repos, userID)
	if err != nil {
		return nil, err
	}
	if role == models.RoleOrganizer || role == models.RoleAdmin {
		return nil, NewConflictError("You already have organizer access", CodeAlreadyOrganizer)
	}

	app := &models.OrganizerApplication{
		UserID:           userID,
		OrganizationName: req.OrganizationName,
		OrganizerType:    req.OrganizerType,
		OfficialEmail:    req.OfficialEmail,
		ContactNumber:    strings.TrimSpace(req.ContactNumber),
		WebsiteURL:       utils.OptionalString(req.WebsiteURL),
		Purpose:          strings.TrimSpace(req.Purpose),
		ProofType:        utils.OptionalString(req.ProofType),
		ProofURL:         utils.OptionalString(req.ProofURL),
		Status:           models.ApplicationPending,
	}

	err = s.repos.WithTransaction(ctx, func(tx *repositories.Collection) error {
		pending, err := tx.Application.HasPending(ctx, userID)
		if err != nil {
			return err
		}
		if pending {
			return NewConflictError("You already have a pending application", CodeApplicationPending)
		}
		return tx.Application.Create(ctx, app)
	})
	if err != nil {
		return nil, txError("Failed to submit application", err)
	}

	s.logger.Info("Organizer application submitted",
		zap.String("application_id", app.ID),
		zap.String("user_id", userID),
		zap.String("organizer_type", string(app.OrganizerType)))
	return app, nil
}

func (s *organizerService) Mine(ctx context.Context, userID string) (*models.OrganizerApplication, error) {
	app, err := s.repos.Application.LatestByUser(ctx, userID)
	if err != nil {
		return nil, wrapInternal("Failed to load application", err)
	}
	return app, nil
}

func (s *organizerService) List(ctx context.Context, callerID string, status *models.ApplicationStatus) ([]models.OrganizerApplication, error) {
	if _, err := s.requireRole(ctx, callerID, applicationAdminMessage, models.RoleAdmin); err != nil {
		return nil, err
	}
	apps, err := s.repos.Application.List(ctx, status)
	if err != nil {
		return nil, wrapInternal("Failed to load applications", err)
	}
	return apps, nil
}

func (s *organizerService) Approve(ctx context.Context, callerID, applicationID, remarks string) (*models.OrganizerApplication, error) {
	return s.review(ctx, callerID, applicationID, remarks, models.ApplicationApproved)
}

func (s *organizerService) Reject(ctx context.Context, callerID, applicationID, remarks string) (*models.OrganizerApplication, error) {
	return s.review(ctx, callerID, applicationID, remarks, models.ApplicationRejected)
}

func (s *organizerService) review(ctx context.Context, callerID, applicationID, remarks string, status models.ApplicationStatus) (*models.OrganizerApplication, error) {
	if _, err := s.requireRole(ctx, callerID, applicationAdminMessage, models.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.validate(&ReviewRequest{Remarks: remarks}); err != nil {
		return nil, err
	}

	var (
		app     *models.OrganizerApplication
		changed bool
	)
	err := s.repos.WithTransaction(ctx, func(tx *repositories.Collection) error {
		current, err := tx.Application.GetByIDForUpdate(ctx, applicationID)
		if err != nil {
			return err
		}
		if current == nil {
			return EntityNotFoundError("application", applicationID)
		}
		app = current
		if current.Status != models.ApplicationPending {
			return nil
		}

		reviewedAt := s.now()
		current.Status = status
		current.AdminRemarks = utils.OptionalString(remarks)
		current.ReviewedBy = &callerID
		current.ReviewedAt = &reviewedAt
		if err := tx.Application.UpdateReview(ctx, current); err != nil {
			return err
		}
		if status == models.ApplicationApproved {
			if err := tx.Role.SetRole(ctx, current.UserID, models.RoleOrganizer); err != nil {
				return err
			}
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, txError("Failed to review application", err)
	}
	if !changed {
		return app, nil
	}

	eventType := events.OrganizerRejected
	if status == models.ApplicationApproved {
		eventType = events.OrganizerApproved
		s.invalidate(ctx, accountKeyPrefix+app.UserID)
	}
	s.logger.Info("Organizer application reviewed",
		zap.String("application_id", app.ID),
		zap.String("status", string(status)),
		zap.String("reviewer_id", callerID))
	s.publish(ctx, &events.ApplicationReviewedEvent{
		BaseEvent:     events.NewBaseEvent(eventType, app.UserID),
		ApplicationID: app.ID,
		Status:        status,
		Remarks:       remarks,
		ReviewerID:    callerID,
	})
	return app, nil
}
