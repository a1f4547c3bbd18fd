package services

import (
	"context"
	"fmt"
	"strings"

	"ecotrack/internal/events"
	"ecotrack/internal/gamification"
	"ecotrack/internal/models"
	"ecotrack/internal/repositories"
	"ecotrack/internal/utils"
	"ecotrack/internal/verification"

	"go.uber.org/zap"
)

const (
	defaultActivityLimit = 20
	pendingActivityLimit = 100
	reviewerOnlyMessage  = "Only organizers or admins can review activities"
)

type activityService struct {
	baseService
	verifier ImageVerifier
	images   utils.ImageStore
}

// NewActivityService creates the activity lifecycle service
func NewActivityService(deps *Dependencies) ActivityService {
	return &activityService{
		baseService: newBaseService(deps, "activities"),
		verifier:    deps.Verifier,
		images:      deps.Images,
	}
}

func (s *activityService) Submit(ctx context.Context, userID string, req *SubmitActivityRequest) (*models.Activity, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	activity := &models.Activity{
		UserID:      userID,
		Type:        req.Type,
		Description: utils.OptionalString(req.Description),
		ImageURL:    utils.OptionalString(req.ImageURL),
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
		Status:      models.ActivityPending,
	}
	if req.Type == models.ActivityCleanup {
		activity.WasteKg = req.WasteKg
	}

	if req.ImageBase64 != "" {
		url, err := s.storeEvidence(ctx, userID, req)
		if err != nil {
			return nil, err
		}
		activity.ImageURL = &url
	}

	if err := s.repos.Activity.Create(ctx, activity); err != nil {
		return nil, wrapInternal("Failed to submit activity", err)
	}

	s.logger.Info("Activity submitted",
		zap.String("activity_id", activity.ID),
		zap.String("user_id", userID),
		zap.String("type", string(activity.Type)))
	return activity, nil
}

// storeEvidence runs the advisory image check and uploads the image
func (s *activityService) storeEvidence(ctx context.Context, userID string, req *SubmitActivityRequest) (string, error) {
	raw, err := verification.DecodeImage(req.ImageBase64)
	if err != nil {
		return "", InvalidInputError("image_base64", "must be base64 image data")
	}

	result := s.advisoryCheck(ctx, req)
	if verification.ShouldWithhold(result) {
		return "", NewBusinessError(
			fmt.Sprintf("This image does not look like a %s activity: %s", req.Type.Label(), result.Reason),
			CodeLowConfidence,
		).WithDetail("confidence", result.Confidence)
	}

	if s.images == nil {
		return "", NewServiceUnavailableError("Image uploads are not configured")
	}
	upload, err := s.images.UploadBytes(ctx, raw, userID, utils.FolderActivityImages)
	if err != nil {
		s.logger.Error("Failed to upload activity image", zap.String("user_id", userID), zap.Error(err))
		return "", NewServiceUnavailableError("Failed to store the activity image")
	}
	return upload.URL, nil
}

// advisoryCheck never fails: every error collapses to the safe default
func (s *activityService) advisoryCheck(ctx context.Context, req *SubmitActivityRequest) *verification.Result {
	if s.verifier == nil || !s.verifier.Enabled() {
		return verification.SafeDefault()
	}
	result, err := s.verifier.Verify(ctx, req.ImageBase64, req.Type)
	if err != nil || result == nil {
		s.logger.Warn("Image verification unavailable, allowing", zap.Error(err))
		return verification.SafeDefault()
	}
	return result
}

// ===============================
// REVIEW
// ===============================

func (s *activityService) Approve(ctx context.Context, callerID, activityID string) (*models.Activity, error) {
	if _, err := s.requireRole(ctx, callerID, reviewerOnlyMessage, models.RoleOrganizer, models.RoleAdmin); err != nil {
		return nil, err
	}

	var (
		activity  *models.Activity
		changed   bool
		newBadges []models.Badge
	)
	err := s.repos.WithTransaction(ctx, func(tx *repositories.Collection) error {
		current, err := tx.Activity.GetByIDForUpdate(ctx, activityID)
		if err != nil {
			return err
		}
		if current == nil {
			return EntityNotFoundError("activity", activityID)
		}
		activity = current
		if current.IsTerminal() {
			return nil
		}

		current.Status = models.ActivityApproved
		current.PointsAwarded = gamification.PointsFor(current.Type)
		current.ReviewedBy = &callerID
		if err := tx.Activity.UpdateReview(ctx, current); err != nil {
			return err
		}
		if _, err := tx.Profile.AddPoints(ctx, current.UserID, current.PointsAwarded); err != nil {
			return fmt.Errorf("failed to credit points: %w", err)
		}

		streak, err := tx.Gamification.GetStreakForUpdate(ctx, current.UserID)
		if err != nil {
			return err
		}
		if streak == nil {
			streak = &models.UserStreak{UserID: current.UserID}
		}
		advanced := gamification.AdvanceStreak(*streak, current.CreatedAt)
		if err := tx.Gamification.SaveStreak(ctx, &advanced); err != nil {
			return fmt.Errorf("failed to save streak: %w", err)
		}

		if newBadges, err = evaluateBadges(ctx, tx, current.UserID); err != nil {
			return err
		}
		if _, err := evaluateRewards(ctx, tx, current.UserID); err != nil {
			return err
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, txError("Failed to approve activity", err)
	}

	if changed {
		s.logger.Info("Activity approved",
			zap.String("activity_id", activity.ID),
			zap.String("reviewer_id", callerID),
			zap.Int("points", activity.PointsAwarded),
			zap.Int("new_badges", len(newBadges)))
		s.publish(ctx, s.reviewedEvent(events.ActivityApproved, activity, callerID))
		for _, e := range badgeEvents(activity.UserID, newBadges) {
			s.publish(ctx, e)
		}
	}
	return activity, nil
}

func (s *activityService) Reject(ctx context.Context, callerID, activityID string) (*models.Activity, error) {
	if _, err := s.requireRole(ctx, callerID, reviewerOnlyMessage, models.RoleOrganizer, models.RoleAdmin); err != nil {
		return nil, err
	}

	var (
		activity *models.Activity
		changed  bool
	)
	err := s.repos.WithTransaction(ctx, func(tx *repositories.Collection) error {
		current, err := tx.Activity.GetByIDForUpdate(ctx, activityID)
		if err != nil {
			return err
		}
		if current == nil {
			return EntityNotFoundError("activity", activityID)
		}
		activity = current
		if current.IsTerminal() {
			return nil
		}

		current.Status = models.ActivityRejected
		current.ReviewedBy = &callerID
		changed = true
		return tx.Activity.UpdateReview(ctx, current)
	})
	if err != nil {
		return nil, txError("Failed to reject activity", err)
	}

	if changed {
		s.logger.Info("Activity rejected",
			zap.String("activity_id", activity.ID),
			zap.String("reviewer_id", callerID))
		s.publish(ctx, s.reviewedEvent(events.ActivityRejected, activity, callerID))
	}
	return activity, nil
}

func (s *activityService) reviewedEvent(eventType string, a *models.Activity, reviewerID string) *events.ActivityReviewedEvent {
	return &events.ActivityReviewedEvent{
		BaseEvent:     events.NewBaseEvent(eventType, a.UserID),
		ActivityID:    a.ID,
		ActivityType:  a.Type,
		Status:        a.Status,
		PointsAwarded: a.PointsAwarded,
		ReviewerID:    reviewerID,
	}
}

// ===============================
// QUERIES
// ===============================

func (s *activityService) Get(ctx context.Context, callerID, activityID string) (*models.Activity, error) {
	activity, err := s.repos.Activity.GetByID(ctx, activityID)
	if err != nil {
		return nil, wrapInternal("Failed to load activity", err)
	}
	if activity == nil {
		return nil, EntityNotFoundError("activity", activityID)
	}
	if activity.UserID == callerID {
		return activity, nil
	}

	role, err := s.roleOf(ctx, s.repos, callerID)
	if err != nil {
		return nil, err
	}
	if !role.CanReview() {
		// Other users' activities are indistinguishable from missing ones
		return nil, EntityNotFoundError("activity", activityID)
	}
	return activity, nil
}

func (s *activityService) ListMine(ctx context.Context, userID string, limit int) ([]models.Activity, error) {
	if limit <= 0 || limit > 100 {
		limit = defaultActivityLimit
	}
	activities, err := s.repos.Activity.ListByUser(ctx, userID, limit)
	if err != nil {
		return nil, wrapInternal("Failed to load activities", err)
	}
	return activities, nil
}

func (s *activityService) ListPending(ctx context.Context, callerID string) ([]models.Activity, error) {
	if _, err := s.requireRole(ctx, callerID, reviewerOnlyMessage, models.RoleOrganizer, models.RoleAdmin); err != nil {
		return nil, err
	}
	activities, err := s.repos.Activity.ListByStatus(ctx, models.ActivityPending, pendingActivityLimit)
	if err != nil {
		return nil, wrapInternal("Failed to load pending activities", err)
	}
	return activities, nil
}

func (s *activityService) ListAll(ctx context.Context, callerID string, params models.PaginationParams) (*models.PaginatedResponse[models.Activity], error) {
	if _, err := s.requireRole(ctx, callerID, "Only admins can list all activities", models.RoleAdmin); err != nil {
		return nil, err
	}
	params = params.Normalize()
	activities, total, err := s.repos.Activity.List(ctx, params)
	if err != nil {
		return nil, wrapInternal("Failed to load activities", err)
	}
	return models.NewPaginatedResponse(activities, params, total), nil
}

func (s *activityService) Certificate(ctx context.Context, userID, activityID string) (*models.Certificate, error) {
	activity, err := s.repos.Activity.GetByID(ctx, activityID)
	if err != nil {
		return nil, wrapInternal("Failed to load activity", err)
	}
	if activity == nil || activity.UserID != userID {
		return nil, EntityNotFoundError("activity", activityID)
	}
	if activity.Status != models.ActivityApproved {
		return nil, NewBusinessError("Certificates are only issued for approved activities", "")
	}

	profile, err := s.repos.Profile.GetByUserID(ctx, userID)
	if err != nil {
		return nil, wrapInternal("Failed to load profile", err)
	}
	name := "EcoTrack Volunteer"
	if profile != nil && profile.Name != "" {
		name = profile.Name
	}

	return &models.Certificate{
		CertificateNumber: certificateNumber(activity),
		RecipientName:     name,
		ActivityID:        activity.ID,
		ActivityType:      activity.Type,
		ActivityLabel:     activity.Type.Label(),
		Points:            activity.PointsAwarded,
		WasteKg:           activity.WasteKg,
		IssuedFor:         activity.CreatedAt,
	}, nil
}

// certificateNumber is stable for an activity: ECO-<year>-<first 8 id chars>
func certificateNumber(a *models.Activity) string {
	id := strings.ToUpper(strings.ReplaceAll(a.ID, "-", ""))
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("ECO-%d-%s", a.CreatedAt.UTC().Year(), id)
}
