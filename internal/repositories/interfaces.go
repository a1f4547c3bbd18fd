// file: internal/repositories/interfaces.go
package repositories

import (
	"context"
	"errors"
	"time"

	"ecotrack/internal/models"
)

var (
	// ErrDuplicate is returned when a unique constraint rejects a write
	ErrDuplicate = errors.New("duplicate record")
	// ErrNotFound is returned by writes that target a missing row.
	// Reads return nil, nil instead.
	ErrNotFound = errors.New("record not found")
)

// UserRepository stores authentication identities
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	SetPasswordHash(ctx context.Context, id, hash string) error
	SetBannedUntil(ctx context.Context, id string, until *time.Time) error
}

// ProfileRepository stores profiles and their point balances
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.Profile) error
	GetByUserID(ctx context.Context, userID string) (*models.Profile, error)
	// GetByUserIDForUpdate locks the profile row until the transaction ends
	GetByUserIDForUpdate(ctx context.Context, userID string) (*models.Profile, error)
	Update(ctx context.Context, profile *models.Profile) error
	// AddPoints adjusts the balance by delta and returns the new balance
	AddPoints(ctx context.Context, userID string, delta int) (int, error)
	SetAccountStatus(ctx context.Context, userID string, status models.AccountStatus) error
	Leaderboard(ctx context.Context, limit int) ([]models.Profile, error)
	ListSummaries(ctx context.Context) ([]models.UserSummary, error)
	Count(ctx context.Context) (int64, error)
	TotalPoints(ctx context.Context) (int64, error)
}

// RoleRepository stores the single role row per user
type RoleRepository interface {
	// GetRole returns "" when the user has no role row
	GetRole(ctx context.Context, userID string) (models.Role, error)
	SetRole(ctx context.Context, userID string, role models.Role) error
}

// ActivityRepository stores submitted activities
type ActivityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	GetByID(ctx context.Context, id string) (*models.Activity, error)
	GetByIDForUpdate(ctx context.Context, id string) (*models.Activity, error)
	// UpdateReview persists status, points_awarded and reviewed_by
	UpdateReview(ctx context.Context, activity *models.Activity) error
	// ListByUser returns the user's activities newest first. limit <= 0 means all.
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Activity, error)
	ListByStatus(ctx context.Context, status models.ActivityStatus, limit int) ([]models.Activity, error)
	List(ctx context.Context, params models.PaginationParams) ([]models.Activity, int64, error)
	Counts(ctx context.Context) (*models.ActivityCounts, error)
}

// EventRepository stores events with their participants and check-ins
type EventRepository interface {
	Create(ctx context.Context, event *models.Event) error
	GetByID(ctx context.Context, id string) (*models.Event, error)
	GetByIDForUpdate(ctx context.Context, id string) (*models.Event, error)
	Delete(ctx context.Context, id string) error
	// List returns events by date ascending with membership counts
	List(ctx context.Context) ([]models.EventSummary, error)
	ListByCreator(ctx context.Context, userID string) ([]models.EventSummary, error)
	Count(ctx context.Context) (int64, error)

	AddParticipant(ctx context.Context, eventID, userID string) error
	RemoveParticipant(ctx context.Context, eventID, userID string) error
	IsParticipant(ctx context.Context, eventID, userID string) (bool, error)

	GetCheckin(ctx context.Context, eventID, userID string) (*models.EventCheckin, error)
	CreateCheckin(ctx context.Context, checkin *models.EventCheckin) error
	CheckinsByUser(ctx context.Context, userID string) ([]models.CheckinHistoryItem, error)
}

// GamificationRepository stores badge, reward and streak state
type GamificationRepository interface {
	ListBadges(ctx context.Context) ([]models.Badge, error)
	// UserBadges returns unlocks in unlock order
	UserBadges(ctx context.Context, userID string) ([]models.UserBadge, error)
	// AwardBadge inserts the unlock and reports whether it was new
	AwardBadge(ctx context.Context, userID, badgeID string) (bool, error)
	BadgeIconsByUser(ctx context.Context, userIDs []string) (map[string][]string, error)

	ListRewards(ctx context.Context) ([]models.Reward, error)
	UserRewards(ctx context.Context, userID string) ([]models.UserReward, error)
	AwardReward(ctx context.Context, userID, rewardID string) (bool, error)

	GetStreak(ctx context.Context, userID string) (*models.UserStreak, error)
	GetStreakForUpdate(ctx context.Context, userID string) (*models.UserStreak, error)
	SaveStreak(ctx context.Context, streak *models.UserStreak) error
}

// CouponRepository stores coupons and redemptions
type CouponRepository interface {
	Create(ctx context.Context, coupon *models.Coupon) error
	GetByID(ctx context.Context, id string) (*models.Coupon, error)
	GetByIDForUpdate(ctx context.Context, id string) (*models.Coupon, error)
	// ListActive returns active coupons, cheapest first
	ListActive(ctx context.Context) ([]models.Coupon, error)
	SetActive(ctx context.Context, id string, active bool) error
	IncrementRedeemed(ctx context.Context, id string) error

	GetRedemption(ctx context.Context, userID, couponID string) (*models.UserCoupon, error)
	CreateRedemption(ctx context.Context, redemption *models.UserCoupon) error
	RedemptionsByUser(ctx context.Context, userID string) ([]models.RedeemedCoupon, error)
}

// ApplicationRepository stores organizer applications
type ApplicationRepository interface {
	Create(ctx context.Context, app *models.OrganizerApplication) error
	GetByID(ctx context.Context, id string) (*models.OrganizerApplication, error)
	GetByIDForUpdate(ctx context.Context, id string) (*models.OrganizerApplication, error)
	LatestByUser(ctx context.Context, userID string) (*models.OrganizerApplication, error)
	HasPending(ctx context.Context, userID string) (bool, error)
	// List filters by status when status is non-nil, newest first
	List(ctx context.Context, status *models.ApplicationStatus) ([]models.OrganizerApplication, error)
	UpdateReview(ctx context.Context, app *models.OrganizerApplication) error
}

// StatsRepository computes public aggregate numbers
type StatsRepository interface {
	LandingStats(ctx context.Context) (*models.LandingStats, error)
}
