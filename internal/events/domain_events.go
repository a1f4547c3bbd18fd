package events

import "ecotrack/internal/models"

// Event types published by the services
const (
	ActivityApproved     = "activity.approved"
	ActivityRejected     = "activity.rejected"
	BadgeUnlocked        = "badge.unlocked"
	EventCheckedIn       = "event.checked_in"
	CouponRedeemed       = "coupon.redeemed"
	OrganizerApproved    = "organizer.approved"
	OrganizerRejected    = "organizer.rejected"
	AccountStatusChanged = "account.status_changed"
)

// PointsChanged lists the event types that move a profile's balance
var PointsChanged = []string{ActivityApproved, EventCheckedIn, CouponRedeemed}

// ActivityReviewedEvent is published after an activity leaves pending.
// UserID is the submitter.
type ActivityReviewedEvent struct {
	BaseEvent
	ActivityID    string                `json:"activity_id"`
	ActivityType  models.ActivityType   `json:"activity_type"`
	Status        models.ActivityStatus `json:"status"`
	PointsAwarded int                   `json:"points_awarded"`
	ReviewerID    string                `json:"reviewer_id"`
}

// BadgeUnlockedEvent is published once per newly unlocked badge
type BadgeUnlockedEvent struct {
	BaseEvent
	BadgeID   string `json:"badge_id"`
	BadgeName string `json:"badge_name"`
	Icon      string `json:"icon"`
}

// CheckedInEvent is published after a successful event check-in
type CheckedInEvent struct {
	BaseEvent
	EventID       string `json:"event_id"`
	EventTitle    string `json:"event_title"`
	PointsAwarded int    `json:"points_awarded"`
}

// CouponRedeemedEvent is published after a redemption commits
type CouponRedeemedEvent struct {
	BaseEvent
	CouponID    string `json:"coupon_id"`
	CouponTitle string `json:"coupon_title"`
	PointsSpent int    `json:"points_spent"`
	Remaining   int    `json:"remaining_points"`
}

// ApplicationReviewedEvent is published after an organizer application is reviewed.
// UserID is the applicant.
type ApplicationReviewedEvent struct {
	BaseEvent
	ApplicationID string                   `json:"application_id"`
	Status        models.ApplicationStatus `json:"status"`
	Remarks       string                   `json:"remarks,omitempty"`
	ReviewerID    string                   `json:"reviewer_id"`
}

// AccountStatusChangedEvent is published when an admin changes an account status.
// UserID is the target account.
type AccountStatusChangedEvent struct {
	BaseEvent
	Status  models.AccountStatus `json:"status"`
	ActorID string               `json:"actor_id"`
}
