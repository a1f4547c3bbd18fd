package services

import (
	"time"

	"ecotrack/internal/gamification"
	"ecotrack/internal/models"
)

// ===============================
// AUTH
// ===============================

// RegisterRequest creates an account with email and password
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Name     string `json:"name" validate:"required,min=1,max=100"`
	City     string `json:"city" validate:"omitempty,max=100"`
}

// LoginRequest authenticates with email and password
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse carries an issued token and the signed-in account
type AuthResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresAt   time.Time   `json:"expires_at"`
	User        *MeResponse `json:"user"`
}

// MeResponse describes the signed-in account
type MeResponse struct {
	UserID  string          `json:"user_id"`
	Email   string          `json:"email"`
	Role    models.Role     `json:"role"`
	Profile *models.Profile `json:"profile"`
}

// UpdateProfileRequest edits the caller's profile. Nil fields are left alone.
type UpdateProfileRequest struct {
	Name      *string `json:"name" validate:"omitempty,min=1,max=100"`
	City      *string `json:"city" validate:"omitempty,max=100"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url,max=500"`
}

// AccountState is the per-request view of an account used by middleware
type AccountState struct {
	UserID      string               `json:"user_id"`
	Email       string               `json:"email"`
	Role        models.Role          `json:"role"`
	Status      models.AccountStatus `json:"status"`
	BannedUntil *time.Time           `json:"banned_until,omitempty"`
}

// Blocked reports whether the account is banned or suspended at now
func (s *AccountState) Blocked(now time.Time) bool {
	return s.BannedUntil != nil && s.BannedUntil.After(now)
}

// ===============================
// ACTIVITIES
// ===============================

// SubmitActivityRequest logs a new activity for review
type SubmitActivityRequest struct {
	Type        models.ActivityType `json:"type" validate:"required,oneof=tree_plantation cleanup recycling eco_habit"`
	Description string              `json:"description" validate:"max=1000"`
	ImageURL    string              `json:"image_url" validate:"omitempty,url,max=1000"`
	ImageBase64 string              `json:"image_base64"`
	WasteKg     *float64            `json:"waste_kg" validate:"omitempty,gte=0"`
	Latitude    *float64            `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude   *float64            `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
}

// ===============================
// EVENTS
// ===============================

// CreateEventRequest schedules a community event
type CreateEventRequest struct {
	Title            string              `json:"title" validate:"required,min=3,max=200"`
	Description      string              `json:"description" validate:"max=2000"`
	Location         string              `json:"location" validate:"max=300"`
	Latitude         *float64            `json:"latitude" validate:"omitempty,gte=-90,lte=90"`
	Longitude        *float64            `json:"longitude" validate:"omitempty,gte=-180,lte=180"`
	EventDate        time.Time           `json:"event_date" validate:"required"`
	AttendancePoints *int                `json:"attendance_points" validate:"omitempty,gte=0,lte=1000"`
	EventType        models.ActivityType `json:"event_type" validate:"omitempty,oneof=tree_plantation cleanup recycling eco_habit"`
}

// CheckinRequest accepts either the scanned payload or the raw pair
type CheckinRequest struct {
	Payload string `json:"payload"`
	EventID string `json:"event_id"`
	Code    string `json:"code"`
}

// CheckinPayload is the JSON encoded into an event's QR code
type CheckinPayload struct {
	EventID string `json:"event_id"`
	Code    string `json:"code"`
}

// ===============================
// COUPONS
// ===============================

// CreateCouponRequest adds a partner coupon
type CreateCouponRequest struct {
	Title          string     `json:"title" validate:"required,min=2,max=200"`
	Description    string     `json:"description" validate:"max=1000"`
	PartnerName    string     `json:"partner_name" validate:"max=200"`
	PointsCost     int        `json:"points_cost" validate:"required,gt=0"`
	CouponCode     string     `json:"coupon_code" validate:"required,min=3,max=64"`
	ExpiryDate     *time.Time `json:"expiry_date"`
	MaxRedemptions *int       `json:"max_redemptions" validate:"omitempty,gt=0"`
}

// SetCouponActiveRequest toggles a coupon
type SetCouponActiveRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// RedeemResult is returned after a successful redemption
type RedeemResult struct {
	Redemption      models.UserCoupon `json:"redemption"`
	Coupon          models.Coupon     `json:"coupon"`
	RemainingPoints int               `json:"remaining_points"`
}

// ===============================
// GAMIFICATION
// ===============================

// BadgeProgress is a badge with the caller's progress towards it
type BadgeProgress struct {
	models.Badge
	Progress   float64    `json:"progress"`
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

// RewardStatus is a reward with the caller's unlock state
type RewardStatus struct {
	models.Reward
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
}

// Dashboard is everything the citizen dashboard renders
type Dashboard struct {
	Profile            models.Profile            `json:"profile"`
	Role               models.Role               `json:"role"`
	Stats              gamification.Stats        `json:"stats"`
	Badges             []BadgeProgress           `json:"badges"`
	Rewards            []RewardStatus            `json:"rewards"`
	NextReward         *models.Reward            `json:"next_reward,omitempty"`
	NextRewardProgress float64                   `json:"next_reward_progress"`
	Streak             models.UserStreak         `json:"streak"`
	Monthly            []gamification.MonthPoint `json:"monthly"`
	ByType             []gamification.TypePoint  `json:"by_type"`
	RecentActivities   []models.Activity         `json:"recent_activities"`
	NewBadgeIDs        []string                  `json:"new_badge_ids"`
}

// MarkSeenRequest records celebrated badges
type MarkSeenRequest struct {
	BadgeIDs []string `json:"badge_ids" validate:"required,min=1,dive,required"`
}

// ===============================
// ORGANIZERS & ADMIN
// ===============================

// ApplicationRequest applies for organizer status
type ApplicationRequest struct {
	OrganizationName string               `json:"organization_name" validate:"required,min=2,max=200"`
	OrganizerType    models.OrganizerType `json:"organizer_type" validate:"required,oneof=ngo college_school company_csr community_group"`
	OfficialEmail    string               `json:"official_email" validate:"required,email,max=255"`
	ContactNumber    string               `json:"contact_number" validate:"required,min=7,max=20"`
	WebsiteURL       string               `json:"website_url" validate:"omitempty,url,max=500"`
	Purpose          string               `json:"purpose" validate:"required,min=20,max=2000"`
	ProofType        string               `json:"proof_type" validate:"max=100"`
	ProofURL         string               `json:"proof_url" validate:"omitempty,url,max=1000"`
}

// ReviewRequest carries optional admin remarks
type ReviewRequest struct {
	Remarks string `json:"remarks" validate:"max=1000"`
}

// ManageUserStatusRequest is the admin status function body
type ManageUserStatusRequest struct {
	UserID string               `json:"user_id"`
	Status models.AccountStatus `json:"status"`
}

// ===============================
// FUNCTIONS
// ===============================

// VerifyImageRequest is the verification function body
type VerifyImageRequest struct {
	ImageBase64  string              `json:"imageBase64"`
	ActivityType models.ActivityType `json:"activityType"`
}

// UploadKind selects the upload folder
type UploadKind string

const (
	UploadActivity UploadKind = "activity"
	UploadProof    UploadKind = "proof"
)
