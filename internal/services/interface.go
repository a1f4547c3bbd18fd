// file: internal/services/interface.go
package services

import (
	"context"
	"mime/multipart"

	"ecotrack/internal/geocoding"
	"ecotrack/internal/models"
	"ecotrack/internal/utils"
	"ecotrack/internal/verification"
)

// ===============================
// CORE SERVICE INTERFACES
// ===============================

// AuthService owns accounts, roles and tokens
type AuthService interface {
	Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error)
	Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error)
	Me(ctx context.Context, userID string) (*MeResponse, error)
	UpdateProfile(ctx context.Context, userID string, req *UpdateProfileRequest) (*models.Profile, error)

	// Google sign-in
	GoogleEnabled() bool
	GoogleLoginURL(state string) (string, error)
	GoogleCallback(ctx context.Context, code string) (*AuthResponse, error)

	// HasRole is an exact match on the user's role row
	HasRole(ctx context.Context, userID string, role models.Role) (bool, error)
	ValidateToken(token string) (*TokenClaims, error)
	// AccountState is cached briefly; middleware calls it on every request
	AccountState(ctx context.Context, userID string) (*AccountState, error)
	SeedAdmin(ctx context.Context, email, password string) error
}

// ActivityService runs the activity review lifecycle
type ActivityService interface {
	Submit(ctx context.Context, userID string, req *SubmitActivityRequest) (*models.Activity, error)
	Approve(ctx context.Context, callerID, activityID string) (*models.Activity, error)
	Reject(ctx context.Context, callerID, activityID string) (*models.Activity, error)

	Get(ctx context.Context, callerID, activityID string) (*models.Activity, error)
	ListMine(ctx context.Context, userID string, limit int) ([]models.Activity, error)
	ListPending(ctx context.Context, callerID string) ([]models.Activity, error)
	ListAll(ctx context.Context, callerID string, params models.PaginationParams) (*models.PaginatedResponse[models.Activity], error)
	Certificate(ctx context.Context, userID, activityID string) (*models.Certificate, error)
}

// EventService manages community events and attendance
type EventService interface {
	Create(ctx context.Context, callerID string, req *CreateEventRequest) (*models.Event, error)
	List(ctx context.Context, callerID string) ([]models.EventSummary, error)
	Get(ctx context.Context, callerID, eventID string) (*models.EventSummary, error)
	Delete(ctx context.Context, callerID, eventID string) error
	CheckinPayload(ctx context.Context, callerID, eventID string) (string, error)

	Join(ctx context.Context, userID, eventID string) error
	Leave(ctx context.Context, userID, eventID string) error

	CheckIn(ctx context.Context, userID string, req *CheckinRequest) (*models.EventCheckin, error)
	CheckinHistory(ctx context.Context, userID string) ([]models.CheckinHistoryItem, error)
	OrganizerDashboard(ctx context.Context, callerID string) (*models.OrganizerStats, error)
}

// CouponService sells partner coupons for points
type CouponService interface {
	List(ctx context.Context, userID string) ([]models.CouponListing, error)
	Mine(ctx context.Context, userID string) ([]models.RedeemedCoupon, error)
	Redeem(ctx context.Context, userID, couponID string) (*RedeemResult, error)

	Create(ctx context.Context, callerID string, req *CreateCouponRequest) (*models.Coupon, error)
	SetActive(ctx context.Context, callerID, couponID string, active bool) (*models.Coupon, error)
}

// GamificationService exposes badges, rewards and rankings
type GamificationService interface {
	Dashboard(ctx context.Context, userID string) (*Dashboard, error)
	NewBadges(ctx context.Context, userID string) ([]models.Badge, error)
	MarkBadgesSeen(ctx context.Context, userID string, badgeIDs []string) error

	ListBadges(ctx context.Context) ([]models.Badge, error)
	ListRewards(ctx context.Context) ([]models.Reward, error)
	Leaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

// OrganizerService handles organizer applications
type OrganizerService interface {
	Submit(ctx context.Context, userID string, req *ApplicationRequest) (*models.OrganizerApplication, error)
	Mine(ctx context.Context, userID string) (*models.OrganizerApplication, error)
	List(ctx context.Context, callerID string, status *models.ApplicationStatus) ([]models.OrganizerApplication, error)
	Approve(ctx context.Context, callerID, applicationID, remarks string) (*models.OrganizerApplication, error)
	Reject(ctx context.Context, callerID, applicationID, remarks string) (*models.OrganizerApplication, error)
}

// AdminService covers account moderation and overview numbers
type AdminService interface {
	ManageUserStatus(ctx context.Context, callerID string, req *ManageUserStatusRequest) error
	Overview(ctx context.Context, callerID string) (*models.AdminOverview, error)
}

// StatsService serves public aggregate numbers
type StatsService interface {
	Landing(ctx context.Context) (*models.LandingStats, error)
}

// ===============================
// INTEGRATION SERVICES
// ===============================

// VerificationService runs advisory image checks. key groups superseding calls.
type VerificationService interface {
	Verify(ctx context.Context, key string, req *VerifyImageRequest) (*verification.Result, error)
}

// GeocodingService resolves places. key groups superseding searches.
type GeocodingService interface {
	Search(ctx context.Context, key, query string, limit int) ([]geocoding.Place, error)
	Reverse(ctx context.Context, lat, lon float64) (*geocoding.Address, error)
}

// FileService stores uploaded images and proofs
type FileService interface {
	Upload(ctx context.Context, userID string, kind UploadKind, file *multipart.FileHeader) (*utils.UploadResult, error)
}

// ===============================
// OUTBOUND DEPENDENCIES
// ===============================

// ImageVerifier is satisfied by *verification.Client
type ImageVerifier interface {
	Enabled() bool
	Verify(ctx context.Context, imageBase64 string, activityType models.ActivityType) (*verification.Result, error)
}

// Geocoder is satisfied by *geocoding.Client
type Geocoder interface {
	Search(ctx context.Context, q string, limit int) ([]geocoding.Place, error)
	Reverse(ctx context.Context, lat, lon float64) (*geocoding.Address, error)
}
