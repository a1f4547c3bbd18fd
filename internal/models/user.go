package models

import "time"

// Role is a user's application role
type Role string

const (
	RoleCitizen   Role = "citizen"
	RoleOrganizer Role = "organizer"
	RoleAdmin     Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleCitizen, RoleOrganizer, RoleAdmin:
		return true
	}
	return false
}

// CanReview reports whether the role may review activities and manage events
func (r Role) CanReview() bool {
	return r == RoleOrganizer || r == RoleAdmin
}

// AccountStatus is the moderation state of an account
type AccountStatus string

const (
	AccountActive    AccountStatus = "active"
	AccountSuspended AccountStatus = "suspended"
	AccountBanned    AccountStatus = "banned"
)

// Valid reports whether s is a known account status
func (s AccountStatus) Valid() bool {
	switch s {
	case AccountActive, AccountSuspended, AccountBanned:
		return true
	}
	return false
}

// BanDuration is how long authentication is blocked for the status.
// Zero means the ban is lifted.
func (s AccountStatus) BanDuration() time.Duration {
	switch s {
	case AccountBanned:
		return 876600 * time.Hour
	case AccountSuspended:
		return 720 * time.Hour
	}
	return 0
}

// User is an authentication identity
type User struct {
	ID           string     `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	PasswordHash *string    `json:"-" db:"password_hash"`
	BannedUntil  *time.Time `json:"banned_until,omitempty" db:"banned_until"`
	CreatedAt    time.Time  `json:"created_at" db:"created_at"`
}

// IsBanned reports whether the user is blocked at now
func (u *User) IsBanned(now time.Time) bool {
	return u.BannedUntil != nil && u.BannedUntil.After(now)
}

// Profile holds the public, gamified side of a user
type Profile struct {
	ID            string        `json:"id" db:"id"`
	UserID        string        `json:"user_id" db:"user_id"`
	Name          string        `json:"name" db:"name"`
	City          *string       `json:"city,omitempty" db:"city"`
	AvatarURL     *string       `json:"avatar_url,omitempty" db:"avatar_url"`
	Points        int           `json:"points" db:"points"`
	AccountStatus AccountStatus `json:"account_status" db:"account_status"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// UserRole assigns a role to a user
type UserRole struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"user_id" db:"user_id"`
	Role   Role   `json:"role" db:"role"`
}

// UserSummary is a profile joined with its identity and role, used by admin listings
type UserSummary struct {
	Profile
	Email string `json:"email"`
	Role  Role   `json:"role"`
}
