package models

import "time"

// ActivityType is the kind of eco-activity a citizen logs
type ActivityType string

const (
	ActivityTreePlantation ActivityType = "tree_plantation"
	ActivityCleanup        ActivityType = "cleanup"
	ActivityRecycling      ActivityType = "recycling"
	ActivityEcoHabit       ActivityType = "eco_habit"
)

// ActivityTypes lists every activity type in display order
var ActivityTypes = []ActivityType{
	ActivityTreePlantation,
	ActivityCleanup,
	ActivityRecycling,
	ActivityEcoHabit,
}

// Valid reports whether t is a known activity type
func (t ActivityType) Valid() bool {
	switch t {
	case ActivityTreePlantation, ActivityCleanup, ActivityRecycling, ActivityEcoHabit:
		return true
	}
	return false
}

// Label is the human readable name
func (t ActivityType) Label() string {
	switch t {
	case ActivityTreePlantation:
		return "Tree Plantation"
	case ActivityCleanup:
		return "Cleanup Drive"
	case ActivityRecycling:
		return "Recycling"
	case ActivityEcoHabit:
		return "Eco-Friendly Habit"
	}
	return string(t)
}

// ActivityStatus is the review state of an activity
type ActivityStatus string

const (
	ActivityPending  ActivityStatus = "pending"
	ActivityApproved ActivityStatus = "approved"
	ActivityRejected ActivityStatus = "rejected"
)

// Activity is a citizen-submitted eco action awaiting or past review
type Activity struct {
	ID            string         `json:"id" db:"id"`
	UserID        string         `json:"user_id" db:"user_id"`
	Type          ActivityType   `json:"type" db:"type"`
	Description   *string        `json:"description,omitempty" db:"description"`
	ImageURL      *string        `json:"image_url,omitempty" db:"image_url"`
	WasteKg       *float64       `json:"waste_kg,omitempty" db:"waste_kg"`
	Latitude      *float64       `json:"latitude,omitempty" db:"latitude"`
	Longitude     *float64       `json:"longitude,omitempty" db:"longitude"`
	Status        ActivityStatus `json:"status" db:"status"`
	PointsAwarded int            `json:"points_awarded" db:"points_awarded"`
	ReviewedBy    *string        `json:"reviewed_by,omitempty" db:"reviewed_by"`
	CreatedAt     time.Time      `json:"created_at" db:"created_at"`

	SubmitterName string `json:"submitter_name,omitempty" db:"-"`
}

// IsTerminal reports whether the activity has left the pending state
func (a *Activity) IsTerminal() bool {
	return a.Status != ActivityPending
}

// Certificate is the data rendered on an activity certificate
type Certificate struct {
	CertificateNumber string       `json:"certificate_number"`
	RecipientName     string       `json:"recipient_name"`
	ActivityID        string       `json:"activity_id"`
	ActivityType      ActivityType `json:"activity_type"`
	ActivityLabel     string       `json:"activity_label"`
	Points            int          `json:"points"`
	WasteKg           *float64     `json:"waste_kg,omitempty"`
	IssuedFor         time.Time    `json:"issued_for"`
}
