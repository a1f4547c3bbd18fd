package models

import "time"

// Event is an organizer-run gathering that volunteers check in to
type Event struct {
	ID               string       `json:"id" db:"id"`
	Title            string       `json:"title" db:"title"`
	Description      *string      `json:"description,omitempty" db:"description"`
	Location         *string      `json:"location,omitempty" db:"location"`
	Latitude         *float64     `json:"latitude,omitempty" db:"latitude"`
	Longitude        *float64     `json:"longitude,omitempty" db:"longitude"`
	EventDate        time.Time    `json:"event_date" db:"event_date"`
	AttendancePoints int          `json:"attendance_points" db:"attendance_points"`
	EventType        ActivityType `json:"event_type" db:"event_type"`
	CheckinCode      *string      `json:"checkin_code,omitempty" db:"checkin_code"`
	CreatedBy        string       `json:"created_by" db:"created_by"`
	CreatedAt        time.Time    `json:"created_at" db:"created_at"`
}

// Public returns a copy without the check-in secret
func (e Event) Public() Event {
	e.CheckinCode = nil
	return e
}

// EventSummary is an event with membership counts and caller flags
type EventSummary struct {
	Event
	ParticipantCount int  `json:"participant_count"`
	CheckinCount     int  `json:"checkin_count"`
	Joined           bool `json:"joined"`
	CheckedIn        bool `json:"checked_in"`
}

// EventParticipant records that a user joined an event
type EventParticipant struct {
	ID       string    `json:"id" db:"id"`
	EventID  string    `json:"event_id" db:"event_id"`
	UserID   string    `json:"user_id" db:"user_id"`
	JoinedAt time.Time `json:"joined_at" db:"joined_at"`
}

// EventCheckin records attendance and the points it granted
type EventCheckin struct {
	ID            string    `json:"id" db:"id"`
	EventID       string    `json:"event_id" db:"event_id"`
	UserID        string    `json:"user_id" db:"user_id"`
	PointsAwarded int       `json:"points_awarded" db:"points_awarded"`
	CheckedInAt   time.Time `json:"checked_in_at" db:"checked_in_at"`
}

// CheckinHistoryItem is a check-in joined with its event
type CheckinHistoryItem struct {
	EventCheckin
	EventTitle    string    `json:"event_title"`
	EventDate     time.Time `json:"event_date"`
	EventLocation *string   `json:"event_location,omitempty"`
}

// OrganizerStats summarises an organizer's events
type OrganizerStats struct {
	Events            []EventSummary `json:"events"`
	TotalEvents       int            `json:"total_events"`
	TotalParticipants int            `json:"total_participants"`
	TotalCheckins     int            `json:"total_checkins"`
	UpcomingEvents    int            `json:"upcoming_events"`
}
