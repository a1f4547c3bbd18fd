package models

// LandingStats are the public headline numbers
type LandingStats struct {
	ApprovedActivities int64   `json:"approved_activities"`
	Volunteers         int64   `json:"volunteers"`
	Events             int64   `json:"events"`
	TreesPlanted       int64   `json:"trees_planted"`
	WasteCollectedKg   float64 `json:"waste_collected_kg"`
}

// ActivityCounts breaks activities down by status and type
type ActivityCounts struct {
	ByStatus map[ActivityStatus]int64 `json:"by_status"`
	ByType   map[ActivityType]int64   `json:"by_type"`
}

// AdminOverview is the moderation dashboard payload
type AdminOverview struct {
	Users       []UserSummary  `json:"users"`
	TotalUsers  int            `json:"total_users"`
	TotalPoints int64          `json:"total_points"`
	Activities  ActivityCounts `json:"activities"`
	Events      []EventSummary `json:"events"`
}
