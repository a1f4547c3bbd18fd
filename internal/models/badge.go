package models

import "time"

// BadgeCategory groups badges for display
type BadgeCategory string

const (
	BadgeMilestone       BadgeCategory = "milestone"
	BadgeStreak          BadgeCategory = "streak"
	BadgeCommunityImpact BadgeCategory = "community_impact"
)

// CriteriaType names the aggregate statistic a badge threshold applies to
type CriteriaType string

const (
	CriteriaTotalActivities CriteriaType = "total_activities"
	CriteriaTreePlantations CriteriaType = "tree_plantation_count"
	CriteriaCleanups        CriteriaType = "cleanup_count"
	CriteriaRecycling       CriteriaType = "recycling_count"
	CriteriaEcoHabits       CriteriaType = "eco_habit_count"
	CriteriaWasteKg         CriteriaType = "waste_kg"
	CriteriaStreakDays      CriteriaType = "streak_days"
)

// Badge is an achievement unlocked when a statistic reaches CriteriaValue
type Badge struct {
	ID            string        `json:"id" db:"id"`
	Name          string        `json:"name" db:"name"`
	Description   string        `json:"description" db:"description"`
	Icon          string        `json:"icon" db:"icon"`
	Category      BadgeCategory `json:"category" db:"category"`
	CriteriaType  CriteriaType  `json:"criteria_type" db:"criteria_type"`
	CriteriaValue float64       `json:"criteria_value" db:"criteria_value"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
}

// UserBadge records an unlock. Rows are never removed.
type UserBadge struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	BadgeID    string    `json:"badge_id" db:"badge_id"`
	UnlockedAt time.Time `json:"unlocked_at" db:"unlocked_at"`
}

// Reward is a points-threshold unlockable
type Reward struct {
	ID             string  `json:"id" db:"id"`
	Name           string  `json:"name" db:"name"`
	Description    *string `json:"description,omitempty" db:"description"`
	Icon           string  `json:"icon" db:"icon"`
	PointsRequired int     `json:"points_required" db:"points_required"`
}

// UserReward records a reward unlock
type UserReward struct {
	ID         string    `json:"id" db:"id"`
	UserID     string    `json:"user_id" db:"user_id"`
	RewardID   string    `json:"reward_id" db:"reward_id"`
	UnlockedAt time.Time `json:"unlocked_at" db:"unlocked_at"`
}

// UserStreak tracks consecutive active days
type UserStreak struct {
	ID               string     `json:"id" db:"id"`
	UserID           string     `json:"user_id" db:"user_id"`
	CurrentStreak    int        `json:"current_streak" db:"current_streak"`
	LongestStreak    int        `json:"longest_streak" db:"longest_streak"`
	LastActivityDate *time.Time `json:"last_activity_date,omitempty" db:"last_activity_date"`
}

// LeaderboardEntry is a ranked profile with its badge icons
type LeaderboardEntry struct {
	Rank       int      `json:"rank"`
	UserID     string   `json:"user_id"`
	Name       string   `json:"name"`
	City       *string  `json:"city,omitempty"`
	AvatarURL  *string  `json:"avatar_url,omitempty"`
	Points     int      `json:"points"`
	BadgeIcons []string `json:"badge_icons"`
}
