package gamification

import (
	"math"

	"ecotrack/internal/models"

	"golang.org/x/exp/slices"
)

// Stats are the aggregates badge criteria are measured against
type Stats struct {
	TotalActivities int     `json:"total_activities"`
	TreePlantations int     `json:"tree_plantation_count"`
	Cleanups        int     `json:"cleanup_count"`
	Recycling       int     `json:"recycling_count"`
	EcoHabits       int     `json:"eco_habit_count"`
	WasteKg         float64 `json:"waste_kg"`
	StreakDays      int     `json:"streak_days"`
}

// StatValue selects the statistic named by criteria. Unknown criteria yield 0.
func StatValue(criteria models.CriteriaType, s Stats) float64 {
	switch criteria {
	case models.CriteriaTotalActivities:
		return float64(s.TotalActivities)
	case models.CriteriaTreePlantations:
		return float64(s.TreePlantations)
	case models.CriteriaCleanups:
		return float64(s.Cleanups)
	case models.CriteriaRecycling:
		return float64(s.Recycling)
	case models.CriteriaEcoHabits:
		return float64(s.EcoHabits)
	case models.CriteriaWasteKg:
		return s.WasteKg
	case models.CriteriaStreakDays:
		return float64(s.StreakDays)
	}
	return 0
}

// Progress is value as a percentage of threshold, capped at 100.
// It is not rounded; callers round only for display.
func Progress(value, threshold float64) float64 {
	if threshold <= 0 {
		return 100
	}
	return math.Min(value/threshold*100, 100)
}

// ProgressFor returns the badge's completion percentage for s
func ProgressFor(b models.Badge, s Stats) float64 {
	return Progress(StatValue(b.CriteriaType, s), b.CriteriaValue)
}

// Unlocked reports whether s meets the badge threshold
func Unlocked(b models.Badge, s Stats) bool {
	return StatValue(b.CriteriaType, s) >= b.CriteriaValue
}

// CrossedBadges returns the badges s unlocks that are not in owned
func CrossedBadges(badges []models.Badge, s Stats, owned map[string]bool) []models.Badge {
	var crossed []models.Badge
	for _, b := range badges {
		if !owned[b.ID] && Unlocked(b, s) {
			crossed = append(crossed, b)
		}
	}
	return crossed
}

// ReachedRewards returns the rewards points reach that are not in owned
func ReachedRewards(rewards []models.Reward, points int, owned map[string]bool) []models.Reward {
	var reached []models.Reward
	for _, r := range rewards {
		if !owned[r.ID] && points >= r.PointsRequired {
			reached = append(reached, r)
		}
	}
	return reached
}

// NextReward returns the cheapest reward still above points, or nil when
// every reward has been reached
func NextReward(rewards []models.Reward, points int) *models.Reward {
	var next *models.Reward
	for i := range rewards {
		r := rewards[i]
		if r.PointsRequired <= points {
			continue
		}
		if next == nil || r.PointsRequired < next.PointsRequired {
			next = &r
		}
	}
	return next
}

// RewardProgress is the progress toward the next reward, 100 when none is left
func RewardProgress(rewards []models.Reward, points int) float64 {
	next := NextReward(rewards, points)
	if next == nil {
		return 100
	}
	return Progress(float64(points), float64(next.PointsRequired))
}

// SortRewards orders rewards by threshold, cheapest first
func SortRewards(rewards []models.Reward) {
	slices.SortStableFunc(rewards, func(a, b models.Reward) int {
		return a.PointsRequired - b.PointsRequired
	})
}
