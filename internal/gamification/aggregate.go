package gamification

import "ecotrack/internal/models"

// MonthPoint is one bar of the monthly activity chart
type MonthPoint struct {
	Month string `json:"month"`
	Count int    `json:"count"`
}

// TypePoint is one slice of the activity type breakdown
type TypePoint struct {
	Type  models.ActivityType `json:"type"`
	Label string              `json:"label"`
	Count int                 `json:"count"`
}

// Aggregate computes badge statistics from a user's activities. Only approved
// activities count.
func Aggregate(activities []models.Activity, streakDays int) Stats {
	s := Stats{StreakDays: streakDays}
	for _, a := range activities {
		if a.Status != models.ActivityApproved {
			continue
		}
		s.TotalActivities++
		switch a.Type {
		case models.ActivityTreePlantation:
			s.TreePlantations++
		case models.ActivityCleanup:
			s.Cleanups++
		case models.ActivityRecycling:
			s.Recycling++
		case models.ActivityEcoHabit:
			s.EcoHabits++
		}
		if a.WasteKg != nil {
			s.WasteKg += *a.WasteKg
		}
	}
	return s
}

// MonthlySeries counts approved activities per calendar month, in the order
// months are first seen
func MonthlySeries(activities []models.Activity) []MonthPoint {
	series := []MonthPoint{}
	index := make(map[string]int)
	for _, a := range activities {
		if a.Status != models.ActivityApproved {
			continue
		}
		month := a.CreatedAt.UTC().Format("Jan")
		i, ok := index[month]
		if !ok {
			i = len(series)
			index[month] = i
			series = append(series, MonthPoint{Month: month})
		}
		series[i].Count++
	}
	return series
}

// TypeBreakdown counts approved activities per type, omitting empty types
func TypeBreakdown(activities []models.Activity) []TypePoint {
	counts := make(map[models.ActivityType]int)
	for _, a := range activities {
		if a.Status == models.ActivityApproved {
			counts[a.Type]++
		}
	}

	breakdown := []TypePoint{}
	for _, t := range models.ActivityTypes {
		if counts[t] == 0 {
			continue
		}
		breakdown = append(breakdown, TypePoint{Type: t, Label: t.Label(), Count: counts[t]})
	}
	return breakdown
}
