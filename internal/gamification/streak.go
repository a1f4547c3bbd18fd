package gamification

import (
	"time"

	"ecotrack/internal/models"
)

// Day truncates t to its UTC calendar day
func Day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// AdvanceStreak applies an activity on day to s and returns the updated streak.
// The same day leaves the count alone, the following day extends it and
// anything else starts a new run.
func AdvanceStreak(s models.UserStreak, day time.Time) models.UserStreak {
	day = Day(day)

	switch {
	case s.LastActivityDate == nil:
		s.CurrentStreak = 1
	case Day(*s.LastActivityDate).Equal(day):
		if s.CurrentStreak == 0 {
			s.CurrentStreak = 1
		}
	case Day(*s.LastActivityDate).AddDate(0, 0, 1).Equal(day):
		s.CurrentStreak++
	default:
		s.CurrentStreak = 1
	}

	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	s.LastActivityDate = &day
	return s
}
