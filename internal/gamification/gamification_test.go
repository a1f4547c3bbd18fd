package gamification

import (
	"testing"
	"time"

	"ecotrack/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func date(month time.Month, day int) time.Time {
	return time.Date(2025, month, day, 15, 30, 0, 0, time.UTC)
}

func TestPointsFor(t *testing.T) {
	tests := []struct {
		activity models.ActivityType
		want     int
	}{
		{models.ActivityTreePlantation, 50},
		{models.ActivityCleanup, 30},
		{models.ActivityRecycling, 20},
		{models.ActivityEcoHabit, 5},
		{models.ActivityType("unknown"), 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.activity), func(t *testing.T) {
			assert.Equal(t, tt.want, PointsFor(tt.activity))
		})
	}
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 0.0, Progress(0, 10))
	assert.InDelta(t, 33.333, Progress(1, 3), 0.001)
	assert.Equal(t, 100.0, Progress(10, 10))
	assert.Equal(t, 100.0, Progress(25, 10))
	assert.Equal(t, 100.0, Progress(3, 0))
}

func TestProgressIsMonotonic(t *testing.T) {
	badge := models.Badge{CriteriaType: models.CriteriaWasteKg, CriteriaValue: 50}
	prev := -1.0
	for kg := 0.0; kg <= 80; kg += 2.5 {
		p := ProgressFor(badge, Stats{WasteKg: kg})
		assert.GreaterOrEqual(t, p, prev)
		assert.LessOrEqual(t, p, 100.0)
		prev = p
	}
}

func TestUnlockedMatchesStatValue(t *testing.T) {
	stats := Stats{
		TotalActivities: 10,
		TreePlantations: 4,
		Cleanups:        5,
		Recycling:       1,
		EcoHabits:       0,
		WasteKg:         49.5,
		StreakDays:      7,
	}

	tests := []struct {
		criteria  models.CriteriaType
		threshold float64
		unlocked  bool
		progress  float64
	}{
		{models.CriteriaTotalActivities, 10, true, 100},
		{models.CriteriaTreePlantations, 5, false, 80},
		{models.CriteriaCleanups, 5, true, 100},
		{models.CriteriaRecycling, 10, false, 10},
		{models.CriteriaEcoHabits, 20, false, 0},
		{models.CriteriaWasteKg, 50, false, 99},
		{models.CriteriaStreakDays, 7, true, 100},
		{models.CriteriaType("mystery"), 1, false, 0},
	}

	for _, tt := range tests {
		t.Run(string(tt.criteria), func(t *testing.T) {
			b := models.Badge{CriteriaType: tt.criteria, CriteriaValue: tt.threshold}
			assert.Equal(t, tt.unlocked, Unlocked(b, stats))
			assert.InDelta(t, tt.progress, ProgressFor(b, stats), 0.0001)
			assert.Equal(t, StatValue(tt.criteria, stats) >= tt.threshold, Unlocked(b, stats))
		})
	}
}

func TestCrossedBadgesSkipsOwned(t *testing.T) {
	badges := []models.Badge{
		{ID: "first", CriteriaType: models.CriteriaTotalActivities, CriteriaValue: 1},
		{ID: "ten", CriteriaType: models.CriteriaTotalActivities, CriteriaValue: 10},
		{ID: "clean", CriteriaType: models.CriteriaCleanups, CriteriaValue: 1},
	}

	crossed := CrossedBadges(badges, Stats{TotalActivities: 1, Cleanups: 1}, map[string]bool{"first": true})
	require.Len(t, crossed, 1)
	assert.Equal(t, "clean", crossed[0].ID)
}

func TestNextReward(t *testing.T) {
	rewards := []models.Reward{
		{ID: "c", PointsRequired: 500},
		{ID: "a", PointsRequired: 100},
		{ID: "b", PointsRequired: 250},
	}

	next := NextReward(rewards, 0)
	require.NotNil(t, next)
	assert.Equal(t, "a", next.ID)

	next = NextReward(rewards, 100)
	require.NotNil(t, next)
	assert.Equal(t, "b", next.ID, "a reward exactly reached is no longer next")

	assert.Nil(t, NextReward(rewards, 500))
	assert.Equal(t, 100.0, RewardProgress(rewards, 900))
	assert.InDelta(t, 60.0, RewardProgress(rewards, 150), 0.0001)
}

func TestReachedRewards(t *testing.T) {
	rewards := []models.Reward{
		{ID: "a", PointsRequired: 100},
		{ID: "b", PointsRequired: 250},
	}
	reached := ReachedRewards(rewards, 260, map[string]bool{"a": true})
	require.Len(t, reached, 1)
	assert.Equal(t, "b", reached[0].ID)
}

func TestSortRewards(t *testing.T) {
	rewards := []models.Reward{{ID: "x", PointsRequired: 300}, {ID: "y", PointsRequired: 50}}
	SortRewards(rewards)
	assert.Equal(t, "y", rewards[0].ID)
}

func TestAdvanceStreak(t *testing.T) {
	jan5 := date(time.January, 5)
	base := models.UserStreak{CurrentStreak: 3, LongestStreak: 3, LastActivityDate: ptr(Day(jan5))}

	t.Run("next day extends", func(t *testing.T) {
		s := AdvanceStreak(base, date(time.January, 6))
		assert.Equal(t, 4, s.CurrentStreak)
		assert.Equal(t, 4, s.LongestStreak)
		assert.Equal(t, Day(date(time.January, 6)), *s.LastActivityDate)
	})

	t.Run("same day unchanged", func(t *testing.T) {
		s := AdvanceStreak(base, jan5.Add(5*time.Hour))
		assert.Equal(t, 3, s.CurrentStreak)
		assert.Equal(t, 3, s.LongestStreak)
	})

	t.Run("gap resets", func(t *testing.T) {
		s := AdvanceStreak(base, date(time.January, 9))
		assert.Equal(t, 1, s.CurrentStreak)
		assert.Equal(t, 3, s.LongestStreak)
		assert.Equal(t, Day(date(time.January, 9)), *s.LastActivityDate)
	})

	t.Run("first activity starts at one", func(t *testing.T) {
		s := AdvanceStreak(models.UserStreak{}, jan5)
		assert.Equal(t, 1, s.CurrentStreak)
		assert.Equal(t, 1, s.LongestStreak)
	})

	t.Run("month boundary", func(t *testing.T) {
		s := models.UserStreak{CurrentStreak: 2, LongestStreak: 5, LastActivityDate: ptr(Day(date(time.January, 31)))}
		s = AdvanceStreak(s, date(time.February, 1))
		assert.Equal(t, 3, s.CurrentStreak)
		assert.Equal(t, 5, s.LongestStreak)
	})

	t.Run("input is not mutated", func(t *testing.T) {
		_ = AdvanceStreak(base, date(time.January, 6))
		assert.Equal(t, 3, base.CurrentStreak)
		assert.Equal(t, Day(jan5), *base.LastActivityDate)
	})
}

func TestAggregateCountsApprovedOnly(t *testing.T) {
	activities := []models.Activity{
		{Type: models.ActivityCleanup, Status: models.ActivityApproved, WasteKg: ptr(5.5), CreatedAt: date(time.January, 3)},
		{Type: models.ActivityCleanup, Status: models.ActivityPending, WasteKg: ptr(10.0), CreatedAt: date(time.January, 4)},
		{Type: models.ActivityTreePlantation, Status: models.ActivityApproved, CreatedAt: date(time.February, 1)},
		{Type: models.ActivityRecycling, Status: models.ActivityRejected, CreatedAt: date(time.February, 2)},
		{Type: models.ActivityEcoHabit, Status: models.ActivityApproved, CreatedAt: date(time.January, 20)},
	}

	stats := Aggregate(activities, 4)
	assert.Equal(t, Stats{
		TotalActivities: 3,
		TreePlantations: 1,
		Cleanups:        1,
		EcoHabits:       1,
		WasteKg:         5.5,
		StreakDays:      4,
	}, stats)

	assert.Equal(t, []MonthPoint{{Month: "Jan", Count: 2}, {Month: "Feb", Count: 1}}, MonthlySeries(activities))

	breakdown := TypeBreakdown(activities)
	require.Len(t, breakdown, 3)
	assert.Equal(t, models.ActivityTreePlantation, breakdown[0].Type)
	assert.Equal(t, "Tree Plantation", breakdown[0].Label)
	assert.Equal(t, 1, breakdown[1].Count)
}

func TestAggregateEmpty(t *testing.T) {
	assert.Equal(t, Stats{}, Aggregate(nil, 0))
	assert.Empty(t, MonthlySeries(nil))
	assert.Empty(t, TypeBreakdown(nil))
}

func TestNewBadges(t *testing.T) {
	assert.Equal(t, []string{"b", "d"}, NewBadges([]string{"a", "b", "c", "d"}, []string{"c", "a"}))
	assert.Equal(t, []string{"a"}, NewBadges([]string{"a", "a"}, nil))
	assert.Empty(t, NewBadges([]string{"a"}, []string{"a"}))
	assert.Empty(t, NewBadges(nil, []string{"a"}))
}
