package services

import (
	"context"
	"testing"
	"time"

	"ecotrack/internal/events"
	"ecotrack/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLeaderboard(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	low := env.user("low")
	high := env.user("high")
	env.grant(low, 10)
	env.grant(high, 90)

	board, err := env.sc.GamificationService.Leaderboard(ctx, 0)
	require.NoError(t, err)
	require.Len(t, board, 2)
	assert.Equal(t, high, board[0].UserID)
	assert.Equal(t, 1, board[0].Rank)
	assert.Equal(t, 2, board[1].Rank)
	assert.NotNil(t, board[0].BadgeIcons)
}

func TestDashboardRewards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	citizen := env.user("asha")
	reviewer := env.withRole("org", models.RoleOrganizer)
	env.grant(citizen, 60)

	activity := submit(t, env, citizen, &SubmitActivityRequest{Type: models.ActivityTreePlantation})
	_, err := env.sc.ActivityService.Approve(ctx, reviewer, activity.ID)
	require.NoError(t, err)

	dashboard, err := env.sc.GamificationService.Dashboard(ctx, citizen)
	require.NoError(t, err)
	assert.Equal(t, 110, dashboard.Profile.Points)
	require.NotNil(t, dashboard.NextReward)
	assert.Equal(t, 250, dashboard.NextReward.PointsRequired)
	assert.InDelta(t, 44.0, dashboard.NextRewardProgress, 1e-9)

	require.NotEmpty(t, dashboard.Rewards)
	assert.True(t, dashboard.Rewards[0].Unlocked, "100 point reward reached on approval")
	assert.False(t, dashboard.Rewards[1].Unlocked)

	require.Len(t, dashboard.Monthly, 1)
	assert.Equal(t, 1, dashboard.Monthly[0].Count)
	require.Len(t, dashboard.ByType, 1)
	assert.Equal(t, "Tree Plantation", dashboard.ByType[0].Label)
	assert.Len(t, dashboard.NewBadgeIDs, 1)
}

func TestPointChangesInvalidateLeaderboard(t *testing.T) {
	bus := events.NewInMemoryEventBus(events.DefaultEventBusConfig(), zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))
	t.Cleanup(func() { bus.Stop(context.Background()) })

	env := newTestEnv(t, func(d *Dependencies) { d.EventBus = bus })
	ctx := context.Background()
	citizen := env.user("asha")
	reviewer := env.withRole("org", models.RoleOrganizer)

	_, err := env.sc.GamificationService.Leaderboard(ctx, 10)
	require.NoError(t, err)
	require.True(t, env.cache.Exists(ctx, "leaderboard:10"))

	activity := submit(t, env, citizen, &SubmitActivityRequest{Type: models.ActivityCleanup})
	_, err = env.sc.ActivityService.Approve(ctx, reviewer, activity.ID)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		return !env.cache.Exists(ctx, "leaderboard:10")
	}, 2*time.Second, 10*time.Millisecond)

	board, err := env.sc.GamificationService.Leaderboard(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, citizen, board[0].UserID)
	assert.Equal(t, 30, board[0].Points)
}
