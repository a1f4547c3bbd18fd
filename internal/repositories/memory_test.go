package repositories

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ecotrack/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestCollection(t *testing.T) *Collection {
	t.Helper()
	return NewMemoryCollection(zap.NewNop())
}

func createUser(t *testing.T, c *Collection, email string) string {
	t.Helper()
	ctx := context.Background()
	user := &models.User{Email: email}
	require.NoError(t, c.User.Create(ctx, user))
	require.NoError(t, c.Profile.Create(ctx, &models.Profile{UserID: user.ID, Name: email}))
	return user.ID
}

func TestMemoryUserEmailIsUniqueAndCaseInsensitive(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()

	require.NoError(t, c.User.Create(ctx, &models.User{Email: "Ana@Example.com"}))
	err := c.User.Create(ctx, &models.User{Email: "ana@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)

	u, err := c.User.GetByEmail(ctx, "ANA@example.com")
	require.NoError(t, err)
	require.NotNil(t, u)
	assert.Equal(t, "ana@example.com", u.Email)

	missing, err := c.User.GetByEmail(ctx, "nobody@example.com")
	assert.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryTransactionRollsBackOnError(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()
	userID := createUser(t, c, "roll@example.com")

	boom := errors.New("boom")
	err := c.WithTransaction(ctx, func(tx *Collection) error {
		if _, err := tx.Profile.AddPoints(ctx, userID, 40); err != nil {
			return err
		}
		if err := tx.Activity.Create(ctx, &models.Activity{UserID: userID, Type: models.ActivityCleanup}); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	p, err := c.Profile.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 0, p.Points)

	activities, err := c.Activity.ListByUser(ctx, userID, 0)
	require.NoError(t, err)
	assert.Empty(t, activities)
}

func TestMemoryTransactionCommits(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()
	userID := createUser(t, c, "commit@example.com")

	err := c.WithTransaction(ctx, func(tx *Collection) error {
		// nested calls join the outer transaction instead of deadlocking
		return tx.WithTransaction(ctx, func(inner *Collection) error {
			_, err := inner.Profile.AddPoints(ctx, userID, 25)
			return err
		})
	})
	require.NoError(t, err)

	p, err := c.Profile.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 25, p.Points)
}

func TestMemoryTransactionsAreSerialised(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()
	userID := createUser(t, c, "race@example.com")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = c.WithTransaction(ctx, func(tx *Collection) error {
				if _, err := tx.Profile.GetByUserIDForUpdate(ctx, userID); err != nil {
					return err
				}
				_, err := tx.Profile.AddPoints(ctx, userID, 1)
				return err
			})
		}()
	}
	wg.Wait()

	p, err := c.Profile.GetByUserID(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 50, p.Points)
}

func TestMemoryActivitiesNewestFirst(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()
	userID := createUser(t, c, "list@example.com")

	for _, activityType := range []models.ActivityType{models.ActivityCleanup, models.ActivityRecycling, models.ActivityEcoHabit} {
		require.NoError(t, c.Activity.Create(ctx, &models.Activity{UserID: userID, Type: activityType}))
	}

	activities, err := c.Activity.ListByUser(ctx, userID, 2)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Equal(t, models.ActivityEcoHabit, activities[0].Type)
	assert.Equal(t, models.ActivityRecycling, activities[1].Type)

	pending, err := c.Activity.ListByStatus(ctx, models.ActivityPending, 0)
	require.NoError(t, err)
	require.Len(t, pending, 3)
	assert.Equal(t, "list@example.com", pending[0].SubmitterName)

	page, total, err := c.Activity.List(ctx, models.PaginationParams{Limit: 2, Offset: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page, 1)
	assert.Equal(t, models.ActivityCleanup, page[0].Type)
}

func TestMemoryEventMembership(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()
	organizer := createUser(t, c, "org@example.com")
	volunteer := createUser(t, c, "vol@example.com")

	later := &models.Event{Title: "Later", EventDate: time.Now().Add(48 * time.Hour), CreatedBy: organizer}
	sooner := &models.Event{Title: "Sooner", EventDate: time.Now().Add(24 * time.Hour), CreatedBy: organizer}
	require.NoError(t, c.Event.Create(ctx, later))
	require.NoError(t, c.Event.Create(ctx, sooner))

	require.NoError(t, c.Event.AddParticipant(ctx, later.ID, volunteer))
	assert.ErrorIs(t, c.Event.AddParticipant(ctx, later.ID, volunteer), ErrDuplicate)
	require.NoError(t, c.Event.CreateCheckin(ctx, &models.EventCheckin{EventID: later.ID, UserID: volunteer, PointsAwarded: 25}))
	assert.ErrorIs(t, c.Event.CreateCheckin(ctx, &models.EventCheckin{EventID: later.ID, UserID: volunteer}), ErrDuplicate)

	events, err := c.Event.List(ctx)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, "Sooner", events[0].Title)
	assert.Equal(t, 1, events[1].ParticipantCount)
	assert.Equal(t, 1, events[1].CheckinCount)

	history, err := c.Event.CheckinsByUser(ctx, volunteer)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "Later", history[0].EventTitle)

	require.NoError(t, c.Event.Delete(ctx, later.ID))
	checkin, err := c.Event.GetCheckin(ctx, later.ID, volunteer)
	require.NoError(t, err)
	assert.Nil(t, checkin)
	assert.ErrorIs(t, c.Event.Delete(ctx, later.ID), ErrNotFound)
}

func TestMemoryAwardsAreAppendOnce(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()
	userID := createUser(t, c, "badges@example.com")

	badges, err := c.Gamification.ListBadges(ctx)
	require.NoError(t, err)
	require.Len(t, badges, 11)
	assert.Equal(t, models.BadgeMilestone, badges[0].Category)

	inserted, err := c.Gamification.AwardBadge(ctx, userID, badges[0].ID)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = c.Gamification.AwardBadge(ctx, userID, badges[0].ID)
	require.NoError(t, err)
	assert.False(t, inserted)

	icons, err := c.Gamification.BadgeIconsByUser(ctx, []string{userID})
	require.NoError(t, err)
	assert.Equal(t, []string{badges[0].Icon}, icons[userID])

	rewards, err := c.Gamification.ListRewards(ctx)
	require.NoError(t, err)
	require.Len(t, rewards, 4)
	assert.Equal(t, 100, rewards[0].PointsRequired)
}

func TestMemoryPendingApplicationIsUnique(t *testing.T) {
	c := newTestCollection(t)
	ctx := context.Background()
	userID := createUser(t, c, "apply@example.com")

	app := &models.OrganizerApplication{UserID: userID, OrganizationName: "Green Org"}
	require.NoError(t, c.Application.Create(ctx, app))
	assert.ErrorIs(t, c.Application.Create(ctx, &models.OrganizerApplication{UserID: userID}), ErrDuplicate)

	app.Status = models.ApplicationRejected
	require.NoError(t, c.Application.UpdateReview(ctx, app))
	require.NoError(t, c.Application.Create(ctx, &models.OrganizerApplication{UserID: userID, OrganizationName: "Again"}))

	latest, err := c.Application.LatestByUser(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, "Again", latest.OrganizationName)

	pending := models.ApplicationPending
	apps, err := c.Application.List(ctx, &pending)
	require.NoError(t, err)
	assert.Len(t, apps, 1)
}

func TestNewCollectionForProvider(t *testing.T) {
	c, err := NewCollectionForProvider(ProviderMemory, nil, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, ProviderMemory, c.Provider())
	assert.Equal(t, "healthy", c.HealthCheck(context.Background())["status"])

	_, err = NewCollectionForProvider("sqlite", nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewCollectionForProvider(ProviderPostgres, nil, zap.NewNop())
	assert.Error(t, err)
}
