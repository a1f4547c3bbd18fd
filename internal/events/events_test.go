package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPublishRunsTypeAndPatternHandlers(t *testing.T) {
	bus := NewInMemoryEventBus(nil, zap.NewNop())
	var got []string

	require.NoError(t, bus.Subscribe(BadgeUnlocked, NewEventHandlerFunc("exact", func(ctx context.Context, e Event) error {
		got = append(got, "exact")
		return nil
	})))
	require.NoError(t, bus.SubscribePattern("badge.*", NewEventHandlerFunc("prefix", func(ctx context.Context, e Event) error {
		got = append(got, "prefix")
		return nil
	})))
	require.NoError(t, bus.SubscribePattern("coupon.*", NewEventHandlerFunc("other", func(ctx context.Context, e Event) error {
		got = append(got, "other")
		return nil
	})))

	event := &BadgeUnlockedEvent{BaseEvent: NewBaseEvent(BadgeUnlocked, "u1"), BadgeID: "b1"}
	require.NoError(t, bus.Publish(context.Background(), event))

	assert.ElementsMatch(t, []string{"exact", "prefix"}, got)
	assert.Equal(t, "u1", event.GetUserID())
	assert.NotEmpty(t, event.GetEventID())
}

func TestPublishRecoversFromPanickingHandler(t *testing.T) {
	bus := NewInMemoryEventBus(nil, zap.NewNop())
	require.NoError(t, bus.Subscribe(CouponRedeemed, NewEventHandlerFunc("panics", func(ctx context.Context, e Event) error {
		panic("boom")
	})))

	err := bus.Publish(context.Background(), &CouponRedeemedEvent{BaseEvent: NewBaseEvent(CouponRedeemed, "u1")})
	assert.Error(t, err)
	assert.Equal(t, int64(1), bus.Stats().EventsFailed)
}

func TestPublishAsyncOutlivesCallerContext(t *testing.T) {
	bus := NewInMemoryEventBus(&EventBusConfig{BufferSize: 10, WorkerCount: 2, HandlerTimeout: time.Second}, zap.NewNop())
	require.NoError(t, bus.Start(context.Background()))

	var wg sync.WaitGroup
	wg.Add(1)
	var handlerErr error
	require.NoError(t, bus.Subscribe(EventCheckedIn, NewEventHandlerFunc("ctx", func(ctx context.Context, e Event) error {
		defer wg.Done()
		handlerErr = ctx.Err()
		return nil
	})))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, bus.PublishAsync(ctx, &CheckedInEvent{BaseEvent: NewBaseEvent(EventCheckedIn, "u1")}))
	cancel()
	wg.Wait()

	assert.NoError(t, handlerErr)

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	require.NoError(t, bus.Stop(stopCtx))
	assert.Error(t, bus.Health())
	assert.Error(t, bus.PublishAsync(context.Background(), &CheckedInEvent{BaseEvent: NewBaseEvent(EventCheckedIn, "u1")}))
}

func TestPublishReportsHandlerErrors(t *testing.T) {
	bus := NewInMemoryEventBus(nil, zap.NewNop())
	require.NoError(t, bus.Subscribe(ActivityApproved, NewEventHandlerFunc("fails", func(ctx context.Context, e Event) error {
		return errors.New("nope")
	})))

	err := bus.Publish(context.Background(), &ActivityReviewedEvent{BaseEvent: NewBaseEvent(ActivityApproved, "u1")})
	assert.ErrorContains(t, err, "1 out of 1")
}

func TestMatchesPattern(t *testing.T) {
	assert.True(t, matchesPattern("activity.approved", "*"))
	assert.True(t, matchesPattern("activity.approved", "activity.*"))
	assert.False(t, matchesPattern("activity.approved", "badge.*"))
	assert.True(t, matchesPattern("coupon.redeemed", "coupon.redeemed"))
}
