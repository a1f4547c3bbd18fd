package realtime

import (
	"context"

	"ecotrack/internal/events"
)

// Subscribe forwards user-facing domain events to their owners' sockets
func (h *Hub) Subscribe(bus events.EventBus) error {
	types := []string{
		events.BadgeUnlocked,
		events.ActivityApproved,
		events.ActivityRejected,
		events.EventCheckedIn,
		events.CouponRedeemed,
		events.OrganizerApproved,
		events.OrganizerRejected,
		events.AccountStatusChanged,
	}

	handler := events.NewEventHandlerFunc("realtime-push", func(ctx context.Context, e events.Event) error {
		if userID := e.GetUserID(); userID != "" {
			h.SendToUser(userID, Message{Type: e.GetEventType(), Data: e})
		}
		return nil
	})

	for _, t := range types {
		if err := bus.Subscribe(t, handler); err != nil {
			return err
		}
	}
	return nil
}
