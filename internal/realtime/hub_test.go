package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ecotrack/internal/events"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func dial(t *testing.T, hub *Hub, userID string) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, userID)
	}))
	t.Cleanup(server.Close)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	require.Eventually(t, func() bool { return hub.Connections(userID) == 1 }, time.Second, 10*time.Millisecond)
	return conn
}

func TestPublishedEventReachesOwner(t *testing.T) {
	hub := NewHub("*", zap.NewNop())
	bus := events.NewInMemoryEventBus(nil, zap.NewNop())
	require.NoError(t, hub.Subscribe(bus))

	conn := dial(t, hub, "user-1")

	event := &events.BadgeUnlockedEvent{
		BaseEvent: events.NewBaseEvent(events.BadgeUnlocked, "user-1"),
		BadgeID:   "b1",
		BadgeName: "First Step",
	}
	require.NoError(t, bus.Publish(context.Background(), event))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)

	var msg struct {
		Type string                 `json:"type"`
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(payload, &msg))
	assert.Equal(t, events.BadgeUnlocked, msg.Type)
	assert.Equal(t, "First Step", msg.Data["badge_name"])
}

func TestSendToUserSkipsOtherUsers(t *testing.T) {
	hub := NewHub("*", zap.NewNop())
	conn := dial(t, hub, "user-2")

	hub.SendToUser("someone-else", Message{Type: "ping"})
	hub.SendToUser("user-2", Message{Type: "mine"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	assert.Contains(t, string(payload), `"mine"`)
}

func TestCloseDisconnectsClients(t *testing.T) {
	hub := NewHub("*", zap.NewNop())
	conn := dial(t, hub, "user-3")

	require.NoError(t, hub.Close(context.Background()))
	assert.Equal(t, 0, hub.Connections("user-3"))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
