// Package live provides WebSocket event broadcasting for real-time feed
// refresh notifications.
package live

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Event kinds pushed to connected feed clients.
const (
	EventFeedRefresh = "feed.refresh"
)

// FeedEvent is the JSON payload pushed to subscribed feed clients.
type FeedEvent struct {
	// Kind is the event type ("feed.refresh").
	Kind string `json:"kind"`

	// ChangedItems is the number of items whose trending state changed.
	ChangedItems int `json:"changed_items"`

	// EmittedAt is when the event was produced.
	EmittedAt time.Time `json:"emitted_at"`
}

// Broadcaster manages WebSocket connections and pushes feed refresh events.
type Broadcaster struct {
	mu          sync.RWMutex
	connections map[*websocket.Conn]bool
	now         func() time.Time
}

// NewBroadcaster creates a new feed event broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		connections: make(map[*websocket.Conn]bool),
		now:         time.Now,
	}
}

// Subscribe registers a WebSocket connection for feed events.
func (b *Broadcaster) Subscribe(conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.connections[conn] = true
}

// Unsubscribe removes a WebSocket connection.
func (b *Broadcaster) Unsubscribe(conn *websocket.Conn) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.connections, conn)
}

// NotifyFeedChanged pushes a feed refresh event to all subscribers. It is
// called by the trending job after a cycle changed item state.
func (b *Broadcaster) NotifyFeedChanged(changed int) {
	b.Broadcast(&FeedEvent{
		Kind:         EventFeedRefresh,
		ChangedItems: changed,
		EmittedAt:    b.now(),
	})
}

// Broadcast sends an event to all subscribed connections.
func (b *Broadcaster) Broadcast(event *FeedEvent) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if len(b.connections) == 0 {
		return
	}

	// Serialize event once
	data, err := json.Marshal(event)
	if err != nil {
		slog.Error("failed to marshal feed event", "error", err)
		return
	}

	for conn := range b.connections {
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			slog.Warn("failed to send feed event to websocket client",
				"error", err,
			)
			// Connection will be cleaned up when the client disconnects
		}
	}
}

// ConnectionCount returns the number of active WebSocket connections.
func (b *Broadcaster) ConnectionCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.connections)
}
