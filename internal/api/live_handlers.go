package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/croftwell/adaptivefeed/internal/live"
)

var feedUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin filtering is handled by the CORS middleware layer.
		return true
	},
}

// LiveHandlers serves the live feed event stream.
type LiveHandlers struct {
	broadcaster *live.Broadcaster
	logger      *slog.Logger
}

// NewLiveHandlers creates live feed handlers attached to the broadcaster.
func NewLiveHandlers(broadcaster *live.Broadcaster, logger *slog.Logger) *LiveHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &LiveHandlers{broadcaster: broadcaster, logger: logger}
}

// FeedEvents handles GET /feed/live.
//
// Upgrades to WebSocket and streams feed refresh events until the client
// disconnects. The stream is push-only: inbound frames are read and dropped
// so close and ping control frames are still processed.
func (h *LiveHandlers) FeedEvents(w http.ResponseWriter, r *http.Request) {
	conn, err := feedUpgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.WarnContext(r.Context(), "websocket upgrade failed", "error", err)
		return
	}

	h.broadcaster.Subscribe(conn)
	defer func() {
		h.broadcaster.Unsubscribe(conn)
		_ = conn.Close()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.DebugContext(r.Context(), "websocket client disconnected", "error", err)
			}
			return
		}
	}
}
