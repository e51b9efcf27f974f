package live

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
)

// dialBroadcaster spins up a test server that subscribes every upgraded
// connection to the broadcaster and returns a connected client.
func dialBroadcaster(t *testing.T, b *Broadcaster) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		b.Subscribe(conn)
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })

	// Wait for the server side to register the subscription.
	deadline := time.Now().Add(time.Second)
	for b.ConnectionCount() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

// TestBroadcasterDeliversFeedEvents verifies subscribers receive refresh
// events with the changed item count.
func TestBroadcasterDeliversFeedEvents(t *testing.T) {
	b := NewBroadcaster()
	conn := dialBroadcaster(t, b)

	b.NotifyFeedChanged(3)

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}

	var event FeedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if event.Kind != EventFeedRefresh {
		t.Errorf("expected kind %q, got %q", EventFeedRefresh, event.Kind)
	}
	if event.ChangedItems != 3 {
		t.Errorf("expected 3 changed items, got %d", event.ChangedItems)
	}
	if event.EmittedAt.IsZero() {
		t.Error("emitted_at not set")
	}
}

// TestBroadcasterUnsubscribe verifies removed connections stop counting.
func TestBroadcasterUnsubscribe(t *testing.T) {
	b := NewBroadcaster()

	upgrader := websocket.Upgrader{}
	connCh := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		b.Subscribe(conn)
		connCh <- conn
	}))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer func() { _ = client.Close() }()

	serverConn := <-connCh
	if b.ConnectionCount() != 1 {
		t.Fatalf("expected 1 connection, got %d", b.ConnectionCount())
	}

	b.Unsubscribe(serverConn)
	if b.ConnectionCount() != 0 {
		t.Errorf("expected 0 connections after unsubscribe, got %d", b.ConnectionCount())
	}
}

// TestBroadcasterNoSubscribers verifies broadcasting into the void is safe.
func TestBroadcasterNoSubscribers(t *testing.T) {
	b := NewBroadcaster()
	b.NotifyFeedChanged(1) // must not panic
	if b.ConnectionCount() != 0 {
		t.Errorf("expected 0 connections, got %d", b.ConnectionCount())
	}
}
