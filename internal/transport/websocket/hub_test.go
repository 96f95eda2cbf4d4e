package websocket

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/iamasit07/blokus-client/internal/service/game"
)

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readJSON(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(v); err != nil {
		t.Fatalf("read: %v", err)
	}
}

func TestHubGreetsAndBroadcasts(t *testing.T) {
	hub := NewHub(nil, func() any { return map[string]string{"state": "joining"} }, zap.NewNop())
	srv := httptest.NewServer(httpHandler(hub))
	defer srv.Close()
	defer hub.Close()

	a, b := dial(t, srv), dial(t, srv)
	for _, conn := range []*websocket.Conn{a, b} {
		var hello map[string]string
		readJSON(t, conn, &hello)
		if hello["state"] != "joining" {
			t.Fatalf("unexpected greeting %v", hello)
		}
	}
	if hub.Clients() != 2 {
		t.Fatalf("hub has %d clients", hub.Clients())
	}

	hub.OnEvent(game.Event{Type: game.EventState, RunID: "run", State: "in_game"})
	for _, conn := range []*websocket.Conn{a, b} {
		var e game.Event
		readJSON(t, conn, &e)
		if e.Type != game.EventState || e.State != "in_game" || e.RunID != "run" {
			t.Fatalf("unexpected event %+v", e)
		}
	}
}

func TestHubCloseDisconnects(t *testing.T) {
	hub := NewHub(nil, func() any { return "hi" }, zap.NewNop())
	srv := httptest.NewServer(httpHandler(hub))
	defer srv.Close()

	conn := dial(t, srv)
	var hello string
	readJSON(t, conn, &hello)

	hub.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Fatalf("connection still open after Close")
	}
	if hub.Clients() != 0 {
		t.Fatalf("hub still has %d clients", hub.Clients())
	}

	// a closed hub refuses newcomers
	late := dial(t, srv)
	late.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := late.ReadMessage(); err == nil {
		t.Fatalf("closed hub accepted a spectator")
	}
}

func TestHubRejectsForeignOrigin(t *testing.T) {
	hub := NewHub([]string{"http://ok.test"}, nil, zap.NewNop())
	srv := httptest.NewServer(httpHandler(hub))
	defer srv.Close()
	defer hub.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	header := map[string][]string{"Origin": {"http://evil.test"}}
	if _, _, err := websocket.DefaultDialer.Dial(url, header); err == nil {
		t.Fatalf("foreign origin accepted")
	}
}

func TestEventJSONShape(t *testing.T) {
	data, err := json.Marshal(game.Event{Type: game.EventFailure, Message: "boom"})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if !strings.Contains(string(data), `"type":"failure"`) || !strings.Contains(string(data), `"message":"boom"`) {
		t.Fatalf("unexpected json %s", data)
	}
}
