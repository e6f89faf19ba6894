package api

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quantumlife/lifedesk/internal/calendar"
)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

func (c fixedClock) NewTicker(d time.Duration) calendar.Ticker {
	return calendar.SystemClock{}.NewTicker(d)
}

// dialHub connects a websocket client and waits for the hub to register it.
func dialHub(t *testing.T, srv *Server) *websocket.Conn {
	t.Helper()

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	deadline := time.Now().Add(2 * time.Second)
	for srv.wsHub.ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) WebSocketMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var msg WebSocketMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return msg
}

func TestWebSocket_Broadcast(t *testing.T) {
	srv, _ := testServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.wsHub.Run(ctx)

	conn := dialHub(t, srv)

	do(t, srv, "POST", "/api/v1/calendar/granularity", `{"granularity":"day"}`)

	msg := readMessage(t, conn)
	if msg.Type != "calendar.state" {
		t.Fatalf("Type = %q, want calendar.state", msg.Type)
	}
	data, _ := msg.Data.(map[string]interface{})
	if data["title"] != "Thursday, March 14, 2024" {
		t.Errorf("title = %v", data["title"])
	}
}

func TestWebSocket_NowTick(t *testing.T) {
	srv, _ := testServer(t)
	srv.nowIndicator = calendar.NewNowIndicator(fixedClock{fixedNow}, time.Second)
	srv.nowIndicator.Refresh()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go srv.wsHub.Run(ctx)

	conn := dialHub(t, srv)
	go srv.forwardNow(ctx)

	msg := readMessage(t, conn)
	if msg.Type != "now.tick" {
		t.Fatalf("Type = %q, want now.tick", msg.Type)
	}
	data, _ := msg.Data.(map[string]interface{})
	if data["hour"] != float64(10) || data["minute"] != float64(0) {
		t.Errorf("tick = %v, want 10:00", data)
	}
	if data["px"] != float64(480) {
		t.Errorf("px = %v, want 480", data["px"])
	}
}

func TestNowTick(t *testing.T) {
	srv, _ := testServer(t)

	tests := []struct {
		name string
		at   time.Time
		px   float64
	}{
		{"midnight", time.Date(2024, 3, 14, 0, 0, 0, 0, time.Local), 0},
		{"quarter past nine", time.Date(2024, 3, 14, 9, 15, 0, 0, time.Local), 444},
		{"evening", time.Date(2024, 3, 14, 18, 45, 0, 0, time.Local), 900},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tick := srv.nowTick(tt.at)
			if tick.Px != tt.px {
				t.Errorf("Px = %v, want %v", tick.Px, tt.px)
			}
			if tick.Hour != tt.at.Hour() || tick.Minute != tt.at.Minute() {
				t.Errorf("tick = %02d:%02d, want %s", tick.Hour, tick.Minute, tt.at.Format("15:04"))
			}
		})
	}
}

func TestWebSocketHub_BroadcastWithoutClients(t *testing.T) {
	hub := NewWebSocketHub()
	for i := 0; i < 100; i++ {
		hub.Broadcast(WebSocketMessage{Type: "noop"})
	}
	if hub.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0", hub.ClientCount())
	}
}
