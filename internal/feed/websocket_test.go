package feed

import (
	"context"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Raghuak/algo-trading-ui/internal/models"
)

func TestReconnectDelayRanges(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		attempt int
		min     time.Duration
		max     time.Duration // exclusive
	}{
		{0, 500 * time.Millisecond, 800 * time.Millisecond},
		{1, 1000 * time.Millisecond, 1300 * time.Millisecond},
		{2, 2000 * time.Millisecond, 2300 * time.Millisecond},
		{3, 4000 * time.Millisecond, 4300 * time.Millisecond},
	}

	for _, tt := range tests {
		for i := 0; i < 50; i++ {
			got := ReconnectDelay(tt.attempt, rng)
			if got < tt.min || got >= tt.max {
				t.Fatalf("ReconnectDelay(%d) = %v, want [%v, %v)",
					tt.attempt, got, tt.min, tt.max)
			}
		}
	}
}

func TestReconnectDelayCapped(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	for _, attempt := range []int{10, 20, 63, 1000} {
		got := ReconnectDelay(attempt, rng)
		if got != 30*time.Second {
			t.Errorf("ReconnectDelay(%d) = %v, want 30s", attempt, got)
		}
	}
}

var testUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// wsTestServer serves each websocket connection with serve.
func wsTestServer(t *testing.T, serve func(conn *websocket.Conn)) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		serve(conn)
	}))
	t.Cleanup(srv.Close)
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func TestWebsocketFeedDeliversFrames(t *testing.T) {
	url := wsTestServer(t, func(conn *websocket.Conn) {
		conn.WriteMessage(websocket.TextMessage, []byte(`{"instrument":"NIFTY","price":22450.5,"ts":1700000000000}`))
		conn.WriteMessage(websocket.TextMessage, []byte(`not json at all`))
		// Hold the connection open until the client goes away.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	})

	opened := make(chan struct{}, 1)
	messages := make(chan any, 16)
	closed := make(chan struct{}, 1)

	f := NewWebsocketFeed(WebsocketConfig{Endpoint: url}, Handlers{
		OnOpen:    func() { opened <- struct{}{} },
		OnMessage: func(raw any) { messages <- raw },
		OnClosed:  func() { closed <- struct{}{} },
	})

	if err := f.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer f.Stop()

	select {
	case <-opened:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for open")
	}

	// First frame decodes to a JSON object.
	select {
	case raw := <-messages:
		m, ok := raw.(map[string]any)
		if !ok {
			t.Fatalf("first message = %T, want map", raw)
		}
		if m["instrument"] != "NIFTY" {
			t.Errorf("instrument = %v", m["instrument"])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first frame")
	}

	// Second frame fails to decode and passes through raw.
	select {
	case raw := <-messages:
		s, ok := raw.(string)
		if !ok || s != "not json at all" {
			t.Errorf("second message = %#v, want raw string", raw)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for raw frame")
	}

	f.Stop()
	select {
	case <-closed:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for close")
	}
	if f.State() != models.StateDisconnected {
		t.Errorf("State() = %v after Stop", f.State())
	}
}

func TestWebsocketFeedReconnectsOnConnectionLoss(t *testing.T) {
	url := wsTestServer(t, func(conn *websocket.Conn) {
		// Drop the connection immediately after a frame.
		conn.WriteMessage(websocket.TextMessage, []byte(`{"instrument":"NIFTY","price":1.0,"ts":1.0}`))
	})

	reconnects := make(chan int, 8)
	opens := make(chan struct{}, 8)

	f := NewWebsocketFeed(WebsocketConfig{Endpoint: url}, Handlers{
		OnOpen: func() { opens <- struct{}{} },
		OnReconnecting: func(attempt int, delay time.Duration) {
			if delay < 500*time.Millisecond || delay >= 30*time.Second {
				t.Errorf("reconnect delay %v out of range", delay)
			}
			reconnects <- attempt
		},
	})

	if err := f.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer f.Stop()

	select {
	case <-opens:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for first open")
	}

	select {
	case attempt := <-reconnects:
		if attempt != 1 {
			t.Errorf("first reconnect attempt = %d, want 1", attempt)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for reconnect")
	}

	// A successful reconnection resets the attempt counter.
	select {
	case <-opens:
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for reconnected open")
	}
}

func TestStopDuringDialSuppressesDelivery(t *testing.T) {
	dialing := make(chan struct{}, 1)
	release := make(chan struct{})

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case dialing <- struct{}{}:
		default:
		}
		// Hold the handshake so the dial is still in flight when the
		// client tears down.
		<-release
		conn, err := testUpgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		conn.WriteMessage(websocket.TextMessage, []byte(`{"instrument":"NIFTY","price":1.0,"ts":1.0}`))
		time.Sleep(200 * time.Millisecond)
	}))
	t.Cleanup(srv.Close)
	url := "ws" + strings.TrimPrefix(srv.URL, "http")

	opened := make(chan struct{}, 1)
	messages := make(chan any, 4)

	f := NewWebsocketFeed(WebsocketConfig{Endpoint: url}, Handlers{
		OnOpen:    func() { opened <- struct{}{} },
		OnMessage: func(raw any) { messages <- raw },
	})
	if err := f.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-dialing:
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for the dial to reach the server")
	}
	f.Stop()
	close(release)

	select {
	case <-opened:
		t.Fatal("OnOpen fired after Stop")
	case raw := <-messages:
		t.Fatalf("frame %v delivered after Stop", raw)
	case <-time.After(400 * time.Millisecond):
	}
	if f.State() != models.StateDisconnected {
		t.Errorf("State() = %v after Stop", f.State())
	}
}

func TestWebsocketFeedHeartbeat(t *testing.T) {
	pings := make(chan map[string]any, 4)
	url := wsTestServer(t, func(conn *websocket.Conn) {
		for {
			var m map[string]any
			if err := conn.ReadJSON(&m); err != nil {
				return
			}
			pings <- m
		}
	})

	f := NewWebsocketFeed(WebsocketConfig{
		Endpoint:          url,
		HeartbeatInterval: 20 * time.Millisecond,
	}, Handlers{})
	if err := f.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer f.Stop()

	select {
	case m := <-pings:
		if m["type"] != "ping" {
			t.Errorf(`ping type = %v, want "ping"`, m["type"])
		}
		if _, ok := m["ts"].(float64); !ok {
			t.Errorf("ping ts = %#v, want a numeric timestamp", m["ts"])
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no keep-alive frame reached the server")
	}
}

func TestWebsocketFeedStopIdempotent(t *testing.T) {
	f := NewWebsocketFeed(WebsocketConfig{Endpoint: "ws://127.0.0.1:1/nowhere"}, Handlers{})
	if err := f.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	f.Stop()
	f.Stop()
	f.Stop()
}
