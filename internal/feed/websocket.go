package feed

import (
	"context"
	"encoding/json"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Raghuak/algo-trading-ui/internal/models"
)

const (
	defaultHeartbeat = 15 * time.Second

	backoffBase   = 500 * time.Millisecond
	backoffJitter = 300 * time.Millisecond
	backoffCap    = 30 * time.Second
)

// ReconnectDelay computes the backoff delay before reconnect attempt
// number attempt (0-based): min(30s, 2^attempt * 500ms + jitter). The
// jitter spreads reconnects across clients so a flapping endpoint does
// not see a thundering herd. Attempts are unbounded; only the delay is
// capped.
func ReconnectDelay(attempt int, rng *rand.Rand) time.Duration {
	backoff := float64(backoffBase) * math.Pow(2, float64(attempt))
	if backoff > float64(backoffCap) {
		backoff = float64(backoffCap)
	}
	jitter := time.Duration(rng.Int63n(int64(backoffJitter)))
	delay := time.Duration(backoff) + jitter
	if delay > backoffCap {
		delay = backoffCap
	}
	return delay
}

// WebsocketFeed streams frames from a live websocket endpoint. It owns
// the connection lifecycle: a heartbeat while open, and an indefinite
// reconnect loop with capped exponential backoff on connection loss.
type WebsocketFeed struct {
	url       string
	heartbeat time.Duration
	handlers  Handlers
	rng       *rand.Rand

	mu      sync.Mutex
	conn    *websocket.Conn
	state   models.ConnectionState
	attempt int
	started bool
	stopped bool
	stopCh  chan struct{}
}

// WebsocketConfig holds configuration for the live feed.
type WebsocketConfig struct {
	// Endpoint is the websocket URL to dial.
	Endpoint string
	// HeartbeatInterval is the keep-alive period. Zero means 15s.
	HeartbeatInterval time.Duration
}

// NewWebsocketFeed creates a live feed delivering to handlers.
func NewWebsocketFeed(cfg WebsocketConfig, handlers Handlers) *WebsocketFeed {
	hb := cfg.HeartbeatInterval
	if hb == 0 {
		hb = defaultHeartbeat
	}
	return &WebsocketFeed{
		url:       cfg.Endpoint,
		heartbeat: hb,
		handlers:  handlers,
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		state:     models.StateDisconnected,
	}
}

// Start launches the connection loop and returns immediately.
func (f *WebsocketFeed) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return nil
	}
	f.started = true
	f.stopCh = make(chan struct{})
	f.mu.Unlock()

	go f.run(ctx)
	return nil
}

// run dials, serves a connection until it drops, and reconnects with
// backoff until torn down.
func (f *WebsocketFeed) run(ctx context.Context) {
	for {
		if f.isStopped() || ctx.Err() != nil {
			return
		}

		f.setState(models.StateConnecting)
		conn, _, err := websocket.DefaultDialer.DialContext(ctx, f.url, nil)
		if err != nil {
			f.handlers.error(err)
			if !f.waitReconnect(ctx) {
				return
			}
			continue
		}

		f.mu.Lock()
		// Stop may have run while the dial was in flight; it saw no
		// connection to close, so close it here and deliver nothing.
		if f.stopped || ctx.Err() != nil {
			f.mu.Unlock()
			conn.Close()
			return
		}
		f.conn = conn
		f.attempt = 0
		f.state = models.StateOpen
		f.mu.Unlock()
		f.handlers.open()

		hbStop := make(chan struct{})
		go f.heartbeatLoop(conn, hbStop)

		readErr := f.readLoop(conn)
		close(hbStop)
		conn.Close()

		f.mu.Lock()
		f.conn = nil
		f.mu.Unlock()

		if f.isStopped() || ctx.Err() != nil {
			return
		}
		if readErr != nil {
			f.handlers.error(readErr)
		}
		if !f.waitReconnect(ctx) {
			return
		}
	}
}

// waitReconnect schedules the next attempt and sleeps out the backoff
// delay. Returns false when the feed was torn down meanwhile.
func (f *WebsocketFeed) waitReconnect(ctx context.Context) bool {
	f.mu.Lock()
	delay := ReconnectDelay(f.attempt, f.rng)
	f.attempt++
	attempt := f.attempt
	f.state = models.StateReconnecting
	stopCh := f.stopCh
	f.mu.Unlock()

	f.handlers.reconnecting(attempt, delay)

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-stopCh:
		return false
	case <-timer.C:
		return true
	}
}

// readLoop delivers inbound frames until the connection drops. Frames
// that fail to decode as a JSON object are passed through raw; the
// classifier downstream rejects them.
func (f *WebsocketFeed) readLoop(conn *websocket.Conn) error {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		var m map[string]any
		if err := json.Unmarshal(data, &m); err != nil {
			f.handlers.message(string(data))
			continue
		}
		f.handlers.message(m)
	}
}

// heartbeatLoop writes a lightweight keep-alive payload while the
// connection is open. Write failures are non-fatal; the read loop
// detects the actual connection loss.
func (f *WebsocketFeed) heartbeatLoop(conn *websocket.Conn, stop chan struct{}) {
	ticker := time.NewTicker(f.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			ping := map[string]any{"type": "ping", "ts": time.Now().UnixMilli()}
			if err := conn.WriteJSON(ping); err != nil {
				f.handlers.error(err)
			}
		}
	}
}

// Stop tears the feed down and suppresses further reconnection. Safe
// to call multiple times.
func (f *WebsocketFeed) Stop() {
	f.mu.Lock()
	if !f.started || f.stopped {
		f.mu.Unlock()
		return
	}
	f.stopped = true
	close(f.stopCh)
	if f.conn != nil {
		f.conn.Close()
	}
	f.state = models.StateDisconnected
	f.mu.Unlock()
	f.handlers.closed()
}

// State reports the current connection state.
func (f *WebsocketFeed) State() models.ConnectionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *WebsocketFeed) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

func (f *WebsocketFeed) setState(s models.ConnectionState) {
	f.mu.Lock()
	f.state = s
	f.mu.Unlock()
}

var _ Feed = (*WebsocketFeed)(nil)
