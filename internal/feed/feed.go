// Package feed provides live and synthetic market data transports and
// the classifier that turns raw frames into typed events.
package feed

import (
	"context"
	"time"

	"github.com/Raghuak/algo-trading-ui/internal/models"
)

// Feed is a stream transport. Two interchangeable backends satisfy the
// contract: a websocket client for a live endpoint and a synthetic
// generator used when no endpoint is configured. Consumers must not
// depend on which backend is active.
type Feed interface {
	// Start begins delivery of events to the configured handlers. It
	// returns once delivery is underway; connection management happens
	// in the background.
	Start(ctx context.Context) error
	// Stop tears the transport down, cancels all timers and suppresses
	// further event delivery. Safe to call multiple times.
	Stop()
	// State reports the current connection state.
	State() models.ConnectionState
}

// Handlers receives transport events. Any handler may be nil.
type Handlers struct {
	// OnOpen fires when the connection is established.
	OnOpen func()
	// OnMessage receives each inbound payload: a decoded JSON object,
	// or the raw frame text when decoding failed. Classification of
	// the payload happens downstream.
	OnMessage func(raw any)
	// OnError receives non-fatal transport errors.
	OnError func(err error)
	// OnReconnecting fires when a reconnect has been scheduled.
	OnReconnecting func(attempt int, delay time.Duration)
	// OnClosed fires after an intentional teardown completes.
	OnClosed func()
}

func (h Handlers) open() {
	if h.OnOpen != nil {
		h.OnOpen()
	}
}

func (h Handlers) message(raw any) {
	if h.OnMessage != nil {
		h.OnMessage(raw)
	}
}

func (h Handlers) error(err error) {
	if h.OnError != nil {
		h.OnError(err)
	}
}

func (h Handlers) reconnecting(attempt int, delay time.Duration) {
	if h.OnReconnecting != nil {
		h.OnReconnecting(attempt, delay)
	}
}

func (h Handlers) closed() {
	if h.OnClosed != nil {
		h.OnClosed()
	}
}
