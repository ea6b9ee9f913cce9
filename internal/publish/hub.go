package publish

import (
	"sync"
	"time"

	"github.com/Raghuak/algo-trading-ui/internal/store"
)

// HubConfig holds configuration for the snapshot hub.
type HubConfig struct {
	// SubscriberBufferSize is the size of each subscriber's channel
	// buffer.
	SubscriberBufferSize int
}

// DefaultHubConfig returns the default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{SubscriberBufferSize: 8}
}

// Hub fans published snapshots out to subscribers. Sends are
// non-blocking: a slow consumer drops snapshots rather than stalling
// publication, and a later snapshot always supersedes a dropped one.
type Hub struct {
	config HubConfig

	mu     sync.RWMutex
	subs   []*Subscriber
	closed bool

	metricsMu sync.Mutex
	published uint64
	dropped   uint64
}

// Subscriber is one registered snapshot consumer.
type Subscriber struct {
	ID           string
	Channel      chan store.Snapshot
	DroppedCount int
	CreatedAt    time.Time
}

// NewHub creates a hub with default configuration.
func NewHub() *Hub {
	return NewHubWithConfig(DefaultHubConfig())
}

// NewHubWithConfig creates a hub with custom configuration.
func NewHubWithConfig(config HubConfig) *Hub {
	if config.SubscriberBufferSize < 1 {
		config.SubscriberBufferSize = 1
	}
	return &Hub{config: config}
}

// Subscribe registers a consumer and returns its channel.
func (h *Hub) Subscribe(id string) <-chan store.Snapshot {
	sub := &Subscriber{
		ID:        id,
		Channel:   make(chan store.Snapshot, h.config.SubscriberBufferSize),
		CreatedAt: time.Now(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		close(sub.Channel)
		return sub.Channel
	}
	h.subs = append(h.subs, sub)
	return sub.Channel
}

// Unsubscribe removes a consumer and closes its channel.
func (h *Hub) Unsubscribe(ch <-chan store.Snapshot) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for i, sub := range h.subs {
		if sub.Channel == ch {
			close(sub.Channel)
			h.subs = append(h.subs[:i], h.subs[i+1:]...)
			return
		}
	}
}

// Publish delivers a snapshot to every subscriber without blocking.
func (h *Hub) Publish(snap store.Snapshot) {
	h.mu.RLock()
	if h.closed {
		h.mu.RUnlock()
		return
	}

	// Sends are non-blocking, so the lock is held only briefly; it also
	// keeps Unsubscribe from closing a channel mid-publish.
	var published uint64
	var slow []*Subscriber
	for _, sub := range h.subs {
		select {
		case sub.Channel <- snap:
			published++
		default:
			slow = append(slow, sub)
		}
	}
	h.mu.RUnlock()

	// Counters live under metricsMu, including the per-subscriber drop
	// counts: Publish may be called from more than one goroutine.
	h.metricsMu.Lock()
	for _, sub := range slow {
		sub.DroppedCount++
	}
	h.published += published
	h.dropped += uint64(len(slow))
	h.metricsMu.Unlock()
}

// SubscriberCount returns the number of registered consumers.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Metrics returns delivery counters.
func (h *Hub) Metrics() (published, dropped uint64) {
	h.metricsMu.Lock()
	defer h.metricsMu.Unlock()
	return h.published, h.dropped
}

// Close closes all subscriber channels. Safe to call multiple times.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for _, sub := range h.subs {
		close(sub.Channel)
	}
	h.subs = nil
}
