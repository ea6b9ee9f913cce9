package publish

import (
	"sync"
	"testing"
	"time"

	"github.com/Raghuak/algo-trading-ui/internal/store"
)

func TestHubFanOut(t *testing.T) {
	h := NewHub()
	defer h.Close()

	a := h.Subscribe("a")
	b := h.Subscribe("b")

	snap := store.Snapshot{Taken: time.Now()}
	h.Publish(snap)

	for name, ch := range map[string]<-chan store.Snapshot{"a": a, "b": b} {
		select {
		case got := <-ch:
			if !got.Taken.Equal(snap.Taken) {
				t.Errorf("subscriber %s got wrong snapshot", name)
			}
		case <-time.After(time.Second):
			t.Fatalf("subscriber %s received nothing", name)
		}
	}

	published, dropped := h.Metrics()
	if published != 2 || dropped != 0 {
		t.Errorf("metrics = %d published, %d dropped; want 2, 0", published, dropped)
	}
}

func TestHubDropsForSlowConsumer(t *testing.T) {
	h := NewHubWithConfig(HubConfig{SubscriberBufferSize: 1})
	defer h.Close()

	h.Subscribe("slow") // never drained

	h.Publish(store.Snapshot{})
	h.Publish(store.Snapshot{})
	h.Publish(store.Snapshot{})

	published, dropped := h.Metrics()
	if published != 1 {
		t.Errorf("published = %d, want 1", published)
	}
	if dropped != 2 {
		t.Errorf("dropped = %d, want 2", dropped)
	}
}

func TestHubConcurrentPublishers(t *testing.T) {
	h := NewHubWithConfig(HubConfig{SubscriberBufferSize: 1})
	defer h.Close()

	h.Subscribe("slow") // never drained

	const perPublisher = 100
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perPublisher; j++ {
				h.Publish(store.Snapshot{})
			}
		}()
	}
	wg.Wait()

	published, dropped := h.Metrics()
	if published+dropped != 2*perPublisher {
		t.Errorf("published %d + dropped %d = %d, want %d",
			published, dropped, published+dropped, 2*perPublisher)
	}
	if published != 1 {
		t.Errorf("published = %d, want 1 (buffer of one, never drained)", published)
	}
}

func TestHubUnsubscribe(t *testing.T) {
	h := NewHub()
	defer h.Close()

	ch := h.Subscribe("a")
	h.Unsubscribe(ch)

	if _, ok := <-ch; ok {
		t.Error("unsubscribed channel still open")
	}
	if h.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount = %d, want 0", h.SubscriberCount())
	}
}

func TestHubCloseIdempotent(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe("a")

	h.Close()
	h.Close()

	if _, ok := <-ch; ok {
		t.Error("channel still open after Close")
	}

	// Publishing and subscribing after Close are safe no-ops.
	h.Publish(store.Snapshot{})
	late := h.Subscribe("late")
	if _, ok := <-late; ok {
		t.Error("late subscription channel open after Close")
	}
}
