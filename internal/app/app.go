// Package app assembles the ingestion pipeline: transport, classifier,
// aggregation store, publication throttle and snapshot hub, plus the
// control surface the presentation layer drives.
package app

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Raghuak/algo-trading-ui/internal/config"
	"github.com/Raghuak/algo-trading-ui/internal/export"
	"github.com/Raghuak/algo-trading-ui/internal/feed"
	"github.com/Raghuak/algo-trading-ui/internal/logging"
	"github.com/Raghuak/algo-trading-ui/internal/models"
	"github.com/Raghuak/algo-trading-ui/internal/publish"
	"github.com/Raghuak/algo-trading-ui/internal/store"
)

const (
	eventQueueSize = 1024
	riskSimPeriod  = 1500 * time.Millisecond
)

// feedLifecycle is a transport event queued alongside market payloads
// so system log lines interleave in arrival order.
type feedLifecycle struct {
	kind   string
	detail string
}

// App wires the dashboard core together. A single ingestion goroutine
// owns all store mutations; everything else observes through
// snapshots.
type App struct {
	cfg        *config.Config
	logger     zerolog.Logger
	store      *store.Store
	feed       feed.Feed
	classifier *feed.Classifier
	throttle   *publish.Throttle[struct{}]
	hub        *publish.Hub
	events     chan any
	done       chan struct{}
	rng        *rand.Rand
	synthetic  bool

	mu          sync.Mutex
	paused      bool
	latest      store.Snapshot
	hasLatest   bool
	displayMode models.DisplayMode

	cancel  context.CancelFunc
	started bool
	wg      sync.WaitGroup
	closed  sync.Once
}

// New builds an App from configuration. The synthetic backend is used
// when no endpoint is configured or when the synthetic flag is set.
func New(cfg *config.Config, logger zerolog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	instruments := cfg.Feed.InstrumentSet()
	a := &App{
		cfg:    cfg,
		logger: logging.WithComponent(logger, "app"),
		store: store.New(instruments,
			store.Capacities{
				Signals: cfg.Buffers.Signals,
				Trades:  cfg.Buffers.Trades,
				Logs:    cfg.Buffers.Logs,
			},
			store.Limits{
				DailyLossLimit:    cfg.Risk.DailyLossLimit,
				MarginWarnPercent: cfg.Risk.MarginWarnPercent,
			},
			logger),
		classifier:  feed.NewClassifier(instruments),
		hub:         publish.NewHub(),
		events:      make(chan any, eventQueueSize),
		done:        make(chan struct{}),
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		synthetic:   cfg.Feed.UseSynthetic(),
		displayMode: models.DisplayPercent,
	}

	a.throttle = publish.NewThrottle[struct{}](cfg.Publish.Interval(), func(struct{}) {
		a.publishSnapshot()
	})

	handlers := feed.Handlers{
		OnOpen: func() {
			logging.LogFeedEvent(a.logger, "open", "")
			a.enqueue(feedLifecycle{kind: "open"})
		},
		OnMessage: func(raw any) {
			a.enqueue(raw)
		},
		OnError: func(err error) {
			logging.LogFeedEvent(a.logger, "error", err.Error())
			a.enqueue(feedLifecycle{kind: "error", detail: err.Error()})
		},
		OnReconnecting: func(attempt int, delay time.Duration) {
			detail := fmt.Sprintf("attempt %d in %s", attempt, delay)
			logging.LogFeedEvent(a.logger, "reconnecting", detail)
			a.enqueue(feedLifecycle{kind: "reconnecting", detail: detail})
		},
		OnClosed: func() {
			logging.LogFeedEvent(a.logger, "closed", "")
		},
	}

	if a.synthetic {
		a.feed = feed.NewSyntheticFeed(feed.SyntheticConfig{
			Instruments: instruments,
			BasePrices:  cfg.Feed.BasePrices,
		}, handlers)
	} else {
		a.feed = feed.NewWebsocketFeed(feed.WebsocketConfig{
			Endpoint:          cfg.Feed.Endpoint,
			HeartbeatInterval: cfg.Feed.HeartbeatInterval,
		}, handlers)
	}

	return a, nil
}

// Start launches the ingestion loop and the transport.
func (a *App) Start(ctx context.Context) error {
	a.mu.Lock()
	if a.started {
		a.mu.Unlock()
		return nil
	}
	a.started = true
	a.mu.Unlock()

	ctx, a.cancel = context.WithCancel(ctx)

	a.wg.Add(1)
	go a.ingestLoop(ctx)

	return a.feed.Start(ctx)
}

// enqueue hands an item to the ingestion loop. The queue is large
// enough that the loop keeps up; if it ever fills, the producer waits
// rather than reordering or dropping. A closed pipeline releases any
// waiting producer.
func (a *App) enqueue(item any) {
	select {
	case a.events <- item:
	case <-a.done:
	}
}

// ingestLoop is the single writer of store state. Events are applied
// in arrival order; the local risk simulation runs only when no live
// endpoint is configured.
func (a *App) ingestLoop(ctx context.Context) {
	defer a.wg.Done()

	var riskC <-chan time.Time
	if a.synthetic {
		ticker := time.NewTicker(riskSimPeriod)
		defer ticker.Stop()
		riskC = ticker.C
	}

	for {
		select {
		case <-ctx.Done():
			return
		case item := <-a.events:
			a.ingest(item)
		case <-riskC:
			a.simulateRisk()
			a.throttle.Notify(struct{}{})
		}
	}
}

func (a *App) ingest(item any) {
	if lc, ok := item.(feedLifecycle); ok {
		a.store.RecordFeedEvent(lc.kind, lc.detail)
		a.throttle.Notify(struct{}{})
		return
	}

	ev, ok := a.classifier.Classify(item)
	if !ok {
		// Fail open: unrecognized frames vanish without a trace.
		return
	}

	switch e := ev.(type) {
	case feed.TickEvent:
		a.store.ApplyTick(e.Instrument, e.Price, e.Timestamp)
	case feed.SignalEvent:
		a.store.ApplySignal(e.Signal)
		logging.LogSignal(a.logger,
			string(e.Signal.Instrument), e.Signal.Symbol,
			string(e.Signal.Side), e.Signal.Quantity, e.Signal.Price)
	case feed.RiskEvent:
		a.store.ApplyRisk(e.DailyLoss, e.MarginUsed)
		risk := a.store.Risk()
		logging.LogRiskUpdate(a.logger, risk.DailyLoss, risk.MarginUsed)
	}
	a.throttle.Notify(struct{}{})
}

// simulateRisk nudges the risk figures so the badge exercises warn and
// breach states during synthetic runs.
func (a *App) simulateRisk() {
	limit := a.cfg.Risk.DailyLossLimit
	risk := a.store.Risk()

	loss := risk.DailyLoss + (a.rng.Float64()-0.45)*limit*0.08
	loss = clamp(loss, 0, 1.5*limit)

	margin := risk.MarginUsed + (a.rng.Float64()-0.5)*6
	margin = clamp(margin, 30, 110)

	a.store.ApplyRisk(&loss, &margin)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// publishSnapshot samples the store and fans the snapshot out, unless
// the display is paused. The newest snapshot is retained so a resume
// can republish it immediately.
func (a *App) publishSnapshot() {
	snap := a.store.Snapshot()

	a.mu.Lock()
	a.latest = snap
	a.hasLatest = true
	paused := a.paused
	a.mu.Unlock()

	if !paused {
		a.hub.Publish(snap)
	}
}

// Subscribe registers a snapshot consumer.
func (a *App) Subscribe(id string) <-chan store.Snapshot {
	return a.hub.Subscribe(id)
}

// Snapshot returns the current state directly, bypassing the throttle.
func (a *App) Snapshot() store.Snapshot {
	return a.store.Snapshot()
}

// Pause suppresses snapshot delivery. Ingestion continues; the store
// keeps absorbing events.
func (a *App) Pause() {
	a.mu.Lock()
	a.paused = true
	a.mu.Unlock()
}

// Resume re-enables delivery and republishes the newest snapshot so
// the display catches up immediately.
func (a *App) Resume() {
	a.mu.Lock()
	a.paused = false
	latest := a.latest
	hasLatest := a.hasLatest
	a.mu.Unlock()

	if hasLatest {
		a.hub.Publish(latest)
	}
}

// Paused reports whether delivery is currently suppressed.
func (a *App) Paused() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.paused
}

// SetDisplayMode records the presentation P&L mode. Both raw P&L
// figures are always retained; this only steers rendering.
func (a *App) SetDisplayMode(mode models.DisplayMode) {
	a.mu.Lock()
	a.displayMode = mode
	a.mu.Unlock()
}

// DisplayMode returns the current presentation P&L mode.
func (a *App) DisplayMode() models.DisplayMode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.displayMode
}

// ToggleDisplayMode flips between percentage and absolute P&L.
func (a *App) ToggleDisplayMode() models.DisplayMode {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.displayMode == models.DisplayPercent {
		a.displayMode = models.DisplayAbsolute
	} else {
		a.displayMode = models.DisplayPercent
	}
	return a.displayMode
}

// ExportSignals returns the flat signal rows for the current state.
func (a *App) ExportSignals() []export.SignalRow {
	return export.SignalRows(a.store.Snapshot())
}

// ExportTrades returns the flat trade rows for the current state.
func (a *App) ExportTrades() []export.TradeRow {
	return export.TradeRows(a.store.Snapshot())
}

// ExportLogs returns the flat log rows for the current state.
func (a *App) ExportLogs() []export.LogRow {
	return export.LogRows(a.store.Snapshot())
}

// FeedState reports the transport's connection state.
func (a *App) FeedState() models.ConnectionState {
	return a.feed.State()
}

// Close tears the pipeline down: transport first so no further events
// arrive, then the ingestion loop, throttle and hub. Safe to call
// multiple times.
func (a *App) Close() {
	a.closed.Do(func() {
		a.feed.Stop()
		close(a.done)
		if a.cancel != nil {
			a.cancel()
		}
		a.wg.Wait()
		a.throttle.Stop()
		a.hub.Close()
	})
}
