package feed

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/Raghuak/algo-trading-ui/internal/models"
)

const (
	syntheticTickPeriod = 100 * time.Millisecond
	syntheticSignalOdds = 0.01
)

// lot sizes used for synthetic signals.
var syntheticLots = map[models.Instrument]int{
	models.Nifty:     50,
	models.BankNifty: 15,
}

// SyntheticFeed generates a plausible market data stream locally. It
// emits the same wire-shaped payloads a live endpoint would, so the
// classifier and everything downstream run identically in both modes.
// It never errors and never reconnects.
type SyntheticFeed struct {
	instruments []models.Instrument
	prices      map[models.Instrument]float64
	handlers    Handlers
	period      time.Duration
	rng         *rand.Rand

	mu      sync.Mutex
	state   models.ConnectionState
	stopCh  chan struct{}
	started bool
}

// SyntheticConfig holds configuration for the synthetic feed.
type SyntheticConfig struct {
	Instruments []models.Instrument
	BasePrices  map[string]float64
	// Period overrides the tick generation period. Zero means the
	// default 100ms.
	Period time.Duration
	// Seed fixes the random source; zero seeds from the clock.
	Seed int64
}

// NewSyntheticFeed creates a synthetic feed delivering to handlers.
func NewSyntheticFeed(cfg SyntheticConfig, handlers Handlers) *SyntheticFeed {
	period := cfg.Period
	if period == 0 {
		period = syntheticTickPeriod
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	instruments := cfg.Instruments
	if len(instruments) == 0 {
		instruments = models.DefaultInstruments
	}

	prices := make(map[models.Instrument]float64, len(instruments))
	for _, inst := range instruments {
		base := cfg.BasePrices[string(inst)]
		if base == 0 {
			base = 20000
		}
		prices[inst] = base
	}

	return &SyntheticFeed{
		instruments: instruments,
		prices:      prices,
		handlers:    handlers,
		period:      period,
		rng:         rand.New(rand.NewSource(seed)),
		state:       models.StateDisconnected,
	}
}

// Start signals open immediately and begins the generator loop.
func (f *SyntheticFeed) Start(ctx context.Context) error {
	f.mu.Lock()
	if f.started {
		f.mu.Unlock()
		return nil
	}
	f.started = true
	f.state = models.StateOpen
	f.stopCh = make(chan struct{})
	stopCh := f.stopCh
	f.mu.Unlock()

	f.handlers.open()
	go f.loop(ctx, stopCh)
	return nil
}

func (f *SyntheticFeed) loop(ctx context.Context, stopCh chan struct{}) {
	ticker := time.NewTicker(f.period)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-stopCh:
			return
		case <-ticker.C:
			f.emitCycle()
		}
	}
}

// emitCycle emits one tick per instrument and, with low probability, a
// synthetic signal.
func (f *SyntheticFeed) emitCycle() {
	f.mu.Lock()
	payloads := make([]map[string]any, 0, len(f.instruments)+1)
	now := time.Now().UnixMilli()
	for _, inst := range f.instruments {
		price := f.prices[inst]
		price += (f.rng.Float64() - 0.5) * price * 0.0008
		f.prices[inst] = price
		payloads = append(payloads, map[string]any{
			"instrument": string(inst),
			"price":      math.Round(price*100) / 100,
			"ts":         float64(now),
		})
	}
	if f.rng.Float64() < syntheticSignalOdds {
		payloads = append(payloads, f.syntheticSignal())
	}
	f.mu.Unlock()

	for _, p := range payloads {
		f.handlers.message(p)
	}
}

// syntheticSignal fabricates an options signal for a random
// instrument. Caller holds f.mu.
func (f *SyntheticFeed) syntheticSignal() map[string]any {
	inst := f.instruments[f.rng.Intn(len(f.instruments))]
	side := models.SideBuy
	if f.rng.Intn(2) == 1 {
		side = models.SideSell
	}

	spot := f.prices[inst]
	strike := int(math.Round(spot/100)) * 100
	opt := "CE"
	if side == models.SideSell {
		opt = "PE"
	}
	symbol := fmt.Sprintf("%s%s%d%s", inst, expiryCode(time.Now()), strike, opt)

	qty := syntheticLots[inst]
	if qty == 0 {
		qty = 50
	}
	premium := 150 + (f.rng.Float64()-0.5)*60

	return map[string]any{
		"instrument": string(inst),
		"signal": map[string]any{
			"symbol": symbol,
			"side":   string(side),
			"qty":    float64(qty),
			"price":  math.Round(premium*100) / 100,
			"status": string(models.SignalExecuted),
		},
	}
}

// expiryCode renders the NSE-style expiry fragment, e.g. "25SEP".
func expiryCode(t time.Time) string {
	months := []string{"JAN", "FEB", "MAR", "APR", "MAY", "JUN",
		"JUL", "AUG", "SEP", "OCT", "NOV", "DEC"}
	return fmt.Sprintf("%02d%s", t.Year()%100, months[t.Month()-1])
}

// Stop cancels the generator. Safe to call multiple times.
func (f *SyntheticFeed) Stop() {
	f.mu.Lock()
	if !f.started || f.state == models.StateDisconnected {
		f.mu.Unlock()
		return
	}
	close(f.stopCh)
	f.state = models.StateDisconnected
	f.mu.Unlock()
	f.handlers.closed()
}

// State reports the current connection state.
func (f *SyntheticFeed) State() models.ConnectionState {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

var _ Feed = (*SyntheticFeed)(nil)
