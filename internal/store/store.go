// Package store owns all mutable dashboard state: current prices,
// per-instrument signal/trade/log history, and the risk snapshot.
// Every mutation goes through one of the Apply methods; no other
// component touches the state directly.
package store

import (
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Raghuak/algo-trading-ui/internal/buffer"
	"github.com/Raghuak/algo-trading-ui/internal/derive"
	"github.com/Raghuak/algo-trading-ui/internal/models"
)

// Capacities holds the history buffer sizes.
type Capacities struct {
	Signals int
	Trades  int
	Logs    int
}

// DefaultCapacities returns the standard buffer sizes.
func DefaultCapacities() Capacities {
	return Capacities{Signals: 500, Trades: 1000, Logs: 200}
}

// Limits holds the risk thresholds used for classification.
type Limits struct {
	DailyLossLimit    float64
	MarginWarnPercent float64
}

// instrumentState is the per-instrument slice of the store.
type instrumentState struct {
	price   float64
	signals *buffer.Buffer[models.SignalEvent]
	trades  *buffer.Buffer[models.Trade]
	logs    *buffer.Buffer[models.LogLine]
}

// Store is the single owner of dashboard state. A lone ingestion
// goroutine calls the Apply methods in event arrival order; concurrent
// readers only ever see state through Snapshot.
type Store struct {
	mu          sync.RWMutex
	instruments []models.Instrument
	byInst      map[models.Instrument]*instrumentState
	sysLog      *buffer.Buffer[models.LogLine]
	risk        models.RiskSnapshot
	limits      Limits
	logger      zerolog.Logger
}

// New creates a store for the given instrument set.
func New(instruments []models.Instrument, caps Capacities, limits Limits, logger zerolog.Logger) *Store {
	byInst := make(map[models.Instrument]*instrumentState, len(instruments))
	for _, inst := range instruments {
		byInst[inst] = &instrumentState{
			signals: buffer.New[models.SignalEvent](caps.Signals),
			trades:  buffer.New[models.Trade](caps.Trades),
			logs:    buffer.New[models.LogLine](caps.Logs),
		}
	}
	return &Store{
		instruments: append([]models.Instrument(nil), instruments...),
		byInst:      byInst,
		sysLog:      buffer.New[models.LogLine](caps.Logs),
		limits:      limits,
		logger:      logger,
	}
}

// ApplyTick folds a price update into the instrument's current price
// and into the LTP of every stored trade whose symbol embeds the
// instrument name. The substring match is the documented rule: a
// derivative symbol like NIFTY25SEP22500CE carries its underlying's
// name.
func (s *Store) ApplyTick(instrument models.Instrument, price float64, ts time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.byInst[instrument]
	if !ok {
		return
	}
	rounded := round2(price)
	state.price = rounded

	name := string(instrument)
	for _, st := range s.byInst {
		st.trades.Each(func(t *models.Trade) {
			if strings.Contains(t.Symbol, name) {
				t.LTP = rounded
			}
		})
	}
}

// ApplySignal appends the signal to its instrument's history, derives
// a trade record entered at the signal price, and logs the event on
// the instrument's log.
func (s *Store) ApplySignal(signal models.SignalEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.byInst[signal.Instrument]
	if !ok {
		return
	}
	state.signals.Push(signal)
	state.trades.Push(models.Trade{
		Symbol:   signal.Symbol,
		Side:     signal.Side,
		Quantity: signal.Quantity,
		AvgPrice: signal.Price,
		LTP:      signal.Price,
		Status:   signal.Status,
	})
	state.logs.Push(models.NewLogLine(signal.Instrument,
		"%s %d x %s @ %.2f (%s)",
		signal.Side, signal.Quantity, signal.Symbol, signal.Price, signal.Status))

	s.logger.Debug().
		Str("instrument", string(signal.Instrument)).
		Str("symbol", signal.Symbol).
		Str("side", string(signal.Side)).
		Msg("Signal applied")
}

// ApplyRisk overwrites whichever risk figures the update carries and
// leaves the rest untouched.
func (s *Store) ApplyRisk(dailyLoss, marginUsed *float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if dailyLoss != nil {
		s.risk.DailyLoss = *dailyLoss
	}
	if marginUsed != nil {
		s.risk.MarginUsed = *marginUsed
	}
	s.sysLog.Push(models.NewLogLine("",
		"risk updated: daily loss %.2f, margin used %.1f%%",
		s.risk.DailyLoss, s.risk.MarginUsed))
}

// RecordFeedEvent appends a system log line for a transport lifecycle
// event.
func (s *Store) RecordFeedEvent(kind, detail string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if detail == "" {
		s.sysLog.Push(models.NewLogLine("", "feed %s", kind))
		return
	}
	s.sysLog.Push(models.NewLogLine("", "feed %s: %s", kind, detail))
}

// Price returns the current price for an instrument.
func (s *Store) Price(instrument models.Instrument) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if st, ok := s.byInst[instrument]; ok {
		return st.price
	}
	return 0
}

// Risk returns the current risk snapshot.
func (s *Store) Risk() models.RiskSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.risk
}

// InstrumentView is the read-only per-instrument slice of a snapshot.
type InstrumentView struct {
	Price   float64
	Signals []models.SignalEvent
	Trades  []models.Trade
	Logs    []models.LogLine
}

// Snapshot is a consistent, detached copy of the store's state.
// Mutating a snapshot never affects the store.
type Snapshot struct {
	Taken       time.Time
	Instruments []models.Instrument
	ByInst      map[models.Instrument]InstrumentView
	Risk        models.RiskSnapshot
	RiskLevel   models.RiskLevel
	SystemLog   []models.LogLine
}

// Snapshot captures the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	byInst := make(map[models.Instrument]InstrumentView, len(s.byInst))
	for inst, st := range s.byInst {
		byInst[inst] = InstrumentView{
			Price:   st.price,
			Signals: st.signals.Items(),
			Trades:  st.trades.Items(),
			Logs:    st.logs.Items(),
		}
	}

	return Snapshot{
		Taken:       time.Now(),
		Instruments: append([]models.Instrument(nil), s.instruments...),
		ByInst:      byInst,
		Risk:        s.risk,
		RiskLevel: derive.RiskLevel(
			s.risk.DailyLoss, s.risk.MarginUsed,
			s.limits.DailyLossLimit, s.limits.MarginWarnPercent,
			derive.DefaultWarnFraction),
		SystemLog: s.sysLog.Items(),
	}
}

// TradeCount returns the total number of stored trades.
func (s *Store) TradeCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for _, st := range s.byInst {
		n += st.trades.Len()
	}
	return n
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
