package feed

import (
	"encoding/json"
	"time"

	"github.com/Raghuak/algo-trading-ui/internal/models"
)

// Event is a validated inbound event. It is a closed sum: the only
// variants are TickEvent, SignalEvent and RiskEvent, and only the
// Classifier constructs them.
type Event interface {
	isEvent()
}

// TickEvent is a price update for a known instrument.
type TickEvent struct {
	Instrument models.Instrument
	Price      float64
	Timestamp  time.Time
}

// SignalEvent is a validated trade signal.
type SignalEvent struct {
	Signal models.SignalEvent
}

// RiskEvent carries a risk snapshot update. A nil field means the
// corresponding figure is unchanged.
type RiskEvent struct {
	DailyLoss  *float64
	MarginUsed *float64
}

func (TickEvent) isEvent()   {}
func (SignalEvent) isEvent() {}
func (RiskEvent) isEvent()   {}

// Classifier validates raw inbound payloads against the three known
// message shapes. Anything that matches none of them is dropped; a
// corrupt frame must never crash ingestion.
type Classifier struct {
	known map[models.Instrument]bool
}

// NewClassifier creates a classifier accepting the given instruments.
func NewClassifier(instruments []models.Instrument) *Classifier {
	known := make(map[models.Instrument]bool, len(instruments))
	for _, inst := range instruments {
		known[inst] = true
	}
	return &Classifier{known: known}
}

// Classify validates raw and returns its typed event. The second
// return is false when the payload matches no known shape.
func (c *Classifier) Classify(raw any) (Event, bool) {
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, false
	}

	if ev, ok := c.classifyTick(m); ok {
		return ev, true
	}
	if ev, ok := c.classifySignal(m); ok {
		return ev, true
	}
	if ev, ok := classifyRisk(m); ok {
		return ev, true
	}
	return nil, false
}

func (c *Classifier) classifyTick(m map[string]any) (Event, bool) {
	inst, ok := c.instrument(m)
	if !ok {
		return nil, false
	}
	price, ok := numeric(m["price"])
	if !ok {
		return nil, false
	}
	ts, ok := numeric(m["ts"])
	if !ok {
		return nil, false
	}
	return TickEvent{
		Instrument: inst,
		Price:      price,
		Timestamp:  time.UnixMilli(int64(ts)),
	}, true
}

func (c *Classifier) classifySignal(m map[string]any) (Event, bool) {
	inst, ok := c.instrument(m)
	if !ok {
		return nil, false
	}
	payload, ok := m["signal"].(map[string]any)
	if !ok {
		return nil, false
	}
	symbol, ok := payload["symbol"].(string)
	if !ok || symbol == "" {
		return nil, false
	}
	sideStr, _ := payload["side"].(string)
	side, ok := models.ParseSide(sideStr)
	if !ok {
		return nil, false
	}
	qty, ok := numeric(payload["qty"])
	if !ok || qty <= 0 {
		return nil, false
	}
	price, ok := numeric(payload["price"])
	if !ok || price <= 0 {
		return nil, false
	}
	status := models.SignalExecuted
	if s, ok := payload["status"].(string); ok && s != "" {
		status = models.SignalStatus(s)
	}
	return SignalEvent{
		Signal: models.SignalEvent{
			Instrument: inst,
			Symbol:     symbol,
			Side:       side,
			Quantity:   int(qty),
			Price:      price,
			Status:     status,
			Timestamp:  time.Now(),
		},
	}, true
}

func classifyRisk(m map[string]any) (Event, bool) {
	var ev RiskEvent
	if v, ok := numeric(m["dailyLossAmount"]); ok {
		ev.DailyLoss = &v
	}
	if v, ok := numeric(m["marginUsedPercent"]); ok {
		ev.MarginUsed = &v
	}
	if ev.DailyLoss == nil && ev.MarginUsed == nil {
		return nil, false
	}
	return ev, true
}

func (c *Classifier) instrument(m map[string]any) (models.Instrument, bool) {
	name, ok := m["instrument"].(string)
	if !ok {
		return "", false
	}
	inst := models.Instrument(name)
	if !c.known[inst] {
		return "", false
	}
	return inst, true
}

// numeric coerces the JSON decoder's numeric representations to a
// float64.
func numeric(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	return 0, false
}
