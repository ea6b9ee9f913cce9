// Package models provides domain models for the market dashboard core.
package models

import (
	"fmt"
	"time"
)

// Instrument identifies a tradable underlying driving one price series.
// The set is fixed by configuration; there is no runtime discovery.
type Instrument string

const (
	Nifty     Instrument = "NIFTY"
	BankNifty Instrument = "BANKNIFTY"
)

// DefaultInstruments is the instrument set used when configuration
// does not name one.
var DefaultInstruments = []Instrument{Nifty, BankNifty}

// Side represents the direction of a signal or trade.
type Side string

const (
	SideBuy  Side = "Buy"
	SideSell Side = "Sell"
)

// ParseSide returns the Side for s, or false when s is not a valid side.
func ParseSide(s string) (Side, bool) {
	switch Side(s) {
	case SideBuy, SideSell:
		return Side(s), true
	}
	return "", false
}

// SignalStatus is the lifecycle state of a signal.
type SignalStatus string

const (
	SignalExecuted SignalStatus = "Executed"
	SignalPending  SignalStatus = "Pending"
	SignalRejected SignalStatus = "Rejected"
)

// Tick is a single price update for an instrument. Ticks are transient:
// they are folded into the current price and into matching trade LTPs,
// never stored individually.
type Tick struct {
	Instrument Instrument
	LTP        float64
	Timestamp  time.Time
}

// SignalEvent is an externally generated trade instruction. Immutable
// once created; appended to the instrument's signal history.
type SignalEvent struct {
	Instrument Instrument
	Symbol     string
	Side       Side
	Quantity   int
	Price      float64
	Status     SignalStatus
	Timestamp  time.Time
}

// Trade is the bookkeeping record derived from a signal at creation
// time. AvgPrice never changes after creation; LTP is updated by
// subsequent ticks whose instrument name appears in the trade symbol.
type Trade struct {
	Symbol   string
	Side     Side
	Quantity int
	AvgPrice float64
	LTP      float64
	Status   SignalStatus
}

// RiskSnapshot holds the process-wide risk figures, overwritten
// wholesale by each risk event or by the local simulation.
type RiskSnapshot struct {
	DailyLoss  float64
	MarginUsed float64
}

// LogLine is a free-text record scoped to an instrument or, with an
// empty instrument, to the system.
type LogLine struct {
	Timestamp  time.Time
	Instrument Instrument
	Message    string
}

// NewLogLine builds a log line stamped with the current time.
func NewLogLine(instrument Instrument, format string, args ...any) LogLine {
	return LogLine{
		Timestamp:  time.Now(),
		Instrument: instrument,
		Message:    fmt.Sprintf(format, args...),
	}
}

// ConnectionState is the lifecycle state of a stream transport.
type ConnectionState int

const (
	StateDisconnected ConnectionState = iota
	StateConnecting
	StateOpen
	StateReconnecting
)

// String returns the human-readable state name.
func (s ConnectionState) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	case StateReconnecting:
		return "reconnecting"
	default:
		return "unknown"
	}
}

// RiskLevel classifies the current risk posture.
type RiskLevel int

const (
	RiskNormal RiskLevel = iota
	RiskWarn
	RiskBreach
)

// String returns the badge label for the level.
func (l RiskLevel) String() string {
	switch l {
	case RiskWarn:
		return "WARN"
	case RiskBreach:
		return "BREACH"
	default:
		return "NORMAL"
	}
}

// DisplayMode selects how the presentation layer renders P&L. The core
// always retains both raw fields; the mode is carried as snapshot
// metadata only.
type DisplayMode string

const (
	DisplayPercent  DisplayMode = "percent"
	DisplayAbsolute DisplayMode = "absolute"
)
