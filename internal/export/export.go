// Package export projects store snapshots into deterministic flat rows
// for serialization by the presentation layer.
package export

import (
	"io"
	"sort"
	"time"

	"github.com/gocarina/gocsv"

	"github.com/Raghuak/algo-trading-ui/internal/derive"
	"github.com/Raghuak/algo-trading-ui/internal/models"
	"github.com/Raghuak/algo-trading-ui/internal/store"
)

// SignalRow is one signal history entry.
type SignalRow struct {
	Instrument string  `csv:"instrument"`
	Symbol     string  `csv:"symbol"`
	Side       string  `csv:"side"`
	Quantity   int     `csv:"quantity"`
	Price      float64 `csv:"price"`
	Status     string  `csv:"status"`
	Timestamp  string  `csv:"timestamp"`
}

// TradeRow is one derived trade entry with both P&L figures.
type TradeRow struct {
	Instrument string  `csv:"instrument"`
	Symbol     string  `csv:"symbol"`
	Side       string  `csv:"side"`
	Quantity   int     `csv:"quantity"`
	AvgPrice   float64 `csv:"avg_price"`
	LTP        float64 `csv:"last_price"`
	PnLPercent float64 `csv:"pnl_percent"`
	PnLAbs     float64 `csv:"pnl_absolute"`
	Status     string  `csv:"status"`
}

// LogRow is one log line, instrument-scoped or system.
type LogRow struct {
	Timestamp string `csv:"timestamp"`
	Scope     string `csv:"scope"`
	Message   string `csv:"message"`
}

// orderedInstruments returns the snapshot's instruments in a stable
// order so exports are deterministic.
func orderedInstruments(snap store.Snapshot) []models.Instrument {
	insts := append([]models.Instrument(nil), snap.Instruments...)
	sort.Slice(insts, func(i, j int) bool { return insts[i] < insts[j] })
	return insts
}

// SignalRows flattens every instrument's signal history, newest first
// within each instrument.
func SignalRows(snap store.Snapshot) []SignalRow {
	var rows []SignalRow
	for _, inst := range orderedInstruments(snap) {
		for _, sig := range snap.ByInst[inst].Signals {
			rows = append(rows, SignalRow{
				Instrument: string(sig.Instrument),
				Symbol:     sig.Symbol,
				Side:       string(sig.Side),
				Quantity:   sig.Quantity,
				Price:      sig.Price,
				Status:     string(sig.Status),
				Timestamp:  sig.Timestamp.Format(time.RFC3339),
			})
		}
	}
	return rows
}

// TradeRows flattens every instrument's trade book with derived P&L.
func TradeRows(snap store.Snapshot) []TradeRow {
	var rows []TradeRow
	for _, inst := range orderedInstruments(snap) {
		for _, t := range snap.ByInst[inst].Trades {
			rows = append(rows, TradeRow{
				Instrument: string(inst),
				Symbol:     t.Symbol,
				Side:       string(t.Side),
				Quantity:   t.Quantity,
				AvgPrice:   t.AvgPrice,
				LTP:        t.LTP,
				PnLPercent: derive.TradePnLPercent(t),
				PnLAbs:     derive.TradePnLAbsolute(t),
				Status:     string(t.Status),
			})
		}
	}
	return rows
}

// LogRows flattens the system log followed by each instrument's log.
func LogRows(snap store.Snapshot) []LogRow {
	var rows []LogRow
	for _, line := range snap.SystemLog {
		rows = append(rows, logRow(line, "SYSTEM"))
	}
	for _, inst := range orderedInstruments(snap) {
		for _, line := range snap.ByInst[inst].Logs {
			rows = append(rows, logRow(line, string(inst)))
		}
	}
	return rows
}

func logRow(line models.LogLine, scope string) LogRow {
	return LogRow{
		Timestamp: line.Timestamp.Format(time.RFC3339),
		Scope:     scope,
		Message:   line.Message,
	}
}

// WriteCSV serializes rows to w. rows must be a slice of row structs.
func WriteCSV(rows any, w io.Writer) error {
	return gocsv.Marshal(rows, w)
}
