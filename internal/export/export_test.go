package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/Raghuak/algo-trading-ui/internal/models"
	"github.com/Raghuak/algo-trading-ui/internal/store"
)

func populatedStore() *store.Store {
	s := store.New(
		[]models.Instrument{models.Nifty, models.BankNifty},
		store.DefaultCapacities(),
		store.Limits{DailyLossLimit: 10000, MarginWarnPercent: 90},
		zerolog.Nop(),
	)
	s.ApplySignal(models.SignalEvent{
		Instrument: models.BankNifty,
		Symbol:     "BANKNIFTY25SEP48200PE",
		Side:       models.SideSell,
		Quantity:   15,
		Price:      210,
		Status:     models.SignalExecuted,
		Timestamp:  time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC),
	})
	s.ApplySignal(models.SignalEvent{
		Instrument: models.Nifty,
		Symbol:     "NIFTY25SEP22500CE",
		Side:       models.SideBuy,
		Quantity:   50,
		Price:      150,
		Status:     models.SignalExecuted,
		Timestamp:  time.Date(2026, 8, 28, 10, 31, 0, 0, time.UTC),
	})
	s.ApplyTick(models.Nifty, 160, time.Now())
	s.RecordFeedEvent("open", "")
	return s
}

func TestTradeRowsCarryBothPnLFigures(t *testing.T) {
	snap := populatedStore().Snapshot()

	rows := TradeRows(snap)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}

	// Instruments are ordered alphabetically: BANKNIFTY before NIFTY.
	if rows[0].Instrument != "BANKNIFTY" || rows[1].Instrument != "NIFTY" {
		t.Fatalf("row order = %s, %s", rows[0].Instrument, rows[1].Instrument)
	}

	// The NIFTY tick at 160 reached both trades via substring match.
	bn := rows[0]
	if bn.LTP != 160 {
		t.Errorf("BANKNIFTY trade LTP = %v, want 160", bn.LTP)
	}

	n := rows[1]
	if n.AvgPrice != 150 || n.LTP != 160 {
		t.Fatalf("NIFTY trade prices = %v/%v", n.AvgPrice, n.LTP)
	}
	wantPct := ((160.0 - 150.0) / 150.0) * 100
	if diff := n.PnLPercent - wantPct; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("PnLPercent = %v, want %v", n.PnLPercent, wantPct)
	}
	if n.PnLAbs != 500 {
		t.Errorf("PnLAbs = %v, want 500", n.PnLAbs)
	}
}

func TestSignalRowsDeterministic(t *testing.T) {
	snap := populatedStore().Snapshot()

	first := SignalRows(snap)
	second := SignalRows(snap)
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("rows = %d/%d, want 2/2", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("projection not deterministic at row %d: %+v vs %+v", i, first[i], second[i])
		}
	}
}

func TestLogRowsSystemFirst(t *testing.T) {
	snap := populatedStore().Snapshot()

	rows := LogRows(snap)
	if len(rows) < 3 {
		t.Fatalf("rows = %d, want system line plus two instrument lines", len(rows))
	}
	if rows[0].Scope != "SYSTEM" {
		t.Errorf("first scope = %s, want SYSTEM", rows[0].Scope)
	}
}

func TestWriteCSV(t *testing.T) {
	snap := populatedStore().Snapshot()

	var buf bytes.Buffer
	if err := WriteCSV(TradeRows(snap), &buf); err != nil {
		t.Fatalf("WriteCSV: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("csv has %d lines, want header plus 2 rows", len(lines))
	}
	header := lines[0]
	for _, col := range []string{"symbol", "side", "quantity", "avg_price", "last_price", "pnl_percent", "pnl_absolute", "status"} {
		if !strings.Contains(header, col) {
			t.Errorf("header %q missing column %q", header, col)
		}
	}
	if !strings.Contains(lines[2], "NIFTY25SEP22500CE") {
		t.Errorf("row %q missing symbol", lines[2])
	}
}
