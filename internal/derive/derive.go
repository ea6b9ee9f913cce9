// Package derive computes P&L and risk classifications from current
// trade and risk state. Everything here is pure and recomputed on
// demand; nothing is cached.
package derive

import "github.com/Raghuak/algo-trading-ui/internal/models"

// DefaultWarnFraction is the fraction of a limit at which the risk
// level moves from normal to warn.
const DefaultWarnFraction = 0.8

// PnLPercent returns the percentage P&L for a position entered at
// avgPrice and marked at ltp. Returns 0 when avgPrice is 0.
func PnLPercent(side models.Side, avgPrice, ltp float64) float64 {
	if avgPrice == 0 {
		return 0
	}
	if side == models.SideSell {
		return ((avgPrice - ltp) / avgPrice) * 100
	}
	return ((ltp - avgPrice) / avgPrice) * 100
}

// PnLAbsolute returns the absolute P&L for qty units entered at
// avgPrice and marked at ltp.
func PnLAbsolute(side models.Side, avgPrice, ltp float64, qty int) float64 {
	if side == models.SideSell {
		return (avgPrice - ltp) * float64(qty)
	}
	return (ltp - avgPrice) * float64(qty)
}

// TradePnLPercent is PnLPercent applied to a trade record.
func TradePnLPercent(t models.Trade) float64 {
	return PnLPercent(t.Side, t.AvgPrice, t.LTP)
}

// TradePnLAbsolute is PnLAbsolute applied to a trade record.
func TradePnLAbsolute(t models.Trade) float64 {
	return PnLAbsolute(t.Side, t.AvgPrice, t.LTP, t.Quantity)
}

// RiskLevel classifies dailyLoss and marginUsed against their limits.
// Boundaries are inclusive: equality with a limit is a breach, not a
// warn.
func RiskLevel(dailyLoss, marginUsed, dailyLossLimit, marginWarnPct, warnFraction float64) models.RiskLevel {
	if dailyLoss >= dailyLossLimit || marginUsed >= marginWarnPct {
		return models.RiskBreach
	}
	if dailyLoss >= dailyLossLimit*warnFraction || marginUsed >= marginWarnPct*warnFraction {
		return models.RiskWarn
	}
	return models.RiskNormal
}
