package utils

import "time"

// MarketStatus represents the current NSE session state.
type MarketStatus string

const (
	MarketOpen    MarketStatus = "OPEN"
	MarketPreOpen MarketStatus = "PRE_OPEN"
	MarketClosed  MarketStatus = "CLOSED"
)

// IndiaLocation is the timezone for Indian markets.
var IndiaLocation *time.Location

func init() {
	var err error
	IndiaLocation, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback to UTC+5:30
		IndiaLocation = time.FixedZone("IST", 5*60*60+30*60)
	}
}

// GetMarketStatus returns the session state for the current time.
func GetMarketStatus() MarketStatus {
	return MarketStatusAt(time.Now())
}

// MarketStatusAt returns the session state at t.
func MarketStatusAt(t time.Time) MarketStatus {
	now := t.In(IndiaLocation)

	if now.Weekday() == time.Saturday || now.Weekday() == time.Sunday {
		return MarketClosed
	}

	timeMinutes := now.Hour()*60 + now.Minute()

	// Pre-open: 9:00 - 9:15
	if timeMinutes >= 540 && timeMinutes < 555 {
		return MarketPreOpen
	}

	// Market open: 9:15 - 15:30
	if timeMinutes >= 555 && timeMinutes < 930 {
		return MarketOpen
	}

	return MarketClosed
}
