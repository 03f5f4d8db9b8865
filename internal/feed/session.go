package feed

import (
	"fmt"
	"time"
)

// Session labels where a timestamp falls in the exchange trading day.
type Session string

const (
	SessionClosed     Session = "CLOSED"
	SessionPreMarket  Session = "PRE_MARKET"
	SessionRegular    Session = "REGULAR"
	SessionAfterHours Session = "AFTER_HOURS"
)

// MarketClock classifies timestamps against the US equity session grid:
// pre-market 04:00, regular 09:30, after-hours 16:00 to 20:00, local
// exchange time. Holidays are not modeled.
type MarketClock struct {
	loc *time.Location
}

// NewMarketClock loads the exchange timezone, e.g. "America/New_York".
func NewMarketClock(tz string) (*MarketClock, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", tz, err)
	}
	return &MarketClock{loc: loc}, nil
}

// Session returns the session containing t. Weekends are CLOSED.
func (m *MarketClock) Session(t time.Time) Session {
	local := t.In(m.loc)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return SessionClosed
	}

	minutes := local.Hour()*60 + local.Minute()
	switch {
	case minutes >= 4*60 && minutes < 9*60+30:
		return SessionPreMarket
	case minutes >= 9*60+30 && minutes < 16*60:
		return SessionRegular
	case minutes >= 16*60 && minutes < 20*60:
		return SessionAfterHours
	default:
		return SessionClosed
	}
}

// Open reports whether any session is live at t.
func (m *MarketClock) Open(t time.Time) bool {
	return m.Session(t) != SessionClosed
}
