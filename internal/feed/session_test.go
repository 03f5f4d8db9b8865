package feed

import (
	"testing"
	"time"
)

func TestMarketClockSessions(t *testing.T) {
	clock, err := NewMarketClock("America/New_York")
	if err != nil {
		t.Fatalf("NewMarketClock: %v", err)
	}
	ny, _ := time.LoadLocation("America/New_York")

	cases := []struct {
		at   time.Time
		want Session
	}{
		{time.Date(2026, 8, 21, 5, 0, 0, 0, ny), SessionPreMarket},   // Friday 05:00
		{time.Date(2026, 8, 21, 9, 29, 0, 0, ny), SessionPreMarket},  // last pre-market minute
		{time.Date(2026, 8, 21, 9, 30, 0, 0, ny), SessionRegular},    // open
		{time.Date(2026, 8, 21, 15, 59, 0, 0, ny), SessionRegular},   // last regular minute
		{time.Date(2026, 8, 21, 16, 0, 0, 0, ny), SessionAfterHours}, // close
		{time.Date(2026, 8, 21, 19, 59, 0, 0, ny), SessionAfterHours},
		{time.Date(2026, 8, 21, 23, 0, 0, 0, ny), SessionClosed},
		{time.Date(2026, 8, 21, 3, 0, 0, 0, ny), SessionClosed},
		{time.Date(2026, 8, 22, 12, 0, 0, 0, ny), SessionClosed}, // Saturday noon
		{time.Date(2026, 8, 23, 12, 0, 0, 0, ny), SessionClosed}, // Sunday noon
	}
	for _, tc := range cases {
		if got := clock.Session(tc.at); got != tc.want {
			t.Errorf("Session(%s) = %s, want %s", tc.at, got, tc.want)
		}
	}

	if clock.Open(time.Date(2026, 8, 22, 12, 0, 0, 0, ny)) {
		t.Error("Saturday should be closed")
	}
	if !clock.Open(time.Date(2026, 8, 21, 12, 0, 0, 0, ny)) {
		t.Error("Friday noon should be open")
	}
}

func TestMarketClockRejectsBadTimezone(t *testing.T) {
	if _, err := NewMarketClock("Not/AZone"); err == nil {
		t.Fatal("expected error for unknown timezone")
	}
}

func TestMarketClockConvertsFromUTC(t *testing.T) {
	clock, err := NewMarketClock("America/New_York")
	if err != nil {
		t.Fatalf("NewMarketClock: %v", err)
	}

	// 2026-08-21 18:00 UTC is 14:00 in New York (EDT).
	at := time.Date(2026, 8, 21, 18, 0, 0, 0, time.UTC)
	if got := clock.Session(at); got != SessionRegular {
		t.Fatalf("Session = %s, want REGULAR", got)
	}
}
