package reporting

import (
	"strings"
	"testing"

	"stock-signal-lab/internal/domain"
)

func TestParseTradesCSVRoundTrip(t *testing.T) {
	trades := []*domain.TradeLog{
		{
			PositionID: "p1", Instrument: "AAPL",
			EntryTimeMs: 1000, ExitTimeMs: 87_400_000,
			EntryPrice: 100, ExitPrice: 106,
			Shares: 2, PnL: 12, PnLPct: 6,
			ExitStatus: domain.PositionClosedTarget,
			EntryScore: 78.5, HoldingMs: 87_399_000, Win: true,
		},
		{
			PositionID: "p2", Instrument: "MSFT",
			EntryTimeMs: 2000, ExitTimeMs: 90_000_000,
			EntryPrice: 310, ExitPrice: 300.7,
			Shares: 0.5, PnL: -4.65, PnLPct: -3,
			ExitStatus: domain.PositionClosedStop,
			EntryScore: 66, HoldingMs: 89_998_000, Win: false,
		},
	}

	got, err := ParseTradesCSV(strings.NewReader(RenderTradesCSV(trades)))
	if err != nil {
		t.Fatalf("ParseTradesCSV: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("trades = %d, want 2", len(got))
	}
	if got[0].PositionID != "p1" || got[0].ExitStatus != domain.PositionClosedTarget || !got[0].Win {
		t.Errorf("first trade mismatch: %+v", got[0])
	}
	if got[1].PnL != -4.65 || got[1].Shares != 0.5 || got[1].Win {
		t.Errorf("second trade mismatch: %+v", got[1])
	}
	if got[1].EntryScore != 66 {
		t.Errorf("EntryScore = %v, want 66", got[1].EntryScore)
	}
}

func TestParseTradesCSVRejectsBadInput(t *testing.T) {
	header := strings.Join(tradesHeader, ",") + "\n"

	cases := []struct {
		name string
		in   string
	}{
		{"wrong header", "id,instrument\np1,AAPL\n"},
		{"short row", header + "p1,AAPL,1000\n"},
		{"bad float", header + "p1,AAPL,1000,2000,abc,106.0,2,12,6,CLOSED_TARGET,78.5,1000,true\n"},
		{"bad win", header + "p1,AAPL,1000,2000,100,106.0,2,12,6,CLOSED_TARGET,78.5,1000,maybe\n"},
		{"empty position id", header + ",AAPL,1000,2000,100,106.0,2,12,6,CLOSED_TARGET,78.5,1000,true\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := ParseTradesCSV(strings.NewReader(tc.in)); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestParseTradesCSVEmptyBody(t *testing.T) {
	got, err := ParseTradesCSV(strings.NewReader(strings.Join(tradesHeader, ",") + "\n"))
	if err != nil {
		t.Fatalf("ParseTradesCSV: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("trades = %d, want 0", len(got))
	}
}
