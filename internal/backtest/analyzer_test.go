package backtest

import (
	"context"
	"math"
	"testing"

	"stock-signal-lab/internal/config"
	"stock-signal-lab/internal/domain"
	"stock-signal-lab/internal/storage/memory"
)

const btEps = 1e-9

func defaultThresholds() config.CategoryThresholds {
	return config.CategoryThresholds{StrongBuy: 75, Buy: 65, Caution: 50, Neutral: 35}
}

func seededAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	store := memory.NewTradeLogStore()
	ctx := context.Background()

	rows := []struct {
		id    string
		score float64
		pnl   float64
	}{
		{"p1", 40, -3},
		{"p2", 45, 1},
		{"p3", 55, -2},
		{"p4", 65, 4},
		{"p5", 70, -1},
		{"p6", 75, 6},
		{"p7", 80, 2},
		{"p8", 100, 9},
	}
	for i, row := range rows {
		tl := &domain.TradeLog{
			PositionID: row.id,
			Instrument: "AAPL",
			ExitTimeMs: int64((i + 1) * 1000),
			PnL:        row.pnl,
			EntryScore: row.score,
			Win:        row.pnl > 0,
		}
		if err := store.Insert(ctx, tl); err != nil {
			t.Fatalf("seed Insert(%s) failed: %v", row.id, err)
		}
	}
	return NewAnalyzer(store, defaultThresholds())
}

func TestByBucket_GroupsOnCategoryEdges(t *testing.T) {
	analyzer := seededAnalyzer(t)

	buckets, err := analyzer.ByBucket(context.Background())
	if err != nil {
		t.Fatalf("ByBucket failed: %v", err)
	}
	if len(buckets) != 4 {
		t.Fatalf("expected 4 buckets, got %d", len(buckets))
	}

	wantLabels := []string{"0-50 (AVOID)", "50-65 (CAUTION)", "65-75 (BUY)", "75+ (STRONG_BUY)"}
	wantCounts := []int{2, 1, 2, 3}
	wantNet := []float64{-2, -2, 3, 17}
	for i, b := range buckets {
		if b.Label != wantLabels[i] {
			t.Errorf("bucket %d label = %q, want %q", i, b.Label, wantLabels[i])
		}
		if b.Stats.TotalTrades != wantCounts[i] {
			t.Errorf("bucket %q count = %d, want %d", b.Label, b.Stats.TotalTrades, wantCounts[i])
		}
		if math.Abs(b.Stats.NetPnL-wantNet[i]) > btEps {
			t.Errorf("bucket %q NetPnL = %v, want %v", b.Label, b.Stats.NetPnL, wantNet[i])
		}
	}

	// A trade at exactly a threshold belongs to the bucket it opens, the
	// same way the threshold assigns the category: 65 is BUY, 75 is
	// STRONG_BUY, and the clamp ceiling 100 stays in the top bucket.
	if buckets[2].Stats.TotalTrades != 2 || buckets[3].Stats.TotalTrades != 3 {
		t.Error("threshold trades landed in the wrong bucket")
	}
}

func TestByBucket_EmptyLogShowsFullGrid(t *testing.T) {
	analyzer := NewAnalyzer(memory.NewTradeLogStore(), defaultThresholds())

	buckets, err := analyzer.ByBucket(context.Background())
	if err != nil {
		t.Fatalf("ByBucket failed: %v", err)
	}
	if len(buckets) != 4 {
		t.Fatalf("expected 4 buckets, got %d", len(buckets))
	}
	for _, b := range buckets {
		if b.Stats == nil || b.Stats.TotalTrades != 0 {
			t.Errorf("bucket %q not zero-valued: %+v", b.Label, b.Stats)
		}
	}
}

func TestFilterImpact(t *testing.T) {
	analyzer := seededAnalyzer(t)

	impact, err := analyzer.FilterImpact(context.Background(), 65)
	if err != nil {
		t.Fatalf("FilterImpact failed: %v", err)
	}

	if impact.OriginalTrades != 8 || impact.FilteredTrades != 5 || impact.AvoidedTrades != 3 {
		t.Errorf("counts = %d/%d/%d, want 8 original, 5 kept, 3 avoided",
			impact.OriginalTrades, impact.FilteredTrades, impact.AvoidedTrades)
	}
	if math.Abs(impact.OriginalWinRate-0.625) > btEps {
		t.Errorf("OriginalWinRate = %v, want 0.625", impact.OriginalWinRate)
	}
	if math.Abs(impact.FilteredWinRate-0.8) > btEps {
		t.Errorf("FilteredWinRate = %v, want 0.8", impact.FilteredWinRate)
	}
	if math.Abs(impact.OriginalPnL-16) > btEps || math.Abs(impact.FilteredPnL-20) > btEps {
		t.Errorf("PnL = %v/%v, want 16 original, 20 filtered", impact.OriginalPnL, impact.FilteredPnL)
	}
	if math.Abs(impact.AvoidedPnL-(-4)) > btEps {
		t.Errorf("AvoidedPnL = %v, want -4", impact.AvoidedPnL)
	}
	if math.Abs(impact.TradeReductionPct-37.5) > btEps {
		t.Errorf("TradeReductionPct = %v, want 37.5", impact.TradeReductionPct)
	}
	if math.Abs(impact.PnLImprovement-4) > btEps {
		t.Errorf("PnLImprovement = %v, want 4", impact.PnLImprovement)
	}
}

func TestFilterSweepAndBest(t *testing.T) {
	analyzer := seededAnalyzer(t)

	impacts, err := analyzer.FilterSweep(context.Background(), []float64{50, 65, 75})
	if err != nil {
		t.Fatalf("FilterSweep failed: %v", err)
	}
	if len(impacts) != 3 {
		t.Fatalf("expected 3 impacts, got %d", len(impacts))
	}

	if math.Abs(impacts[0].FilteredWinRate-4.0/6.0) > btEps {
		t.Errorf("min 50 win rate = %v, want %v", impacts[0].FilteredWinRate, 4.0/6.0)
	}

	best := BestByWinRate(impacts)
	if best == nil || best.MinScore != 75 {
		t.Fatalf("best filter = %+v, want the 75 cut", best)
	}
	if math.Abs(best.FilteredWinRate-1) > btEps {
		t.Errorf("best win rate = %v, want 1.0", best.FilteredWinRate)
	}

	if BestByWinRate(nil) != nil {
		t.Error("empty sweep should yield nil")
	}
}

func TestFilterImpact_EmptyLog(t *testing.T) {
	analyzer := NewAnalyzer(memory.NewTradeLogStore(), defaultThresholds())

	impact, err := analyzer.FilterImpact(context.Background(), 65)
	if err != nil {
		t.Fatalf("FilterImpact failed: %v", err)
	}
	if impact.OriginalTrades != 0 || impact.OriginalWinRate != 0 || impact.TradeReductionPct != 0 {
		t.Errorf("empty log impact not zero-valued: %+v", impact)
	}
}
