package backtest

import (
	"context"

	"stock-signal-lab/internal/config"
	"stock-signal-lab/internal/metrics"
	"stock-signal-lab/internal/storage"
)

// Analyzer groups closed trades by entry score and measures score
// filters against the trade log.
type Analyzer struct {
	tradeLogStore storage.TradeLogStore
	buckets       []bucketDef
}

// NewAnalyzer creates an analyzer whose buckets follow the given
// category thresholds.
func NewAnalyzer(tradeLogStore storage.TradeLogStore, cats config.CategoryThresholds) *Analyzer {
	return &Analyzer{
		tradeLogStore: tradeLogStore,
		buckets:       bucketsFrom(cats),
	}
}

// ByBucket returns per-bucket trade statistics in ascending score order.
// Buckets with no trades carry zero-valued stats rather than being
// dropped, so reports always show the full grid.
func (a *Analyzer) ByBucket(ctx context.Context) ([]ScoreBucket, error) {
	out := make([]ScoreBucket, 0, len(a.buckets))
	for _, b := range a.buckets {
		trades, err := a.tradeLogStore.GetByScoreRange(ctx, b.low, b.high)
		if err != nil {
			return nil, err
		}
		out = append(out, ScoreBucket{
			Label: b.label,
			Low:   b.low,
			High:  b.high,
			Stats: metrics.Compute(trades),
		})
	}
	return out, nil
}

// FilterImpact computes the effect of a single minimum-score entry
// filter over the whole log.
func (a *Analyzer) FilterImpact(ctx context.Context, minScore float64) (*FilterImpact, error) {
	trades, err := a.tradeLogStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	impact := &FilterImpact{MinScore: minScore}
	originalWins, filteredWins := 0, 0
	for _, tl := range trades {
		impact.OriginalTrades++
		impact.OriginalPnL += tl.PnL
		if tl.PnL > 0 {
			originalWins++
		}
		if tl.EntryScore >= minScore {
			impact.FilteredTrades++
			impact.FilteredPnL += tl.PnL
			if tl.PnL > 0 {
				filteredWins++
			}
		} else {
			impact.AvoidedTrades++
			impact.AvoidedPnL += tl.PnL
		}
	}

	if impact.OriginalTrades > 0 {
		impact.OriginalWinRate = float64(originalWins) / float64(impact.OriginalTrades)
		impact.TradeReductionPct = float64(impact.AvoidedTrades) / float64(impact.OriginalTrades) * 100
	}
	if impact.FilteredTrades > 0 {
		impact.FilteredWinRate = float64(filteredWins) / float64(impact.FilteredTrades)
	}
	impact.PnLImprovement = impact.FilteredPnL - impact.OriginalPnL
	return impact, nil
}

// FilterSweep evaluates several minimum-score filters in the order
// given.
func (a *Analyzer) FilterSweep(ctx context.Context, minScores []float64) ([]*FilterImpact, error) {
	out := make([]*FilterImpact, 0, len(minScores))
	for _, ms := range minScores {
		impact, err := a.FilterImpact(ctx, ms)
		if err != nil {
			return nil, err
		}
		out = append(out, impact)
	}
	return out, nil
}

// BestByWinRate picks the impact with the highest filtered win rate,
// preferring the earlier entry on ties. Returns nil for an empty sweep.
func BestByWinRate(impacts []*FilterImpact) *FilterImpact {
	var best *FilterImpact
	for _, impact := range impacts {
		if best == nil || impact.FilteredWinRate > best.FilteredWinRate {
			best = impact
		}
	}
	return best
}
