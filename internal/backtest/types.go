// Package backtest evaluates how the composite score predicted trade
// outcomes: it groups the trade log into score buckets aligned with the
// category thresholds and measures the impact of minimum-score entry
// filters.
package backtest

import (
	"fmt"
	"math"

	"stock-signal-lab/internal/config"
	"stock-signal-lab/internal/domain"
)

// ScoreBucket is one score interval [Low, High) with the statistics of
// the trades that entered inside it. The top bucket is unbounded above.
type ScoreBucket struct {
	Label string
	Low   float64
	High  float64 // exclusive
	Stats *domain.TradeStats
}

// FilterImpact reports what restricting entries to Score >= MinScore
// would have changed, against the unfiltered log. Win rates are
// fractions; TradeReductionPct is a percentage of the original count.
type FilterImpact struct {
	MinScore float64

	OriginalTrades  int
	OriginalWinRate float64
	OriginalPnL     float64

	FilteredTrades  int
	FilteredWinRate float64
	FilteredPnL     float64

	AvoidedTrades int
	AvoidedPnL    float64

	TradeReductionPct float64
	PnLImprovement    float64 // FilteredPnL - OriginalPnL
}

type bucketDef struct {
	label string
	low   float64
	high  float64
}

// bucketsFrom derives the four score buckets from the category cut
// points, so the buckets stay aligned with category assignment when the
// thresholds are reconfigured.
func bucketsFrom(cats config.CategoryThresholds) []bucketDef {
	return []bucketDef{
		{fmt.Sprintf("0-%g (AVOID)", cats.Caution), 0, cats.Caution},
		{fmt.Sprintf("%g-%g (CAUTION)", cats.Caution, cats.Buy), cats.Caution, cats.Buy},
		{fmt.Sprintf("%g-%g (BUY)", cats.Buy, cats.StrongBuy), cats.Buy, cats.StrongBuy},
		{fmt.Sprintf("%g+ (STRONG_BUY)", cats.StrongBuy), cats.StrongBuy, math.Inf(1)},
	}
}
