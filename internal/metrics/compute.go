// Package metrics turns trade logs into summary statistics: win rates,
// PnL distribution, profit factor and drawdown.
package metrics

import (
	"math"
	"sort"

	"stock-signal-lab/internal/domain"
)

// computeFromTrades calculates all statistics for one set of trades.
// Trades are sorted by ExitTimeMs ASC, PositionID ASC before computing
// order-dependent metrics (MaxDrawdown, MaxConsecutiveLosses).
func computeFromTrades(trades []*domain.TradeLog, instrument string) *domain.TradeStats {
	n := len(trades)
	if n == 0 {
		return &domain.TradeStats{Instrument: instrument}
	}

	sorted := make([]*domain.TradeLog, n)
	copy(sorted, trades)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].ExitTimeMs != sorted[j].ExitTimeMs {
			return sorted[i].ExitTimeMs < sorted[j].ExitTimeMs
		}
		return sorted[i].PositionID < sorted[j].PositionID
	})

	wins, losses := 0, 0
	grossProfit, grossLoss := 0.0, 0.0
	var holdingTotal int64
	pnls := make([]float64, n)
	for i, tl := range sorted {
		pnls[i] = tl.PnL
		holdingTotal += tl.HoldingMs
		if tl.PnL > 0 {
			wins++
			grossProfit += tl.PnL
		} else {
			losses++
			grossLoss += -tl.PnL
		}
	}

	sortedPnLs := make([]float64, n)
	copy(sortedPnLs, pnls)
	sort.Float64s(sortedPnLs)

	mean := computeMean(pnls)

	return &domain.TradeStats{
		Instrument: instrument,

		TotalTrades: n,
		Wins:        wins,
		Losses:      losses,
		WinRate:     float64(wins) / float64(n),

		NetPnL:       grossProfit - grossLoss,
		GrossProfit:  grossProfit,
		GrossLoss:    grossLoss,
		ProfitFactor: computeProfitFactor(grossProfit, grossLoss),

		PnLMean:   mean,
		PnLMedian: computePercentile(sortedPnLs, 0.50),
		PnLP10:    computePercentile(sortedPnLs, 0.10),
		PnLP25:    computePercentile(sortedPnLs, 0.25),
		PnLP75:    computePercentile(sortedPnLs, 0.75),
		PnLP90:    computePercentile(sortedPnLs, 0.90),
		PnLMin:    sortedPnLs[0],
		PnLMax:    sortedPnLs[n-1],
		PnLStddev: computeStddev(pnls, mean),

		MaxDrawdown:          computeMaxDrawdown(pnls),
		MaxConsecutiveLosses: computeMaxConsecutiveLosses(pnls),
		AvgHoldingMs:         holdingTotal / int64(n),
	}
}

// computeProfitFactor divides gross profit by gross loss. With no losing
// trades the gross profit itself is reported, keeping the value finite.
func computeProfitFactor(grossProfit, grossLoss float64) float64 {
	if grossLoss > 0 {
		return grossProfit / grossLoss
	}
	return grossProfit
}

// computeMean calculates the arithmetic mean.
func computeMean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// computeStddev calculates the sample standard deviation (n-1
// denominator, the unbiased estimator).
func computeStddev(values []float64, mean float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	sumSq := 0.0
	for _, v := range values {
		diff := v - mean
		sumSq += diff * diff
	}
	return math.Sqrt(sumSq / float64(n-1))
}

// computePercentile uses linear interpolation on a pre-sorted slice.
// p is the percentile as a fraction (0.10 = 10th percentile).
func computePercentile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n == 1 {
		return sorted[0]
	}

	idx := p * float64(n-1)
	lower := int(idx)
	upper := lower + 1
	if upper >= n {
		return sorted[n-1]
	}

	frac := idx - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// computeMaxDrawdown calculates the worst peak-to-trough drop on the
// cumulative PnL curve. PnLs must be in chronological order.
func computeMaxDrawdown(pnls []float64) float64 {
	cumulative := 0.0
	peak := 0.0
	maxDrawdown := 0.0

	for _, pnl := range pnls {
		cumulative += pnl
		if cumulative > peak {
			peak = cumulative
		}
		if dd := peak - cumulative; dd > maxDrawdown {
			maxDrawdown = dd
		}
	}
	return maxDrawdown
}

// computeMaxConsecutiveLosses finds the longest streak of PnL <= 0.
// PnLs must be in chronological order.
func computeMaxConsecutiveLosses(pnls []float64) int {
	maxStreak, streak := 0, 0
	for _, pnl := range pnls {
		if pnl <= 0 {
			streak++
			if streak > maxStreak {
				maxStreak = streak
			}
		} else {
			streak = 0
		}
	}
	return maxStreak
}
