// Package indicators turns a candle series into the feature vector the
// scoring engine consumes: Wilder RSI, Bollinger band position, EMA trend,
// MACD histogram, and Wilder ATR.
package indicators

import (
	"math"

	"stock-signal-lab/internal/domain"
)

// computeRSI calculates Wilder RSI over closes. The first average uses an
// SMA seed over `period` changes; subsequent bars use Wilder smoothing.
// Requires len(closes) >= period+1.
func computeRSI(closes []float64, period int) float64 {
	gains := make([]float64, 0, len(closes)-1)
	losses := make([]float64, 0, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		change := closes[i] - closes[i-1]
		if change > 0 {
			gains = append(gains, change)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, -change)
		}
	}

	avgGain := 0.0
	avgLoss := 0.0
	for i := 0; i < period; i++ {
		avgGain += gains[i]
		avgLoss += losses[i]
	}
	avgGain /= float64(period)
	avgLoss /= float64(period)

	for i := period; i < len(gains); i++ {
		avgGain = (avgGain*float64(period-1) + gains[i]) / float64(period)
		avgLoss = (avgLoss*float64(period-1) + losses[i]) / float64(period)
	}

	if avgLoss == 0 {
		if avgGain == 0 {
			return 50 // flat series
		}
		return 100
	}

	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// computeSMA calculates the simple moving average of the trailing window.
// Requires len(values) >= period.
func computeSMA(values []float64, period int) float64 {
	sum := 0.0
	for i := len(values) - period; i < len(values); i++ {
		sum += values[i]
	}
	return sum / float64(period)
}

// computeEMA calculates the exponential moving average with an SMA seed
// over the first `period` values. Requires len(values) >= period.
func computeEMA(values []float64, period int) float64 {
	multiplier := 2.0 / float64(period+1)
	ema := computeSMA(values[:period], period)
	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
	}
	return ema
}

// computeEMASeries returns the EMA at every bar from index period-1 onward.
// Result[i] corresponds to values[i+period-1].
func computeEMASeries(values []float64, period int) []float64 {
	multiplier := 2.0 / float64(period+1)
	out := make([]float64, 0, len(values)-period+1)

	ema := computeSMA(values[:period], period)
	out = append(out, ema)
	for i := period; i < len(values); i++ {
		ema = (values[i]-ema)*multiplier + ema
		out = append(out, ema)
	}
	return out
}

// computeMACDHistogram calculates the MACD histogram: the fast/slow EMA
// difference minus its signal EMA. Requires len(closes) >= slow+signal.
func computeMACDHistogram(closes []float64, fast, slow, signal int) float64 {
	fastSeries := computeEMASeries(closes, fast)
	slowSeries := computeEMASeries(closes, slow)

	// Align both series on the slow EMA's first bar.
	offset := slow - fast
	macdLine := make([]float64, len(slowSeries))
	for i := range slowSeries {
		macdLine[i] = fastSeries[i+offset] - slowSeries[i]
	}

	signalLine := computeEMA(macdLine, signal)
	return macdLine[len(macdLine)-1] - signalLine
}

// computeBollinger calculates the band envelope over the trailing window
// using the population standard deviation. Requires len(closes) >= period.
func computeBollinger(closes []float64, period int, stdDev float64) (upper, middle, lower float64) {
	middle = computeSMA(closes, period)

	variance := 0.0
	for i := len(closes) - period; i < len(closes); i++ {
		diff := closes[i] - middle
		variance += diff * diff
	}
	sigma := math.Sqrt(variance / float64(period))

	return middle + stdDev*sigma, middle, middle - stdDev*sigma
}

// computeATR calculates Wilder ATR over true ranges, seeded with an SMA of
// the first `period` true ranges. Requires len(candles) >= period+1.
func computeATR(candles []domain.Candle, period int) float64 {
	trueRanges := make([]float64, 0, len(candles)-1)
	for i := 1; i < len(candles); i++ {
		highLow := candles[i].High - candles[i].Low
		highClose := math.Abs(candles[i].High - candles[i-1].Close)
		lowClose := math.Abs(candles[i].Low - candles[i-1].Close)
		trueRanges = append(trueRanges, math.Max(highLow, math.Max(highClose, lowClose)))
	}

	atr := 0.0
	for i := 0; i < period; i++ {
		atr += trueRanges[i]
	}
	atr /= float64(period)

	for i := period; i < len(trueRanges); i++ {
		atr = (atr*float64(period-1) + trueRanges[i]) / float64(period)
	}
	return atr
}

// classifyBollinger locates the close relative to the envelope.
func classifyBollinger(close, upper, middle, lower float64) domain.BollingerPosition {
	switch {
	case close > upper:
		return domain.BollingerAboveUpper
	case close < lower:
		return domain.BollingerBelowLower
	case close >= middle:
		return domain.BollingerUpperHalf
	default:
		return domain.BollingerLowerHalf
	}
}

// classifyTrend compares fast and slow EMAs with a neutrality buffer in
// percent of the slow EMA.
func classifyTrend(fast, slow, bufferPct float64) domain.Trend {
	band := slow * bufferPct / 100
	switch {
	case fast > slow+band:
		return domain.TrendUp
	case fast < slow-band:
		return domain.TrendDown
	default:
		return domain.TrendSideways
	}
}
