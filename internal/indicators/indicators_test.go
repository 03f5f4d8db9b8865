package indicators

import (
	"math"
	"testing"

	"stock-signal-lab/internal/domain"
)

const eps = 1e-9

func TestComputeRSI_AllGains(t *testing.T) {
	closes := make([]float64, 16)
	for i := range closes {
		closes[i] = 100 + float64(i)
	}

	rsi := computeRSI(closes, 14)

	if rsi != 100 {
		t.Errorf("expected RSI 100 for monotonic gains, got %f", rsi)
	}
}

func TestComputeRSI_FlatSeries(t *testing.T) {
	closes := make([]float64, 16)
	for i := range closes {
		closes[i] = 100
	}

	rsi := computeRSI(closes, 14)

	if rsi != 50 {
		t.Errorf("expected RSI 50 for flat series, got %f", rsi)
	}
}

func TestComputeRSI_WilderSmoothing(t *testing.T) {
	// Changes: +1, -1, +1. Seed over first 2: avgGain 0.5, avgLoss 0.5.
	// Third change smooths: avgGain (0.5+1)/2 = 0.75, avgLoss 0.5/2 = 0.25.
	// RS = 3, RSI = 100 - 100/4 = 75.
	rsi := computeRSI([]float64{10, 11, 10, 11}, 2)

	if math.Abs(rsi-75) > eps {
		t.Errorf("expected RSI 75, got %f", rsi)
	}
}

func TestComputeRSI_AllLosses(t *testing.T) {
	closes := make([]float64, 16)
	for i := range closes {
		closes[i] = 100 - float64(i)
	}

	rsi := computeRSI(closes, 14)

	if rsi != 0 {
		t.Errorf("expected RSI 0 for monotonic losses, got %f", rsi)
	}
}

func TestComputeSMA(t *testing.T) {
	sma := computeSMA([]float64{1, 2, 3, 4}, 2)

	if math.Abs(sma-3.5) > eps {
		t.Errorf("expected SMA 3.5 over trailing window, got %f", sma)
	}
}

func TestComputeEMA(t *testing.T) {
	// Seed SMA(2) = 3, multiplier 2/3: ema = 3 + (8-3)*2/3 = 19/3.
	ema := computeEMA([]float64{2, 4, 8}, 2)

	if math.Abs(ema-19.0/3.0) > eps {
		t.Errorf("expected EMA 19/3, got %f", ema)
	}
}

func TestComputeEMASeries_AlignsWithFinalEMA(t *testing.T) {
	closes := []float64{2, 4, 8, 6, 7, 9, 12}

	series := computeEMASeries(closes, 3)

	if len(series) != len(closes)-3+1 {
		t.Fatalf("expected %d entries, got %d", len(closes)-3+1, len(series))
	}
	if math.Abs(series[len(series)-1]-computeEMA(closes, 3)) > eps {
		t.Errorf("series tail %f does not match computeEMA %f",
			series[len(series)-1], computeEMA(closes, 3))
	}
}

func TestComputeMACDHistogram_HandVector(t *testing.T) {
	// fast=1 makes the fast EMA equal the close. Slow EMA(2) over
	// [1,2,3,5]: 1.5, 2.5, 25/6. MACD line: 0.5, 0.5, 5/6.
	// Signal EMA(2): seed 0.5, then 0.5 + (5/6-0.5)*2/3 = 13/18.
	// Histogram = 5/6 - 13/18 = 1/9.
	hist := computeMACDHistogram([]float64{1, 2, 3, 5}, 1, 2, 2)

	if math.Abs(hist-1.0/9.0) > eps {
		t.Errorf("expected histogram 1/9, got %f", hist)
	}
}

func TestComputeMACDHistogram_FlatSeriesIsZero(t *testing.T) {
	closes := make([]float64, 40)
	for i := range closes {
		closes[i] = 50
	}

	hist := computeMACDHistogram(closes, 12, 26, 9)

	if hist != 0 {
		t.Errorf("expected zero histogram for flat series, got %f", hist)
	}
}

func TestComputeBollinger(t *testing.T) {
	// Window mean 14, population variance (16+4+0+4+16)/5 = 8.
	upper, middle, lower := computeBollinger([]float64{10, 12, 14, 16, 18}, 5, 2)

	sigma := math.Sqrt(8)
	if math.Abs(middle-14) > eps {
		t.Errorf("expected middle 14, got %f", middle)
	}
	if math.Abs(upper-(14+2*sigma)) > eps {
		t.Errorf("expected upper %f, got %f", 14+2*sigma, upper)
	}
	if math.Abs(lower-(14-2*sigma)) > eps {
		t.Errorf("expected lower %f, got %f", 14-2*sigma, lower)
	}
}

func TestComputeATR_WilderSmoothing(t *testing.T) {
	candles := []domain.Candle{
		{TimestampMs: 1, Open: 9, High: 10, Low: 8, Close: 9},
		{TimestampMs: 2, Open: 10, High: 11, Low: 9, Close: 10},
		{TimestampMs: 3, Open: 11, High: 12, Low: 10, Close: 11},
		{TimestampMs: 4, Open: 12, High: 15, Low: 11, Close: 14},
	}

	// TRs: 2, 2, 4. Seed (2+2)/2 = 2, then (2*1+4)/2 = 3.
	atr := computeATR(candles, 2)

	if math.Abs(atr-3) > eps {
		t.Errorf("expected ATR 3, got %f", atr)
	}
}

func TestComputeATR_GapCountsFromPriorClose(t *testing.T) {
	// Second candle gaps above the prior close; TR must use the gap, not
	// the bar range.
	candles := []domain.Candle{
		{TimestampMs: 1, Open: 10, High: 10.5, Low: 9.5, Close: 10},
		{TimestampMs: 2, Open: 20, High: 21, Low: 20, Close: 20.5},
	}

	atr := computeATR(candles, 1)

	// TR = max(21-20, |21-10|, |20-10|) = 11.
	if math.Abs(atr-11) > eps {
		t.Errorf("expected ATR 11 across the gap, got %f", atr)
	}
}

func TestClassifyBollinger(t *testing.T) {
	cases := []struct {
		name  string
		close float64
		want  domain.BollingerPosition
	}{
		{"above upper", 21, domain.BollingerAboveUpper},
		{"upper half", 16, domain.BollingerUpperHalf},
		{"at middle", 15, domain.BollingerUpperHalf},
		{"lower half", 12, domain.BollingerLowerHalf},
		{"below lower", 9, domain.BollingerBelowLower},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyBollinger(tc.close, 20, 15, 10)
			if got != tc.want {
				t.Errorf("close %f: expected %s, got %s", tc.close, tc.want, got)
			}
		})
	}
}

func TestClassifyTrend(t *testing.T) {
	cases := []struct {
		name string
		fast float64
		slow float64
		want domain.Trend
	}{
		{"clear uptrend", 103, 100, domain.TrendUp},
		{"clear downtrend", 97, 100, domain.TrendDown},
		{"inside buffer above", 100.4, 100, domain.TrendSideways},
		{"inside buffer below", 99.6, 100, domain.TrendSideways},
		{"exactly at buffer edge", 100.5, 100, domain.TrendSideways},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := classifyTrend(tc.fast, tc.slow, 0.5)
			if got != tc.want {
				t.Errorf("fast %f vs slow %f: expected %s, got %s", tc.fast, tc.slow, tc.want, got)
			}
		})
	}
}
