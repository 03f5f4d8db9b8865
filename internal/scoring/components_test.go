package scoring

import (
	"math"
	"testing"
	"time"

	"stock-signal-lab/internal/config"
	"stock-signal-lab/internal/domain"
)

const scoreEps = 1e-9

func testEngine(t *testing.T) *Engine {
	t.Helper()
	cfg := config.Default().Scoring
	cfg.Timezone = "UTC"
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func fv(rsi float64, bb domain.BollingerPosition, trend domain.Trend, macd, atrPct float64) *domain.FeatureVector {
	return &domain.FeatureVector{
		Price:         100,
		RSI:           rsi,
		Bollinger:     bb,
		Trend:         trend,
		MACDHistogram: macd,
		ATRPct:        atrPct,
	}
}

func TestTechnicalScore_Curve(t *testing.T) {
	e := testEngine(t)
	cases := []struct {
		name string
		rsi  float64
		bb   domain.BollingerPosition
		macd float64
		want float64
	}{
		// 40 + 35 + 25, every sub-part maxed.
		{"perfect setup", 10, domain.BollingerBelowLower, 0.02, 100},
		// RSI at the perfect boundary still earns the full 40.
		{"perfect boundary", 15, domain.BollingerBelowLower, 0.02, 100},
		// 30 + (25-20)/10*10 = 35, 70*0.35 = 24.5, 15 + 0.005/0.01*10 = 20.
		{"strong oversold", 20, domain.BollingerLowerHalf, 0.005, 79.5},
		// Boundary of the strong tier: 30 + 24.5 + 20.
		{"strong boundary", 25, domain.BollingerLowerHalf, 0.005, 74.5},
		// 20 + (35-30)/10*10 = 25, 30*0.35 = 10.5, flat histogram = 10.
		{"mild oversold", 30, domain.BollingerUpperHalf, 0, 45.5},
		// Borderline tier is a flat 10: 10 + 20*0.35 = 7, fading -0.005 = 5.
		{"borderline", 38, domain.BollingerAboveUpper, -0.005, 22},
		// Neutral RSI earns 5; deep negative histogram earns nothing.
		{"neutral rsi", 45, domain.BollingerLowerHalf, -0.02, 29.5},
		// Above neutral the RSI part is zero.
		{"overbought", 60, domain.BollingerLowerHalf, -0.02, 24.5},
	}
	for _, tc := range cases {
		got := e.technicalScore(fv(tc.rsi, tc.bb, domain.TrendUp, tc.macd, 2))
		if math.Abs(got-tc.want) > scoreEps {
			t.Errorf("%s: technicalScore = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestTechnicalScore_MonotonicBelowOversold(t *testing.T) {
	e := testEngine(t)
	prev := -1.0
	for rsi := 34.0; rsi >= 5; rsi-- {
		got := e.technicalScore(fv(rsi, domain.BollingerLowerHalf, domain.TrendUp, 0, 2))
		if got < prev {
			t.Fatalf("technicalScore decreased from %v to %v as RSI fell to %v", prev, got, rsi)
		}
		prev = got
	}
}

func TestSentimentScore_Curve(t *testing.T) {
	e := testEngine(t)
	cases := []struct {
		name     string
		value    float64
		articles int
		want     float64
	}{
		{"euphoric with volume", 0.9, 8, 100},
		{"very bullish boundary", 0.8, 0, 70},
		// 50 + (0.6-0.5)/0.3*20.
		{"bullish", 0.6, 0, 56.0 + 2.0/3},
		// 30 + 0.25/0.5*20.
		{"mildly positive", 0.25, 0, 40},
		{"neutral", 0, 0, 30},
		// (20 + 0.3/0.5*10) / 2: the negative divisor halves the tier.
		{"mildly negative", -0.2, 0, 13},
		{"bearish boundary", -0.5, 0, 10},
		// 20*(1-0.75)/0.5 = 10, halved.
		{"very bearish", -0.75, 0, 5},
		{"floor", -1, 0, 0},
		// Volume points: 1/3*15, then 15+(n-3)/5*15, saturating at 30.
		{"one article", 0, 1, 35},
		{"minimum articles", 0, 3, 45},
		{"mid volume", 0, 5, 51},
		{"optimal volume", 0, 8, 60},
		// Past the noise ceiling the volume part is discounted to 24.
		{"noisy volume", 0, 25, 54},
	}
	for _, tc := range cases {
		got := e.sentimentScore(tc.value, tc.articles)
		if math.Abs(got-tc.want) > scoreEps {
			t.Errorf("%s: sentimentScore(%v, %d) = %v, want %v", tc.name, tc.value, tc.articles, got, tc.want)
		}
	}
}

func TestSentimentScore_NegativeSideMonotonic(t *testing.T) {
	e := testEngine(t)
	prev := -1.0
	for value := -1.0; value < 0; value += 0.05 {
		got := e.sentimentScore(value, 0)
		if got < prev {
			t.Fatalf("sentimentScore decreased from %v to %v at value %v", prev, got, value)
		}
		prev = got
	}
}

func TestMomentumScore_Curve(t *testing.T) {
	e := testEngine(t)
	cases := []struct {
		name  string
		trend domain.Trend
		atr   float64
		want  float64
	}{
		{"uptrend sweet spot", domain.TrendUp, 2, 100},
		{"sweet spot low boundary", domain.TrendUp, 1, 100},
		// Dead chart: 60 + 25 + 0.5*15.
		{"too quiet", domain.TrendUp, 0.5, 92.5},
		{"no range at all", domain.TrendUp, 0, 85},
		// 60*0.6 + 30 + (5-4)/2*10.
		{"sideways acceptable", domain.TrendSideways, 4, 71},
		// 20*0.6 + 15 + (8-6)/3*15.
		{"downtrend risky", domain.TrendDown, 6, 37},
		// 60 + max(0, 15-(10-8)*2).
		{"uptrend too wild", domain.TrendUp, 10, 71},
		{"uptrend untradeable", domain.TrendUp, 20, 60},
	}
	for _, tc := range cases {
		got := e.momentumScore(fv(30, domain.BollingerLowerHalf, tc.trend, 0, tc.atr))
		if math.Abs(got-tc.want) > scoreEps {
			t.Errorf("%s: momentumScore = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestCatalystScore_Curve(t *testing.T) {
	e := testEngine(t)
	cases := []struct {
		name     string
		age      float64
		articles int
		want     float64
	}{
		{"fresh with volume", 3, 8, 100},
		{"fresh boundary", 6, 8, 100},
		// 45 + (12-8)/6*15 = 55, presence 40.
		{"recent", 8, 10, 95},
		// Boundary of recent: 45, presence 25.
		{"recent boundary", 12, 3, 70},
		// 20 + (24-18)/12*25 = 32.5, presence 25.
		{"stale", 18, 3, 57.5},
		// 20, presence 25 + 2/5*15 = 31.
		{"stale boundary", 24, 5, 51},
		// 20 - 6/24*10 = 17.5, presence 25/3.
		{"old news", 30, 1, 17.5 + 25.0/3},
		{"ancient", 80, 0, 0},
		// No news reads as zero age: full recency, no presence.
		{"no news", 0, 0, 60},
	}
	for _, tc := range cases {
		got := e.catalystScore(tc.age, tc.articles)
		if math.Abs(got-tc.want) > scoreEps {
			t.Errorf("%s: catalystScore(%v, %d) = %v, want %v", tc.name, tc.age, tc.articles, got, tc.want)
		}
	}
}

func TestTimingScore_Sessions(t *testing.T) {
	e := testEngine(t)
	monday := func(hour, minute int) time.Time {
		return time.Date(2026, time.March, 9, hour, minute, 0, 0, time.UTC)
	}
	cases := []struct {
		name string
		at   time.Time
		want float64
	}{
		{"premarket", monday(8, 0), 50},
		{"open", monday(9, 30), 100},
		{"open window end", monday(10, 30), 100},
		{"morning", monday(10, 31), 80},
		{"early afternoon end", monday(15, 0), 80},
		{"pre power hour lull", monday(15, 15), 60},
		{"power hour", monday(15, 30), 40},
		{"close", monday(16, 0), 40},
		{"after hours", monday(16, 1), 30},
		{"evening", monday(20, 0), 30},
		{"weekend", time.Date(2026, time.March, 14, 10, 0, 0, 0, time.UTC), 30},
	}
	for _, tc := range cases {
		if got := e.timingScore(tc.at); got != tc.want {
			t.Errorf("%s: timingScore(%v) = %v, want %v", tc.name, tc.at, got, tc.want)
		}
	}
}

func TestTimingScore_ConvertsToConfiguredTimezone(t *testing.T) {
	cfg := config.Default().Scoring
	e, err := NewEngine(cfg)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	// 13:30 UTC on 2026-03-09 is 09:30 in New York (daylight time).
	at := time.Date(2026, time.March, 9, 13, 30, 0, 0, time.UTC)
	if got := e.timingScore(at); got != 100 {
		t.Fatalf("timingScore(%v) = %v, want 100 for the open window", at, got)
	}
}
