package scoring

import (
	"errors"
	"math"
	"reflect"
	"testing"
	"time"

	"stock-signal-lab/internal/config"
	"stock-signal-lab/internal/domain"
)

func TestNewEngine_RejectsBadWeights(t *testing.T) {
	cfg := config.Default().Scoring
	cfg.Timezone = "UTC"
	cfg.Weights.Technical = 0.25 // sum drops to 0.95

	_, err := NewEngine(cfg)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("NewEngine error = %v, want ErrInvalidConfiguration", err)
	}
}

func TestNewEngine_RejectsUnknownTimezone(t *testing.T) {
	cfg := config.Default().Scoring
	cfg.Timezone = "Mars/Olympus"

	_, err := NewEngine(cfg)
	if !errors.Is(err, ErrInvalidConfiguration) {
		t.Fatalf("NewEngine error = %v, want ErrInvalidConfiguration", err)
	}
}

// The flagship setup: deep pullback in an uptrend with fresh bullish news
// during the open window. Both bonuses stack and the clamp binds.
func TestScore_PullbackWithFreshNewsClampsT100(t *testing.T) {
	e := testEngine(t)
	at := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)

	res := e.Score(Input{
		Instrument: "NVDA",
		Features:   fv(25, domain.BollingerBelowLower, domain.TrendUp, 0, 2.5),
		Sentiment: domain.SentimentResult{
			Value:          0.6,
			ArticleCount:   10,
			FreshnessHours: 8,
		},
		At: at,
	})

	// technical 30+35+10 = 75, sentiment 56.67+30, momentum 100,
	// catalyst 55+40 = 95, timing 100.
	wantPoints := map[string]float64{
		domain.ComponentTechnical: 75,
		domain.ComponentSentiment: 86 + 2.0/3,
		domain.ComponentMomentum:  100,
		domain.ComponentCatalyst:  95,
		domain.ComponentTiming:    100,
	}
	for name, want := range wantPoints {
		comp, ok := res.Component(name)
		if !ok {
			t.Fatalf("missing component %s", name)
		}
		if math.Abs(comp.Points-want) > 1e-6 {
			t.Errorf("%s points = %v, want %v", name, comp.Points, want)
		}
	}

	// 75*0.3 + 86.67*0.25 + 100*0.2 + 95*0.15 + 100*0.1.
	if math.Abs(res.Base-88.41666666666667) > 1e-6 {
		t.Errorf("Base = %v, want 88.4167", res.Base)
	}
	// 88.42 * 1.10 * 1.12 = 108.9, clamped.
	if res.Total != 100 {
		t.Errorf("Total = %v, want 100", res.Total)
	}
	if res.Category != domain.CategoryStrongBuy {
		t.Errorf("Category = %s, want STRONG_BUY", res.Category)
	}
	wantApplied := []domain.AppliedAdjustment{
		{Name: AdjFreshCatalyst, Multiplier: 1.10},
		{Name: AdjOversoldUptrend, Multiplier: 1.12},
	}
	if !reflect.DeepEqual(res.Applied, wantApplied) {
		t.Errorf("Applied = %v, want %v", res.Applied, wantApplied)
	}
	if len(res.Flags) != 0 {
		t.Errorf("Flags = %v, want none", res.Flags)
	}
	if res.Instrument != "NVDA" || res.TimestampMs != at.UnixMilli() {
		t.Errorf("identity = %s/%d, want NVDA/%d", res.Instrument, res.TimestampMs, at.UnixMilli())
	}
}

func TestScore_NoFeaturesYieldsNoData(t *testing.T) {
	e := testEngine(t)
	at := time.Date(2026, time.March, 9, 8, 0, 0, 0, time.UTC)

	res := e.Score(Input{
		Instrument: "META",
		Sentiment: domain.SentimentResult{
			Value:          0.2,
			ArticleCount:   4,
			FreshnessHours: 5,
		},
		At: at,
	})

	if res.Category != domain.CategoryNoData {
		t.Fatalf("Category = %s, want NO_DATA", res.Category)
	}
	// Base keeps the non-technical components: sentiment 56*0.25 +
	// catalyst 88*0.15 + premarket 50*0.1 = 32.2.
	if math.Abs(res.Base-32.2) > 1e-6 {
		t.Errorf("Base = %v, want 32.2", res.Base)
	}
	// 32.2 * 0.3 * 1.10: the data discount and the fresh-news bonus.
	if math.Abs(res.Total-10.626) > 1e-6 {
		t.Errorf("Total = %v, want 10.626", res.Total)
	}
	wantApplied := []domain.AppliedAdjustment{
		{Name: AdjInsufficientData, Multiplier: 0.3},
		{Name: AdjFreshCatalyst, Multiplier: 1.10},
	}
	if !reflect.DeepEqual(res.Applied, wantApplied) {
		t.Errorf("Applied = %v, want %v", res.Applied, wantApplied)
	}
	if !res.HasFlag(domain.FlagInsufficientData) {
		t.Errorf("Flags = %v, want INSUFFICIENT_DATA", res.Flags)
	}
}

func TestScore_AbsoluteVolatilityCeiling(t *testing.T) {
	e := testEngine(t)
	at := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)

	res := e.Score(Input{
		Instrument: "MSTR",
		Features:   fv(25, domain.BollingerBelowLower, domain.TrendUp, 0.02, 13),
		Sentiment: domain.SentimentResult{
			Value:          0.6,
			ArticleCount:   10,
			FreshnessHours: 8,
		},
		At: at,
	})

	// Every bonus in the book cannot outrun a 13% ATR: the ceiling holds.
	if res.Total != 20 {
		t.Errorf("Total = %v, want the 20-point ceiling", res.Total)
	}
	if res.Category != domain.CategoryAvoid {
		t.Errorf("Category = %s, want AVOID", res.Category)
	}
	if !res.HasFlag(domain.FlagVolatilityTooHigh) {
		t.Errorf("Flags = %v, want VOLATILITY_TOO_HIGH", res.Flags)
	}
	// The wide-stop penalty still shows up in the applied trail.
	names := make([]string, len(res.Applied))
	for i, a := range res.Applied {
		names[i] = a.Name
	}
	want := []string{AdjHighVolatility, AdjStrongConfluence, AdjFreshCatalyst, AdjOversoldUptrend}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("Applied names = %v, want %v", names, want)
	}
}

func TestScore_FallingKnifeStacksAndRepeats(t *testing.T) {
	e := testEngine(t)
	in := Input{
		Instrument: "NFLX",
		Features:   fv(25, domain.BollingerBelowLower, domain.TrendDown, -0.02, 4),
		Sentiment: domain.SentimentResult{
			Value:          -0.6,
			ArticleCount:   2,
			FreshnessHours: 3,
		},
		At: time.Date(2026, time.March, 9, 8, 0, 0, 0, time.UTC),
	}

	res := e.Score(in)

	// Base 49.9 sits just under the caution gate, so no cap applies and
	// the multiplicative chain is pure: 49.9 * 0.5 * 0.6 * 1.10.
	if math.Abs(res.Base-49.9) > 1e-6 {
		t.Errorf("Base = %v, want 49.9", res.Base)
	}
	if math.Abs(res.Total-16.467) > 1e-6 {
		t.Errorf("Total = %v, want 16.467", res.Total)
	}
	names := make([]string, len(res.Applied))
	for i, a := range res.Applied {
		names[i] = a.Name
	}
	want := []string{AdjFallingKnife, AdjNewsRisk, AdjFreshCatalyst}
	if !reflect.DeepEqual(names, want) {
		t.Errorf("Applied names = %v, want %v", names, want)
	}

	// Re-scoring the same input must reproduce the result exactly:
	// adjustments never accumulate across evaluations.
	again := e.Score(in)
	if !reflect.DeepEqual(res, again) {
		t.Errorf("second evaluation diverged: %+v vs %+v", res, again)
	}
}

func TestScore_BonusCanLiftGatedScoreBackToBuy(t *testing.T) {
	e := testEngine(t)
	at := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)

	res := e.Score(Input{
		Instrument: "AAPL",
		Features:   fv(40, domain.BollingerBelowLower, domain.TrendUp, 0.02, 2),
		Sentiment: domain.SentimentResult{
			Value:          0.9,
			ArticleCount:   10,
			FreshnessHours: 2,
		},
		At: at,
	})

	// Base 91 is gated to 64 for RSI 40, then fresh news lifts it back to
	// 70.4. The result is a BUY that carries both the gate flag and the
	// not-oversold warning.
	if math.Abs(res.Total-70.4) > 1e-6 {
		t.Errorf("Total = %v, want 70.4", res.Total)
	}
	if res.Category != domain.CategoryBuy {
		t.Errorf("Category = %s, want BUY", res.Category)
	}
	wantFlags := []string{domain.FlagMissedEntry, domain.FlagWarnNotOversold}
	if !reflect.DeepEqual(res.Flags, wantFlags) {
		t.Errorf("Flags = %v, want %v", res.Flags, wantFlags)
	}
}

func TestScore_NewsQualityFlags(t *testing.T) {
	e := testEngine(t)
	at := time.Date(2026, time.March, 10, 11, 0, 0, 0, time.UTC)
	features := fv(45, domain.BollingerUpperHalf, domain.TrendUp, 0.01, 4)

	res := e.Score(Input{Instrument: "AMZN", Features: features, At: at})
	if !res.HasFlag(domain.FlagInsufficientNews) {
		t.Errorf("no articles: Flags = %v, want INSUFFICIENT_NEWS", res.Flags)
	}

	res = e.Score(Input{
		Instrument: "AMZN",
		Features:   features,
		Sentiment:  domain.SentimentResult{Value: 0.1, ArticleCount: 3, ExcludedCount: 2, FreshnessHours: 4},
		At:         at,
	})
	if !res.HasFlag(domain.FlagUnparsableNews) {
		t.Errorf("excluded articles: Flags = %v, want UNPARSABLE_NEWS_DROPPED", res.Flags)
	}
	if res.HasFlag(domain.FlagInsufficientNews) {
		t.Errorf("three usable articles should not flag INSUFFICIENT_NEWS, got %v", res.Flags)
	}
}

func TestScore_ClampNeverExceeded(t *testing.T) {
	e := testEngine(t)
	at := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)

	// Sweep a grid of extremes; the clamp invariant must hold everywhere.
	for _, rsi := range []float64{5, 25, 45, 70} {
		for _, value := range []float64{-1, 0, 1} {
			for _, atr := range []float64{0.5, 2, 9, 15} {
				res := e.Score(Input{
					Instrument: "X",
					Features:   fv(rsi, domain.BollingerBelowLower, domain.TrendUp, 0.02, atr),
					Sentiment:  domain.SentimentResult{Value: value, ArticleCount: 10, FreshnessHours: 1},
					At:         at,
				})
				if res.Total < 0 || res.Total > 100 {
					t.Fatalf("Total = %v out of [0,100] for rsi=%v value=%v atr=%v", res.Total, rsi, value, atr)
				}
			}
		}
	}
}
