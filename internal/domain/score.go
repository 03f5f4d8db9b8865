package domain

// Category is the trade-quality bucket assigned from the final score.
type Category string

const (
	CategoryStrongBuy Category = "STRONG_BUY"
	CategoryBuy       Category = "BUY"
	CategoryCaution   Category = "CAUTION"
	CategoryNeutral   Category = "NEUTRAL"
	CategoryAvoid     Category = "AVOID"
	CategoryNoData    Category = "NO_DATA"
)

// Score component names, used as keys in the component breakdown and as
// prometheus label values.
const (
	ComponentTechnical = "technical"
	ComponentSentiment = "sentiment"
	ComponentMomentum  = "momentum"
	ComponentCatalyst  = "catalyst"
	ComponentTiming    = "timing"
)

// Quality flags attached to degraded or gated results.
const (
	FlagInsufficientData  = "INSUFFICIENT_DATA"
	FlagInsufficientNews  = "INSUFFICIENT_NEWS"
	FlagUnparsableNews    = "UNPARSABLE_NEWS_DROPPED"
	FlagVolatilityTooHigh = "VOLATILITY_TOO_HIGH"
	FlagEarningsWindow    = "EARNINGS_WINDOW"
	FlagSentimentFallback = "SENTIMENT_FALLBACK"

	// Entry-quality gates that capped the composite score.
	FlagNotOversold      = "NOT_OVERSOLD"
	FlagMissedEntry      = "MISSED_ENTRY"
	FlagWrongBands       = "WRONG_BB_POSITION"
	FlagWrongTrend       = "WRONG_TREND"
	FlagUnfavorableTrend = "UNFAVORABLE_TREND"
	FlagAvoidTrend       = "AVOID_TREND"

	// Warnings attached to BUY-grade results that lack entry quality.
	FlagWarnNotOversold  = "WARNING_NOT_OVERSOLD"
	FlagWarnNotInLowerBB = "WARNING_NOT_IN_LOWER_BB"
	FlagWarnTrendBearish = "WARNING_TREND_NOT_BULLISH"
)

// ComponentScore is one weighted component of the composite.
type ComponentScore struct {
	Name     string  // technical | sentiment | momentum | catalyst | timing
	Points   float64 // raw sub-score on [0,100]
	Weight   float64 // configured weight
	Weighted float64 // Points * Weight
}

// AppliedAdjustment records one multiplicative bonus or penalty that fired.
// Order in the slice is application order.
type AppliedAdjustment struct {
	Name       string
	Multiplier float64
}

// ScoreResult is the full output of one composite scoring call. Produced
// fresh per call; identical inputs and configuration produce identical
// results.
type ScoreResult struct {
	Instrument  string
	TimestampMs int64

	Total      float64          // final score, clamped to [0,100]
	Base       float64          // weighted sum before adjustments
	Category   Category
	Components []ComponentScore    // fixed order: technical, sentiment, momentum, catalyst, timing
	Applied    []AppliedAdjustment // adjustments that fired, in application order
	Flags      []string            // quality flags, sorted
}

// HasFlag reports whether the result carries the given quality flag.
func (r *ScoreResult) HasFlag(flag string) bool {
	for _, f := range r.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// Component returns the named component score and true, or false when the
// result has no such component.
func (r *ScoreResult) Component(name string) (ComponentScore, bool) {
	for _, c := range r.Components {
		if c.Name == name {
			return c, true
		}
	}
	return ComponentScore{}, false
}
