package domain

// Catalyst categories recognized by the headline signal extractor. Each
// maps to one phrase table; PROBLEMS and WEAKNESS only occur on the
// bearish side, GROWTH and PRODUCTS only on the bullish side.
const (
	CatalystNone     = "NONE"
	CatalystEarnings = "EARNINGS"
	CatalystGrowth   = "GROWTH"
	CatalystProducts = "PRODUCTS"
	CatalystAnalyst  = "ANALYST"
	CatalystGuidance = "GUIDANCE"
	CatalystProblems = "PROBLEMS"
	CatalystWeakness = "WEAKNESS"
)

// HeadlineSignal is the extraction result for a single headline.
type HeadlineSignal struct {
	Headline       string
	PublishedAtMs  int64
	Direction      Direction
	Confidence     float64  // [0,1]
	ImpactScore    float64  // [0,100]
	Catalyst       string   // strongest catalyst category, or NONE
	BullishMatches []string // phrases that matched, in table order
	BearishMatches []string
}

// SignalStrength grades a directional prediction.
type SignalStrength string

const (
	StrengthStrong   SignalStrength = "STRONG"
	StrengthModerate SignalStrength = "MODERATE"
	StrengthEmerging SignalStrength = "EMERGING"
	StrengthUnclear  SignalStrength = "UNCLEAR"
)

// ExpectedMove buckets the predicted magnitude.
type ExpectedMove string

const (
	MoveLarge    ExpectedMove = "LARGE"    // > 5%
	MoveModerate ExpectedMove = "MODERATE" // 2-5%
	MoveSmall    ExpectedMove = "SMALL"    // 1-2%
	MoveMinimal  ExpectedMove = "MINIMAL"  // < 1%
)

// AggregateSignal summarizes the headline batch for one instrument.
// Headlines are assumed newest-first, matching the feed order.
type AggregateSignal struct {
	Direction        Direction // BULLISH when bulls outnumber bears by more than one, etc.
	Confidence       float64   // dominant-side share of articles, [0,1]
	Impact           float64   // mean per-headline impact, [0,100]
	Consistency      float64   // largest same-direction share, [0,1]
	RecentTrend      Direction // direction of the newest three headlines
	DominantCatalyst string
	Bullish          int
	Bearish          int
	Neutral          int
	TopSignals       []HeadlineSignal // highest impact first, at most three
}

// Prediction is the directional call derived from an AggregateSignal.
type Prediction struct {
	Direction    Direction
	Strength     SignalStrength
	Confidence   float64 // [0,100]
	ExpectedMove ExpectedMove
	Catalyst     string
	Reasons      []string
	Grade        string // human-readable reliability line
}
