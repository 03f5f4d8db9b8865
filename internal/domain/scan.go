package domain

// Recommendation is the advisory output of the rule chain, independent of
// the numeric score.
type Recommendation struct {
	Label  string // e.g. "BUY - OVERSOLD BOUNCE", "HOLD"
	Action string // BUY | SELL | HOLD | AVOID | WAIT
	Reason string // the rule condition that matched
}

// Rule chain actions.
const (
	ActionBuy   = "BUY"
	ActionSell  = "SELL"
	ActionHold  = "HOLD"
	ActionAvoid = "AVOID"
	ActionWait  = "WAIT"
)

// ScanRecord is the full analysis row for one instrument in one scan
// cycle: the row the persistence collaborator stores and reports render.
type ScanRecord struct {
	ScanID      string // deterministic hash of instrument + scan time
	Instrument  string
	TimestampMs int64

	// Inputs as observed
	Price         float64
	RSI           float64
	Bollinger     BollingerPosition
	Trend         Trend
	ATRPct        float64
	MACDHistogram float64
	Sentiment     float64
	ArticleCount  int
	NewsAgeHours  float64
	EarningsSoon  bool

	// Derived outputs
	Score          float64
	Category       Category
	Components     []ComponentScore
	Adjustments    []AppliedAdjustment
	Flags          []string
	Alignment      AlignmentCategory
	AlignmentScore float64
	NewsDirection  Direction
	NewsConfidence float64 // [0,100]
	Recommendation Recommendation
	SuggestedStop  float64
}
