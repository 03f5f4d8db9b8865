package decision

// Rule names in chain order. The advisor walks this order and the first
// match decides.
const (
	RuleNoData           = "NO_DATA"
	RuleInsufficientData = "INSUFFICIENT_DATA"
	RuleWideStops        = "WIDE_STOPS"
	RuleFallingKnife     = "FALLING_KNIFE"
	RuleStrongBuy        = "STRONG_BUY"
	RuleStrongSell       = "STRONG_SELL"
	RuleNewsRisk         = "NEWS_RISK"
	RuleBuy              = "BUY"
	RuleSell             = "SELL"
	RuleHighVolatility   = "HIGH_VOLATILITY"
	RuleSentimentCaution = "SENTIMENT_CAUTION"
	RuleHold             = "HOLD"
)

// Advisory labels. Some rules produce more than one label depending on
// volatility or sentiment sign.
const (
	LabelNoData           = "NO DATA"
	LabelInsufficientData = "INSUFFICIENT DATA"
	LabelWideStopsCaution = "WIDE STOPS - CAUTION"
	LabelWideStopsAvoid   = "WIDE STOPS - AVOID"
	LabelFallingKnife     = "FALLING KNIFE - WAIT"
	LabelStrongBuy        = "STRONG BUY"
	LabelBuyWatchStops    = "BUY - WATCH STOPS"
	LabelStrongSell       = "STRONG SELL"
	LabelNewsRisk         = "AVOID - NEWS RISK"
	LabelBuy              = "BUY"
	LabelSell             = "SELL"
	LabelHighVolatility   = "HIGH VOLATILITY"
	LabelCautionBullish   = "CAUTION - BULLISH SENTIMENT"
	LabelCautionBearish   = "CAUTION - BEARISH SENTIMENT"
	LabelHold             = "HOLD"
)

// RuleTrace records one evaluated rule for the advisory checklist. Rules
// past the first match are still evaluated so reports can show
// near-misses.
type RuleTrace struct {
	Name      string
	Condition string // threshold expression in prose
	Actual    string // observed values, "-" when no features exist
	Matched   bool
}
