package scoring

import (
	"stock-signal-lab/internal/config"
	"stock-signal-lab/internal/domain"
)

// Adjustment names, in application order. Penalties run before bonuses.
const (
	AdjFallingKnife     = "falling_knife"
	AdjEarningsWindow   = "earnings_window"
	AdjHighVolatility   = "high_volatility"
	AdjNewsRisk         = "news_risk"
	AdjInsufficientData = "insufficient_data"
	AdjStrongConfluence = "strong_confluence"
	AdjFreshCatalyst    = "fresh_catalyst"
	AdjOversoldUptrend  = "oversold_uptrend"
)

const (
	// Deep-oversold boundary used by the falling-knife, news-risk and
	// confluence rules.
	deepOversoldRSI = 30.0

	// Minimum polarity for the strong-confluence bonus.
	confluenceSentimentMin = 0.3

	// Composite caps applied by the entry-quality gates.
	notOversoldCap = 40.0
	avoidTrendCap  = 45.0
)

// adjContext is the fact set the adjustment predicates read.
type adjContext struct {
	features     *domain.FeatureVector
	sentiment    float64
	articleCount int
	newsAgeHours float64
	earningsSoon bool
}

// adjustmentRule is one multiplicative adjustment. Rules live in a fixed
// slice so the application order is explicit and re-evaluating the same
// inputs reproduces the same result.
type adjustmentRule struct {
	name    string
	setting config.Adjustment
	applies func(adjContext) bool
}

func (e *Engine) buildRules() []adjustmentRule {
	c := e.cfg
	return []adjustmentRule{
		{
			name:    AdjFallingKnife,
			setting: c.FallingKnife,
			applies: func(x adjContext) bool {
				f := x.features
				return f != nil && f.RSI < deepOversoldRSI && lowerBand(f.Bollinger) &&
					f.Trend == domain.TrendDown && f.MACDHistogram < 0
			},
		},
		{
			name:    AdjEarningsWindow,
			setting: c.EarningsWindow,
			applies: func(x adjContext) bool { return x.earningsSoon },
		},
		{
			name:    AdjHighVolatility,
			setting: c.HighVolatility,
			applies: func(x adjContext) bool {
				return x.features != nil && x.features.ATRPct > c.ATRWideMax
			},
		},
		{
			name:    AdjNewsRisk,
			setting: c.NewsRisk,
			applies: func(x adjContext) bool {
				f := x.features
				return f != nil && f.RSI < deepOversoldRSI && lowerBand(f.Bollinger) &&
					x.sentiment < c.SentimentBearish
			},
		},
		{
			name:    AdjInsufficientData,
			setting: c.InsufficientData,
			applies: func(x adjContext) bool { return x.features == nil },
		},
		{
			name:    AdjStrongConfluence,
			setting: c.StrongConfluence,
			applies: func(x adjContext) bool {
				f := x.features
				return f != nil && f.RSI < deepOversoldRSI && f.Bollinger == domain.BollingerBelowLower &&
					x.sentiment > confluenceSentimentMin && f.Trend == domain.TrendUp &&
					f.MACDHistogram > 0
			},
		},
		{
			name:    AdjFreshCatalyst,
			setting: c.FreshCatalyst,
			applies: func(x adjContext) bool {
				return x.articleCount > 0 && x.newsAgeHours < c.FreshCatalystMaxAgeHours
			},
		},
		{
			name:    AdjOversoldUptrend,
			setting: c.OversoldUptrend,
			applies: func(x adjContext) bool {
				f := x.features
				return f != nil && f.RSI < c.RSIOversold && f.Trend == domain.TrendUp &&
					lowerBand(f.Bollinger)
			},
		},
	}
}

// applyAdjustments runs the ordered rule list. Disabled rules never fire.
func (e *Engine) applyAdjustments(score float64, x adjContext) (float64, []domain.AppliedAdjustment) {
	var applied []domain.AppliedAdjustment
	for _, r := range e.rules {
		if !r.setting.Enabled || !r.applies(x) {
			continue
		}
		score *= r.setting.Multiplier
		applied = append(applied, domain.AppliedAdjustment{Name: r.name, Multiplier: r.setting.Multiplier})
	}
	return score, applied
}

// applyGates caps the composite before the adjustments run when the chart
// shape is wrong for a long: RSI too high, wrong band position, or a trend
// that should not be bought. Each gate reads the score as capped by the
// gates before it.
func (e *Engine) applyGates(score float64, f *domain.FeatureVector) (float64, []string) {
	if f == nil {
		return score, nil
	}
	c := e.cfg
	var flags []string

	if f.RSI > c.MaxRSIAnyLong {
		score = min(score, notOversoldCap)
		flags = append(flags, domain.FlagNotOversold)
	}

	if score >= c.Categories.StrongBuy && f.RSI > c.MaxRSIStrongBuy {
		score = min(score, c.Categories.Buy-1)
		flags = append(flags, domain.FlagMissedEntry)
	} else if score >= c.Categories.Buy && f.RSI > c.MaxRSIBuy {
		score = min(score, c.Categories.Caution-1)
		flags = append(flags, domain.FlagMissedEntry)
	}

	if score >= c.Categories.Buy && !lowerBand(f.Bollinger) {
		score = min(score, c.Categories.Caution-1)
		flags = append(flags, domain.FlagWrongBands)
	}

	if score >= c.Categories.StrongBuy && f.Trend != domain.TrendUp {
		score = min(score, c.Categories.Caution-1)
		flags = append(flags, domain.FlagWrongTrend)
	}
	if score >= c.Categories.Buy && f.Trend != domain.TrendUp {
		score = min(score, c.Categories.Caution-1)
		flags = append(flags, domain.FlagUnfavorableTrend)
	}
	if score >= c.Categories.Caution && (f.Trend == domain.TrendSideways || f.Trend == domain.TrendDown) {
		score = min(score, avoidTrendCap)
		flags = append(flags, domain.FlagAvoidTrend)
	}

	return score, flags
}
