// Package alignment reconciles the technical picture of an instrument with
// the direction of its news flow. Each side is reduced to a signed lean in
// [-1, 1]; the pair lands on a 2-D table where agreement in sign and
// strength is confluence, agreement in sign alone is alignment, a weak or
// missing side is neutral, and opposite signs are divergence. The
// classifier is a pure function of its inputs and keeps no state.
package alignment

import (
	"fmt"
	"math"

	"stock-signal-lab/internal/config"
	"stock-signal-lab/internal/domain"
)

// Lean cutoffs for the technical side. The technical lean is the mean of
// three votes (RSI, band position, trend), so these are fractions of full
// agreement among the votes.
const (
	strongLean  = 0.6
	neutralLean = 0.2
)

// Classifier maps a feature vector and a sentiment reading onto an
// alignment category and score.
type Classifier struct {
	cfg config.AlignmentConfig
}

// NewClassifier returns a classifier using the given cuts. Validation of
// the cuts happens at config load.
func NewClassifier(cfg config.AlignmentConfig) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify derives both directions and places them on the table. A nil
// feature vector leaves the technical side neutral; thin or flat news
// leaves the news side neutral. The score is 5 + 5 * (technical lean *
// news lean), so full agreement scores 10, full disagreement 0, and a
// missing side pins the score at the midpoint.
func (c *Classifier) Classify(features *domain.FeatureVector, sentiment domain.SentimentResult) domain.AlignmentResult {
	tech := c.technicalLean(features)
	news := c.newsLean(sentiment)
	techDir := direction(tech)
	newsDir := direction(news)

	res := domain.AlignmentResult{
		Score:     5 + 5*tech*news,
		Technical: techDir,
		News:      newsDir,
	}

	newsStrong := newsDir != domain.DirectionNeutral && math.Abs(sentiment.Value) >= c.cfg.StrongSentiment
	techStrong := math.Abs(tech) >= strongLean

	switch {
	case techDir == domain.DirectionNeutral || newsDir == domain.DirectionNeutral:
		res.Category = domain.AlignNeutral
	case techDir != newsDir:
		res.Category = domain.AlignDivergence
	case techStrong && newsStrong:
		res.Category = domain.AlignStrongConfluence
	default:
		res.Category = domain.AlignAligned
	}

	res.Warning = c.warning(res.Category, techDir, newsDir, features)
	return res
}

// technicalLean averages three votes in [-1, 1]. RSI leans bullish below
// the configured ceiling (a dip is a long setup here) and bearish above
// it; the band vote rewards the lower envelope; the trend vote follows
// the EMA ordering.
func (c *Classifier) technicalLean(f *domain.FeatureVector) float64 {
	if f == nil {
		return 0
	}
	rsi := (c.cfg.RSITooHighForBuy - f.RSI) / c.cfg.RSITooHighForBuy
	rsi = min(max(rsi, -1), 1)

	var band float64
	switch f.Bollinger {
	case domain.BollingerBelowLower:
		band = 1
	case domain.BollingerLowerHalf:
		band = 0.5
	case domain.BollingerUpperHalf:
		band = -0.5
	case domain.BollingerAboveUpper:
		band = -1
	}

	var trend float64
	switch f.Trend {
	case domain.TrendUp:
		trend = 1
	case domain.TrendDown:
		trend = -1
	}

	return (rsi + band + trend) / 3
}

// newsLean scales the sentiment value against the strong cut, capped at
// full strength. Too few articles or a value inside the weak band reads
// as no signal at all.
func (c *Classifier) newsLean(s domain.SentimentResult) float64 {
	if s.ArticleCount < c.cfg.MinArticles {
		return 0
	}
	if math.Abs(s.Value) < c.cfg.WeakSentiment {
		return 0
	}
	mag := min(math.Abs(s.Value)/c.cfg.StrongSentiment, 1)
	return math.Copysign(mag, s.Value)
}

func direction(lean float64) domain.Direction {
	switch {
	case lean >= neutralLean:
		return domain.DirectionBullish
	case lean <= -neutralLean:
		return domain.DirectionBearish
	default:
		return domain.DirectionNeutral
	}
}

// warning attaches the caution text for the riskier table cells. Bullish
// chart-vs-news checks only fire when the technical side is not already
// bullish, since a confirmed setup needs no wait advice.
func (c *Classifier) warning(cat domain.AlignmentCategory, techDir, newsDir domain.Direction, f *domain.FeatureVector) string {
	bullishNews := newsDir == domain.DirectionBullish
	switch {
	case techDir == domain.DirectionBearish && newsDir == domain.DirectionBearish:
		return "technicals and news agree to the downside, avoid"
	case cat == domain.AlignDivergence && newsDir == domain.DirectionBearish:
		return "technical buy setup against bearish news, high risk"
	case bullishNews && techDir != domain.DirectionBullish && f != nil && f.RSI > c.cfg.RSITooHighForBuy:
		return fmt.Sprintf("bullish news but RSI %.0f is not oversold, wait for a dip", f.RSI)
	case bullishNews && techDir != domain.DirectionBullish && f != nil && f.Trend == domain.TrendDown:
		return "bullish news against a downtrend, wait for a reversal"
	case cat == domain.AlignDivergence && bullishNews:
		return "bullish news but the technical setup disagrees"
	}
	return ""
}
