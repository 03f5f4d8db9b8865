// Package scoring folds technical, sentiment, momentum, catalyst and
// timing readings into one bounded conviction score.
//
// Five component scorers each produce points on [0,100]. A configured
// weight mapping combines them into a base score, entry-quality gates cap
// the composite when the chart shape is wrong for a long, and an ordered
// list of multiplicative adjustments shapes the final value, which is
// clamped to [0,100] and bucketed into a category. Identical inputs and
// configuration always produce the identical result.
package scoring

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"stock-signal-lab/internal/config"
	"stock-signal-lab/internal/domain"
)

// ErrInvalidConfiguration reports an engine configuration rejected at
// construction. Bad weights or thresholds are fatal, never clamped.
var ErrInvalidConfiguration = errors.New("invalid scoring configuration")

// Input carries everything one scoring call needs. Features is nil when
// indicator extraction failed; the engine then returns a NO_DATA result
// instead of propagating the failure.
type Input struct {
	Instrument   string
	Features     *domain.FeatureVector
	Sentiment    domain.SentimentResult
	EarningsSoon bool
	At           time.Time // evaluation time for the timing bucket
}

// Engine scores instruments. Stateless after construction and safe for
// concurrent use.
type Engine struct {
	cfg   config.ScoringConfig
	loc   *time.Location
	rules []adjustmentRule
}

// NewEngine validates cfg, resolves the timing timezone and builds the
// ordered adjustment list.
func NewEngine(cfg config.ScoringConfig) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfiguration, err)
	}
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: timezone %q: %v", ErrInvalidConfiguration, cfg.Timezone, err)
	}

	e := &Engine{cfg: cfg, loc: loc}
	e.rules = e.buildRules()
	return e, nil
}

// Score evaluates one instrument. A nil feature vector yields a NO_DATA
// result whose total already carries the insufficient-data discount, so
// callers can still rank degraded instruments.
func (e *Engine) Score(in Input) *domain.ScoreResult {
	c := e.cfg

	var technical, momentum float64
	if in.Features != nil {
		technical = e.technicalScore(in.Features)
		momentum = e.momentumScore(in.Features)
	}
	sentiment := e.sentimentScore(in.Sentiment.Value, in.Sentiment.ArticleCount)
	catalyst := e.catalystScore(in.Sentiment.FreshnessHours, in.Sentiment.ArticleCount)
	timing := e.timingScore(in.At)

	components := []domain.ComponentScore{
		{Name: domain.ComponentTechnical, Points: technical, Weight: c.Weights.Technical, Weighted: technical * c.Weights.Technical},
		{Name: domain.ComponentSentiment, Points: sentiment, Weight: c.Weights.Sentiment, Weighted: sentiment * c.Weights.Sentiment},
		{Name: domain.ComponentMomentum, Points: momentum, Weight: c.Weights.Momentum, Weighted: momentum * c.Weights.Momentum},
		{Name: domain.ComponentCatalyst, Points: catalyst, Weight: c.Weights.Catalyst, Weighted: catalyst * c.Weights.Catalyst},
		{Name: domain.ComponentTiming, Points: timing, Weight: c.Weights.Timing, Weighted: timing * c.Weights.Timing},
	}
	var base float64
	for _, comp := range components {
		base += comp.Weighted
	}

	score, flags := e.applyGates(base, in.Features)

	score, applied := e.applyAdjustments(score, adjContext{
		features:     in.Features,
		sentiment:    in.Sentiment.Value,
		articleCount: in.Sentiment.ArticleCount,
		newsAgeHours: in.Sentiment.FreshnessHours,
		earningsSoon: in.EarningsSoon,
	})

	if in.Features != nil && in.Features.ATRPct > c.ATRAbsoluteMax {
		score = min(score, c.VolatilityCapScore)
		flags = append(flags, domain.FlagVolatilityTooHigh)
	}
	if in.Sentiment.ArticleCount < c.RequiredArticles {
		flags = append(flags, domain.FlagInsufficientNews)
	}
	if in.Sentiment.ExcludedCount > 0 {
		flags = append(flags, domain.FlagUnparsableNews)
	}

	score = min(max(score, 0), 100)

	category := e.category(score)
	if in.Features == nil {
		category = domain.CategoryNoData
		flags = append(flags, domain.FlagInsufficientData)
	} else {
		flags = append(flags, e.entryWarnings(category, in.Features)...)
	}
	sort.Strings(flags)

	return &domain.ScoreResult{
		Instrument:  in.Instrument,
		TimestampMs: in.At.UnixMilli(),
		Total:       score,
		Base:        base,
		Category:    category,
		Components:  components,
		Applied:     applied,
		Flags:       flags,
	}
}

// category buckets a final score by the configured thresholds.
func (e *Engine) category(score float64) domain.Category {
	t := e.cfg.Categories
	switch {
	case score >= t.StrongBuy:
		return domain.CategoryStrongBuy
	case score >= t.Buy:
		return domain.CategoryBuy
	case score >= t.Caution:
		return domain.CategoryCaution
	case score >= t.Neutral:
		return domain.CategoryNeutral
	default:
		return domain.CategoryAvoid
	}
}

// entryWarnings annotates BUY-grade results that scored high without the
// pullback shape the composite is meant to reward. Bonuses applied after
// the gates can lift a capped score back over the BUY line; the warnings
// let downstream consumers see that the entry quality is still missing.
func (e *Engine) entryWarnings(cat domain.Category, f *domain.FeatureVector) []string {
	if cat != domain.CategoryBuy && cat != domain.CategoryStrongBuy {
		return nil
	}
	var warns []string
	if f.RSI > e.cfg.MaxRSIBuy {
		warns = append(warns, domain.FlagWarnNotOversold)
	}
	if !lowerBand(f.Bollinger) {
		warns = append(warns, domain.FlagWarnNotInLowerBB)
	}
	if f.Trend != domain.TrendUp {
		warns = append(warns, domain.FlagWarnTrendBearish)
	}
	return warns
}

// lowerBand reports whether the close sits in the lower half of the
// Bollinger envelope or below it.
func lowerBand(p domain.BollingerPosition) bool {
	return p == domain.BollingerBelowLower || p == domain.BollingerLowerHalf
}
