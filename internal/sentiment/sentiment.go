// Package sentiment scores news headlines into a [-1,1] polarity. Two
// interchangeable backends exist: a keyword tally and an external model
// endpoint. The Analyzer wraps a backend, applies the publish-time
// exclusion policy, and falls back to the keyword tally when the model
// backend fails.
package sentiment

import (
	"context"
	"errors"
	"time"

	"stock-signal-lab/internal/config"
	"stock-signal-lab/internal/domain"
)

// Backend scores a batch of headlines for one instrument. Implementations
// must return a value in [-1,1] and treat an empty batch as neutral.
type Backend interface {
	Name() string
	Score(ctx context.Context, instrument string, headlines []domain.Headline) (float64, error)
}

// NewBackendFromConfig builds the backend the config names. "ai" needs an
// endpoint; any other value gets the keyword tally with the configured
// lexicon. A nil now falls back to time.Now.
func NewBackendFromConfig(cfg config.SentimentConfig, now func() time.Time) (Backend, error) {
	if cfg.Backend == "ai" {
		if cfg.AI.Endpoint == "" {
			return nil, errors.New("sentiment: ai backend requires an endpoint")
		}
		var opts []AIOption
		if cfg.AI.TimeoutSeconds > 0 {
			opts = append(opts, WithTimeout(time.Duration(cfg.AI.TimeoutSeconds)*time.Second))
		}
		if cfg.AI.RequestsPerMinute > 0 {
			opts = append(opts, WithRequestsPerMinute(cfg.AI.RequestsPerMinute))
		}
		return NewAIBackend(cfg.AI.Endpoint, cfg.AI.APIKey, cfg.AI.Model, opts...), nil
	}
	return NewKeywordBackend(KeywordOptions{
		PositiveTerms:    cfg.PositiveTerms,
		NegativeTerms:    cfg.NegativeTerms,
		HighImpactTerms:  cfg.HighImpactTerms,
		HalfLifeHours:    cfg.HalfLifeHours,
		ImpactMultiplier: cfg.ImpactMultiplier,
		Now:              now,
	}), nil
}

// Label maps a sentiment value to its display label.
func Label(value float64) string {
	switch {
	case value > 0.7:
		return "Very Bull"
	case value > 0.3:
		return "Bullish"
	case value > -0.3:
		return "Neutral"
	case value > -0.7:
		return "Bearish"
	default:
		return "Very Bear"
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
