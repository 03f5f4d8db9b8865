package sentiment

import (
	"context"
	"errors"
	"log"
	"time"

	"stock-signal-lab/internal/domain"
)

// AnalyzerOptions configures an Analyzer.
type AnalyzerOptions struct {
	// Backend is the primary scorer. Nil means the keyword fallback
	// scores directly.
	Backend Backend

	// Fallback absorbs primary failures. Nil builds a default
	// KeywordBackend.
	Fallback *KeywordBackend

	Now     func() time.Time
	Verbose bool
}

// Analyzer applies the publish-time policy around a backend: headlines
// without a parsable publish time are excluded from scoring entirely, so
// unverifiable news can never look artificially fresh.
type Analyzer struct {
	backend  Backend
	fallback *KeywordBackend
	now      func() time.Time
	verbose  bool
}

// NewAnalyzer builds an Analyzer from options.
func NewAnalyzer(opts AnalyzerOptions) *Analyzer {
	a := &Analyzer{
		backend:  opts.Backend,
		fallback: opts.Fallback,
		now:      opts.Now,
		verbose:  opts.Verbose,
	}
	if a.fallback == nil {
		a.fallback = NewKeywordBackend(KeywordOptions{Now: opts.Now})
	}
	if a.backend == nil {
		a.backend = a.fallback
	}
	if a.now == nil {
		a.now = time.Now
	}
	return a
}

// Analyze scores the headlines and reports how many were excluded. The
// returned error is non-nil only when the context ends mid-call; backend
// failures fall back to the keyword tally instead.
func (a *Analyzer) Analyze(ctx context.Context, instrument string, headlines []domain.Headline) (domain.SentimentResult, error) {
	scorable := make([]domain.Headline, 0, len(headlines))
	excluded := 0
	for _, h := range headlines {
		if h.PublishedAtMs <= 0 {
			excluded++
			continue
		}
		scorable = append(scorable, h)
	}

	result := domain.SentimentResult{
		ArticleCount:   len(scorable),
		ExcludedCount:  excluded,
		FreshnessHours: a.oldestAgeHours(scorable),
		SourceTag:      a.backend.Name(),
	}
	if len(scorable) == 0 {
		return result, nil
	}

	value, err := a.backend.Score(ctx, instrument, scorable)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return domain.SentimentResult{}, err
		}
		a.log("%s: %s backend failed, falling back to keyword: %v", instrument, a.backend.Name(), err)
		value, _ = a.fallback.Score(ctx, instrument, scorable)
		result.SourceTag = a.fallback.Name()
	}

	result.Value = clamp(value, -1, 1)
	return result, nil
}

// oldestAgeHours returns the age of the oldest scorable headline. The
// news window is only as fresh as the story that opened it.
func (a *Analyzer) oldestAgeHours(headlines []domain.Headline) float64 {
	if len(headlines) == 0 {
		return 0
	}

	oldest := headlines[0].PublishedAtMs
	for _, h := range headlines[1:] {
		if h.PublishedAtMs < oldest {
			oldest = h.PublishedAtMs
		}
	}

	hours := float64(a.now().UnixMilli()-oldest) / float64(time.Hour.Milliseconds())
	if hours < 0 {
		return 0
	}
	return hours
}

func (a *Analyzer) log(format string, args ...interface{}) {
	if a.verbose {
		log.Printf("[sentiment] "+format, args...)
	}
}
