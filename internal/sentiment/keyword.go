package sentiment

import (
	"context"
	"math"
	"strings"
	"time"

	"stock-signal-lab/internal/domain"
)

// Default lexicons for the keyword backend. Matching is case-insensitive
// substring containment, so multi-word phrases like "earnings beat" hit too.
var (
	defaultPositiveTerms = []string{
		"surge", "rally", "beat", "exceeds", "growth", "bullish", "buy",
		"upgrade", "outperform", "strong", "record", "profit", "earnings beat",
		"innovation", "breakthrough", "partnership", "acquisition", "gain",
		"soars", "jumps", "rises", "climbs", "tops",
	}
	defaultNegativeTerms = []string{
		"plunge", "crash", "decline", "miss", "bearish", "sell", "downgrade",
		"underperform", "weak", "loss", "lawsuit", "investigation", "fine",
		"concern", "risk", "warning", "layoff", "cut", "disappointing",
		"falls", "drops", "tumbles", "slumps", "sinks",
	}
	defaultHighImpactTerms = []string{
		"earnings", "lawsuit", "investigation", "fda approval", "merger",
		"acquisition", "bankruptcy", "recall", "scandal", "fraud",
		"regulatory", "sec", "criminal",
	}
)

const (
	defaultHalfLifeHours    = 12.0
	defaultImpactMultiplier = 2.0
)

// KeywordOptions configures a KeywordBackend. Nil slices take the default
// lexicons; zero numeric values take the defaults above.
type KeywordOptions struct {
	PositiveTerms    []string
	NegativeTerms    []string
	HighImpactTerms  []string
	HalfLifeHours    float64
	ImpactMultiplier float64
	Now              func() time.Time
}

// KeywordBackend tallies lexicon hits per headline and aggregates them
// into a recency- and impact-weighted mean. It never fails, which makes
// it the fallback for the model backend.
type KeywordBackend struct {
	positive   []string
	negative   []string
	highImpact []string
	halfLife   float64
	impactMult float64
	now        func() time.Time
}

// NewKeywordBackend builds a KeywordBackend from options.
func NewKeywordBackend(opts KeywordOptions) *KeywordBackend {
	b := &KeywordBackend{
		positive:   opts.PositiveTerms,
		negative:   opts.NegativeTerms,
		highImpact: opts.HighImpactTerms,
		halfLife:   opts.HalfLifeHours,
		impactMult: opts.ImpactMultiplier,
		now:        opts.Now,
	}
	if b.positive == nil {
		b.positive = defaultPositiveTerms
	}
	if b.negative == nil {
		b.negative = defaultNegativeTerms
	}
	if b.highImpact == nil {
		b.highImpact = defaultHighImpactTerms
	}
	if b.halfLife <= 0 {
		b.halfLife = defaultHalfLifeHours
	}
	if b.impactMult < 1 {
		b.impactMult = defaultImpactMultiplier
	}
	if b.now == nil {
		b.now = time.Now
	}
	return b
}

// Name identifies the backend in result tags and logs.
func (b *KeywordBackend) Name() string { return "keyword" }

// Score aggregates per-headline tallies into a weighted mean in [-1,1].
// A headline with no lexicon hits contributes nothing, including to the
// weight denominator. Future publish times count as zero hours old.
func (b *KeywordBackend) Score(_ context.Context, _ string, headlines []domain.Headline) (float64, error) {
	if len(headlines) == 0 {
		return 0, nil
	}

	nowMs := b.now().UnixMilli()
	sum := 0.0
	weightSum := 0.0

	for _, h := range headlines {
		text := strings.ToLower(h.Text)

		positives := countHits(text, b.positive)
		negatives := countHits(text, b.negative)
		if positives+negatives == 0 {
			continue
		}

		weight := b.recencyWeight(nowMs, h.PublishedAtMs)
		if containsAny(text, b.highImpact) {
			weight *= b.impactMult
		}

		polarity := float64(positives-negatives) / float64(positives+negatives)
		sum += polarity * weight
		weightSum += weight
	}

	if weightSum == 0 {
		return 0, nil
	}
	return clamp(sum/weightSum, -1, 1), nil
}

func (b *KeywordBackend) recencyWeight(nowMs, publishedMs int64) float64 {
	if publishedMs <= 0 {
		return 1.0
	}
	hours := float64(nowMs-publishedMs) / float64(time.Hour.Milliseconds())
	if hours < 0 {
		hours = 0
	}
	return math.Exp(-hours / b.halfLife)
}

func countHits(text string, terms []string) int {
	hits := 0
	for _, term := range terms {
		if strings.Contains(text, term) {
			hits++
		}
	}
	return hits
}

func containsAny(text string, terms []string) bool {
	for _, term := range terms {
		if strings.Contains(text, term) {
			return true
		}
	}
	return false
}
