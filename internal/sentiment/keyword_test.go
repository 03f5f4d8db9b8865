package sentiment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock-signal-lab/internal/domain"
)

var testNow = time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

func fixedNow() time.Time { return testNow }

func agedMs(hours float64) int64 {
	return testNow.Add(-time.Duration(hours * float64(time.Hour))).UnixMilli()
}

func TestKeywordScore_PurePositive(t *testing.T) {
	b := NewKeywordBackend(KeywordOptions{Now: fixedNow})

	score, err := b.Score(context.Background(), "NVDA", []domain.Headline{
		{Text: "Stock surges on record profit", PublishedAtMs: agedMs(1)},
	})

	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestKeywordScore_PureNegative(t *testing.T) {
	b := NewKeywordBackend(KeywordOptions{Now: fixedNow})

	score, err := b.Score(context.Background(), "NVDA", []domain.Headline{
		{Text: "Shares plunge after lawsuit warning", PublishedAtMs: agedMs(1)},
	})

	require.NoError(t, err)
	assert.Equal(t, -1.0, score)
}

func TestKeywordScore_BalancedHitsAreNeutral(t *testing.T) {
	b := NewKeywordBackend(KeywordOptions{Now: fixedNow})

	// Two positive hits (strong, growth) against two negative (risk, concern).
	score, err := b.Score(context.Background(), "NVDA", []domain.Headline{
		{Text: "Strong growth outlook tempered by risk concern", PublishedAtMs: agedMs(1)},
	})

	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestKeywordScore_NoHitsIsNeutral(t *testing.T) {
	b := NewKeywordBackend(KeywordOptions{Now: fixedNow})

	score, err := b.Score(context.Background(), "NVDA", []domain.Headline{
		{Text: "Company schedules annual shareholder meeting", PublishedAtMs: agedMs(1)},
	})

	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestKeywordScore_EmptyBatchIsNeutral(t *testing.T) {
	b := NewKeywordBackend(KeywordOptions{Now: fixedNow})

	score, err := b.Score(context.Background(), "NVDA", nil)

	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestKeywordScore_RecencyWeighting(t *testing.T) {
	b := NewKeywordBackend(KeywordOptions{Now: fixedNow, HalfLifeHours: 12})

	// Fresh positive at weight 1.0, 12h-old negative at weight e^-1.
	// (1*1 - 1*0.36788) / 1.36788 = 0.46212.
	score, err := b.Score(context.Background(), "NVDA", []domain.Headline{
		{Text: "Shares rally on upgrade", PublishedAtMs: agedMs(0)},
		{Text: "Margin decline disappointing", PublishedAtMs: agedMs(12)},
	})

	require.NoError(t, err)
	assert.InDelta(t, 0.46212, score, 1e-4)
}

func TestKeywordScore_HighImpactTermsWeighHeavier(t *testing.T) {
	b := NewKeywordBackend(KeywordOptions{Now: fixedNow})

	// Same age, so weights are 1 vs the 2.0 impact multiplier:
	// (1*1 - 1*2) / 3 = -1/3.
	score, err := b.Score(context.Background(), "NVDA", []domain.Headline{
		{Text: "Analysts see strong quarter ahead", PublishedAtMs: agedMs(2)},
		{Text: "Earnings miss rattles investors", PublishedAtMs: agedMs(2)},
	})

	require.NoError(t, err)
	assert.InDelta(t, -1.0/3.0, score, 1e-9)
}

func TestKeywordScore_MissingPublishTimeGetsDefaultWeight(t *testing.T) {
	b := NewKeywordBackend(KeywordOptions{Now: fixedNow})

	score, err := b.Score(context.Background(), "NVDA", []domain.Headline{
		{Text: "Record growth reported", PublishedAtMs: 0},
	})

	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestKeywordScore_FutureTimestampCountsAsFresh(t *testing.T) {
	b := NewKeywordBackend(KeywordOptions{Now: fixedNow, HalfLifeHours: 12})

	// A clock-skewed future publish time must not produce weight > 1.
	score, err := b.Score(context.Background(), "NVDA", []domain.Headline{
		{Text: "Shares rally on upgrade", PublishedAtMs: agedMs(-3)},
		{Text: "Margin decline disappointing", PublishedAtMs: agedMs(12)},
	})

	require.NoError(t, err)
	assert.InDelta(t, 0.46212, score, 1e-4)
}

func TestKeywordScore_CustomLexicon(t *testing.T) {
	b := NewKeywordBackend(KeywordOptions{
		PositiveTerms:   []string{"moon"},
		NegativeTerms:   []string{"rug"},
		HighImpactTerms: []string{},
		Now:             fixedNow,
	})

	score, err := b.Score(context.Background(), "NVDA", []domain.Headline{
		{Text: "Retail expects a moon move", PublishedAtMs: agedMs(1)},
		{Text: "Strong profit surge reported", PublishedAtMs: agedMs(1)}, // no hits in custom lexicon
	})

	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestKeywordName(t *testing.T) {
	assert.Equal(t, "keyword", NewKeywordBackend(KeywordOptions{}).Name())
}
