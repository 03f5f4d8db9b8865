// Package newssignal extracts directional market signals from headline
// text: per-headline phrase matching with magnitude and urgency weighting,
// batch aggregation, and a directional prediction with an expected move
// size.
package newssignal

import (
	"sort"
	"strings"

	"stock-signal-lab/internal/domain"
)

// phraseCategory is one catalyst category and its market-moving phrases.
// Category order matters: it breaks ties when picking the strongest
// catalyst.
type phraseCategory struct {
	name    string
	phrases []string
}

var bullishCategories = []phraseCategory{
	{domain.CatalystEarnings, []string{
		"beat earnings", "exceeded expectations", "surprise profit",
		"strong earnings", "record profit", "earnings beat", "topped estimates",
		"better than expected", "blowout earnings", "guidance raised",
	}},
	{domain.CatalystGrowth, []string{
		"revenue surge", "sales growth", "record revenue", "expanding market",
		"market share gain", "user growth", "customer growth", "accelerating growth",
	}},
	{domain.CatalystProducts, []string{
		"new product", "product launch", "innovation", "breakthrough",
		"partnership", "major deal", "contract win", "acquisition",
	}},
	{domain.CatalystAnalyst, []string{
		"upgrade", "price target raised", "buy rating", "outperform",
		"bullish", "analyst optimistic", "increased target",
	}},
	{domain.CatalystGuidance, []string{
		"raised guidance", "increased forecast", "optimistic outlook",
		"strong outlook", "upbeat forecast", "raised estimates",
	}},
}

var bearishCategories = []phraseCategory{
	{domain.CatalystEarnings, []string{
		"missed earnings", "below expectations", "earnings miss", "profit warning",
		"disappointing results", "weak earnings", "missed estimates",
	}},
	{domain.CatalystProblems, []string{
		"lawsuit", "investigation", "regulatory", "fine", "scandal",
		"layoffs", "job cuts", "restructuring", "bankruptcy", "debt",
	}},
	{domain.CatalystWeakness, []string{
		"sales decline", "revenue drop", "losing market share", "slowing growth",
		"demand weakness", "margin pressure", "competition",
	}},
	{domain.CatalystAnalyst, []string{
		"downgrade", "price target cut", "sell rating", "underperform",
		"bearish", "analyst concerned", "lowered target",
	}},
	{domain.CatalystGuidance, []string{
		"lowered guidance", "cut forecast", "weak outlook", "cautious outlook",
		"reduced estimates", "disappointing guidance",
	}},
}

// Magnitude words scale the impact score; two high-magnitude hits double it.
var (
	magnitudeHigh = []string{
		"massive", "huge", "major", "significant", "substantial", "dramatic",
		"record", "unprecedented", "historic", "surge", "plunge", "soar",
	}
	magnitudeMedium = []string{
		"strong", "solid", "notable", "considerable", "meaningful",
	}
)

// Urgency words scale the impact score for time-sensitive catalysts.
var (
	urgencyImmediate = []string{
		"today", "breaking", "just announced", "now", "this morning",
		"moments ago", "alert",
	}
	urgencyNear = []string{
		"tomorrow", "this week", "upcoming", "soon", "next week",
	}
)

// Extractor turns headlines into directional signals. Stateless and safe
// for concurrent use.
type Extractor struct{}

// NewExtractor builds an Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract derives the signal for a single headline.
func (e *Extractor) Extract(h domain.Headline) domain.HeadlineSignal {
	text := strings.ToLower(h.Text)

	bullMatched := matchCategories(text, bullishCategories)
	bearMatched := matchCategories(text, bearishCategories)

	bullCount := totalMatches(bullMatched)
	bearCount := totalMatches(bearMatched)

	signal := domain.HeadlineSignal{
		Headline:       h.Text,
		PublishedAtMs:  h.PublishedAtMs,
		Catalyst:       strongestCatalyst(bullMatched, bearMatched),
		BullishMatches: flatten(bullMatched),
		BearishMatches: flatten(bearMatched),
	}

	switch {
	case bullCount == 0 && bearCount == 0:
		signal.Direction = domain.DirectionNeutral
	case bullCount > bearCount:
		signal.Direction = domain.DirectionBullish
		signal.Confidence = float64(bullCount) / float64(bullCount+bearCount+1)
	default:
		// Ties read bearish: conflicting coverage is a warning sign.
		signal.Direction = domain.DirectionBearish
		signal.Confidence = float64(bearCount) / float64(bullCount+bearCount+1)
	}

	base := float64(bullCount+bearCount) * 10
	impact := base * magnitudeMultiplier(text) * urgencyMultiplier(text)
	if impact > 100 {
		impact = 100
	}
	signal.ImpactScore = impact

	return signal
}

// categoryMatches preserves table order for deterministic catalyst picks.
type categoryMatches struct {
	name    string
	matches []string
}

func matchCategories(text string, categories []phraseCategory) []categoryMatches {
	var found []categoryMatches
	for _, cat := range categories {
		var matches []string
		for _, phrase := range cat.phrases {
			if strings.Contains(text, phrase) {
				matches = append(matches, phrase)
			}
		}
		if len(matches) > 0 {
			found = append(found, categoryMatches{name: cat.name, matches: matches})
		}
	}
	return found
}

func totalMatches(found []categoryMatches) int {
	n := 0
	for _, cat := range found {
		n += len(cat.matches)
	}
	return n
}

func flatten(found []categoryMatches) []string {
	var out []string
	for _, cat := range found {
		out = append(out, cat.matches...)
	}
	return out
}

// strongestCatalyst merges both sides and returns the category with the
// most matches. A category hit on both sides keeps its bullish position
// but counts its bearish matches; ties go to the earliest position.
func strongestCatalyst(bull, bear []categoryMatches) string {
	merged := make([]categoryMatches, 0, len(bull)+len(bear))
	position := make(map[string]int, len(bull))

	for _, cat := range bull {
		position[cat.name] = len(merged)
		merged = append(merged, cat)
	}
	for _, cat := range bear {
		if i, seen := position[cat.name]; seen {
			merged[i].matches = cat.matches
			continue
		}
		merged = append(merged, cat)
	}

	if len(merged) == 0 {
		return domain.CatalystNone
	}

	best := merged[0]
	for _, cat := range merged[1:] {
		if len(cat.matches) > len(best.matches) {
			best = cat
		}
	}
	return best.name
}

func magnitudeMultiplier(text string) float64 {
	high := 0
	for _, word := range magnitudeHigh {
		if strings.Contains(text, word) {
			high++
		}
	}
	switch {
	case high >= 2:
		return 2.0
	case high == 1:
		return 1.5
	}
	for _, word := range magnitudeMedium {
		if strings.Contains(text, word) {
			return 1.2
		}
	}
	return 1.0
}

func urgencyMultiplier(text string) float64 {
	for _, word := range urgencyImmediate {
		if strings.Contains(text, word) {
			return 1.5
		}
	}
	for _, word := range urgencyNear {
		if strings.Contains(text, word) {
			return 1.2
		}
	}
	return 1.0
}

// Aggregate folds per-headline signals into a batch view. Headlines must
// be newest-first; the recent trend reads the first three.
func (e *Extractor) Aggregate(headlines []domain.Headline) domain.AggregateSignal {
	if len(headlines) == 0 {
		return domain.AggregateSignal{
			Direction:        domain.DirectionNeutral,
			RecentTrend:      domain.DirectionNeutral,
			DominantCatalyst: domain.CatalystNone,
		}
	}

	signals := make([]domain.HeadlineSignal, len(headlines))
	for i, h := range headlines {
		signals[i] = e.Extract(h)
	}

	bullish, bearish := 0, 0
	impactSum := 0.0
	for _, s := range signals {
		switch s.Direction {
		case domain.DirectionBullish:
			bullish++
		case domain.DirectionBearish:
			bearish++
		}
		impactSum += s.ImpactScore
	}
	neutral := len(signals) - bullish - bearish
	total := float64(len(signals))

	agg := domain.AggregateSignal{
		Impact:           impactSum / total,
		RecentTrend:      recentTrend(signals),
		DominantCatalyst: dominantCatalyst(signals),
		Bullish:          bullish,
		Bearish:          bearish,
		Neutral:          neutral,
		TopSignals:       topSignals(signals, 3),
	}

	switch {
	case bullish > bearish+1:
		agg.Direction = domain.DirectionBullish
		agg.Confidence = float64(bullish) / total
	case bearish > bullish+1:
		agg.Direction = domain.DirectionBearish
		agg.Confidence = float64(bearish) / total
	default:
		agg.Direction = domain.DirectionMixed
		agg.Confidence = float64(max(bullish, bearish)) / total
	}

	agg.Consistency = float64(max(bullish, bearish, neutral)) / total

	return agg
}

// recentTrend reads the three newest signals.
func recentTrend(signals []domain.HeadlineSignal) domain.Direction {
	recent := signals
	if len(recent) > 3 {
		recent = recent[:3]
	}

	bullish, bearish := 0, 0
	for _, s := range recent {
		switch s.Direction {
		case domain.DirectionBullish:
			bullish++
		case domain.DirectionBearish:
			bearish++
		}
	}

	switch {
	case bullish > bearish:
		return domain.DirectionBullish
	case bearish > bullish:
		return domain.DirectionBearish
	default:
		return domain.DirectionNeutral
	}
}

// dominantCatalyst is the most frequent non-NONE catalyst; ties keep the
// first one seen in batch order.
func dominantCatalyst(signals []domain.HeadlineSignal) string {
	counts := make(map[string]int)
	var order []string
	for _, s := range signals {
		if s.Catalyst == domain.CatalystNone {
			continue
		}
		if counts[s.Catalyst] == 0 {
			order = append(order, s.Catalyst)
		}
		counts[s.Catalyst]++
	}

	if len(order) == 0 {
		return domain.CatalystNone
	}

	best := order[0]
	for _, name := range order[1:] {
		if counts[name] > counts[best] {
			best = name
		}
	}
	return best
}

// topSignals returns the n highest-impact signals, keeping batch order on
// ties.
func topSignals(signals []domain.HeadlineSignal, n int) []domain.HeadlineSignal {
	sorted := make([]domain.HeadlineSignal, len(signals))
	copy(sorted, signals)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ImpactScore > sorted[j].ImpactScore
	})
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}
