package domain

// Headline is one news item for an instrument. PublishedAtMs is zero when
// the feed could not supply a parsable publish time; such headlines are
// excluded from recency-weighted aggregation.
type Headline struct {
	Text          string
	PublishedAtMs int64  // Unix milliseconds, 0 = unparsable
	SourceTag     string // feed identifier (rss name, api name, fixture)
}

// SentimentResult is the aggregated polarity for an instrument's headline
// batch. Transient: owned by the caller, never persisted by the core.
type SentimentResult struct {
	Value          float64 // [-1, 1]
	ArticleCount   int     // headlines that contributed to the mean
	ExcludedCount  int     // headlines dropped for unparsable timestamps
	FreshnessHours float64 // hours since the oldest contributing headline
	SourceTag      string  // backend that produced the value: "keyword" | "ai"
}
