package indicators

import "errors"

var (
	// ErrInsufficientData means the series is shorter than the longest
	// indicator window plus margin.
	ErrInsufficientData = errors.New("insufficient candle data")

	// ErrMalformedSeries means the series violates candle sanity rules
	// (non-positive prices, high below low, or non-ascending timestamps).
	ErrMalformedSeries = errors.New("malformed candle series")
)
