package scan

import (
	"context"
	"time"

	"stock-signal-lab/internal/domain"
)

// CandleSource supplies the price history for one instrument. The series
// must be time-ascending; the scanner never mutates it.
type CandleSource interface {
	Candles(ctx context.Context, instrument string) (domain.PriceSeries, error)
}

// HeadlineSource supplies recent headlines for one instrument. Items
// published before notBefore should be omitted; headlines with an
// unparsable publish time may still be returned and are counted by the
// sufficiency checks.
type HeadlineSource interface {
	Headlines(ctx context.Context, instrument string, notBefore time.Time) ([]domain.Headline, error)
}
