// Package reporting assembles scan, simulation and backtest output into
// one report and renders it as markdown or CSV.
package reporting

import (
	"time"

	"stock-signal-lab/internal/backtest"
	"stock-signal-lab/internal/domain"
)

// Score above which a scanned instrument counts as a setup worth
// listing separately.
const topSetupMinScore = 50.0

// Report is the assembled output of one reporting pass over the stores.
type Report struct {
	GeneratedAt time.Time

	// Scan section: latest record per instrument, sorted by score
	// descending.
	ScanRows       []*domain.ScanRecord
	CategoryCounts []CategoryCount
	TopSetups      []*domain.ScanRecord
	Adjustments    []AdjustmentCount

	// Simulation section. Account is nil when no simulator was attached.
	Account       *domain.Account
	OpenPositions []*domain.Position
	EventCounts   []EventCount

	// Trade statistics. Overall is nil when nothing has closed yet.
	Overall       *domain.TradeStats
	PerInstrument []*domain.TradeStats

	// Score-bucket section, empty when no bucket analyzer was attached.
	Buckets []backtest.ScoreBucket
}

// CategoryCount is one row of the category distribution.
type CategoryCount struct {
	Category domain.Category
	Count    int
}

// AdjustmentCount reports how often one adjustment fired across the
// scan rows.
type AdjustmentCount struct {
	Name       string
	Multiplier float64
	Fired      int
}

// EventCount is the number of stored position events of one type.
type EventCount struct {
	Type  string
	Count int
}
