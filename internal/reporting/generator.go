package reporting

import (
	"context"
	"errors"
	"sort"
	"time"

	"stock-signal-lab/internal/backtest"
	"stock-signal-lab/internal/config"
	"stock-signal-lab/internal/domain"
	"stock-signal-lab/internal/metrics"
	"stock-signal-lab/internal/simulation"
	"stock-signal-lab/internal/storage"
)

// Display order for the category distribution table.
var categoryOrder = []domain.Category{
	domain.CategoryStrongBuy,
	domain.CategoryBuy,
	domain.CategoryCaution,
	domain.CategoryNeutral,
	domain.CategoryAvoid,
	domain.CategoryNoData,
}

// Event types in display order.
var eventOrder = []string{
	domain.EventPositionOpened,
	domain.EventPositionClosed,
	domain.EventSignalSkipped,
}

// Generator produces reports from stored data.
type Generator struct {
	scanStore  storage.ScanRecordStore
	eventStore storage.PositionEventStore
	tradeLogs  storage.TradeLogStore
	simulator  *simulation.Simulator
	account    *domain.Account
	analyzer   *backtest.Analyzer
	now        func() time.Time
}

// NewGenerator creates a generator over the scan record store. The other
// sections are attached with the With methods.
func NewGenerator(scanStore storage.ScanRecordStore) *Generator {
	return &Generator{
		scanStore: scanStore,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithEvents adds the position event summary section.
func (g *Generator) WithEvents(store storage.PositionEventStore) *Generator {
	g.eventStore = store
	return g
}

// WithTradeLogs adds the trade statistics section.
func (g *Generator) WithTradeLogs(store storage.TradeLogStore) *Generator {
	g.tradeLogs = store
	return g
}

// WithSimulator adds the account and open position section.
func (g *Generator) WithSimulator(sim *simulation.Simulator) *Generator {
	g.simulator = sim
	return g
}

// WithAccount adds the account section from a stored snapshot, for
// reports built after the fact. WithSimulator wins when both are set.
func (g *Generator) WithAccount(acct *domain.Account) *Generator {
	g.account = acct
	return g
}

// WithBuckets adds the score-bucket section. Requires WithTradeLogs.
func (g *Generator) WithBuckets(cats config.CategoryThresholds) *Generator {
	if g.tradeLogs != nil {
		g.analyzer = backtest.NewAnalyzer(g.tradeLogs, cats)
	}
	return g
}

// WithClock sets a custom clock for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Generate assembles a report from the attached sources.
func (g *Generator) Generate(ctx context.Context) (*Report, error) {
	rows, err := g.scanStore.GetLatest(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].Score != rows[j].Score {
			return rows[i].Score > rows[j].Score
		}
		return rows[i].Instrument < rows[j].Instrument
	})

	report := &Report{
		GeneratedAt:    g.now(),
		ScanRows:       rows,
		CategoryCounts: countCategories(rows),
		TopSetups:      topSetups(rows),
		Adjustments:    countAdjustments(rows),
	}

	if g.simulator != nil {
		acct := g.simulator.Account()
		report.Account = &acct
		report.OpenPositions = g.simulator.OpenPositions()
	} else if g.account != nil {
		report.Account = g.account
	}

	if g.eventStore != nil {
		counts, err := g.countEvents(ctx)
		if err != nil {
			return nil, err
		}
		report.EventCounts = counts
	}

	if g.tradeLogs != nil {
		agg := metrics.NewAggregator(g.tradeLogs)
		overall, err := agg.ComputeOverall(ctx)
		if err != nil && !errors.Is(err, metrics.ErrNoTrades) {
			return nil, err
		}
		report.Overall = overall
		if overall != nil {
			per, err := agg.ComputePerInstrument(ctx)
			if err != nil {
				return nil, err
			}
			report.PerInstrument = per
		}
	}

	if g.analyzer != nil {
		buckets, err := g.analyzer.ByBucket(ctx)
		if err != nil {
			return nil, err
		}
		report.Buckets = buckets
	}

	return report, nil
}

func countCategories(rows []*domain.ScanRecord) []CategoryCount {
	byCat := make(map[domain.Category]int, len(categoryOrder))
	for _, r := range rows {
		byCat[r.Category]++
	}
	out := make([]CategoryCount, 0, len(categoryOrder))
	for _, cat := range categoryOrder {
		out = append(out, CategoryCount{Category: cat, Count: byCat[cat]})
	}
	return out
}

func topSetups(rows []*domain.ScanRecord) []*domain.ScanRecord {
	var out []*domain.ScanRecord
	for _, r := range rows {
		if r.Score > topSetupMinScore {
			out = append(out, r)
		}
	}
	return out
}

func countAdjustments(rows []*domain.ScanRecord) []AdjustmentCount {
	type key struct {
		name       string
		multiplier float64
	}
	counts := make(map[key]int)
	for _, r := range rows {
		for _, adj := range r.Adjustments {
			counts[key{adj.Name, adj.Multiplier}]++
		}
	}
	out := make([]AdjustmentCount, 0, len(counts))
	for k, n := range counts {
		out = append(out, AdjustmentCount{Name: k.name, Multiplier: k.multiplier, Fired: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (g *Generator) countEvents(ctx context.Context) ([]EventCount, error) {
	out := make([]EventCount, 0, len(eventOrder))
	for _, eventType := range eventOrder {
		events, err := g.eventStore.GetByType(ctx, eventType)
		if err != nil {
			return nil, err
		}
		out = append(out, EventCount{Type: eventType, Count: len(events)})
	}
	return out, nil
}
