package metrics

import (
	"context"
	"errors"
	"sort"

	"stock-signal-lab/internal/domain"
	"stock-signal-lab/internal/storage"
)

// ErrNoTrades is returned when no closed trades match the request.
var ErrNoTrades = errors.New("no trades available for aggregation")

// Aggregator computes trade statistics from the trade log store.
type Aggregator struct {
	tradeLogStore storage.TradeLogStore
}

// NewAggregator creates a statistics aggregator over the given store.
func NewAggregator(tradeLogStore storage.TradeLogStore) *Aggregator {
	return &Aggregator{tradeLogStore: tradeLogStore}
}

// ComputeOverall aggregates every closed trade in the log.
// Returns ErrNoTrades when the log is empty.
func (a *Aggregator) ComputeOverall(ctx context.Context) (*domain.TradeStats, error) {
	trades, err := a.tradeLogStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(trades) == 0 {
		return nil, ErrNoTrades
	}
	return computeFromTrades(trades, ""), nil
}

// ComputeByInstrument aggregates the closed trades of one instrument.
// Returns ErrNoTrades when the instrument has no closed trades.
func (a *Aggregator) ComputeByInstrument(ctx context.Context, instrument string) (*domain.TradeStats, error) {
	trades, err := a.tradeLogStore.GetByInstrument(ctx, instrument)
	if err != nil {
		return nil, err
	}
	if len(trades) == 0 {
		return nil, ErrNoTrades
	}
	return computeFromTrades(trades, instrument), nil
}

// ComputePerInstrument aggregates per instrument across the whole log,
// returned in instrument order. An empty log yields an empty slice.
func (a *Aggregator) ComputePerInstrument(ctx context.Context) ([]*domain.TradeStats, error) {
	trades, err := a.tradeLogStore.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	byInstrument := make(map[string][]*domain.TradeLog)
	var order []string
	for _, tl := range trades {
		if _, seen := byInstrument[tl.Instrument]; !seen {
			order = append(order, tl.Instrument)
		}
		byInstrument[tl.Instrument] = append(byInstrument[tl.Instrument], tl)
	}
	sort.Strings(order)

	out := make([]*domain.TradeStats, 0, len(order))
	for _, instrument := range order {
		out = append(out, computeFromTrades(byInstrument[instrument], instrument))
	}
	return out, nil
}

// Compute is the pure entry point for callers that already hold the
// trades, such as the bucket backtest.
func Compute(trades []*domain.TradeLog) *domain.TradeStats {
	return computeFromTrades(trades, "")
}
