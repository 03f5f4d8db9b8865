// Package simulation manages the paper trading account: it turns
// qualifying scores into positions, walks every open position through
// the exit state machine on each price tick, and emits one structured
// event per transition. The simulator holds the only mutable state in
// the scoring core.
package simulation

import (
	"context"
	"errors"
	"sort"
	"sync"

	"stock-signal-lab/internal/config"
	"stock-signal-lab/internal/domain"
)

// Simulator errors.
var (
	ErrInvalidSignal = errors.New("invalid entry signal")
	ErrInvalidTick   = errors.New("invalid price tick")
)

const millisPerDay = int64(24 * 60 * 60 * 1000)

// EventSink receives position lifecycle events. The write half of
// storage.PositionEventStore satisfies it; a nil sink discards events.
type EventSink interface {
	Insert(ctx context.Context, ev *domain.PositionEvent) error
}

// Signal is one entry candidate: the score outcome for an instrument
// plus the prices needed to size a position. The simulator never sees
// how the score was produced.
type Signal struct {
	Instrument  string
	Price       float64 // last close, the would-be entry price
	StopPrice   float64 // suggested stop from the feature vector
	TimestampMs int64
	Score       float64 // final composite score
	Category    domain.Category
	Flags       []string // quality flags carried by the score
}

// Tick is one price observation for an open position check.
type Tick struct {
	Instrument  string
	Price       float64
	TimestampMs int64
}

// Simulator owns the account and every position. All mutation happens
// behind one mutex; OnSignal and OnTick are the only entry points.
type Simulator struct {
	mu sync.Mutex

	cfg       config.RiskConfig
	account   domain.Account
	positions map[string]*domain.Position // by position ID
	openByKey map[string]string           // instrument -> open position ID
	sink      EventSink

	newEventID func() string
}

// NewSimulator creates a simulator with the configured starting balance.
// The sink may be nil, in which case lifecycle events are discarded.
func NewSimulator(cfg config.RiskConfig, sink EventSink) *Simulator {
	return &Simulator{
		cfg: cfg,
		account: domain.Account{
			Balance:      cfg.StartBalance,
			StartBalance: cfg.StartBalance,
		},
		positions:  make(map[string]*domain.Position),
		openByKey:  make(map[string]string),
		sink:       sink,
		newEventID: newEventID,
	}
}

// Account returns a snapshot of the account.
func (s *Simulator) Account() domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.account
}

// OpenPositions returns copies of all open positions, ordered by
// instrument ascending.
func (s *Simulator) OpenPositions() []*domain.Position {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Position, 0, len(s.openByKey))
	for _, id := range s.openByKey {
		cp := *s.positions[id]
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Instrument < out[j].Instrument
	})
	return out
}

// Positions returns copies of every position the simulator has created,
// open and closed, ordered by entry time then ID.
func (s *Simulator) Positions() []*domain.Position {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*domain.Position, 0, len(s.positions))
	for _, p := range s.positions {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].EntryTimeMs != out[j].EntryTimeMs {
			return out[i].EntryTimeMs < out[j].EntryTimeMs
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Position returns a copy of the position with the given ID.
func (s *Simulator) Position(id string) (*domain.Position, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.positions[id]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

// emit sends one lifecycle event to the sink. State is already
// committed when emit runs; a sink failure surfaces the error without
// touching simulator state.
func (s *Simulator) emit(ctx context.Context, ev *domain.PositionEvent) error {
	if s.sink == nil {
		return nil
	}
	return s.sink.Insert(ctx, ev)
}

// TradeLogFrom flattens a closed position into the row the statistics
// and bucket backtest consume. Returns nil for open positions.
func TradeLogFrom(p *domain.Position) *domain.TradeLog {
	if p == nil || !p.Status.Terminal() {
		return nil
	}

	notional := p.EntryPrice * p.Shares
	pnlPct := 0.0
	if notional != 0 {
		pnlPct = p.RealizedPnL / notional * 100
	}

	return &domain.TradeLog{
		PositionID:  p.ID,
		Instrument:  p.Instrument,
		EntryTimeMs: p.EntryTimeMs,
		ExitTimeMs:  p.ExitTimeMs,
		EntryPrice:  p.EntryPrice,
		ExitPrice:   p.ExitPrice,
		Shares:      p.Shares,
		PnL:         p.RealizedPnL,
		PnLPct:      pnlPct,
		ExitStatus:  p.Status,
		EntryScore:  p.EntryScore,
		HoldingMs:   p.ExitTimeMs - p.EntryTimeMs,
		Win:         p.RealizedPnL > 0,
	}
}
