package simulation

import (
	"context"
	"fmt"
	"sort"

	"stock-signal-lab/internal/domain"
)

// OnTick walks every open position with a matching tick through the exit
// rules and returns copies of the positions closed by this batch, in
// close order. Ticks are processed in instrument order regardless of the
// order given, so slot frees and closes are deterministic.
//
// Exit priority per position: stop breach, then target, then trailing
// stop (high water updates before the check), then holding period. The
// first rule that fires decides; fills happen at the tick price.
func (s *Simulator) OnTick(ctx context.Context, ticks []Tick) ([]*domain.Position, error) {
	for _, t := range ticks {
		if t.Instrument == "" || t.Price <= 0 {
			return nil, ErrInvalidTick
		}
	}

	ordered := make([]Tick, len(ticks))
	copy(ordered, ticks)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Instrument != ordered[j].Instrument {
			return ordered[i].Instrument < ordered[j].Instrument
		}
		return ordered[i].TimestampMs < ordered[j].TimestampMs
	})

	s.mu.Lock()
	defer s.mu.Unlock()

	var closed []*domain.Position
	for _, t := range ordered {
		id, open := s.openByKey[t.Instrument]
		if !open {
			continue
		}
		p := s.positions[id]

		status, reason := s.exitFor(p, t)
		if status == domain.PositionOpen {
			continue
		}
		if err := s.close(ctx, p, status, t, reason); err != nil {
			return closed, err
		}
		cp := *p
		closed = append(closed, &cp)
	}
	return closed, nil
}

// exitFor applies the exit rules to one open position. As a side effect
// the high water mark advances when trailing is enabled, whether or not
// an exit fires.
func (s *Simulator) exitFor(p *domain.Position, t Tick) (domain.PositionStatus, string) {
	if t.Price <= p.StopPrice {
		return domain.PositionClosedStop, fmt.Sprintf("stop %.4f breached at %.4f", p.StopPrice, t.Price)
	}
	if t.Price >= p.TakeProfitPrice {
		return domain.PositionClosedTarget, fmt.Sprintf("target %.4f reached at %.4f", p.TakeProfitPrice, t.Price)
	}
	if p.TrailingEnabled {
		p.HighWaterPrice = max(p.HighWaterPrice, t.Price)
		trailStop := p.HighWaterPrice - p.TrailDistance
		if t.Price <= trailStop {
			return domain.PositionClosedTrail,
				fmt.Sprintf("trailing stop %.4f breached at %.4f from high water %.4f", trailStop, t.Price, p.HighWaterPrice)
		}
	}
	if t.TimestampMs-p.EntryTimeMs >= int64(s.cfg.MaxHoldingDays)*millisPerDay {
		return domain.PositionClosedTime, fmt.Sprintf("held past %d days", s.cfg.MaxHoldingDays)
	}
	return domain.PositionOpen, ""
}

// close commits one terminal transition: realize the PnL, settle the
// balance, free the instrument slot and emit the close event.
func (s *Simulator) close(ctx context.Context, p *domain.Position, status domain.PositionStatus, t Tick, reason string) error {
	from := p.Status
	p.Status = status
	p.ExitPrice = t.Price
	p.ExitTimeMs = t.TimestampMs
	p.RealizedPnL = (t.Price - p.EntryPrice) * p.Shares

	s.account.Balance += p.RealizedPnL
	s.account.RealizedPnL += p.RealizedPnL
	s.account.OpenPositions--
	s.account.ClosedTrades++
	delete(s.openByKey, p.Instrument)

	pnl := p.RealizedPnL
	return s.emit(ctx, &domain.PositionEvent{
		EventID:     s.newEventID(),
		Type:        domain.EventPositionClosed,
		PositionID:  p.ID,
		Instrument:  p.Instrument,
		FromStatus:  from,
		ToStatus:    status,
		Price:       t.Price,
		TimestampMs: t.TimestampMs,
		Shares:      p.Shares,
		RealizedPnL: &pnl,
		Reason:      reason,
	})
}
