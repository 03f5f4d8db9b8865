package simulation

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"stock-signal-lab/internal/domain"
	"stock-signal-lab/internal/idhash"
)

func newEventID() string { return uuid.NewString() }

// OnSignal attempts to open a position for the signal. The returned
// position is nil when the signal is skipped; every skip emits a
// SIGNAL_SKIPPED event carrying the reason. Gates run in a fixed order:
// score threshold, quality flags, existing open position, free slots,
// risk sizing.
func (s *Simulator) OnSignal(ctx context.Context, sig Signal) (*domain.Position, error) {
	if sig.Instrument == "" || sig.Price <= 0 {
		return nil, ErrInvalidSignal
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if sig.Score < s.cfg.EntryThreshold {
		return nil, s.skip(ctx, sig, domain.SkipReasonBelowEntry,
			fmt.Sprintf("score %.1f below entry threshold %.1f", sig.Score, s.cfg.EntryThreshold))
	}
	if s.cfg.SkipFlaggedSignals && len(sig.Flags) > 0 {
		return nil, s.skip(ctx, sig, domain.SkipReasonQualityFlags,
			fmt.Sprintf("quality flags present: %v", sig.Flags))
	}
	if _, open := s.openByKey[sig.Instrument]; open {
		return nil, s.skip(ctx, sig, domain.SkipReasonAlreadyOpen,
			"instrument already has an open position")
	}
	if s.account.OpenPositions >= s.cfg.MaxPositions {
		return nil, s.skip(ctx, sig, domain.SkipReasonNoSlots,
			fmt.Sprintf("all %d position slots in use", s.cfg.MaxPositions))
	}

	shares, notional, err := s.size(sig)
	if err != nil {
		return nil, s.skip(ctx, sig, domain.SkipReasonRiskGuard, err.Error())
	}

	riskDistance := sig.Price - sig.StopPrice
	pos := &domain.Position{
		ID:              idhash.ComputePositionID(sig.Instrument, sig.TimestampMs, sig.Price),
		Instrument:      sig.Instrument,
		EntryPrice:      sig.Price,
		EntryTimeMs:     sig.TimestampMs,
		Shares:          shares,
		Notional:        notional,
		StopPrice:       sig.StopPrice,
		TakeProfitPrice: sig.Price + riskDistance*s.cfg.RewardRatio,
		TrailingEnabled: s.cfg.TrailingEnabled,
		TrailDistance:   riskDistance * s.cfg.TrailRiskMultiple,
		HighWaterPrice:  sig.Price,
		Status:          domain.PositionOpen,
		EntryScore:      sig.Score,
		EntryCategory:   sig.Category,
	}

	s.positions[pos.ID] = pos
	s.openByKey[pos.Instrument] = pos.ID
	s.account.OpenPositions++

	cp := *pos
	return &cp, s.emit(ctx, &domain.PositionEvent{
		EventID:     s.newEventID(),
		Type:        domain.EventPositionOpened,
		PositionID:  pos.ID,
		Instrument:  pos.Instrument,
		ToStatus:    domain.PositionOpen,
		Price:       pos.EntryPrice,
		TimestampMs: pos.EntryTimeMs,
		Shares:      pos.Shares,
	})
}

// size computes the risk-based share count for an entry. The stop gap
// sets the size; the notional clamp keeps a starved stop gap from
// producing a position larger than the account can carry.
func (s *Simulator) size(sig Signal) (shares, notional float64, err error) {
	riskDistance := sig.Price - sig.StopPrice
	if riskDistance <= 0 {
		return 0, 0, fmt.Errorf("stop %.4f not below entry %.4f", sig.StopPrice, sig.Price)
	}

	riskAmount := s.account.Balance * s.cfg.RiskFraction
	shares = riskAmount / riskDistance

	maxShares := s.account.Balance * s.cfg.MaxPositionFraction / sig.Price
	shares = min(shares, maxShares)

	if shares <= 0 {
		return 0, 0, fmt.Errorf("computed share count %.6f is not positive", shares)
	}
	notional = shares * sig.Price
	if notional > s.account.Balance {
		return 0, 0, fmt.Errorf("notional %.2f exceeds balance %.2f", notional, s.account.Balance)
	}
	return shares, notional, nil
}

// skip records a rejected entry signal. The skip itself is normal
// control flow; only a sink failure is an error.
func (s *Simulator) skip(ctx context.Context, sig Signal, reason, detail string) error {
	return s.emit(ctx, &domain.PositionEvent{
		EventID:     s.newEventID(),
		Type:        domain.EventSignalSkipped,
		Instrument:  sig.Instrument,
		Price:       sig.Price,
		TimestampMs: sig.TimestampMs,
		Reason:      fmt.Sprintf("%s: %s", reason, detail),
	})
}
