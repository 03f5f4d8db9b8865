package memory

import (
	"context"
	"sort"
	"sync"

	"stock-signal-lab/internal/domain"
	"stock-signal-lab/internal/storage"
)

// TradeLogStore is a thread-safe in-memory trade log store keyed by
// position ID. A position closes exactly once, so the key is unique.
type TradeLogStore struct {
	mu     sync.RWMutex
	trades map[string]*domain.TradeLog
}

var _ storage.TradeLogStore = (*TradeLogStore)(nil)

// NewTradeLogStore creates an empty in-memory trade log store.
func NewTradeLogStore() *TradeLogStore {
	return &TradeLogStore{trades: make(map[string]*domain.TradeLog)}
}

// Insert stores a new trade log row. Returns ErrDuplicateKey if a row
// with the same PositionID exists.
func (s *TradeLogStore) Insert(_ context.Context, tl *domain.TradeLog) error {
	if tl == nil || tl.PositionID == "" || tl.Instrument == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.trades[tl.PositionID]; exists {
		return storage.ErrDuplicateKey
	}
	cp := *tl
	s.trades[tl.PositionID] = &cp
	return nil
}

// GetByPositionID returns the row for the given position, or
// ErrNotFound.
func (s *TradeLogStore) GetByPositionID(_ context.Context, positionID string) (*domain.TradeLog, error) {
	if positionID == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	tl, exists := s.trades[positionID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	cp := *tl
	return &cp, nil
}

// GetByInstrument returns all rows for an instrument, ordered by exit
// time ascending.
func (s *TradeLogStore) GetByInstrument(_ context.Context, instrument string) ([]*domain.TradeLog, error) {
	if instrument == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.TradeLog
	for _, tl := range s.trades {
		if tl.Instrument == instrument {
			cp := *tl
			out = append(out, &cp)
		}
	}
	sortTradeLogs(out)
	return out, nil
}

// GetAll returns every row, ordered by exit time ascending.
func (s *TradeLogStore) GetAll(_ context.Context) ([]*domain.TradeLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.TradeLog, 0, len(s.trades))
	for _, tl := range s.trades {
		cp := *tl
		out = append(out, &cp)
	}
	sortTradeLogs(out)
	return out, nil
}

// GetByScoreRange returns all rows whose entry score falls in
// [minScore, maxScore), ordered by exit time ascending.
func (s *TradeLogStore) GetByScoreRange(_ context.Context, minScore, maxScore float64) ([]*domain.TradeLog, error) {
	if maxScore < minScore {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.TradeLog
	for _, tl := range s.trades {
		if tl.EntryScore >= minScore && tl.EntryScore < maxScore {
			cp := *tl
			out = append(out, &cp)
		}
	}
	sortTradeLogs(out)
	return out, nil
}

func sortTradeLogs(tls []*domain.TradeLog) {
	sort.Slice(tls, func(i, j int) bool {
		if tls[i].ExitTimeMs != tls[j].ExitTimeMs {
			return tls[i].ExitTimeMs < tls[j].ExitTimeMs
		}
		return tls[i].PositionID < tls[j].PositionID
	})
}
