package memory

import (
	"context"
	"sort"
	"sync"

	"stock-signal-lab/internal/domain"
	"stock-signal-lab/internal/storage"
)

// PositionEventStore is a thread-safe in-memory position event store
// keyed by event ID.
type PositionEventStore struct {
	mu     sync.RWMutex
	events map[string]*domain.PositionEvent
}

var _ storage.PositionEventStore = (*PositionEventStore)(nil)

// NewPositionEventStore creates an empty in-memory position event store.
func NewPositionEventStore() *PositionEventStore {
	return &PositionEventStore{events: make(map[string]*domain.PositionEvent)}
}

// Insert stores a new position event. Returns ErrDuplicateKey if an
// event with the same EventID exists.
func (s *PositionEventStore) Insert(_ context.Context, ev *domain.PositionEvent) error {
	if ev == nil || ev.EventID == "" || ev.Type == "" || ev.Instrument == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[ev.EventID]; exists {
		return storage.ErrDuplicateKey
	}
	s.events[ev.EventID] = cloneEvent(ev)
	return nil
}

// GetByPositionID returns all events for a position, ordered by event
// time ascending.
func (s *PositionEventStore) GetByPositionID(_ context.Context, positionID string) ([]*domain.PositionEvent, error) {
	if positionID == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.PositionEvent
	for _, ev := range s.events {
		if ev.PositionID == positionID {
			out = append(out, cloneEvent(ev))
		}
	}
	sortEvents(out)
	return out, nil
}

// GetByInstrument returns all events for an instrument, ordered by event
// time ascending.
func (s *PositionEventStore) GetByInstrument(_ context.Context, instrument string) ([]*domain.PositionEvent, error) {
	if instrument == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.PositionEvent
	for _, ev := range s.events {
		if ev.Instrument == instrument {
			out = append(out, cloneEvent(ev))
		}
	}
	sortEvents(out)
	return out, nil
}

// GetByType returns all events of the given type, ordered by event time
// ascending.
func (s *PositionEventStore) GetByType(_ context.Context, eventType string) ([]*domain.PositionEvent, error) {
	if eventType == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.PositionEvent
	for _, ev := range s.events {
		if ev.Type == eventType {
			out = append(out, cloneEvent(ev))
		}
	}
	sortEvents(out)
	return out, nil
}

func sortEvents(evs []*domain.PositionEvent) {
	sort.Slice(evs, func(i, j int) bool {
		if evs[i].TimestampMs != evs[j].TimestampMs {
			return evs[i].TimestampMs < evs[j].TimestampMs
		}
		return evs[i].EventID < evs[j].EventID
	})
}

// cloneEvent copies the event, including the realized PnL pointee, so
// stored events stay immutable.
func cloneEvent(ev *domain.PositionEvent) *domain.PositionEvent {
	cp := *ev
	if ev.RealizedPnL != nil {
		pnl := *ev.RealizedPnL
		cp.RealizedPnL = &pnl
	}
	return &cp
}
