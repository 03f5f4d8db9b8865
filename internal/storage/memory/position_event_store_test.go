package memory

import (
	"context"
	"errors"
	"testing"

	"stock-signal-lab/internal/domain"
	"stock-signal-lab/internal/storage"
)

func positionEvent(eventID, eventType, positionID, instrument string, tsMs int64) *domain.PositionEvent {
	return &domain.PositionEvent{
		EventID:     eventID,
		Type:        eventType,
		PositionID:  positionID,
		Instrument:  instrument,
		TimestampMs: tsMs,
		Price:       100.0,
		Shares:      2.5,
	}
}

func TestPositionEventStore_InsertAndQuery(t *testing.T) {
	store := NewPositionEventStore()
	ctx := context.Background()

	events := []*domain.PositionEvent{
		positionEvent("ev-3", domain.EventPositionClosed, "pos-1", "AAPL", 3000),
		positionEvent("ev-1", domain.EventPositionOpened, "pos-1", "AAPL", 1000),
		positionEvent("ev-2", domain.EventSignalSkipped, "", "MSFT", 2000),
	}
	for _, ev := range events {
		if err := store.Insert(ctx, ev); err != nil {
			t.Fatalf("Insert(%s) failed: %v", ev.EventID, err)
		}
	}

	byPos, err := store.GetByPositionID(ctx, "pos-1")
	if err != nil {
		t.Fatalf("GetByPositionID failed: %v", err)
	}
	if len(byPos) != 2 || byPos[0].EventID != "ev-1" || byPos[1].EventID != "ev-3" {
		t.Errorf("GetByPositionID: got %d events, want [ev-1 ev-3]", len(byPos))
	}

	byInstr, err := store.GetByInstrument(ctx, "MSFT")
	if err != nil {
		t.Fatalf("GetByInstrument failed: %v", err)
	}
	if len(byInstr) != 1 || byInstr[0].EventID != "ev-2" {
		t.Errorf("GetByInstrument: got %d events, want [ev-2]", len(byInstr))
	}

	byType, err := store.GetByType(ctx, domain.EventSignalSkipped)
	if err != nil {
		t.Fatalf("GetByType failed: %v", err)
	}
	if len(byType) != 1 || byType[0].Instrument != "MSFT" {
		t.Errorf("GetByType: got %d events, want the MSFT skip", len(byType))
	}
}

func TestPositionEventStore_DuplicateEventID(t *testing.T) {
	store := NewPositionEventStore()
	ctx := context.Background()

	ev := positionEvent("ev-1", domain.EventPositionOpened, "pos-1", "AAPL", 1000)
	if err := store.Insert(ctx, ev); err != nil {
		t.Fatalf("first Insert failed: %v", err)
	}
	err := store.Insert(ctx, positionEvent("ev-1", domain.EventPositionClosed, "pos-1", "AAPL", 2000))
	if !errors.Is(err, storage.ErrDuplicateKey) {
		t.Errorf("expected ErrDuplicateKey, got %v", err)
	}
}

func TestPositionEventStore_InvalidInput(t *testing.T) {
	store := NewPositionEventStore()
	ctx := context.Background()

	if err := store.Insert(ctx, nil); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("nil event: expected ErrInvalidInput, got %v", err)
	}
	if err := store.Insert(ctx, positionEvent("", domain.EventPositionOpened, "pos-1", "AAPL", 1000)); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("empty event ID: expected ErrInvalidInput, got %v", err)
	}
	if err := store.Insert(ctx, positionEvent("ev-1", "", "pos-1", "AAPL", 1000)); !errors.Is(err, storage.ErrInvalidInput) {
		t.Errorf("empty type: expected ErrInvalidInput, got %v", err)
	}
}

func TestPositionEventStore_RealizedPnLIsCopied(t *testing.T) {
	store := NewPositionEventStore()
	ctx := context.Background()

	pnl := 12.5
	ev := positionEvent("ev-1", domain.EventPositionClosed, "pos-1", "AAPL", 1000)
	ev.RealizedPnL = &pnl
	if err := store.Insert(ctx, ev); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}

	// Mutating the caller's pointee must not reach the stored event.
	pnl = -99

	got, err := store.GetByPositionID(ctx, "pos-1")
	if err != nil {
		t.Fatalf("GetByPositionID failed: %v", err)
	}
	if got[0].RealizedPnL == nil || *got[0].RealizedPnL != 12.5 {
		t.Errorf("stored PnL mutated through caller pointer: %v", got[0].RealizedPnL)
	}
}
