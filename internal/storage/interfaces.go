// Package storage defines the persistence interfaces for scan records,
// position events and trade logs, together with the sentinel errors all
// implementations share. Implementations live in subpackages.
package storage

import (
	"context"

	"stock-signal-lab/internal/domain"
)

// ScanRecordStore persists the full output of scoring runs, one record
// per instrument per scan.
type ScanRecordStore interface {
	// Insert stores a new scan record.
	// Returns ErrDuplicateKey if a record with the same ScanID exists.
	Insert(ctx context.Context, rec *domain.ScanRecord) error

	// InsertBulk stores multiple scan records atomically. Either all
	// records are stored or none. Returns ErrDuplicateKey if any record
	// collides with an existing one or with another record in the batch.
	InsertBulk(ctx context.Context, recs []*domain.ScanRecord) error

	// GetByID returns the record with the given ScanID.
	// Returns ErrNotFound if no such record exists.
	GetByID(ctx context.Context, scanID string) (*domain.ScanRecord, error)

	// GetByInstrument returns all records for an instrument, ordered by
	// scan time ascending.
	GetByInstrument(ctx context.Context, instrument string) ([]*domain.ScanRecord, error)

	// GetByTimeRange returns all records whose scan time falls in
	// [startMs, endMs), ordered by scan time ascending.
	GetByTimeRange(ctx context.Context, startMs, endMs int64) ([]*domain.ScanRecord, error)

	// GetLatest returns the most recent record per instrument, ordered
	// by instrument ascending.
	GetLatest(ctx context.Context) ([]*domain.ScanRecord, error)
}

// PositionEventStore persists the event trail emitted by the position
// simulator: opens, closes and skipped signals.
type PositionEventStore interface {
	// Insert stores a new position event.
	// Returns ErrDuplicateKey if an event with the same EventID exists.
	Insert(ctx context.Context, ev *domain.PositionEvent) error

	// GetByPositionID returns all events for a position, ordered by
	// event time ascending.
	GetByPositionID(ctx context.Context, positionID string) ([]*domain.PositionEvent, error)

	// GetByInstrument returns all events for an instrument, ordered by
	// event time ascending.
	GetByInstrument(ctx context.Context, instrument string) ([]*domain.PositionEvent, error)

	// GetByType returns all events of the given type, ordered by event
	// time ascending.
	GetByType(ctx context.Context, eventType string) ([]*domain.PositionEvent, error)
}

// TradeLogStore persists one immutable row per closed position. Rows are
// keyed by position ID; a position closes exactly once.
type TradeLogStore interface {
	// Insert stores a new trade log row.
	// Returns ErrDuplicateKey if a row with the same PositionID exists.
	Insert(ctx context.Context, tl *domain.TradeLog) error

	// GetByPositionID returns the row for the given position.
	// Returns ErrNotFound if no such row exists.
	GetByPositionID(ctx context.Context, positionID string) (*domain.TradeLog, error)

	// GetByInstrument returns all rows for an instrument, ordered by
	// exit time ascending.
	GetByInstrument(ctx context.Context, instrument string) ([]*domain.TradeLog, error)

	// GetAll returns every row, ordered by exit time ascending.
	GetAll(ctx context.Context) ([]*domain.TradeLog, error)

	// GetByScoreRange returns all rows whose entry score falls in
	// [minScore, maxScore), ordered by exit time ascending.
	GetByScoreRange(ctx context.Context, minScore, maxScore float64) ([]*domain.TradeLog, error)
}
