// Package memory provides in-memory implementations of the storage
// interfaces, used by tests, single-process runs and the replay tools.
package memory

import (
	"context"
	"sort"
	"sync"

	"stock-signal-lab/internal/domain"
	"stock-signal-lab/internal/storage"
)

// ScanRecordStore is a thread-safe in-memory scan record store keyed by
// scan ID.
type ScanRecordStore struct {
	mu      sync.RWMutex
	records map[string]*domain.ScanRecord
}

var _ storage.ScanRecordStore = (*ScanRecordStore)(nil)

// NewScanRecordStore creates an empty in-memory scan record store.
func NewScanRecordStore() *ScanRecordStore {
	return &ScanRecordStore{records: make(map[string]*domain.ScanRecord)}
}

// Insert stores a new scan record. Returns ErrDuplicateKey if a record
// with the same ScanID exists.
func (s *ScanRecordStore) Insert(_ context.Context, rec *domain.ScanRecord) error {
	if rec == nil || rec.ScanID == "" || rec.Instrument == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.records[rec.ScanID]; exists {
		return storage.ErrDuplicateKey
	}
	s.records[rec.ScanID] = cloneScanRecord(rec)
	return nil
}

// InsertBulk stores multiple scan records atomically. The batch is
// validated in full before the first write, so a rejected batch leaves
// the store untouched.
func (s *ScanRecordStore) InsertBulk(_ context.Context, recs []*domain.ScanRecord) error {
	if len(recs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[string]struct{}, len(recs))
	for _, rec := range recs {
		if rec == nil || rec.ScanID == "" || rec.Instrument == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.records[rec.ScanID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, dup := batchKeys[rec.ScanID]; dup {
			return storage.ErrDuplicateKey
		}
		batchKeys[rec.ScanID] = struct{}{}
	}

	for _, rec := range recs {
		s.records[rec.ScanID] = cloneScanRecord(rec)
	}
	return nil
}

// GetByID returns the record with the given ScanID, or ErrNotFound.
func (s *ScanRecordStore) GetByID(_ context.Context, scanID string) (*domain.ScanRecord, error) {
	if scanID == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[scanID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return cloneScanRecord(rec), nil
}

// GetByInstrument returns all records for an instrument, ordered by scan
// time ascending.
func (s *ScanRecordStore) GetByInstrument(_ context.Context, instrument string) ([]*domain.ScanRecord, error) {
	if instrument == "" {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.ScanRecord
	for _, rec := range s.records {
		if rec.Instrument == instrument {
			out = append(out, cloneScanRecord(rec))
		}
	}
	sortScanRecords(out)
	return out, nil
}

// GetByTimeRange returns all records whose scan time falls in
// [startMs, endMs), ordered by scan time ascending.
func (s *ScanRecordStore) GetByTimeRange(_ context.Context, startMs, endMs int64) ([]*domain.ScanRecord, error) {
	if endMs < startMs {
		return nil, storage.ErrInvalidInput
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*domain.ScanRecord
	for _, rec := range s.records {
		if rec.TimestampMs >= startMs && rec.TimestampMs < endMs {
			out = append(out, cloneScanRecord(rec))
		}
	}
	sortScanRecords(out)
	return out, nil
}

// GetLatest returns the most recent record per instrument, ordered by
// instrument ascending.
func (s *ScanRecordStore) GetLatest(_ context.Context) ([]*domain.ScanRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	latest := make(map[string]*domain.ScanRecord)
	for _, rec := range s.records {
		cur, exists := latest[rec.Instrument]
		if !exists || rec.TimestampMs > cur.TimestampMs {
			latest[rec.Instrument] = rec
		}
	}

	out := make([]*domain.ScanRecord, 0, len(latest))
	for _, rec := range latest {
		out = append(out, cloneScanRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Instrument < out[j].Instrument
	})
	return out, nil
}

func sortScanRecords(recs []*domain.ScanRecord) {
	sort.Slice(recs, func(i, j int) bool {
		if recs[i].TimestampMs != recs[j].TimestampMs {
			return recs[i].TimestampMs < recs[j].TimestampMs
		}
		return recs[i].Instrument < recs[j].Instrument
	})
}

// cloneScanRecord copies the record and its slices so callers can never
// mutate stored state through a returned pointer.
func cloneScanRecord(rec *domain.ScanRecord) *domain.ScanRecord {
	cp := *rec
	if rec.Components != nil {
		cp.Components = append([]domain.ComponentScore(nil), rec.Components...)
	}
	if rec.Adjustments != nil {
		cp.Adjustments = append([]domain.AppliedAdjustment(nil), rec.Adjustments...)
	}
	if rec.Flags != nil {
		cp.Flags = append([]string(nil), rec.Flags...)
	}
	return &cp
}
