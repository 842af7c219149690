package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"bikeshare-report/internal/domain"
	"bikeshare-report/internal/storage"
)

// TripRecordStore is an in-memory implementation of storage.TripRecordStore.
type TripRecordStore struct {
	mu   sync.RWMutex
	data map[string]*domain.TripRecord // keyed by trip_id
}

// NewTripRecordStore creates a new in-memory trip store.
func NewTripRecordStore() *TripRecordStore {
	return &TripRecordStore{
		data: make(map[string]*domain.TripRecord),
	}
}

// Compile-time interface check.
var _ storage.TripRecordStore = (*TripRecordStore)(nil)

// InsertBulk adds multiple trips atomically. Fails entire batch on any duplicate.
func (s *TripRecordStore) InsertBulk(_ context.Context, trips []*domain.TripRecord) error {
	if len(trips) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Track keys in this batch to detect intra-batch duplicates
	batchKeys := make(map[string]struct{}, len(trips))

	// First pass: validate and check for duplicates (existing + intra-batch)
	for _, t := range trips {
		if err := storage.ValidateTrip(t); err != nil {
			return err
		}
		if _, exists := s.data[t.TripID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[t.TripID]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[t.TripID] = struct{}{}
	}

	// Second pass: insert all
	for _, t := range trips {
		s.data[t.TripID] = copyTrip(t)
	}

	return nil
}

// GetAll retrieves all trips ordered by start_time, trip_id.
func (s *TripRecordStore) GetAll(_ context.Context) ([]*domain.TripRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.TripRecord, 0, len(s.data))
	for _, t := range s.data {
		result = append(result, copyTrip(t))
	}
	sortTrips(result)

	return result, nil
}

// GetByTimeRange retrieves trips started within [start, end] (inclusive).
func (s *TripRecordStore) GetByTimeRange(_ context.Context, start, end time.Time) ([]*domain.TripRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.TripRecord
	for _, t := range s.data {
		if !t.StartTime.Before(start) && !t.StartTime.After(end) {
			result = append(result, copyTrip(t))
		}
	}
	sortTrips(result)

	return result, nil
}

// Count returns the number of stored trips.
func (s *TripRecordStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.data), nil
}

func sortTrips(trips []*domain.TripRecord) {
	sort.Slice(trips, func(i, j int) bool {
		if !trips[i].StartTime.Equal(trips[j].StartTime) {
			return trips[i].StartTime.Before(trips[j].StartTime)
		}
		return trips[i].TripID < trips[j].TripID
	})
}

// copyTrip also copies the birth year so callers cannot alias stored data.
func copyTrip(t *domain.TripRecord) *domain.TripRecord {
	c := *t
	if t.BirthYear != nil {
		year := *t.BirthYear
		c.BirthYear = &year
	}
	return &c
}
