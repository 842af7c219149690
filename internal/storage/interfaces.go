package storage

import (
	"context"
	"time"

	"bikeshare-report/internal/domain"
)

// TripRecordStore provides access to trip_records storage.
// The table is the read-only input of a report run; derived data is never stored.
type TripRecordStore interface {
	// InsertBulk adds multiple trips atomically. Fails entire batch on any duplicate trip_id.
	InsertBulk(ctx context.Context, trips []*domain.TripRecord) error

	// GetAll retrieves all trips, ordered by start_time ASC, trip_id ASC.
	GetAll(ctx context.Context) ([]*domain.TripRecord, error)

	// GetByTimeRange retrieves trips started within [start, end] (inclusive), same ordering.
	GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.TripRecord, error)

	// Count returns the number of stored trips.
	Count(ctx context.Context) (int, error)
}

// ValidateTrip checks the fields every store needs to key and index a trip.
func ValidateTrip(t *domain.TripRecord) error {
	if t == nil || t.TripID == "" || t.BikeID == "" || t.StartTime.IsZero() {
		return ErrInvalidInput
	}
	return nil
}
