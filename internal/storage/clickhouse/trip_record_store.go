package clickhouse

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"bikeshare-report/internal/domain"
	"bikeshare-report/internal/storage"
)

// TripRecordStore implements storage.TripRecordStore using ClickHouse.
// MergeTree does not enforce uniqueness, so duplicates are checked before insert.
type TripRecordStore struct {
	conn *Conn
}

// NewTripRecordStore creates a new TripRecordStore.
func NewTripRecordStore(conn *Conn) *TripRecordStore {
	return &TripRecordStore{conn: conn}
}

// Compile-time interface check.
var _ storage.TripRecordStore = (*TripRecordStore)(nil)

const selectTripColumns = `
	SELECT
		trip_id, bike_id, start_time, end_time,
		start_station, end_station,
		start_lat, start_long, end_lat, end_long,
		subscription_type, birth_year, gender
	FROM trip_records
`

// InsertBulk adds multiple trips. Fails entire batch on duplicate.
func (s *TripRecordStore) InsertBulk(ctx context.Context, trips []*domain.TripRecord) error {
	if len(trips) == 0 {
		return nil
	}

	// Check for intra-batch duplicates
	ids := make([]string, 0, len(trips))
	seen := make(map[string]struct{}, len(trips))
	for _, t := range trips {
		if err := storage.ValidateTrip(t); err != nil {
			return err
		}
		if _, exists := seen[t.TripID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[t.TripID] = struct{}{}
		ids = append(ids, t.TripID)
	}

	// Check for duplicates against existing DB rows
	exists, err := s.anyExists(ctx, ids)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateKey
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO trip_records (
			trip_id, bike_id, start_time, end_time,
			start_station, end_station,
			start_lat, start_long, end_lat, end_long,
			subscription_type, birth_year, gender
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, t := range trips {
		err = batch.Append(
			t.TripID, t.BikeID, t.StartTime.UTC(), t.EndTime.UTC(),
			t.StartStation, t.EndStation,
			t.StartLat, t.StartLong, t.EndLat, t.EndLong,
			string(t.SubscriptionType), toNullableInt32(t.BirthYear), string(t.Gender),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetAll retrieves all trips ordered by start_time, trip_id.
func (s *TripRecordStore) GetAll(ctx context.Context) ([]*domain.TripRecord, error) {
	rows, err := s.conn.Query(ctx, selectTripColumns+`
		ORDER BY start_time ASC, trip_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query all trips: %w", err)
	}
	defer rows.Close()

	return scanTripRecords(rows)
}

// GetByTimeRange retrieves trips started within [start, end] (inclusive).
func (s *TripRecordStore) GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.TripRecord, error) {
	rows, err := s.conn.Query(ctx, selectTripColumns+`
		WHERE start_time >= ? AND start_time <= ?
		ORDER BY start_time ASC, trip_id ASC
	`, start.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanTripRecords(rows)
}

// Count returns the number of stored trips.
func (s *TripRecordStore) Count(ctx context.Context) (int, error) {
	var count uint64
	if err := s.conn.QueryRow(ctx, `SELECT count() FROM trip_records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count trips: %w", err)
	}
	return int(count), nil
}

// anyExists reports whether any of ids is already stored.
func (s *TripRecordStore) anyExists(ctx context.Context, ids []string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `
		SELECT count() FROM trip_records
		WHERE has(?, trip_id)
	`, ids).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func scanTripRecords(rows driver.Rows) ([]*domain.TripRecord, error) {
	var result []*domain.TripRecord
	for rows.Next() {
		var (
			t                    domain.TripRecord
			subscription, gender string
			birthYear            *int32
		)
		err := rows.Scan(
			&t.TripID, &t.BikeID, &t.StartTime, &t.EndTime,
			&t.StartStation, &t.EndStation,
			&t.StartLat, &t.StartLong, &t.EndLat, &t.EndLong,
			&subscription, &birthYear, &gender,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trip: %w", err)
		}

		t.StartTime = t.StartTime.UTC()
		t.EndTime = t.EndTime.UTC()
		t.SubscriptionType = domain.SubscriptionType(subscription)
		t.Gender = domain.Gender(gender)
		t.BirthYear = fromNullableInt32(birthYear)
		result = append(result, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trips: %w", err)
	}
	return result, nil
}

func toNullableInt32(v *int) *int32 {
	if v == nil {
		return nil
	}
	n := int32(*v)
	return &n
}

func fromNullableInt32(v *int32) *int {
	if v == nil {
		return nil
	}
	n := int(*v)
	return &n
}
