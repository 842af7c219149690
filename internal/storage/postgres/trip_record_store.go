package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"bikeshare-report/internal/domain"
	"bikeshare-report/internal/storage"
)

// TripRecordStore implements storage.TripRecordStore using PostgreSQL.
type TripRecordStore struct {
	db DB
}

// NewTripRecordStore creates a new TripRecordStore.
func NewTripRecordStore(db DB) *TripRecordStore {
	return &TripRecordStore{db: db}
}

// Compile-time interface check.
var _ storage.TripRecordStore = (*TripRecordStore)(nil)

const insertTripQuery = `
	INSERT INTO trip_records (
		trip_id, bike_id, start_time, end_time,
		start_station, end_station,
		start_lat, start_long, end_lat, end_long,
		subscription_type, birth_year, gender
	) VALUES (
		$1, $2, $3, $4,
		$5, $6,
		$7, $8, $9, $10,
		$11, $12, $13
	)
`

const selectTripColumns = `
	SELECT
		trip_id, bike_id, start_time, end_time,
		start_station, end_station,
		start_lat, start_long, end_lat, end_long,
		subscription_type, birth_year, gender
	FROM trip_records
`

// InsertBulk adds multiple trips atomically. Fails entire batch on any duplicate.
func (s *TripRecordStore) InsertBulk(ctx context.Context, trips []*domain.TripRecord) error {
	if len(trips) == 0 {
		return nil
	}
	for _, t := range trips {
		if err := storage.ValidateTrip(t); err != nil {
			return err
		}
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, t := range trips {
		_, err := tx.Exec(ctx, insertTripQuery,
			t.TripID, t.BikeID, t.StartTime, t.EndTime,
			t.StartStation, t.EndStation,
			t.StartLat, t.StartLong, t.EndLat, t.EndLong,
			string(t.SubscriptionType), t.BirthYear, string(t.Gender),
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trip record in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}

	return nil
}

// GetAll retrieves all trips ordered by start_time, trip_id.
func (s *TripRecordStore) GetAll(ctx context.Context) ([]*domain.TripRecord, error) {
	query := selectTripColumns + `
		ORDER BY start_time ASC, trip_id ASC
	`

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get all trip records: %w", err)
	}
	defer rows.Close()

	return scanTripRecords(rows)
}

// GetByTimeRange retrieves trips started within [start, end] (inclusive).
func (s *TripRecordStore) GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.TripRecord, error) {
	query := selectTripColumns + `
		WHERE start_time >= $1 AND start_time <= $2
		ORDER BY start_time ASC, trip_id ASC
	`

	rows, err := s.db.Query(ctx, query, start, end)
	if err != nil {
		return nil, fmt.Errorf("get trip records by time range: %w", err)
	}
	defer rows.Close()

	return scanTripRecords(rows)
}

// Count returns the number of stored trips.
func (s *TripRecordStore) Count(ctx context.Context) (int, error) {
	var count int64
	if err := s.db.QueryRow(ctx, `SELECT COUNT(*) FROM trip_records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count trip records: %w", err)
	}
	return int(count), nil
}

// scanTripRecord scans a single row into TripRecord.
func scanTripRecord(row pgx.Row) (*domain.TripRecord, error) {
	var t domain.TripRecord
	var subscription, gender string

	err := row.Scan(
		&t.TripID, &t.BikeID, &t.StartTime, &t.EndTime,
		&t.StartStation, &t.EndStation,
		&t.StartLat, &t.StartLong, &t.EndLat, &t.EndLong,
		&subscription, &t.BirthYear, &gender,
	)
	if err != nil {
		return nil, err
	}

	t.SubscriptionType = domain.SubscriptionType(subscription)
	t.Gender = domain.Gender(gender)
	t.StartTime = t.StartTime.UTC()
	t.EndTime = t.EndTime.UTC()
	return &t, nil
}

// scanTripRecords scans multiple rows into TripRecord slice.
func scanTripRecords(rows pgx.Rows) ([]*domain.TripRecord, error) {
	var result []*domain.TripRecord
	for rows.Next() {
		t, err := scanTripRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan trip record: %w", err)
		}
		result = append(result, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trip records: %w", err)
	}
	return result, nil
}
