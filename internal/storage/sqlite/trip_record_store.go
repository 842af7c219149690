package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"bikeshare-report/internal/domain"
	"bikeshare-report/internal/storage"
)

// TripRecordStore implements storage.TripRecordStore on SQLite.
// Timestamps are stored as Unix nanoseconds so ordering is numeric.
type TripRecordStore struct {
	db *sql.DB
}

// NewTripRecordStore creates a new TripRecordStore.
func NewTripRecordStore(db *sql.DB) *TripRecordStore {
	return &TripRecordStore{db: db}
}

// Compile-time interface check.
var _ storage.TripRecordStore = (*TripRecordStore)(nil)

const selectTripColumns = `
	SELECT
		trip_id, bike_id, start_time_ns, end_time_ns,
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

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO trip_records (
			trip_id, bike_id, start_time_ns, end_time_ns,
			start_station, end_station,
			start_lat, start_long, end_lat, end_long,
			subscription_type, birth_year, gender
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, t := range trips {
		var birthYear sql.NullInt64
		if t.BirthYear != nil {
			birthYear = sql.NullInt64{Int64: int64(*t.BirthYear), Valid: true}
		}

		_, err := stmt.ExecContext(ctx,
			t.TripID, t.BikeID, t.StartTime.UnixNano(), t.EndTime.UnixNano(),
			t.StartStation, t.EndStation,
			t.StartLat, t.StartLong, t.EndLat, t.EndLong,
			string(t.SubscriptionType), birthYear, string(t.Gender),
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert trip record in bulk: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetAll retrieves all trips ordered by start_time, trip_id.
func (s *TripRecordStore) GetAll(ctx context.Context) ([]*domain.TripRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectTripColumns+`
		ORDER BY start_time_ns ASC, trip_id ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("get all trip records: %w", err)
	}
	defer rows.Close()

	return scanTripRecords(rows)
}

// GetByTimeRange retrieves trips started within [start, end] (inclusive).
func (s *TripRecordStore) GetByTimeRange(ctx context.Context, start, end time.Time) ([]*domain.TripRecord, error) {
	rows, err := s.db.QueryContext(ctx, selectTripColumns+`
		WHERE start_time_ns >= ? AND start_time_ns <= ?
		ORDER BY start_time_ns ASC, trip_id ASC
	`, start.UnixNano(), end.UnixNano())
	if err != nil {
		return nil, fmt.Errorf("get trip records by time range: %w", err)
	}
	defer rows.Close()

	return scanTripRecords(rows)
}

// Count returns the number of stored trips.
func (s *TripRecordStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM trip_records`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count trip records: %w", err)
	}
	return count, nil
}

func scanTripRecords(rows *sql.Rows) ([]*domain.TripRecord, error) {
	var result []*domain.TripRecord
	for rows.Next() {
		var (
			t                    domain.TripRecord
			startNs, endNs       int64
			subscription, gender string
			birthYear            sql.NullInt64
		)
		err := rows.Scan(
			&t.TripID, &t.BikeID, &startNs, &endNs,
			&t.StartStation, &t.EndStation,
			&t.StartLat, &t.StartLong, &t.EndLat, &t.EndLong,
			&subscription, &birthYear, &gender,
		)
		if err != nil {
			return nil, fmt.Errorf("scan trip record: %w", err)
		}

		t.StartTime = time.Unix(0, startNs).UTC()
		t.EndTime = time.Unix(0, endNs).UTC()
		t.SubscriptionType = domain.SubscriptionType(subscription)
		t.Gender = domain.Gender(gender)
		if birthYear.Valid {
			year := int(birthYear.Int64)
			t.BirthYear = &year
		}
		result = append(result, &t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate trip records: %w", err)
	}
	return result, nil
}
