package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikeshare-report/internal/domain"
	"bikeshare-report/internal/storage"
)

var tripColumns = []string{
	"trip_id", "bike_id", "start_time", "end_time",
	"start_station", "end_station",
	"start_lat", "start_long", "end_lat", "end_long",
	"subscription_type", "birth_year", "gender",
}

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

func mockTrip(id string, start time.Time) *domain.TripRecord {
	return &domain.TripRecord{
		TripID:           id,
		BikeID:           "bike-05",
		StartTime:        start,
		EndTime:          start.Add(15 * time.Minute),
		StartStation:     "Haymarket",
		EndStation:       "Dalry",
		StartLat:         55.9457,
		StartLong:        -3.2184,
		EndLat:           55.9405,
		EndLong:          -3.2242,
		SubscriptionType: domain.SubscriptionCasual,
	}
}

func insertArgs(id string) []any {
	args := []any{id, "bike-05"}
	for i := 0; i < 11; i++ {
		args = append(args, pgxmock.AnyArg())
	}
	return args
}

func TestTripRecordStore_InsertBulk_Mock(t *testing.T) {
	mock := newMock(t)
	store := NewTripRecordStore(mock)
	start := time.Date(2018, 8, 1, 7, 45, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO trip_records`).
		WithArgs(insertArgs("t1")...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO trip_records`).
		WithArgs(insertArgs("t2")...).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	err := store.InsertBulk(context.Background(), []*domain.TripRecord{
		mockTrip("t1", start),
		mockTrip("t2", start.Add(time.Hour)),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTripRecordStore_InsertBulk_DuplicateKey(t *testing.T) {
	mock := newMock(t)
	store := NewTripRecordStore(mock)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO trip_records`).
		WithArgs(insertArgs("t1")...).
		WillReturnError(&pgconn.PgError{Code: pgErrUniqueViolation})
	mock.ExpectRollback()

	err := store.InsertBulk(context.Background(), []*domain.TripRecord{mockTrip("t1", time.Now().UTC())})
	assert.True(t, errors.Is(err, storage.ErrDuplicateKey), "got %v", err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTripRecordStore_InsertBulk_InvalidInput(t *testing.T) {
	mock := newMock(t)
	store := NewTripRecordStore(mock)

	err := store.InsertBulk(context.Background(), []*domain.TripRecord{mockTrip("", time.Now().UTC())})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTripRecordStore_GetAll_Mock(t *testing.T) {
	mock := newMock(t)
	store := NewTripRecordStore(mock)

	start := time.Date(2018, 8, 1, 7, 45, 0, 0, time.UTC)
	year := 1992

	mock.ExpectQuery(`SELECT (.+) FROM trip_records\s+ORDER BY start_time ASC, trip_id ASC`).
		WillReturnRows(pgxmock.NewRows(tripColumns).
			AddRow("t1", "bike-05", start, start.Add(15*time.Minute), "Haymarket", "Dalry",
				55.9457, -3.2184, 55.9405, -3.2242, "Subscriber", &year, "Female").
			AddRow("t2", "bike-06", start.Add(time.Hour), start.Add(2*time.Hour), "Dalry", "Haymarket",
				55.9405, -3.2242, 55.9457, -3.2184, "Casual", nil, ""))

	trips, err := store.GetAll(context.Background())
	require.NoError(t, err)
	require.Len(t, trips, 2)

	assert.Equal(t, domain.SubscriptionSubscriber, trips[0].SubscriptionType)
	assert.Equal(t, domain.GenderFemale, trips[0].Gender)
	require.NotNil(t, trips[0].BirthYear)
	assert.Equal(t, 1992, *trips[0].BirthYear)

	assert.Nil(t, trips[1].BirthYear)
	assert.Equal(t, domain.Gender(""), trips[1].Gender)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTripRecordStore_GetByTimeRange_Mock(t *testing.T) {
	mock := newMock(t)
	store := NewTripRecordStore(mock)

	from := time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2018, 1, 31, 23, 59, 59, 0, time.UTC)

	mock.ExpectQuery(`WHERE start_time >= \$1 AND start_time <= \$2`).
		WithArgs(from, to).
		WillReturnRows(pgxmock.NewRows(tripColumns))

	trips, err := store.GetByTimeRange(context.Background(), from, to)
	require.NoError(t, err)
	assert.Empty(t, trips)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTripRecordStore_Count_Mock(t *testing.T) {
	mock := newMock(t)
	store := NewTripRecordStore(mock)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM trip_records`).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(42)))

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsDuplicateKeyError(t *testing.T) {
	assert.True(t, isDuplicateKeyError(&pgconn.PgError{Code: "23505"}))
	assert.False(t, isDuplicateKeyError(&pgconn.PgError{Code: "23503"}))
	assert.False(t, isDuplicateKeyError(errors.New("boom")))
	assert.False(t, isDuplicateKeyError(nil))
}
