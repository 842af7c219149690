package postgres_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bikeshare-report/internal/domain"
	"bikeshare-report/internal/storage"
	"bikeshare-report/internal/storage/migrations"
	"bikeshare-report/internal/storage/postgres"
)

func ptr[T any](v T) *T {
	return &v
}

func sampleTrips() []*domain.TripRecord {
	start := time.Date(2018, 9, 3, 8, 0, 0, 0, time.UTC)
	return []*domain.TripRecord{
		{
			TripID: "t2", BikeID: "bike-01", StartTime: start.Add(time.Hour), EndTime: start.Add(90 * time.Minute),
			StartStation: "Canonmills", EndStation: "Stockbridge",
			StartLat: 55.9625, StartLong: -3.1966, EndLat: 55.9585, EndLong: -3.2087,
			SubscriptionType: domain.SubscriptionCasual,
		},
		{
			TripID: "t1", BikeID: "bike-02", StartTime: start, EndTime: start.Add(12 * time.Minute),
			StartStation: "Stockbridge", EndStation: "Canonmills",
			StartLat: 55.9585, StartLong: -3.2087, EndLat: 55.9625, EndLong: -3.1966,
			SubscriptionType: domain.SubscriptionSubscriber, BirthYear: ptr(1975), Gender: domain.GenderMale,
		},
	}
}

func TestTripRecordStore_Integration(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := postgres.NewTripRecordStore(pool)

	require.NoError(t, store.InsertBulk(ctx, sampleTrips()))

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "t1", all[0].TripID)
	assert.Equal(t, sampleTrips()[1], all[0])
	assert.Equal(t, sampleTrips()[0], all[1])

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	start := all[0].StartTime
	ranged, err := store.GetByTimeRange(ctx, start, start)
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, "t1", ranged[0].TripID)

	// whole batch rolled back on duplicate
	dup := sampleTrips()
	dup[0].TripID = "t3"
	err = store.InsertBulk(ctx, dup)
	assert.True(t, errors.Is(err, storage.ErrDuplicateKey), "got %v", err)

	count, err = store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestRunPostgresMigrations_Idempotent(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	require.NoError(t, migrations.RunPostgresMigrations(context.Background(), pool))
}
