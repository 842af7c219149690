// Package source opens the trip store named by the configuration.
package source

import (
	"context"
	"fmt"

	"bikeshare-report/internal/config"
	"bikeshare-report/internal/domain"
	"bikeshare-report/internal/ingest"
	"bikeshare-report/internal/pipeline"
	"bikeshare-report/internal/storage"
	"bikeshare-report/internal/storage/clickhouse"
	"bikeshare-report/internal/storage/memory"
	"bikeshare-report/internal/storage/migrations"
	"bikeshare-report/internal/storage/postgres"
	"bikeshare-report/internal/storage/sqlite"
)

// Options tune Open.
type Options struct {
	// Migrate applies schema migrations to database sources before use.
	Migrate bool
	// FixtureSeed seeds the fixtures source.
	FixtureSeed uint64
}

// Opened is an open trip store and its release function.
type Opened struct {
	Store storage.TripRecordStore
	Close func()
}

// Open connects to the configured source. CSV and fixture sources are
// loaded into a memory store.
func Open(ctx context.Context, cfg config.SourceConfig, opts Options) (*Opened, error) {
	switch cfg.Kind {
	case config.SourceCSV:
		trips, err := ingest.LoadTripsCSV(cfg.CSVPath)
		if err != nil {
			return nil, err
		}
		return loadMemory(ctx, trips)

	case config.SourceFixtures:
		store := memory.NewTripRecordStore()
		if err := pipeline.LoadFixtures(ctx, store, opts.FixtureSeed); err != nil {
			return nil, err
		}
		return &Opened{Store: store, Close: func() {}}, nil

	case config.SourcePostgres:
		pool, err := postgres.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if opts.Migrate {
			if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
				pool.Close()
				return nil, fmt.Errorf("postgres migrations: %w", err)
			}
		}
		return &Opened{Store: postgres.NewTripRecordStore(pool), Close: pool.Close}, nil

	case config.SourceClickhouse:
		var (
			conn *clickhouse.Conn
			err  error
		)
		if opts.Migrate {
			conn, err = migrations.RunClickhouseMigrations(ctx, cfg.ClickhouseDSN)
		} else {
			conn, err = clickhouse.NewConn(ctx, cfg.ClickhouseDSN)
		}
		if err != nil {
			return nil, err
		}
		return &Opened{Store: clickhouse.NewTripRecordStore(conn), Close: func() { conn.Close() }}, nil

	case config.SourceSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		if opts.Migrate {
			if err := migrations.RunSQLiteMigrations(ctx, db); err != nil {
				db.Close()
				return nil, fmt.Errorf("sqlite migrations: %w", err)
			}
		}
		return &Opened{Store: sqlite.NewTripRecordStore(db), Close: func() { db.Close() }}, nil
	}

	return nil, fmt.Errorf("%w: unknown source kind %q", domain.ErrInvalidConfiguration, cfg.Kind)
}

func loadMemory(ctx context.Context, trips []*domain.TripRecord) (*Opened, error) {
	store := memory.NewTripRecordStore()
	if err := store.InsertBulk(ctx, trips); err != nil {
		return nil, fmt.Errorf("load trips into memory: %w", err)
	}
	return &Opened{Store: store, Close: func() {}}, nil
}
