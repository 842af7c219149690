package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

// RunSQLiteMigrations applies all embedded SQLite files in lexical order.
// go-sqlite3 executes multi-statement scripts, so each file runs as one Exec.
func RunSQLiteMigrations(ctx context.Context, db *sql.DB) error {
	files, err := readMigrations(SQLiteFS, "sqlite")
	if err != nil {
		return err
	}

	for _, f := range files {
		if _, err := db.ExecContext(ctx, f.sql); err != nil {
			return fmt.Errorf("apply migration %s: %w", f.name, err)
		}
	}

	return nil
}
