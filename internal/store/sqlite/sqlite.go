// Package sqlite opens the record store on an embedded SQLite database.
package sqlite

import (
	"database/sql"
	"embed"
	"fmt"

	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	_ "modernc.org/sqlite"

	"github.com/alfredjeanlab/skyrecords/internal/store/sqlstore"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// New opens (or creates) the SQLite database at path and runs any pending
// migrations. Use ":memory:" for an in-memory database.
//
// The pool is limited to one connection: SQLite has no row locks, so
// transactions are serialised instead, and an in-memory database only
// exists on the connection that created it.
func New(path, storageGroup string) (*sqlstore.Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		// Enable WAL mode for better concurrent read performance.
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
	}
	if _, err := db.Exec("PRAGMA busy_timeout=5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return sqlstore.New(db, sqlstore.SQLite, storageGroup), nil
}

func runMigrations(db *sql.DB) error {
	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	return sqlstore.Migrate(migrationsFS, "migrations", "sqlite", driver)
}
