// Package postgres opens the record store on PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"time"

	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/lib/pq"

	"github.com/alfredjeanlab/skyrecords/internal/store/sqlstore"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Pool limits for the shared connection pool.
const (
	maxOpenConns    = 25
	maxIdleConns    = 5
	connMaxLifetime = 5 * time.Minute
	pingTimeout     = 10 * time.Second
)

// New connects to databaseURL, brings the schema up to date and returns a
// store scoped to storageGroup.
func New(databaseURL, storageGroup string) (*sqlstore.Store, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)

	if err := prepare(db); err != nil {
		db.Close()
		return nil, err
	}
	return sqlstore.New(db, sqlstore.Postgres, storageGroup), nil
}

func prepare(db *sql.DB) error {
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}

	driver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("migration driver: %w", err)
	}
	return sqlstore.Migrate(migrationsFS, "migrations", "postgres", driver)
}
