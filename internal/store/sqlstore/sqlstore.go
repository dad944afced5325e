// Package sqlstore implements store.Backend on database/sql. All records
// live in one table keyed by (collection, id, version) with the remaining
// attributes in a JSON column; the Dialect covers per-database syntax.
package sqlstore

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/alfredjeanlab/skyrecords/internal/store"
)

// Store implements store.Backend backed by a SQL database.
type Store struct {
	db      *sql.DB
	dialect Dialect
	group   string
}

// Compile-time check that Store implements store.Backend.
var _ store.Backend = (*Store)(nil)

// New wraps an open database. The caller hands ownership of db to the Store.
func New(db *sql.DB, d Dialect, storageGroup string) *Store {
	return &Store{db: db, dialect: d, group: storageGroup}
}

// DB returns the underlying connection pool.
func (s *Store) DB() *sql.DB { return s.db }

// Dialect returns the SQL dialect in use.
func (s *Store) Dialect() Dialect { return s.dialect }

func (s *Store) StorageGroup() string { return s.group }

func (s *Store) Query(ctx context.Context, q store.Query) ([]store.Row, error) {
	return queryRecords(ctx, s.db, s.dialect, q)
}

func (s *Store) Write(ctx context.Context, req *store.WriteRequest) error {
	return queryWriteRecord(ctx, s.db, s.dialect, req)
}

func (s *Store) Ping(ctx context.Context) error {
	return store.WrapIO("ping", "", s.db.PingContext(ctx))
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// RunInTransaction begins a database transaction, creates a txStore that
// delegates to it, calls fn, and commits on success or rolls back on error.
func (s *Store) RunInTransaction(ctx context.Context, fn func(tx store.Backend) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return store.WrapIO("begin transaction", "", err)
	}

	txS := &txStore{tx: tx, dialect: s.dialect, group: s.group}
	if err := fn(txS); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return store.WrapIO("commit transaction", "", fmt.Errorf("commit: %w", err))
	}
	return nil
}

// txStore implements store.Backend using a *sql.Tx.
type txStore struct {
	tx      *sql.Tx
	dialect Dialect
	group   string
}

// Compile-time check that txStore implements store.Backend.
var _ store.Backend = (*txStore)(nil)

func (s *txStore) StorageGroup() string { return s.group }

func (s *txStore) Query(ctx context.Context, q store.Query) ([]store.Row, error) {
	return queryRecords(ctx, s.tx, s.dialect, q)
}

func (s *txStore) Write(ctx context.Context, req *store.WriteRequest) error {
	return queryWriteRecord(ctx, s.tx, s.dialect, req)
}

// RunInTransaction on a txStore reuses the existing transaction (no nesting).
func (s *txStore) RunInTransaction(ctx context.Context, fn func(tx store.Backend) error) error {
	return fn(s)
}

// Ping is a no-op inside a transaction; the transaction itself holds a live connection.
func (s *txStore) Ping(context.Context) error {
	return nil
}

// Close is a no-op for a transaction store; the parent store owns the connection.
func (s *txStore) Close() error {
	return nil
}
