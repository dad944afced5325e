// Package store defines the backend contract shared by the record access
// components: predicate queries scoped to a collection, upsert-by-identity
// writes, and transactions for check-then-write sequences.
package store

import (
	"context"
)

// Dot separates the storage group from the collection name in a path.
const Dot = "."

// IDField addresses the identity column rather than a stored field.
const IDField = "id"

// Backend is the persistence interface for versioned records.
type Backend interface {
	// StorageGroup returns the namespace prefix collections live under.
	StorageGroup() string

	// Query returns the rows of q.Collection matching every condition,
	// ordered by id then version. No matches is an empty result, not an error.
	Query(ctx context.Context, q Query) ([]Row, error)

	// Write upserts req.Row at (req.Collection, req.Row.ID, req.Version).
	Write(ctx context.Context, req *WriteRequest) error

	// RunInTransaction calls fn with a Backend bound to a single transaction,
	// committing when fn returns nil and rolling back otherwise.
	RunInTransaction(ctx context.Context, fn func(tx Backend) error) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Lifecycle
	Close() error
}

// Path returns the full collection path for name under b's storage group.
func Path(b Backend, name string) string {
	group := b.StorageGroup()
	if group == "" {
		return name
	}
	return group + Dot + name
}

// Op is a comparison operator in a query condition.
type Op string

const (
	OpEq  Op = "="
	OpGte Op = ">="
)

// IsValid reports whether op is a supported operator.
func (op Op) IsValid() bool {
	switch op {
	case OpEq, OpGte:
		return true
	}
	return false
}

// Condition compares one stored field (or the identity, via IDField) to a value.
type Condition struct {
	Field string
	Op    Op
	Value any
}

// Eq returns an equality condition.
func Eq(field string, value any) Condition {
	return Condition{Field: field, Op: OpEq, Value: value}
}

// Gte returns a lower-bound condition.
func Gte(field string, value any) Condition {
	return Condition{Field: field, Op: OpGte, Value: value}
}

// Query selects rows of a collection.
type Query struct {
	Collection string // full path, see Path
	Conditions []Condition

	// ForUpdate locks the matched rows until the surrounding transaction
	// ends. Backends without row locks serialise transactions instead.
	ForUpdate bool
}

// Where returns a copy of q with conds appended.
func (q Query) Where(conds ...Condition) Query {
	out := q
	out.Conditions = append(append([]Condition(nil), q.Conditions...), conds...)
	return out
}

// WriteRequest is a single upsert handed to a Backend. It is built per call
// and not retained by the backend after Write returns.
type WriteRequest struct {
	Collection string // full path, see Path
	Version    int64
	Row        Row
}
