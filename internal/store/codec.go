package store

import (
	"context"
	"fmt"
)

// Codec converts between an entity and its stored Row.
type Codec[T any] interface {
	Encode(v T) (Row, error)
	Decode(r Row) (T, error)
}

// QueryList runs q against b and decodes every row with c.
func QueryList[T any](ctx context.Context, b Backend, q Query, c Codec[T]) ([]T, error) {
	rows, err := b.Query(ctx, q)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(rows))
	for _, r := range rows {
		v, err := c.Decode(r)
		if err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", q.Collection, r.ID, err)
		}
		out = append(out, v)
	}
	return out, nil
}

// NewWriteRequest encodes v with c into a request for collection at version.
func NewWriteRequest[T any](collection string, version int64, v T, c Codec[T]) (*WriteRequest, error) {
	row, err := c.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", collection, err)
	}
	if row.ID == "" {
		return nil, fmt.Errorf("encode %s: %w: empty id", collection, ErrDecode)
	}
	row.Version = version
	return &WriteRequest{Collection: collection, Version: version, Row: row}, nil
}
