package store

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Row is the backend-neutral form of a stored record.
type Row struct {
	ID      string
	Version int64
	Fields  map[string]any
}

// String returns the named field as a string. Missing fields read as "".
func (r Row) String(key string) (string, error) {
	v, ok := r.Fields[key]
	if !ok || v == nil {
		return "", nil
	}
	switch s := v.(type) {
	case string:
		return s, nil
	case json.Number:
		return s.String(), nil
	}
	return "", fmt.Errorf("%w: field %q is %T, want string", ErrDecode, key, v)
}

// Int64 returns the named field as an int64. Missing fields read as 0.
func (r Row) Int64(key string) (int64, error) {
	v, ok := r.Fields[key]
	if !ok || v == nil {
		return 0, nil
	}
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int32:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: field %q: %v", ErrDecode, key, err)
		}
		return i, nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: field %q: %v", ErrDecode, key, err)
		}
		return i, nil
	}
	return 0, fmt.Errorf("%w: field %q is %T, want integer", ErrDecode, key, v)
}

// Int returns the named field as an int.
func (r Row) Int(key string) (int, error) {
	n, err := r.Int64(key)
	return int(n), err
}
