package store

import (
	"errors"
	"fmt"
)

// ErrBackendIO classifies transport and storage failures. Every error a
// Backend returns from Query, Write or a transaction boundary matches it
// with errors.Is.
var ErrBackendIO = errors.New("backend i/o failure")

// ErrDecode classifies rows that cannot be converted to or from an entity.
var ErrDecode = errors.New("record codec failure")

// IOError wraps a driver error with the operation and collection it hit.
type IOError struct {
	Op         string
	Collection string
	Err        error
}

func (e *IOError) Error() string {
	if e.Collection == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Collection, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Is makes every IOError match ErrBackendIO.
func (e *IOError) Is(target error) bool { return target == ErrBackendIO }

// WrapIO returns err as an *IOError, or nil when err is nil. Errors that
// already match ErrBackendIO are returned unchanged.
func WrapIO(op, collection string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrBackendIO) {
		return err
	}
	return &IOError{Op: op, Collection: collection, Err: err}
}
