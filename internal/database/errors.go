package database

import (
	"errors"
	"fmt"
)

// ErrFTSUnavailable is returned by search operations when the SQLite
// build does not include the FTS5 extension.
var ErrFTSUnavailable = errors.New("sqlite built without FTS5 support")

// StoreError wraps a failure of the underlying SQLite store. A missing
// row is never a StoreError; repositories report absence with a nil
// result because deletion races with readers are expected.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Wrap converts a repository error into a StoreError. Returns nil when
// err is nil so call sites can wrap unconditionally.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Err: err}
}
