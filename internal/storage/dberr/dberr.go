// Package dberr classifies storage errors that callers are expected to react to.
package dberr

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// ErrConflict reports a write that lost against a concurrent writer: a unique
// constraint violation or a serialization failure. Retrying the whole unit of
// work is safe.
var ErrConflict = errors.New("storage: conflicting write")

const (
	codeUniqueViolation      pq.ErrorCode = "23505"
	codeSerializationFailure pq.ErrorCode = "40001"
	codeDeadlockDetected     pq.ErrorCode = "40P01"
)

// FromPostgres maps retryable postgres errors onto ErrConflict and leaves
// everything else untouched.
func FromPostgres(err error) error {
	if err == nil {
		return nil
	}

	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}

	switch pqErr.Code {
	case codeUniqueViolation, codeSerializationFailure, codeDeadlockDetected:
		return fmt.Errorf("%w: %s (%s)", ErrConflict, pqErr.Message, pqErr.Constraint)
	}
	return err
}

// IsConflict reports whether err is, or wraps, ErrConflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
