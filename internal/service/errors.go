package service

import (
	"errors"
	"fmt"

	"github.com/carson-networks/ledger-server/internal/ledger"
)

// ErrInvalidCredentials is returned when a password does not match the
// account it was given for.
var ErrInvalidCredentials = errors.New("invalid credentials")

const CodeInvalidCredentials = "INVALID_CREDENTIALS"

// Code extends ledger.Code with the errors raised by this package.
func Code(err error) string {
	if errors.Is(err, ErrInvalidCredentials) {
		return CodeInvalidCredentials
	}
	return ledger.Code(err)
}

func storageFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ledger.ErrStorageFailure, op, err)
}
