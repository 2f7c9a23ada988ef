package ledger

import (
	"errors"
	"fmt"
)

// Business-rule failures. They are detected before the operation writes
// anything and are returned unchanged, possibly wrapped with the offending id.
var (
	ErrAccountNotFound   = errors.New("account not found")
	ErrAccountInactive   = errors.New("account inactive")
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidRequest    = errors.New("invalid request")
	ErrInvalidAccount    = errors.New("invalid account")
	ErrInsufficientFunds = errors.New("insufficient funds")
)

// ErrStorageFailure wraps every error coming from the storage backend. The
// original error stays in the chain so dberr.IsConflict still works.
var ErrStorageFailure = errors.New("storage failure")

const (
	CodeAccountNotFound   = "ACCOUNT_NOT_FOUND"
	CodeAccountInactive   = "INACTIVE_ACCOUNT"
	CodeInvalidAmount     = "INVALID_VALUE"
	CodeInvalidRequest    = "INVALID_REQUEST"
	CodeInvalidAccount    = "INVALID_ACCOUNT"
	CodeInsufficientFunds = "INSUFFICIENT_FUNDS"
	CodeStorageFailure    = "STORAGE_FAILURE"
)

var codes = []struct {
	err  error
	code string
}{
	{ErrAccountNotFound, CodeAccountNotFound},
	{ErrAccountInactive, CodeAccountInactive},
	{ErrInvalidAmount, CodeInvalidAmount},
	{ErrInvalidRequest, CodeInvalidRequest},
	{ErrInvalidAccount, CodeInvalidAccount},
	{ErrInsufficientFunds, CodeInsufficientFunds},
	{ErrStorageFailure, CodeStorageFailure},
}

// Code returns the stable error code for err. Errors outside the ledger
// taxonomy are reported as storage failures so no detail leaks to callers.
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return CodeStorageFailure
}

// IsBusinessError reports whether err is one of the expected, caller
// recoverable failures.
func IsBusinessError(err error) bool {
	code := Code(err)
	return code != "" && code != CodeStorageFailure
}

func storageFailure(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrStorageFailure, op, err)
}

func wrapID(err error, id string) error {
	return fmt.Errorf("%w: %s", err, id)
}
