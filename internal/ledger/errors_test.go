package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"

	"github.com/carson-networks/ledger-server/internal/storage/dberr"
)

func TestCode(t *testing.T) {
	tests := []struct {
		err      error
		expected string
	}{
		{nil, ""},
		{ErrAccountNotFound, CodeAccountNotFound},
		{fmt.Errorf("%w: 1001", ErrAccountInactive), CodeAccountInactive},
		{ErrInvalidAmount, CodeInvalidAmount},
		{ErrInvalidRequest, CodeInvalidRequest},
		{ErrInvalidAccount, CodeInvalidAccount},
		{ErrInsufficientFunds, CodeInsufficientFunds},
		{storageFailure("insert", errors.New("boom")), CodeStorageFailure},
		{errors.New("unclassified"), CodeStorageFailure},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, Code(tt.err), "%v", tt.err)
	}
}

func TestStorageFailure_KeepsConflictInChain(t *testing.T) {
	err := storageFailure("insert movement", fmt.Errorf("%w: duplicate", dberr.ErrConflict))

	assert.ErrorIs(t, err, ErrStorageFailure)
	assert.True(t, dberr.IsConflict(err))
	assert.False(t, IsBusinessError(err))
}

func TestLegKeys(t *testing.T) {
	origin := uuid.Must(uuid.FromString("0190c3a4-7b1e-7c00-8000-000000000001"))

	assert.Equal(t, "transfer:0190c3a4-7b1e-7c00-8000-000000000001:t1:debit", DebitLegKey(origin, "t1"))
	assert.Equal(t, "transfer:0190c3a4-7b1e-7c00-8000-000000000001:t1:credit", CreditLegKey(origin, "t1"))
	assert.NotEqual(t, DebitLegKey(origin, "a:credit"), CreditLegKey(origin, "a"))
	assert.True(t, isReservedKey(DebitLegKey(origin, "t1")))
	assert.False(t, isReservedKey("cred-1"))
}
