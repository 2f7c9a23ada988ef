package ledger

import (
	"strings"

	"github.com/gofrs/uuid/v5"
)

// ReservedKeyPrefix marks the idempotency keys the engine derives for the legs
// of a transfer. Standalone movements may not use it.
const ReservedKeyPrefix = "transfer:"

const (
	debitLegSuffix  = ":debit"
	creditLegSuffix = ":credit"
)

// DebitLegKey is the idempotency key of the debit movement of the transfer
// (originID, key). The origin id has a fixed width, so distinct transfer
// requests never share a leg key.
func DebitLegKey(originID uuid.UUID, key string) string {
	return ReservedKeyPrefix + originID.String() + ":" + key + debitLegSuffix
}

// CreditLegKey is the idempotency key of the credit movement of the transfer
// (originID, key).
func CreditLegKey(originID uuid.UUID, key string) string {
	return ReservedKeyPrefix + originID.String() + ":" + key + creditLegSuffix
}

func isReservedKey(key string) bool {
	return strings.HasPrefix(key, ReservedKeyPrefix)
}
