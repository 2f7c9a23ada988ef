package service

import (
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/ledger-server/internal/storage/movement"
)

// Movement is one line of an account statement.
type Movement struct {
	ID             uuid.UUID
	AccountID      uuid.UUID
	TransferID     uuid.NullUUID
	IdempotencyKey string
	Amount         decimal.Decimal
	Direction      movement.Direction
	CreatedAt      time.Time
}

// MovementRequest asks for a credit or a debit on one account.
type MovementRequest struct {
	AccountID      uuid.UUID
	IdempotencyKey string
	Amount         decimal.Decimal
	Direction      movement.Direction
}

// StatementCursor identifies a position in a paginated result set
// and carries the limit and maxCreationTime so subsequent pages are consistent.
type StatementCursor struct {
	Position        int
	Limit           int
	MaxCreationTime time.Time
}

func movementFromStorage(row *movement.Movement) Movement {
	return Movement{
		ID:             row.ID,
		AccountID:      row.AccountID,
		TransferID:     row.TransferID,
		IdempotencyKey: row.IdempotencyKey,
		Amount:         row.Amount,
		Direction:      row.Direction,
		CreatedAt:      row.CreatedAt,
	}
}
