package service

import (
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/ledger-server/internal/storage/transfer"
)

type Transfer struct {
	ID                   uuid.UUID
	OriginAccountID      uuid.UUID
	DestinationAccountID uuid.UUID
	IdempotencyKey       string
	Amount               decimal.Decimal
	CreatedAt            time.Time
}

// TransferRequest moves Amount from the origin to the account with
// DestinationNumber. A nil Fee charges the configured transfer fee.
type TransferRequest struct {
	OriginID          uuid.UUID
	DestinationNumber int64
	IdempotencyKey    string
	Amount            decimal.Decimal
	Fee               *decimal.Decimal
}

func transferFromStorage(row *transfer.Transfer) Transfer {
	return Transfer{
		ID:                   row.ID,
		OriginAccountID:      row.OriginAccountID,
		DestinationAccountID: row.DestinationAccountID,
		IdempotencyKey:       row.IdempotencyKey,
		Amount:               row.Amount,
		CreatedAt:            row.CreatedAt,
	}
}
