package transfer

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

// Transfer records the intent of moving funds between two accounts. Its
// movements and fee reference it by ID.
type Transfer struct {
	ID                   uuid.UUID       `db:"id"`
	OriginAccountID      uuid.UUID       `db:"origin_account_id"`
	DestinationAccountID uuid.UUID       `db:"destination_account_id"`
	IdempotencyKey       string          `db:"idempotency_key"`
	Amount               decimal.Decimal `db:"amount"`
	CreatedAt            time.Time       `db:"created_at"`
}

// TransferCreate is the input for inserting a transfer.
type TransferCreate struct {
	OriginAccountID      uuid.UUID
	DestinationAccountID uuid.UUID
	IdempotencyKey       string
	Amount               decimal.Decimal
}

func FromCreate(create *TransferCreate) *Transfer {
	return &Transfer{
		ID:                   uuid.Must(uuid.NewV7()),
		OriginAccountID:      create.OriginAccountID,
		DestinationAccountID: create.DestinationAccountID,
		IdempotencyKey:       create.IdempotencyKey,
		Amount:               create.Amount,
		CreatedAt:            time.Now().UTC().Truncate(time.Microsecond),
	}
}

// TransferFilter selects transfers where the account is either side.
type TransferFilter struct {
	AccountID       uuid.UUID
	Limit           int
	Offset          int
	MaxCreationTime *time.Time
}

type ITransferReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Transfer, error)
	FindByIdempotencyKey(ctx context.Context, originID uuid.UUID, key string) (*Transfer, error)
	// List returns up to filter.Limit+1 rows, newest first.
	List(ctx context.Context, filter *TransferFilter) ([]*Transfer, error)
}

type ITransferWriter interface {
	ITransferReader
	Insert(ctx context.Context, create *TransferCreate) (*Transfer, error)
}
