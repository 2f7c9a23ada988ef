package fee

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

// Fee is a charge against the origin account of a transfer.
type Fee struct {
	ID         uuid.UUID       `db:"id"`
	AccountID  uuid.UUID       `db:"account_id"`
	TransferID uuid.UUID       `db:"transfer_id"`
	Amount     decimal.Decimal `db:"amount"`
	CreatedAt  time.Time       `db:"created_at"`
}

type FeeCreate struct {
	AccountID  uuid.UUID
	TransferID uuid.UUID
	Amount     decimal.Decimal
}

func FromCreate(create *FeeCreate) *Fee {
	return &Fee{
		ID:         uuid.Must(uuid.NewV7()),
		AccountID:  create.AccountID,
		TransferID: create.TransferID,
		Amount:     create.Amount,
		CreatedAt:  time.Now().UTC().Truncate(time.Microsecond),
	}
}

type IFeeReader interface {
	SumByAccount(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
	FindByTransfer(ctx context.Context, transferID uuid.UUID) (*Fee, error)
}

type IFeeWriter interface {
	IFeeReader
	Insert(ctx context.Context, create *FeeCreate) (*Fee, error)
}
