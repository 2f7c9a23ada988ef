package movement

import (
	"context"
	"time"

	"github.com/aarondl/opt/omit"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

// Direction tags a movement as a credit or a debit. The amount itself is
// always a positive magnitude.
type Direction string

const (
	DirectionCredit Direction = "C"
	DirectionDebit  Direction = "D"
)

func (d Direction) Valid() bool {
	return d == DirectionCredit || d == DirectionDebit
}

// Movement represents one immutable ledger entry.
type Movement struct {
	ID             uuid.UUID       `db:"id"`
	AccountID      uuid.UUID       `db:"account_id"`
	TransferID     uuid.NullUUID   `db:"transfer_id"`
	IdempotencyKey string          `db:"idempotency_key"`
	Amount         decimal.Decimal `db:"amount"`
	Direction      Direction       `db:"direction"`
	CreatedAt      time.Time       `db:"created_at"`
}

// Signed returns the amount as it contributes to the account balance.
func (m *Movement) Signed() decimal.Decimal {
	if m.Direction == DirectionDebit {
		return m.Amount.Neg()
	}
	return m.Amount
}

// MovementCreate is the input for inserting a movement. TransferID is only
// set for the legs of a transfer.
type MovementCreate struct {
	AccountID      uuid.UUID
	TransferID     omit.Val[uuid.UUID]
	IdempotencyKey string
	Amount         decimal.Decimal
	Direction      Direction
}

// FromCreate builds the row that Insert persists.
func FromCreate(create *MovementCreate) *Movement {
	row := &Movement{
		ID:             uuid.Must(uuid.NewV7()),
		AccountID:      create.AccountID,
		IdempotencyKey: create.IdempotencyKey,
		Amount:         create.Amount,
		Direction:      create.Direction,
		CreatedAt:      time.Now().UTC().Truncate(time.Microsecond),
	}
	if transferID, ok := create.TransferID.Get(); ok {
		row.TransferID = uuid.NullUUID{UUID: transferID, Valid: true}
	}
	return row
}

// MovementFilter specifies filters for an account statement.
type MovementFilter struct {
	AccountID       uuid.UUID
	Limit           int
	Offset          int
	MaxCreationTime *time.Time
}

// IMovementReader is the read side of the movement store.
type IMovementReader interface {
	FindByIdempotencyKey(ctx context.Context, accountID uuid.UUID, key string) (*Movement, error)
	ListByTransfer(ctx context.Context, transferID uuid.UUID) ([]*Movement, error)
	// NetAmount is the sum of credits minus the sum of debits of the account.
	NetAmount(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
	// Balance is NetAmount minus the fees charged to the account, read as one
	// statement so a concurrent commit is seen entirely or not at all.
	Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error)
	// List returns up to filter.Limit+1 rows, newest first.
	List(ctx context.Context, filter *MovementFilter) ([]*Movement, error)
}

// IMovementWriter is the transaction-bound side of the movement store.
type IMovementWriter interface {
	IMovementReader
	Insert(ctx context.Context, create *MovementCreate) (*Movement, error)
}
