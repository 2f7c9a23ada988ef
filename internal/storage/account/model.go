package account

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
)

// FirstNumber is the display number given to the first registered account.
// Later accounts count up from it.
const FirstNumber int64 = 1001

// Account represents an account record.
type Account struct {
	ID           uuid.UUID `db:"id"`
	Number       int64     `db:"number"`
	Name         string    `db:"name"`
	PasswordHash string    `db:"password_hash"`
	Salt         string    `db:"salt"`
	Active       bool      `db:"active"`
	CreatedAt    time.Time `db:"created_at"`
}

// AccountFilter specifies filters for listing accounts.
type AccountFilter struct {
	Limit  int
	Offset int
}

// AccountCursor identifies a position in a paginated result set.
type AccountCursor struct {
	Position int
	Limit    int
}

// AccountListResult contains a page of accounts and an optional next cursor.
type AccountListResult struct {
	Accounts   []*Account
	NextCursor *AccountCursor
}

// AccountCreate is the input for registering a new account.
type AccountCreate struct {
	Name         string
	PasswordHash string
	Salt         string
}

// IAccountReader is the read side of the account store. Lookups return
// nil, nil when no row matches.
type IAccountReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Account, error)
	FindByNumber(ctx context.Context, number int64) (*Account, error)
	List(ctx context.Context, filter *AccountFilter) (*AccountListResult, error)
}

// IAccountWriter is the transaction-bound side of the account store.
type IAccountWriter interface {
	IAccountReader
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Account, error)
	Create(ctx context.Context, create *AccountCreate) (*Account, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, active bool) (bool, error)
}

const defaultListLimit = 20

// NormalizeFilter fills in the defaults used by every List implementation.
func NormalizeFilter(filter *AccountFilter) (limit, offset int) {
	limit = defaultListLimit
	if filter != nil {
		if filter.Limit > 0 {
			limit = filter.Limit
		}
		offset = filter.Offset
	}
	return limit, offset
}

// Page trims rows fetched with limit+1 down to a page and its next cursor.
func Page(rows []*Account, limit, offset int) *AccountListResult {
	if len(rows) == 0 {
		return &AccountListResult{Accounts: nil, NextCursor: nil}
	}

	var nextCursor *AccountCursor
	if len(rows) > limit {
		rows = rows[:limit]
		nextCursor = &AccountCursor{
			Position: offset + limit,
			Limit:    limit,
		}
	}
	return &AccountListResult{Accounts: rows, NextCursor: nextCursor}
}
