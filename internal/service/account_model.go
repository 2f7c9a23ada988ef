package service

import (
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/ledger-server/internal/storage/account"
)

// Account represents an account in the service layer. Credentials never
// leave the storage layer.
type Account struct {
	ID        uuid.UUID
	Number    int64
	Name      string
	Active    bool
	CreatedAt time.Time
}

// AccountRegistration is the input for opening an account.
type AccountRegistration struct {
	Name     string
	Password string
}

// AccountCursor identifies a position in a paginated result set.
type AccountCursor struct {
	Position int
	Limit    int
}

func accountFromStorage(row *account.Account) *Account {
	return &Account{
		ID:        row.ID,
		Number:    row.Number,
		Name:      row.Name,
		Active:    row.Active,
		CreatedAt: row.CreatedAt,
	}
}
