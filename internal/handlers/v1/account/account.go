package account

import (
	"time"

	"github.com/carson-networks/ledger-server/internal/service"
)

// Account is the API response model for an account.
type Account struct {
	ID        string `json:"id" doc:"Account UUID"`
	Number    int64  `json:"number" doc:"Account number, assigned sequentially from 1001"`
	Name      string `json:"name" doc:"Account holder name"`
	Active    bool   `json:"active" doc:"False once the account has been deactivated"`
	CreatedAt string `json:"createdAt" doc:"RFC3339 creation time"`
}

func fromService(acc *service.Account) Account {
	return Account{
		ID:        acc.ID.String(),
		Number:    acc.Number,
		Name:      acc.Name,
		Active:    acc.Active,
		CreatedAt: acc.CreatedAt.Format(time.RFC3339),
	}
}
