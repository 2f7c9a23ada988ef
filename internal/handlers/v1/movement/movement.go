package movement

import (
	"time"

	"github.com/carson-networks/ledger-server/internal/service"
)

// Movement is the API response model for one statement line.
type Movement struct {
	ID             string `json:"id" doc:"Movement UUID"`
	AccountID      string `json:"accountID" doc:"Account UUID"`
	TransferID     string `json:"transferID,omitempty" doc:"Transfer UUID when the movement is a transfer leg"`
	IdempotencyKey string `json:"idempotencyKey" doc:"Key the movement was recorded under"`
	Amount         string `json:"amount" doc:"Positive decimal amount"`
	Type           string `json:"type" doc:"C for credit, D for debit"`
	CreatedAt      string `json:"createdAt" doc:"RFC3339 creation time"`
}

func fromService(m service.Movement) Movement {
	out := Movement{
		ID:             m.ID.String(),
		AccountID:      m.AccountID.String(),
		IdempotencyKey: m.IdempotencyKey,
		Amount:         m.Amount.String(),
		Type:           string(m.Direction),
		CreatedAt:      m.CreatedAt.Format(time.RFC3339Nano),
	}
	if m.TransferID.Valid {
		out.TransferID = m.TransferID.UUID.String()
	}
	return out
}
