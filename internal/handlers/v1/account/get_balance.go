package account

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/ledger-server/internal/handlers/apierror"
	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/logging"
)

type GetBalanceInput struct {
	AccountID string `path:"accountID" doc:"Account UUID"`
}

type BalanceResponse struct {
	AccountID string `json:"accountID" doc:"Account UUID"`
	Number    int64  `json:"number" doc:"Account number"`
	Name      string `json:"name" doc:"Account holder name"`
	Balance   string `json:"balance" doc:"Credits minus debits minus fees"`
	QueriedAt string `json:"queriedAt" doc:"RFC3339 time the balance was computed"`
}

type GetBalanceOutput struct {
	Body BalanceResponse
}

type balanceGetter interface {
	GetBalance(ctx context.Context, id uuid.UUID) (*ledger.AccountBalance, error)
}

// GetBalanceHandler handles GET /v1/account/{accountID}/balance.
type GetBalanceHandler struct {
	AccountService balanceGetter
}

func NewGetBalanceHandler(svc balanceGetter) *GetBalanceHandler {
	return &GetBalanceHandler{AccountService: svc}
}

func (h *GetBalanceHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-balance",
		Method:      http.MethodGet,
		Path:        "/v1/account/{accountID}/balance",
		Summary:     "Get an account balance",
		Description: "Derives the balance from every recorded movement and fee of an active account.",
		Tags:        []string{"Accounts"},
	}, h.handle)
}

func (h *GetBalanceHandler) handle(ctx context.Context, input *GetBalanceInput) (*GetBalanceOutput, error) {
	logData := logging.GetLogData(ctx)

	id, err := ParseAccountID(input.AccountID)
	if err != nil {
		return nil, err
	}

	var stopTimer func()
	if logData != nil {
		stopTimer = logData.AddTiming("getBalanceMs")
	}
	balance, err := h.AccountService.GetBalance(ctx, id)
	if stopTimer != nil {
		stopTimer()
	}
	if err != nil {
		return nil, apierror.From(err)
	}

	return &GetBalanceOutput{Body: BalanceResponse{
		AccountID: balance.AccountID.String(),
		Number:    balance.Number,
		Name:      balance.Name,
		Balance:   balance.Balance.String(),
		QueriedAt: balance.QueriedAt.Format(time.RFC3339),
	}}, nil
}
