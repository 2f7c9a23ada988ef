package account

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/ledger-server/internal/handlers/apierror"
	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/service"
)

type GetAccountInput struct {
	AccountID string `path:"accountID" doc:"Account UUID"`
}

type GetAccountByNumberInput struct {
	Number int64 `path:"number" minimum:"1" doc:"Account number"`
}

type GetAccountOutput struct {
	Body Account
}

type accountGetter interface {
	GetAccount(ctx context.Context, id uuid.UUID) (*service.Account, error)
	GetAccountByNumber(ctx context.Context, number int64) (*service.Account, error)
}

// GetAccountHandler handles GET /v1/account/{accountID} and
// GET /v1/accounts/{number}.
type GetAccountHandler struct {
	AccountService accountGetter
}

func NewGetAccountHandler(svc accountGetter) *GetAccountHandler {
	return &GetAccountHandler{AccountService: svc}
}

func (h *GetAccountHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "get-account",
		Method:      http.MethodGet,
		Path:        "/v1/account/{accountID}",
		Summary:     "Get an account",
		Tags:        []string{"Accounts"},
	}, h.handleByID)

	huma.Register(api, huma.Operation{
		OperationID: "get-account-by-number",
		Method:      http.MethodGet,
		Path:        "/v1/accounts/{number}",
		Summary:     "Get an account by number",
		Tags:        []string{"Accounts"},
	}, h.handleByNumber)
}

func (h *GetAccountHandler) handleByID(ctx context.Context, input *GetAccountInput) (*GetAccountOutput, error) {
	id, err := ParseAccountID(input.AccountID)
	if err != nil {
		return nil, err
	}

	acc, err := h.AccountService.GetAccount(ctx, id)
	if err != nil {
		return nil, apierror.From(err)
	}
	return &GetAccountOutput{Body: fromService(acc)}, nil
}

func (h *GetAccountHandler) handleByNumber(ctx context.Context, input *GetAccountByNumberInput) (*GetAccountOutput, error) {
	acc, err := h.AccountService.GetAccountByNumber(ctx, input.Number)
	if err != nil {
		return nil, apierror.From(err)
	}
	return &GetAccountOutput{Body: fromService(acc)}, nil
}

// ParseAccountID parses the accountID path parameter shared by every
// account scoped route.
func ParseAccountID(raw string) (uuid.UUID, error) {
	id, err := uuid.FromString(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, apierror.Invalid(ledger.CodeInvalidAccount, "accountID must be a UUID")
	}
	return id, nil
}
