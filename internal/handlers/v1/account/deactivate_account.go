package account

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/ledger-server/internal/handlers/apierror"
	"github.com/carson-networks/ledger-server/internal/logging"
)

type DeactivateAccountInput struct {
	AccountID string `path:"accountID" doc:"Account UUID"`
	Body      DeactivateAccountBody
}

type DeactivateAccountBody struct {
	Password string `json:"password" minLength:"1" doc:"Password given at registration"`
}

type DeactivateAccountOutput struct {
	Status int
}

type accountDeactivator interface {
	Deactivate(ctx context.Context, id uuid.UUID, password string) error
}

// DeactivateAccountHandler handles POST /v1/account/{accountID}/deactivate.
type DeactivateAccountHandler struct {
	AccountService accountDeactivator
}

func NewDeactivateAccountHandler(svc accountDeactivator) *DeactivateAccountHandler {
	return &DeactivateAccountHandler{AccountService: svc}
}

func (h *DeactivateAccountHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "deactivate-account",
		Method:        http.MethodPost,
		Path:          "/v1/account/{accountID}/deactivate",
		Summary:       "Deactivate an account",
		Description:   "Marks the account inactive. Inactive accounts reject movements, transfers and balance queries.",
		Tags:          []string{"Accounts"},
		DefaultStatus: http.StatusNoContent,
	}, h.handle)
}

func (h *DeactivateAccountHandler) handle(ctx context.Context, input *DeactivateAccountInput) (*DeactivateAccountOutput, error) {
	id, err := ParseAccountID(input.AccountID)
	if err != nil {
		return nil, err
	}

	if err := h.AccountService.Deactivate(ctx, id, input.Body.Password); err != nil {
		return nil, apierror.From(err)
	}

	if logData := logging.GetLogData(ctx); logData != nil {
		logData.AddData("accountID", id.String())
	}
	return &DeactivateAccountOutput{Status: http.StatusNoContent}, nil
}
