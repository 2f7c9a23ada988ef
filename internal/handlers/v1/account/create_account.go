package account

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/carson-networks/ledger-server/internal/handlers/apierror"
	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/service"
)

// CreateAccountInput is the Huma input for registering an account.
type CreateAccountInput struct {
	Body CreateAccountBody
}

// CreateAccountBody is the request body fields for registering an account.
type CreateAccountBody struct {
	Name     string `json:"name" minLength:"1" doc:"Account holder name"`
	Password string `json:"password" minLength:"1" doc:"Password required to deactivate the account"`
}

// CreateAccountOutput is the response for registering an account.
type CreateAccountOutput struct {
	Status int
	Body   Account
}

// accountRegistrar is the interface for registering accounts.
type accountRegistrar interface {
	Register(ctx context.Context, registration service.AccountRegistration) (*service.Account, error)
}

// CreateAccountHandler handles POST /v1/account.
type CreateAccountHandler struct {
	AccountService accountRegistrar
}

// NewCreateAccountHandler creates a new CreateAccountHandler.
func NewCreateAccountHandler(svc accountRegistrar) *CreateAccountHandler {
	return &CreateAccountHandler{AccountService: svc}
}

// Register registers the create account endpoint with the Huma API.
func (h *CreateAccountHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-account",
		Method:        http.MethodPost,
		Path:          "/v1/account",
		Summary:       "Register an account",
		Description:   "Opens an active account and assigns it the next account number.",
		Tags:          []string{"Accounts"},
		DefaultStatus: http.StatusCreated,
	}, h.handle)
}

func (h *CreateAccountHandler) handle(ctx context.Context, input *CreateAccountInput) (*CreateAccountOutput, error) {
	logData := logging.GetLogData(ctx)

	var stopTimer func()
	if logData != nil {
		stopTimer = logData.AddTiming("createAccountMs")
	}
	acc, err := h.AccountService.Register(ctx, service.AccountRegistration{
		Name:     input.Body.Name,
		Password: input.Body.Password,
	})
	if stopTimer != nil {
		stopTimer()
	}
	if err != nil {
		return nil, apierror.From(err)
	}

	if logData != nil {
		logData.AddData("accountID", acc.ID.String())
		logData.AddData("accountNumber", acc.Number)
	}

	return &CreateAccountOutput{
		Status: http.StatusCreated,
		Body:   fromService(acc),
	}, nil
}
