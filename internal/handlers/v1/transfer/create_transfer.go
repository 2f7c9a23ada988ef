package transfer

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shopspring/decimal"

	"github.com/carson-networks/ledger-server/internal/handlers/apierror"
	"github.com/carson-networks/ledger-server/internal/handlers/v1/account"
	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/service"
)

// CreateTransferInput is the Huma input for executing a transfer.
type CreateTransferInput struct {
	AccountID string `path:"accountID" doc:"Origin account UUID"`
	Body      CreateTransferBody
}

// CreateTransferBody is the request body fields for executing a transfer.
type CreateTransferBody struct {
	DestinationNumber int64  `json:"destinationNumber" doc:"Account number of the destination"`
	IdempotencyKey    string `json:"idempotencyKey" minLength:"1" maxLength:"200" doc:"Client chosen key, unique per origin account"`
	Amount            string `json:"amount" doc:"Positive decimal amount (e.g. '20.00')"`
	Fee               string `json:"fee,omitempty" doc:"Fee override; the configured transfer fee applies when absent"`
}

// CreateTransferResponse is the response body for executing a transfer.
type CreateTransferResponse struct {
	ID               string `json:"id" doc:"Transfer UUID"`
	DebitMovementID  string `json:"debitMovementID" doc:"Movement UUID of the origin debit"`
	CreditMovementID string `json:"creditMovementID" doc:"Movement UUID of the destination credit"`
	FeeID            string `json:"feeID,omitempty" doc:"Fee UUID, absent when no fee was charged"`
	Fee              string `json:"fee" doc:"Fee charged to the origin"`
	Replayed         bool   `json:"replayed" doc:"True when the key had already been used and nothing was written"`
}

// CreateTransferOutput is the response for executing a transfer.
type CreateTransferOutput struct {
	Status int
	Body   CreateTransferResponse
}

// transferExecutor is the interface for executing transfers.
type transferExecutor interface {
	Transfer(ctx context.Context, req service.TransferRequest) (*ledger.TransferResult, error)
}

// CreateTransferHandler handles POST /v1/account/{accountID}/transfer.
type CreateTransferHandler struct {
	TransferService transferExecutor
}

// NewCreateTransferHandler creates a new CreateTransferHandler.
func NewCreateTransferHandler(svc transferExecutor) *CreateTransferHandler {
	return &CreateTransferHandler{TransferService: svc}
}

// Register registers the create transfer endpoint with the Huma API.
func (h *CreateTransferHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-transfer",
		Method:        http.MethodPost,
		Path:          "/v1/account/{accountID}/transfer",
		Summary:       "Execute a transfer",
		Description:   "Debits the origin, credits the destination and charges the fee atomically.",
		Tags:          []string{"Transfers"},
		DefaultStatus: http.StatusCreated,
	}, h.handle)
}

func parseCreateTransferInput(input *CreateTransferInput) (service.TransferRequest, error) {
	originID, err := account.ParseAccountID(input.AccountID)
	if err != nil {
		return service.TransferRequest{}, err
	}

	amount, err := decimal.NewFromString(input.Body.Amount)
	if err != nil {
		return service.TransferRequest{}, apierror.Invalid(ledger.CodeInvalidAmount, "amount must be a decimal number")
	}

	req := service.TransferRequest{
		OriginID:          originID,
		DestinationNumber: input.Body.DestinationNumber,
		IdempotencyKey:    input.Body.IdempotencyKey,
		Amount:            amount,
	}
	if input.Body.Fee != "" {
		fee, err := decimal.NewFromString(input.Body.Fee)
		if err != nil {
			return service.TransferRequest{}, apierror.Invalid(ledger.CodeInvalidAmount, "fee must be a decimal number")
		}
		req.Fee = &fee
	}
	return req, nil
}

func (h *CreateTransferHandler) handle(ctx context.Context, input *CreateTransferInput) (*CreateTransferOutput, error) {
	logData := logging.GetLogData(ctx)

	req, err := parseCreateTransferInput(input)
	if err != nil {
		return nil, err
	}

	var stopTimer func()
	if logData != nil {
		stopTimer = logData.AddTiming("executeTransferMs")
	}
	result, err := h.TransferService.Transfer(ctx, req)
	if stopTimer != nil {
		stopTimer()
	}
	if err != nil {
		if logData != nil {
			logData.AddData("errorCode", service.Code(err))
		}
		return nil, apierror.From(err)
	}

	if logData != nil {
		logData.AddData("transferID", result.TransferID.String())
		logData.AddData("replayed", result.Replayed)
	}

	resp := CreateTransferResponse{
		ID:               result.TransferID.String(),
		DebitMovementID:  result.DebitMovementID.String(),
		CreditMovementID: result.CreditMovementID.String(),
		Fee:              result.Fee.String(),
		Replayed:         result.Replayed,
	}
	if result.FeeID.Valid {
		resp.FeeID = result.FeeID.UUID.String()
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	return &CreateTransferOutput{Status: status, Body: resp}, nil
}
