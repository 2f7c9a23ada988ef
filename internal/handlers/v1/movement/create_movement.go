package movement

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
	storagemovement "github.com/carson-networks/ledger-server/internal/storage/movement"
)

// CreateMovementInput is the Huma input for recording a movement.
type CreateMovementInput struct {
	AccountID string `path:"accountID" doc:"Account UUID"`
	Body      CreateMovementBody
}

// CreateMovementBody is the request body fields for recording a movement.
type CreateMovementBody struct {
	IdempotencyKey string `json:"idempotencyKey" minLength:"1" maxLength:"200" doc:"Client chosen key; repeating it returns the first result"`
	Amount         string `json:"amount" doc:"Positive decimal amount (e.g. '12.50')"`
	Type           string `json:"type" enum:"C,D" doc:"C for credit, D for debit"`
}

// CreateMovementResponse is the response body for recording a movement.
type CreateMovementResponse struct {
	ID       string `json:"id" doc:"Movement UUID"`
	Replayed bool   `json:"replayed" doc:"True when the key had already been used and nothing was written"`
}

// CreateMovementOutput is the response for recording a movement.
type CreateMovementOutput struct {
	Status int
	Body   CreateMovementResponse
}

// movementRecorder is the interface for recording movements.
type movementRecorder interface {
	RecordMovement(ctx context.Context, req service.MovementRequest) (*ledger.MovementResult, error)
}

// CreateMovementHandler handles POST /v1/account/{accountID}/movement.
type CreateMovementHandler struct {
	MovementService movementRecorder
}

// NewCreateMovementHandler creates a new CreateMovementHandler.
func NewCreateMovementHandler(svc movementRecorder) *CreateMovementHandler {
	return &CreateMovementHandler{MovementService: svc}
}

// Register registers the create movement endpoint with the Huma API.
func (h *CreateMovementHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID:   "create-movement",
		Method:        http.MethodPost,
		Path:          "/v1/account/{accountID}/movement",
		Summary:       "Record a movement",
		Description:   "Credits or debits the account once per idempotency key. Debits never take the balance below zero.",
		Tags:          []string{"Movements"},
		DefaultStatus: http.StatusCreated,
	}, h.handle)
}

func parseCreateMovementInput(input *CreateMovementInput) (service.MovementRequest, error) {
	accountID, err := account.ParseAccountID(input.AccountID)
	if err != nil {
		return service.MovementRequest{}, err
	}

	amount, err := decimal.NewFromString(input.Body.Amount)
	if err != nil {
		return service.MovementRequest{}, apierror.Invalid(ledger.CodeInvalidAmount, "amount must be a decimal number")
	}

	return service.MovementRequest{
		AccountID:      accountID,
		IdempotencyKey: input.Body.IdempotencyKey,
		Amount:         amount,
		Direction:      storagemovement.Direction(input.Body.Type),
	}, nil
}

func (h *CreateMovementHandler) handle(ctx context.Context, input *CreateMovementInput) (*CreateMovementOutput, error) {
	logData := logging.GetLogData(ctx)

	req, err := parseCreateMovementInput(input)
	if err != nil {
		return nil, err
	}

	var stopTimer func()
	if logData != nil {
		stopTimer = logData.AddTiming("recordMovementMs")
	}
	result, err := h.MovementService.RecordMovement(ctx, req)
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
		logData.AddData("movementID", result.MovementID.String())
		logData.AddData("replayed", result.Replayed)
	}

	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	return &CreateMovementOutput{
		Status: status,
		Body: CreateMovementResponse{
			ID:       result.MovementID.String(),
			Replayed: result.Replayed,
		},
	}, nil
}
