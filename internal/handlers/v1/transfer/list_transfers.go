package transfer

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/ledger-server/internal/handlers/apierror"
	"github.com/carson-networks/ledger-server/internal/handlers/v1/account"
	"github.com/carson-networks/ledger-server/internal/handlers/v1/movement"
	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/service"
)

// Transfer is the API response model for a transfer.
type Transfer struct {
	ID                   string `json:"id" doc:"Transfer UUID"`
	OriginAccountID      string `json:"originAccountID" doc:"Origin account UUID"`
	DestinationAccountID string `json:"destinationAccountID" doc:"Destination account UUID"`
	IdempotencyKey       string `json:"idempotencyKey" doc:"Key the transfer was executed under"`
	Amount               string `json:"amount" doc:"Transferred amount, excluding the fee"`
	CreatedAt            string `json:"createdAt" doc:"RFC3339 creation time"`
}

// ListTransfersBody is the request body for listing transfers.
type ListTransfersBody struct {
	Cursor *movement.StatementCursor `json:"cursor,omitempty" doc:"Cursor from a previous response to fetch the next page"`
}

// ListTransfersInput is the Huma input for listing transfers.
type ListTransfersInput struct {
	AccountID string `path:"accountID" doc:"Account UUID"`
	Body      ListTransfersBody
}

// ListTransfersResponseBody is the response body for listing transfers.
type ListTransfersResponseBody struct {
	Transfers  []Transfer                `json:"transfers" doc:"Page of transfers sent or received, newest first"`
	NextCursor *movement.StatementCursor `json:"nextCursor,omitempty" doc:"Cursor to fetch the next page, absent on the last page"`
}

// ListTransfersOutput is the Huma output for listing transfers.
type ListTransfersOutput struct {
	Body ListTransfersResponseBody
}

type transferLister interface {
	ListTransfers(ctx context.Context, accountID uuid.UUID, cursor *service.StatementCursor) ([]service.Transfer, *service.StatementCursor, error)
}

// ListTransfersHandler handles POST /v1/account/{accountID}/transfer/list.
type ListTransfersHandler struct {
	TransferService transferLister
}

// NewListTransfersHandler creates a new ListTransfersHandler.
func NewListTransfersHandler(svc transferLister) *ListTransfersHandler {
	return &ListTransfersHandler{TransferService: svc}
}

// Register registers the list transfers endpoint with the Huma API.
func (h *ListTransfersHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-transfers",
		Method:      http.MethodPost,
		Path:        "/v1/account/{accountID}/transfer/list",
		Summary:     "List transfers",
		Description: "Returns transfers the account sent or received using cursor-based pagination.",
		Tags:        []string{"Transfers"},
	}, h.handle)
}

func (h *ListTransfersHandler) handle(ctx context.Context, input *ListTransfersInput) (*ListTransfersOutput, error) {
	logData := logging.GetLogData(ctx)

	accountID, err := account.ParseAccountID(input.AccountID)
	if err != nil {
		return nil, err
	}
	requestCursor, err := movement.ParseCursor(input.Body.Cursor)
	if err != nil {
		return nil, err
	}

	var stopTimer func()
	if logData != nil {
		stopTimer = logData.AddTiming("listTransfersMs")
	}
	transfers, nextCursor, err := h.TransferService.ListTransfers(ctx, accountID, requestCursor)
	if stopTimer != nil {
		stopTimer()
	}
	if err != nil {
		return nil, apierror.From(err)
	}

	if logData != nil {
		logData.AddData("transferCount", len(transfers))
	}

	resp := ListTransfersResponseBody{
		Transfers:  make([]Transfer, len(transfers)),
		NextCursor: movement.FormatCursor(nextCursor),
	}
	for i, t := range transfers {
		resp.Transfers[i] = Transfer{
			ID:                   t.ID.String(),
			OriginAccountID:      t.OriginAccountID.String(),
			DestinationAccountID: t.DestinationAccountID.String(),
			IdempotencyKey:       t.IdempotencyKey,
			Amount:               t.Amount.String(),
			CreatedAt:            t.CreatedAt.Format(time.RFC3339Nano),
		}
	}

	return &ListTransfersOutput{Body: resp}, nil
}
