package movement

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/ledger-server/internal/handlers/apierror"
	"github.com/carson-networks/ledger-server/internal/handlers/v1/account"
	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/logging"
	"github.com/carson-networks/ledger-server/internal/service"
)

// StatementCursor represents a pagination cursor in request and response bodies.
// It bundles position, limit, and maxCreationTime so subsequent pages use consistent parameters.
type StatementCursor struct {
	Position        int    `json:"position" minimum:"0" doc:"Numeric offset position for the next page"`
	Limit           int    `json:"limit" minimum:"1" maximum:"100" doc:"Page size used for this cursor"`
	MaxCreationTime string `json:"maxCreationTime" doc:"RFC3339 upper bound on createdAt locked in from the first page"`
}

// ListMovementsBody is the request body for listing movements.
type ListMovementsBody struct {
	Cursor *StatementCursor `json:"cursor,omitempty" doc:"Cursor from a previous response to fetch the next page"`
}

// ListMovementsInput is the Huma input for listing movements.
type ListMovementsInput struct {
	AccountID string `path:"accountID" doc:"Account UUID"`
	Body      ListMovementsBody
}

// ListMovementsResponseBody is the response body for listing movements.
type ListMovementsResponseBody struct {
	Movements  []Movement       `json:"movements" doc:"Page of movements, newest first"`
	NextCursor *StatementCursor `json:"nextCursor,omitempty" doc:"Cursor to fetch the next page, absent on the last page"`
}

// ListMovementsOutput is the Huma output for listing movements.
type ListMovementsOutput struct {
	Body ListMovementsResponseBody
}

// movementLister is the interface for listing movements.
type movementLister interface {
	ListMovements(ctx context.Context, accountID uuid.UUID, cursor *service.StatementCursor) ([]service.Movement, *service.StatementCursor, error)
}

// ListMovementsHandler handles POST /v1/account/{accountID}/movement/list.
type ListMovementsHandler struct {
	MovementService movementLister
}

// NewListMovementsHandler creates a new ListMovementsHandler.
func NewListMovementsHandler(svc movementLister) *ListMovementsHandler {
	return &ListMovementsHandler{MovementService: svc}
}

// Register registers the list movements endpoint with the Huma API.
func (h *ListMovementsHandler) Register(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "list-movements",
		Method:      http.MethodPost,
		Path:        "/v1/account/{accountID}/movement/list",
		Summary:     "List movements",
		Description: "Returns the account statement using cursor-based pagination.",
		Tags:        []string{"Movements"},
	}, h.handle)
}

// ParseCursor converts an API cursor. A nil cursor asks for the first page.
func ParseCursor(cursor *StatementCursor) (*service.StatementCursor, error) {
	if cursor == nil {
		return nil, nil
	}

	if cursor.Position < 0 {
		return nil, apierror.Invalid(ledger.CodeInvalidRequest, "cursor position must be non-negative")
	}

	maxCreationTime, err := time.Parse(time.RFC3339Nano, cursor.MaxCreationTime)
	if err != nil {
		return nil, apierror.Invalid(ledger.CodeInvalidRequest, "invalid cursor maxCreationTime")
	}

	return &service.StatementCursor{
		Position:        cursor.Position,
		Limit:           cursor.Limit,
		MaxCreationTime: maxCreationTime,
	}, nil
}

// FormatCursor converts the service cursor for a response.
func FormatCursor(cursor *service.StatementCursor) *StatementCursor {
	if cursor == nil {
		return nil
	}
	return &StatementCursor{
		Position:        cursor.Position,
		Limit:           cursor.Limit,
		MaxCreationTime: cursor.MaxCreationTime.Format(time.RFC3339Nano),
	}
}

func (h *ListMovementsHandler) handle(ctx context.Context, input *ListMovementsInput) (*ListMovementsOutput, error) {
	logData := logging.GetLogData(ctx)

	accountID, err := account.ParseAccountID(input.AccountID)
	if err != nil {
		return nil, err
	}
	requestCursor, err := ParseCursor(input.Body.Cursor)
	if err != nil {
		return nil, err
	}

	var stopTimer func()
	if logData != nil {
		stopTimer = logData.AddTiming("listMovementsMs")
	}
	movements, nextCursor, err := h.MovementService.ListMovements(ctx, accountID, requestCursor)
	if stopTimer != nil {
		stopTimer()
	}
	if err != nil {
		return nil, apierror.From(err)
	}

	if logData != nil {
		logData.AddData("movementCount", len(movements))
	}

	resp := ListMovementsResponseBody{
		Movements:  make([]Movement, len(movements)),
		NextCursor: FormatCursor(nextCursor),
	}
	for i, m := range movements {
		resp.Movements[i] = fromService(m)
	}

	return &ListMovementsOutput{Body: resp}, nil
}
