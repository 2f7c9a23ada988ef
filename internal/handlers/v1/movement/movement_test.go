package movement

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/ledger-server/internal/handlers/apierror"
	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/service"
	storagemovement "github.com/carson-networks/ledger-server/internal/storage/movement"
)

type mockMovementService struct {
	mock.Mock
}

func (m *mockMovementService) RecordMovement(ctx context.Context, req service.MovementRequest) (*ledger.MovementResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*ledger.MovementResult)
	return result, args.Error(1)
}

func (m *mockMovementService) ListMovements(ctx context.Context, accountID uuid.UUID, cursor *service.StatementCursor) ([]service.Movement, *service.StatementCursor, error) {
	args := m.Called(ctx, accountID, cursor)
	movements, _ := args.Get(0).([]service.Movement)
	next, _ := args.Get(1).(*service.StatementCursor)
	return movements, next, args.Error(2)
}

func newTestAPI(t *testing.T, svc *mockMovementService) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	NewCreateMovementHandler(svc).Register(api)
	NewListMovementsHandler(svc).Register(api)
	return api
}

func decodeError(t *testing.T, body []byte) apierror.Error {
	t.Helper()
	var apiErr apierror.Error
	require.NoError(t, json.Unmarshal(body, &apiErr))
	return apiErr
}

// -- create movement tests --

func TestHTTP_CreateMovement_Created(t *testing.T) {
	svc := new(mockMovementService)
	accountID := uuid.Must(uuid.NewV4())
	movementID := uuid.Must(uuid.NewV4())
	svc.On("RecordMovement", mock.Anything, service.MovementRequest{
		AccountID:      accountID,
		IdempotencyKey: "salary-2025-01",
		Amount:         decimal.RequireFromString("100.25"),
		Direction:      storagemovement.DirectionCredit,
	}).Return(&ledger.MovementResult{MovementID: movementID}, nil)

	resp := newTestAPI(t, svc).Post("/v1/account/"+accountID.String()+"/movement", CreateMovementBody{
		IdempotencyKey: "salary-2025-01",
		Amount:         "100.25",
		Type:           "C",
	})

	assert.Equal(t, http.StatusCreated, resp.Code)
	var body CreateMovementResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, movementID.String(), body.ID)
	assert.False(t, body.Replayed)
	svc.AssertExpectations(t)
}

func TestHTTP_CreateMovement_Replayed(t *testing.T) {
	svc := new(mockMovementService)
	accountID := uuid.Must(uuid.NewV4())
	movementID := uuid.Must(uuid.NewV4())
	svc.On("RecordMovement", mock.Anything, mock.Anything).
		Return(&ledger.MovementResult{MovementID: movementID, Replayed: true}, nil)

	resp := newTestAPI(t, svc).Post("/v1/account/"+accountID.String()+"/movement", CreateMovementBody{
		IdempotencyKey: "k",
		Amount:         "1",
		Type:           "D",
	})

	assert.Equal(t, http.StatusOK, resp.Code)
	var body CreateMovementResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.True(t, body.Replayed)
}

func TestHTTP_CreateMovement_InvalidAmount(t *testing.T) {
	svc := new(mockMovementService)

	resp := newTestAPI(t, svc).Post("/v1/account/"+uuid.Must(uuid.NewV4()).String()+"/movement", CreateMovementBody{
		IdempotencyKey: "k",
		Amount:         "ten",
		Type:           "C",
	})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, ledger.CodeInvalidAmount, decodeError(t, resp.Body.Bytes()).Code)
	svc.AssertNotCalled(t, "RecordMovement", mock.Anything, mock.Anything)
}

func TestHTTP_CreateMovement_LedgerErrors(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"insufficient funds", fmt.Errorf("%w: balance 5", ledger.ErrInsufficientFunds), http.StatusBadRequest, ledger.CodeInsufficientFunds},
		{"inactive", ledger.ErrAccountInactive, http.StatusBadRequest, ledger.CodeAccountInactive},
		{"not found", ledger.ErrAccountNotFound, http.StatusNotFound, ledger.CodeAccountNotFound},
		{"storage", fmt.Errorf("%w: insert movement: timeout", ledger.ErrStorageFailure), http.StatusInternalServerError, ledger.CodeStorageFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockMovementService)
			svc.On("RecordMovement", mock.Anything, mock.Anything).Return(nil, tt.err)

			resp := newTestAPI(t, svc).Post("/v1/account/"+uuid.Must(uuid.NewV4()).String()+"/movement", CreateMovementBody{
				IdempotencyKey: "k",
				Amount:         "10",
				Type:           "D",
			})

			assert.Equal(t, tt.status, resp.Code)
			assert.Equal(t, tt.code, decodeError(t, resp.Body.Bytes()).Code)
		})
	}
}

// -- list movements tests --

func TestHTTP_ListMovements_FirstPage(t *testing.T) {
	svc := new(mockMovementService)
	accountID := uuid.Must(uuid.NewV4())
	createdAt := time.Date(2025, 3, 1, 12, 0, 0, 123456000, time.UTC)
	transferID := uuid.Must(uuid.NewV4())
	svc.On("ListMovements", mock.Anything, accountID, (*service.StatementCursor)(nil)).Return(
		[]service.Movement{{
			ID:             uuid.Must(uuid.NewV4()),
			AccountID:      accountID,
			TransferID:     uuid.NullUUID{UUID: transferID, Valid: true},
			IdempotencyKey: "transfer:x:rent:debit",
			Amount:         decimal.RequireFromString("20"),
			Direction:      storagemovement.DirectionDebit,
			CreatedAt:      createdAt,
		}},
		&service.StatementCursor{Position: 1, Limit: 1, MaxCreationTime: createdAt},
		nil,
	)

	resp := newTestAPI(t, svc).Post("/v1/account/"+accountID.String()+"/movement/list", ListMovementsBody{})

	assert.Equal(t, http.StatusOK, resp.Code)
	var body ListMovementsResponseBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Movements, 1)
	assert.Equal(t, "D", body.Movements[0].Type)
	assert.Equal(t, transferID.String(), body.Movements[0].TransferID)
	require.NotNil(t, body.NextCursor)
	assert.Equal(t, "2025-03-01T12:00:00.123456Z", body.NextCursor.MaxCreationTime)
}

func TestHTTP_ListMovements_CursorRoundTrip(t *testing.T) {
	svc := new(mockMovementService)
	accountID := uuid.Must(uuid.NewV4())
	maxCreationTime := time.Date(2025, 3, 1, 12, 0, 0, 123456000, time.UTC)
	svc.On("ListMovements", mock.Anything, accountID, &service.StatementCursor{
		Position:        2,
		Limit:           2,
		MaxCreationTime: maxCreationTime,
	}).Return(nil, nil, nil)

	resp := newTestAPI(t, svc).Post("/v1/account/"+accountID.String()+"/movement/list", ListMovementsBody{
		Cursor: &StatementCursor{Position: 2, Limit: 2, MaxCreationTime: "2025-03-01T12:00:00.123456Z"},
	})

	assert.Equal(t, http.StatusOK, resp.Code)
	var body ListMovementsResponseBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Empty(t, body.Movements)
	assert.Nil(t, body.NextCursor)
	svc.AssertExpectations(t)
}

func TestHTTP_ListMovements_BadCursorTime(t *testing.T) {
	svc := new(mockMovementService)

	resp := newTestAPI(t, svc).Post("/v1/account/"+uuid.Must(uuid.NewV4()).String()+"/movement/list", ListMovementsBody{
		Cursor: &StatementCursor{Position: 0, Limit: 10, MaxCreationTime: "yesterday"},
	})

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, ledger.CodeInvalidRequest, decodeError(t, resp.Body.Bytes()).Code)
}

func TestHTTP_ListMovements_UnknownAccount(t *testing.T) {
	svc := new(mockMovementService)
	accountID := uuid.Must(uuid.NewV4())
	svc.On("ListMovements", mock.Anything, accountID, (*service.StatementCursor)(nil)).
		Return(nil, nil, ledger.ErrAccountNotFound)

	resp := newTestAPI(t, svc).Post("/v1/account/"+accountID.String()+"/movement/list", ListMovementsBody{})

	assert.Equal(t, http.StatusNotFound, resp.Code)
}
