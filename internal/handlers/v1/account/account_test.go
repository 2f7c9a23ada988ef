package account

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
)

type mockAccountService struct {
	mock.Mock
}

func (m *mockAccountService) Register(ctx context.Context, registration service.AccountRegistration) (*service.Account, error) {
	args := m.Called(ctx, registration)
	acc, _ := args.Get(0).(*service.Account)
	return acc, args.Error(1)
}

func (m *mockAccountService) GetAccount(ctx context.Context, id uuid.UUID) (*service.Account, error) {
	args := m.Called(ctx, id)
	acc, _ := args.Get(0).(*service.Account)
	return acc, args.Error(1)
}

func (m *mockAccountService) GetAccountByNumber(ctx context.Context, number int64) (*service.Account, error) {
	args := m.Called(ctx, number)
	acc, _ := args.Get(0).(*service.Account)
	return acc, args.Error(1)
}

func (m *mockAccountService) ListAccounts(ctx context.Context, cursor *service.AccountCursor) ([]service.Account, *service.AccountCursor, error) {
	args := m.Called(ctx, cursor)
	accounts, _ := args.Get(0).([]service.Account)
	next, _ := args.Get(1).(*service.AccountCursor)
	return accounts, next, args.Error(2)
}

func (m *mockAccountService) Deactivate(ctx context.Context, id uuid.UUID, password string) error {
	return m.Called(ctx, id, password).Error(0)
}

func (m *mockAccountService) GetBalance(ctx context.Context, id uuid.UUID) (*ledger.AccountBalance, error) {
	args := m.Called(ctx, id)
	balance, _ := args.Get(0).(*ledger.AccountBalance)
	return balance, args.Error(1)
}

func newTestAPI(t *testing.T, svc *mockAccountService) humatest.TestAPI {
	t.Helper()
	_, api := humatest.New(t)
	NewCreateAccountHandler(svc).Register(api)
	NewGetAccountHandler(svc).Register(api)
	NewListAccountsHandler(svc).Register(api)
	NewDeactivateAccountHandler(svc).Register(api)
	NewGetBalanceHandler(svc).Register(api)
	return api
}

func sampleAccount() *service.Account {
	return &service.Account{
		ID:        uuid.Must(uuid.NewV4()),
		Number:    1001,
		Name:      "Ana",
		Active:    true,
		CreatedAt: time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC),
	}
}

func decodeError(t *testing.T, body []byte) apierror.Error {
	t.Helper()
	var apiErr apierror.Error
	require.NoError(t, json.Unmarshal(body, &apiErr))
	return apiErr
}

// -- create account tests --

func TestHTTP_CreateAccount_Success(t *testing.T) {
	svc := new(mockAccountService)
	acc := sampleAccount()
	svc.On("Register", mock.Anything, service.AccountRegistration{Name: "Ana", Password: "pw"}).Return(acc, nil)

	resp := newTestAPI(t, svc).Post("/v1/account", CreateAccountBody{Name: "Ana", Password: "pw"})

	assert.Equal(t, http.StatusCreated, resp.Code)
	var body Account
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, acc.ID.String(), body.ID)
	assert.Equal(t, int64(1001), body.Number)
	assert.Equal(t, "2025-01-15T10:30:00Z", body.CreatedAt)
	svc.AssertExpectations(t)
}

func TestHTTP_CreateAccount_MissingName(t *testing.T) {
	svc := new(mockAccountService)

	resp := newTestAPI(t, svc).Post("/v1/account", map[string]any{"password": "pw"})

	assert.Equal(t, http.StatusUnprocessableEntity, resp.Code)
	svc.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestHTTP_CreateAccount_StorageFailure(t *testing.T) {
	svc := new(mockAccountService)
	svc.On("Register", mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("%w: create account: connection refused", ledger.ErrStorageFailure))

	resp := newTestAPI(t, svc).Post("/v1/account", CreateAccountBody{Name: "Ana", Password: "pw"})

	assert.Equal(t, http.StatusInternalServerError, resp.Code)
	apiErr := decodeError(t, resp.Body.Bytes())
	assert.Equal(t, ledger.CodeStorageFailure, apiErr.Code)
	assert.NotContains(t, apiErr.Message, "connection refused")
}

// -- get account tests --

func TestHTTP_GetAccount(t *testing.T) {
	svc := new(mockAccountService)
	acc := sampleAccount()
	svc.On("GetAccount", mock.Anything, acc.ID).Return(acc, nil)
	svc.On("GetAccountByNumber", mock.Anything, int64(1001)).Return(acc, nil)
	api := newTestAPI(t, svc)

	resp := api.Get("/v1/account/" + acc.ID.String())
	assert.Equal(t, http.StatusOK, resp.Code)

	resp = api.Get("/v1/accounts/1001")
	assert.Equal(t, http.StatusOK, resp.Code)
	var body Account
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, acc.ID.String(), body.ID)
}

func TestHTTP_GetAccount_NotFound(t *testing.T) {
	svc := new(mockAccountService)
	id := uuid.Must(uuid.NewV4())
	svc.On("GetAccount", mock.Anything, id).Return(nil, fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, id))

	resp := newTestAPI(t, svc).Get("/v1/account/" + id.String())

	assert.Equal(t, http.StatusNotFound, resp.Code)
	assert.Equal(t, ledger.CodeAccountNotFound, decodeError(t, resp.Body.Bytes()).Code)
}

func TestHTTP_GetAccount_BadID(t *testing.T) {
	svc := new(mockAccountService)

	resp := newTestAPI(t, svc).Get("/v1/account/not-a-uuid")

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, ledger.CodeInvalidAccount, decodeError(t, resp.Body.Bytes()).Code)
}

// -- list accounts tests --

func TestHTTP_ListAccounts_WithNextCursor(t *testing.T) {
	svc := new(mockAccountService)
	acc := sampleAccount()
	svc.On("ListAccounts", mock.Anything, &service.AccountCursor{Position: 0, Limit: 1}).
		Return([]service.Account{*acc}, &service.AccountCursor{Position: 1, Limit: 1}, nil)

	resp := newTestAPI(t, svc).Get("/v1/accounts?limit=1")

	assert.Equal(t, http.StatusOK, resp.Code)
	var body ListAccountsResponseBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Accounts, 1)
	require.NotNil(t, body.NextCursor)
	assert.Equal(t, 1, body.NextCursor.Position)
}

func TestHTTP_ListAccounts_DefaultLimit(t *testing.T) {
	svc := new(mockAccountService)
	svc.On("ListAccounts", mock.Anything, &service.AccountCursor{Position: 0, Limit: 20}).
		Return(nil, nil, nil)

	resp := newTestAPI(t, svc).Get("/v1/accounts")

	assert.Equal(t, http.StatusOK, resp.Code)
	var body ListAccountsResponseBody
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Empty(t, body.Accounts)
	assert.Nil(t, body.NextCursor)
}

// -- deactivate tests --

func TestHTTP_Deactivate(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"success", nil, http.StatusNoContent},
		{"bad password", service.ErrInvalidCredentials, http.StatusUnauthorized},
		{"already inactive", ledger.ErrAccountInactive, http.StatusBadRequest},
		{"unknown", ledger.ErrAccountNotFound, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(mockAccountService)
			id := uuid.Must(uuid.NewV4())
			svc.On("Deactivate", mock.Anything, id, "pw").Return(tt.err)

			resp := newTestAPI(t, svc).Post("/v1/account/"+id.String()+"/deactivate", DeactivateAccountBody{Password: "pw"})

			assert.Equal(t, tt.status, resp.Code)
			svc.AssertExpectations(t)
		})
	}
}

// -- balance tests --

func TestHTTP_GetBalance(t *testing.T) {
	svc := new(mockAccountService)
	id := uuid.Must(uuid.NewV4())
	svc.On("GetBalance", mock.Anything, id).Return(&ledger.AccountBalance{
		AccountID: id,
		Number:    1002,
		Name:      "Bruno",
		Balance:   decimal.RequireFromString("95.50"),
		QueriedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
	}, nil)

	resp := newTestAPI(t, svc).Get("/v1/account/" + id.String() + "/balance")

	assert.Equal(t, http.StatusOK, resp.Code)
	var body BalanceResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "95.5", body.Balance)
	assert.Equal(t, int64(1002), body.Number)
	assert.Equal(t, "2025-06-01T00:00:00Z", body.QueriedAt)
}

func TestHTTP_GetBalance_Inactive(t *testing.T) {
	svc := new(mockAccountService)
	id := uuid.Must(uuid.NewV4())
	svc.On("GetBalance", mock.Anything, id).Return(nil, ledger.ErrAccountInactive)

	resp := newTestAPI(t, svc).Get("/v1/account/" + id.String() + "/balance")

	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Equal(t, ledger.CodeAccountInactive, decodeError(t, resp.Body.Bytes()).Code)
}
