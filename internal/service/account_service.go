package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/account"
)

const defaultAccountLimit = 20

// AccountService handles account registration, lookup and deactivation.
type AccountService struct {
	backend    storage.Backend
	engine     *ledger.Engine
	iterations int
}

// NewAccountService creates a new AccountService.
func NewAccountService(backend storage.Backend, engine *ledger.Engine) *AccountService {
	return &AccountService{backend: backend, engine: engine, iterations: passwordIterations}
}

// Register opens an active account. The database assigns its number.
func (s *AccountService) Register(ctx context.Context, registration AccountRegistration) (*Account, error) {
	name := strings.TrimSpace(registration.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", ledger.ErrInvalidAccount)
	}
	if strings.TrimSpace(registration.Password) == "" {
		return nil, fmt.Errorf("%w: password is required", ledger.ErrInvalidAccount)
	}

	hash, salt, err := hashPassword(registration.Password, s.iterations)
	if err != nil {
		return nil, err
	}

	var created *account.Account
	err = storage.NewUnitOfWork(s.backend).Run(ctx, func(ctx context.Context, w *storage.Writer) error {
		var err error
		created, err = w.Accounts.Create(ctx, &account.AccountCreate{
			Name:         name,
			PasswordHash: hash,
			Salt:         salt,
		})
		return err
	})
	if err != nil {
		return nil, storageFailure("create account", err)
	}
	return accountFromStorage(created), nil
}

// GetAccount retrieves an account by ID.
func (s *AccountService) GetAccount(ctx context.Context, id uuid.UUID) (*Account, error) {
	row, err := s.backend.Reader().Accounts.FindByID(ctx, id)
	if err != nil {
		return nil, storageFailure("find account", err)
	}
	if row == nil {
		return nil, fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, id)
	}
	return accountFromStorage(row), nil
}

// GetAccountByNumber retrieves an account by its display number.
func (s *AccountService) GetAccountByNumber(ctx context.Context, number int64) (*Account, error) {
	row, err := s.backend.Reader().Accounts.FindByNumber(ctx, number)
	if err != nil {
		return nil, storageFailure("find account", err)
	}
	if row == nil {
		return nil, fmt.Errorf("%w: number %d", ledger.ErrAccountNotFound, number)
	}
	return accountFromStorage(row), nil
}

// ListAccounts returns a page of accounts ordered by number.
func (s *AccountService) ListAccounts(ctx context.Context, cursor *AccountCursor) ([]Account, *AccountCursor, error) {
	filter := &account.AccountFilter{Limit: defaultAccountLimit}
	if cursor != nil {
		filter.Limit = cursor.Limit
		filter.Offset = cursor.Position
	}

	result, err := s.backend.Reader().Accounts.List(ctx, filter)
	if err != nil {
		return nil, nil, storageFailure("list accounts", err)
	}

	accounts := make([]Account, len(result.Accounts))
	for i, row := range result.Accounts {
		accounts[i] = *accountFromStorage(row)
	}

	var next *AccountCursor
	if result.NextCursor != nil {
		next = &AccountCursor{Position: result.NextCursor.Position, Limit: result.NextCursor.Limit}
	}
	return accounts, next, nil
}

// Deactivate closes the account after checking its password. Closing an
// account that is already inactive fails with ledger.ErrAccountInactive.
func (s *AccountService) Deactivate(ctx context.Context, id uuid.UUID, password string) error {
	if strings.TrimSpace(password) == "" {
		return fmt.Errorf("%w: password is required", ledger.ErrInvalidRequest)
	}

	err := storage.NewUnitOfWork(s.backend).Run(ctx, func(ctx context.Context, w *storage.Writer) error {
		row, err := w.Accounts.FindByIDForUpdate(ctx, id)
		if err != nil {
			return storageFailure("lock account", err)
		}
		if row == nil {
			return fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, id)
		}
		if !row.Active {
			return fmt.Errorf("%w: %s", ledger.ErrAccountInactive, id)
		}
		if !verifyPassword(password, row.PasswordHash, row.Salt, s.iterations) {
			return ErrInvalidCredentials
		}

		updated, err := w.Accounts.UpdateStatus(ctx, id, false)
		if err != nil {
			return storageFailure("update account status", err)
		}
		if !updated {
			return fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, id)
		}
		return nil
	})
	if err != nil && Code(err) == ledger.CodeStorageFailure && !errors.Is(err, ledger.ErrStorageFailure) {
		return storageFailure("deactivate account", err)
	}
	return err
}

// GetBalance returns the account's current balance with its number and name.
func (s *AccountService) GetBalance(ctx context.Context, id uuid.UUID) (*ledger.AccountBalance, error) {
	return s.engine.GetAccountBalance(ctx, id)
}
