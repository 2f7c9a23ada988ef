// Package ledger enforces the ledger rules: balances are derived from the
// movement and fee stores, movements are idempotent per account, and a
// transfer's transfer row, both legs and its fee commit together or not at all.
package ledger

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/internal/events"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/movement"
)

// Notifier receives a summary of every committed change. It must not block.
type Notifier interface {
	Notify(ctx context.Context, event events.Event)
}

type Engine struct {
	backend  storage.Backend
	fee      decimal.Decimal
	notifier Notifier
	logger   logrus.FieldLogger
}

type Option func(*Engine)

// WithTransferFee sets the fee charged to the origin of a transfer when the
// command does not carry its own.
func WithTransferFee(fee decimal.Decimal) Option {
	return func(e *Engine) {
		e.fee = fee
	}
}

func WithNotifier(n Notifier) Option {
	return func(e *Engine) {
		e.notifier = n
	}
}

func WithLogger(logger logrus.FieldLogger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

func NewEngine(backend storage.Backend, opts ...Option) *Engine {
	e := &Engine{
		backend: backend,
		fee:     decimal.Zero,
		logger:  logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AccountBalance is the balance of an account at QueriedAt.
type AccountBalance struct {
	AccountID uuid.UUID
	Number    int64
	Name      string
	Balance   decimal.Decimal
	QueriedAt time.Time
}

// GetBalance returns Σcredits − Σdebits − Σfees for an active account.
func (e *Engine) GetBalance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	result, err := e.GetAccountBalance(ctx, accountID)
	if err != nil {
		return decimal.Zero, err
	}
	return result.Balance, nil
}

func (e *Engine) GetAccountBalance(ctx context.Context, accountID uuid.UUID) (*AccountBalance, error) {
	reader := e.backend.Reader()

	acc, err := reader.Accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, storageFailure("find account", err)
	}
	if err := checkActive(acc, accountID); err != nil {
		return nil, err
	}

	balance, err := balanceOf(ctx, reader.Movements, accountID)
	if err != nil {
		return nil, err
	}

	return &AccountBalance{
		AccountID: acc.ID,
		Number:    acc.Number,
		Name:      acc.Name,
		Balance:   balance,
		QueriedAt: time.Now().UTC(),
	}, nil
}

func balanceOf(ctx context.Context, movements movement.IMovementReader, accountID uuid.UUID) (decimal.Decimal, error) {
	balance, err := movements.Balance(ctx, accountID)
	if err != nil {
		return decimal.Zero, storageFailure("read balance", err)
	}
	return balance, nil
}

func checkActive(acc *account.Account, id uuid.UUID) error {
	if acc == nil {
		return wrapID(ErrAccountNotFound, id.String())
	}
	if !acc.Active {
		return wrapID(ErrAccountInactive, id.String())
	}
	return nil
}

func (e *Engine) notify(ctx context.Context, event events.Event) {
	if e.notifier == nil {
		return
	}
	e.notifier.Notify(context.WithoutCancel(ctx), event)
}
