package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/ledger-server/internal/events"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/fee"
	"github.com/carson-networks/ledger-server/internal/storage/memory"
	"github.com/carson-networks/ledger-server/internal/storage/movement"
)

func newTestEngine(t *testing.T, opts ...Option) (*Engine, *memory.Store) {
	t.Helper()
	store := memory.NewStore()
	return NewEngine(store, opts...), store
}

func createAccount(t *testing.T, store storage.Backend, name string) *account.Account {
	t.Helper()
	ctx := context.Background()

	sess, err := store.BeginSession(ctx)
	require.NoError(t, err)
	acc, err := sess.Writer().Accounts.Create(ctx, &account.AccountCreate{
		Name:         name,
		PasswordHash: "hash",
		Salt:         "salt",
	})
	require.NoError(t, err)
	require.NoError(t, sess.Commit(ctx))
	return acc
}

func deactivate(t *testing.T, store storage.Backend, id uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	sess, err := store.BeginSession(ctx)
	require.NoError(t, err)
	updated, err := sess.Writer().Accounts.UpdateStatus(ctx, id, false)
	require.NoError(t, err)
	require.True(t, updated)
	require.NoError(t, sess.Commit(ctx))
}

func credit(t *testing.T, e *Engine, id uuid.UUID, amount string) {
	t.Helper()
	_, err := e.RecordMovement(context.Background(), MovementCommand{
		AccountID:      id,
		IdempotencyKey: "fund-" + uuid.Must(uuid.NewV4()).String(),
		Amount:         decimal.RequireFromString(amount),
		Direction:      movement.DirectionCredit,
	})
	require.NoError(t, err)
}

func requireBalance(t *testing.T, e *Engine, id uuid.UUID, expected string) {
	t.Helper()
	balance, err := e.GetBalance(context.Background(), id)
	require.NoError(t, err)
	require.True(t, decimal.RequireFromString(expected).Equal(balance), "expected balance %s, got %s", expected, balance)
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recordingNotifier) Notify(_ context.Context, event events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingNotifier) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

// failingBackend makes movement inserts of one direction fail inside
// otherwise healthy sessions.
type failingBackend struct {
	storage.Backend
	failOn movement.Direction
}

var errInjected = errors.New("injected insert failure")

func (f *failingBackend) BeginSession(ctx context.Context) (storage.Session, error) {
	sess, err := f.Backend.BeginSession(ctx)
	if err != nil {
		return nil, err
	}
	w := *sess.Writer()
	w.Movements = &failingMovements{IMovementWriter: w.Movements, failOn: f.failOn}
	return &wrappedSession{Session: sess, writer: &w}, nil
}

type wrappedSession struct {
	storage.Session
	writer *storage.Writer
}

func (s *wrappedSession) Writer() *storage.Writer {
	return s.writer
}

type failingMovements struct {
	movement.IMovementWriter
	failOn movement.Direction
}

func (f *failingMovements) Insert(ctx context.Context, create *movement.MovementCreate) (*movement.Movement, error) {
	if create.Direction == f.failOn {
		return nil, errInjected
	}
	return f.IMovementWriter.Insert(ctx, create)
}

// interleavingBackend runs afterRead once, right after the first balance
// read of its Reader returns, so a commit lands between two reads that a
// torn balance would split.
type interleavingBackend struct {
	storage.Backend
	once      sync.Once
	afterRead func()
}

func (b *interleavingBackend) Reader() *storage.Reader {
	r := *b.Backend.Reader()
	r.Movements = &interleavingMovements{IMovementReader: r.Movements, backend: b}
	r.Fees = &interleavingFees{IFeeReader: r.Fees, backend: b}
	return &r
}

func (b *interleavingBackend) fire() {
	b.once.Do(b.afterRead)
}

type interleavingMovements struct {
	movement.IMovementReader
	backend *interleavingBackend
}

func (m *interleavingMovements) NetAmount(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	defer m.backend.fire()
	return m.IMovementReader.NetAmount(ctx, accountID)
}

func (m *interleavingMovements) Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	defer m.backend.fire()
	return m.IMovementReader.Balance(ctx, accountID)
}

type interleavingFees struct {
	fee.IFeeReader
	backend *interleavingBackend
}

func (f *interleavingFees) SumByAccount(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	defer f.backend.fire()
	return f.IFeeReader.SumByAccount(ctx, accountID)
}
