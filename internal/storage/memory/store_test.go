package memory

import (
	"context"
	"testing"
	"time"

	"github.com/aarondl/opt/omit"
	"github.com/davecgh/go-spew/spew"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/dberr"
	"github.com/carson-networks/ledger-server/internal/storage/fee"
	"github.com/carson-networks/ledger-server/internal/storage/movement"
	"github.com/carson-networks/ledger-server/internal/storage/transfer"
)

func begin(t *testing.T, s *Store) storage.Session {
	t.Helper()
	sess, err := s.BeginSession(context.Background())
	require.NoError(t, err)
	return sess
}

func newAccount(t *testing.T, s *Store, name string) *account.Account {
	t.Helper()
	ctx := context.Background()
	sess := begin(t, s)
	acc, err := sess.Writer().Accounts.Create(ctx, &account.AccountCreate{Name: name, PasswordHash: "h", Salt: "s"})
	require.NoError(t, err)
	require.NoError(t, sess.Commit(ctx))
	return acc
}

// -- account tests --

func TestAccounts_NumbersAreSequential(t *testing.T) {
	s := NewStore()

	first := newAccount(t, s, "first")
	second := newAccount(t, s, "second")

	assert.Equal(t, account.FirstNumber, first.Number)
	assert.Equal(t, account.FirstNumber+1, second.Number)
	assert.True(t, first.Active)

	found, err := s.Reader().Accounts.FindByNumber(context.Background(), second.Number)
	require.NoError(t, err)
	assert.Equal(t, second.ID, found.ID, spew.Sdump(found))
}

func TestAccounts_RolledBackCreateIsDiscarded(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	newAccount(t, s, "first")

	sess := begin(t, s)
	discarded, err := sess.Writer().Accounts.Create(ctx, &account.AccountCreate{Name: "discarded"})
	require.NoError(t, err)
	require.NoError(t, sess.Rollback(ctx))

	// The counter lives in the session copy, so the number is handed out again.
	next := newAccount(t, s, "next")
	assert.Equal(t, discarded.Number, next.Number)

	missing, err := s.Reader().Accounts.FindByID(ctx, discarded.ID)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestAccounts_MissingReturnsNil(t *testing.T) {
	s := NewStore()

	byID, err := s.Reader().Accounts.FindByID(context.Background(), uuid.Must(uuid.NewV4()))
	assert.NoError(t, err)
	assert.Nil(t, byID)

	byNumber, err := s.Reader().Accounts.FindByNumber(context.Background(), 42)
	assert.NoError(t, err)
	assert.Nil(t, byNumber)
}

func TestAccounts_UpdateStatus(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	acc := newAccount(t, s, "closing")

	sess := begin(t, s)
	updated, err := sess.Writer().Accounts.UpdateStatus(ctx, acc.ID, false)
	require.NoError(t, err)
	assert.True(t, updated)

	// Not visible outside the session until commit.
	before, err := s.Reader().Accounts.FindByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, before.Active)

	require.NoError(t, sess.Commit(ctx))

	after, err := s.Reader().Accounts.FindByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.False(t, after.Active)
}

func TestAccounts_UpdateStatusUnknown(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	sess := begin(t, s)
	defer func() { _ = sess.Rollback(ctx) }()

	updated, err := sess.Writer().Accounts.UpdateStatus(ctx, uuid.Must(uuid.NewV4()), false)
	require.NoError(t, err)
	assert.False(t, updated)
}

func TestAccounts_ListPages(t *testing.T) {
	s := NewStore()
	for i := 0; i < 5; i++ {
		newAccount(t, s, "acc")
	}

	page, err := s.Reader().Accounts.List(context.Background(), &account.AccountFilter{Limit: 2, Offset: 0})
	require.NoError(t, err)
	require.Len(t, page.Accounts, 2)
	assert.Equal(t, account.FirstNumber, page.Accounts[0].Number)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, 2, page.NextCursor.Position)

	last, err := s.Reader().Accounts.List(context.Background(), &account.AccountFilter{Limit: 2, Offset: 4})
	require.NoError(t, err)
	require.Len(t, last.Accounts, 1)
	assert.Nil(t, last.NextCursor)
}

func TestReader_RejectsWrites(t *testing.T) {
	s := NewStore()
	w, ok := s.Reader().Accounts.(account.IAccountWriter)
	require.True(t, ok)

	_, err := w.Create(context.Background(), &account.AccountCreate{Name: "sneaky"})
	assert.ErrorIs(t, err, ErrReadOnly)
}

// -- movement tests --

func TestMovements_UniquePerAccountAndKey(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	a := newAccount(t, s, "a")
	b := newAccount(t, s, "b")

	sess := begin(t, s)
	w := sess.Writer()

	create := &movement.MovementCreate{AccountID: a.ID, IdempotencyKey: "k1", Amount: decimal.RequireFromString("10"), Direction: movement.DirectionCredit}
	_, err := w.Movements.Insert(ctx, create)
	require.NoError(t, err)

	_, err = w.Movements.Insert(ctx, create)
	assert.ErrorIs(t, err, dberr.ErrConflict)

	// Same key on another account is a different movement.
	_, err = w.Movements.Insert(ctx, &movement.MovementCreate{AccountID: b.ID, IdempotencyKey: "k1", Amount: decimal.RequireFromString("1"), Direction: movement.DirectionCredit})
	assert.NoError(t, err)

	require.NoError(t, sess.Commit(ctx))
}

func TestMovements_NetAmountSeesSessionWrites(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	acc := newAccount(t, s, "a")

	sess := begin(t, s)
	w := sess.Writer()
	_, err := w.Movements.Insert(ctx, &movement.MovementCreate{AccountID: acc.ID, IdempotencyKey: "c", Amount: decimal.RequireFromString("25.50"), Direction: movement.DirectionCredit})
	require.NoError(t, err)
	_, err = w.Movements.Insert(ctx, &movement.MovementCreate{AccountID: acc.ID, IdempotencyKey: "d", Amount: decimal.RequireFromString("5.25"), Direction: movement.DirectionDebit})
	require.NoError(t, err)

	inSession, err := w.Movements.NetAmount(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("20.25").Equal(inSession), inSession.String())

	committed, err := s.Reader().Movements.NetAmount(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, committed.IsZero())

	require.NoError(t, sess.Rollback(ctx))

	afterRollback, err := s.Reader().Movements.NetAmount(ctx, acc.ID)
	require.NoError(t, err)
	assert.True(t, afterRollback.IsZero())
}

func TestMovements_ListNewestFirstWithCutoff(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	acc := newAccount(t, s, "a")

	sess := begin(t, s)
	for _, key := range []string{"m1", "m2", "m3"} {
		_, err := sess.Writer().Movements.Insert(ctx, &movement.MovementCreate{AccountID: acc.ID, IdempotencyKey: key, Amount: decimal.RequireFromString("1"), Direction: movement.DirectionCredit})
		require.NoError(t, err)
		time.Sleep(time.Millisecond)
	}
	require.NoError(t, sess.Commit(ctx))

	rows, err := s.Reader().Movements.List(ctx, &movement.MovementFilter{AccountID: acc.ID, Limit: 2})
	require.NoError(t, err)
	require.Len(t, rows, 3, "limit+1 rows signal a next page")
	assert.Equal(t, "m3", rows[0].IdempotencyKey)
	assert.Equal(t, "m1", rows[2].IdempotencyKey)

	cutoff := rows[1].CreatedAt
	older, err := s.Reader().Movements.List(ctx, &movement.MovementFilter{AccountID: acc.ID, Limit: 10, MaxCreationTime: &cutoff})
	require.NoError(t, err)
	require.Len(t, older, 2, spew.Sdump(older))
	assert.Equal(t, "m2", older[0].IdempotencyKey)
}

// -- transfer and fee tests --

func TestTransfersAndFees(t *testing.T) {
	s := NewStore()
	ctx := context.Background()
	origin := newAccount(t, s, "origin")
	destination := newAccount(t, s, "destination")

	sess := begin(t, s)
	w := sess.Writer()

	tr, err := w.Transfers.Insert(ctx, &transfer.TransferCreate{
		OriginAccountID:      origin.ID,
		DestinationAccountID: destination.ID,
		IdempotencyKey:       "t1",
		Amount:               decimal.RequireFromString("10"),
	})
	require.NoError(t, err)

	_, err = w.Transfers.Insert(ctx, &transfer.TransferCreate{OriginAccountID: origin.ID, DestinationAccountID: destination.ID, IdempotencyKey: "t1", Amount: decimal.RequireFromString("1")})
	assert.ErrorIs(t, err, dberr.ErrConflict)

	_, err = w.Movements.Insert(ctx, &movement.MovementCreate{AccountID: origin.ID, TransferID: omit.From(tr.ID), IdempotencyKey: "leg-d", Amount: tr.Amount, Direction: movement.DirectionDebit})
	require.NoError(t, err)
	_, err = w.Movements.Insert(ctx, &movement.MovementCreate{AccountID: destination.ID, TransferID: omit.From(tr.ID), IdempotencyKey: "leg-c", Amount: tr.Amount, Direction: movement.DirectionCredit})
	require.NoError(t, err)

	_, err = w.Fees.Insert(ctx, &fee.FeeCreate{AccountID: origin.ID, TransferID: tr.ID, Amount: decimal.RequireFromString("0.5")})
	require.NoError(t, err)
	_, err = w.Fees.Insert(ctx, &fee.FeeCreate{AccountID: origin.ID, TransferID: tr.ID, Amount: decimal.RequireFromString("0.5")})
	assert.ErrorIs(t, err, dberr.ErrConflict)

	require.NoError(t, sess.Commit(ctx))

	r := s.Reader()
	byKey, err := r.Transfers.FindByIdempotencyKey(ctx, origin.ID, "t1")
	require.NoError(t, err)
	assert.Equal(t, tr.ID, byKey.ID)

	legs, err := r.Movements.ListByTransfer(ctx, tr.ID)
	require.NoError(t, err)
	require.Len(t, legs, 2)
	assert.Equal(t, movement.DirectionDebit, legs[0].Direction)
	assert.True(t, legs[0].TransferID.Valid)

	total, err := r.Fees.SumByAccount(ctx, origin.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("0.5").Equal(total))

	originBalance, err := r.Movements.Balance(ctx, origin.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("-10.5").Equal(originBalance), originBalance.String())

	destinationBalance, err := r.Movements.Balance(ctx, destination.ID)
	require.NoError(t, err)
	assert.True(t, decimal.RequireFromString("10").Equal(destinationBalance), destinationBalance.String())

	f, err := r.Fees.FindByTransfer(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, origin.ID, f.AccountID)

	both, err := r.Transfers.List(ctx, &transfer.TransferFilter{AccountID: destination.ID, Limit: 10})
	require.NoError(t, err)
	assert.Len(t, both, 1)
}

// -- session tests --

func TestSession_ClosedSessionRejectsUse(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	sess := begin(t, s)
	w := sess.Writer()
	require.NoError(t, sess.Commit(ctx))

	_, err := w.Accounts.FindByID(ctx, uuid.Must(uuid.NewV4()))
	assert.ErrorIs(t, err, ErrSessionClosed)
	assert.ErrorIs(t, sess.Commit(ctx), ErrSessionClosed)
	assert.NoError(t, sess.Rollback(ctx))
}

func TestSession_SerializesWriters(t *testing.T) {
	s := NewStore()
	ctx := context.Background()

	first := begin(t, s)

	started := make(chan struct{})
	acquired := make(chan storage.Session)
	go func() {
		close(started)
		sess, err := s.BeginSession(ctx)
		assert.NoError(t, err)
		acquired <- sess
	}()

	<-started
	select {
	case <-acquired:
		t.Fatal("second session began while the first was open")
	case <-time.After(50 * time.Millisecond):
	}

	require.NoError(t, first.Rollback(ctx))

	select {
	case second := <-acquired:
		require.NoError(t, second.Rollback(ctx))
	case <-time.After(time.Second):
		t.Fatal("second session never began")
	}
}
