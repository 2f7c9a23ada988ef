// Package memory is an in-process storage.Backend. Sessions are serialized by
// a single mutex and work on a private copy of the committed state, which is
// swapped in on Commit, so every session behaves as if it ran alone.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/fee"
	"github.com/carson-networks/ledger-server/internal/storage/movement"
	"github.com/carson-networks/ledger-server/internal/storage/transfer"
)

var (
	ErrReadOnly      = errors.New("memory: write outside of a session")
	ErrSessionClosed = errors.New("memory: session already closed")
)

type ownerKey struct {
	accountID uuid.UUID
	key       string
}

type state struct {
	nextNumber int64

	accounts         map[uuid.UUID]*account.Account
	accountsByNumber map[int64]uuid.UUID

	movements     []*movement.Movement
	movementByKey map[ownerKey]*movement.Movement

	transfers     []*transfer.Transfer
	transferByID  map[uuid.UUID]*transfer.Transfer
	transferByKey map[ownerKey]*transfer.Transfer

	fees          []*fee.Fee
	feeByTransfer map[uuid.UUID]*fee.Fee
}

func newState() *state {
	return &state{
		nextNumber:       account.FirstNumber,
		accounts:         make(map[uuid.UUID]*account.Account),
		accountsByNumber: make(map[int64]uuid.UUID),
		movementByKey:    make(map[ownerKey]*movement.Movement),
		transferByID:     make(map[uuid.UUID]*transfer.Transfer),
		transferByKey:    make(map[ownerKey]*transfer.Transfer),
		feeByTransfer:    make(map[uuid.UUID]*fee.Fee),
	}
}

// clone copies the indexes. Rows are shared because they are never mutated in
// place; an account status change replaces the row.
func (s *state) clone() *state {
	c := &state{
		nextNumber:       s.nextNumber,
		accounts:         make(map[uuid.UUID]*account.Account, len(s.accounts)),
		accountsByNumber: make(map[int64]uuid.UUID, len(s.accountsByNumber)),
		movements:        append([]*movement.Movement(nil), s.movements...),
		movementByKey:    make(map[ownerKey]*movement.Movement, len(s.movementByKey)),
		transfers:        append([]*transfer.Transfer(nil), s.transfers...),
		transferByID:     make(map[uuid.UUID]*transfer.Transfer, len(s.transferByID)),
		transferByKey:    make(map[ownerKey]*transfer.Transfer, len(s.transferByKey)),
		fees:             append([]*fee.Fee(nil), s.fees...),
		feeByTransfer:    make(map[uuid.UUID]*fee.Fee, len(s.feeByTransfer)),
	}
	for k, v := range s.accounts {
		c.accounts[k] = v
	}
	for k, v := range s.accountsByNumber {
		c.accountsByNumber[k] = v
	}
	for k, v := range s.movementByKey {
		c.movementByKey[k] = v
	}
	for k, v := range s.transferByID {
		c.transferByID[k] = v
	}
	for k, v := range s.transferByKey {
		c.transferByKey[k] = v
	}
	for k, v := range s.feeByTransfer {
		c.feeByTransfer[k] = v
	}
	return c
}

// source gives the stores access to either the committed state or a
// session's private copy.
type source interface {
	view(fn func(s *state) error) error
	mutate(fn func(s *state) error) error
}

var _ storage.Backend = (*Store)(nil)

type Store struct {
	txMu sync.Mutex

	dataMu sync.RWMutex
	data   *state

	reader *storage.Reader
}

func NewStore() *Store {
	s := &Store{data: newState()}
	s.reader = newReader(committed{store: s})
	return s
}

func (s *Store) Reader() *storage.Reader {
	return s.reader
}

// BeginSession blocks until no other session is open.
func (s *Store) BeginSession(ctx context.Context) (storage.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.txMu.Lock()

	s.dataMu.RLock()
	snapshot := s.data.clone()
	s.dataMu.RUnlock()

	sess := &session{store: s, data: snapshot}
	sess.writer = newWriter(sess)
	return sess, nil
}

type committed struct {
	store *Store
}

func (c committed) view(fn func(s *state) error) error {
	c.store.dataMu.RLock()
	defer c.store.dataMu.RUnlock()
	return fn(c.store.data)
}

func (c committed) mutate(func(s *state) error) error {
	return ErrReadOnly
}

type session struct {
	store  *Store
	data   *state
	writer *storage.Writer
	closed bool
}

func (s *session) view(fn func(st *state) error) error {
	if s.closed {
		return ErrSessionClosed
	}
	return fn(s.data)
}

func (s *session) mutate(fn func(st *state) error) error {
	return s.view(fn)
}

func (s *session) Writer() *storage.Writer {
	return s.writer
}

func (s *session) Commit(context.Context) error {
	if s.closed {
		return ErrSessionClosed
	}
	s.store.dataMu.Lock()
	s.store.data = s.data
	s.store.dataMu.Unlock()
	s.close()
	return nil
}

func (s *session) Rollback(context.Context) error {
	if s.closed {
		return nil
	}
	s.close()
	return nil
}

func (s *session) close() {
	s.closed = true
	s.data = nil
	s.store.txMu.Unlock()
}

func newReader(src source) *storage.Reader {
	return &storage.Reader{
		Accounts:  &accountStore{src: src},
		Movements: &movementStore{src: src},
		Transfers: &transferStore{src: src},
		Fees:      &feeStore{src: src},
	}
}

func newWriter(src source) *storage.Writer {
	return &storage.Writer{
		Accounts:  &accountStore{src: src},
		Movements: &movementStore{src: src},
		Transfers: &transferStore{src: src},
		Fees:      &feeStore{src: src},
	}
}

// Ping always succeeds; the store lives in the process.
func (s *Store) Ping(context.Context) error {
	return nil
}
