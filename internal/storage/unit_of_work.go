package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

var ErrInvalidOperation = errors.New("storage: invalid unit of work operation")

type State int

const (
	StateIdle State = iota
	StateActive
	StateCommitted
	StateRolledBack
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateActive:
		return "active"
	case StateCommitted:
		return "committed"
	case StateRolledBack:
		return "rolled_back"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// UnitOfWork owns at most one session at a time. Commit and Rollback release
// the session and return the UnitOfWork to StateIdle, so it can Begin again;
// Outcome keeps the terminal state the last session reached.
type UnitOfWork struct {
	backend Backend

	mu      sync.Mutex
	state   State
	outcome State
	session Session
}

func NewUnitOfWork(backend Backend) *UnitOfWork {
	return &UnitOfWork{backend: backend}
}

func (u *UnitOfWork) State() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.state
}

// Outcome is StateCommitted or StateRolledBack once a session has ended, and
// StateIdle before that or while a session is open.
func (u *UnitOfWork) Outcome() State {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.outcome
}

func (u *UnitOfWork) Begin(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state == StateActive {
		return fmt.Errorf("%w: begin while active", ErrInvalidOperation)
	}

	session, err := u.backend.BeginSession(ctx)
	if err != nil {
		return err
	}
	u.session = session
	u.state = StateActive
	u.outcome = StateIdle
	return nil
}

// Writer returns the stores of the active session.
func (u *UnitOfWork) Writer() (*Writer, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state != StateActive {
		return nil, fmt.Errorf("%w: no active session", ErrInvalidOperation)
	}
	return u.session.Writer(), nil
}

// Commit ends the session. A failed commit leaves the unit of work rolled back.
func (u *UnitOfWork) Commit(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state != StateActive {
		return fmt.Errorf("%w: commit while %s", ErrInvalidOperation, u.state)
	}

	err := u.session.Commit(ctx)
	if err != nil {
		u.finish(StateRolledBack)
		return err
	}
	u.finish(StateCommitted)
	return nil
}

func (u *UnitOfWork) Rollback(ctx context.Context) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.state != StateActive {
		return fmt.Errorf("%w: rollback while %s", ErrInvalidOperation, u.state)
	}

	err := u.session.Rollback(ctx)
	u.finish(StateRolledBack)
	return err
}

// finish records the terminal state and returns to idle. Callers hold mu.
func (u *UnitOfWork) finish(outcome State) {
	u.session = nil
	u.outcome = outcome
	u.state = StateIdle
}

// Run executes fn inside one session. It commits when fn returns nil and
// rolls back when fn returns an error or panics. Once the session has begun
// the caller's cancellation no longer applies, so a started unit of work
// always reaches exactly one terminal call.
func (u *UnitOfWork) Run(ctx context.Context, fn func(ctx context.Context, w *Writer) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txCtx := context.WithoutCancel(ctx)

	if err := u.Begin(txCtx); err != nil {
		return err
	}

	writer, err := u.Writer()
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = u.Rollback(txCtx)
			panic(p)
		}
	}()

	if err := fn(txCtx, writer); err != nil {
		if rbErr := u.Rollback(txCtx); rbErr != nil {
			return errors.Join(err, fmt.Errorf("rollback: %w", rbErr))
		}
		return err
	}

	return u.Commit(txCtx)
}
