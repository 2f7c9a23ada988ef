package service

import (
	"context"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/movement"
)

const defaultLimit = 20

// MovementService records movements and reads account statements.
type MovementService struct {
	backend storage.Backend
	engine  *ledger.Engine
}

// NewMovementService creates a new MovementService.
func NewMovementService(backend storage.Backend, engine *ledger.Engine) *MovementService {
	return &MovementService{backend: backend, engine: engine}
}

// RecordMovement applies the request once per (account, idempotency key).
func (s *MovementService) RecordMovement(ctx context.Context, req MovementRequest) (*ledger.MovementResult, error) {
	return s.engine.RecordMovement(ctx, ledger.MovementCommand{
		AccountID:      req.AccountID,
		IdempotencyKey: req.IdempotencyKey,
		Amount:         req.Amount,
		Direction:      req.Direction,
	})
}

// ListMovements returns a page of the account's movements, newest first.
func (s *MovementService) ListMovements(ctx context.Context, accountID uuid.UUID, cursor *StatementCursor) ([]Movement, *StatementCursor, error) {
	if err := requireAccount(ctx, s.backend, accountID); err != nil {
		return nil, nil, err
	}

	limit := defaultLimit
	offset := 0
	var maxCreationTime *time.Time
	if cursor != nil {
		limit = cursor.Limit
		offset = cursor.Position
		if !cursor.MaxCreationTime.IsZero() {
			maxCreationTime = &cursor.MaxCreationTime
		}
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	rows, err := s.backend.Reader().Movements.List(ctx, &movement.MovementFilter{
		AccountID:       accountID,
		Limit:           limit,
		Offset:          offset,
		MaxCreationTime: maxCreationTime,
	})
	if err != nil {
		return nil, nil, storageFailure("list movements", err)
	}

	if len(rows) == 0 {
		return nil, nil, nil
	}

	var nextCursor *StatementCursor
	if len(rows) > limit {
		rows = rows[:limit]

		cursorMaxCreationTime := rows[0].CreatedAt
		if maxCreationTime != nil {
			cursorMaxCreationTime = *maxCreationTime
		}

		nextCursor = &StatementCursor{
			Position:        offset + limit,
			Limit:           limit,
			MaxCreationTime: cursorMaxCreationTime,
		}
	}

	movements := make([]Movement, len(rows))
	for i, row := range rows {
		movements[i] = movementFromStorage(row)
	}
	return movements, nextCursor, nil
}

func requireAccount(ctx context.Context, backend storage.Backend, id uuid.UUID) error {
	row, err := backend.Reader().Accounts.FindByID(ctx, id)
	if err != nil {
		return storageFailure("find account", err)
	}
	if row == nil {
		return fmt.Errorf("%w: %s", ledger.ErrAccountNotFound, id)
	}
	return nil
}
