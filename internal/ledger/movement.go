package ledger

import (
	"context"
	"errors"
	"strings"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/internal/events"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/dberr"
	"github.com/carson-networks/ledger-server/internal/storage/movement"
)

type MovementCommand struct {
	AccountID      uuid.UUID
	IdempotencyKey string
	Amount         decimal.Decimal
	Direction      movement.Direction
}

// MovementResult identifies the movement holding the effect of the command.
// Replayed is set when an earlier command with the same key already created it.
type MovementResult struct {
	MovementID uuid.UUID
	Replayed   bool
	Movement   *movement.Movement
}

// RecordMovement credits or debits an account exactly once per
// (account, idempotency key).
func (e *Engine) RecordMovement(ctx context.Context, cmd MovementCommand) (*MovementResult, error) {
	log := e.logger.WithFields(logrus.Fields{
		"accountID":      cmd.AccountID.String(),
		"idempotencyKey": cmd.IdempotencyKey,
		"direction":      string(cmd.Direction),
	})

	var result *MovementResult
	err := storage.NewUnitOfWork(e.backend).Run(ctx, func(ctx context.Context, w *storage.Writer) error {
		var err error
		result, err = e.recordMovement(ctx, w, cmd)
		return err
	})
	if errors.Is(err, dberr.ErrConflict) {
		// A concurrent request with the same key committed first.
		if replay, lookupErr := e.lookupMovement(ctx, cmd); lookupErr == nil && replay != nil {
			log.Info("Ledger.RecordMovement.ReplayedAfterConflict")
			return replay, nil
		}
	}
	if err != nil {
		if !IsBusinessError(err) {
			log.WithError(err).Error("Ledger.RecordMovement.Error")
			if !errors.Is(err, ErrStorageFailure) {
				err = storageFailure("record movement", err)
			}
		}
		return nil, err
	}

	if result.Replayed {
		log.Info("Ledger.RecordMovement.Replayed")
		return result, nil
	}

	log.WithField("movementID", result.MovementID.String()).Info("Ledger.RecordMovement.Committed")
	e.notify(ctx, events.Event{
		ID:             result.Movement.ID,
		Kind:           events.KindMovementRecorded,
		AccountID:      result.Movement.AccountID,
		Amount:         result.Movement.Amount,
		Fee:            decimal.Zero,
		Direction:      string(result.Movement.Direction),
		IdempotencyKey: result.Movement.IdempotencyKey,
		OccurredAt:     result.Movement.CreatedAt,
	})
	return result, nil
}

func (e *Engine) recordMovement(ctx context.Context, w *storage.Writer, cmd MovementCommand) (*MovementResult, error) {
	acc, err := w.Accounts.FindByIDForUpdate(ctx, cmd.AccountID)
	if err != nil {
		return nil, storageFailure("find account", err)
	}
	if err := checkActive(acc, cmd.AccountID); err != nil {
		return nil, err
	}

	if err := validateMovement(cmd); err != nil {
		return nil, err
	}

	// Replays are looked up before the debit balance check, not after it. A
	// debit that already committed returns its first result even when the
	// balance has since dropped below its amount, so a replay is never an error.
	existing, err := w.Movements.FindByIdempotencyKey(ctx, cmd.AccountID, cmd.IdempotencyKey)
	if err != nil {
		return nil, storageFailure("find movement", err)
	}
	if existing != nil {
		return &MovementResult{MovementID: existing.ID, Replayed: true, Movement: existing}, nil
	}

	if cmd.Direction == movement.DirectionDebit {
		balance, err := balanceOf(ctx, w.Movements, cmd.AccountID)
		if err != nil {
			return nil, err
		}
		if balance.LessThan(cmd.Amount) {
			return nil, wrapID(ErrInsufficientFunds, cmd.AccountID.String())
		}
	}

	row, err := w.Movements.Insert(ctx, &movement.MovementCreate{
		AccountID:      cmd.AccountID,
		IdempotencyKey: cmd.IdempotencyKey,
		Amount:         cmd.Amount,
		Direction:      cmd.Direction,
	})
	if err != nil {
		return nil, storageFailure("insert movement", err)
	}
	return &MovementResult{MovementID: row.ID, Movement: row}, nil
}

func validateMovement(cmd MovementCommand) error {
	if !cmd.Amount.IsPositive() {
		return wrapID(ErrInvalidAmount, cmd.Amount.String())
	}
	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return wrapID(ErrInvalidRequest, "idempotency key is required")
	}
	if isReservedKey(cmd.IdempotencyKey) {
		return wrapID(ErrInvalidRequest, "idempotency key prefix "+ReservedKeyPrefix+" is reserved")
	}
	if !cmd.Direction.Valid() {
		return wrapID(ErrInvalidRequest, "direction must be C or D")
	}
	return nil
}

func (e *Engine) lookupMovement(ctx context.Context, cmd MovementCommand) (*MovementResult, error) {
	existing, err := e.backend.Reader().Movements.FindByIdempotencyKey(ctx, cmd.AccountID, cmd.IdempotencyKey)
	if err != nil || existing == nil {
		return nil, err
	}
	return &MovementResult{MovementID: existing.ID, Replayed: true, Movement: existing}, nil
}
