package ledger

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/aarondl/opt/omit"
	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"github.com/carson-networks/ledger-server/internal/events"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/account"
	"github.com/carson-networks/ledger-server/internal/storage/dberr"
	"github.com/carson-networks/ledger-server/internal/storage/fee"
	"github.com/carson-networks/ledger-server/internal/storage/movement"
	"github.com/carson-networks/ledger-server/internal/storage/transfer"
)

// TransferCommand moves Amount from the origin to the destination. The
// destination is addressed by DestinationID, or by DestinationNumber when the
// id is nil. A nil Fee charges the engine's configured transfer fee.
type TransferCommand struct {
	OriginID          uuid.UUID
	DestinationID     uuid.UUID
	DestinationNumber int64
	IdempotencyKey    string
	Amount            decimal.Decimal
	Fee               *decimal.Decimal
}

type TransferResult struct {
	TransferID       uuid.UUID
	DebitMovementID  uuid.UUID
	CreditMovementID uuid.UUID
	FeeID            uuid.NullUUID
	Fee              decimal.Decimal
	Replayed         bool
	Transfer         *transfer.Transfer
}

// ExecuteTransfer debits the origin, credits the destination and charges the
// fee in one unit of work. Repeating a committed (origin, key) pair returns
// the original result without writing.
func (e *Engine) ExecuteTransfer(ctx context.Context, cmd TransferCommand) (*TransferResult, error) {
	chargedFee := e.fee
	if cmd.Fee != nil {
		chargedFee = *cmd.Fee
	}

	log := e.logger.WithFields(logrus.Fields{
		"originID":       cmd.OriginID.String(),
		"idempotencyKey": cmd.IdempotencyKey,
	})

	var result *TransferResult
	err := storage.NewUnitOfWork(e.backend).Run(ctx, func(ctx context.Context, w *storage.Writer) error {
		var err error
		result, err = e.executeTransfer(ctx, w, cmd, chargedFee)
		return err
	})
	if errors.Is(err, dberr.ErrConflict) {
		// A concurrent request with the same key committed first.
		if replay, lookupErr := e.lookupTransfer(ctx, cmd.OriginID, cmd.IdempotencyKey); lookupErr == nil && replay != nil {
			log.Info("Ledger.ExecuteTransfer.ReplayedAfterConflict")
			return replay, nil
		}
	}
	if err != nil {
		if !IsBusinessError(err) {
			log.WithError(err).Error("Ledger.ExecuteTransfer.Error")
			if !errors.Is(err, ErrStorageFailure) {
				err = storageFailure("execute transfer", err)
			}
		}
		return nil, err
	}

	if result.Replayed {
		log.WithField("transferID", result.TransferID.String()).Info("Ledger.ExecuteTransfer.Replayed")
		return result, nil
	}

	t := result.Transfer
	log.WithFields(logrus.Fields{
		"transferID":    t.ID.String(),
		"destinationID": t.DestinationAccountID.String(),
		"amount":        t.Amount.String(),
		"fee":           result.Fee.String(),
	}).Info("Ledger.ExecuteTransfer.Committed")

	e.notify(ctx, events.Event{
		ID:             t.ID,
		Kind:           events.KindTransferExecuted,
		AccountID:      t.OriginAccountID,
		CounterpartyID: uuid.NullUUID{UUID: t.DestinationAccountID, Valid: true},
		Amount:         t.Amount,
		Fee:            result.Fee,
		IdempotencyKey: t.IdempotencyKey,
		OccurredAt:     t.CreatedAt,
	})
	return result, nil
}

func (e *Engine) executeTransfer(ctx context.Context, w *storage.Writer, cmd TransferCommand, chargedFee decimal.Decimal) (*TransferResult, error) {
	origin, err := w.Accounts.FindByIDForUpdate(ctx, cmd.OriginID)
	if err != nil {
		return nil, storageFailure("find origin account", err)
	}
	if err := checkActive(origin, cmd.OriginID); err != nil {
		return nil, err
	}

	destination, err := resolveDestination(ctx, w.Accounts, cmd)
	if err != nil {
		return nil, err
	}

	if !cmd.Amount.IsPositive() {
		return nil, wrapID(ErrInvalidAmount, cmd.Amount.String())
	}
	if chargedFee.IsNegative() {
		return nil, wrapID(ErrInvalidAmount, "fee "+chargedFee.String())
	}
	if strings.TrimSpace(cmd.IdempotencyKey) == "" {
		return nil, wrapID(ErrInvalidRequest, "idempotency key is required")
	}
	if origin.ID == destination.ID {
		return nil, wrapID(ErrInvalidAccount, "origin and destination are the same account")
	}

	existing, err := w.Transfers.FindByIdempotencyKey(ctx, origin.ID, cmd.IdempotencyKey)
	if err != nil {
		return nil, storageFailure("find transfer", err)
	}
	if existing != nil {
		return replayTransfer(ctx, w.Movements, w.Fees, existing)
	}

	balance, err := balanceOf(ctx, w.Movements, origin.ID)
	if err != nil {
		return nil, err
	}
	if balance.LessThan(cmd.Amount.Add(chargedFee)) {
		return nil, wrapID(ErrInsufficientFunds, origin.ID.String())
	}

	t, err := w.Transfers.Insert(ctx, &transfer.TransferCreate{
		OriginAccountID:      origin.ID,
		DestinationAccountID: destination.ID,
		IdempotencyKey:       cmd.IdempotencyKey,
		Amount:               cmd.Amount,
	})
	if err != nil {
		return nil, storageFailure("insert transfer", err)
	}

	debit, err := w.Movements.Insert(ctx, &movement.MovementCreate{
		AccountID:      origin.ID,
		TransferID:     omit.From(t.ID),
		IdempotencyKey: DebitLegKey(origin.ID, cmd.IdempotencyKey),
		Amount:         cmd.Amount,
		Direction:      movement.DirectionDebit,
	})
	if err != nil {
		return nil, storageFailure("insert debit leg", err)
	}

	credit, err := w.Movements.Insert(ctx, &movement.MovementCreate{
		AccountID:      destination.ID,
		TransferID:     omit.From(t.ID),
		IdempotencyKey: CreditLegKey(origin.ID, cmd.IdempotencyKey),
		Amount:         cmd.Amount,
		Direction:      movement.DirectionCredit,
	})
	if err != nil {
		return nil, storageFailure("insert credit leg", err)
	}

	result := &TransferResult{
		TransferID:       t.ID,
		DebitMovementID:  debit.ID,
		CreditMovementID: credit.ID,
		Fee:              decimal.Zero,
		Transfer:         t,
	}

	if chargedFee.IsPositive() {
		f, err := w.Fees.Insert(ctx, &fee.FeeCreate{
			AccountID:  origin.ID,
			TransferID: t.ID,
			Amount:     chargedFee,
		})
		if err != nil {
			return nil, storageFailure("insert fee", err)
		}
		result.FeeID = uuid.NullUUID{UUID: f.ID, Valid: true}
		result.Fee = f.Amount
	}

	return result, nil
}

func resolveDestination(ctx context.Context, accounts account.IAccountReader, cmd TransferCommand) (*account.Account, error) {
	var (
		destination *account.Account
		ref         string
		err         error
	)
	switch {
	case cmd.DestinationID != uuid.Nil:
		ref = cmd.DestinationID.String()
		destination, err = accounts.FindByID(ctx, cmd.DestinationID)
	case cmd.DestinationNumber > 0:
		ref = strconv.FormatInt(cmd.DestinationNumber, 10)
		destination, err = accounts.FindByNumber(ctx, cmd.DestinationNumber)
	default:
		return nil, wrapID(ErrInvalidAccount, "destination account is required")
	}
	if err != nil {
		return nil, storageFailure("find destination account", err)
	}
	if destination == nil {
		return nil, wrapID(ErrAccountNotFound, ref)
	}
	if !destination.Active {
		return nil, wrapID(ErrAccountInactive, ref)
	}
	return destination, nil
}

func replayTransfer(ctx context.Context, movements movement.IMovementReader, fees fee.IFeeReader, t *transfer.Transfer) (*TransferResult, error) {
	result := &TransferResult{
		TransferID: t.ID,
		Fee:        decimal.Zero,
		Replayed:   true,
		Transfer:   t,
	}

	legs, err := movements.ListByTransfer(ctx, t.ID)
	if err != nil {
		return nil, storageFailure("list transfer legs", err)
	}
	for _, leg := range legs {
		switch leg.Direction {
		case movement.DirectionDebit:
			result.DebitMovementID = leg.ID
		case movement.DirectionCredit:
			result.CreditMovementID = leg.ID
		}
	}

	f, err := fees.FindByTransfer(ctx, t.ID)
	if err != nil {
		return nil, storageFailure("find transfer fee", err)
	}
	if f != nil {
		result.FeeID = uuid.NullUUID{UUID: f.ID, Valid: true}
		result.Fee = f.Amount
	}
	return result, nil
}

func (e *Engine) lookupTransfer(ctx context.Context, originID uuid.UUID, key string) (*TransferResult, error) {
	reader := e.backend.Reader()
	existing, err := reader.Transfers.FindByIdempotencyKey(ctx, originID, key)
	if err != nil || existing == nil {
		return nil, err
	}
	return replayTransfer(ctx, reader.Movements, reader.Fees, existing)
}
