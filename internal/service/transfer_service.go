package service

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/carson-networks/ledger-server/internal/ledger"
	"github.com/carson-networks/ledger-server/internal/storage"
	"github.com/carson-networks/ledger-server/internal/storage/transfer"
)

// TransferService executes transfers and lists them per account.
type TransferService struct {
	backend storage.Backend
	engine  *ledger.Engine
}

// NewTransferService creates a new TransferService.
func NewTransferService(backend storage.Backend, engine *ledger.Engine) *TransferService {
	return &TransferService{backend: backend, engine: engine}
}

func (s *TransferService) Transfer(ctx context.Context, req TransferRequest) (*ledger.TransferResult, error) {
	return s.engine.ExecuteTransfer(ctx, ledger.TransferCommand{
		OriginID:          req.OriginID,
		DestinationNumber: req.DestinationNumber,
		IdempotencyKey:    req.IdempotencyKey,
		Amount:            req.Amount,
		Fee:               req.Fee,
	})
}

// ListTransfers returns a page of transfers where the account is the origin
// or the destination, newest first.
func (s *TransferService) ListTransfers(ctx context.Context, accountID uuid.UUID, cursor *StatementCursor) ([]Transfer, *StatementCursor, error) {
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

	rows, err := s.backend.Reader().Transfers.List(ctx, &transfer.TransferFilter{
		AccountID:       accountID,
		Limit:           limit,
		Offset:          offset,
		MaxCreationTime: maxCreationTime,
	})
	if err != nil {
		return nil, nil, storageFailure("list transfers", err)
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

	transfers := make([]Transfer, len(rows))
	for i, row := range rows {
		transfers[i] = transferFromStorage(row)
	}
	return transfers, nextCursor, nil
}
