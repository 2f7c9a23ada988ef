package transfer

import (
	"context"

	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"

	"github.com/carson-networks/ledger-server/internal/storage/dberr"
)

var _ ITransferWriter = (*Writer)(nil)

type Writer struct {
	tx bob.Executor
	Reader
}

func NewWriter(tx bob.Executor) *Writer {
	return &Writer{
		tx: tx,
		Reader: Reader{
			exec: tx,
		},
	}
}

func (w *Writer) Insert(ctx context.Context, create *TransferCreate) (*Transfer, error) {
	row := FromCreate(create)

	q := psql.Insert(
		im.Into(tableName, "id", "origin_account_id", "destination_account_id", "idempotency_key", "amount", "created_at"),
		im.Values(
			psql.Arg(row.ID),
			psql.Arg(row.OriginAccountID),
			psql.Arg(row.DestinationAccountID),
			psql.Arg(row.IdempotencyKey),
			psql.Arg(row.Amount),
			psql.Arg(row.CreatedAt),
		),
	)
	if _, err := bob.Exec(ctx, w.tx, q); err != nil {
		return nil, dberr.FromPostgres(err)
	}
	return row, nil
}
