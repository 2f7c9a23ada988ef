package fee

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"

	"github.com/carson-networks/ledger-server/internal/storage/dberr"
)

const tableName = "fees"

var _ IFeeReader = (*Reader)(nil)

type Reader struct {
	exec bob.Executor
}

func NewReader(exec bob.Executor) *Reader {
	return &Reader{exec: exec}
}

func (r *Reader) SumByAccount(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	q := psql.Select(
		sm.Columns(psql.Raw("COALESCE(SUM(amount), 0)")),
		sm.From(tableName),
		sm.Where(psql.Quote("account_id").EQ(psql.Arg(accountID))),
	)
	out, err := bob.One(ctx, r.exec, q, scan.SingleColumnMapper[decimal.Decimal])
	return out, dberr.FromPostgres(err)
}

func (r *Reader) FindByTransfer(ctx context.Context, transferID uuid.UUID) (*Fee, error) {
	q := psql.Select(
		sm.Columns("id", "account_id", "transfer_id", "amount", "created_at"),
		sm.From(tableName),
		sm.Where(psql.Quote("transfer_id").EQ(psql.Arg(transferID))),
	)
	row, err := bob.One(ctx, r.exec, q, scan.StructMapper[*Fee]())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dberr.FromPostgres(err)
	}
	return row, nil
}
