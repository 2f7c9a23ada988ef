package movement

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"

	"github.com/carson-networks/ledger-server/internal/storage/dberr"
)

const tableName = "movements"

var columns = []any{"id", "account_id", "transfer_id", "idempotency_key", "amount", "direction", "created_at"}

var _ IMovementReader = (*Reader)(nil)

type Reader struct {
	exec bob.Executor
}

func NewReader(exec bob.Executor) *Reader {
	return &Reader{exec: exec}
}

func (r *Reader) FindByIdempotencyKey(ctx context.Context, accountID uuid.UUID, key string) (*Movement, error) {
	q := psql.Select(
		sm.Columns(columns...),
		sm.From(tableName),
		sm.Where(psql.Quote("account_id").EQ(psql.Arg(accountID))),
		sm.Where(psql.Quote("idempotency_key").EQ(psql.Arg(key))),
	)
	row, err := bob.One(ctx, r.exec, q, scan.StructMapper[*Movement]())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dberr.FromPostgres(err)
	}
	return row, nil
}

func (r *Reader) ListByTransfer(ctx context.Context, transferID uuid.UUID) ([]*Movement, error) {
	q := psql.Select(
		sm.Columns(columns...),
		sm.From(tableName),
		sm.Where(psql.Quote("transfer_id").EQ(psql.Arg(transferID))),
		sm.OrderBy(psql.Quote("direction")).Desc(),
	)
	out, err := bob.All(ctx, r.exec, q, scan.StructMapper[*Movement]())
	return out, dberr.FromPostgres(err)
}

func (r *Reader) NetAmount(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	q := psql.Select(
		sm.Columns(psql.Raw("COALESCE(SUM(CASE WHEN direction = 'C' THEN amount ELSE -amount END), 0)")),
		sm.From(tableName),
		sm.Where(psql.Quote("account_id").EQ(psql.Arg(accountID))),
	)
	out, err := bob.One(ctx, r.exec, q, scan.SingleColumnMapper[decimal.Decimal])
	return out, dberr.FromPostgres(err)
}

func (r *Reader) Balance(ctx context.Context, accountID uuid.UUID) (decimal.Decimal, error) {
	q := psql.Select(
		sm.Columns(psql.Raw(
			"(SELECT COALESCE(SUM(CASE WHEN direction = 'C' THEN amount ELSE -amount END), 0) FROM movements WHERE account_id = ?)"+
				" - (SELECT COALESCE(SUM(amount), 0) FROM fees WHERE account_id = ?)",
			accountID, accountID,
		)),
	)
	out, err := bob.One(ctx, r.exec, q, scan.SingleColumnMapper[decimal.Decimal])
	return out, dberr.FromPostgres(err)
}

func (r *Reader) List(ctx context.Context, filter *MovementFilter) ([]*Movement, error) {
	queryMods := []bob.Mod[*dialect.SelectQuery]{
		sm.Columns(columns...),
		sm.From(tableName),
	}
	if filter != nil {
		queryMods = append(queryMods, sm.Where(psql.Quote("account_id").EQ(psql.Arg(filter.AccountID))))
		if filter.MaxCreationTime != nil {
			queryMods = append(queryMods, sm.Where(psql.Quote("created_at").LTE(psql.Arg(*filter.MaxCreationTime))))
		}
		if filter.Limit > 0 {
			queryMods = append(queryMods, sm.Limit(filter.Limit+1))
		}
		if filter.Offset > 0 {
			queryMods = append(queryMods, sm.Offset(filter.Offset))
		}
	}
	queryMods = append(queryMods,
		sm.OrderBy(psql.Quote("created_at")).Desc(),
		sm.OrderBy(psql.Quote("id")).Desc(),
	)
	out, err := bob.All(ctx, r.exec, psql.Select(queryMods...), scan.StructMapper[*Movement]())
	return out, dberr.FromPostgres(err)
}
