package transfer

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/dialect"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/scan"

	"github.com/carson-networks/ledger-server/internal/storage/dberr"
)

const tableName = "transfers"

var columns = []any{"id", "origin_account_id", "destination_account_id", "idempotency_key", "amount", "created_at"}

var _ ITransferReader = (*Reader)(nil)

type Reader struct {
	exec bob.Executor
}

func NewReader(exec bob.Executor) *Reader {
	return &Reader{exec: exec}
}

func (r *Reader) FindByID(ctx context.Context, id uuid.UUID) (*Transfer, error) {
	return r.findOne(ctx, sm.Where(psql.Quote("id").EQ(psql.Arg(id))))
}

func (r *Reader) FindByIdempotencyKey(ctx context.Context, originID uuid.UUID, key string) (*Transfer, error) {
	return r.findOne(ctx,
		sm.Where(psql.Quote("origin_account_id").EQ(psql.Arg(originID))),
		sm.Where(psql.Quote("idempotency_key").EQ(psql.Arg(key))),
	)
}

func (r *Reader) List(ctx context.Context, filter *TransferFilter) ([]*Transfer, error) {
	queryMods := []bob.Mod[*dialect.SelectQuery]{
		sm.Columns(columns...),
		sm.From(tableName),
	}
	if filter != nil {
		queryMods = append(queryMods, sm.Where(psql.Or(
			psql.Quote("origin_account_id").EQ(psql.Arg(filter.AccountID)),
			psql.Quote("destination_account_id").EQ(psql.Arg(filter.AccountID)),
		)))
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
	out, err := bob.All(ctx, r.exec, psql.Select(queryMods...), scan.StructMapper[*Transfer]())
	return out, dberr.FromPostgres(err)
}

func (r *Reader) findOne(ctx context.Context, queryMods ...bob.Mod[*dialect.SelectQuery]) (*Transfer, error) {
	queryMods = append([]bob.Mod[*dialect.SelectQuery]{
		sm.Columns(columns...),
		sm.From(tableName),
	}, queryMods...)

	row, err := bob.One(ctx, r.exec, psql.Select(queryMods...), scan.StructMapper[*Transfer]())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dberr.FromPostgres(err)
	}
	return row, nil
}
