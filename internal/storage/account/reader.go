package account

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

const tableName = "accounts"

var columns = []any{"id", "number", "name", "password_hash", "salt", "active", "created_at"}

var _ IAccountReader = (*Reader)(nil)

type Reader struct {
	exec bob.Executor
}

func NewReader(exec bob.Executor) *Reader {
	return &Reader{exec: exec}
}

func (r *Reader) List(ctx context.Context, filter *AccountFilter) (*AccountListResult, error) {
	limit, offset := NormalizeFilter(filter)

	q := psql.Select(
		sm.Columns(columns...),
		sm.From(tableName),
		sm.OrderBy(psql.Quote("number")).Asc(),
		sm.Limit(limit+1),
		sm.Offset(offset),
	)
	rows, err := bob.All(ctx, r.exec, q, scan.StructMapper[*Account]())
	if err != nil {
		return nil, dberr.FromPostgres(err)
	}
	return Page(rows, limit, offset), nil
}

func (r *Reader) FindByID(ctx context.Context, id uuid.UUID) (*Account, error) {
	return r.findOne(ctx, sm.Where(psql.Quote("id").EQ(psql.Arg(id))))
}

func (r *Reader) FindByNumber(ctx context.Context, number int64) (*Account, error) {
	return r.findOne(ctx, sm.Where(psql.Quote("number").EQ(psql.Arg(number))))
}

func (r *Reader) findOne(ctx context.Context, queryMods ...bob.Mod[*dialect.SelectQuery]) (*Account, error) {
	queryMods = append([]bob.Mod[*dialect.SelectQuery]{
		sm.Columns(columns...),
		sm.From(tableName),
	}, queryMods...)

	row, err := bob.One(ctx, r.exec, psql.Select(queryMods...), scan.StructMapper[*Account]())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, dberr.FromPostgres(err)
	}
	return row, nil
}
