package account

import (
	"context"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stephenafamo/bob"
	"github.com/stephenafamo/bob/dialect/psql"
	"github.com/stephenafamo/bob/dialect/psql/im"
	"github.com/stephenafamo/bob/dialect/psql/sm"
	"github.com/stephenafamo/bob/dialect/psql/um"
	"github.com/stephenafamo/scan"

	"github.com/carson-networks/ledger-server/internal/storage/dberr"
)

var _ IAccountWriter = (*Writer)(nil)

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

// FindByIDForUpdate reads the account and holds its row lock until the
// surrounding transaction ends.
func (w *Writer) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*Account, error) {
	return w.findOne(ctx,
		sm.Where(psql.Quote("id").EQ(psql.Arg(id))),
		sm.ForUpdate(),
	)
}

// Create inserts the account and lets the database assign the next number
// from account_number_seq.
func (w *Writer) Create(ctx context.Context, create *AccountCreate) (*Account, error) {
	row := &Account{
		ID:           uuid.Must(uuid.NewV7()),
		Name:         create.Name,
		PasswordHash: create.PasswordHash,
		Salt:         create.Salt,
		Active:       true,
		CreatedAt:    time.Now().UTC().Truncate(time.Microsecond),
	}

	q := psql.Insert(
		im.Into(tableName, "id", "name", "password_hash", "salt", "active", "created_at"),
		im.Values(
			psql.Arg(row.ID),
			psql.Arg(row.Name),
			psql.Arg(row.PasswordHash),
			psql.Arg(row.Salt),
			psql.Arg(row.Active),
			psql.Arg(row.CreatedAt),
		),
		im.Returning("number"),
	)
	number, err := bob.One(ctx, w.tx, q, scan.SingleColumnMapper[int64])
	if err != nil {
		return nil, dberr.FromPostgres(err)
	}
	row.Number = number
	return row, nil
}

// UpdateStatus sets the active flag and reports whether a row was changed.
func (w *Writer) UpdateStatus(ctx context.Context, id uuid.UUID, active bool) (bool, error) {
	q := psql.Update(
		um.Table(tableName),
		um.SetCol("active").ToArg(active),
		um.Where(psql.Quote("id").EQ(psql.Arg(id))),
	)
	res, err := bob.Exec(ctx, w.tx, q)
	if err != nil {
		return false, dberr.FromPostgres(err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}
