package storage

import (
	"context"
	"database/sql"
	"errors"

	_ "github.com/lib/pq"
	"github.com/stephenafamo/bob"

	"github.com/carson-networks/ledger-server/internal/config"
	"github.com/carson-networks/ledger-server/internal/storage/dberr"
)

// Session is one open transaction.
type Session interface {
	Writer() *Writer
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// Backend is a transactional store the ledger runs against.
type Backend interface {
	Reader() *Reader
	BeginSession(ctx context.Context) (Session, error)
}

var _ Backend = (*Storage)(nil)

// Storage is the PostgreSQL backend.
type Storage struct {
	sqlDB     *sql.DB
	DB        bob.DB
	isolation sql.IsolationLevel
	reader    *Reader
}

func NewStorage(cfg *config.PostgresConfig) (*Storage, error) {
	isolation, err := cfg.IsolationLevel()
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, err
	}

	return NewStorageFromDB(db, isolation), nil
}

func NewStorageFromDB(db *sql.DB, isolation sql.IsolationLevel) *Storage {
	bobDB := bob.NewDB(db)
	return &Storage{
		sqlDB:     db,
		DB:        bobDB,
		isolation: isolation,
		reader:    NewReader(bobDB),
	}
}

func (s *Storage) Reader() *Reader {
	return s.reader
}

func (s *Storage) BeginSession(ctx context.Context) (Session, error) {
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{Isolation: s.isolation})
	if err != nil {
		return nil, err
	}
	return &pgSession{tx: tx, writer: NewWriter(tx)}, nil
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

func (s *Storage) Close() error {
	return s.sqlDB.Close()
}

type pgSession struct {
	tx     bob.Tx
	writer *Writer
}

func (p *pgSession) Writer() *Writer {
	return p.writer
}

// Commit reports a serialization failure raised at commit time as
// dberr.ErrConflict, like the same failure raised by a statement.
func (p *pgSession) Commit(ctx context.Context) error {
	return dberr.FromPostgres(p.tx.Commit(ctx))
}

func (p *pgSession) Rollback(ctx context.Context) error {
	err := p.tx.Rollback(ctx)
	if errors.Is(err, sql.ErrTxDone) {
		return nil
	}
	return err
}
