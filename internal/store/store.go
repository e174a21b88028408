// Package store persists the content index: settings, the n-gram lexicon,
// learning objects, their sentences and the question/response history.
//
// Every lookup-or-insert follows the same get-or-create pattern keyed by the
// row's natural identity (POS label, n-gram word, object module/URL, sentence
// text). Inserts race-safely rely on ON CONFLICT so concurrent passes converge
// on the same row.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/openlms/ask4summary/internal/log"
)

// ErrNotFound indicates the requested row does not exist.
var ErrNotFound = errors.New("not found")

// DB is the subset of pgxpool.Pool the store uses. Consumers in tests may
// substitute a lighter implementation.
type DB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store provides PostgreSQL-backed persistence for the ingestion and
// answering pipeline. It is safe for concurrent use.
type Store struct {
	db     DB
	logger log.Logger
}

// New creates a Store backed by the given database handle.
func New(db DB, logger log.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// NewPool connects a pgx pool with sane timeouts applied.
func NewPool(ctx context.Context, connString string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, err
	}
	cfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}
