package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// ErrUnavailable is returned when no pooled connection could be acquired in time.
var ErrUnavailable = errors.New("database unavailable")

// DBTX is satisfied by *pgxpool.Pool, pgx.Tx and pgxmock.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Beginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Transactor runs fn inside a single transaction. A non-nil error from fn rolls
// everything back.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, q DBTX) error) error
}

type TxRunner struct {
	db             Beginner
	acquireTimeout time.Duration
	log            *zap.Logger
}

func NewTxRunner(db Beginner, acquireTimeout time.Duration, log *zap.Logger) *TxRunner {
	return &TxRunner{
		db:             db,
		acquireTimeout: acquireTimeout,
		log:            log,
	}
}

func (r *TxRunner) WithinTx(ctx context.Context, fn func(ctx context.Context, q DBTX) error) error {
	tx, err := r.begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(ctx, tx); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
			r.log.Error("rollback failed", zap.Error(rbErr))
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (r *TxRunner) begin(ctx context.Context) (pgx.Tx, error) {
	beginCtx := ctx
	if r.acquireTimeout > 0 {
		var cancel context.CancelFunc
		beginCtx, cancel = context.WithTimeout(ctx, r.acquireTimeout)
		defer cancel()
	}

	tx, err := r.db.Begin(beginCtx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return nil, fmt.Errorf("%w: connection acquire timed out after %s", ErrUnavailable, r.acquireTimeout)
		}
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	return tx, nil
}
