package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type contextKey string

// DBTxKey carries the active transaction through a unit of work.
const DBTxKey contextKey = "db_tx"

// TxFromContext retrieves the transaction placed in ctx by WithTx, or
// nil when the caller is not inside a unit of work.
func TxFromContext(ctx context.Context) pgx.Tx {
	tx, _ := ctx.Value(DBTxKey).(pgx.Tx)
	return tx
}

// WithTx runs fn inside a single transaction. The transaction is placed
// in the context so that every repository reached through fn issues its
// statements on the same connection; fn returning an error rolls the
// whole unit of work back, otherwise it commits. Reconciliation calls
// rely on this boundary: a caller never observes a partially applied
// submission.
// TxRunner executes fn inside one unit of work. Services depend on
// this function type rather than on the pool so tests can substitute a
// pass-through runner.
type TxRunner func(ctx context.Context, fn func(ctx context.Context) error) error

// RunnerFor binds WithTx to a pool.
func RunnerFor(pool *pgxpool.Pool) TxRunner {
	return func(ctx context.Context, fn func(ctx context.Context) error) error {
		return WithTx(ctx, pool, fn)
	}
}

func WithTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context) error) error {
	if TxFromContext(ctx) != nil {
		// Already inside a unit of work; join it.
		return fn(ctx)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}

	if err := fn(context.WithValue(ctx, DBTxKey, tx)); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}
