package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jnst/event-records/internal/db"
)

type txKey struct{}

// TransactionManagerImpl implements TransactionManager using PostgreSQL.
type TransactionManagerImpl struct {
	pool *pgxpool.Pool
}

// NewTransactionManagerImpl creates a new TransactionManager implementation.
func NewTransactionManagerImpl(pool *pgxpool.Pool) TransactionManager {
	return &TransactionManagerImpl{pool: pool}
}

// WithTransaction executes fn within a database transaction carried by the context.
// A call made while a transaction is already open joins it.
func (tm *TransactionManagerImpl) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx)
	}

	tx, err := tm.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(context.WithValue(ctx, txKey{}, tx)); err != nil {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil {
			return fmt.Errorf("transaction failed: %w, rollback failed: %v", err, rollbackErr)
		}

		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// queriesFor binds q to the transaction in ctx, if there is one.
func queriesFor(ctx context.Context, q *db.Queries) *db.Queries {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return q.WithTx(tx)
	}

	return q
}
