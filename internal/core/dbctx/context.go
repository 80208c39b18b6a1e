// Package dbctx carries per-request database handles through context.
// The Database middleware injects the pool and TxManager once per request;
// repositories and services read them back without wiring-time coupling.
package dbctx

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"milltrack/internal/core/tx"
)

// Context keys for database-related values.
type ctxKey int

const (
	poolKey ctxKey = iota
	txManagerKey
)

// Errors for context operations.
var (
	ErrNoPoolInContext = errors.New("database pool not found in context")
	ErrNoTxManager     = errors.New("transaction manager not found in context")
)

// --- Pool ---

// WithPool stores the database pool in context.
func WithPool(ctx context.Context, pool *pgxpool.Pool) context.Context {
	return context.WithValue(ctx, poolKey, pool)
}

// GetPool retrieves the database pool from context.
func GetPool(ctx context.Context) (*pgxpool.Pool, error) {
	pool, ok := ctx.Value(poolKey).(*pgxpool.Pool)
	if !ok || pool == nil {
		return nil, ErrNoPoolInContext
	}
	return pool, nil
}

// MustGetPool retrieves the database pool or panics.
// Use in places where a missing pool is a programming error.
func MustGetPool(ctx context.Context) *pgxpool.Pool {
	pool, err := GetPool(ctx)
	if err != nil {
		panic("database pool not in context: " + err.Error())
	}
	return pool
}

// --- TxManager ---

// WithTxManager stores the TxManager in context.
func WithTxManager(ctx context.Context, txm tx.Manager) context.Context {
	return context.WithValue(ctx, txManagerKey, txm)
}

// GetTxManager retrieves the TxManager from context.
func GetTxManager(ctx context.Context) (tx.Manager, error) {
	txm, ok := ctx.Value(txManagerKey).(tx.Manager)
	if !ok || txm == nil {
		return nil, ErrNoTxManager
	}
	return txm, nil
}

// MustGetTxManager retrieves the TxManager or panics.
// Use in places where a missing TxManager is a programming error.
func MustGetTxManager(ctx context.Context) tx.Manager {
	txm, err := GetTxManager(ctx)
	if err != nil {
		panic("TxManager not in context: " + err.Error())
	}
	return txm
}
