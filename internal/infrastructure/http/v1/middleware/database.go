package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"milltrack/internal/core/dbctx"
	"milltrack/internal/infrastructure/storage/postgres"
)

// Database middleware injects the database pool and a TxManager into the
// request context. This middleware MUST run before any database operations:
// repositories and services resolve their querier from context.
//
// Flow:
// 1. Wrap the shared pool and TxManager into the request context
// 2. Handlers and services read them back via dbctx
func Database(pool *pgxpool.Pool, txManager *postgres.TxManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		ctx = dbctx.WithPool(ctx, pool)
		ctx = dbctx.WithTxManager(ctx, txManager)

		c.Request = c.Request.WithContext(ctx)

		// Also set in Gin context for handlers that use c.Get()
		c.Set("tx_manager", txManager)

		c.Next()
	}
}

// GetTxManagerFromContext retrieves TxManager from Gin context.
// Returns nil if not found. Use this in handlers.
func GetTxManagerFromContext(c *gin.Context) *postgres.TxManager {
	if v, exists := c.Get("tx_manager"); exists {
		if txm, ok := v.(*postgres.TxManager); ok {
			return txm
		}
	}
	return nil
}
