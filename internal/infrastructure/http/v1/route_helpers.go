// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"milltrack/internal/infrastructure/http/v1/middleware"
)

// CatalogRouteHandler defines the interface for catalog handlers.
// All catalog handlers must implement these methods.
type CatalogRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	SetDeletionMark(c *gin.Context)
	GetTree(c *gin.Context)
}

// RegisterCatalogRoutes registers standard CRUD routes for a catalog.
// This eliminates the need to manually wire up routes for each catalog.
// Reads require "{permission}:read", mutations "{permission}:write".
//
// Usage:
//
//	repo := catalog_repo.NewCurrencyRepo()
//	service := currency.NewService(repo, cfg.Numerator)
//	handler := handlers.NewCurrencyHandler(baseHandler, service)
//	RegisterCatalogRoutes(catalogs.Group("/currencies"), handler, "catalog")
func RegisterCatalogRoutes(group *gin.RouterGroup, handler CatalogRouteHandler, permission string) {
	read := middleware.RequirePermission(permission + ":read")
	write := middleware.RequirePermission(permission + ":write")

	group.GET("", read, handler.List)
	group.POST("", write, handler.Create)
	group.GET("/:id", read, handler.Get)
	group.PUT("/:id", write, handler.Update)
	group.DELETE("/:id", write, handler.Delete)
	group.POST("/:id/deletion-mark", write, handler.SetDeletionMark)
	group.GET("/tree", read, handler.GetTree)
}

// LedgerRouteHandler defines the interface for the ledger handler.
type LedgerRouteHandler interface {
	List(c *gin.Context)
	Create(c *gin.Context)
	Get(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	AvailableBatches(c *gin.Context)
	BatchStock(c *gin.Context)
}

// RegisterLedgerRoutes registers record CRUD and batch lookups under
// /:ledger. Reads require "ledger:read", create/update "ledger:write",
// delete "ledger:delete".
func RegisterLedgerRoutes(group *gin.RouterGroup, handler LedgerRouteHandler) {
	read := middleware.RequirePermission("ledger:read")
	write := middleware.RequirePermission("ledger:write")
	del := middleware.RequirePermission("ledger:delete")

	ledger := group.Group("/:ledger")
	ledger.GET("/records", read, handler.List)
	ledger.POST("/records", write, handler.Create)
	ledger.GET("/records/:id", read, handler.Get)
	ledger.PUT("/records/:id", write, handler.Update)
	ledger.DELETE("/records/:id", del, handler.Delete)
	ledger.GET("/batches/available", read, handler.AvailableBatches)
	ledger.GET("/batches/:batch/stock", read, handler.BatchStock)
}
