// Package v1 provides HTTP API version 1.
package v1

import (
	"time"

	"github.com/gin-gonic/gin"

	"milltrack/internal/core/numerator"
	"milltrack/internal/domain/auth"
	"milltrack/internal/domain/catalogs/currency"
	"milltrack/internal/domain/catalogs/item"
	"milltrack/internal/domain/catalogs/itemprice"
	"milltrack/internal/domain/catalogs/supplier"
	"milltrack/internal/domain/catalogs/unit"
	"milltrack/internal/domain/ledger"
	"milltrack/internal/domain/masterdata"
	"milltrack/internal/domain/reports"
	"milltrack/internal/infrastructure/http/v1/handlers"
	"milltrack/internal/infrastructure/http/v1/middleware"
	"milltrack/internal/infrastructure/storage/postgres"
	"milltrack/internal/infrastructure/storage/postgres/catalog_repo"
	"milltrack/internal/infrastructure/storage/postgres/report_repo"
	"milltrack/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the application database connection pool
	Pool *postgres.Pool

	// TxManager runs transactions on the pool
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// AuthService for authentication endpoints
	AuthService *auth.Service

	// LedgerService is the lifecycle manager shared by all ledgers
	LedgerService *ledger.Service

	// LedgerRegistry holds the ledger configurations
	LedgerRegistry *ledger.Registry

	// ItemResolver resolves item master data (shared with the ledger engine)
	ItemResolver *masterdata.Resolver

	// Numerator for catalog code generation
	Numerator numerator.Generator

	// IdempotencyTTL enables idempotency middleware when positive
	IdempotencyTTL time.Duration
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	// Set Gin mode based on environment
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth required)
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// API v1
	v1 := router.Group("/api/v1")
	{
		// Auth routes - need Database middleware BEFORE auth
		registerAuthRoutes(v1, cfg)

		// Protected endpoints - Database runs first, then Auth
		protected := v1.Group("")
		protected.Use(middleware.Database(cfg.Pool.Unwrap(), cfg.TxManager)) // 1. Attach DB pool + TxManager
		protected.Use(middleware.Auth(cfg.JWTValidator))                     // 2. Validate JWT, stamp user onto context

		// Apply idempotency middleware for mutating operations
		if cfg.IdempotencyTTL > 0 {
			store := postgres.NewIdempotencyStore(cfg.TxManager, cfg.IdempotencyTTL)
			protected.Use(middleware.Idempotency(store))
		}

		// Register entity routes
		registerCatalogRoutes(protected, cfg)
		registerLedgerRoutes(protected, cfg)
		registerReportRoutes(protected, cfg)
	}

	return router
}

// registerAuthRoutes registers authentication endpoints.
func registerAuthRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	if cfg.AuthService == nil {
		return
	}

	baseHandler := handlers.NewBaseHandler()
	authHandler := handlers.NewAuthHandler(baseHandler, cfg.AuthService)

	// Public auth endpoints (no JWT required, but they do hit the database)
	publicAuth := rg.Group("/auth")
	publicAuth.Use(middleware.Database(cfg.Pool.Unwrap(), cfg.TxManager))

	// Protected auth endpoints (JWT required)
	protectedAuth := rg.Group("/auth")
	protectedAuth.Use(middleware.Database(cfg.Pool.Unwrap(), cfg.TxManager))
	protectedAuth.Use(middleware.Auth(cfg.JWTValidator))

	authHandler.RegisterRoutes(publicAuth, protectedAuth)
}

// registerCatalogRoutes registers master data catalog endpoints.
func registerCatalogRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()

	// Note: Repos and services are created once but TxManager is obtained from context per-request

	// --- ITEMS ---
	{
		repo := catalog_repo.NewItemRepo()
		service := item.NewService(repo, cfg.Numerator, cfg.ItemResolver)
		handler := handlers.NewItemHandler(baseHandler, service)
		RegisterCatalogRoutes(rg.Group("/items"), handler, "catalog")
	}

	// --- SUPPLIERS ---
	{
		repo := catalog_repo.NewSupplierRepo()
		service := supplier.NewService(repo, cfg.Numerator)
		handler := handlers.NewSupplierHandler(baseHandler, service)
		suppliers := rg.Group("/suppliers")
		suppliers.GET("/by-tax-id", middleware.RequirePermission("catalog:read"), handler.GetByTaxID)
		RegisterCatalogRoutes(suppliers, handler, "catalog")
	}

	// --- UNITS ---
	{
		repo := catalog_repo.NewUnitRepo()
		service := unit.NewService(repo, cfg.Numerator)
		handler := handlers.NewUnitHandler(baseHandler, service)
		RegisterCatalogRoutes(rg.Group("/units"), handler, "catalog")
	}

	// --- CURRENCIES ---
	{
		repo := catalog_repo.NewCurrencyRepo()
		service := currency.NewService(repo)
		handler := handlers.NewCurrencyHandler(baseHandler, service)
		RegisterCatalogRoutes(rg.Group("/currencies"), handler, "catalog")
	}

	// --- ITEM PRICES ---
	{
		repo := catalog_repo.NewItemPriceRepo()
		service := itemprice.NewService(repo, cfg.Numerator)
		handler := handlers.NewItemPriceHandler(baseHandler, service)
		prices := rg.Group("/item-prices")
		prices.GET("/current", middleware.RequirePermission("catalog:read"), handler.GetCurrent)
		prices.GET("/history", middleware.RequirePermission("catalog:read"), handler.ListForItem)
		RegisterCatalogRoutes(prices, handler, "catalog")
	}
}

// registerLedgerRoutes registers the batch ledger endpoints. All four
// ledgers share one handler; the :ledger path segment selects the instance.
func registerLedgerRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()
	handler := handlers.NewLedgerHandler(baseHandler, cfg.LedgerService, cfg.LedgerRegistry)

	ledgers := rg.Group("/ledgers")
	ledgers.GET("", middleware.RequirePermission("ledger:read"), handler.ListLedgers)
	RegisterLedgerRoutes(ledgers, handler)
}

// registerReportRoutes registers report endpoints.
func registerReportRoutes(rg *gin.RouterGroup, cfg RouterConfig) {
	baseHandler := handlers.NewBaseHandler()

	reportRepo := report_repo.NewReportRepo()
	reportService := reports.NewService(reportRepo, cfg.LedgerRegistry)
	reportHandler := handlers.NewReportsHandler(baseHandler, reportService)

	reportsGroup := rg.Group("/reports")
	reportsGroup.Use(middleware.RequirePermission("report:read"))
	reportHandler.RegisterRoutes(reportsGroup)
}
