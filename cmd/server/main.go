// Package main is the entry point for the milltrack API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"milltrack/internal/domain/auth"
	"milltrack/internal/domain/ledger"
	"milltrack/internal/domain/masterdata"
	"milltrack/internal/infrastructure/cache"
	v1 "milltrack/internal/infrastructure/http/v1"
	"milltrack/internal/infrastructure/numerator"
	"milltrack/internal/infrastructure/storage/postgres"
	"milltrack/internal/infrastructure/storage/postgres/auth_repo"
	"milltrack/internal/infrastructure/storage/postgres/catalog_repo"
	"milltrack/internal/infrastructure/storage/postgres/ledger_repo"
	"milltrack/pkg/logger"
)

func main() {
	// Initialize logger
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)
	log.Info("starting milltrack server")

	// --- Database connection ---
	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(mustEnv("DATABASE_URL")))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	txManager := postgres.NewTxManager(pool)
	txManager.SetReadTimeout(getEnvDuration("STATEMENT_TIMEOUT_READ", 15*time.Second))

	// --- Lookup cache (items + feature flags via LISTEN/NOTIFY) ---
	lookupCache := cache.NewLookupCache(pool.Unwrap())
	lookupCache.SetItemTTL(getEnvDuration("ITEM_CACHE_TTL", 5*time.Minute))
	lookupCache.SetFlagRefreshInterval(getEnvDuration("FLAG_CACHE_TTL", 30*time.Second))
	if err := lookupCache.Start(ctx); err != nil {
		log.Fatalw("failed to start lookup cache", "error", err)
	}
	defer lookupCache.Stop()

	// --- Item resolver, shared by the ledger engine and the item catalog ---
	itemResolver := masterdata.NewResolver(
		catalog_repo.NewItemRepo(),
		lookupCache,
		postgres.NewCatalogNotifier(),
	)

	// --- JWT Service ---
	jwtConfig := auth.DefaultJWTConfig(mustEnv("JWT_SECRET"))
	jwtConfig.AccessTokenTTL = getEnvDuration("JWT_ACCESS_TTL", 15*time.Minute)
	jwtService := auth.NewJWTService(jwtConfig)

	// --- Auth Service ---
	// Note: Auth repos will get TxManager from context per-request
	authService := auth.NewService(
		auth_repo.NewUserRepo(),
		auth_repo.NewRoleRepo(),
		auth_repo.NewPermissionRepo(),
		auth_repo.NewTokenRepo(),
		nil, // TxManager will come from context
		jwtService,
		auth.DefaultServiceConfig(),
	)

	// --- Numerator Service ---
	numeratorService := numerator.NewFromContext()

	// --- Ledger engine ---
	registry := ledger.DefaultRegistry()

	auditService, err := postgres.NewAuditService(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit service", "error", err)
	}

	ledgerService := ledger.NewService(ledger.ServiceConfig{
		Registry:  registry,
		Repo:      ledger_repo.NewRecordRepo(),
		Items:     itemResolver,
		Numerator: numeratorService,
		Flags:     cache.NewCacheBackedFlags(lookupCache),
		Events:    postgres.NewLedgerEventPublisher(postgres.NewOutboxPublisher(txManager)),
		Auditor:   auditService,
	})
	log.Infow("ledger engine initialized", "ledgers", len(registry.Types()))

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:           pool,
		TxManager:      txManager,
		Logger:         log,
		JWTValidator:   jwtService,
		AuthService:    authService,
		LedgerService:  ledgerService,
		LedgerRegistry: registry,
		ItemResolver:   itemResolver,
		Numerator:      numeratorService,
		IdempotencyTTL: getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
	})

	// --- HTTP Server ---
	addr := getEnv("HTTP_ADDR", ":8080")
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Infow("server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func mustEnv(key string) string {
	value := os.Getenv(key)
	if value == "" {
		fmt.Printf("required environment variable %s not set\n", key)
		os.Exit(1)
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
