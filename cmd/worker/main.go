// Package main is the entry point for the milltrack background worker.
// It relays outbox events and prunes expired auth and idempotency rows.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"milltrack/internal/core/dbctx"
	"milltrack/internal/infrastructure/storage/postgres"
	"milltrack/internal/infrastructure/storage/postgres/auth_repo"
	"milltrack/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       getEnv("LOG_LEVEL", "info"),
		Development: getEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	log.Info("starting milltrack worker")

	pool, err := pgxpool.New(ctx, mustEnv("DATABASE_URL"))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalw("failed to ping database", "error", err)
	}

	worker := NewWorker(pool, WorkerConfig{
		BatchSize:      getEnvInt("OUTBOX_BATCH_SIZE", 100),
		PollInterval:   getEnvDuration("OUTBOX_POLL_INTERVAL", 5*time.Second),
		IdempotencyTTL: getEnvDuration("IDEMPOTENCY_TTL", 24*time.Hour),
	}, log)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		worker.Run(ctx)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

// WorkerConfig holds worker tuning knobs.
type WorkerConfig struct {
	BatchSize      int
	PollInterval   time.Duration
	IdempotencyTTL time.Duration
}

// Worker polls the outbox and runs hourly maintenance.
type Worker struct {
	txm      *postgres.TxManager
	relay    *postgres.OutboxRelay
	idemKeys *postgres.IdempotencyStore
	tokens   *auth_repo.TokenRepo
	cfg      WorkerConfig
	log      *logger.Logger
}

func NewWorker(pool *pgxpool.Pool, cfg WorkerConfig, log *logger.Logger) *Worker {
	txManager := postgres.NewTxManagerFromRawPool(pool)
	return &Worker{
		txm:      txManager,
		relay:    postgres.NewOutboxRelay(pool, cfg.BatchSize, NewLogHandler(log)),
		idemKeys: postgres.NewIdempotencyStore(txManager, cfg.IdempotencyTTL),
		tokens:   auth_repo.NewTokenRepo(),
		cfg:      cfg,
		log:      log.WithComponent("worker"),
	}
}

// Run loops until the context is cancelled.
func (w *Worker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	cleanupTicker := time.NewTicker(1 * time.Hour)
	defer cleanupTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.relayOutbox(ctx)
		case <-cleanupTicker.C:
			w.cleanupTokens(ctx)
			w.cleanupIdempotency(ctx)
			w.moveFailedEvents(ctx)
		}
	}
}

func (w *Worker) relayOutbox(ctx context.Context) {
	processed, err := w.relay.ProcessBatch(ctx)
	if err != nil {
		w.log.Errorw("outbox batch failed", "error", err)
		return
	}
	if processed > 0 {
		w.log.Debugw("relayed outbox batch", "count", processed)
	}
}

func (w *Worker) cleanupTokens(ctx context.Context) {
	// Repositories resolve their querier from context; outside an HTTP
	// request the worker has to plant the TxManager itself.
	deleted, err := w.tokens.CleanupExpiredTokens(dbctx.WithTxManager(ctx, w.txm))
	if err != nil {
		w.log.Warnw("refresh token cleanup failed", "error", err)
		return
	}

	if deleted > 0 {
		w.log.Infow("cleaned up expired refresh tokens", "count", deleted)
	}
}

func (w *Worker) cleanupIdempotency(ctx context.Context) {
	deleted, err := w.idemKeys.CleanupExpired(ctx)
	if err != nil {
		w.log.Warnw("idempotency cleanup failed", "error", err)
		return
	}

	if deleted > 0 {
		w.log.Infow("cleaned up idempotency keys", "count", deleted)
	}
}

func (w *Worker) moveFailedEvents(ctx context.Context) {
	moved, err := w.relay.MoveToDLQ(ctx)
	if err != nil {
		w.log.Warnw("outbox DLQ move failed", "error", err)
		return
	}

	if moved > 0 {
		w.log.Warnw("moved failed outbox events to DLQ", "count", moved)
	}
}

// LogHandler acknowledges outbox messages by logging them. It stands in
// for a broker publisher; swapping in a real one means implementing
// postgres.OutboxHandler.
type LogHandler struct {
	log *logger.Logger
}

func NewLogHandler(log *logger.Logger) *LogHandler {
	return &LogHandler{log: log.WithComponent("outbox")}
}

func (h *LogHandler) Handle(ctx context.Context, msg *postgres.OutboxMessage) error {
	h.log.Infow("event published",
		"event_type", msg.EventType,
		"aggregate_type", msg.AggregateType,
		"aggregate_id", msg.AggregateID,
	)
	return nil
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

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var result int
		if _, err := fmt.Sscanf(value, "%d", &result); err == nil {
			return result
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
