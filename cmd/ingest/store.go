package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/campus-feed-etl-service/internal/adapter/memstore"
	"github.com/couchcryptid/campus-feed-etl-service/internal/adapter/postgres"
	"github.com/couchcryptid/campus-feed-etl-service/internal/adapter/redis"
	"github.com/couchcryptid/campus-feed-etl-service/internal/config"
	"github.com/couchcryptid/campus-feed-etl-service/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
)

const (
	connectAttempts   = 5
	connectMaxBackoff = 5 * time.Second
)

// documentStore is a pipeline.Store the process owns and must close.
type documentStore interface {
	pipeline.Store
	sharedobs.ReadinessChecker
	Close() error
}

// openStore connects the configured backend. The store usually starts
// alongside the service, so connection errors are retried with backoff.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (documentStore, error) {
	connect := func(ctx context.Context) (documentStore, error) {
		switch cfg.StoreBackend {
		case config.StoreRedis:
			return redis.New(ctx, redis.Options{
				Addr:     cfg.RedisAddr,
				Password: cfg.RedisPassword,
				DB:       cfg.RedisDB,
				Prefix:   cfg.RedisKeyPrefix,
			})
		case config.StorePostgres:
			s, err := postgres.Open(ctx, cfg.PostgresDSN)
			if err != nil {
				return nil, err
			}
			if err := s.EnsureSchema(ctx); err != nil {
				_ = s.Close()
				return nil, err
			}
			return s, nil
		case config.StoreMemory:
			logger.Warn("using in-memory store, documents are lost on exit")
			return memoryStore{memstore.New()}, nil
		default:
			return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
		}
	}

	backoff := 200 * time.Millisecond
	var lastErr error
	for attempt := 1; attempt <= connectAttempts; attempt++ {
		store, err := connect(ctx)
		if err == nil {
			logger.Info("store connected", "backend", cfg.StoreBackend)
			return store, nil
		}
		lastErr = err
		logger.Warn("store connection failed", "backend", cfg.StoreBackend, "attempt", attempt, "error", err)
		if !retry.SleepWithContext(ctx, backoff) {
			return nil, ctx.Err()
		}
		backoff = retry.NextBackoff(backoff, connectMaxBackoff)
	}
	return nil, fmt.Errorf("connect %s store after %d attempts: %w", cfg.StoreBackend, connectAttempts, lastErr)
}

// memoryStore gives the in-process store the lifecycle of a real backend.
type memoryStore struct {
	*memstore.Store
}

func (memoryStore) CheckReadiness(context.Context) error { return nil }
func (memoryStore) Close() error                         { return nil }

// readiness reports ready once the store answers and a cycle has written.
type readiness struct {
	runner *pipeline.Runner
	store  sharedobs.ReadinessChecker
}

func (r readiness) CheckReadiness(ctx context.Context) error {
	if err := r.store.CheckReadiness(ctx); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	return r.runner.CheckReadiness(ctx)
}
