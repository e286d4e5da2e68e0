package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/flipcoin/miniapp/internal/handler"
	"github.com/flipcoin/miniapp/internal/infra"
	"github.com/flipcoin/miniapp/internal/store"
)

// Backend is the opened profile-store backend plus what the process needs
// to health-check and release it.
type Backend struct {
	KV     store.KV
	Checks map[string]handler.HealthCheck
	Close  func()
}

// OpenStore opens the KV backend selected by STORE_DRIVER. The postgres
// driver applies pending migrations first.
func OpenStore(ctx context.Context, cfg *infra.Config, logger *slog.Logger) (*Backend, error) {
	switch cfg.StoreDriver {
	case infra.StoreMemory:
		logger.Warn("memory profile store: state is lost on exit")
		return &Backend{KV: store.NewMemoryKV(), Close: func() {}}, nil

	case infra.StoreFile:
		kv, err := store.NewFileKV(cfg.StorePath)
		if err != nil {
			return nil, err
		}
		logger.Info("file profile store", "path", kv.Path())
		return &Backend{KV: kv, Close: func() {}}, nil

	case infra.StoreRedis:
		client, err := infra.NewRedisClient(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("redis store: %w", err)
		}
		logger.Info("redis profile store", "namespace", cfg.StoreNamespace)
		return &Backend{
			KV: store.NewRedisKV(client, cfg.StoreNamespace),
			Checks: map[string]handler.HealthCheck{
				"redis": func(ctx context.Context) error { return client.Ping(ctx).Err() },
			},
			Close: func() { _ = client.Close() },
		}, nil

	case infra.StorePostgres:
		if err := infra.RunMigrations(cfg.DatabaseURL, logger); err != nil {
			return nil, fmt.Errorf("postgres store: %w", err)
		}
		pool, err := infra.NewPostgresPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("postgres store: %w", err)
		}
		logger.Info("postgres profile store", "namespace", cfg.StoreNamespace)
		return &Backend{
			KV: store.NewPostgresKV(pool, cfg.StoreNamespace),
			Checks: map[string]handler.HealthCheck{
				"postgres": func(ctx context.Context) error { return infra.HealthCheck(ctx, pool) },
			},
			Close: pool.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
