package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"sdnscreen/internal/platform/config"
	"sdnscreen/internal/platform/postgres"
	"sdnscreen/internal/platform/redis"
)

// Open builds the configured backend, wrapped in the Redis entry cache when
// one is configured. The returned close func releases every connection.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (Store, func() error, error) {
	var (
		s       Store
		closers []func() error
	)
	switch cfg.Store.Backend {
	case config.StoreMemory:
		s = NewMemory()
	case config.StoreBolt:
		s = NewBolt(cfg.Store.BoltPath)
	case config.StorePostgres:
		db, err := postgres.Open(ctx, cfg.Store.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		pg := NewPostgres(db)
		if err := pg.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("migrate snapshot schema: %w", err)
		}
		s = pg
		closers = append(closers, db.Close)
	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}

	closeAll := func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	client, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		_ = closeAll()
		return nil, nil, err
	}
	if client != nil {
		closers = append(closers, client.Close)
		s = NewCachedStore(s, NewRedisKV(client.Client), cfg.Redis.EntryTTL, logger)
		logger.InfoContext(ctx, "entry cache enabled", "ttl", cfg.Redis.EntryTTL)
	}
	return s, closeAll, nil
}
