// Package bootstrap turns configuration into the live collaborators both
// binaries need: logger, repository and parked-sale cache.
package bootstrap

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"tillpoint/internal/cache"
	"tillpoint/internal/config"
	"tillpoint/internal/store"
	"tillpoint/internal/store/memory"
	"tillpoint/internal/store/sqlite"
	"tillpoint/internal/store/sqlstore"
)

func NewLogger(w io.Writer, format string, level string) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if strings.EqualFold(format, "json") {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(raw string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(raw))); err != nil {
		return slog.LevelInfo
	}
	return level
}

// OpenRepository connects the configured store. A configured database that
// cannot be reached is an error; there is no silent in-memory fallback.
func OpenRepository(ctx context.Context, cfg config.Config, logger *slog.Logger) (store.Repository, error) {
	switch cfg.StoreDriver {
	case config.DriverPostgres, config.DriverMySQL:
		dialect, err := sqlstore.ParseDialect(cfg.StoreDriver)
		if err != nil {
			return nil, err
		}
		s, err := sqlstore.Open(ctx, dialect, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("%s unavailable: %w", cfg.StoreDriver, err)
		}
		if err := s.Migrate(ctx); err != nil {
			_ = s.Close()
			return nil, err
		}
		logger.Info("repository ready", "driver", cfg.StoreDriver)
		return s, nil
	case config.DriverSQLite:
		s, err := sqlite.Open(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		logger.Info("repository ready", "driver", cfg.StoreDriver, "path", cfg.SQLitePath)
		return s, nil
	case config.DriverMemory, "":
		logger.Info("repository ready", "driver", config.DriverMemory)
		return memory.NewSeeded(), nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}
}

// OpenParkedSales prefers Redis and falls back to process memory when Redis is
// not configured or does not answer. The returned close func is never nil.
func OpenParkedSales(ctx context.Context, cfg config.Config, logger *slog.Logger) (cache.ParkedSales, func() error) {
	noop := func() error { return nil }
	if cfg.RedisAddr == "" {
		logger.Info("parked sales ready", "backend", "memory")
		return cache.NewMemoryParkedSales(), noop
	}

	redisCache := cache.NewRedisParkedSales(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err := redisCache.Ping(ctx); err != nil {
		logger.Warn("redis unavailable, parking sales in memory", "addr", cfg.RedisAddr, "error", err)
		_ = redisCache.Close()
		return cache.NewMemoryParkedSales(), noop
	}
	logger.Info("parked sales ready", "backend", "redis", "addr", cfg.RedisAddr)
	return redisCache, redisCache.Close
}
