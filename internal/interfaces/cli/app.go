package cli

import (
	"context"
	"fmt"

	"github.com/turtacn/molview/internal/application/analysis"
	"github.com/turtacn/molview/internal/application/session"
	"github.com/turtacn/molview/internal/application/viewer"
	"github.com/turtacn/molview/internal/config"
	"github.com/turtacn/molview/internal/infrastructure/cache"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/molview/internal/infrastructure/monitoring/prometheus"
	"github.com/turtacn/molview/pkg/types/molecule"
)

// newMetrics builds the collector and application metrics.  With metrics
// disabled the collector is nil and every recording is a no-op.
func newMetrics(cfg config.MetricsConfig, logger logging.Logger) (prometheus.MetricsCollector, *prometheus.AppMetrics, error) {
	if !cfg.Enabled {
		return nil, prometheus.NewAppMetrics(prometheus.NewNoopCollector()), nil
	}
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Namespace,
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("metrics collector: %w", err)
	}
	return collector, prometheus.NewAppMetrics(collector), nil
}

// newRemote wraps base in the configured response cache.  The returned
// closer releases the cache backend and is never nil.
func newRemote(ctx context.Context, cfg *config.Config, base analysis.Remote, logger logging.Logger, metrics *prometheus.AppMetrics) (analysis.Remote, func() error, error) {
	noop := func() error { return nil }
	log := logger.Named("cache")

	switch cfg.Cache.Backend {
	case "", cache.BackendNone:
		return base, noop, nil

	case cache.BackendMemory:
		c := cache.NewMemoryCache(cfg.Cache.TTL, cfg.Cache.CleanupInterval, log)
		log.Info("response cache enabled", logging.String("backend", c.Name()), logging.Duration("ttl", cfg.Cache.TTL))
		return analysis.NewCachingRemote(base, c, cfg.Cache.TTL, logger, metrics), noop, nil

	case cache.BackendRedis:
		client, err := cache.NewRedisClient(ctx, cache.RedisOptions{
			Addr:         cfg.Redis.Addr,
			Password:     cfg.Redis.Password,
			DB:           cfg.Redis.DB,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
			DialTimeout:  cfg.Redis.DialTimeout,
			ReadTimeout:  cfg.Redis.ReadTimeout,
			WriteTimeout: cfg.Redis.WriteTimeout,
		}, log)
		if err != nil {
			return nil, nil, fmt.Errorf("redis cache: %w", err)
		}
		c := cache.NewRedisCache(client, log,
			cache.WithPrefix(cfg.Redis.KeyPrefix),
			cache.WithDefaultTTL(cfg.Cache.TTL),
			cache.WithTTLJitter(0.1),
		)
		log.Info("response cache enabled",
			logging.String("backend", c.Name()),
			logging.String("addr", cfg.Redis.Addr),
			logging.Duration("ttl", cfg.Cache.TTL))
		return analysis.NewCachingRemote(base, c, cfg.Cache.TTL, logger, metrics), client.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Cache.Backend)
	}
}

// newSessionDeps translates configuration into the settings every session is
// built from.
func newSessionDeps(cfg *config.Config, remote analysis.Remote, logger logging.Logger, metrics *prometheus.AppMetrics) (session.Deps, error) {
	ff, err := molecule.ParseForcefield(cfg.Pipeline.Forcefield)
	if err != nil {
		return session.Deps{}, err
	}
	style, err := viewer.ParseStyle(cfg.Viewer.DefaultStyle)
	if err != nil {
		return session.Deps{}, err
	}
	return session.Deps{
		Remote:                 remote,
		Forcefield:             ff,
		MaxUploadSize:          cfg.Upload.MaxSize,
		AllowedExtensions:      cfg.Upload.AllowedExtensions,
		ViewerRetryDelay:       cfg.Viewer.RetryDelay,
		ViewerRotationInterval: cfg.Viewer.RotationInterval,
		ViewerRotationStep:     cfg.Viewer.RotationStep,
		ViewerDefaultStyle:     style,
		NotificationTTL:        cfg.Presenter.NotificationTTL,
		Logger:                 logger,
		Metrics:                metrics,
	}, nil
}
