package config

import "time"

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultServiceBaseURL = "http://localhost:8000"

	DefaultForcefield = "UFF"

	DefaultUploadMaxSize = 10 << 20 // 10 MiB

	DefaultViewerRetryDelay       = 100 * time.Millisecond
	DefaultViewerRotationInterval = 50 * time.Millisecond
	DefaultViewerRotationStep     = 2.0
	DefaultViewerStyle            = "stick"

	DefaultNotificationTTL = 5 * time.Second

	DefaultHealthInterval = 30 * time.Second
	DefaultHealthTimeout  = 5 * time.Second

	DefaultCacheBackend         = "none"
	DefaultCacheTTL             = 10 * time.Minute
	DefaultCacheCleanupInterval = 5 * time.Minute

	DefaultRedisAddr      = "localhost:6379"
	DefaultRedisPoolSize  = 10
	DefaultRedisKeyPrefix = "molview:"

	DefaultServerHost            = "0.0.0.0"
	DefaultServerPort            = 8080
	DefaultServerReadTimeout     = 30 * time.Second
	DefaultServerWriteTimeout    = 120 * time.Second
	DefaultServerShutdownTimeout = 10 * time.Second

	DefaultSessionIdleTimeout     = 30 * time.Minute
	DefaultSessionCleanupInterval = time.Minute

	DefaultMetricsNamespace = "molview"
	DefaultMetricsPath      = "/metrics"

	DefaultLogLevel      = "info"
	DefaultLogFormat     = "json"
	DefaultLogMaxSizeMB  = 100
	DefaultLogMaxBackups = 3
	DefaultLogMaxAgeDays = 28
)

// DefaultAllowedExtensions lists the structure file types the upload form
// accepts.  Only pdb is renderable; the rest are recognized and refused.
var DefaultAllowedExtensions = []string{"sdf", "pdb", "mol", "xyz"}

// Default returns a Config with every field set to its default.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills every zero-value field in cfg with the default.
// Fields that have already been set (non-zero values) are left unchanged so
// that explicit configuration always wins.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Service ───────────────────────────────────────────────────────────────
	if cfg.Service.BaseURL == "" {
		cfg.Service.BaseURL = DefaultServiceBaseURL
	}

	// ── Pipeline ──────────────────────────────────────────────────────────────
	if cfg.Pipeline.Forcefield == "" {
		cfg.Pipeline.Forcefield = DefaultForcefield
	}

	// ── Upload ────────────────────────────────────────────────────────────────
	if cfg.Upload.MaxSize == 0 {
		cfg.Upload.MaxSize = DefaultUploadMaxSize
	}
	if len(cfg.Upload.AllowedExtensions) == 0 {
		cfg.Upload.AllowedExtensions = append([]string(nil), DefaultAllowedExtensions...)
	}

	// ── Viewer ────────────────────────────────────────────────────────────────
	if cfg.Viewer.RetryDelay == 0 {
		cfg.Viewer.RetryDelay = DefaultViewerRetryDelay
	}
	if cfg.Viewer.RotationInterval == 0 {
		cfg.Viewer.RotationInterval = DefaultViewerRotationInterval
	}
	if cfg.Viewer.RotationStep == 0 {
		cfg.Viewer.RotationStep = DefaultViewerRotationStep
	}
	if cfg.Viewer.DefaultStyle == "" {
		cfg.Viewer.DefaultStyle = DefaultViewerStyle
	}

	// ── Presenter / Health ────────────────────────────────────────────────────
	if cfg.Presenter.NotificationTTL == 0 {
		cfg.Presenter.NotificationTTL = DefaultNotificationTTL
	}
	if cfg.Health.Interval == 0 {
		cfg.Health.Interval = DefaultHealthInterval
	}
	if cfg.Health.Timeout == 0 {
		cfg.Health.Timeout = DefaultHealthTimeout
	}

	// ── Cache / Redis ─────────────────────────────────────────────────────────
	if cfg.Cache.Backend == "" {
		cfg.Cache.Backend = DefaultCacheBackend
	}
	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = DefaultCacheTTL
	}
	if cfg.Cache.CleanupInterval == 0 {
		cfg.Cache.CleanupInterval = DefaultCacheCleanupInterval
	}
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.PoolSize == 0 {
		cfg.Redis.PoolSize = DefaultRedisPoolSize
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}

	// ── Server / Session ──────────────────────────────────────────────────────
	if cfg.Server.Host == "" {
		cfg.Server.Host = DefaultServerHost
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = DefaultServerPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = DefaultServerReadTimeout
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = DefaultServerWriteTimeout
	}
	if cfg.Server.ShutdownTimeout == 0 {
		cfg.Server.ShutdownTimeout = DefaultServerShutdownTimeout
	}
	if cfg.Session.IdleTimeout == 0 {
		cfg.Session.IdleTimeout = DefaultSessionIdleTimeout
	}
	if cfg.Session.CleanupInterval == 0 {
		cfg.Session.CleanupInterval = DefaultSessionCleanupInterval
	}

	// ── Metrics ───────────────────────────────────────────────────────────────
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
	if cfg.Metrics.Path == "" {
		cfg.Metrics.Path = DefaultMetricsPath
	}

	// ── Log ───────────────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Log.MaxSizeMB == 0 {
		cfg.Log.MaxSizeMB = DefaultLogMaxSizeMB
	}
	if cfg.Log.MaxBackups == 0 {
		cfg.Log.MaxBackups = DefaultLogMaxBackups
	}
	if cfg.Log.MaxAgeDays == 0 {
		cfg.Log.MaxAgeDays = DefaultLogMaxAgeDays
	}
}
