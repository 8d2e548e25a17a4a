// Package config defines the configuration structures for molview.  No I/O or
// parsing logic lives here, only plain data types and validation.
package config

import (
	"fmt"
	"strings"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Sub-configuration structs
// ─────────────────────────────────────────────────────────────────────────────

// ServiceConfig locates the remote chemistry service.
type ServiceConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"` // 0 = no client-side timeout
	RetryMax  int           `mapstructure:"retry_max"`
	UserAgent string        `mapstructure:"user_agent"`
}

// PipelineConfig tunes the analysis pipeline.
type PipelineConfig struct {
	Forcefield string `mapstructure:"forcefield"` // "UFF" | "MMFF"
}

// UploadConfig constrains uploaded structure files.
type UploadConfig struct {
	MaxSize           int64    `mapstructure:"max_size"`
	AllowedExtensions []string `mapstructure:"allowed_extensions"`
}

// ViewerConfig tunes the viewer controller.
type ViewerConfig struct {
	RetryDelay       time.Duration `mapstructure:"retry_delay"`
	RotationInterval time.Duration `mapstructure:"rotation_interval"`
	RotationStep     float64       `mapstructure:"rotation_step"` // degrees per tick
	DefaultStyle     string        `mapstructure:"default_style"`
}

// PresenterConfig tunes notifications.
type PresenterConfig struct {
	NotificationTTL time.Duration `mapstructure:"notification_ttl"`
}

// HealthConfig tunes the remote-service health monitor.
type HealthConfig struct {
	Interval time.Duration `mapstructure:"interval"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// CacheConfig selects the remote-response cache.
type CacheConfig struct {
	Backend         string        `mapstructure:"backend"` // "none" | "memory" | "redis"
	TTL             time.Duration `mapstructure:"ttl"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	MinIdleConns int           `mapstructure:"min_idle_conns"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	KeyPrefix    string        `mapstructure:"key_prefix"`
}

// ServerConfig holds HTTP server tunables.
type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"` // empty = no cross-origin access
}

// SessionConfig controls the server-side session registry.
type SessionConfig struct {
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	CleanupInterval time.Duration `mapstructure:"cleanup_interval"`
}

// MetricsConfig controls Prometheus instrumentation.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Namespace string `mapstructure:"namespace"`
	Path      string `mapstructure:"path"`
}

// LogConfig controls the structured logger.  When File is set, output is
// written there with size-based rotation.
type LogConfig struct {
	Level      string `mapstructure:"level"`  // debug | info | warn | error
	Format     string `mapstructure:"format"` // json | console
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Root configuration
// ─────────────────────────────────────────────────────────────────────────────

// Config is the root configuration object.
type Config struct {
	Service   ServiceConfig   `mapstructure:"service"`
	Pipeline  PipelineConfig  `mapstructure:"pipeline"`
	Upload    UploadConfig    `mapstructure:"upload"`
	Viewer    ViewerConfig    `mapstructure:"viewer"`
	Presenter PresenterConfig `mapstructure:"presenter"`
	Health    HealthConfig    `mapstructure:"health"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Server    ServerConfig    `mapstructure:"server"`
	Session   SessionConfig   `mapstructure:"session"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Log       LogConfig       `mapstructure:"log"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation
// ─────────────────────────────────────────────────────────────────────────────

// Validate performs semantic validation of the fully-populated Config.
// It returns the first error encountered.
func (c *Config) Validate() error {
	// Service
	if c.Service.BaseURL == "" {
		return fmt.Errorf("config: service.base_url is required")
	}
	if !strings.HasPrefix(c.Service.BaseURL, "http://") && !strings.HasPrefix(c.Service.BaseURL, "https://") {
		return fmt.Errorf("config: service.base_url %q must be an http(s) URL", c.Service.BaseURL)
	}
	if c.Service.Timeout < 0 {
		return fmt.Errorf("config: service.timeout must be ≥ 0, got %s", c.Service.Timeout)
	}
	if c.Service.RetryMax < 0 {
		return fmt.Errorf("config: service.retry_max must be ≥ 0, got %d", c.Service.RetryMax)
	}

	// Pipeline
	switch strings.ToUpper(c.Pipeline.Forcefield) {
	case "UFF", "MMFF":
	default:
		return fmt.Errorf("config: pipeline.forcefield %q is invalid; expected UFF|MMFF", c.Pipeline.Forcefield)
	}

	// Upload
	if c.Upload.MaxSize < 1 {
		return fmt.Errorf("config: upload.max_size must be ≥ 1, got %d", c.Upload.MaxSize)
	}
	if len(c.Upload.AllowedExtensions) == 0 {
		return fmt.Errorf("config: upload.allowed_extensions must not be empty")
	}

	// Viewer
	if c.Viewer.RetryDelay <= 0 {
		return fmt.Errorf("config: viewer.retry_delay must be > 0")
	}
	if c.Viewer.RotationInterval <= 0 {
		return fmt.Errorf("config: viewer.rotation_interval must be > 0")
	}
	switch c.Viewer.DefaultStyle {
	case "stick", "sphere", "cartoon", "surface":
	default:
		return fmt.Errorf("config: viewer.default_style %q is invalid; expected stick|sphere|cartoon|surface", c.Viewer.DefaultStyle)
	}

	// Cache
	switch c.Cache.Backend {
	case "none", "memory":
	case "redis":
		if c.Redis.Addr == "" {
			return fmt.Errorf("config: redis.addr is required when cache.backend is redis")
		}
	default:
		return fmt.Errorf("config: cache.backend %q is invalid; expected none|memory|redis", c.Cache.Backend)
	}
	if c.Redis.DB < 0 {
		return fmt.Errorf("config: redis.db must be ≥ 0, got %d", c.Redis.DB)
	}

	// Server
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port %d is out of range [1, 65535]", c.Server.Port)
	}

	// Log
	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config: log.level %q is invalid; expected debug|info|warn|error", c.Log.Level)
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("config: log.format %q is invalid; expected json|console", c.Log.Format)
	}

	return nil
}
