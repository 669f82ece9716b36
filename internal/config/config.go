package config

import "context"

// Package config provides configuration management for citypulse-ai.
//
// Responsibilities:
//   - Load configuration from YAML files and environment variables
//   - Validate configuration on startup
//   - Provide runtime access to all configuration
//   - Support configuration reloading via file watch
//   - Establish reasonable defaults
//
// Configuration Sources (priority order, high to low):
//   1. Environment variables (CITYPULSE_* prefix)
//   2. YAML config file (default: /etc/citypulse/config.yaml)
//   3. Built-in defaults (lowest priority)
//
// Main Configuration Sections:
//
//   1. Server
//      - port: Listen port (default 8082)
//      - tls_enabled / tls_cert_path / tls_key_path
//      - allowed_origins: Origins permitted to open WebSocket connections
//
//   2. Pattern
//      - cluster_policy: "criticality" | "threshold"
//      - default_window_minutes: Time-window label for cluster analysis
//
//   3. History
//      - backend: "sqlite" | "memory"
//      - sqlite_path: Path to SQLite file
//      - retention_days: Keep incident timestamps for N days
//      - prune_interval_minutes: How often the retention sweep runs
//
//   4. Cache
//      - enable_caching: Turn on risk verdict caching
//      - ttl_seconds: Verdict cache lifetime
//
//   5. RateLimit
//      - requests_per_second / burst for the ingest endpoints
//
//   6. Audit
//      - enabled, path, max_size_mb, max_backups, max_age_days
//
//   7. Logging
//      - level: "debug" | "info" | "warn" | "error"
//      - format: "json" | "text"

// Config struct contains all configuration fields
type Config struct {
	// Server configuration
	Server struct {
		Port        int
		TLSEnabled  bool
		TLSCertPath string
		TLSKeyPath  string
		// AllowedOrigins is a list of origins permitted to open WebSocket
		// connections. Use ["*"] to allow any origin (development only).
		AllowedOrigins []string
	}

	// Pattern analysis configuration
	Pattern struct {
		// ClusterPolicy selects the cluster detector: "criticality" or
		// "threshold".
		ClusterPolicy        string
		DefaultWindowMinutes int
	}

	// History store configuration
	History struct {
		Backend             string // "sqlite" | "memory"
		SQLitePath          string
		RetentionDays       int
		PruneIntervalMinutes int
	}

	// Cache configuration
	Cache struct {
		EnableCaching bool
		TTLSeconds    int
	}

	// Rate limit configuration for ingest endpoints
	RateLimit struct {
		RequestsPerSecond float64
		Burst             int
	}

	// Audit log configuration
	Audit struct {
		Enabled    bool
		Path       string
		MaxSizeMB  int
		MaxBackups int
		MaxAgeDays int
	}

	// Logging configuration
	Logging struct {
		Level  string
		Format string
	}
}

// ConfigManager defines the interface for configuration access.
type ConfigManager interface {
	// Load loads configuration from all sources.
	Load(ctx context.Context) error

	// Get returns the current configuration.
	Get(ctx context.Context) *Config

	// Validate validates configuration is correct and complete.
	Validate(ctx context.Context) error

	// Watch watches for configuration changes and reloads (if supported).
	Watch(ctx context.Context) <-chan Config

	// Reload reloads configuration from sources.
	Reload(ctx context.Context) error
}

// NewConfigManager creates a new configuration manager.
func NewConfigManager(configPath string) (ConfigManager, error) {
	mgr := &viperConfigManager{
		configPath: configPath,
		config:     DefaultConfig(),
		watchChan:  make(chan Config, 1),
	}
	return mgr, nil
}

// NewConfigManagerWithDefaults creates a config manager with default config path.
func NewConfigManagerWithDefaults() (ConfigManager, error) {
	return NewConfigManager("/etc/citypulse/config.yaml")
}
