package config

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// viperConfigManager implements ConfigManager using Viper.
type viperConfigManager struct {
	configPath string
	config     *Config
	viper      *viper.Viper
	watchChan  chan Config
}

// Load loads configuration from all sources.
func (m *viperConfigManager) Load(ctx context.Context) error {
	m.viper = viper.New()

	m.viper.SetConfigFile(m.configPath)
	m.viper.SetConfigType("yaml")

	m.viper.SetEnvPrefix("CITYPULSE")
	m.viper.AutomaticEnv()
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	m.setDefaults()

	// The config file is optional; defaults plus env vars are a complete
	// configuration on their own.
	if err := m.viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// use defaults
		} else if os.IsNotExist(err) {
			// use defaults
		} else {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := m.unmarshalConfig(); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.applyEnvOverrides()
	return nil
}

// Get returns the current configuration.
func (m *viperConfigManager) Get(ctx context.Context) *Config {
	return m.config
}

// Validate validates configuration is correct and complete.
func (m *viperConfigManager) Validate(ctx context.Context) error {
	errs := m.config.Validate()
	if len(errs) > 0 {
		var errMsgs []string
		for _, err := range errs {
			errMsgs = append(errMsgs, err.Error())
		}
		return fmt.Errorf("configuration validation failed:\n  - %s", strings.Join(errMsgs, "\n  - "))
	}
	return nil
}

// Watch watches for configuration changes and reloads.
func (m *viperConfigManager) Watch(ctx context.Context) <-chan Config {
	m.viper.WatchConfig()
	m.viper.OnConfigChange(func(e fsnotify.Event) {
		if err := m.unmarshalConfig(); err != nil {
			return
		}
		select {
		case m.watchChan <- *m.config:
		default:
			// Channel full, skip this update
		}
	})

	return m.watchChan
}

// Reload reloads configuration from sources.
func (m *viperConfigManager) Reload(ctx context.Context) error {
	if err := m.viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	if err := m.unmarshalConfig(); err != nil {
		return fmt.Errorf("error unmarshaling config: %w", err)
	}

	m.applyEnvOverrides()
	return nil
}

// setDefaults sets default values in viper.
func (m *viperConfigManager) setDefaults() {
	defaults := DefaultConfig()

	// Server defaults
	m.viper.SetDefault("server.port", defaults.Server.Port)
	m.viper.SetDefault("server.tls_enabled", defaults.Server.TLSEnabled)
	m.viper.SetDefault("server.tls_cert_path", defaults.Server.TLSCertPath)
	m.viper.SetDefault("server.tls_key_path", defaults.Server.TLSKeyPath)
	m.viper.SetDefault("server.allowed_origins", defaults.Server.AllowedOrigins)

	// Pattern defaults
	m.viper.SetDefault("pattern.cluster_policy", defaults.Pattern.ClusterPolicy)
	m.viper.SetDefault("pattern.default_window_minutes", defaults.Pattern.DefaultWindowMinutes)

	// History defaults
	m.viper.SetDefault("history.backend", defaults.History.Backend)
	m.viper.SetDefault("history.sqlite_path", defaults.History.SQLitePath)
	m.viper.SetDefault("history.retention_days", defaults.History.RetentionDays)
	m.viper.SetDefault("history.prune_interval_minutes", defaults.History.PruneIntervalMinutes)

	// Cache defaults
	m.viper.SetDefault("cache.enable_caching", defaults.Cache.EnableCaching)
	m.viper.SetDefault("cache.ttl_seconds", defaults.Cache.TTLSeconds)

	// Rate limit defaults
	m.viper.SetDefault("ratelimit.requests_per_second", defaults.RateLimit.RequestsPerSecond)
	m.viper.SetDefault("ratelimit.burst", defaults.RateLimit.Burst)

	// Audit defaults
	m.viper.SetDefault("audit.enabled", defaults.Audit.Enabled)
	m.viper.SetDefault("audit.path", defaults.Audit.Path)
	m.viper.SetDefault("audit.max_size_mb", defaults.Audit.MaxSizeMB)
	m.viper.SetDefault("audit.max_backups", defaults.Audit.MaxBackups)
	m.viper.SetDefault("audit.max_age_days", defaults.Audit.MaxAgeDays)

	// Logging defaults
	m.viper.SetDefault("logging.level", defaults.Logging.Level)
	m.viper.SetDefault("logging.format", defaults.Logging.Format)
}

// unmarshalConfig unmarshals viper config into Config struct.
func (m *viperConfigManager) unmarshalConfig() error {
	cfg := &Config{}

	// Server
	cfg.Server.Port = m.viper.GetInt("server.port")
	cfg.Server.TLSEnabled = m.viper.GetBool("server.tls_enabled")
	cfg.Server.TLSCertPath = m.viper.GetString("server.tls_cert_path")
	cfg.Server.TLSKeyPath = m.viper.GetString("server.tls_key_path")
	cfg.Server.AllowedOrigins = m.viper.GetStringSlice("server.allowed_origins")

	// Pattern
	cfg.Pattern.ClusterPolicy = m.viper.GetString("pattern.cluster_policy")
	cfg.Pattern.DefaultWindowMinutes = m.viper.GetInt("pattern.default_window_minutes")

	// History
	cfg.History.Backend = m.viper.GetString("history.backend")
	cfg.History.SQLitePath = m.viper.GetString("history.sqlite_path")
	cfg.History.RetentionDays = m.viper.GetInt("history.retention_days")
	cfg.History.PruneIntervalMinutes = m.viper.GetInt("history.prune_interval_minutes")

	// Cache
	cfg.Cache.EnableCaching = m.viper.GetBool("cache.enable_caching")
	cfg.Cache.TTLSeconds = m.viper.GetInt("cache.ttl_seconds")

	// Rate limit
	cfg.RateLimit.RequestsPerSecond = m.viper.GetFloat64("ratelimit.requests_per_second")
	cfg.RateLimit.Burst = m.viper.GetInt("ratelimit.burst")

	// Audit
	cfg.Audit.Enabled = m.viper.GetBool("audit.enabled")
	cfg.Audit.Path = m.viper.GetString("audit.path")
	cfg.Audit.MaxSizeMB = m.viper.GetInt("audit.max_size_mb")
	cfg.Audit.MaxBackups = m.viper.GetInt("audit.max_backups")
	cfg.Audit.MaxAgeDays = m.viper.GetInt("audit.max_age_days")

	// Logging
	cfg.Logging.Level = m.viper.GetString("logging.level")
	cfg.Logging.Format = m.viper.GetString("logging.format")

	m.config = cfg
	return nil
}

// applyEnvOverrides applies environment variable overrides for values viper's
// replacer does not reach through the nested keys.
func (m *viperConfigManager) applyEnvOverrides() {
	if portEnv := os.Getenv("CITYPULSE_PORT"); portEnv != "" {
		m.config.Server.Port = m.viper.GetInt("port")
	}

	if path := os.Getenv("CITYPULSE_SQLITE_PATH"); path != "" {
		m.config.History.SQLitePath = path
	}

	if policy := os.Getenv("CITYPULSE_CLUSTER_POLICY"); policy != "" {
		m.config.Pattern.ClusterPolicy = policy
	}
}
