package config

import (
	"fmt"
	"os"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed for %s: %s", e.Field, e.Message)
}

// Validate validates the configuration and returns validation errors.
func (c *Config) Validate() []error {
	var errs []error

	// Validate server configuration
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, &ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port must be between 1 and 65535, got %d", c.Server.Port),
		})
	}

	if c.Server.TLSEnabled {
		if c.Server.TLSCertPath == "" {
			errs = append(errs, &ValidationError{
				Field:   "server.tls_cert_path",
				Message: "tls_cert_path is required when tls_enabled is true",
			})
		} else if _, err := os.Stat(c.Server.TLSCertPath); os.IsNotExist(err) {
			errs = append(errs, &ValidationError{
				Field:   "server.tls_cert_path",
				Message: fmt.Sprintf("certificate file does not exist: %s", c.Server.TLSCertPath),
			})
		}

		if c.Server.TLSKeyPath == "" {
			errs = append(errs, &ValidationError{
				Field:   "server.tls_key_path",
				Message: "tls_key_path is required when tls_enabled is true",
			})
		} else if _, err := os.Stat(c.Server.TLSKeyPath); os.IsNotExist(err) {
			errs = append(errs, &ValidationError{
				Field:   "server.tls_key_path",
				Message: fmt.Sprintf("key file does not exist: %s", c.Server.TLSKeyPath),
			})
		}
	}

	// Validate pattern configuration
	validPolicies := map[string]bool{
		"criticality": true,
		"threshold":   true,
	}
	if !validPolicies[c.Pattern.ClusterPolicy] {
		errs = append(errs, &ValidationError{
			Field:   "pattern.cluster_policy",
			Message: fmt.Sprintf("invalid policy '%s', must be one of: criticality, threshold", c.Pattern.ClusterPolicy),
		})
	}

	if c.Pattern.DefaultWindowMinutes < 1 {
		errs = append(errs, &ValidationError{
			Field:   "pattern.default_window_minutes",
			Message: fmt.Sprintf("window must be at least 1 minute, got %d", c.Pattern.DefaultWindowMinutes),
		})
	}

	// Validate history configuration
	validBackends := map[string]bool{
		"sqlite": true,
		"memory": true,
	}
	if !validBackends[c.History.Backend] {
		errs = append(errs, &ValidationError{
			Field:   "history.backend",
			Message: fmt.Sprintf("invalid backend '%s', must be one of: sqlite, memory", c.History.Backend),
		})
	}

	if c.History.Backend == "sqlite" && c.History.SQLitePath == "" {
		errs = append(errs, &ValidationError{
			Field:   "history.sqlite_path",
			Message: "sqlite_path is required when backend is sqlite",
		})
	}

	if c.History.RetentionDays < 1 {
		errs = append(errs, &ValidationError{
			Field:   "history.retention_days",
			Message: fmt.Sprintf("retention must be at least 1 day, got %d", c.History.RetentionDays),
		})
	}

	if c.History.PruneIntervalMinutes < 1 {
		errs = append(errs, &ValidationError{
			Field:   "history.prune_interval_minutes",
			Message: fmt.Sprintf("prune interval must be at least 1 minute, got %d", c.History.PruneIntervalMinutes),
		})
	}

	// Validate cache configuration
	if c.Cache.EnableCaching && c.Cache.TTLSeconds < 1 {
		errs = append(errs, &ValidationError{
			Field:   "cache.ttl_seconds",
			Message: fmt.Sprintf("ttl must be at least 1 second when caching is enabled, got %d", c.Cache.TTLSeconds),
		})
	}

	// Validate rate limit configuration
	if c.RateLimit.RequestsPerSecond <= 0 {
		errs = append(errs, &ValidationError{
			Field:   "ratelimit.requests_per_second",
			Message: fmt.Sprintf("rate must be positive, got %v", c.RateLimit.RequestsPerSecond),
		})
	}

	if c.RateLimit.Burst < 1 {
		errs = append(errs, &ValidationError{
			Field:   "ratelimit.burst",
			Message: fmt.Sprintf("burst must be at least 1, got %d", c.RateLimit.Burst),
		})
	}

	// Validate audit configuration
	if c.Audit.Enabled && c.Audit.Path == "" {
		errs = append(errs, &ValidationError{
			Field:   "audit.path",
			Message: "path is required when audit is enabled",
		})
	}

	// Validate logging configuration
	validLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLevels[c.Logging.Level] {
		errs = append(errs, &ValidationError{
			Field:   "logging.level",
			Message: fmt.Sprintf("invalid level '%s', must be one of: debug, info, warn, error", c.Logging.Level),
		})
	}

	validFormats := map[string]bool{
		"json": true,
		"text": true,
	}
	if !validFormats[c.Logging.Format] {
		errs = append(errs, &ValidationError{
			Field:   "logging.format",
			Message: fmt.Sprintf("invalid format '%s', must be one of: json, text", c.Logging.Format),
		})
	}

	return errs
}
