package config

// DefaultConfig returns a configuration with all default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	// Server defaults
	cfg.Server.Port = 8082
	cfg.Server.TLSEnabled = false
	cfg.Server.TLSCertPath = ""
	cfg.Server.TLSKeyPath = ""
	cfg.Server.AllowedOrigins = []string{"http://localhost:3000", "http://localhost:5173"}

	// Pattern defaults
	cfg.Pattern.ClusterPolicy = "criticality"
	cfg.Pattern.DefaultWindowMinutes = 60

	// History defaults
	cfg.History.Backend = "sqlite"
	cfg.History.SQLitePath = "/var/lib/citypulse/citypulse-ai.db"
	cfg.History.RetentionDays = 90
	cfg.History.PruneIntervalMinutes = 60

	// Cache defaults
	cfg.Cache.EnableCaching = true
	cfg.Cache.TTLSeconds = 300

	// Rate limit defaults
	cfg.RateLimit.RequestsPerSecond = 10
	cfg.RateLimit.Burst = 20

	// Audit defaults
	cfg.Audit.Enabled = true
	cfg.Audit.Path = "/var/log/citypulse/audit.log"
	cfg.Audit.MaxSizeMB = 100
	cfg.Audit.MaxBackups = 5
	cfg.Audit.MaxAgeDays = 30

	// Logging defaults
	cfg.Logging.Level = "info"
	cfg.Logging.Format = "json"

	return cfg
}
