package config

import (
	"time"

	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // Single operator with every permission
	AuthModeToken AuthMode = "token" // Bearer API tokens issued through the CLI (default)
	AuthModeProxy AuthMode = "proxy" // Identity asserted by a trusted reverse proxy header
)

type (
	Config struct {
		HTTP
		Global
		Database
		Auth
		Loans
		Catalog
		Audit
		Tasks
		Maintenance
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
		ReadOnly                 bool // Refuse every write, e.g. during a backup
	}
	Database struct {
		Path     string
		LogLevel string // silent, error, warn or info
	}
	Auth struct {
		Mode            AuthMode
		ProxyHeader     string
		SessionSecret   string
		SessionLifetime time.Duration
		TokenExpiry     time.Duration
		SecureCookies   bool // Set to false for local dev without HTTPS

		// Write throttling, per actor
		WriteRatePerMinute int
		WriteBurst         int
	}
	Loans struct {
		RenewalProposalWeeks int // Suggested renewal period shown on the renew form
		RenewalMaxWeeks      int // Upper bound accepted by the renewal workflow
	}
	Catalog struct {
		StrictISBN bool // Enforce ISBN-10/ISBN-13 checksums
	}
	Audit struct {
		RetentionDays int
		ArchiveDir    string // JSON snapshots of deleted records; empty disables
	}
	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}
	Maintenance struct {
		Enabled  bool
		Schedule string // Cron format: "0 3 * * *" = daily at 03:00
	}
)

// RenewalProposal returns the default renewal period as a duration.
func (l Loans) RenewalProposal() time.Duration {
	return time.Duration(l.RenewalProposalWeeks) * 7 * 24 * time.Hour
}

// RenewalMax returns the longest accepted renewal period as a duration.
func (l Loans) RenewalMax() time.Duration {
	return time.Duration(l.RenewalMaxWeeks) * 7 * 24 * time.Hour
}

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("read_only", false)
	v.SetDefault("database_path", DefaultDatabasePath)
	v.SetDefault("database_log_level", "warn")

	// Auth defaults
	v.SetDefault("auth_mode", string(AuthModeToken))
	v.SetDefault("auth_proxy_header", DefaultProxyHeader)
	v.SetDefault("auth_session_secret", "") // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h")
	v.SetDefault("auth_token_expiry", "720h") // 30 days
	v.SetDefault("auth_secure_cookies", true)
	v.SetDefault("auth_write_rate_per_minute", 60)
	v.SetDefault("auth_write_burst", 10)

	// Loan defaults follow the librarian renew form
	v.SetDefault("loans_renewal_proposal_weeks", 3)
	v.SetDefault("loans_renewal_max_weeks", 4)

	v.SetDefault("catalog_strict_isbn", false)
	v.SetDefault("audit_retention_days", 30)
	v.SetDefault("audit_archive_dir", "")

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	v.SetDefault("maintenance_enabled", true)
	v.SetDefault("maintenance_schedule", "0 3 * * *")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
			ReadOnly:                 v.GetBool("READ_ONLY"),
		},
		Database: Database{
			Path:     v.GetString("DATABASE_PATH"),
			LogLevel: v.GetString("DATABASE_LOG_LEVEL"),
		},
		Auth: Auth{
			Mode:               AuthMode(v.GetString("AUTH_MODE")),
			ProxyHeader:        v.GetString("AUTH_PROXY_HEADER"),
			SessionSecret:      v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:    v.GetDuration("AUTH_SESSION_LIFETIME"),
			TokenExpiry:        v.GetDuration("AUTH_TOKEN_EXPIRY"),
			SecureCookies:      v.GetBool("AUTH_SECURE_COOKIES"),
			WriteRatePerMinute: v.GetInt("AUTH_WRITE_RATE_PER_MINUTE"),
			WriteBurst:         v.GetInt("AUTH_WRITE_BURST"),
		},
		Loans: Loans{
			RenewalProposalWeeks: v.GetInt("LOANS_RENEWAL_PROPOSAL_WEEKS"),
			RenewalMaxWeeks:      v.GetInt("LOANS_RENEWAL_MAX_WEEKS"),
		},
		Catalog: Catalog{
			StrictISBN: v.GetBool("CATALOG_STRICT_ISBN"),
		},
		Audit: Audit{
			RetentionDays: v.GetInt("AUDIT_RETENTION_DAYS"),
			ArchiveDir:    v.GetString("AUDIT_ARCHIVE_DIR"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Maintenance: Maintenance{
			Enabled:  v.GetBool("MAINTENANCE_ENABLED"),
			Schedule: v.GetString("MAINTENANCE_SCHEDULE"),
		},
	}
}
