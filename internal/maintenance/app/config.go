package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/aussiebroadwan/traceline/pkg/httpx"
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

type Config struct {
	Env                 string        `env:"ENV"                   envDefault:"dev"`  // dev, staging, prod
	LogLevel            string        `env:"LOG_LEVEL"             envDefault:"info"` // debug, info, warn, error
	LogFormat           string        `env:"LOG_FORMAT"            envDefault:"json"` // json, text
	Port                int           `env:"PORT"                  envDefault:"8080"`
	ShutdownGracePeriod time.Duration `env:"SHUTDOWN_GRACE_PERIOD" envDefault:"10s"`

	DatabaseDriver       string `env:"DATABASE_DRIVER"         envDefault:"sqlite"`       // sqlite, postgres
	DatabaseURL          string `env:"DATABASE_URL"            envDefault:"traceline.db"` // sqlite file or postgres DSN
	DatabaseMaxOpenConns int    `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"10"`           // postgres only

	WhitelistRetention time.Duration `env:"WHITELIST_RETENTION" envDefault:"720h"`
	ActivityWindow     time.Duration `env:"ACTIVITY_WINDOW"     envDefault:"360h"`
	ReportWindow       time.Duration `env:"REPORT_WINDOW"       envDefault:"168h"`

	SchedulerEnabled  bool          `env:"SCHEDULER_ENABLED"  envDefault:"true"`
	WhitelistInterval time.Duration `env:"WHITELIST_INTERVAL" envDefault:"24h"`
	SessionInterval   time.Duration `env:"SESSION_INTERVAL"   envDefault:"1h"`
	ActivityInterval  time.Duration `env:"ACTIVITY_INTERVAL"  envDefault:"24h"`
	ReportInterval    time.Duration `env:"REPORT_INTERVAL"    envDefault:"168h"`
	JobTimeout        time.Duration `env:"JOB_TIMEOUT"        envDefault:"30m"`

	// Empty secret disables the /v1 admin API.
	AdminJWTSecret string `env:"ADMIN_JWT_SECRET"`
	AdminJWTIssuer string `env:"ADMIN_JWT_ISSUER" envDefault:"traceline-admin"`

	// Empty REDIS_URL keeps job locks in process.
	RedisURL   string        `env:"REDIS_URL"`
	JobLockTTL time.Duration `env:"JOB_LOCK_TTL" envDefault:"30m"`

	// Empty AMQP_URL only logs the weekly report.
	AMQPURL     string `env:"AMQP_URL"`
	ReportQueue string `env:"REPORT_QUEUE" envDefault:"traceline.weekly_report"`
}

// LoadConfig parses Config and the rate limit tiers from the environment and
// validates the result.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := httpx.LoadRateLimitsFromEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	var errs []error

	switch c.DatabaseDriver {
	case DriverSQLite, DriverPostgres:
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER must be %q or %q, got %q", DriverSQLite, DriverPostgres, c.DatabaseDriver))
	}
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT out of range: %d", c.Port))
	}

	positive := []struct {
		name string
		v    time.Duration
	}{
		{"WHITELIST_RETENTION", c.WhitelistRetention},
		{"ACTIVITY_WINDOW", c.ActivityWindow},
		{"REPORT_WINDOW", c.ReportWindow},
		{"WHITELIST_INTERVAL", c.WhitelistInterval},
		{"SESSION_INTERVAL", c.SessionInterval},
		{"ACTIVITY_INTERVAL", c.ActivityInterval},
		{"REPORT_INTERVAL", c.ReportInterval},
		{"JOB_TIMEOUT", c.JobTimeout},
		{"JOB_LOCK_TTL", c.JobLockTTL},
		{"SHUTDOWN_GRACE_PERIOD", c.ShutdownGracePeriod},
	}
	for _, p := range positive {
		if p.v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive, got %s", p.name, p.v))
		}
	}

	if c.AdminJWTSecret != "" && len(c.AdminJWTSecret) < 32 {
		errs = append(errs, errors.New("ADMIN_JWT_SECRET must be at least 32 characters"))
	}

	return errors.Join(errs...)
}

// SQLiteDSN turns a bare file path into a modernc DSN with WAL and a busy
// timeout. DSNs already starting with "file:" and ":memory:" pass through.
func (c Config) SQLiteDSN() string {
	if c.DatabaseURL == ":memory:" || strings.HasPrefix(c.DatabaseURL, "file:") {
		return c.DatabaseURL
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", c.DatabaseURL)
}
