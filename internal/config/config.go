// Package config defines the top-level configuration for cfbspreads and
// provides validation helpers.
package config

import (
	"fmt"
	"strings"
	"time"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by CFBSPREADS_* environment variables.
type Config struct {
	Ingest   IngestConfig   `toml:"ingest"`
	Bovada   BovadaConfig   `toml:"bovada"`
	Teams    TeamsConfig    `toml:"teams"`
	Postgres PostgresConfig `toml:"postgres"`
	Redis    RedisConfig    `toml:"redis"`
	S3       S3Config       `toml:"s3"`
	Server   ServerConfig   `toml:"server"`
	Notify   NotifyConfig   `toml:"notify"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// IngestConfig names the target slate and tunes the ingestion run.
type IngestConfig struct {
	Season int    `toml:"season"`
	Week   int    `toml:"week"`
	Title  string `toml:"title"`
	// GameDays restricts the slate to these calendar dates (YYYY-MM-DD) in
	// Timezone. Empty selects every discovered event.
	GameDays       []string `toml:"game_days"`
	Timezone       string   `toml:"timezone"`
	SportPath      string   `toml:"sport_path"`
	Workers        int      `toml:"workers"`
	Cron           string   `toml:"cron"`
	FetchScores    bool     `toml:"fetch_scores"`
	ArchiveRaw     bool     `toml:"archive_raw"`
	LockTTLSeconds int      `toml:"lock_ttl_seconds"`
}

// BovadaConfig holds upstream endpoints and politeness settings.
type BovadaConfig struct {
	BaseURL           string `toml:"base_url"`
	ScoresURL         string `toml:"scores_url"`
	TimeoutSeconds    int    `toml:"timeout_seconds"`
	Retries           int    `toml:"retries"`
	ThrottleMS        int    `toml:"throttle_ms"`
	RateLimit         int    `toml:"rate_limit"`
	RateWindowSeconds int    `toml:"rate_window_seconds"`
}

// TeamsConfig tunes team-name resolution.
type TeamsConfig struct {
	// AliasFile overrides the built-in alias table (YAML). Empty uses the
	// embedded default.
	AliasFile      string  `toml:"alias_file"`
	FuzzyThreshold float64 `toml:"fuzzy_threshold"`
	CacheTTLHours  int     `toml:"cache_ttl_hours"`
}

// PostgresConfig holds PostgreSQL connection parameters.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
}

// RedisConfig holds Redis connection parameters.
type RedisConfig struct {
	Enabled    bool   `toml:"enabled"`
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
}

// S3Config holds S3-compatible object storage parameters.
type S3Config struct {
	Enabled        bool   `toml:"enabled"`
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	KeyPrefix      string `toml:"key_prefix"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
}

// ServerConfig holds HTTP server parameters.
type ServerConfig struct {
	Port        int      `toml:"port"`
	APIKey      string   `toml:"api_key"`
	CORSOrigins []string `toml:"cors_origins"`
}

// NotifyConfig holds notification channel credentials.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config populated with reasonable default values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Ingest: IngestConfig{
			Season:         2025,
			Week:           1,
			Timezone:       "America/New_York",
			SportPath:      "football/college-football",
			Workers:        4,
			Cron:           "0 * * * *",
			FetchScores:    true,
			LockTTLSeconds: 600,
		},
		Bovada: BovadaConfig{
			BaseURL:           "https://www.bovada.lv",
			ScoresURL:         "https://services.bovada.lv",
			TimeoutSeconds:    12,
			Retries:           3,
			ThrottleMS:        250,
			RateLimit:         60,
			RateWindowSeconds: 60,
		},
		Teams: TeamsConfig{
			FuzzyThreshold: 0.75,
			CacheTTLHours:  720,
		},
		Postgres: PostgresConfig{
			Host:          "localhost",
			Port:          5432,
			Database:      "cfbspreads",
			User:          "postgres",
			SSLMode:       "disable",
			PoolMaxConns:  10,
			PoolMinConns:  1,
			RunMigrations: true,
		},
		Redis: RedisConfig{
			Enabled:    true,
			Addr:       "localhost:6379",
			PoolSize:   10,
			MaxRetries: 3,
		},
		S3: S3Config{
			Endpoint:       "http://localhost:9000",
			Region:         "us-east-1",
			Bucket:         "cfbspreads",
			ForcePathStyle: true,
		},
		Server: ServerConfig{
			Port:        8080,
			CORSOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Notify: NotifyConfig{
			Events: []string{"run_failed", "unmapped_teams"},
		},
		Mode:     "ingest",
		LogLevel: "info",
	}
}

// Location loads the configured ingest time zone.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Ingest.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: ingest.timezone %q: %w", c.Ingest.Timezone, err)
	}
	return loc, nil
}

// LockTTL is the run lock lifetime.
func (c *Config) LockTTL() time.Duration {
	return time.Duration(c.Ingest.LockTTLSeconds) * time.Second
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"ingest":   true,
	"schedule": true,
	"server":   true,
	"full":     true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: ingest, schedule, server, full)", c.Mode))
	}
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Ingest
	if c.Ingest.Season < 1900 {
		errs = append(errs, fmt.Sprintf("ingest: season must be a four-digit year, got %d", c.Ingest.Season))
	}
	if c.Ingest.Week < 0 || c.Ingest.Week > 25 {
		errs = append(errs, fmt.Sprintf("ingest: week must be 0-25, got %d", c.Ingest.Week))
	}
	if _, err := time.LoadLocation(c.Ingest.Timezone); err != nil {
		errs = append(errs, fmt.Sprintf("ingest: unknown timezone %q", c.Ingest.Timezone))
	}
	for _, d := range c.Ingest.GameDays {
		if _, err := time.Parse(time.DateOnly, d); err != nil {
			errs = append(errs, fmt.Sprintf("ingest: game_days entry %q is not YYYY-MM-DD", d))
		}
	}
	if c.Ingest.SportPath == "" {
		errs = append(errs, "ingest: sport_path must not be empty")
	}
	if c.Ingest.Workers < 1 {
		errs = append(errs, "ingest: workers must be >= 1")
	}
	needsCron := c.Mode == "schedule" || c.Mode == "full"
	if needsCron && c.Ingest.Cron == "" {
		errs = append(errs, "ingest: cron must be set for mode "+c.Mode)
	}
	if c.Ingest.ArchiveRaw && !c.S3.Enabled {
		errs = append(errs, "ingest: archive_raw requires s3.enabled")
	}

	// Bovada
	if c.Bovada.BaseURL == "" {
		errs = append(errs, "bovada: base_url must not be empty")
	}
	if c.Bovada.TimeoutSeconds < 1 {
		errs = append(errs, "bovada: timeout_seconds must be >= 1")
	}
	if c.Bovada.Retries < 1 {
		errs = append(errs, "bovada: retries must be >= 1")
	}
	if c.Bovada.ThrottleMS < 0 {
		errs = append(errs, "bovada: throttle_ms must be >= 0")
	}
	if c.Bovada.RateLimit > 0 && c.Bovada.RateWindowSeconds < 1 {
		errs = append(errs, "bovada: rate_window_seconds must be >= 1 when rate_limit is set")
	}

	// Teams
	if c.Teams.FuzzyThreshold <= 0 || c.Teams.FuzzyThreshold > 1 {
		errs = append(errs, fmt.Sprintf("teams: fuzzy_threshold must be in (0, 1], got %g", c.Teams.FuzzyThreshold))
	}

	// Postgres
	if strings.TrimSpace(c.Postgres.DSN) == "" {
		if c.Postgres.Host == "" {
			errs = append(errs, "postgres: host must not be empty (or set postgres.dsn)")
		}
		if c.Postgres.Port <= 0 || c.Postgres.Port > 65535 {
			errs = append(errs, fmt.Sprintf("postgres: port must be 1-65535, got %d", c.Postgres.Port))
		}
		if c.Postgres.Database == "" {
			errs = append(errs, "postgres: database must not be empty")
		}
	}
	if c.Postgres.PoolMaxConns < 1 {
		errs = append(errs, "postgres: pool_max_conns must be >= 1")
	}
	if c.Postgres.PoolMinConns < 0 {
		errs = append(errs, "postgres: pool_min_conns must be >= 0")
	}
	if c.Postgres.PoolMinConns > c.Postgres.PoolMaxConns {
		errs = append(errs, "postgres: pool_min_conns must not exceed pool_max_conns")
	}

	// Redis
	if c.Redis.Enabled {
		if c.Redis.Addr == "" {
			errs = append(errs, "redis: addr must not be empty")
		}
		if c.Redis.PoolSize < 1 {
			errs = append(errs, "redis: pool_size must be >= 1")
		}
	}

	// S3
	if c.S3.Enabled {
		if c.S3.Bucket == "" {
			errs = append(errs, "s3: bucket must not be empty")
		}
		if c.S3.Region == "" {
			errs = append(errs, "s3: region must not be empty")
		}
	}

	// Server
	needsServer := c.Mode == "server" || c.Mode == "full"
	if needsServer {
		if c.Server.Port <= 0 || c.Server.Port > 65535 {
			errs = append(errs, fmt.Sprintf("server: port must be 1-65535, got %d", c.Server.Port))
		}
	}

	// Notify
	if (c.Notify.TelegramToken == "") != (c.Notify.TelegramChatID == "") {
		errs = append(errs, "notify: telegram_token and telegram_chat_id must be set together")
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
