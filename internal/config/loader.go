package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path (skipped when empty), merges it on top of the
// built-in defaults, applies CFBSPREADS_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: decode %s: %w", path, err)
		}
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known CFBSPREADS_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets operators inject secrets at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Ingest ──
	setInt(&cfg.Ingest.Season, "CFBSPREADS_INGEST_SEASON")
	setInt(&cfg.Ingest.Week, "CFBSPREADS_INGEST_WEEK")
	setStr(&cfg.Ingest.Title, "CFBSPREADS_INGEST_TITLE")
	setStringSlice(&cfg.Ingest.GameDays, "CFBSPREADS_INGEST_GAME_DAYS")
	setStr(&cfg.Ingest.Timezone, "CFBSPREADS_INGEST_TIMEZONE")
	setStr(&cfg.Ingest.SportPath, "CFBSPREADS_INGEST_SPORT_PATH")
	setInt(&cfg.Ingest.Workers, "CFBSPREADS_INGEST_WORKERS")
	setStr(&cfg.Ingest.Cron, "CFBSPREADS_INGEST_CRON")
	setBool(&cfg.Ingest.FetchScores, "CFBSPREADS_INGEST_FETCH_SCORES")
	setBool(&cfg.Ingest.ArchiveRaw, "CFBSPREADS_INGEST_ARCHIVE_RAW")
	setInt(&cfg.Ingest.LockTTLSeconds, "CFBSPREADS_INGEST_LOCK_TTL_SECONDS")

	// ── Bovada ──
	setStr(&cfg.Bovada.BaseURL, "CFBSPREADS_BOVADA_BASE_URL")
	setStr(&cfg.Bovada.ScoresURL, "CFBSPREADS_BOVADA_SCORES_URL")
	setInt(&cfg.Bovada.TimeoutSeconds, "CFBSPREADS_BOVADA_TIMEOUT_SECONDS")
	setInt(&cfg.Bovada.Retries, "CFBSPREADS_BOVADA_RETRIES")
	setInt(&cfg.Bovada.ThrottleMS, "CFBSPREADS_BOVADA_THROTTLE_MS")
	setInt(&cfg.Bovada.RateLimit, "CFBSPREADS_BOVADA_RATE_LIMIT")
	setInt(&cfg.Bovada.RateWindowSeconds, "CFBSPREADS_BOVADA_RATE_WINDOW_SECONDS")

	// ── Teams ──
	setStr(&cfg.Teams.AliasFile, "CFBSPREADS_TEAMS_ALIAS_FILE")
	setFloat64(&cfg.Teams.FuzzyThreshold, "CFBSPREADS_TEAMS_FUZZY_THRESHOLD")
	setInt(&cfg.Teams.CacheTTLHours, "CFBSPREADS_TEAMS_CACHE_TTL_HOURS")

	// ── Postgres ──
	setStr(&cfg.Postgres.DSN, "CFBSPREADS_POSTGRES_DSN")
	setStr(&cfg.Postgres.DSN, "DATABASE_URL") // Heroku-style alias
	setStr(&cfg.Postgres.Host, "CFBSPREADS_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "CFBSPREADS_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "CFBSPREADS_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "CFBSPREADS_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "CFBSPREADS_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "CFBSPREADS_POSTGRES_SSL_MODE")
	setInt(&cfg.Postgres.PoolMaxConns, "CFBSPREADS_POSTGRES_POOL_MAX_CONNS")
	setInt(&cfg.Postgres.PoolMinConns, "CFBSPREADS_POSTGRES_POOL_MIN_CONNS")
	setBool(&cfg.Postgres.RunMigrations, "CFBSPREADS_POSTGRES_RUN_MIGRATIONS")

	// ── Redis ──
	setBool(&cfg.Redis.Enabled, "CFBSPREADS_REDIS_ENABLED")
	setStr(&cfg.Redis.Addr, "CFBSPREADS_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "CFBSPREADS_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "CFBSPREADS_REDIS_DB")
	setInt(&cfg.Redis.PoolSize, "CFBSPREADS_REDIS_POOL_SIZE")
	setInt(&cfg.Redis.MaxRetries, "CFBSPREADS_REDIS_MAX_RETRIES")
	setBool(&cfg.Redis.TLSEnabled, "CFBSPREADS_REDIS_TLS_ENABLED")

	// ── S3 ──
	setBool(&cfg.S3.Enabled, "CFBSPREADS_S3_ENABLED")
	setStr(&cfg.S3.Endpoint, "CFBSPREADS_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "CFBSPREADS_S3_REGION")
	setStr(&cfg.S3.Bucket, "CFBSPREADS_S3_BUCKET")
	setStr(&cfg.S3.KeyPrefix, "CFBSPREADS_S3_KEY_PREFIX")
	setStr(&cfg.S3.AccessKey, "CFBSPREADS_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "CFBSPREADS_S3_SECRET_KEY")
	setBool(&cfg.S3.UseSSL, "CFBSPREADS_S3_USE_SSL")
	setBool(&cfg.S3.ForcePathStyle, "CFBSPREADS_S3_FORCE_PATH_STYLE")

	// ── Server ──
	setInt(&cfg.Server.Port, "CFBSPREADS_SERVER_PORT")
	setInt(&cfg.Server.Port, "PORT") // platform-assigned port wins
	setStr(&cfg.Server.APIKey, "CFBSPREADS_SERVER_API_KEY")
	setStringSlice(&cfg.Server.CORSOrigins, "CFBSPREADS_SERVER_CORS_ORIGINS")

	// ── Notify ──
	setStr(&cfg.Notify.TelegramToken, "CFBSPREADS_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "CFBSPREADS_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "CFBSPREADS_NOTIFY_DISCORD_WEBHOOK_URL")
	setStringSlice(&cfg.Notify.Events, "CFBSPREADS_NOTIFY_EVENTS")

	// ── Top-level ──
	setStr(&cfg.Mode, "CFBSPREADS_MODE")
	setStr(&cfg.LogLevel, "CFBSPREADS_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setStringSlice(dst *[]string, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		cleaned := make([]string, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p != "" {
				cleaned = append(cleaned, p)
			}
		}
		if len(cleaned) > 0 {
			*dst = cleaned
		}
	}
}
