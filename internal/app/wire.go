package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/alanyoungcy/cfbspreads/internal/blob/s3"
	"github.com/alanyoungcy/cfbspreads/internal/cache/redis"
	"github.com/alanyoungcy/cfbspreads/internal/config"
	"github.com/alanyoungcy/cfbspreads/internal/domain"
	"github.com/alanyoungcy/cfbspreads/internal/notify"
	"github.com/alanyoungcy/cfbspreads/internal/platform/bovada"
	"github.com/alanyoungcy/cfbspreads/internal/server/handler"
	"github.com/alanyoungcy/cfbspreads/internal/store/postgres"
	"github.com/alanyoungcy/cfbspreads/internal/teams"
)

// Dependencies bundles every concrete dependency that the application modes
// need to operate. It is constructed by Wire and torn down by the returned
// cleanup function. Redis- and S3-backed fields are nil when those backends
// are disabled.
type Dependencies struct {
	Location *time.Location

	// Persistence
	UnitOfWork domain.UnitOfWorkFactory
	Postgres   *postgres.Client

	// Caches and coordination
	TeamCache   domain.TeamMappingCache
	RateLimiter domain.RateLimiter
	LockManager domain.LockManager
	SignalBus   domain.SignalBus

	// Blob storage
	BlobReader domain.BlobReader
	Archive    *s3blob.PayloadArchive

	// Upstream and resolution
	Bovada   *bovada.Client
	Resolver *teams.Resolver

	// Notifications
	Notifier *notify.Notifier

	// Health probes by dependency name.
	Checks map[string]handler.Checker
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, err
	}

	loc, err := cfg.Location()
	if err != nil {
		return nil, nil, fmt.Errorf("wire: %w", err)
	}
	deps := &Dependencies{
		Location: loc,
		Checks:   make(map[string]handler.Checker),
	}

	// --- PostgreSQL ---
	pgClient, err := postgres.New(ctx, postgres.ClientConfig{
		DSN:      cfg.Postgres.DSN,
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		Database: cfg.Postgres.Database,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		SSLMode:  cfg.Postgres.SSLMode,
		MaxConns: cfg.Postgres.PoolMaxConns,
		MinConns: cfg.Postgres.PoolMinConns,
		Location: loc,
	})
	if err != nil {
		return fail(fmt.Errorf("wire: postgres: %w", err))
	}
	closers = append(closers, pgClient.Close)

	if cfg.Postgres.RunMigrations {
		if err := pgClient.RunMigrations(ctx); err != nil {
			return fail(fmt.Errorf("wire: postgres migrations: %w", err))
		}
	}
	deps.Postgres = pgClient
	deps.UnitOfWork = pgClient
	deps.Checks["postgres"] = pgClient

	// --- Redis ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: redis: %w", err))
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		ttl := time.Duration(cfg.Teams.CacheTTLHours) * time.Hour
		deps.TeamCache = redis.NewTeamMappingCache(redisClient, ttl)
		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.LockManager = redis.NewLockManager(redisClient)
		deps.SignalBus = redis.NewSignalBus(redisClient)
		deps.Checks["redis"] = redisClient
	} else {
		logger.WarnContext(ctx, "redis disabled: no shared team cache, run lock, or rate limit")
	}

	// --- S3 blob storage ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			KeyPrefix:      cfg.S3.KeyPrefix,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: s3: %w", err))
		}
		closers = append(closers, func() { _ = s3Client.Close() })

		deps.BlobReader = s3blob.NewReader(s3Client)
		deps.Checks["s3"] = s3Client
		if cfg.Ingest.ArchiveRaw {
			deps.Archive = s3blob.NewPayloadArchive(
				s3blob.NewWriter(s3Client),
				postgres.NewAuditStore(pgClient.Pool()),
			)
		}
	}

	// --- Upstream client ---
	var opts []bovada.Option
	if deps.RateLimiter != nil {
		opts = append(opts, bovada.WithRateLimiter(deps.RateLimiter))
	}
	if deps.Archive != nil {
		opts = append(opts, bovada.WithObserver(deps.Archive))
	}
	deps.Bovada = bovada.NewClient(bovada.Config{
		BaseURL:    cfg.Bovada.BaseURL,
		ScoresURL:  cfg.Bovada.ScoresURL,
		Timeout:    time.Duration(cfg.Bovada.TimeoutSeconds) * time.Second,
		Retries:    cfg.Bovada.Retries,
		Throttle:   time.Duration(cfg.Bovada.ThrottleMS) * time.Millisecond,
		RateLimit:  cfg.Bovada.RateLimit,
		RateWindow: time.Duration(cfg.Bovada.RateWindowSeconds) * time.Second,
	}, logger.With(slog.String("component", "bovada")), opts...)

	// --- Team resolver ---
	aliases, err := loadAliases(cfg.Teams.AliasFile)
	if err != nil {
		return fail(fmt.Errorf("wire: %w", err))
	}
	deps.Resolver = teams.NewResolver(aliases, deps.TeamCache, cfg.Teams.FuzzyThreshold,
		logger.With(slog.String("component", "teams")))

	// --- Notifications ---
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		tg, err := notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID)
		if err != nil {
			return fail(fmt.Errorf("wire: telegram: %w", err))
		}
		senders = append(senders, tg)
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	deps.Notifier = notify.NewNotifier(senders, cfg.Notify.Events, logger)

	return deps, cleanup, nil
}

func loadAliases(path string) (*teams.AliasTable, error) {
	if path == "" {
		return teams.DefaultAliases()
	}
	return teams.LoadAliases(path)
}
