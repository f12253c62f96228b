package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	s3blob "github.com/alanyoungcy/cfbspreads/internal/blob/s3"
	"github.com/alanyoungcy/cfbspreads/internal/pipeline"
	"github.com/alanyoungcy/cfbspreads/internal/server"
	"github.com/alanyoungcy/cfbspreads/internal/server/handler"
	"github.com/alanyoungcy/cfbspreads/internal/server/ws"
	"github.com/alanyoungcy/cfbspreads/internal/service"
)

// IngestMode performs one ingestion run for the configured slate and
// returns. A failed run is returned as an error so the process exits
// non-zero for the calling scheduler.
func (a *App) IngestMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting ingest mode")

	orch := a.newOrchestrator(deps)
	target, err := a.target(deps)
	if err != nil {
		return err
	}

	run, err := orch.Run(ctx, target)
	if err != nil {
		return fmt.Errorf("ingest mode: run %s: %w", run.ID, err)
	}
	a.logger.InfoContext(ctx, "ingest complete",
		slog.String("run_id", run.ID),
		slog.Int("created", run.Created),
		slog.Int("updated", run.Updated),
		slog.Int("skipped", run.Skipped),
		slog.Any("unmapped", run.Unmapped),
	)
	return nil
}

// ScheduleMode runs ingestion on the configured cron schedule, starting
// with one immediate run.
func (a *App) ScheduleMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting schedule mode")

	sched, err := a.newScheduler(deps)
	if err != nil {
		return err
	}
	sched.Trigger("startup")
	return ignoreCanceled(sched.RunLoop(ctx))
}

// ServerMode serves the HTTP API without scheduling runs.
func (a *App) ServerMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting server mode")

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, nil)
	return ignoreCanceled(g.Wait())
}

// FullMode runs the scheduler and the HTTP API together. Manual triggers
// from the API feed the same scheduler.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode")

	sched, err := a.newScheduler(deps)
	if err != nil {
		return err
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return sched.RunLoop(ctx)
	})
	sched.Trigger("startup")

	a.startHTTPServer(ctx, g, deps, sched)
	return ignoreCanceled(g.Wait())
}

func (a *App) target(deps *Dependencies) (pipeline.Target, error) {
	sel, err := pipeline.GameDays(a.cfg.Ingest.GameDays, deps.Location)
	if err != nil {
		return pipeline.Target{}, fmt.Errorf("app: game days: %w", err)
	}
	return pipeline.Target{
		Season: a.cfg.Ingest.Season,
		Week:   a.cfg.Ingest.Week,
		Title:  a.cfg.Ingest.Title,
		Select: sel,
	}, nil
}

func (a *App) newOrchestrator(deps *Dependencies) *pipeline.Orchestrator {
	opts := []pipeline.Option{
		pipeline.WithReporter(pipeline.NewRunReporter(deps.SignalBus, deps.Notifier, a.base)),
	}
	if deps.LockManager != nil {
		opts = append(opts, pipeline.WithLocks(deps.LockManager))
	}
	if deps.Archive != nil {
		opts = append(opts, pipeline.WithArchive(deps.Archive))
	}
	return pipeline.NewOrchestrator(
		deps.Bovada,
		deps.Resolver,
		deps.UnitOfWork,
		pipeline.Config{
			SportPath:   a.cfg.Ingest.SportPath,
			Workers:     a.cfg.Ingest.Workers,
			FetchScores: a.cfg.Ingest.FetchScores,
			LockTTL:     a.cfg.LockTTL(),
			Location:    deps.Location,
		},
		a.base,
		opts...,
	)
}

func (a *App) newScheduler(deps *Dependencies) (*pipeline.Scheduler, error) {
	target, err := a.target(deps)
	if err != nil {
		return nil, err
	}
	return pipeline.NewScheduler(a.newOrchestrator(deps), target, a.cfg.Ingest.Cron, deps.Location, a.base), nil
}

// startHTTPServer registers the API and the WebSocket hub and runs the
// server in g until ctx is cancelled. sched may be nil.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, sched *pipeline.Scheduler) {
	slates := service.NewSlateService(deps.UnitOfWork, deps.Location, a.base)
	mappings := service.NewMappingService(deps.UnitOfWork, deps.Resolver, a.base)

	var (
		trigger handler.Triggerer
		state   handler.SchedulerState
	)
	if sched != nil {
		trigger, state = sched, sched
	}

	handlers := server.Handlers{
		Health:   handler.NewHealthHandler(deps.Checks, a.base),
		Status:   handler.NewStatusHandler(a.cfg.Mode, a.cfg.Ingest.Season, a.cfg.Ingest.Week, state),
		Ingest:   handler.NewIngestHandler(trigger, slates, a.base),
		Slates:   handler.NewSlateHandler(slates, a.base),
		Mappings: handler.NewMappingHandler(mappings, a.base),
		Audit:    handler.NewAuditHandler(service.NewAuditService(deps.UnitOfWork), a.base),
	}
	if deps.BlobReader != nil {
		handlers.Archives = handler.NewArchiveHandler(s3blob.NewArchiveBrowser(deps.BlobReader), a.base)
	}

	// WebSocket hub requires the signal bus.
	var hub *ws.Hub
	if deps.SignalBus != nil {
		hub = ws.NewHub(deps.SignalBus, a.base, ws.Config{
			Mode:           a.cfg.Mode,
			Season:         a.cfg.Ingest.Season,
			Week:           a.cfg.Ingest.Week,
			StartedAt:      time.Now().UTC(),
			AllowedOrigins: a.cfg.Server.CORSOrigins,
		})
		g.Go(func() error {
			return hub.Run(ctx)
		})
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		APIKey:      a.cfg.Server.APIKey,
		RateLimit:   120,
		RateWindow:  time.Minute,
	}, handlers, hub, deps.RateLimiter, a.base)

	g.Go(srv.Start)
	g.Go(func() error {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutCtx)
	})
}

// ignoreCanceled treats shutdown by signal as a clean exit.
func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

var _ pipeline.RunArchive = (*s3blob.PayloadArchive)(nil)
