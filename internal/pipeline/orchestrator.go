package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
	"github.com/alanyoungcy/cfbspreads/internal/market"
)

// EventSource is the upstream odds aggregator.
type EventSource interface {
	FetchEvents(ctx context.Context, sportPath string) ([]domain.ExternalEvent, error)
	FetchEventDetail(ctx context.Context, link string) (domain.EventDetail, error)
	FetchScore(ctx context.Context, eventID string) (domain.Score, error)
}

// TeamResolver maps a raw source name to an internal team. Publish warms
// the shared mapping cache and is only called after the run commits.
type TeamResolver interface {
	Resolve(ctx context.Context, lookup domain.TeamLookup, raw string) (domain.TeamResolution, error)
	Publish(ctx context.Context, mappings []domain.TeamMapping)
}

// RunArchive receives the raw payloads of a run once it finishes.
type RunArchive interface {
	Flush(ctx context.Context, runID string, season, week int) (string, int, error)
	Discard(runID string)
}

// Reporter publishes a finished run.
type Reporter interface {
	Report(ctx context.Context, run domain.IngestRun)
}

// Config tunes an Orchestrator.
type Config struct {
	SportPath   string
	Workers     int
	FetchScores bool
	LockTTL     time.Duration
	Location    *time.Location
}

// Target names the slate a run writes to.
type Target struct {
	Season int
	Week   int
	Title  string
	Select Selector
}

// Option configures optional Orchestrator collaborators.
type Option func(*Orchestrator)

// WithLocks serialises runs for the same slate across processes.
func WithLocks(l domain.LockManager) Option { return func(o *Orchestrator) { o.locks = l } }

// WithArchive uploads raw payloads after each run.
func WithArchive(a RunArchive) Option { return func(o *Orchestrator) { o.archive = a } }

// WithReporter publishes run summaries.
func WithReporter(r Reporter) Option { return func(o *Orchestrator) { o.reporter = r } }

// WithClock overrides the wall clock used for the kickoff freeze.
func WithClock(now func() time.Time) Option { return func(o *Orchestrator) { o.now = now } }

// Orchestrator drives one ingestion run: discover, select, fetch and
// resolve markets, map teams, upsert games, and commit once.
type Orchestrator struct {
	source   EventSource
	teams    TeamResolver
	uow      domain.UnitOfWorkFactory
	locks    domain.LockManager
	archive  RunArchive
	reporter Reporter
	cfg      Config
	now      func() time.Time
	logger   *slog.Logger
}

// NewOrchestrator creates an Orchestrator.
func NewOrchestrator(
	source EventSource,
	teams TeamResolver,
	uow domain.UnitOfWorkFactory,
	cfg Config,
	logger *slog.Logger,
	opts ...Option,
) *Orchestrator {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	o := &Orchestrator{
		source: source,
		teams:  teams,
		uow:    uow,
		cfg:    cfg,
		now:    time.Now,
		logger: logger.With(slog.String("component", "orchestrator")),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// prepared is one selected event after its network phase.
type prepared struct {
	event   domain.ExternalEvent
	markets domain.ResolvedMarketSet
	score   *domain.Score
	err     error
}

// Run executes one ingestion run for t. Per-event failures are counted as
// skipped and never abort the batch. Discovery failures and store failures
// fail the run; store failures roll back every write of the run and are
// returned as *domain.PersistenceError.
func (o *Orchestrator) Run(ctx context.Context, t Target) (domain.IngestRun, error) {
	run := domain.IngestRun{
		ID:        uuid.NewString(),
		Season:    t.Season,
		Week:      t.Week,
		StartedAt: o.now().UTC(),
	}
	ctx = domain.WithRunID(ctx, run.ID)
	logger := o.logger.With(
		slog.String("run_id", run.ID),
		slog.Int("season", t.Season),
		slog.Int("week", t.Week),
	)

	if o.locks != nil {
		unlock, err := o.locks.Acquire(ctx, fmt.Sprintf("ingest:%d:%d", t.Season, t.Week), o.cfg.LockTTL)
		if err != nil {
			return run, fmt.Errorf("pipeline: acquire run lock: %w", err)
		}
		defer unlock()
	}

	logger.InfoContext(ctx, "ingest run starting", slog.String("sport", o.cfg.SportPath))

	events, err := o.source.FetchEvents(ctx, o.cfg.SportPath)
	if err != nil {
		return o.fail(ctx, logger, run, fmt.Errorf("pipeline: discover events: %w", err))
	}
	run.Discovered = len(events)

	selected := events
	if t.Select != nil {
		selected = slices.DeleteFunc(slices.Clone(events), func(ev domain.ExternalEvent) bool { return !t.Select(ev) })
	}
	run.Selected = len(selected)
	logger.InfoContext(ctx, "events selected",
		slog.Int("discovered", run.Discovered),
		slog.Int("selected", run.Selected),
	)

	batch, err := o.prepare(ctx, selected)
	if err != nil {
		return o.fail(ctx, logger, run, err)
	}

	if err := o.write(ctx, logger, &run, t, batch); err != nil {
		return o.fail(ctx, logger, run, err)
	}

	o.finish(ctx, logger, run)
	return run, nil
}

// prepare fetches detail and scores for each event on a bounded worker
// pool. Per-event failures are stored on the result, not returned.
func (o *Orchestrator) prepare(ctx context.Context, events []domain.ExternalEvent) ([]prepared, error) {
	out := make([]prepared, len(events))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.cfg.Workers)
	for i, ev := range events {
		g.Go(func() error {
			out[i] = o.prepareOne(gctx, ev)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("pipeline: run cancelled: %w", err)
	}
	return out, nil
}

func (o *Orchestrator) prepareOne(ctx context.Context, ev domain.ExternalEvent) prepared {
	p := prepared{event: ev}
	if !ev.HasTeams() {
		p.err = fmt.Errorf("event %s: missing team names: %w", ev.ID, domain.ErrInvalidInput)
		return p
	}

	if ev.Link != "" {
		detail, err := o.source.FetchEventDetail(ctx, ev.Link)
		if err != nil {
			p.err = fmt.Errorf("event %s: fetch detail: %w", ev.ID, err)
			return p
		}
		p.markets = market.Resolve(detail, market.Teams{
			HomeID:   ev.HomeID,
			AwayID:   ev.AwayID,
			HomeName: ev.HomeName,
			AwayName: ev.AwayName,
		})
	}

	if o.cfg.FetchScores && ev.Live {
		score, err := o.source.FetchScore(ctx, ev.ID)
		switch {
		case err == nil:
			p.score = &score
		case errors.Is(err, domain.ErrNotFound):
		default:
			o.logger.WarnContext(ctx, "score fetch failed",
				slog.String("event_id", ev.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return p
}

// write runs the transactional phase. Any returned error has already
// rolled the unit of work back.
func (o *Orchestrator) write(ctx context.Context, logger *slog.Logger, run *domain.IngestRun, t Target, batch []prepared) (err error) {
	uow, err := o.uow.Begin(ctx)
	if err != nil {
		return &domain.PersistenceError{Op: "begin", Err: err}
	}
	defer func() {
		if err != nil {
			if rbErr := uow.Rollback(ctx); rbErr != nil {
				logger.ErrorContext(ctx, "rollback failed", slog.String("error", rbErr.Error()))
			}
		}
	}()

	title := t.Title
	if title == "" {
		title = fmt.Sprintf("Week %d - Weekend Games", t.Week)
	}
	slate, err := uow.Slates().GetOrCreate(ctx, t.Season, t.Week, title)
	if err != nil {
		return &domain.PersistenceError{Op: "get or create slate", Err: err}
	}
	run.SlateID = slate.ID

	upserter := NewUpserter(o.cfg.Location, o.now)
	unmapped := make(map[string]struct{})
	var learned []domain.TeamMapping

	for _, p := range batch {
		ev := p.event
		if p.err != nil {
			run.Skipped++
			logger.WarnContext(ctx, "event skipped", slog.String("event_id", ev.ID), slog.String("error", p.err.Error()))
			continue
		}

		home, homeErr := o.teams.Resolve(ctx, uow, ev.HomeName)
		away, awayErr := o.teams.Resolve(ctx, uow, ev.AwayName)
		for _, res := range []domain.TeamResolution{home, away} {
			if res.Mapping != nil {
				learned = append(learned, *res.Mapping)
			}
		}
		if homeErr != nil || awayErr != nil {
			for _, side := range []struct {
				name string
				err  error
			}{{ev.HomeName, homeErr}, {ev.AwayName, awayErr}} {
				if side.err == nil {
					continue
				}
				if !errors.Is(side.err, domain.ErrUnresolvedTeam) {
					return &domain.PersistenceError{Op: "resolve team", Err: side.err}
				}
				unmapped[side.name] = struct{}{}
			}
			run.Skipped++
			logger.WarnContext(ctx, "event skipped: unmapped team",
				slog.String("event_id", ev.ID),
				slog.String("home", ev.HomeName),
				slog.String("away", ev.AwayName),
			)
			continue
		}

		rec, action, upErr := upserter.Upsert(ctx, uow.Games(), GameInput{
			SlateID:    slate.ID,
			EventID:    ev.ID,
			HomeTeamID: home.TeamID,
			AwayTeamID: away.TeamID,
			Kickoff:    ev.StartTime,
			Status:     ev.Status,
			Markets:    p.markets,
			Score:      p.score,
		})
		switch {
		case errors.Is(upErr, domain.ErrDuplicateMatchup):
			run.Skipped++
			logger.WarnContext(ctx, "event skipped", slog.String("event_id", ev.ID), slog.String("error", upErr.Error()))
			continue
		case upErr != nil:
			return upErr
		}

		switch action {
		case domain.ActionCreated:
			run.Created++
		case domain.ActionFrozen:
			run.Updated++
			run.Frozen++
		default:
			run.Updated++
		}
		logger.InfoContext(ctx, "game "+string(action),
			slog.Int64("game_id", rec.ID),
			slog.String("matchup", away.TeamName+" @ "+home.TeamName),
			slog.String("spread", deref(rec.Lines.HomeSpread)),
		)
	}

	for name := range unmapped {
		run.Unmapped = append(run.Unmapped, name)
	}
	slices.Sort(run.Unmapped)

	run.Status = domain.RunSucceeded
	run.FinishedAt = o.now().UTC()

	if err = uow.Runs().Insert(ctx, *run); err != nil {
		return &domain.PersistenceError{Op: "insert run", Err: err}
	}
	if err = uow.Audit().Log(ctx, "ingest.run", map[string]any{
		"run_id":   run.ID,
		"slate_id": run.SlateID,
		"created":  run.Created,
		"updated":  run.Updated,
		"skipped":  run.Skipped,
		"unmapped": run.Unmapped,
	}); err != nil {
		return &domain.PersistenceError{Op: "audit run", Err: err}
	}
	if err = uow.Commit(ctx); err != nil {
		return &domain.PersistenceError{Op: "commit", Err: err}
	}
	o.teams.Publish(ctx, learned)
	return nil
}

// fail records a failed run outside the aborted transaction and reports it.
func (o *Orchestrator) fail(ctx context.Context, logger *slog.Logger, run domain.IngestRun, cause error) (domain.IngestRun, error) {
	run.Status = domain.RunFailed
	run.Error = cause.Error()
	run.FinishedAt = o.now().UTC()
	run.Created, run.Updated, run.Frozen = 0, 0, 0

	logger.ErrorContext(ctx, "ingest run failed", slog.String("error", run.Error))

	if uow, err := o.uow.Begin(ctx); err == nil {
		if err := uow.Runs().Insert(ctx, run); err != nil {
			_ = uow.Rollback(ctx)
			logger.WarnContext(ctx, "record failed run", slog.String("error", err.Error()))
		} else if err := uow.Commit(ctx); err != nil {
			logger.WarnContext(ctx, "record failed run", slog.String("error", err.Error()))
		}
	}

	if o.archive != nil {
		o.archive.Discard(run.ID)
	}
	if o.reporter != nil {
		o.reporter.Report(ctx, run)
	}
	return run, cause
}

func (o *Orchestrator) finish(ctx context.Context, logger *slog.Logger, run domain.IngestRun) {
	logger.InfoContext(ctx, "ingest run complete",
		slog.Int("created", run.Created),
		slog.Int("updated", run.Updated),
		slog.Int("frozen", run.Frozen),
		slog.Int("skipped", run.Skipped),
		slog.Any("unmapped", run.Unmapped),
		slog.Duration("elapsed", run.FinishedAt.Sub(run.StartedAt)),
	)

	if o.archive != nil {
		path, n, err := o.archive.Flush(ctx, run.ID, run.Season, run.Week)
		if err != nil {
			logger.WarnContext(ctx, "payload archive failed", slog.String("error", err.Error()))
		} else if n > 0 {
			logger.InfoContext(ctx, "payloads archived", slog.String("path", path), slog.Int("count", n))
		}
	}
	if o.reporter != nil {
		o.reporter.Report(ctx, run)
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
