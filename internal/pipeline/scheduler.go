package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

// Runner executes one ingestion run.
type Runner interface {
	Run(ctx context.Context, t Target) (domain.IngestRun, error)
}

// Scheduler feeds ingestion runs to a single worker from a cron schedule
// and from manual triggers. At most one trigger is queued while a run is
// in flight; further triggers coalesce into it.
type Scheduler struct {
	runner  Runner
	target  Target
	spec    string
	loc     *time.Location
	trigger chan string
	logger  *slog.Logger

	mu      sync.Mutex
	last    *domain.IngestRun
	lastErr error
	running bool
	next    time.Time
}

// NewScheduler creates a Scheduler. An empty spec disables the cron
// schedule and leaves manual triggers only.
func NewScheduler(runner Runner, target Target, spec string, loc *time.Location, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		runner:  runner,
		target:  target,
		spec:    spec,
		loc:     loc,
		trigger: make(chan string, 1),
		logger:  logger.With(slog.String("component", "scheduler")),
	}
}

// Trigger queues a run. It reports false when a run is already queued.
func (s *Scheduler) Trigger(reason string) bool {
	select {
	case s.trigger <- reason:
		return true
	default:
		return false
	}
}

// RunLoop runs the cron schedule and the worker until ctx is cancelled.
func (s *Scheduler) RunLoop(ctx context.Context) error {
	var c *cron.Cron
	if s.spec != "" {
		c = cron.New(cron.WithLocation(s.loc))
		if _, err := c.AddFunc(s.spec, func() {
			if !s.Trigger("cron") {
				s.logger.Warn("cron tick dropped: run already queued")
			}
		}); err != nil {
			return fmt.Errorf("pipeline: cron spec %q: %w", s.spec, err)
		}
		c.Start()
		defer func() { <-c.Stop().Done() }()
		s.setNext(c)
		s.logger.Info("scheduler started", slog.String("cron", s.spec), slog.Time("next_run", s.Status().Next))
	}

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("scheduler stopped")
			return ctx.Err()
		case reason := <-s.trigger:
			s.execute(ctx, reason)
			if c != nil {
				s.setNext(c)
			}
		}
	}
}

func (s *Scheduler) execute(ctx context.Context, reason string) {
	s.mu.Lock()
	s.running = true
	s.mu.Unlock()

	s.logger.Info("ingest triggered", slog.String("reason", reason))
	run, err := s.runner.Run(ctx, s.target)
	if err != nil {
		s.logger.Error("ingest run failed",
			slog.String("reason", reason),
			slog.String("error", err.Error()),
		)
	}

	s.mu.Lock()
	s.running = false
	s.last = &run
	s.lastErr = err
	s.mu.Unlock()
}

func (s *Scheduler) setNext(c *cron.Cron) {
	entries := c.Entries()
	if len(entries) == 0 {
		return
	}
	s.mu.Lock()
	s.next = entries[0].Next
	s.mu.Unlock()
}

// SchedulerStatus is a snapshot of the scheduler.
type SchedulerStatus struct {
	Running bool
	Next    time.Time
	Last    *domain.IngestRun
	LastErr error
}

// Status returns the current scheduler snapshot.
func (s *Scheduler) Status() SchedulerStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return SchedulerStatus{Running: s.running, Next: s.next, Last: s.last, LastErr: s.lastErr}
}
