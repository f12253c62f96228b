package pipeline

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

// ChannelIngest is the signal bus channel that carries run summaries.
const ChannelIngest = "ch:ingest"

// RunNotifier alerts operators about a finished run.
type RunNotifier interface {
	NotifyRun(ctx context.Context, run domain.IngestRun) error
}

// RunReporter publishes run summaries on the signal bus and forwards them
// to the notifier. Either may be nil.
type RunReporter struct {
	bus      domain.SignalBus
	notifier RunNotifier
	logger   *slog.Logger
}

// NewRunReporter creates a RunReporter.
func NewRunReporter(bus domain.SignalBus, notifier RunNotifier, logger *slog.Logger) *RunReporter {
	return &RunReporter{bus: bus, notifier: notifier, logger: logger}
}

// RunEvent is the JSON payload published for each run.
type RunEvent struct {
	Event      string   `json:"event"`
	RunID      string   `json:"run_id"`
	Season     int      `json:"season"`
	Week       int      `json:"week"`
	Status     string   `json:"status"`
	Discovered int      `json:"discovered"`
	Selected   int      `json:"selected"`
	Created    int      `json:"created"`
	Updated    int      `json:"updated"`
	Frozen     int      `json:"frozen"`
	Skipped    int      `json:"skipped"`
	Unmapped   []string `json:"unmapped"`
	Error      string   `json:"error,omitempty"`
	FinishedAt string   `json:"finished_at"`
}

// NewRunEvent builds the published form of run.
func NewRunEvent(run domain.IngestRun) RunEvent {
	unmapped := run.Unmapped
	if unmapped == nil {
		unmapped = []string{}
	}
	return RunEvent{
		Event:      "ingest_run",
		RunID:      run.ID,
		Season:     run.Season,
		Week:       run.Week,
		Status:     string(run.Status),
		Discovered: run.Discovered,
		Selected:   run.Selected,
		Created:    run.Created,
		Updated:    run.Updated,
		Frozen:     run.Frozen,
		Skipped:    run.Skipped,
		Unmapped:   unmapped,
		Error:      run.Error,
		FinishedAt: run.FinishedAt.UTC().Format(time.RFC3339),
	}
}

// Report publishes run. Failures are logged and never returned.
func (r *RunReporter) Report(ctx context.Context, run domain.IngestRun) {
	if r.bus != nil {
		evt, _ := json.Marshal(NewRunEvent(run))
		if err := r.bus.Publish(ctx, ChannelIngest, evt); err != nil {
			r.logger.WarnContext(ctx, "publish run summary failed",
				slog.String("run_id", run.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	if r.notifier != nil {
		if err := r.notifier.NotifyRun(ctx, run); err != nil {
			r.logger.WarnContext(ctx, "notify run summary failed",
				slog.String("run_id", run.ID),
				slog.String("error", err.Error()),
			)
		}
	}
}
