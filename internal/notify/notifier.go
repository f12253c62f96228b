// Package notify delivers operator alerts about ingestion runs to one or
// more channels (Telegram, Discord). Alerts can be filtered by event type.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

// Event types understood by Notify.
const (
	EventRunFailed     = "run_failed"
	EventUnmappedTeams = "unmapped_teams"
	EventRunSummary    = "run_summary"
)

// Sender is the interface that each notification channel must implement.
type Sender interface {
	Send(ctx context.Context, title, message string) error
	Name() string
}

// Notifier dispatches notifications to one or more Senders. Only event
// types in the allowed set are forwarded; an empty set allows everything.
type Notifier struct {
	senders []Sender
	events  map[string]bool
	logger  *slog.Logger
}

// NewNotifier creates a Notifier for the given senders and event filter.
func NewNotifier(senders []Sender, events []string, logger *slog.Logger) *Notifier {
	allowed := make(map[string]bool, len(events))
	for _, e := range events {
		if e = strings.TrimSpace(e); e != "" {
			allowed[e] = true
		}
	}
	return &Notifier{
		senders: senders,
		events:  allowed,
		logger:  logger.With(slog.String("component", "notifier")),
	}
}

// Notify sends a notification if the event type is allowed.
func (n *Notifier) Notify(ctx context.Context, event, title, message string) error {
	if len(n.events) > 0 && !n.events[event] {
		n.logger.DebugContext(ctx, "event filtered out", slog.String("event", event))
		return nil
	}
	return n.dispatch(ctx, title, message)
}

// NotifyRun alerts on a finished run: failures and unmapped teams get their
// own event types, every run also emits a summary event.
func (n *Notifier) NotifyRun(ctx context.Context, run domain.IngestRun) error {
	event := EventRunSummary
	switch {
	case run.Status == domain.RunFailed:
		event = EventRunFailed
	case len(run.Unmapped) > 0:
		event = EventUnmappedTeams
	}
	title, message := FormatRun(run)
	return n.Notify(ctx, event, title, message)
}

// FormatRun renders the batch summary of a run.
func FormatRun(run domain.IngestRun) (title, message string) {
	title = fmt.Sprintf("Spreads ingest %d week %d: %s", run.Season, run.Week, run.Status)

	var b strings.Builder
	fmt.Fprintf(&b, "created %d, updated %d (%d frozen), skipped %d of %d selected",
		run.Created, run.Updated, run.Frozen, run.Skipped, run.Selected)
	if len(run.Unmapped) > 0 {
		fmt.Fprintf(&b, "\nunmapped teams: %s", strings.Join(run.Unmapped, ", "))
	}
	if run.Error != "" {
		fmt.Fprintf(&b, "\nerror: %s", run.Error)
	}
	fmt.Fprintf(&b, "\nrun %s", run.ID)
	return title, b.String()
}

// dispatch sends to every sender; one failure does not stop the others.
func (n *Notifier) dispatch(ctx context.Context, title, message string) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, title, message); err != nil {
			n.logger.ErrorContext(ctx, "sender failed",
				slog.String("sender", s.Name()),
				slog.String("error", err.Error()),
			)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		n.logger.DebugContext(ctx, "notification sent",
			slog.String("sender", s.Name()),
			slog.String("title", title),
		)
	}

	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
