package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
	"github.com/alanyoungcy/cfbspreads/internal/pipeline"
)

// Triggerer enqueues an out-of-schedule ingestion run.
type Triggerer interface {
	Trigger(reason string) bool
}

// RunLister reads recent ingestion run summaries.
type RunLister interface {
	RecentRuns(ctx context.Context, limit int) ([]domain.IngestRun, error)
}

// IngestHandler serves ingestion trigger and history endpoints.
type IngestHandler struct {
	trigger Triggerer
	runs    RunLister
	logger  *slog.Logger
}

// NewIngestHandler creates an IngestHandler. trigger may be nil, in which
// case the trigger endpoint responds 503.
func NewIngestHandler(trigger Triggerer, runs RunLister, logger *slog.Logger) *IngestHandler {
	return &IngestHandler{trigger: trigger, runs: runs, logger: logHandler(logger, "ingest")}
}

// Trigger enqueues one ingestion run. Triggers that arrive while one is
// already pending are coalesced into it.
// POST /api/ingest/trigger
func (h *IngestHandler) Trigger(w http.ResponseWriter, r *http.Request) {
	if h.trigger == nil {
		writeError(w, http.StatusServiceUnavailable, "scheduler not running")
		return
	}
	queued := h.trigger.Trigger("api")
	h.logger.InfoContext(r.Context(), "handler: ingest trigger requested",
		slog.Bool("queued", queued),
	)
	msg := "ingest run enqueued"
	if !queued {
		msg = "ingest run already pending"
	}
	writeJSON(w, http.StatusAccepted, map[string]any{
		"status":       "accepted",
		"queued":       queued,
		"message":      msg,
		"requested_at": time.Now().UTC().Format(time.RFC3339),
	})
}

// ListRuns returns recent run summaries, newest first.
// GET /api/ingest/runs?limit=20
func (h *IngestHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	runs, err := h.runs.RecentRuns(r.Context(), limit)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list runs failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}

	out := make([]pipeline.RunEvent, 0, len(runs))
	for _, run := range runs {
		out = append(out, pipeline.NewRunEvent(run))
	}
	writeJSON(w, http.StatusOK, map[string]any{"runs": out})
}
