package handler

import (
	"net/http"
	"time"

	"github.com/alanyoungcy/cfbspreads/internal/pipeline"
)

// SchedulerState exposes the scheduler snapshot.
type SchedulerState interface {
	Status() pipeline.SchedulerStatus
}

// StatusHandler serves the backend status (mode, target slate, scheduler).
type StatusHandler struct {
	Mode      string
	Season    int
	Week      int
	scheduler SchedulerState
	startedAt time.Time
}

// NewStatusHandler creates a StatusHandler. scheduler may be nil when the
// process is not scheduling runs.
func NewStatusHandler(mode string, season, week int, scheduler SchedulerState) *StatusHandler {
	return &StatusHandler{Mode: mode, Season: season, Week: week, scheduler: scheduler, startedAt: time.Now().UTC()}
}

// GetStatus responds with the current mode, target slate and scheduler state.
// GET /api/status
func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	out := map[string]any{
		"mode":           h.Mode,
		"season":         h.Season,
		"week":           h.Week,
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	}
	if h.scheduler != nil {
		st := h.scheduler.Status()
		sched := map[string]any{"running": st.Running}
		if !st.Next.IsZero() {
			sched["next_run"] = st.Next.UTC().Format(time.RFC3339)
		}
		if st.Last != nil {
			sched["last_run"] = pipeline.NewRunEvent(*st.Last)
		}
		if st.LastErr != nil {
			sched["last_error"] = st.LastErr.Error()
		}
		out["scheduler"] = sched
	}
	writeJSON(w, http.StatusOK, out)
}
