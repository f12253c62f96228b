package handler

import (
	"context"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

// ArchiveBrowser reads the raw payload archive.
type ArchiveBrowser interface {
	List(ctx context.Context, season, week int) ([]domain.ObjectInfo, error)
	Payloads(ctx context.Context, season, week int, runID string) ([]domain.RawPayload, error)
}

// ArchiveHandler serves archived upstream payloads per slate and run.
type ArchiveHandler struct {
	archive ArchiveBrowser
	logger  *slog.Logger
}

// NewArchiveHandler creates an ArchiveHandler.
func NewArchiveHandler(archive ArchiveBrowser, logger *slog.Logger) *ArchiveHandler {
	return &ArchiveHandler{archive: archive, logger: logHandler(logger, "archive")}
}

type archiveEntry struct {
	RunID        string `json:"run_id"`
	Path         string `json:"path"`
	Size         int64  `json:"size"`
	LastModified string `json:"last_modified,omitempty"`
}

func slateParams(w http.ResponseWriter, r *http.Request) (season, week int, ok bool) {
	if season, ok = pathInt(r, "season"); !ok {
		writeError(w, http.StatusBadRequest, "season must be an integer")
		return 0, 0, false
	}
	if week, ok = pathInt(r, "week"); !ok {
		writeError(w, http.StatusBadRequest, "week must be an integer")
		return 0, 0, false
	}
	return season, week, true
}

// List returns the archived runs of a slate.
// GET /api/archives/{season}/{week}
func (h *ArchiveHandler) List(w http.ResponseWriter, r *http.Request) {
	season, week, ok := slateParams(w, r)
	if !ok {
		return
	}

	objects, err := h.archive.List(r.Context(), season, week)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list archives failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusBadGateway, "failed to list archives")
		return
	}

	out := make([]archiveEntry, 0, len(objects))
	for _, o := range objects {
		e := archiveEntry{
			RunID: strings.TrimSuffix(path.Base(o.Path), ".jsonl.gz"),
			Path:  o.Path,
			Size:  o.Size,
		}
		if !o.LastModified.IsZero() {
			e.LastModified = o.LastModified.UTC().Format(time.RFC3339)
		}
		out = append(out, e)
	}
	writeJSON(w, http.StatusOK, map[string]any{"archives": out})
}

// Payloads returns the decoded payloads captured by one run.
// GET /api/archives/{season}/{week}/{run}
func (h *ArchiveHandler) Payloads(w http.ResponseWriter, r *http.Request) {
	season, week, ok := slateParams(w, r)
	if !ok {
		return
	}
	runID := r.PathValue("run")

	payloads, err := h.archive.Payloads(r.Context(), season, week, runID)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			h.logger.ErrorContext(r.Context(), "handler: read archive failed",
				slog.String("run_id", runID),
				slog.String("error", err.Error()),
			)
			status = http.StatusBadGateway
		}
		writeError(w, status, "archive unavailable for run "+runID)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"run_id":   runID,
		"payloads": payloads,
	})
}
