package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/cfbspreads/internal/service"
)

// SlateReader loads a slate with its games.
type SlateReader interface {
	Get(ctx context.Context, season, week int) (service.SlateView, error)
}

// SlateHandler serves slate and game endpoints.
type SlateHandler struct {
	slates SlateReader
	logger *slog.Logger
}

// NewSlateHandler creates a SlateHandler.
func NewSlateHandler(slates SlateReader, logger *slog.Logger) *SlateHandler {
	return &SlateHandler{slates: slates, logger: logHandler(logger, "slate")}
}

// GetGames returns the slate for a season and week with every game.
// GET /api/slates/{season}/{week}/games
func (h *SlateHandler) GetGames(w http.ResponseWriter, r *http.Request) {
	season, ok := pathInt(r, "season")
	if !ok {
		writeError(w, http.StatusBadRequest, "season must be an integer")
		return
	}
	week, ok := pathInt(r, "week")
	if !ok {
		writeError(w, http.StatusBadRequest, "week must be an integer")
		return
	}

	slate, err := h.slates.Get(r.Context(), season, week)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusNotFound {
			writeError(w, status, "slate not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: get slate failed",
			slog.Int("season", season),
			slog.Int("week", week),
			slog.String("error", err.Error()),
		)
		writeError(w, status, "failed to load slate")
		return
	}
	writeJSON(w, http.StatusOK, slate)
}
