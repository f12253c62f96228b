package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
	"github.com/alanyoungcy/cfbspreads/internal/service"
)

// MappingService lists and overrides team-name mappings.
type MappingService interface {
	List(ctx context.Context, opts domain.ListOpts) ([]service.MappingView, error)
	Override(ctx context.Context, source, teamName string) (service.MappingView, error)
}

// MappingHandler serves the team-mapping admin endpoints.
type MappingHandler struct {
	mappings MappingService
	logger   *slog.Logger
}

// NewMappingHandler creates a MappingHandler.
func NewMappingHandler(mappings MappingService, logger *slog.Logger) *MappingHandler {
	return &MappingHandler{mappings: mappings, logger: logHandler(logger, "mapping")}
}

type overrideRequest struct {
	SourceName string `json:"source_name"`
	TeamName   string `json:"team_name"`
}

// List returns cached source-name mappings.
// GET /api/team-mappings?limit=50&offset=0
func (h *MappingHandler) List(w http.ResponseWriter, r *http.Request) {
	opts := parseListOpts(r)
	mappings, err := h.mappings.List(r.Context(), opts)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list mappings failed",
			slog.String("error", err.Error()),
		)
		writeError(w, http.StatusInternalServerError, "failed to list team mappings")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"mappings": mappings,
		"limit":    opts.Limit,
		"offset":   opts.Offset,
	})
}

// Override pins a source name to a team with manual confidence.
// POST /api/team-mappings {"source_name": "Miami", "team_name": "Miami (FL)"}
func (h *MappingHandler) Override(w http.ResponseWriter, r *http.Request) {
	var req overrideRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	req.SourceName = strings.TrimSpace(req.SourceName)
	req.TeamName = strings.TrimSpace(req.TeamName)
	if req.SourceName == "" || req.TeamName == "" {
		writeError(w, http.StatusBadRequest, "source_name and team_name are required")
		return
	}

	m, err := h.mappings.Override(r.Context(), req.SourceName, req.TeamName)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusNotFound {
			writeError(w, status, "team not found")
			return
		}
		h.logger.ErrorContext(r.Context(), "handler: override mapping failed",
			slog.String("source", req.SourceName),
			slog.String("error", err.Error()),
		)
		writeError(w, status, "failed to override team mapping")
		return
	}
	writeJSON(w, http.StatusOK, m)
}
