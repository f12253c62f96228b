package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"encode response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps domain sentinels onto HTTP status codes; anything else is
// a 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrLockHeld):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

// parseListOpts reads limit and offset. Bad or negative values fall back to
// the defaults and limit is capped at maxPageSize.
func parseListOpts(r *http.Request) domain.ListOpts {
	q := r.URL.Query()
	limit := queryInt(q.Get("limit"), defaultPageSize, 1)
	return domain.ListOpts{
		Limit:  min(limit, maxPageSize),
		Offset: queryInt(q.Get("offset"), 0, 0),
	}
}

func queryInt(raw string, fallback, floor int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < floor {
		return fallback
	}
	return n
}

func pathInt(r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(r.PathValue(name))
	return n, err == nil
}

func logHandler(logger *slog.Logger, handler string) *slog.Logger {
	return logger.With(slog.String("handler", handler))
}
