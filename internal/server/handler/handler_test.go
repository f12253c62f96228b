package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
	"github.com/alanyoungcy/cfbspreads/internal/pipeline"
	"github.com/alanyoungcy/cfbspreads/internal/service"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func serve(t *testing.T, pattern string, h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

type checkFunc func(ctx context.Context) error

func (f checkFunc) Health(ctx context.Context) error { return f(ctx) }

func TestHealthCheck(t *testing.T) {
	ok := checkFunc(func(context.Context) error { return nil })
	down := checkFunc(func(context.Context) error { return errors.New("connection refused") })

	h := NewHealthHandler(map[string]Checker{"postgres": ok}, testLogger())
	rec := serve(t, "GET /api/health", h.HealthCheck, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])

	h = NewHealthHandler(map[string]Checker{"postgres": ok, "redis": down}, testLogger())
	rec = serve(t, "GET /api/health", h.HealthCheck, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "degraded", body["status"])
	deps := body["dependencies"].(map[string]any)
	assert.Equal(t, "connection refused", deps["redis"])
	assert.Equal(t, "ok", deps["postgres"])
}

type fakeTrigger struct {
	calls  int
	queued bool
}

func (f *fakeTrigger) Trigger(string) bool {
	f.calls++
	return f.queued
}

type fakeRuns struct {
	runs  []domain.IngestRun
	err   error
	limit int
}

func (f *fakeRuns) RecentRuns(_ context.Context, limit int) ([]domain.IngestRun, error) {
	f.limit = limit
	return f.runs, f.err
}

func TestIngestTrigger(t *testing.T) {
	trig := &fakeTrigger{queued: true}
	h := NewIngestHandler(trig, &fakeRuns{}, testLogger())

	rec := serve(t, "POST /api/ingest/trigger", h.Trigger, httptest.NewRequest(http.MethodPost, "/api/ingest/trigger", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, true, decode(t, rec)["queued"])
	assert.Equal(t, 1, trig.calls)

	trig.queued = false
	rec = serve(t, "POST /api/ingest/trigger", h.Trigger, httptest.NewRequest(http.MethodPost, "/api/ingest/trigger", nil))
	assert.Equal(t, "ingest run already pending", decode(t, rec)["message"])

	h = NewIngestHandler(nil, &fakeRuns{}, testLogger())
	rec = serve(t, "POST /api/ingest/trigger", h.Trigger, httptest.NewRequest(http.MethodPost, "/api/ingest/trigger", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestIngestListRuns(t *testing.T) {
	runs := &fakeRuns{runs: []domain.IngestRun{{
		ID: "r1", Season: 2025, Week: 12, Created: 3, Status: domain.RunSucceeded,
		FinishedAt: time.Date(2025, 11, 15, 13, 0, 0, 0, time.UTC),
	}}}
	h := NewIngestHandler(nil, runs, testLogger())

	rec := serve(t, "GET /api/ingest/runs", h.ListRuns, httptest.NewRequest(http.MethodGet, "/api/ingest/runs?limit=5", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 5, runs.limit)

	var body struct {
		Runs []pipeline.RunEvent `json:"runs"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Runs, 1)
	assert.Equal(t, "r1", body.Runs[0].RunID)
	assert.Equal(t, []string{}, body.Runs[0].Unmapped)

	runs.err = errors.New("db down")
	rec = serve(t, "GET /api/ingest/runs", h.ListRuns, httptest.NewRequest(http.MethodGet, "/api/ingest/runs", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, 20, runs.limit)
}

type fakeSlates struct {
	view service.SlateView
	err  error
}

func (f fakeSlates) Get(_ context.Context, season, week int) (service.SlateView, error) {
	if f.err != nil {
		return service.SlateView{}, f.err
	}
	v := f.view
	v.Season, v.Week = season, week
	return v, nil
}

func TestSlateGetGames(t *testing.T) {
	spread := "-3.5"
	h := NewSlateHandler(fakeSlates{view: service.SlateView{
		Title: "Week 12",
		Games: []service.GameView{{ID: 1, HomeTeam: "Penn State", HomeSpread: &spread}},
	}}, testLogger())

	const pattern = "GET /api/slates/{season}/{week}/games"
	rec := serve(t, pattern, h.GetGames, httptest.NewRequest(http.MethodGet, "/api/slates/2025/12/games", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var got service.SlateView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, 2025, got.Season)
	assert.Equal(t, 12, got.Week)
	require.Len(t, got.Games, 1)
	assert.Equal(t, "-3.5", *got.Games[0].HomeSpread)

	rec = serve(t, pattern, h.GetGames, httptest.NewRequest(http.MethodGet, "/api/slates/abc/12/games", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	h = NewSlateHandler(fakeSlates{err: fmt.Errorf("slate: %w", domain.ErrNotFound)}, testLogger())
	rec = serve(t, pattern, h.GetGames, httptest.NewRequest(http.MethodGet, "/api/slates/2025/13/games", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type fakeMappings struct {
	overrides [][2]string
	err       error
}

func (f *fakeMappings) List(context.Context, domain.ListOpts) ([]service.MappingView, error) {
	return []service.MappingView{{SourceName: "Miami", TeamID: 1, TeamName: "Miami (FL)", Confidence: domain.ConfidenceManual}}, nil
}

func (f *fakeMappings) Override(_ context.Context, source, team string) (service.MappingView, error) {
	if f.err != nil {
		return service.MappingView{}, f.err
	}
	f.overrides = append(f.overrides, [2]string{source, team})
	return service.MappingView{SourceName: source, TeamName: team, Confidence: domain.ConfidenceManual}, nil
}

func TestMappingEndpoints(t *testing.T) {
	svc := &fakeMappings{}
	h := NewMappingHandler(svc, testLogger())

	rec := serve(t, "GET /api/team-mappings", h.List, httptest.NewRequest(http.MethodGet, "/api/team-mappings", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["mappings"], 1)

	body := strings.NewReader(`{"source_name":" Miami OH ","team_name":"Miami (OH)"}`)
	rec = serve(t, "POST /api/team-mappings", h.Override, httptest.NewRequest(http.MethodPost, "/api/team-mappings", body))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, [][2]string{{"Miami OH", "Miami (OH)"}}, svc.overrides)

	rec = serve(t, "POST /api/team-mappings", h.Override,
		httptest.NewRequest(http.MethodPost, "/api/team-mappings", strings.NewReader(`{"source_name":"x"}`)))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.err = fmt.Errorf("team: %w", domain.ErrNotFound)
	rec = serve(t, "POST /api/team-mappings", h.Override,
		httptest.NewRequest(http.MethodPost, "/api/team-mappings", strings.NewReader(`{"source_name":"x","team_name":"y"}`)))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type fakeArchive struct {
	season, week int
}

func (f *fakeArchive) List(_ context.Context, season, week int) ([]domain.ObjectInfo, error) {
	f.season, f.week = season, week
	return []domain.ObjectInfo{{Path: fmt.Sprintf("raw/%d/week-%02d/r1.jsonl.gz", season, week), Size: 42}}, nil
}

func (f *fakeArchive) Payloads(_ context.Context, _, _ int, runID string) ([]domain.RawPayload, error) {
	if runID != "r1" {
		return nil, domain.ErrNotFound
	}
	return []domain.RawPayload{{Kind: "events", Ref: "football/college-football", Body: []byte(`[]`)}}, nil
}

func TestArchiveEndpoints(t *testing.T) {
	archive := &fakeArchive{}
	h := NewArchiveHandler(archive, testLogger())

	rec := serve(t, "GET /api/archives/{season}/{week}", h.List, httptest.NewRequest(http.MethodGet, "/api/archives/2025/3", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 3, archive.week)
	assert.Contains(t, rec.Body.String(), `"run_id":"r1"`)
	assert.Contains(t, rec.Body.String(), `"size":42`)

	rec = serve(t, "GET /api/archives/{season}/{week}", h.List, httptest.NewRequest(http.MethodGet, "/api/archives/x/3", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(t, "GET /api/archives/{season}/{week}/{run}", h.Payloads, httptest.NewRequest(http.MethodGet, "/api/archives/2025/3/r1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"kind":"events"`)

	rec = serve(t, "GET /api/archives/{season}/{week}/{run}", h.Payloads, httptest.NewRequest(http.MethodGet, "/api/archives/2025/3/r2", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

type fakeScheduler struct{ st pipeline.SchedulerStatus }

func (f fakeScheduler) Status() pipeline.SchedulerStatus { return f.st }

func TestStatus(t *testing.T) {
	next := time.Date(2025, 11, 15, 14, 0, 0, 0, time.UTC)
	h := NewStatusHandler("full", 2025, 12, fakeScheduler{st: pipeline.SchedulerStatus{
		Next:    next,
		Last:    &domain.IngestRun{ID: "r9", Status: domain.RunFailed},
		LastErr: errors.New("discover: timeout"),
	}})

	rec := serve(t, "GET /api/status", h.GetStatus, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "full", body["mode"])
	sched := body["scheduler"].(map[string]any)
	assert.Equal(t, "2025-11-15T14:00:00Z", sched["next_run"])
	assert.Equal(t, "discover: timeout", sched["last_error"])
}

type fakeAudit struct {
	opts  domain.ListOpts
	runID string
}

func (f *fakeAudit) List(_ context.Context, opts domain.ListOpts, runID string) ([]domain.AuditEntry, error) {
	f.opts, f.runID = opts, runID
	return []domain.AuditEntry{{ID: 7, Event: "ingest.run", RunID: runID, CreatedAt: time.Date(2025, 11, 1, 16, 0, 0, 0, time.UTC)}}, nil
}

func TestAuditList(t *testing.T) {
	f := &fakeAudit{}
	h := NewAuditHandler(f, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/audit?limit=5&since=2025-10-01T00:00:00Z&run_id=r9", nil)
	rec := serve(t, "GET /api/audit", h.List, req)
	require.Equal(t, http.StatusOK, rec.Code)

	assert.Equal(t, 5, f.opts.Limit)
	require.NotNil(t, f.opts.Since)
	assert.Equal(t, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), f.opts.Since.UTC())
	assert.Nil(t, f.opts.Until)
	assert.Equal(t, "r9", f.runID)
	assert.Contains(t, rec.Body.String(), `"run_id":"r9"`)

	req = httptest.NewRequest(http.MethodGet, "/api/audit?until=tomorrow", nil)
	rec = serve(t, "GET /api/audit", h.List, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
