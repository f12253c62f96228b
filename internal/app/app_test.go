package app

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/cfbspreads/internal/config"
	"github.com/alanyoungcy/cfbspreads/internal/notify"
	"github.com/alanyoungcy/cfbspreads/internal/pipeline"
	"github.com/alanyoungcy/cfbspreads/internal/platform/bovada"
	"github.com/alanyoungcy/cfbspreads/internal/store/memory"
	"github.com/alanyoungcy/cfbspreads/internal/teams"
)

func logLine(t *testing.T, out string, msg string) string {
	t.Helper()
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, `"msg":"`+msg+`"`) {
			return line
		}
	}
	t.Fatalf("no log line %q in:\n%s", msg, out)
	return ""
}

func TestOrchestratorLogsCarryOneComponent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("[]"))
	}))
	defer srv.Close()

	var buf bytes.Buffer
	cfg := config.Defaults()
	a := New(&cfg, slog.New(slog.NewJSONHandler(&buf, nil)))

	deps := &Dependencies{
		Location:   time.UTC,
		UnitOfWork: memory.New(),
		Bovada:     bovada.NewClient(bovada.Config{BaseURL: srv.URL}, a.base),
		Resolver:   teams.NewResolver(nil, nil, 0, a.base),
		Notifier:   notify.NewNotifier(nil, nil, a.base),
	}

	_, err := a.newOrchestrator(deps).Run(context.Background(), pipeline.Target{Season: 2025, Week: 1})
	require.NoError(t, err)

	line := logLine(t, buf.String(), "ingest run starting")
	assert.Equal(t, 1, strings.Count(line, `"component":`), line)
	assert.Contains(t, line, `"component":"orchestrator"`)
}
