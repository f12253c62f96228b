package notify

import (
	"context"
	"encoding/json"
	"errors"
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
)

type captureSender struct {
	titles []string
	err    error
}

func (c *captureSender) Send(_ context.Context, title, _ string) error {
	c.titles = append(c.titles, title)
	return c.err
}

func (c *captureSender) Name() string { return "capture" }

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNotifyRunFiltersByEvent(t *testing.T) {
	s := &captureSender{}
	n := NewNotifier([]Sender{s}, []string{EventRunFailed, EventUnmappedTeams}, testLogger())
	ctx := context.Background()

	require.NoError(t, n.NotifyRun(ctx, domain.IngestRun{Status: domain.RunSucceeded}))
	assert.Empty(t, s.titles, "clean summaries are filtered")

	require.NoError(t, n.NotifyRun(ctx, domain.IngestRun{Status: domain.RunSucceeded, Unmapped: []string{"Xavier"}}))
	require.NoError(t, n.NotifyRun(ctx, domain.IngestRun{Status: domain.RunFailed, Error: "db down"}))
	assert.Len(t, s.titles, 2)
}

func TestNotifyReportsSenderFailures(t *testing.T) {
	ok, bad := &captureSender{}, &captureSender{err: errors.New("boom")}
	n := NewNotifier([]Sender{bad, ok}, nil, testLogger())

	err := n.Notify(context.Background(), EventRunSummary, "t", "m")

	require.Error(t, err)
	assert.Len(t, ok.titles, 1, "one failure does not stop the others")
}

func TestFormatRun(t *testing.T) {
	title, msg := FormatRun(domain.IngestRun{
		ID:       "run-1",
		Season:   2025,
		Week:     11,
		Selected: 12,
		Created:  2,
		Updated:  9,
		Frozen:   3,
		Skipped:  1,
		Unmapped: []string{"Xavier", "Yale"},
		Status:   domain.RunSucceeded,
	})

	assert.Equal(t, "Spreads ingest 2025 week 11: succeeded", title)
	assert.Contains(t, msg, "created 2, updated 9 (3 frozen), skipped 1 of 12 selected")
	assert.Contains(t, msg, "unmapped teams: Xavier, Yale")
	assert.NotContains(t, msg, "error:")
}

func TestDiscordSenderPostsEmbed(t *testing.T) {
	var got discordPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDiscordSender(srv.URL)
	d.now = func() time.Time { return time.Date(2025, 11, 1, 16, 0, 0, 0, time.UTC) }
	err := d.Send(context.Background(), "Spreads ingest 2025 week 10: failed", strings.Repeat("x", 5000))

	require.NoError(t, err)
	require.Len(t, got.Embeds, 1)
	e := got.Embeds[0]
	assert.Equal(t, "Spreads ingest 2025 week 10: failed", e.Title)
	assert.Equal(t, colorFailed, e.Color)
	assert.Equal(t, "2025-11-01T16:00:00Z", e.Timestamp)
	assert.Len(t, []rune(e.Description), discordMaxDescription)
	assert.True(t, strings.HasSuffix(e.Description, "…"))
	require.NotNil(t, got.AllowedMentions)
	assert.Empty(t, got.AllowedMentions.Parse)
}

func TestDiscordSenderRateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "2")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	err := NewDiscordSender(srv.URL).Send(context.Background(), "t", "m")
	assert.ErrorIs(t, err, domain.ErrRateLimited)
}

func TestDiscordSenderNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "bad", http.StatusBadRequest)
	}))
	defer srv.Close()

	err := NewDiscordSender(srv.URL).Send(context.Background(), "t", "m")
	assert.ErrorContains(t, err, "unexpected status 400")
}

func TestTelegramSenderRejectsBadChatID(t *testing.T) {
	_, err := NewTelegramSender("token", "not-a-number")
	assert.Error(t, err)
}
