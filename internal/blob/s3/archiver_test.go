package s3blob

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

type putCall struct {
	path        string
	contentType string
	data        []byte
}

type fakeWriter struct {
	puts []putCall
	err  error
}

func (w *fakeWriter) Put(_ context.Context, path string, data io.Reader, contentType string) error {
	if w.err != nil {
		return w.err
	}
	b, err := io.ReadAll(data)
	if err != nil {
		return err
	}
	w.puts = append(w.puts, putCall{path: path, contentType: contentType, data: b})
	return nil
}

type fakeAudit struct {
	events  []string
	details []map[string]any
}

func (a *fakeAudit) Log(_ context.Context, event string, detail map[string]any) error {
	a.events = append(a.events, event)
	a.details = append(a.details, detail)
	return nil
}

func (a *fakeAudit) List(context.Context, domain.ListOpts) ([]domain.AuditEntry, error) {
	return nil, nil
}

func decodeArchive(t *testing.T, data []byte) []domain.RawPayload {
	t.Helper()
	recs, err := readJSONL(bytes.NewReader(data))
	require.NoError(t, err)
	return recs
}

func TestPayloadArchiveFlush(t *testing.T) {
	w := &fakeWriter{}
	audit := &fakeAudit{}
	a := NewPayloadArchive(w, audit)
	fixed := time.Date(2025, 9, 13, 15, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return fixed }

	ctx := domain.WithRunID(context.Background(), "run-1")
	a.Record(ctx, "events", "football/college-football", []byte(`[{"events":[]}]`))
	a.Record(ctx, "detail", "/football/x", []byte(`<html>blocked</html>`))
	a.Record(context.Background(), "events", "ignored", []byte(`[]`))

	path, n, err := a.Flush(context.Background(), "run-1", 2025, 3)
	require.NoError(t, err)
	assert.Equal(t, "raw/2025/week-03/run-1.jsonl.gz", path)
	assert.Equal(t, 2, n)

	require.Len(t, w.puts, 1)
	assert.Equal(t, path, w.puts[0].path)
	assert.Equal(t, "application/gzip", w.puts[0].contentType)

	recs := decodeArchive(t, w.puts[0].data)
	require.Len(t, recs, 2)
	assert.Equal(t, "events", recs[0].Kind)
	assert.JSONEq(t, `[{"events":[]}]`, string(recs[0].Body))
	assert.True(t, recs[0].FetchedAt.Equal(fixed))
	assert.JSONEq(t, `"<html>blocked</html>"`, string(recs[1].Body))

	require.Equal(t, []string{"archive.payloads"}, audit.events)
	assert.Equal(t, 2, audit.details[0]["count"])
	assert.Equal(t, "run-1", audit.details[0]["run_id"])

	// Buffer is drained by the flush.
	path, n, err = a.Flush(context.Background(), "run-1", 2025, 3)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Zero(t, n)
	assert.Len(t, w.puts, 1)
}

func TestPayloadArchiveDiscard(t *testing.T) {
	w := &fakeWriter{}
	a := NewPayloadArchive(w, nil)

	ctx := domain.WithRunID(context.Background(), "run-2")
	a.Record(ctx, "events", "x", []byte(`{}`))
	a.Discard("run-2")

	path, n, err := a.Flush(context.Background(), "run-2", 2025, 1)
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Zero(t, n)
	assert.Empty(t, w.puts)
}

func TestPayloadArchiveKeepsRunsApart(t *testing.T) {
	w := &fakeWriter{}
	a := NewPayloadArchive(w, nil)

	a.Record(domain.WithRunID(context.Background(), "a"), "events", "x", []byte(`1`))
	a.Record(domain.WithRunID(context.Background(), "b"), "events", "y", []byte(`2`))
	a.Record(domain.WithRunID(context.Background(), "b"), "detail", "z", []byte(`3`))

	_, n, err := a.Flush(context.Background(), "b", 2025, 12)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "raw/2025/week-12/b.jsonl.gz", w.puts[0].path)

	_, n, err = a.Flush(context.Background(), "a", 2025, 12)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPayloadArchiveUploadError(t *testing.T) {
	boom := errors.New("bucket unavailable")
	a := NewPayloadArchive(&fakeWriter{err: boom}, nil)
	a.Record(domain.WithRunID(context.Background(), "r"), "events", "x", []byte(`{}`))

	_, _, err := a.Flush(context.Background(), "r", 2025, 1)
	assert.ErrorIs(t, err, boom)
}

func TestArchivePrefix(t *testing.T) {
	assert.Equal(t, "raw/2024/week-00/", ArchivePrefix(2024, 0))
	assert.Equal(t, "raw/2024/week-15/", ArchivePrefix(2024, 15))
}

func (w *fakeWriter) List(_ context.Context, prefix string) ([]domain.ObjectInfo, error) {
	var out []domain.ObjectInfo
	for _, p := range w.puts {
		if strings.HasPrefix(p.path, prefix) {
			out = append(out, domain.ObjectInfo{Path: p.path, Size: int64(len(p.data))})
		}
	}
	return out, nil
}

func (w *fakeWriter) Open(_ context.Context, path string) (io.ReadCloser, error) {
	for _, p := range w.puts {
		if p.path == path {
			return io.NopCloser(bytes.NewReader(p.data)), nil
		}
	}
	return nil, domain.ErrNotFound
}

func TestArchiveBrowserReadsBack(t *testing.T) {
	store := &fakeWriter{}
	a := NewPayloadArchive(store, nil)
	ctx := domain.WithRunID(context.Background(), "0b6c")
	a.Record(ctx, "events", "football/college-football", []byte(`[]`))
	a.Record(ctx, "scores", "202511011530", []byte(`{"status":"FINAL"}`))
	_, _, err := a.Flush(context.Background(), "0b6c", 2025, 10)
	require.NoError(t, err)

	b := NewArchiveBrowser(store)

	objs, err := b.List(context.Background(), 2025, 10)
	require.NoError(t, err)
	require.Len(t, objs, 1)
	assert.Equal(t, "raw/2025/week-10/0b6c.jsonl.gz", objs[0].Path)

	recs, err := b.Payloads(context.Background(), 2025, 10, "0b6c")
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, "scores", recs[1].Kind)
	assert.JSONEq(t, `{"status":"FINAL"}`, string(recs[1].Body))

	_, err = b.Payloads(context.Background(), 2025, 11, "0b6c")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = b.Payloads(context.Background(), 2025, 10, "../secrets")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
