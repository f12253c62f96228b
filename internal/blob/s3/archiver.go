package s3blob

import (
	"bufio"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

// PayloadArchive buffers raw aggregator payloads per ingestion run and
// uploads them as one gzipped JSONL object when the run finishes. Payloads
// recorded outside a run (no run id in the context) are dropped.
type PayloadArchive struct {
	writer domain.BlobWriter
	audit  domain.AuditStore

	mu      sync.Mutex
	pending map[string][]domain.RawPayload
	now     func() time.Time
}

// NewPayloadArchive creates a PayloadArchive. audit may be nil.
func NewPayloadArchive(writer domain.BlobWriter, audit domain.AuditStore) *PayloadArchive {
	return &PayloadArchive{
		writer:  writer,
		audit:   audit,
		pending: make(map[string][]domain.RawPayload),
		now:     time.Now,
	}
}

// Record buffers body under the run id carried by ctx. Non-JSON bodies are
// stored as a JSON string.
func (a *PayloadArchive) Record(ctx context.Context, kind, ref string, body []byte) {
	runID := domain.RunIDFrom(ctx)
	if runID == "" {
		return
	}
	raw := json.RawMessage(body)
	if !json.Valid(body) {
		quoted, _ := json.Marshal(string(body))
		raw = quoted
	}
	rec := domain.RawPayload{Kind: kind, Ref: ref, FetchedAt: a.now().UTC(), Body: raw}

	a.mu.Lock()
	a.pending[runID] = append(a.pending[runID], rec)
	a.mu.Unlock()
}

// Discard drops everything buffered for a run.
func (a *PayloadArchive) Discard(runID string) {
	a.mu.Lock()
	delete(a.pending, runID)
	a.mu.Unlock()
}

// Flush uploads the run's buffered payloads to
// raw/<season>/week-<week>/<run>.jsonl.gz and returns the path and count.
// A run with nothing buffered uploads nothing.
func (a *PayloadArchive) Flush(ctx context.Context, runID string, season, week int) (string, int, error) {
	a.mu.Lock()
	records := a.pending[runID]
	delete(a.pending, runID)
	a.mu.Unlock()

	if len(records) == 0 {
		return "", 0, nil
	}

	buf, err := gzipJSONL(records)
	if err != nil {
		return "", 0, fmt.Errorf("s3blob: archive run %s: %w", runID, err)
	}

	path := archivePath(season, week, runID)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/gzip"); err != nil {
		return "", 0, fmt.Errorf("s3blob: archive run %s upload: %w", runID, err)
	}

	if a.audit != nil {
		if err := a.audit.Log(ctx, "archive.payloads", map[string]any{
			"path":   path,
			"count":  len(records),
			"run_id": runID,
		}); err != nil {
			return path, len(records), fmt.Errorf("s3blob: archive run %s audit log: %w", runID, err)
		}
	}

	return path, len(records), nil
}

// ArchivePrefix returns the listing prefix for a season/week.
func ArchivePrefix(season, week int) string {
	return fmt.Sprintf("raw/%d/week-%02d/", season, week)
}

func archivePath(season, week int, runID string) string {
	return ArchivePrefix(season, week) + runID + ".jsonl.gz"
}

func gzipJSONL(records []domain.RawPayload) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	enc := json.NewEncoder(zw)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("gzip close: %w", err)
	}
	return buf.Bytes(), nil
}

// ArchiveBrowser reads archived runs back.
type ArchiveBrowser struct {
	reader domain.BlobReader
}

// NewArchiveBrowser creates an ArchiveBrowser.
func NewArchiveBrowser(reader domain.BlobReader) *ArchiveBrowser {
	return &ArchiveBrowser{reader: reader}
}

// List returns the archived runs of a slate.
func (b *ArchiveBrowser) List(ctx context.Context, season, week int) ([]domain.ObjectInfo, error) {
	return b.reader.List(ctx, ArchivePrefix(season, week))
}

// Payloads decodes the archive written for runID. A run without an archive
// yields domain.ErrNotFound.
func (b *ArchiveBrowser) Payloads(ctx context.Context, season, week int, runID string) ([]domain.RawPayload, error) {
	if runID == "" || strings.ContainsAny(runID, "/.") {
		return nil, fmt.Errorf("s3blob: run id %q: %w", runID, domain.ErrInvalidInput)
	}
	rc, err := b.reader.Open(ctx, archivePath(season, week, runID))
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	records, err := readJSONL(rc)
	if err != nil {
		return nil, fmt.Errorf("s3blob: decode archive %s: %w", runID, err)
	}
	return records, nil
}

func readJSONL(r io.Reader) ([]domain.RawPayload, error) {
	zr, err := gzip.NewReader(r)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	var out []domain.RawPayload
	dec := json.NewDecoder(bufio.NewReader(zr))
	for {
		var rec domain.RawPayload
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", len(out), err)
		}
		out = append(out, rec)
	}
}
