package domain

import (
	"context"
	"encoding/json"
	"io"
	"time"
)

// RawPayload is one upstream response body captured during an ingestion
// run, kept for replay and fixture capture.
type RawPayload struct {
	Kind      string          `json:"kind"` // events, detail or scores
	Ref       string          `json:"ref"`  // sport path, event link or event id
	FetchedAt time.Time       `json:"fetched_at"`
	Body      json.RawMessage `json:"body"`
}

// ObjectInfo describes one stored object.
type ObjectInfo struct {
	Path         string
	Size         int64
	LastModified time.Time
}

// BlobWriter stores objects.
type BlobWriter interface {
	Put(ctx context.Context, path string, body io.Reader, contentType string) error
}

// BlobReader lists and opens stored objects. Open returns ErrNotFound for a
// missing path; the caller closes the reader.
type BlobReader interface {
	List(ctx context.Context, prefix string) ([]ObjectInfo, error)
	Open(ctx context.Context, path string) (io.ReadCloser, error)
}
