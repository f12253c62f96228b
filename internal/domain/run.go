package domain

import (
	"context"
	"time"
)

// RunStatus is the terminal state of an ingestion run.
type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

// IngestRun is the batch summary of one ingestion run.
type IngestRun struct {
	ID         string
	SlateID    int64
	Season     int
	Week       int
	Discovered int
	Selected   int
	Created    int
	Updated    int
	Frozen     int // subset of Updated whose lines were left untouched
	Skipped    int
	Unmapped   []string
	Status     RunStatus
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

type runIDKey struct{}

// WithRunID returns a context carrying the ingestion run id.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, runIDKey{}, id)
}

// RunIDFrom extracts the ingestion run id, or "" when absent.
func RunIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(runIDKey{}).(string)
	return id
}
