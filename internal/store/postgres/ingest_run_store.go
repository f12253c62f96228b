package postgres

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

// IngestRunStore implements domain.IngestRunStore using PostgreSQL.
type IngestRunStore struct {
	db DBTX
}

// NewIngestRunStore creates a new IngestRunStore on a pool or transaction.
func NewIngestRunStore(db DBTX) *IngestRunStore {
	return &IngestRunStore{db: db}
}

// Insert records a finished run.
func (s *IngestRunStore) Insert(ctx context.Context, run domain.IngestRun) error {
	const query = `
		INSERT INTO ingest_runs (
			id, slate_id, season, week, discovered, selected,
			created, updated, frozen, skipped, unmapped,
			status, error, started_at, finished_at
		) VALUES (
			$1, NULLIF($2::bigint, 0), $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14, $15
		)`

	unmapped := run.Unmapped
	if unmapped == nil {
		unmapped = []string{}
	}
	_, err := s.db.Exec(ctx, query,
		run.ID, run.SlateID, run.Season, run.Week, run.Discovered, run.Selected,
		run.Created, run.Updated, run.Frozen, run.Skipped, unmapped,
		string(run.Status), run.Error, run.StartedAt, run.FinishedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert ingest run %s: %w", run.ID, err)
	}
	return nil
}

// ListRecent returns the most recent runs, newest first.
func (s *IngestRunStore) ListRecent(ctx context.Context, limit int) ([]domain.IngestRun, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
		SELECT id::text, COALESCE(slate_id, 0), season, week, discovered, selected,
		       created, updated, frozen, skipped, unmapped,
		       status, error, started_at, finished_at
		FROM ingest_runs
		ORDER BY started_at DESC
		LIMIT $1`

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: list ingest runs: %w", err)
	}
	defer rows.Close()

	var runs []domain.IngestRun
	for rows.Next() {
		var (
			r      domain.IngestRun
			status string
		)
		if err := rows.Scan(
			&r.ID, &r.SlateID, &r.Season, &r.Week, &r.Discovered, &r.Selected,
			&r.Created, &r.Updated, &r.Frozen, &r.Skipped, &r.Unmapped,
			&status, &r.Error, &r.StartedAt, &r.FinishedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan ingest run: %w", err)
		}
		r.Status = domain.RunStatus(status)
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list ingest runs rows: %w", err)
	}
	return runs, nil
}
