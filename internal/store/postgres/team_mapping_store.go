package postgres

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

// TeamMappingStore implements domain.TeamMappingStore using PostgreSQL.
type TeamMappingStore struct {
	db DBTX
}

// NewTeamMappingStore creates a new TeamMappingStore on a pool or transaction.
func NewTeamMappingStore(db DBTX) *TeamMappingStore {
	return &TeamMappingStore{db: db}
}

// Get returns the mapping recorded for sourceName.
func (s *TeamMappingStore) Get(ctx context.Context, sourceName string) (domain.TeamMapping, error) {
	const query = `
		SELECT source_name, team_id, confidence, created_at
		FROM team_mappings WHERE source_name = $1`

	var (
		m    domain.TeamMapping
		conf string
	)
	err := s.db.QueryRow(ctx, query, sourceName).Scan(&m.SourceName, &m.TeamID, &conf, &m.CreatedAt)
	if err != nil {
		return domain.TeamMapping{}, fmt.Errorf("postgres: get team mapping %q: %w", sourceName, notFound(err))
	}
	m.Confidence = domain.MatchConfidence(conf)
	return m, nil
}

// Insert records a mapping. An existing row for the same source name is
// kept as is, so concurrent runs resolving the same name converge.
func (s *TeamMappingStore) Insert(ctx context.Context, m domain.TeamMapping) error {
	const query = `
		INSERT INTO team_mappings (source_name, team_id, confidence)
		VALUES ($1, $2, $3)
		ON CONFLICT (source_name) DO NOTHING`

	if _, err := s.db.Exec(ctx, query, m.SourceName, m.TeamID, string(m.Confidence)); err != nil {
		return fmt.Errorf("postgres: insert team mapping %q: %w", m.SourceName, err)
	}
	return nil
}

// Override writes a mapping, replacing any existing row.
func (s *TeamMappingStore) Override(ctx context.Context, m domain.TeamMapping) error {
	const query = `
		INSERT INTO team_mappings (source_name, team_id, confidence)
		VALUES ($1, $2, $3)
		ON CONFLICT (source_name) DO UPDATE SET
			team_id    = EXCLUDED.team_id,
			confidence = EXCLUDED.confidence`

	if _, err := s.db.Exec(ctx, query, m.SourceName, m.TeamID, string(m.Confidence)); err != nil {
		return fmt.Errorf("postgres: override team mapping %q: %w", m.SourceName, err)
	}
	return nil
}

// List returns mappings newest first.
func (s *TeamMappingStore) List(ctx context.Context, opts domain.ListOpts) ([]domain.TeamMapping, error) {
	query := `SELECT source_name, team_id, confidence, created_at FROM team_mappings WHERE 1=1`
	args := []any{}
	argIdx := 1

	if opts.Since != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	query += " ORDER BY created_at DESC, source_name"
	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list team mappings: %w", err)
	}
	defer rows.Close()

	var out []domain.TeamMapping
	for rows.Next() {
		var (
			m    domain.TeamMapping
			conf string
		)
		if err := rows.Scan(&m.SourceName, &m.TeamID, &conf, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan team mapping: %w", err)
		}
		m.Confidence = domain.MatchConfidence(conf)
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list team mappings rows: %w", err)
	}
	return out, nil
}
