package postgres

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

// TeamStore implements domain.TeamStore using PostgreSQL.
type TeamStore struct {
	db DBTX
}

// NewTeamStore creates a new TeamStore on a pool or transaction.
func NewTeamStore(db DBTX) *TeamStore {
	return &TeamStore{db: db}
}

// GetByID returns the team with the given id.
func (s *TeamStore) GetByID(ctx context.Context, id int64) (domain.Team, error) {
	var t domain.Team
	err := s.db.QueryRow(ctx, `SELECT id, name FROM teams WHERE id = $1`, id).Scan(&t.ID, &t.Name)
	if err != nil {
		return domain.Team{}, fmt.Errorf("postgres: get team %d: %w", id, notFound(err))
	}
	return t, nil
}

// GetByName returns the team whose canonical name is exactly name.
func (s *TeamStore) GetByName(ctx context.Context, name string) (domain.Team, error) {
	var t domain.Team
	err := s.db.QueryRow(ctx, `SELECT id, name FROM teams WHERE name = $1`, name).Scan(&t.ID, &t.Name)
	if err != nil {
		return domain.Team{}, fmt.Errorf("postgres: get team %q: %w", name, notFound(err))
	}
	return t, nil
}

// List returns every team ordered by name.
func (s *TeamStore) List(ctx context.Context) ([]domain.Team, error) {
	rows, err := s.db.Query(ctx, `SELECT id, name FROM teams ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("postgres: list teams: %w", err)
	}
	defer rows.Close()

	var teams []domain.Team
	for rows.Next() {
		var t domain.Team
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("postgres: scan team: %w", err)
		}
		teams = append(teams, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list teams rows: %w", err)
	}
	return teams, nil
}
