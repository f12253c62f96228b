package postgres

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

// SlateStore implements domain.SlateStore using PostgreSQL.
type SlateStore struct {
	db DBTX
}

// NewSlateStore creates a new SlateStore on a pool or transaction.
func NewSlateStore(db DBTX) *SlateStore {
	return &SlateStore{db: db}
}

const slateColumns = `id, season, week, title, is_open, closes_at, created_at`

// GetOrCreate returns the slate for season/week, creating it open with
// title when missing. An existing slate keeps its title.
func (s *SlateStore) GetOrCreate(ctx context.Context, season, week int, title string) (domain.Slate, error) {
	const query = `
		INSERT INTO slates (season, week, title, is_open)
		VALUES ($1, $2, $3, TRUE)
		ON CONFLICT (season, week) DO UPDATE SET season = EXCLUDED.season
		RETURNING ` + slateColumns

	sl, err := scanSlate(s.db.QueryRow(ctx, query, season, week, title))
	if err != nil {
		return domain.Slate{}, fmt.Errorf("postgres: get or create slate %d/%d: %w", season, week, err)
	}
	return sl, nil
}

// Get returns the slate for season/week.
func (s *SlateStore) Get(ctx context.Context, season, week int) (domain.Slate, error) {
	query := `SELECT ` + slateColumns + ` FROM slates WHERE season = $1 AND week = $2`
	sl, err := scanSlate(s.db.QueryRow(ctx, query, season, week))
	if err != nil {
		return domain.Slate{}, fmt.Errorf("postgres: get slate %d/%d: %w", season, week, notFound(err))
	}
	return sl, nil
}

func scanSlate(row interface{ Scan(...any) error }) (domain.Slate, error) {
	var sl domain.Slate
	err := row.Scan(&sl.ID, &sl.Season, &sl.Week, &sl.Title, &sl.Open, &sl.ClosesAt, &sl.CreatedAt)
	return sl, err
}
