package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

// GameStore implements domain.GameStore using PostgreSQL.
//
// Kickoff is written twice: kickoff_at holds the instant and game_time the
// zone-less wall clock in loc that older consumers read. Rows that only
// carry game_time load as naive kickoffs.
type GameStore struct {
	db  DBTX
	loc *time.Location
}

// NewGameStore creates a new GameStore on a pool or transaction.
func NewGameStore(db DBTX, loc *time.Location) *GameStore {
	if loc == nil {
		loc = time.UTC
	}
	return &GameStore{db: db, loc: loc}
}

const gameColumns = `
	id, slate_id, COALESCE(event_id, ''), home_team_id, away_team_id,
	home_spread, away_spread, home_spread_price, away_spread_price,
	home_moneyline, away_moneyline, total_line, over_price, under_price,
	line_source, market_status,
	game_time, kickoff_at, game_day, status,
	home_score, away_score, clock, period, score_status, score_updated_at,
	created_at, updated_at`

// FindByEvent returns the game linked to eventID within a slate.
func (s *GameStore) FindByEvent(ctx context.Context, slateID int64, eventID string) (domain.GameRecord, error) {
	query := `SELECT ` + gameColumns + ` FROM games WHERE slate_id = $1 AND event_id = $2 ORDER BY id LIMIT 1`
	g, err := scanGame(s.db.QueryRow(ctx, query, slateID, eventID))
	if err != nil {
		return domain.GameRecord{}, fmt.Errorf("postgres: find game by event %s: %w", eventID, notFound(err))
	}
	return g, nil
}

// FindByMatchup returns every game in a slate with exactly this home/away
// pair.
func (s *GameStore) FindByMatchup(ctx context.Context, slateID, homeTeamID, awayTeamID int64) ([]domain.GameRecord, error) {
	query := `SELECT ` + gameColumns + `
		FROM games
		WHERE slate_id = $1 AND home_team_id = $2 AND away_team_id = $3
		ORDER BY id`
	return s.list(ctx, "find games by matchup", query, slateID, homeTeamID, awayTeamID)
}

// ListBySlate returns a slate's games in kickoff order.
func (s *GameStore) ListBySlate(ctx context.Context, slateID int64) ([]domain.GameRecord, error) {
	query := `SELECT ` + gameColumns + `
		FROM games
		WHERE slate_id = $1
		ORDER BY COALESCE(kickoff_at, game_time AT TIME ZONE $2), id`
	return s.list(ctx, "list games", query, slateID, s.loc.String())
}

// Create inserts game and sets its id and timestamps.
func (s *GameStore) Create(ctx context.Context, g *domain.GameRecord) error {
	const query = `
		INSERT INTO games (
			slate_id, event_id, home_team_id, away_team_id,
			home_spread, away_spread, home_spread_price, away_spread_price,
			home_moneyline, away_moneyline, total_line, over_price, under_price,
			line_source, market_status,
			game_time, kickoff_at, game_day, status,
			home_score, away_score, clock, period, score_status, score_updated_at
		) VALUES (
			$1, NULLIF($2, ''), $3, $4,
			$5, $6, $7, $8,
			$9, $10, $11, $12, $13,
			$14, $15,
			$16, $17, $18, $19,
			$20, $21, $22, $23, $24, $25
		)
		RETURNING id, created_at, updated_at`

	args := append([]any{g.SlateID, g.EventID, g.HomeTeamID, g.AwayTeamID}, s.mutableArgs(*g)...)
	if err := s.db.QueryRow(ctx, query, args...).Scan(&g.ID, &g.CreatedAt, &g.UpdatedAt); err != nil {
		return fmt.Errorf("postgres: create game %s: %w", g.EventID, err)
	}
	return nil
}

// Update rewrites every mutable column of game.
func (s *GameStore) Update(ctx context.Context, g domain.GameRecord) error {
	const query = `
		UPDATE games SET
			event_id          = NULLIF($2, ''),
			home_spread       = $3,
			away_spread       = $4,
			home_spread_price = $5,
			away_spread_price = $6,
			home_moneyline    = $7,
			away_moneyline    = $8,
			total_line        = $9,
			over_price        = $10,
			under_price       = $11,
			line_source       = $12,
			market_status     = $13,
			game_time         = $14,
			kickoff_at        = $15,
			game_day          = $16,
			status            = $17,
			home_score        = $18,
			away_score        = $19,
			clock             = $20,
			period            = $21,
			score_status      = $22,
			score_updated_at  = $23,
			updated_at        = NOW()
		WHERE id = $1`

	args := append([]any{g.ID, g.EventID}, s.mutableArgs(g)...)
	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("postgres: update game %d: %w", g.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: update game %d: %w", g.ID, domain.ErrNotFound)
	}
	return nil
}

// mutableArgs returns the columns from home_spread through
// score_updated_at in table order.
func (s *GameStore) mutableArgs(g domain.GameRecord) []any {
	var gameTime, kickoffAt *time.Time
	switch {
	case g.Kickoff.IsZero():
	case g.KickoffNaive:
		t := g.Kickoff
		gameTime = &t
	default:
		at := g.Kickoff.UTC()
		wall := g.Kickoff.In(s.loc)
		kickoffAt, gameTime = &at, &wall
	}

	var (
		homeScore, awayScore *int
		clock, period, state string
		scoredAt             *time.Time
	)
	if sc := g.Score; sc != nil {
		homeScore, awayScore = sc.Home, sc.Away
		clock, period, state = sc.Clock, sc.Period, sc.Status
		if !sc.UpdatedAt.IsZero() {
			t := sc.UpdatedAt
			scoredAt = &t
		}
	}

	l := g.Lines
	return []any{
		l.HomeSpread, l.AwaySpread, l.HomeSpreadPrice, l.AwaySpreadPrice,
		l.HomeMoneyline, l.AwayMoneyline, l.Total, l.OverPrice, l.UnderPrice,
		string(l.Source), l.MarketStatus,
		gameTime, kickoffAt, g.DayLabel, g.Status,
		homeScore, awayScore, clock, period, state, scoredAt,
	}
}

func (s *GameStore) list(ctx context.Context, op, query string, args ...any) ([]domain.GameRecord, error) {
	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: %s: %w", op, err)
	}
	defer rows.Close()

	var games []domain.GameRecord
	for rows.Next() {
		g, err := scanGame(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: %s: scan: %w", op, err)
		}
		games = append(games, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: %s rows: %w", op, err)
	}
	return games, nil
}

func scanGame(row pgx.Row) (domain.GameRecord, error) {
	var (
		g                    domain.GameRecord
		source               string
		gameTime, kickoffAt  *time.Time
		homeScore, awayScore *int
		clock, period, state string
		scoredAt             *time.Time
	)
	err := row.Scan(
		&g.ID, &g.SlateID, &g.EventID, &g.HomeTeamID, &g.AwayTeamID,
		&g.Lines.HomeSpread, &g.Lines.AwaySpread, &g.Lines.HomeSpreadPrice, &g.Lines.AwaySpreadPrice,
		&g.Lines.HomeMoneyline, &g.Lines.AwayMoneyline, &g.Lines.Total, &g.Lines.OverPrice, &g.Lines.UnderPrice,
		&source, &g.Lines.MarketStatus,
		&gameTime, &kickoffAt, &g.DayLabel, &g.Status,
		&homeScore, &awayScore, &clock, &period, &state, &scoredAt,
		&g.CreatedAt, &g.UpdatedAt,
	)
	if err != nil {
		return domain.GameRecord{}, err
	}
	g.Lines.Source = domain.Provenance(source)

	switch {
	case kickoffAt != nil:
		g.Kickoff = kickoffAt.UTC()
	case gameTime != nil:
		g.Kickoff = *gameTime
		g.KickoffNaive = true
	}

	if homeScore != nil || awayScore != nil || state != "" {
		g.Score = &domain.Score{Home: homeScore, Away: awayScore, Clock: clock, Period: period, Status: state}
		if scoredAt != nil {
			g.Score.UpdatedAt = *scoredAt
		}
	}
	return g, nil
}
