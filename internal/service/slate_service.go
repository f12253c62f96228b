package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
	"github.com/alanyoungcy/cfbspreads/internal/market"
	"github.com/alanyoungcy/cfbspreads/internal/pipeline"
)

// GameView is a game record joined with team names and derived pick-lock
// information, shaped for API consumers.
type GameView struct {
	ID              int64             `json:"id"`
	EventID         string            `json:"event_id,omitempty"`
	HomeTeamID      int64             `json:"home_team_id"`
	HomeTeam        string            `json:"home_team"`
	AwayTeamID      int64             `json:"away_team_id"`
	AwayTeam        string            `json:"away_team"`
	HomeSpread      *string           `json:"home_spread"`
	AwaySpread      *string           `json:"away_spread"`
	HomeSpreadPrice string            `json:"home_spread_price,omitempty"`
	AwaySpreadPrice string            `json:"away_spread_price,omitempty"`
	HomeMoneyline   string            `json:"home_moneyline,omitempty"`
	AwayMoneyline   string            `json:"away_moneyline,omitempty"`
	HomeWinProb     *float64          `json:"home_win_prob,omitempty"`
	AwayWinProb     *float64          `json:"away_win_prob,omitempty"`
	Total           *string           `json:"total"`
	OverPrice       string            `json:"over_price,omitempty"`
	UnderPrice      string            `json:"under_price,omitempty"`
	LineSource      domain.Provenance `json:"line_source,omitempty"`
	MarketStatus    string            `json:"market_status,omitempty"`
	Kickoff         *time.Time        `json:"kickoff"`
	LocksAt         *time.Time        `json:"locks_at"`
	Locked          bool              `json:"locked"`
	Started         bool              `json:"started"`
	Day             string            `json:"day,omitempty"`
	Status          string            `json:"status"`
	HomeScore       *int              `json:"home_score,omitempty"`
	AwayScore       *int              `json:"away_score,omitempty"`
	Clock           string            `json:"clock,omitempty"`
	Period          string            `json:"period,omitempty"`
}

// SlateView is a slate with its games.
type SlateView struct {
	ID     int64      `json:"id"`
	Season int        `json:"season"`
	Week   int        `json:"week"`
	Title  string     `json:"title"`
	Open   bool       `json:"open"`
	Games  []GameView `json:"games"`
}

// SlateService reads slates and their games.
type SlateService struct {
	uow    domain.UnitOfWorkFactory
	loc    *time.Location
	now    func() time.Time
	logger *slog.Logger
}

// NewSlateService creates a SlateService. loc anchors zone-less kickoffs.
func NewSlateService(uow domain.UnitOfWorkFactory, loc *time.Location, logger *slog.Logger) *SlateService {
	return &SlateService{uow: uow, loc: loc, now: time.Now, logger: logger}
}

// Get returns the slate for season/week with every game, ordered as stored.
// Returns domain.ErrNotFound when the slate does not exist.
func (s *SlateService) Get(ctx context.Context, season, week int) (SlateView, error) {
	var out SlateView
	err := view(ctx, s.uow, func(u domain.UnitOfWork) error {
		slate, err := u.Slates().Get(ctx, season, week)
		if err != nil {
			return fmt.Errorf("service: slate %d/%d: %w", season, week, err)
		}
		games, err := u.Games().ListBySlate(ctx, slate.ID)
		if err != nil {
			return fmt.Errorf("service: games for slate %d: %w", slate.ID, err)
		}
		teams, err := u.Teams().List(ctx)
		if err != nil {
			return fmt.Errorf("service: list teams: %w", err)
		}
		names := make(map[int64]string, len(teams))
		for _, t := range teams {
			names[t.ID] = t.Name
		}

		now := s.now()
		out = SlateView{
			ID:     slate.ID,
			Season: slate.Season,
			Week:   slate.Week,
			Title:  slate.Title,
			Open:   slate.Open,
			Games:  make([]GameView, 0, len(games)),
		}
		for _, g := range games {
			out.Games = append(out.Games, s.gameView(g, names, now))
		}
		return nil
	})
	return out, err
}

func (s *SlateService) gameView(g domain.GameRecord, names map[int64]string, now time.Time) GameView {
	v := GameView{
		ID:              g.ID,
		EventID:         g.EventID,
		HomeTeamID:      g.HomeTeamID,
		HomeTeam:        names[g.HomeTeamID],
		AwayTeamID:      g.AwayTeamID,
		AwayTeam:        names[g.AwayTeamID],
		HomeSpread:      g.Lines.HomeSpread,
		AwaySpread:      g.Lines.AwaySpread,
		HomeSpreadPrice: g.Lines.HomeSpreadPrice,
		AwaySpreadPrice: g.Lines.AwaySpreadPrice,
		HomeMoneyline:   g.Lines.HomeMoneyline,
		AwayMoneyline:   g.Lines.AwayMoneyline,
		Total:           g.Lines.Total,
		OverPrice:       g.Lines.OverPrice,
		UnderPrice:      g.Lines.UnderPrice,
		LineSource:      g.Lines.Source,
		MarketStatus:    g.Lines.MarketStatus,
		Day:             g.DayLabel,
		Status:          g.Status,
		Started:         pipeline.HasStarted(g, now, s.loc),
	}

	if k := pipeline.KickoffInstant(g, s.loc); !k.IsZero() {
		lock := pipeline.LockTime(k)
		v.Kickoff = &k
		v.LocksAt = &lock
		v.Locked = !now.Before(lock)
	}

	if g.Lines.HomeMoneyline != "" && g.Lines.AwayMoneyline != "" {
		home, away, err := market.NoVigPair(g.Lines.HomeMoneyline, g.Lines.AwayMoneyline)
		if err == nil {
			v.HomeWinProb = &home
			v.AwayWinProb = &away
		} else {
			s.logger.Debug("service: moneyline not priced",
				slog.Int64("game_id", g.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	if g.Score != nil {
		v.HomeScore = g.Score.Home
		v.AwayScore = g.Score.Away
		v.Clock = g.Score.Clock
		v.Period = g.Score.Period
	}
	return v
}

// RecentRuns returns the latest ingestion run summaries, newest first.
func (s *SlateService) RecentRuns(ctx context.Context, limit int) ([]domain.IngestRun, error) {
	var runs []domain.IngestRun
	err := view(ctx, s.uow, func(u domain.UnitOfWork) error {
		var err error
		runs, err = u.Runs().ListRecent(ctx, limit)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("service: recent runs: %w", err)
	}
	return runs, nil
}
