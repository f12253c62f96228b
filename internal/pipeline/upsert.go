package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

// GameInput is one resolved event ready to be written to a slate.
type GameInput struct {
	SlateID    int64
	EventID    string
	HomeTeamID int64
	AwayTeamID int64
	Kickoff    time.Time
	Status     string
	Markets    domain.ResolvedMarketSet
	Score      *domain.Score
}

// Upserter finds or creates the game record for an event and applies the
// kickoff freeze to its quote fields.
type Upserter struct {
	loc *time.Location
	now func() time.Time
}

// NewUpserter creates an Upserter. loc anchors naive stored kickoffs and
// day labels.
func NewUpserter(loc *time.Location, now func() time.Time) *Upserter {
	if loc == nil {
		loc = time.UTC
	}
	if now == nil {
		now = time.Now
	}
	return &Upserter{loc: loc, now: now}
}

// Upsert writes in through games. Store failures come back as
// *domain.PersistenceError; a matchup that matches more than one record
// returns domain.ErrDuplicateMatchup and writes nothing.
func (u *Upserter) Upsert(ctx context.Context, games domain.GameStore, in GameInput) (domain.GameRecord, domain.UpsertAction, error) {
	existing, found, err := u.find(ctx, games, in)
	if err != nil {
		return domain.GameRecord{}, "", err
	}

	status := in.Status
	if status == "" {
		status = domain.DefaultGameStatus
	}

	if !found {
		rec := domain.GameRecord{
			SlateID:    in.SlateID,
			EventID:    in.EventID,
			HomeTeamID: in.HomeTeamID,
			AwayTeamID: in.AwayTeamID,
			Lines:      LinesFrom(in.Markets),
			Kickoff:    in.Kickoff.UTC(),
			DayLabel:   DayLabel(in.Kickoff, u.loc),
			Status:     status,
			Score:      in.Score,
		}
		if err := games.Create(ctx, &rec); err != nil {
			return domain.GameRecord{}, "", &domain.PersistenceError{Op: "create game", Err: err}
		}
		return rec, domain.ActionCreated, nil
	}

	started := HasStarted(existing, u.now(), u.loc)

	rec := existing
	if in.EventID != "" {
		rec.EventID = in.EventID
	}
	if !in.Kickoff.IsZero() {
		rec.Kickoff = in.Kickoff.UTC()
		rec.KickoffNaive = false
		rec.DayLabel = DayLabel(in.Kickoff, u.loc)
	}
	rec.Status = status
	if in.Score != nil {
		rec.Score = in.Score
	}

	action := domain.ActionFrozen
	if !started {
		rec.Lines = LinesFrom(in.Markets)
		action = domain.ActionUpdated
	}

	if err := games.Update(ctx, rec); err != nil {
		return domain.GameRecord{}, "", &domain.PersistenceError{Op: "update game", Err: err}
	}
	return rec, action, nil
}

// find looks the game up by event id, then by the exact home/away pair.
func (u *Upserter) find(ctx context.Context, games domain.GameStore, in GameInput) (domain.GameRecord, bool, error) {
	if in.EventID != "" {
		rec, err := games.FindByEvent(ctx, in.SlateID, in.EventID)
		switch {
		case err == nil:
			return rec, true, nil
		case !errors.Is(err, domain.ErrNotFound):
			return domain.GameRecord{}, false, &domain.PersistenceError{Op: "find game by event", Err: err}
		}
	}

	recs, err := games.FindByMatchup(ctx, in.SlateID, in.HomeTeamID, in.AwayTeamID)
	if err != nil {
		return domain.GameRecord{}, false, &domain.PersistenceError{Op: "find game by matchup", Err: err}
	}
	switch len(recs) {
	case 0:
		return domain.GameRecord{}, false, nil
	case 1:
		return recs[0], true, nil
	default:
		return domain.GameRecord{}, false, fmt.Errorf("pipeline: %d games for teams %d vs %d in slate %d: %w",
			len(recs), in.HomeTeamID, in.AwayTeamID, in.SlateID, domain.ErrDuplicateMatchup)
	}
}

// LinesFrom flattens resolved markets into the stored quote fields. Absent
// markets leave their fields empty.
func LinesFrom(m domain.ResolvedMarketSet) domain.GameLines {
	var l domain.GameLines
	if s := m.Spread; s != nil {
		l.HomeSpread = FormatLine(s.Home)
		l.AwaySpread = FormatLine(s.Away)
		l.HomeSpreadPrice = s.HomePrice
		l.AwaySpreadPrice = s.AwayPrice
		l.Source = s.Source
		l.MarketStatus = s.Status
	}
	if ml := m.Moneyline; ml != nil {
		l.HomeMoneyline = ml.Home
		l.AwayMoneyline = ml.Away
		if l.Source == "" {
			l.Source = ml.Source
			l.MarketStatus = ml.Status
		}
	}
	if t := m.Total; t != nil {
		l.Total = FormatLine(t.Line)
		l.OverPrice = t.Over
		l.UnderPrice = t.Under
	}
	return l
}
