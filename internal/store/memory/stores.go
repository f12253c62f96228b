package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

type teamStore struct{ tx *Tx }

func (s teamStore) GetByID(_ context.Context, id int64) (domain.Team, error) {
	for _, t := range s.tx.st.teams {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Team{}, fmt.Errorf("memory: team %d: %w", id, domain.ErrNotFound)
}

func (s teamStore) GetByName(_ context.Context, name string) (domain.Team, error) {
	for _, t := range s.tx.st.teams {
		if t.Name == name {
			return t, nil
		}
	}
	return domain.Team{}, fmt.Errorf("memory: team %q: %w", name, domain.ErrNotFound)
}

func (s teamStore) List(_ context.Context) ([]domain.Team, error) {
	s.tx.count(func(c *Calls) { c.TeamList++ })
	out := slices.Clone(s.tx.st.teams)
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

type mappingStore struct{ tx *Tx }

func (s mappingStore) Get(_ context.Context, source string) (domain.TeamMapping, error) {
	s.tx.count(func(c *Calls) { c.MappingGet++ })
	m, ok := s.tx.st.mappings[source]
	if !ok {
		return domain.TeamMapping{}, fmt.Errorf("memory: mapping %q: %w", source, domain.ErrNotFound)
	}
	return m, nil
}

func (s mappingStore) Insert(_ context.Context, m domain.TeamMapping) error {
	s.tx.count(func(c *Calls) { c.MappingWrite++ })
	if _, ok := s.tx.st.mappings[m.SourceName]; ok {
		return nil
	}
	m.CreatedAt = s.tx.store.now().UTC()
	s.tx.st.mappings[m.SourceName] = m
	return nil
}

func (s mappingStore) Override(_ context.Context, m domain.TeamMapping) error {
	s.tx.count(func(c *Calls) { c.MappingWrite++ })
	if prev, ok := s.tx.st.mappings[m.SourceName]; ok {
		m.CreatedAt = prev.CreatedAt
	} else {
		m.CreatedAt = s.tx.store.now().UTC()
	}
	s.tx.st.mappings[m.SourceName] = m
	return nil
}

func (s mappingStore) List(_ context.Context, opts domain.ListOpts) ([]domain.TeamMapping, error) {
	out := make([]domain.TeamMapping, 0, len(s.tx.st.mappings))
	for _, m := range s.tx.st.mappings {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SourceName < out[j].SourceName })
	return page(out, opts), nil
}

type slateStore struct{ tx *Tx }

func (s slateStore) GetOrCreate(ctx context.Context, season, week int, title string) (domain.Slate, error) {
	if sl, err := s.Get(ctx, season, week); err == nil {
		return sl, nil
	}
	sl := domain.Slate{
		ID:        s.tx.st.id(),
		Season:    season,
		Week:      week,
		Title:     title,
		Open:      true,
		CreatedAt: s.tx.store.now().UTC(),
	}
	s.tx.st.slates = append(s.tx.st.slates, sl)
	return sl, nil
}

func (s slateStore) Get(_ context.Context, season, week int) (domain.Slate, error) {
	for _, sl := range s.tx.st.slates {
		if sl.Season == season && sl.Week == week {
			return sl, nil
		}
	}
	return domain.Slate{}, fmt.Errorf("memory: slate %d/%d: %w", season, week, domain.ErrNotFound)
}

type gameStore struct{ tx *Tx }

func (s gameStore) FindByEvent(_ context.Context, slateID int64, eventID string) (domain.GameRecord, error) {
	for _, g := range s.tx.st.games {
		if g.SlateID == slateID && eventID != "" && g.EventID == eventID {
			return g, nil
		}
	}
	return domain.GameRecord{}, fmt.Errorf("memory: game event %s: %w", eventID, domain.ErrNotFound)
}

func (s gameStore) FindByMatchup(_ context.Context, slateID, homeID, awayID int64) ([]domain.GameRecord, error) {
	var out []domain.GameRecord
	for _, g := range s.tx.st.games {
		if g.SlateID == slateID && g.HomeTeamID == homeID && g.AwayTeamID == awayID {
			out = append(out, g)
		}
	}
	return out, nil
}

func (s gameStore) Create(_ context.Context, g *domain.GameRecord) error {
	s.tx.count(func(c *Calls) { c.GameCreate++ })
	if err := s.tx.store.FailGameWrites; err != nil {
		return err
	}
	now := s.tx.store.now().UTC()
	g.ID = s.tx.st.id()
	g.CreatedAt, g.UpdatedAt = now, now
	s.tx.st.games = append(s.tx.st.games, *g)
	return nil
}

func (s gameStore) Update(_ context.Context, g domain.GameRecord) error {
	s.tx.count(func(c *Calls) { c.GameUpdate++ })
	if err := s.tx.store.FailGameWrites; err != nil {
		return err
	}
	for i := range s.tx.st.games {
		if s.tx.st.games[i].ID == g.ID {
			g.UpdatedAt = s.tx.store.now().UTC()
			s.tx.st.games[i] = g
			return nil
		}
	}
	return fmt.Errorf("memory: update game %d: %w", g.ID, domain.ErrNotFound)
}

func (s gameStore) ListBySlate(_ context.Context, slateID int64) ([]domain.GameRecord, error) {
	var out []domain.GameRecord
	for _, g := range s.tx.st.games {
		if g.SlateID == slateID {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Kickoff.Before(out[j].Kickoff) })
	return out, nil
}

type runStore struct{ tx *Tx }

func (s runStore) Insert(_ context.Context, run domain.IngestRun) error {
	s.tx.st.runs = append(s.tx.st.runs, run)
	return nil
}

func (s runStore) ListRecent(_ context.Context, limit int) ([]domain.IngestRun, error) {
	out := slices.Clone(s.tx.st.runs)
	slices.Reverse(out)
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type auditStore struct{ tx *Tx }

func (s auditStore) Log(ctx context.Context, event string, detail map[string]any) error {
	s.tx.st.audit = append(s.tx.st.audit, domain.AuditEntry{
		ID:        s.tx.st.id(),
		Event:     event,
		RunID:     domain.RunIDFrom(ctx),
		Detail:    detail,
		CreatedAt: s.tx.store.now().UTC(),
	})
	return nil
}

func (s auditStore) List(_ context.Context, opts domain.ListOpts) ([]domain.AuditEntry, error) {
	out := slices.DeleteFunc(slices.Clone(s.tx.st.audit), func(e domain.AuditEntry) bool {
		return (opts.Since != nil && e.CreatedAt.Before(*opts.Since)) ||
			(opts.Until != nil && e.CreatedAt.After(*opts.Until))
	})
	slices.Reverse(out)
	return page(out, opts), nil
}

func page[T any](items []T, opts domain.ListOpts) []T {
	if opts.Offset > 0 {
		if opts.Offset >= len(items) {
			return nil
		}
		items = items[opts.Offset:]
	}
	if opts.Limit > 0 && len(items) > opts.Limit {
		items = items[:opts.Limit]
	}
	return items
}
