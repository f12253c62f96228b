// Package memory is an in-process implementation of the domain stores with
// copy-on-begin transactions. It backs unit tests and local dry runs.
package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

type state struct {
	teams    []domain.Team
	mappings map[string]domain.TeamMapping
	slates   []domain.Slate
	games    []domain.GameRecord
	runs     []domain.IngestRun
	audit    []domain.AuditEntry
	nextID   int64
}

func (s *state) clone() *state {
	c := &state{
		teams:    slices.Clone(s.teams),
		mappings: maps.Clone(s.mappings),
		slates:   slices.Clone(s.slates),
		games:    slices.Clone(s.games),
		runs:     slices.Clone(s.runs),
		audit:    slices.Clone(s.audit),
		nextID:   s.nextID,
	}
	if c.mappings == nil {
		c.mappings = make(map[string]domain.TeamMapping)
	}
	return c
}

func (s *state) id() int64 {
	s.nextID++
	return s.nextID
}

// Calls counts store operations so tests can assert what was touched.
type Calls struct {
	TeamList     int
	MappingGet   int
	MappingWrite int
	GameCreate   int
	GameUpdate   int
}

// Store holds committed state.
type Store struct {
	mu    sync.Mutex
	st    *state
	calls Calls
	now   func() time.Time

	// FailGameWrites, when set, is returned by every game Create/Update.
	FailGameWrites error
}

// New creates a Store seeded with teams. Team ids are assigned when zero.
func New(teams ...domain.Team) *Store {
	s := &Store{st: (&state{}).clone(), now: time.Now}
	for _, t := range teams {
		if t.ID == 0 {
			t.ID = s.st.id()
		} else if t.ID > s.st.nextID {
			s.st.nextID = t.ID
		}
		s.st.teams = append(s.st.teams, t)
	}
	return s
}

// Begin opens a transaction over a snapshot of committed state.
func (s *Store) Begin(_ context.Context) (domain.UnitOfWork, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &Tx{store: s, st: s.st.clone()}, nil
}

// Calls returns a copy of the operation counters.
func (s *Store) Calls() Calls {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Games returns committed games ordered by id.
func (s *Store) Games() []domain.GameRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := slices.Clone(s.st.games)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Mappings returns committed team mappings.
func (s *Store) Mappings() map[string]domain.TeamMapping {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.st.mappings)
}

// Runs returns committed run summaries.
func (s *Store) Runs() []domain.IngestRun {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.st.runs)
}

// PutGame stores a game directly in committed state and returns its id.
func (s *Store) PutGame(g domain.GameRecord) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if g.ID == 0 {
		g.ID = s.st.id()
	}
	s.st.games = append(s.st.games, g)
	return g.ID
}

// Tx is a unit of work over a private copy of the store state.
type Tx struct {
	store *Store
	st    *state
	done  bool
}

func (t *Tx) Teams() domain.TeamStore               { return teamStore{t} }
func (t *Tx) TeamMappings() domain.TeamMappingStore { return mappingStore{t} }
func (t *Tx) Slates() domain.SlateStore             { return slateStore{t} }
func (t *Tx) Games() domain.GameStore               { return gameStore{t} }
func (t *Tx) Runs() domain.IngestRunStore           { return runStore{t} }
func (t *Tx) Audit() domain.AuditStore              { return auditStore{t} }

// Commit publishes the transaction's state.
func (t *Tx) Commit(_ context.Context) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	if t.done {
		return fmt.Errorf("memory: commit: transaction closed")
	}
	t.done = true
	t.store.st = t.st
	return nil
}

// Rollback discards the transaction. It is a no-op after Commit.
func (t *Tx) Rollback(_ context.Context) error {
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	t.done = true
	return nil
}

func (t *Tx) count(f func(*Calls)) {
	t.store.mu.Lock()
	f(&t.store.calls)
	t.store.mu.Unlock()
}
