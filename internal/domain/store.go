package domain

import (
	"context"
	"time"
)

// ListOpts provides pagination and filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// SlateStore persists season/week slates.
type SlateStore interface {
	GetOrCreate(ctx context.Context, season, week int, title string) (Slate, error)
	Get(ctx context.Context, season, week int) (Slate, error)
}

// GameStore persists game records. Records are never deleted here.
type GameStore interface {
	FindByEvent(ctx context.Context, slateID int64, eventID string) (GameRecord, error)
	FindByMatchup(ctx context.Context, slateID, homeTeamID, awayTeamID int64) ([]GameRecord, error)
	Create(ctx context.Context, game *GameRecord) error
	Update(ctx context.Context, game GameRecord) error
	ListBySlate(ctx context.Context, slateID int64) ([]GameRecord, error)
}

// TeamStore reads internal team identities.
type TeamStore interface {
	GetByID(ctx context.Context, id int64) (Team, error)
	GetByName(ctx context.Context, name string) (Team, error)
	List(ctx context.Context) ([]Team, error)
}

// TeamMappingStore persists resolved source names. Insert never replaces an
// existing row; Override is the admin path that does.
type TeamMappingStore interface {
	Get(ctx context.Context, sourceName string) (TeamMapping, error)
	Insert(ctx context.Context, m TeamMapping) error
	Override(ctx context.Context, m TeamMapping) error
	List(ctx context.Context, opts ListOpts) ([]TeamMapping, error)
}

// IngestRunStore persists run summaries.
type IngestRunStore interface {
	Insert(ctx context.Context, run IngestRun) error
	ListRecent(ctx context.Context, limit int) ([]IngestRun, error)
}

// AuditEntry is a single audit log row.
type AuditEntry struct {
	ID        int64
	Event     string
	RunID     string // ingestion run that wrote the entry, if any
	Detail    map[string]any
	CreatedAt time.Time
}

// AuditStore persists an append-only audit log.
type AuditStore interface {
	Log(ctx context.Context, event string, detail map[string]any) error
	List(ctx context.Context, opts ListOpts) ([]AuditEntry, error)
}

// TeamLookup is the subset of stores the team resolver needs.
type TeamLookup interface {
	Teams() TeamStore
	TeamMappings() TeamMappingStore
}

// UnitOfWork scopes every write of one ingestion run to a single
// transaction. Rollback after Commit is a no-op.
type UnitOfWork interface {
	TeamLookup
	Slates() SlateStore
	Games() GameStore
	Runs() IngestRunStore
	Audit() AuditStore
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// UnitOfWorkFactory opens units of work.
type UnitOfWorkFactory interface {
	Begin(ctx context.Context) (UnitOfWork, error)
}
