package domain

import "time"

// DefaultGameStatus is written when the feed carries no event status.
const DefaultGameStatus = "scheduled"

// Slate is a season/week grouping of games.
type Slate struct {
	ID        int64
	Season    int
	Week      int
	Title     string
	Open      bool
	ClosesAt  *time.Time
	CreatedAt time.Time
}

// GameLines is the set of quote fields frozen at kickoff.
type GameLines struct {
	HomeSpread      *string
	AwaySpread      *string
	HomeSpreadPrice string
	AwaySpreadPrice string
	HomeMoneyline   string
	AwayMoneyline   string
	Total           *string
	OverPrice       string
	UnderPrice      string
	Source          Provenance
	MarketStatus    string
}

// GameRecord is the persisted view of one contest within a slate.
//
// Kickoff holds an absolute instant unless KickoffNaive is set, in which
// case it holds a zone-less wall clock read from a legacy column.
type GameRecord struct {
	ID           int64
	SlateID      int64
	EventID      string
	HomeTeamID   int64
	AwayTeamID   int64
	Lines        GameLines
	Kickoff      time.Time
	KickoffNaive bool
	DayLabel     string
	Status       string
	Score        *Score
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// UpsertAction describes what the upsert engine did with a record.
type UpsertAction string

const (
	ActionCreated UpsertAction = "created"
	ActionUpdated UpsertAction = "updated"
	ActionFrozen  UpsertAction = "updated (no spread change)"
)
