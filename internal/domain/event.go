package domain

import "time"

// ExternalEvent is one contest as listed by the aggregator's discovery feed.
// Any field may be empty; the feed routinely omits data.
type ExternalEvent struct {
	ID           string
	Link         string
	Description  string
	Sport        string
	HomeName     string
	AwayName     string
	HomeID       string // competitor id
	AwayID       string
	StartTime    time.Time // UTC, zero when absent
	Live         bool
	Status       string
	LastModified time.Time
}

// HasTeams reports whether both competitor names are present.
func (e ExternalEvent) HasTeams() bool {
	return e.HomeName != "" && e.AwayName != ""
}

// Score is the raw scoreboard state of a contest. It is stored as reported
// and never used for settlement.
type Score struct {
	Home      *int
	Away      *int
	Clock     string
	Period    string
	Status    string
	UpdatedAt time.Time
}
