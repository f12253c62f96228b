package domain

import "time"

// Team is an internal team identity. Teams are owned by the poll
// application; ingestion only reads them.
type Team struct {
	ID   int64
	Name string
}

// MatchConfidence records how a source name was matched to a team.
type MatchConfidence string

const (
	ConfidenceExact  MatchConfidence = "exact"
	ConfidenceManual MatchConfidence = "manual"
	ConfidenceFuzzy  MatchConfidence = "fuzzy"
)

// TeamMapping is a cached resolution of a raw source name.
type TeamMapping struct {
	SourceName string
	TeamID     int64
	Confidence MatchConfidence
	CreatedAt  time.Time
}

// TeamResolution is the outcome of resolving one raw name.
type TeamResolution struct {
	TeamID     int64
	TeamName   string
	Confidence MatchConfidence
	Score      float64
	Cached     bool
	// Mapping is the persisted row behind a resolution that did not come
	// from the shared cache. Callers publish it once their unit of work
	// commits.
	Mapping *TeamMapping
}
