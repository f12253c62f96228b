package domain

// MarketKind names the three bet types the resolver produces.
type MarketKind string

const (
	MarketMoneyline MarketKind = "moneyline"
	MarketSpread    MarketKind = "spread"
	MarketTotal     MarketKind = "total"
)

// Provenance tags a resolved quote with the market phase it came from.
type Provenance string

const (
	ProvenanceLive     Provenance = "live"
	ProvenancePrematch Provenance = "prematch"
)

// Period describes the segment of the contest a market covers.
type Period struct {
	Description  string
	Abbreviation string
	Number       int // 0 when absent
	Main         bool
	Live         bool
}

// OutcomePrice carries the raw price strings of one outcome.
type OutcomePrice struct {
	American      string
	Handicap      string
	ParticipantID string
}

// Outcome is one selectable side of a market.
type Outcome struct {
	ID            string
	Description   string
	Type          string
	ParticipantID string
	CompetitorID  string
	Price         OutcomePrice
}

// Market is a raw market node from an event's market tree.
type Market struct {
	ID             string
	Key            string
	Description    string
	DescriptionKey string
	Status         string // "O" open, "S" suspended
	Period         Period
	Outcomes       []Outcome
}

// DisplayGroup groups markets the way the aggregator renders them.
type DisplayGroup struct {
	ID          string
	Description string
	Default     bool
	Markets     []Market
}

// EventDetail is the full market tree of one event.
type EventDetail struct {
	EventID       string
	DisplayGroups []DisplayGroup
}

// MoneylineQuote is the resolved outright-winner market.
type MoneylineQuote struct {
	Home   string
	Away   string
	Source Provenance
	Status string
}

// SpreadQuote is the resolved handicap market. Lines may be missing when
// the aggregator omitted a handicap or side assignment failed.
type SpreadQuote struct {
	Home      *float64
	Away      *float64
	HomePrice string
	AwayPrice string
	Source    Provenance
	Status    string
}

// TotalQuote is the resolved combined-score market.
type TotalQuote struct {
	Line   *float64
	Over   string
	Under  string
	Source Provenance
	Status string
}

// ResolvedMarketSet holds at most one quote per market kind. A nil quote
// means no candidate qualified, which is not an error.
type ResolvedMarketSet struct {
	Moneyline *MoneylineQuote
	Spread    *SpreadQuote
	Total     *TotalQuote
}

// Empty reports whether nothing resolved.
func (r ResolvedMarketSet) Empty() bool {
	return r.Moneyline == nil && r.Spread == nil && r.Total == nil
}
