// Package market reduces an event's raw market tree to one canonical quote
// per market kind. Everything here is pure: no I/O, no clocks.
package market

import (
	"strconv"
	"strings"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

// keyKinds maps aggregator market keys to the kind they quote.
var keyKinds = map[string]domain.MarketKind{
	"2W-12":   domain.MarketMoneyline,
	"3W-12":   domain.MarketMoneyline,
	"2W-HCAP": domain.MarketSpread,
	"HCAP":    domain.MarketSpread,
	"2W-OU":   domain.MarketTotal,
	"OU":      domain.MarketTotal,
}

// Candidate is a full-game market that survived filtering, annotated with
// the attributes the ranking uses.
type Candidate struct {
	Kind         domain.MarketKind
	Key          string
	Market       domain.Market
	Live         bool // live full-game period
	Prematch     bool // prematch "Game" period
	Status       string
	DefaultGroup bool
	MainLine     bool
	Symmetric    bool // spread only
}

// Source returns the provenance tag of the candidate.
func (c Candidate) Source() domain.Provenance {
	if c.Live {
		return domain.ProvenanceLive
	}
	return domain.ProvenancePrematch
}

// Candidates walks the market tree and returns every full-game moneyline,
// spread or total market, in tree order.
func Candidates(detail domain.EventDetail) []Candidate {
	var out []Candidate
	for _, dg := range detail.DisplayGroups {
		for _, m := range dg.Markets {
			kind, ok := keyKinds[m.Key]
			if !ok {
				continue
			}
			if !IsFullGame(m.Period) || !AllowedDescription(m.Description) {
				continue
			}
			out = append(out, newCandidate(kind, m, dg.Default))
		}
	}
	return out
}

func newCandidate(kind domain.MarketKind, m domain.Market, defaultGroup bool) Candidate {
	desc := strings.ToLower(strings.TrimSpace(m.Period.Description))
	abbr := strings.ToLower(strings.TrimSpace(m.Period.Abbreviation))

	c := Candidate{
		Kind:         kind,
		Key:          m.Key,
		Market:       m,
		Live:         isLiveGame(desc, abbr),
		Status:       strings.ToUpper(strings.TrimSpace(m.Status)),
		DefaultGroup: defaultGroup,
		MainLine:     isMainLine(m),
	}
	c.Prematch = !c.Live && desc == "game"
	if kind == domain.MarketSpread {
		c.Symmetric = hasSymmetricHandicaps(m.Outcomes)
	}
	return c
}

// isMainLine detects the aggregator's primary dynamic line.
func isMainLine(m domain.Market) bool {
	return strings.HasPrefix(strings.ToLower(m.DescriptionKey), "main dynamic")
}

// hasSymmetricHandicaps reports whether two outcomes carry handicaps of
// equal magnitude and opposite sign, e.g. -3.5/+3.5.
func hasSymmetricHandicaps(outcomes []domain.Outcome) bool {
	var hs []float64
	for _, o := range outcomes {
		if h, ok := parseNumber(o.Price.Handicap); ok {
			hs = append(hs, h)
		}
	}
	for i := range hs {
		for j := i + 1; j < len(hs); j++ {
			if hs[i] != 0 && hs[i] == -hs[j] {
				return true
			}
		}
	}
	return false
}

func parseNumber(s string) (float64, bool) {
	s = strings.TrimSpace(normalizeMinus(s))
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// normalizeMinus replaces the Unicode minus sign the feed sometimes uses.
func normalizeMinus(s string) string {
	return strings.ReplaceAll(s, "−", "-")
}
