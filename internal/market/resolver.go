package market

import (
	"strings"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

// Market keys per kind. Moneyline tries the two-way market before falling
// back to the three-way one.
var (
	moneylineKeys         = []string{"2W-12"}
	moneylineFallbackKeys = []string{"3W-12"}
	spreadKeys            = []string{"2W-HCAP", "HCAP"}
	totalKeys             = []string{"2W-OU", "OU"}
)

// Resolve reduces a market tree to at most one quote per kind. A kind with
// no qualifying candidate is left nil; that never affects the others.
func Resolve(detail domain.EventDetail, teams Teams) domain.ResolvedMarketSet {
	cands := Candidates(detail)

	var set domain.ResolvedMarketSet

	ml, ok := Select(cands, moneylineKeys...)
	if !ok {
		ml, ok = Select(cands, moneylineFallbackKeys...)
	}
	if ok {
		set.Moneyline = moneylineQuote(ml, teams)
	}
	if sp, ok := Select(cands, spreadKeys...); ok {
		set.Spread = spreadQuote(sp, teams)
	}
	if tot, ok := Select(cands, totalKeys...); ok {
		set.Total = totalQuote(tot)
	}
	return set
}

func moneylineQuote(c Candidate, teams Teams) *domain.MoneylineQuote {
	q := &domain.MoneylineQuote{Source: c.Source(), Status: c.Market.Status}
	for _, o := range c.Market.Outcomes {
		if isDraw(o) {
			continue
		}
		price := normalizeMinus(o.Price.American)
		switch sideOf(o, teams) {
		case sideHome:
			if q.Home == "" {
				q.Home = price
			}
		case sideAway:
			if q.Away == "" {
				q.Away = price
			}
		}
	}
	return q
}

func spreadQuote(c Candidate, teams Teams) *domain.SpreadQuote {
	q := &domain.SpreadQuote{Source: c.Source(), Status: c.Market.Status}
	for _, o := range c.Market.Outcomes {
		var line *float64
		if h, ok := parseNumber(o.Price.Handicap); ok {
			line = &h
		}
		price := normalizeMinus(o.Price.American)
		// A later outcome for the same side replaces an earlier one.
		switch sideOf(o, teams) {
		case sideHome:
			q.Home, q.HomePrice = line, price
		case sideAway:
			q.Away, q.AwayPrice = line, price
		}
	}
	return q
}

func totalQuote(c Candidate) *domain.TotalQuote {
	q := &domain.TotalQuote{Source: c.Source(), Status: c.Market.Status}
	for _, o := range c.Market.Outcomes {
		desc := strings.ToLower(strings.TrimSpace(o.Description))
		if desc != "over" && desc != "under" {
			continue
		}
		if q.Line == nil {
			if h, ok := parseNumber(o.Price.Handicap); ok {
				q.Line = &h
			}
		}
		price := normalizeMinus(o.Price.American)
		if desc == "over" {
			q.Over = price
		} else {
			q.Under = price
		}
	}
	return q
}
