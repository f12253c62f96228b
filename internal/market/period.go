package market

import (
	"strings"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

// Period and description tokens that mark a market as something other
// than the full game.
var (
	badPeriodTokens = []string{
		"1st half", "first half", "2nd half", "second half",
		"half", "quarter", "q1", "q2", "q3", "q4",
		"period 1", "period 2", "period 3", "period 4",
	}
	badDescriptionTokens = []string{
		"1st half", "2nd half", "quarter", "race to",
		"team total", "alternate", "alt", "winning margin",
		"exact score", "correct score",
	}
	wantedDescriptionTokens = []string{"moneyline", "point spread", "spread", "total"}
)

// IsFullGame reports whether a period covers the whole contest. Half and
// quarter segments are rejected by text or by period number 1–4. A live
// full-game period is accepted, as is a prematch "Game" period flagged as
// the main line, or the "LG" abbreviation.
func IsFullGame(p domain.Period) bool {
	desc := strings.ToLower(strings.TrimSpace(p.Description))
	abbr := strings.ToLower(strings.TrimSpace(p.Abbreviation))

	hay := strings.TrimSpace(desc + " " + abbr)
	if containsAny(hay, badPeriodTokens) {
		return false
	}
	if p.Number >= 1 && p.Number <= 4 {
		return false
	}

	switch {
	case isLiveGame(desc, abbr):
		return true
	case desc == "game" && p.Main:
		return true
	}
	return false
}

// AllowedDescription reports whether a market description names a
// moneyline, spread or total and is not an alternate or derivative line.
func AllowedDescription(desc string) bool {
	d := strings.ToLower(strings.TrimSpace(desc))
	if containsAny(d, badDescriptionTokens) {
		return false
	}
	return containsAny(d, wantedDescriptionTokens)
}

func isLiveGame(desc, abbr string) bool {
	if strings.Contains(desc, "live") && strings.Contains(desc, "game") {
		return true
	}
	return abbr == "lg"
}

func containsAny(s string, tokens []string) bool {
	for _, tok := range tokens {
		if strings.Contains(s, tok) {
			return true
		}
	}
	return false
}
