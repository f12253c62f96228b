package market

import (
	"strings"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

// Teams identifies the two competitors of an event as the feed names them.
type Teams struct {
	HomeID   string
	AwayID   string
	HomeName string
	AwayName string
}

type side int

const (
	sideUnknown side = iota
	sideHome
	sideAway
)

var (
	homeTypes = map[string]bool{"H": true, "HOME": true, "1": true, "TEAM 1": true}
	awayTypes = map[string]bool{"A": true, "AWAY": true, "2": true, "TEAM 2": true}
	drawTypes = map[string]bool{"D": true, "DRAW": true}
)

// sideOf assigns an outcome to home or away. Participant ids are tried
// first, then team names inside the outcome text, then the type code.
func sideOf(o domain.Outcome, t Teams) side {
	pid := firstNonEmpty(o.ParticipantID, o.CompetitorID, o.Price.ParticipantID)
	if pid != "" {
		switch {
		case t.HomeID != "" && pid == t.HomeID:
			return sideHome
		case t.AwayID != "" && pid == t.AwayID:
			return sideAway
		}
	}

	desc := strings.ToLower(strings.TrimSpace(o.Description))
	if desc != "" {
		if t.HomeName != "" && strings.Contains(desc, strings.ToLower(t.HomeName)) {
			return sideHome
		}
		if t.AwayName != "" && strings.Contains(desc, strings.ToLower(t.AwayName)) {
			return sideAway
		}
	}

	typ := strings.ToUpper(strings.TrimSpace(o.Type))
	switch {
	case homeTypes[typ]:
		return sideHome
	case awayTypes[typ]:
		return sideAway
	}
	return sideUnknown
}

func isDraw(o domain.Outcome) bool {
	if drawTypes[strings.ToUpper(strings.TrimSpace(o.Type))] {
		return true
	}
	d := strings.ToLower(strings.TrimSpace(o.Description))
	return d == "draw" || d == "tie"
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
