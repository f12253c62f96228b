package pipeline

import (
	"strconv"
	"strings"
	"time"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

// LockLead is how long before kickoff picks on a game close.
const LockLead = 5 * time.Minute

// KickoffInstant returns the absolute kickoff instant of g. A naive kickoff
// is a wall clock in loc and is re-anchored there, so daylight-saving
// transitions are handled by the zone database.
func KickoffInstant(g domain.GameRecord, loc *time.Location) time.Time {
	if g.Kickoff.IsZero() {
		return time.Time{}
	}
	if !g.KickoffNaive {
		return g.Kickoff.UTC()
	}
	k := g.Kickoff
	return time.Date(k.Year(), k.Month(), k.Day(), k.Hour(), k.Minute(), k.Second(), k.Nanosecond(), loc).UTC()
}

// HasStarted reports whether g kicked off at or before now. A game without
// a known kickoff has not started.
func HasStarted(g domain.GameRecord, now time.Time, loc *time.Location) bool {
	k := KickoffInstant(g, loc)
	if k.IsZero() {
		return false
	}
	return !k.After(now)
}

// DayLabel is the weekday name of t in loc, or "" for an unknown time.
func DayLabel(t time.Time, loc *time.Location) string {
	if t.IsZero() {
		return ""
	}
	return t.In(loc).Weekday().String()
}

// LockTime is the instant picks on a game close.
func LockTime(kickoff time.Time) time.Time {
	if kickoff.IsZero() {
		return time.Time{}
	}
	return kickoff.Add(-LockLead)
}

// FormatLine renders a handicap or total the way the legacy records store
// it: shortest decimal form with at least one fractional digit ("-3.5",
// "7.0").
func FormatLine(v *float64) *string {
	if v == nil {
		return nil
	}
	s := strconv.FormatFloat(*v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eEnN") {
		s += ".0"
	}
	return &s
}
