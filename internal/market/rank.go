package market

import (
	"slices"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

// Rank is the ordered tie-break tuple of a candidate. Lower is better and
// each position only breaks ties of the previous one:
//
//	0 period   live full game, prematch game, other
//	1 status   open, suspended, other
//	2 line     main dynamic, other
//	3 group    default display group, other
//	4 symmetry (spread only) symmetric handicaps, other
type Rank [5]int

// Less reports whether r orders strictly before o.
func (r Rank) Less(o Rank) bool {
	for i := range r {
		if r[i] != o[i] {
			return r[i] < o[i]
		}
	}
	return false
}

// RankOf computes the rank tuple of a candidate.
func RankOf(c Candidate) Rank {
	var r Rank

	switch {
	case c.Live:
		r[0] = 0
	case c.Prematch:
		r[0] = 1
	default:
		r[0] = 9
	}

	switch c.Status {
	case "O":
		r[1] = 0
	case "S":
		r[1] = 1
	default:
		r[1] = 2
	}

	r[2] = boolRank(c.MainLine)
	r[3] = boolRank(c.DefaultGroup)
	r[4] = boolRank(c.Kind == domain.MarketSpread && c.Symmetric)
	return r
}

// Select returns the best-ranked candidate whose key is in keys. Ties keep
// the earliest candidate. ok is false when nothing qualifies.
func Select(cands []Candidate, keys ...string) (best Candidate, ok bool) {
	var bestRank Rank
	for _, c := range cands {
		if !slices.Contains(keys, c.Key) {
			continue
		}
		r := RankOf(c)
		if !ok || r.Less(bestRank) {
			best, bestRank, ok = c, r, true
		}
	}
	return best, ok
}

func boolRank(b bool) int {
	if b {
		return 0
	}
	return 1
}
