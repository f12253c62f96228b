package teams

import "strings"

// Normalize strips a trailing mascot, expands "St." to "State" and
// collapses whitespace.
func Normalize(name string, mascots []string) string {
	n := strings.TrimSpace(name)
	if n == "" {
		return ""
	}

	best := ""
	for _, m := range mascots {
		if len(m) > len(best) && strings.HasSuffix(n, " "+m) {
			best = m
		}
	}
	if best != "" {
		n = strings.TrimSpace(strings.TrimSuffix(n, " "+best))
	}

	n = strings.ReplaceAll(n, " St.", " State")
	n = strings.ReplaceAll(n+" ", " St ", " State ")

	return strings.Join(strings.Fields(n), " ")
}

// Similarity scores two names in [0,1], case-insensitively: 1.0 for equal,
// 0.9 when one contains the other, otherwise the intersection-over-union
// of their character sets.
func Similarity(a, b string) float64 {
	a, b = strings.ToLower(a), strings.ToLower(b)
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}
	if strings.Contains(a, b) || strings.Contains(b, a) {
		return 0.9
	}

	setA := runeSet(a)
	setB := runeSet(b)
	inter := 0
	for r := range setA {
		if setB[r] {
			inter++
		}
	}
	union := len(setA) + len(setB) - inter
	if union == 0 {
		return 0.0
	}
	return float64(inter) / float64(union)
}

func runeSet(s string) map[rune]bool {
	set := make(map[rune]bool, len(s))
	for _, r := range s {
		set[r] = true
	}
	return set
}
