package market

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseAmerican parses an American price string such as "-110", "+135",
// "−150" or "EVEN".
func ParseAmerican(s string) (int, error) {
	s = strings.TrimSpace(normalizeMinus(s))
	if strings.EqualFold(s, "even") || strings.EqualFold(s, "ev") {
		return 100, nil
	}
	n, err := strconv.Atoi(strings.TrimPrefix(s, "+"))
	if err != nil {
		return 0, fmt.Errorf("market: parse american %q: %w", s, err)
	}
	if n == 0 {
		return 0, fmt.Errorf("market: parse american %q: zero price", s)
	}
	return n, nil
}

// AmericanToDecimal converts American odds to decimal odds.
// +150 → 2.50, -150 → 1.67
func AmericanToDecimal(american int) (float64, error) {
	if american == 0 {
		return 0, fmt.Errorf("market: invalid american odds 0")
	}
	if american > 0 {
		return float64(american)/100.0 + 1.0, nil
	}
	return 100.0/float64(-american) + 1.0, nil
}

// ImpliedProbability returns the vig-inclusive implied probability of an
// American price string.
func ImpliedProbability(price string) (float64, error) {
	american, err := ParseAmerican(price)
	if err != nil {
		return 0, err
	}
	dec, err := AmericanToDecimal(american)
	if err != nil {
		return 0, err
	}
	return 1.0 / dec, nil
}

// NoVigPair removes the bookmaker margin from a two-sided price pair and
// returns the fair probabilities of each side.
func NoVigPair(a, b string) (pa, pb float64, err error) {
	ia, err := ImpliedProbability(a)
	if err != nil {
		return 0, 0, err
	}
	ib, err := ImpliedProbability(b)
	if err != nil {
		return 0, 0, err
	}
	sum := ia + ib
	return ia / sum, ib / sum, nil
}
