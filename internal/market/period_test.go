package market

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/alanyoungcy/cfbspreads/internal/domain"
)

func TestIsFullGame(t *testing.T) {
	tests := []struct {
		name   string
		period domain.Period
		want   bool
	}{
		{"live game", domain.Period{Description: "Live Game"}, true},
		{"lg abbreviation", domain.Period{Description: "Match", Abbreviation: "LG"}, true},
		{"main game", domain.Period{Description: "Game", Main: true}, true},
		{"game not main", domain.Period{Description: "Game"}, false},
		{"first half", domain.Period{Description: "1st Half", Main: true}, false},
		{"quarter abbreviation", domain.Period{Description: "Game", Abbreviation: "Q2", Main: true}, false},
		{"numbered period", domain.Period{Description: "Game", Main: true, Number: 4}, false},
		{"period 5 allowed", domain.Period{Description: "Game", Main: true, Number: 5}, true},
		{"empty", domain.Period{}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsFullGame(tt.period))
		})
	}
}

func TestAllowedDescription(t *testing.T) {
	tests := []struct {
		desc string
		want bool
	}{
		{"Moneyline", true},
		{"Point Spread", true},
		{"Total", true},
		{"Alternate Total", false},
		{"Team Total - Home", false},
		{"Exact Score", false},
		{"Player Props", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AllowedDescription(tt.desc), tt.desc)
	}
}
