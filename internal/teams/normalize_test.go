package teams

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	aliases, err := DefaultAliases()
	require.NoError(t, err)

	tests := []struct {
		in   string
		want string
	}{
		{"Ohio State Buckeyes", "Ohio State"},
		{"California Golden Bears", "California"},
		{"Michigan St. Spartans", "Michigan State"},
		{"Boise St Broncos", "Boise State"},
		{"Penn St", "Penn State"},
		{"  Texas   A&M  Aggies ", "Texas A&M"},
		{"Tigers", "Tigers"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in, aliases.Mascots))
		})
	}
}

func TestSimilarity(t *testing.T) {
	assert.Equal(t, 1.0, Similarity("Ohio State", "ohio state"))
	assert.Equal(t, 0.9, Similarity("Ohio", "Ohio State"))
	assert.Equal(t, 0.0, Similarity("", "Ohio"))
	assert.InDelta(t, 0.5, Similarity("penn state", "ohio state"), 1e-9)
}

func TestAliasTable(t *testing.T) {
	aliases, err := DefaultAliases()
	require.NoError(t, err)

	got, ok := aliases.Canonical("Miami")
	require.True(t, ok)
	assert.Equal(t, "Miami (FL)", got)

	got, ok = aliases.Canonical("sjsu")
	require.True(t, ok)
	assert.Equal(t, "San José State", got)

	_, ok = aliases.Canonical("Ohio State")
	assert.False(t, ok)

	assert.Contains(t, aliases.Mascots, "Nittany Lions")
}

func TestAliasTableIgnoresIdentityEntries(t *testing.T) {
	aliases, err := parseAliases([]byte("manual:\n  UCLA: UCLA\n  Pittsburgh: Pitt\n"))
	require.NoError(t, err)

	_, ok := aliases.Canonical("UCLA")
	assert.False(t, ok)
	assert.NotContains(t, aliases.Manual, "UCLA")

	got, ok := aliases.Canonical("Pittsburgh")
	require.True(t, ok)
	assert.Equal(t, "Pitt", got)
}

func TestLoadAliasesMissingFile(t *testing.T) {
	_, err := LoadAliases("/nonexistent/aliases.yaml")
	assert.Error(t, err)
}
