package teams

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed aliases.yaml
var defaultAliases []byte

// AliasTable is the static name configuration: manual aliases from source
// spelling to canonical team name, and mascot suffixes stripped before
// fuzzy comparison.
type AliasTable struct {
	Manual  map[string]string `yaml:"manual"`
	Mascots []string          `yaml:"mascots"`

	folded map[string]string
}

// DefaultAliases returns the table compiled into the binary.
func DefaultAliases() (*AliasTable, error) {
	return parseAliases(defaultAliases)
}

// LoadAliases reads an alias table from path. An empty path returns the
// compiled-in default.
func LoadAliases(path string) (*AliasTable, error) {
	if path == "" {
		return DefaultAliases()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("teams: read alias file %s: %w", path, err)
	}
	t, err := parseAliases(data)
	if err != nil {
		return nil, fmt.Errorf("teams: %s: %w", path, err)
	}
	return t, nil
}

func parseAliases(data []byte) (*AliasTable, error) {
	var t AliasTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse alias table: %w", err)
	}
	t.index()
	return &t, nil
}

func (t *AliasTable) index() {
	t.folded = make(map[string]string, len(t.Manual))
	for k, v := range t.Manual {
		// A name that is already canonical belongs to the exact tier.
		if strings.TrimSpace(k) == strings.TrimSpace(v) {
			delete(t.Manual, k)
			continue
		}
		t.folded[strings.ToLower(strings.TrimSpace(k))] = v
	}
	mascots := t.Mascots[:0]
	for _, m := range t.Mascots {
		if m = strings.TrimSpace(m); m != "" {
			mascots = append(mascots, m)
		}
	}
	t.Mascots = mascots
}

// Canonical returns the canonical name for a manual alias. An exact key
// match wins over a case-insensitive one.
func (t *AliasTable) Canonical(raw string) (string, bool) {
	if t == nil {
		return "", false
	}
	if v, ok := t.Manual[raw]; ok {
		return v, true
	}
	v, ok := t.folded[strings.ToLower(strings.TrimSpace(raw))]
	return v, ok
}
