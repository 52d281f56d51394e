package catalog

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"github.com/riskibarqy/livescore-crawler/internal/domain/match"
	"gopkg.in/yaml.v3"
)

//go:embed presets.yaml
var builtinPresets []byte

// Team is a named shortcut for a team reference.
type Team struct {
	Name string `yaml:"name" json:"name"`
	Slug string `yaml:"slug" json:"slug"`
	ID   string `yaml:"id" json:"id"`
}

func (t Team) Reference() match.TeamReference {
	return match.TeamReference{Slug: t.Slug, ID: t.ID}
}

type file struct {
	Teams []Team `yaml:"teams"`
}

// Catalog is read only after Load.
type Catalog struct {
	teams  []Team
	bySlug map[string]Team
}

// Load reads presets from path, or the built-in list when path is empty.
func Load(path string) (*Catalog, error) {
	raw := builtinPresets
	if path = strings.TrimSpace(path); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read team catalog %s: %w", path, err)
		}
		raw = data
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Catalog, error) {
	var f file
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("decode team catalog: %w", err)
	}

	c := &Catalog{bySlug: make(map[string]Team, len(f.Teams))}
	for i, team := range f.Teams {
		team.Name = strings.TrimSpace(team.Name)
		team.Slug = strings.TrimSpace(team.Slug)
		team.ID = strings.TrimSpace(team.ID)
		if err := team.Reference().Validate(); err != nil {
			return nil, fmt.Errorf("team catalog entry %d: %w", i, err)
		}
		if team.Name == "" {
			team.Name = team.Slug
		}
		if _, exists := c.bySlug[team.Slug]; exists {
			return nil, fmt.Errorf("team catalog entry %d: duplicate slug %q", i, team.Slug)
		}
		c.bySlug[team.Slug] = team
		c.teams = append(c.teams, team)
	}
	return c, nil
}

// Teams returns a copy in file order.
func (c *Catalog) Teams() []Team {
	out := make([]Team, len(c.teams))
	copy(out, c.teams)
	return out
}

func (c *Catalog) Lookup(slug string) (Team, bool) {
	team, ok := c.bySlug[strings.TrimSpace(slug)]
	return team, ok
}
