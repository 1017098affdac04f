// Package roster holds the people: player profiles, squads, roles, and the
// YAML seed file the town is bootstrapped from. Authentication is a plain
// name + document-number lookup against this roster.
package roster

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Role gates supervisor actions (settlement, renewal, market validation).
type Role string

const (
	RoleMaster   Role = "Master"
	RoleMentor   Role = "Mentor"
	RoleExecutor Role = "Executor"
)

// Supervisor reports whether the role may grade tasks.
func (r Role) Supervisor() bool {
	return r == RoleMaster || r == RoleMentor
}

// Player is a per-user aggregate: identity plus progression state.
type Player struct {
	ID       string `json:"id" yaml:"id"`
	Name     string `json:"name" yaml:"name"`
	SquadID  string `json:"squad_id" yaml:"squad_id"`
	Role     Role   `json:"role" yaml:"role"`
	Document string `json:"-" yaml:"document"` // auth lookup only, never serialized out

	Level       int     `json:"level" yaml:"-"`
	CurrentXP   int     `json:"current_xp" yaml:"-"`
	NextLevelXP int     `json:"next_level_xp" yaml:"-"`
	TotalPoints int     `json:"total_points" yaml:"-"`
	Coins       int     `json:"coins" yaml:"-"`
	Reputation  float64 `json:"reputation" yaml:"-"`
	Streak      int     `json:"streak" yaml:"-"`
}

// Squad is a named group. Level/XP are derived from task records on demand,
// never stored here.
type Squad struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name" yaml:"name"`
	Color       string `json:"color" yaml:"color"`
	Description string `json:"description,omitempty" yaml:"description"`
}

// Seed is the YAML bootstrap file shape.
type Seed struct {
	Squads  []Squad  `yaml:"squads"`
	Players []Player `yaml:"players"`
}

// LoadSeed reads and validates a roster seed file.
func LoadSeed(path string) (*Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var seed Seed
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}

	squadIDs := make(map[string]bool, len(seed.Squads))
	for _, s := range seed.Squads {
		if s.ID == "" || s.Name == "" {
			return nil, fmt.Errorf("seed squad missing id or name")
		}
		if squadIDs[s.ID] {
			return nil, fmt.Errorf("duplicate squad id %q", s.ID)
		}
		squadIDs[s.ID] = true
	}
	for _, p := range seed.Players {
		if p.ID == "" || p.Name == "" {
			return nil, fmt.Errorf("seed player missing id or name")
		}
		if !squadIDs[p.SquadID] {
			return nil, fmt.Errorf("player %q references unknown squad %q", p.ID, p.SquadID)
		}
	}
	return &seed, nil
}

// MatchCredentials performs the login lookup: case-insensitive name plus
// exact document number.
func MatchCredentials(players []Player, name, document string) *Player {
	name = strings.TrimSpace(name)
	document = strings.TrimSpace(document)
	for i := range players {
		p := &players[i]
		if strings.EqualFold(p.Name, name) && p.Document == document {
			return p
		}
	}
	return nil
}
