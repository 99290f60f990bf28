// Package entity provides entity template definitions and live instance
// management: hostiles, vendors, and trainers occupying the world graph.
package entity

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/cory-johannsen/realmd/internal/game/loot"
)

// Role constants for Template.Role. An entity with no role is scenery or a
// plain hostile.
const (
	RoleNone    = ""
	RoleVendor  = "vendor"
	RoleTrainer = "trainer"
)

// Template defines a reusable entity archetype loaded from YAML.
type Template struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Level       int    `yaml:"level"`
	MaxHP       int    `yaml:"max_hp"`
	// Accuracy is added to the entity's attack checks.
	Accuracy int `yaml:"accuracy"`
	// Defense is the target number attackers must beat.
	Defense int `yaml:"defense"`
	// Evasion is added to opposed checks against skills.
	Evasion int `yaml:"evasion"`
	// Perception is the entity's score in opposed stealth checks.
	Perception int `yaml:"perception"`
	// Hostile entities can be attacked and attack back.
	Hostile bool `yaml:"hostile"`
	// Role marks the entity as a vendor or trainer.
	Role string `yaml:"role"`
	// XPReward is granted to the killer.
	XPReward int `yaml:"xp_reward"`
	// DamageBase is the entity's flat melee damage before the check margin.
	DamageBase int `yaml:"damage_base"`
	// Patrol entities wander through open exits when unengaged.
	Patrol bool `yaml:"patrol"`
	// RespawnTicks is how many scheduler passes a dead entity stays down.
	// 0 means the entity does not respawn.
	RespawnTicks int `yaml:"respawn_ticks"`
	// Loot is rolled by the killer; nil means no loot.
	Loot *loot.Table `yaml:"loot"`
	// Wares lists the item IDs a vendor sells.
	Wares []string `yaml:"wares"`
}

// Validate checks that the template satisfies basic invariants.
//
// Precondition: t must not be nil.
// Postcondition: Returns nil iff all fields are valid; returns an error on
// the first violation otherwise.
func (t *Template) Validate() error {
	if t.ID == "" {
		return fmt.Errorf("entity template: id must not be empty")
	}
	if t.Name == "" {
		return fmt.Errorf("entity template %q: name must not be empty", t.ID)
	}
	if t.Level < 1 {
		return fmt.Errorf("entity template %q: level must be >= 1", t.ID)
	}
	if t.MaxHP < 1 {
		return fmt.Errorf("entity template %q: max_hp must be >= 1", t.ID)
	}
	if t.Defense < 1 {
		return fmt.Errorf("entity template %q: defense must be >= 1", t.ID)
	}
	if t.RespawnTicks < 0 {
		return fmt.Errorf("entity template %q: respawn_ticks must be >= 0", t.ID)
	}
	switch t.Role {
	case RoleNone, RoleVendor, RoleTrainer:
	default:
		return fmt.Errorf("entity template %q: role must be vendor, trainer, or empty; got %q", t.ID, t.Role)
	}
	if t.Role != RoleNone && t.Hostile {
		return fmt.Errorf("entity template %q: %s entities must not be hostile", t.ID, t.Role)
	}
	if t.Hostile && t.DamageBase < 1 {
		return fmt.Errorf("entity template %q: hostile entities require damage_base >= 1", t.ID)
	}
	if len(t.Wares) > 0 && t.Role != RoleVendor {
		return fmt.Errorf("entity template %q: only vendors may declare wares", t.ID)
	}
	if t.Loot != nil {
		if err := t.Loot.Validate(); err != nil {
			return fmt.Errorf("entity template %q: %w", t.ID, err)
		}
	}
	return nil
}

// LoadTemplateFromBytes parses a single entity template from raw YAML bytes.
// Unknown fields are a parse error.
//
// Precondition: data must be valid YAML for a single Template.
// Postcondition: Returns a validated *Template, or an error.
func LoadTemplateFromBytes(data []byte) (*Template, error) {
	var tmpl Template
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&tmpl); err != nil {
		return nil, fmt.Errorf("parsing template YAML: %w", err)
	}
	if err := tmpl.Validate(); err != nil {
		return nil, err
	}
	return &tmpl, nil
}

// LoadTemplates reads all *.yaml files in dir and returns the parsed
// templates keyed by ID.
//
// Precondition: dir must be a readable directory.
// Postcondition: Returns all templates or an error on the first parse or
// validate failure; on error, the partial result is discarded.
func LoadTemplates(dir string) (map[string]*Template, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading entity dir %q: %w", dir, err)
	}

	templates := make(map[string]*Template)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading %q: %w", path, err)
		}

		tmpl, err := LoadTemplateFromBytes(data)
		if err != nil {
			return nil, fmt.Errorf("loading %q: %w", path, err)
		}
		if _, exists := templates[tmpl.ID]; exists {
			return nil, fmt.Errorf("duplicate entity template ID %q in %q", tmpl.ID, path)
		}
		templates[tmpl.ID] = tmpl
	}
	return templates, nil
}
