package catalog

import (
	"errors"
	"fmt"
)

// Class defines a playable class loaded from YAML.
type Class struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	BaseHP      int    `yaml:"base_hp"`
	BaseMP      int    `yaml:"base_mp"`
	HPPerLevel  int    `yaml:"hp_per_level"`
	MPPerLevel  int    `yaml:"mp_per_level"`
	// StartStats are the level-1 ability scores before racial modifiers.
	StartStats Stats `yaml:"start_stats"`
	// Skills and Spells list the catalog IDs this class may use.
	Skills []string `yaml:"skills"`
	Spells []string `yaml:"spells"`
	// VitalityThreshold and ThresholdBonusHP reproduce the pinned first-level-up
	// rule: when vitality is at or above the threshold at the moment of the
	// FIRST level-up, the bonus HP is granted once. Later stat training past
	// the threshold grants nothing. The order dependence is intentional and
	// preserved; see the trainer tests.
	VitalityThreshold int `yaml:"vitality_threshold"`
	ThresholdBonusHP  int `yaml:"threshold_bonus_hp"`
}

// Validate checks that the Class satisfies its invariants.
//
// Precondition: c must not be nil.
// Postcondition: Returns nil iff all fields are valid.
func (c *Class) Validate() error {
	var errs []error
	if c.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if c.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if c.BaseHP < 1 {
		errs = append(errs, errors.New("base_hp must be >= 1"))
	}
	if c.BaseMP < 0 {
		errs = append(errs, errors.New("base_mp must be >= 0"))
	}
	if c.HPPerLevel < 1 {
		errs = append(errs, errors.New("hp_per_level must be >= 1"))
	}
	if c.MPPerLevel < 0 {
		errs = append(errs, errors.New("mp_per_level must be >= 0"))
	}
	if c.VitalityThreshold < 0 {
		errs = append(errs, errors.New("vitality_threshold must be >= 0"))
	}
	if c.ThresholdBonusHP < 0 {
		errs = append(errs, errors.New("threshold_bonus_hp must be >= 0"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("class %q validation failed: %v", c.ID, errs)
	}
	return nil
}

// Race defines a playable race loaded from YAML.
type Race struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// StatMods are added to the class start stats at character creation.
	StatMods Stats `yaml:"stat_mods"`
}

// Validate checks that the Race satisfies its invariants.
//
// Precondition: r must not be nil.
// Postcondition: Returns nil iff ID and Name are non-empty.
func (r *Race) Validate() error {
	if r.ID == "" {
		return errors.New("race: id must not be empty")
	}
	if r.Name == "" {
		return fmt.Errorf("race %q: name must not be empty", r.ID)
	}
	return nil
}

// XPForLevel returns the total experience required to reach the given level.
//
// Precondition: level >= 1.
// Postcondition: Returns 0 for level 1; strictly increasing thereafter.
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	// Quadratic curve: 100, 300, 600, 1000, ...
	n := level - 1
	return 50 * n * (n + 1)
}
