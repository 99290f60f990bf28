package catalog

import (
	"errors"
	"fmt"
)

// Kind constants for Skill.Kind. Strike, kick, and track resolve on the next
// scheduler pass rather than at arrival time.
const (
	SkillKindStrike   = "strike"
	SkillKindKick     = "kick"
	SkillKindTrack    = "track"
	SkillKindHide     = "hide"
	SkillKindPickLock = "picklock"
)

var validSkillKinds = map[string]bool{
	SkillKindStrike:   true,
	SkillKindKick:     true,
	SkillKindTrack:    true,
	SkillKindHide:     true,
	SkillKindPickLock: true,
}

// Skill defines a usable skill loaded from YAML.
type Skill struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Kind        string `yaml:"kind"`
	// Stat names the acting stat for the skill's difficulty check.
	Stat          string `yaml:"stat"`
	CooldownTicks int    `yaml:"cooldown_ticks"`
	// DamageBase is the flat damage added to the check margin for strike/kick.
	DamageBase int `yaml:"damage_base"`
	// Difficulty is the base target number when the skill has no opposed check.
	Difficulty int `yaml:"difficulty"`
}

// Validate checks that the Skill satisfies its invariants.
//
// Precondition: s must not be nil.
// Postcondition: Returns nil iff all fields are valid.
func (s *Skill) Validate() error {
	var errs []error
	if s.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if s.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if !validSkillKinds[s.Kind] {
		errs = append(errs, fmt.Errorf("kind must be one of strike, kick, track, hide, picklock; got %q", s.Kind))
	}
	if !ValidStatName(s.Stat) {
		errs = append(errs, fmt.Errorf("stat must be a valid stat name; got %q", s.Stat))
	}
	if s.CooldownTicks < 0 {
		errs = append(errs, errors.New("cooldown_ticks must be >= 0"))
	}
	if s.DamageBase < 0 {
		errs = append(errs, errors.New("damage_base must be >= 0"))
	}
	if (s.Kind == SkillKindStrike || s.Kind == SkillKindKick) && s.DamageBase < 1 {
		errs = append(errs, fmt.Errorf("%s skills require damage_base >= 1", s.Kind))
	}
	if len(errs) > 0 {
		return fmt.Errorf("skill %q validation failed: %v", s.ID, errs)
	}
	return nil
}
