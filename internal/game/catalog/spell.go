package catalog

import (
	"errors"
	"fmt"
)

// Kind constants for Spell.Kind.
const (
	SpellKindDamage = "damage"
	SpellKindHeal   = "heal"
	SpellKindDoT    = "dot"
	SpellKindHoT    = "hot"
	SpellKindBuff   = "buff"
)

var validSpellKinds = map[string]bool{
	SpellKindDamage: true,
	SpellKindHeal:   true,
	SpellKindDoT:    true,
	SpellKindHoT:    true,
	SpellKindBuff:   true,
}

// Spell defines a castable spell loaded from YAML.
type Spell struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Kind        string `yaml:"kind"`
	ManaCost    int    `yaml:"mana_cost"`
	// Magnitude is damage/heal per application, or the stat bonus for buffs.
	Magnitude int `yaml:"magnitude"`
	// DurationTicks applies to dot/hot/buff kinds; 0 for instant kinds.
	DurationTicks int `yaml:"duration_ticks"`
	CooldownTicks int `yaml:"cooldown_ticks"`
	// Difficulty is the target number of the casting check. 0 = always succeeds.
	Difficulty int `yaml:"difficulty"`
	// BuffStat names the stat a buff raises. Required when Kind is buff.
	BuffStat string `yaml:"buff_stat"`
}

// Validate checks that the Spell satisfies its invariants.
//
// Precondition: s must not be nil.
// Postcondition: Returns nil iff all fields are valid.
func (s *Spell) Validate() error {
	var errs []error
	if s.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if s.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if !validSpellKinds[s.Kind] {
		errs = append(errs, fmt.Errorf("kind must be one of damage, heal, dot, hot, buff; got %q", s.Kind))
	}
	if s.ManaCost < 0 {
		errs = append(errs, errors.New("mana_cost must be >= 0"))
	}
	if s.Magnitude < 1 {
		errs = append(errs, errors.New("magnitude must be >= 1"))
	}
	if s.CooldownTicks < 0 {
		errs = append(errs, errors.New("cooldown_ticks must be >= 0"))
	}
	switch s.Kind {
	case SpellKindDoT, SpellKindHoT, SpellKindBuff:
		if s.DurationTicks < 1 {
			errs = append(errs, fmt.Errorf("%s spells require duration_ticks >= 1", s.Kind))
		}
	default:
		if s.DurationTicks != 0 {
			errs = append(errs, fmt.Errorf("%s spells must not declare duration_ticks", s.Kind))
		}
	}
	if s.Kind == SpellKindBuff && !ValidStatName(s.BuffStat) {
		errs = append(errs, fmt.Errorf("buff spells require a valid buff_stat; got %q", s.BuffStat))
	}
	if len(errs) > 0 {
		return fmt.Errorf("spell %q validation failed: %v", s.ID, errs)
	}
	return nil
}
