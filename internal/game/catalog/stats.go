// Package catalog provides the read-only definition tables for items, spells,
// skills, classes, and races. Catalogs are loaded once at startup and are
// never written afterwards.
package catalog

import "fmt"

// Stat names accepted by Stats.Get and the trainer's train-stat operation.
const (
	StatMight      = "might"
	StatAgility    = "agility"
	StatVitality   = "vitality"
	StatIntellect  = "intellect"
	StatPerception = "perception"
)

// Stats holds the five core ability scores.
type Stats struct {
	Might      int `yaml:"might"`
	Agility    int `yaml:"agility"`
	Vitality   int `yaml:"vitality"`
	Intellect  int `yaml:"intellect"`
	Perception int `yaml:"perception"`
}

// Get returns the named stat value.
//
// Postcondition: Returns the value, or an error for an unknown stat name.
func (s Stats) Get(name string) (int, error) {
	switch name {
	case StatMight:
		return s.Might, nil
	case StatAgility:
		return s.Agility, nil
	case StatVitality:
		return s.Vitality, nil
	case StatIntellect:
		return s.Intellect, nil
	case StatPerception:
		return s.Perception, nil
	}
	return 0, fmt.Errorf("unknown stat %q", name)
}

// Add increases the named stat by delta.
//
// Precondition: name must be a valid stat name.
// Postcondition: Returns an error for an unknown stat name; the receiver is
// unchanged on error.
func (s *Stats) Add(name string, delta int) error {
	switch name {
	case StatMight:
		s.Might += delta
	case StatAgility:
		s.Agility += delta
	case StatVitality:
		s.Vitality += delta
	case StatIntellect:
		s.Intellect += delta
	case StatPerception:
		s.Perception += delta
	default:
		return fmt.Errorf("unknown stat %q", name)
	}
	return nil
}

// Plus returns the member-wise sum of s and o.
func (s Stats) Plus(o Stats) Stats {
	return Stats{
		Might:      s.Might + o.Might,
		Agility:    s.Agility + o.Agility,
		Vitality:   s.Vitality + o.Vitality,
		Intellect:  s.Intellect + o.Intellect,
		Perception: s.Perception + o.Perception,
	}
}

// ValidStatName reports whether name is one of the five stat names.
func ValidStatName(name string) bool {
	switch name {
	case StatMight, StatAgility, StatVitality, StatIntellect, StatPerception:
		return true
	}
	return false
}
