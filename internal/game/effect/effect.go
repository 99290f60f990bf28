// Package effect provides timed-effect tracking for sessions: damage-over-time,
// heal-over-time, and stat buffs, all advanced on the scheduler tick.
package effect

// Kind classifies what an active effect does each tick.
type Kind string

const (
	// KindDamageOverTime deals Magnitude damage per tick.
	KindDamageOverTime Kind = "dot"
	// KindHealOverTime restores Magnitude HP per tick.
	KindHealOverTime Kind = "hot"
	// KindStatBuff raises the named Stat by Magnitude while active.
	KindStatBuff Kind = "buff"
)

// Active is one applied timed effect.
//
// Invariant: Remaining > 0 while the effect is held in a Set.
type Active struct {
	// Name identifies the effect for display and refresh semantics.
	Name string
	// Kind determines per-tick behavior.
	Kind Kind
	// Magnitude is damage, healing, or stat bonus per Kind.
	Magnitude int
	// Stat is the buffed stat name. Empty unless Kind is KindStatBuff.
	Stat string
	// Remaining is the number of scheduler passes left.
	Remaining int
}

// Set tracks all timed effects on one session.
// It is not safe for concurrent use; the owning session serialises access.
type Set struct {
	effects []Active
}

// NewSet creates an empty Set.
func NewSet() *Set {
	return &Set{}
}

// Apply adds a new effect. Re-applying an effect with the same Name refreshes
// it: magnitude is replaced and Remaining is extended to the larger of the
// existing and new durations.
//
// Precondition: a.Remaining must be >= 1.
// Postcondition: the set contains an effect with a.Name.
func (s *Set) Apply(a Active) {
	for i := range s.effects {
		if s.effects[i].Name == a.Name {
			s.effects[i].Magnitude = a.Magnitude
			s.effects[i].Kind = a.Kind
			s.effects[i].Stat = a.Stat
			if a.Remaining > s.effects[i].Remaining {
				s.effects[i].Remaining = a.Remaining
			}
			return
		}
	}
	s.effects = append(s.effects, a)
}

// Remove deletes the effect with the given name. No-op when absent.
//
// Postcondition: no effect with name remains in the set.
func (s *Set) Remove(name string) {
	for i := range s.effects {
		if s.effects[i].Name == name {
			s.effects = append(s.effects[:i], s.effects[i+1:]...)
			return
		}
	}
}

// Tick decrements every effect by one pass and drops the expired ones.
// The returned ticked slice holds the pre-decrement view of every effect that
// was active this pass (so damage/heal applies on the expiring tick too);
// expired holds the names of effects removed this pass.
//
// Postcondition: no Remaining value is ever negative; changed is true iff
// the set's contents differ from before the call.
func (s *Set) Tick() (ticked []Active, expired []string, changed bool) {
	if len(s.effects) == 0 {
		return nil, nil, false
	}
	kept := s.effects[:0]
	for _, a := range s.effects {
		ticked = append(ticked, a)
		a.Remaining--
		if a.Remaining <= 0 {
			expired = append(expired, a.Name)
			continue
		}
		kept = append(kept, a)
	}
	s.effects = kept
	return ticked, expired, true
}

// Clear drops every active effect (player death wipes them).
func (s *Set) Clear() {
	s.effects = s.effects[:0]
}

// BuffBonus returns the total active buff magnitude for the named stat.
func (s *Set) BuffBonus(stat string) int {
	total := 0
	for _, a := range s.effects {
		if a.Kind == KindStatBuff && a.Stat == stat {
			total += a.Magnitude
		}
	}
	return total
}

// All returns a snapshot copy of the active effects.
//
// Postcondition: mutations of the returned slice do not affect the set.
func (s *Set) All() []Active {
	out := make([]Active, len(s.effects))
	copy(out, s.effects)
	return out
}

// Len returns the number of active effects.
func (s *Set) Len() int {
	return len(s.effects)
}
