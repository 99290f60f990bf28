package entity

import (
	"sync"
	"sync/atomic"

	"github.com/cory-johannsen/realmd/internal/game/effect"
)

// Instance is a live entity occupying a location. HP and the engaged set are
// guarded by the instance's own mutex; the dead flag is an atomic so the
// death transition has exactly one winner even under concurrent kills.
type Instance struct {
	// ID uniquely identifies this runtime instance.
	ID string
	// TemplateID is the source template's ID.
	TemplateID string
	// Name is copied from the template for display.
	Name string
	// Template is the source template (read-only after load).
	Template *Template
	// LocationID is the location this instance currently occupies.
	// Guarded by the owning Manager, not the instance mutex.
	LocationID string

	mu        sync.Mutex
	currentHP int
	engaged   map[string]bool // session UIDs fighting this instance
	effects   *effect.Set

	dead atomic.Bool
}

// NewInstance creates a live entity instance from a template.
//
// Precondition: id must be non-empty; tmpl must be non-nil.
// Postcondition: CurrentHP equals tmpl.MaxHP and the instance is alive.
func NewInstance(id string, tmpl *Template, locationID string) *Instance {
	return &Instance{
		ID:         id,
		TemplateID: tmpl.ID,
		Name:       tmpl.Name,
		Template:   tmpl,
		LocationID: locationID,
		currentHP:  tmpl.MaxHP,
		engaged:    make(map[string]bool),
		effects:    effect.NewSet(),
	}
}

// CurrentHP returns the instance's current hit points.
func (i *Instance) CurrentHP() int {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.currentHP
}

// MaxHP returns the instance's maximum hit points.
func (i *Instance) MaxHP() int {
	return i.Template.MaxHP
}

// Damage subtracts amount from the instance's HP and returns the new value.
//
// Precondition: amount >= 0.
// Postcondition: the returned HP is clamped to [0, MaxHP].
func (i *Instance) Damage(amount int) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.currentHP -= amount
	if i.currentHP < 0 {
		i.currentHP = 0
	}
	return i.currentHP
}

// Heal adds amount to the instance's HP and returns the new value.
//
// Precondition: amount >= 0.
// Postcondition: the returned HP is clamped to [0, MaxHP].
func (i *Instance) Heal(amount int) int {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.currentHP += amount
	if i.currentHP > i.Template.MaxHP {
		i.currentHP = i.Template.MaxHP
	}
	return i.currentHP
}

// MarkDead performs the single legal alive-to-dead transition. Exactly one
// caller observes true; every other concurrent caller observes false. The
// winner owns kill resolution: loot, XP, broadcast, respawn scheduling.
//
// Postcondition: IsDead reports true forever after.
func (i *Instance) MarkDead() bool {
	return !i.dead.Swap(true)
}

// IsDead reports whether the death transition has happened.
func (i *Instance) IsDead() bool {
	return i.dead.Load()
}

// Engage records a session as fighting this instance.
func (i *Instance) Engage(uid string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.engaged[uid] = true
}

// Disengage removes a session from the engaged set.
func (i *Instance) Disengage(uid string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	delete(i.engaged, uid)
}

// EngagedWith reports whether the session is fighting this instance.
func (i *Instance) EngagedWith(uid string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.engaged[uid]
}

// EngagedClients returns a snapshot of the UIDs fighting this instance.
//
// Postcondition: Returns a non-nil slice; may be empty.
func (i *Instance) EngagedClients() []string {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]string, 0, len(i.engaged))
	for uid := range i.engaged {
		out = append(out, uid)
	}
	return out
}

// ApplyEffect adds or refreshes a timed effect (spell damage-over-time).
func (i *Instance) ApplyEffect(a effect.Active) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.effects.Apply(a)
}

// TickEffects advances this instance's timed effects one pass.
func (i *Instance) TickEffects() (ticked []effect.Active, expired []string, changed bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.effects.Tick()
}

// HealthDescription returns a visible health state string for look output.
//
// Postcondition: Returns a non-empty string.
func (i *Instance) HealthDescription() string {
	hp := i.CurrentHP()
	if hp <= 0 || i.IsDead() {
		return "dead"
	}
	pct := float64(hp) / float64(i.Template.MaxHP)
	switch {
	case pct >= 1.0:
		return "unharmed"
	case pct >= 0.85:
		return "barely scratched"
	case pct >= 0.60:
		return "lightly wounded"
	case pct >= 0.40:
		return "moderately wounded"
	case pct >= 0.20:
		return "heavily wounded"
	default:
		return "critically wounded"
	}
}
