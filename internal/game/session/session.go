package session

import (
	"fmt"
	"sync"

	"github.com/cory-johannsen/realmd/internal/game/catalog"
	"github.com/cory-johannsen/realmd/internal/game/effect"
	"github.com/cory-johannsen/realmd/internal/game/inventory"
	"github.com/cory-johannsen/realmd/internal/game/protocol"
)

// Roles carried on the session, loaded from the account row.
const (
	RolePlayer = "player"
	RoleAdmin  = "admin"
)

// Session tracks one connected player. Identity fields are immutable after
// creation. Gameplay state (vitals, activity, cooldowns, effects, the pending
// slot, the location) is guarded by the session's own mutex because the
// player's command goroutine, the scheduler, and admin commands all touch it.
// Backpack and Equipment are touched only by the command goroutine and need
// no locking. Only the Registry writes the location, so its occupancy index
// stays consistent with the field.
type Session struct {
	// UID is the unique player identifier (character row ID as uuid string).
	UID string
	// Name is the character display name shown in-game.
	Name string
	// Role is the account privilege level.
	Role string
	// Class and Race are the character's catalog definitions.
	Class *catalog.Class
	Race  *catalog.Race

	// Backpack and Equipment are command-goroutine-only state.
	Backpack  *inventory.Backpack
	Equipment *inventory.Equipment

	// Outbox queues outbound events for the gateway writer.
	Outbox *Outbox

	mu         sync.Mutex
	locationID string
	stats      catalog.Stats
	level      int
	xp         int
	currency   int
	hp, maxHP  int
	mp, maxMP  int
	activity   Activity
	target     string // entity instance ID, empty when none
	cooldowns  map[string]int
	pending    Pending
	effects    *effect.Set
	discovered map[string]bool
	invincible bool
}

// Params carries everything needed to construct a Session, typically loaded
// from the player's database row.
type Params struct {
	UID        string
	Name       string
	Role       string
	Class      *catalog.Class
	Race       *catalog.Race
	LocationID string
	Stats      catalog.Stats
	Level      int
	XP         int
	Currency   int
	HP, MaxHP  int
	MP, MaxMP  int

	OutboxSize     int
	BackpackSlots  int
	BackpackWeight float64
}

// New creates a Session from loaded player state.
//
// Precondition: p.UID, p.Name, and p.LocationID must be non-empty; p.Class
// and p.Race must not be nil.
// Postcondition: the session is idle with no target, cooldowns, effects, or
// pending action.
func New(p Params) *Session {
	return &Session{
		UID:        p.UID,
		Name:       p.Name,
		Role:       p.Role,
		Class:      p.Class,
		Race:       p.Race,
		locationID: p.LocationID,
		Backpack:   inventory.NewBackpack(p.BackpackSlots, p.BackpackWeight),
		Equipment:  inventory.NewEquipment(),
		Outbox:     NewOutbox(p.UID, p.OutboxSize),
		stats:      p.Stats,
		level:      p.Level,
		xp:         p.XP,
		currency:   p.Currency,
		hp:         p.HP,
		maxHP:      p.MaxHP,
		mp:         p.MP,
		maxMP:      p.MaxMP,
		cooldowns:  make(map[string]int),
		effects:    effect.NewSet(),
		discovered: make(map[string]bool),
	}
}

// Location returns the current location ID.
func (s *Session) Location() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.locationID
}

// setLocation updates the location. Only the Registry calls this, under its
// own lock, so the occupancy index never disagrees with the field.
func (s *Session) setLocation(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locationID = id
}

// Activity returns the current activity state.
func (s *Session) Activity() Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activity
}

// SetActivity performs a state transition, enforcing the legal-transition
// table: idle is reachable from anywhere, anywhere is reachable from idle,
// combat interrupts everything, and nothing else is legal.
//
// Postcondition: on error the state is unchanged.
func (s *Session) SetActivity(to Activity) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !canTransition(s.activity, to) {
		return fmt.Errorf("cannot go from %s to %s", s.activity, to)
	}
	s.activity = to
	return nil
}

// IsHidden reports whether the session is currently hidden.
func (s *Session) IsHidden() bool {
	return s.Activity() == ActivityHidden
}

// Target returns the selected entity instance ID, or empty.
func (s *Session) Target() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.target
}

// SetTarget selects an entity instance as the combat target.
func (s *Session) SetTarget(entityID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.target = entityID
}

// ClearTarget drops the selected target.
func (s *Session) ClearTarget() {
	s.SetTarget("")
}

// Cooldown returns the remaining passes on the named ability, 0 when ready.
func (s *Session) Cooldown(abilityID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cooldowns[abilityID]
}

// StartCooldown sets the named ability's cooldown counter. A ticks value of
// 0 or less is a no-op; the ability stays ready.
func (s *Session) StartCooldown(abilityID string, ticks int) {
	if ticks <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cooldowns[abilityID] = ticks
}

// TickCooldowns decrements every active cooldown by one pass.
//
// Postcondition: no counter is ever negative; a counter started at N reaches
// ready after exactly N passes.
func (s *Session) TickCooldowns() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, v := range s.cooldowns {
		v--
		if v <= 0 {
			delete(s.cooldowns, id)
			continue
		}
		s.cooldowns[id] = v
	}
}

// SetPending queues an action for the next scheduler pass. The slot holds at
// most one action; a second queue attempt before resolution is rejected.
//
// Postcondition: on error the existing pending action is untouched.
func (s *Session) SetPending(p Pending) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pending != nil {
		return fmt.Errorf("an action is already queued")
	}
	s.pending = p
	return nil
}

// TakePending returns and clears the pending slot. Returns nil when empty.
func (s *Session) TakePending() Pending {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.pending
	s.pending = nil
	return p
}

// ClearPending drops any queued action (used on move and disengage).
func (s *Session) ClearPending() {
	s.TakePending()
}

// ApplyEffect adds or refreshes a timed effect.
func (s *Session) ApplyEffect(a effect.Active) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.effects.Apply(a)
}

// TickEffects advances every timed effect one pass.
func (s *Session) TickEffects() (ticked []effect.Active, expired []string, changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.effects.Tick()
}

// ClearEffects drops every active timed effect.
func (s *Session) ClearEffects() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.effects.Clear()
}

// EffectSnapshot returns a copy of the active effects.
func (s *Session) EffectSnapshot() []effect.Active {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.effects.All()
}

// Vitals returns the current and maximum HP and MP.
func (s *Session) Vitals() (hp, maxHP, mp, maxMP int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hp, s.maxHP, s.mp, s.maxMP
}

// Damage subtracts amount from HP and returns the new value. Invincible
// sessions take no damage.
//
// Precondition: amount >= 0.
// Postcondition: the returned HP is clamped to [0, maxHP].
func (s *Session) Damage(amount int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.invincible {
		return s.hp
	}
	s.hp -= amount
	if s.hp < 0 {
		s.hp = 0
	}
	return s.hp
}

// Heal adds amount to HP and returns the new value.
//
// Precondition: amount >= 0.
// Postcondition: the returned HP is clamped to [0, maxHP].
func (s *Session) Heal(amount int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.hp += amount
	if s.hp > s.maxHP {
		s.hp = s.maxHP
	}
	return s.hp
}

// SpendMana deducts cost from MP, rejecting overdraw.
//
// Postcondition: on error MP is unchanged.
func (s *Session) SpendMana(cost int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.mp < cost {
		return fmt.Errorf("not enough mana")
	}
	s.mp -= cost
	return nil
}

// RestoreMana adds amount to MP, clamped to the maximum.
func (s *Session) RestoreMana(amount int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mp += amount
	if s.mp > s.maxMP {
		s.mp = s.maxMP
	}
	return s.mp
}

// RaiseMaxHP grows the HP pool and heals the difference.
func (s *Session) RaiseMaxHP(by int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxHP += by
	s.hp += by
}

// RaiseMaxMP grows the MP pool and restores the difference.
func (s *Session) RaiseMaxMP(by int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.maxMP += by
	s.mp += by
}

// BaseStats returns the trained ability scores without gear or buffs.
func (s *Session) BaseStats() catalog.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// EffectiveStat returns the named stat with equipment bonuses and active
// buffs applied. This is the value every difficulty check uses.
func (s *Session) EffectiveStat(name string) (int, error) {
	gear, err := s.Equipment.Bonuses().Get(name)
	if err != nil {
		return 0, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	base, err := s.stats.Get(name)
	if err != nil {
		return 0, err
	}
	return base + gear + s.effects.BuffBonus(name), nil
}

// TrainStat raises the named base stat by one.
//
// Precondition: name must be a valid stat name.
func (s *Session) TrainStat(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats.Add(name, 1)
}

// Level returns the current level.
func (s *Session) Level() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.level
}

// SetLevel sets the level directly (level-up and admin paths).
func (s *Session) SetLevel(level int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.level = level
}

// XP returns the accumulated experience.
func (s *Session) XP() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.xp
}

// AddXP adds amount to the session's experience and returns the new total.
//
// Precondition: amount >= 0.
func (s *Session) AddXP(amount int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.xp += amount
	return s.xp
}

// Currency returns the coin balance.
func (s *Session) Currency() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currency
}

// AddCurrency adds amount to the balance and returns the new total.
//
// Precondition: amount >= 0.
func (s *Session) AddCurrency(amount int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.currency += amount
	return s.currency
}

// SpendCurrency deducts amount, rejecting overdraw.
//
// Postcondition: on error the balance is unchanged; the balance never goes
// negative.
func (s *Session) SpendCurrency(amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.currency < amount {
		return fmt.Errorf("not enough coins")
	}
	s.currency -= amount
	return nil
}

// Discover records a hidden exit in the per-player discovered set.
func (s *Session) Discover(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discovered[key] = true
}

// HasDiscovered reports whether the player has found the keyed hidden exit.
func (s *Session) HasDiscovered(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discovered[key]
}

// DiscoveredSet returns a snapshot copy of the discovered-exit keys.
func (s *Session) DiscoveredSet() map[string]bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]bool, len(s.discovered))
	for k := range s.discovered {
		out[k] = true
	}
	return out
}

// AdjustStat moves the named base stat by delta (admin path; training uses
// TrainStat).
func (s *Session) AdjustStat(name string, delta int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats.Add(name, delta)
}

// SetInvincible toggles admin damage immunity and returns the new state.
func (s *Session) SetInvincible(on bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.invincible = on
	return s.invincible
}

// IsInvincible reports whether the session is immune to damage.
func (s *Session) IsInvincible() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.invincible
}

// IsAdmin reports whether the session may use the admin command namespace.
func (s *Session) IsAdmin() bool {
	return s.Role == RoleAdmin
}

// Send pushes an event to the session's outbox, best-effort.
func (s *Session) Send(ev protocol.Event) error {
	return s.Outbox.Push(ev)
}
