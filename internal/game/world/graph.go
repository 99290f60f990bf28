package world

import (
	"errors"
	"fmt"
	"sync"
)

// Navigation errors returned by Navigate. A hidden exit that the mover cannot
// see reports ErrNoExit, not ErrExitHidden: concealment means the passage
// does not exist as far as that mover is concerned.
var (
	ErrNoExit     = errors.New("no exit in that direction")
	ErrExitLocked = errors.New("the way is locked")
)

type exitKey struct {
	loc string
	dir Direction
}

type featureKey struct {
	loc     string
	feature string
}

// Graph provides thread-safe access to the loaded world and owns all mutable
// exit and feature state. Authored Locked/Hidden flags are the baseline;
// unlocks, reveals, and feature uses are counters that TickResets winds down,
// restoring the baseline when they reach zero. A counter stored as the
// permanent sentinel (-1) never resets.
//
// Invariant: no active counter is ever negative (the permanent sentinel is
// not a counter); a reset value of N restores state after exactly N passes.
type Graph struct {
	mu            sync.RWMutex
	zones         map[string]*Zone
	locations     map[string]*Location
	startLocation string

	unlockTimers  map[exitKey]int
	revealTimers  map[exitKey]int
	featureTimers map[featureKey]int
}

const permanent = -1

// NewGraph creates a Graph from the given zones.
//
// Precondition: zones must contain at least one zone; the first zone's start
// location is the global start location.
// Postcondition: Returns a Graph with all locations indexed by ID, or an
// error on duplicate IDs.
func NewGraph(zones []*Zone) (*Graph, error) {
	g := &Graph{
		zones:         make(map[string]*Zone, len(zones)),
		locations:     make(map[string]*Location),
		unlockTimers:  make(map[exitKey]int),
		revealTimers:  make(map[exitKey]int),
		featureTimers: make(map[featureKey]int),
	}

	for _, z := range zones {
		if _, exists := g.zones[z.ID]; exists {
			return nil, fmt.Errorf("duplicate zone ID: %q", z.ID)
		}
		g.zones[z.ID] = z
		for id, loc := range z.Locations {
			if existing, exists := g.locations[id]; exists {
				return nil, fmt.Errorf("duplicate location ID %q: in zone %q and %q", id, existing.ZoneID, z.ID)
			}
			g.locations[id] = loc
		}
	}

	if len(zones) > 0 {
		g.startLocation = zones[0].StartLocation
	}

	return g, nil
}

// ValidateExits checks that every exit target and every reveal feature's
// direction resolves across all loaded zones. Call this after NewGraph to
// catch dangling cross-zone references.
//
// Postcondition: Returns nil if everything resolves, or the first error.
func (g *Graph) ValidateExits() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	for _, zone := range g.zones {
		for _, loc := range zone.Locations {
			for _, exit := range loc.Exits {
				if _, ok := g.locations[exit.Target]; !ok {
					return fmt.Errorf("zone %q: location %q: exit %q targets unknown location %q",
						zone.ID, loc.ID, exit.Direction, exit.Target)
				}
			}
			for _, f := range loc.Features {
				if f.Effect != FeatureEffectReveal {
					continue
				}
				if _, ok := loc.ExitForDirection(f.RevealDirection); !ok {
					return fmt.Errorf("zone %q: location %q: feature %q reveals unknown exit %q",
						zone.ID, loc.ID, f.ID, f.RevealDirection)
				}
			}
		}
	}
	return nil
}

// GetLocation returns the location with the given ID.
//
// Postcondition: Returns (location, true) if found, or (nil, false) otherwise.
func (g *Graph) GetLocation(id string) (*Location, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	l, ok := g.locations[id]
	return l, ok
}

// Navigate resolves movement from a location in a direction. canSeeHidden
// reports whether the mover has discovered the exit (or the exit has been
// revealed globally); a concealed exit the mover cannot see behaves as absent.
//
// Precondition: fromID must exist in the world.
// Postcondition: Returns the destination, or ErrNoExit / ErrExitLocked
// (wrapped) when the passage is unavailable.
func (g *Graph) Navigate(fromID string, dir Direction, canSeeHidden bool) (*Location, error) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	from, ok := g.locations[fromID]
	if !ok {
		return nil, fmt.Errorf("location %q not found", fromID)
	}

	exit, ok := from.ExitForDirection(dir)
	if !ok {
		return nil, fmt.Errorf("%q from %q: %w", dir, fromID, ErrNoExit)
	}

	if exit.Hidden && !canSeeHidden && !g.revealedLocked(fromID, dir) {
		return nil, fmt.Errorf("%q from %q: %w", dir, fromID, ErrNoExit)
	}

	if exit.Locked && !g.unlockedLocked(fromID, dir) {
		return nil, fmt.Errorf("%q from %q: %w", dir, fromID, ErrExitLocked)
	}

	target, ok := g.locations[exit.Target]
	if !ok {
		return nil, fmt.Errorf("exit %q from %q targets unknown location %q", dir, fromID, exit.Target)
	}

	return target, nil
}

// unlockedLocked reports an active unlock. Caller must hold g.mu.
func (g *Graph) unlockedLocked(locID string, dir Direction) bool {
	_, ok := g.unlockTimers[exitKey{locID, dir}]
	return ok
}

// revealedLocked reports an active reveal. Caller must hold g.mu.
func (g *Graph) revealedLocked(locID string, dir Direction) bool {
	_, ok := g.revealTimers[exitKey{locID, dir}]
	return ok
}

// IsExitLocked reports whether the exit is currently impassable due to lock.
func (g *Graph) IsExitLocked(locID string, dir Direction) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	loc, ok := g.locations[locID]
	if !ok {
		return false
	}
	exit, ok := loc.ExitForDirection(dir)
	if !ok {
		return false
	}
	return exit.Locked && !g.unlockedLocked(locID, dir)
}

// IsExitRevealed reports whether a hidden exit is currently revealed globally.
func (g *Graph) IsExitRevealed(locID string, dir Direction) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.revealedLocked(locID, dir)
}

// UnlockExit opens a locked exit and starts its re-lock counter.
//
// Precondition: the exit must exist and be authored as locked.
// Postcondition: Navigate passes the exit until LockResetTicks passes elapse
// (forever when LockResetTicks is 0).
func (g *Graph) UnlockExit(locID string, dir Direction) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	loc, ok := g.locations[locID]
	if !ok {
		return fmt.Errorf("location %q not found", locID)
	}
	exit, ok := loc.ExitForDirection(dir)
	if !ok {
		return fmt.Errorf("%q from %q: %w", dir, locID, ErrNoExit)
	}
	if !exit.Locked {
		return fmt.Errorf("exit %q from %q is not locked", dir, locID)
	}
	ticks := exit.LockResetTicks
	if ticks == 0 {
		ticks = permanent
	}
	g.unlockTimers[exitKey{locID, dir}] = ticks
	return nil
}

// RevealExit uncovers a hidden exit for everyone and starts its re-hide
// counter. Per-player discovery is tracked on the session, not here.
//
// Precondition: the exit must exist and be authored as hidden.
// Postcondition: the exit is visible to all until HideResetTicks passes
// elapse (forever when HideResetTicks is 0).
func (g *Graph) RevealExit(locID string, dir Direction) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	loc, ok := g.locations[locID]
	if !ok {
		return fmt.Errorf("location %q not found", locID)
	}
	exit, ok := loc.ExitForDirection(dir)
	if !ok {
		return fmt.Errorf("%q from %q: %w", dir, locID, ErrNoExit)
	}
	if !exit.Hidden {
		return fmt.Errorf("exit %q from %q is not hidden", dir, locID)
	}
	ticks := exit.HideResetTicks
	if ticks == 0 {
		ticks = permanent
	}
	g.revealTimers[exitKey{locID, dir}] = ticks
	return nil
}

// IsFeatureUsed reports whether the feature is currently exhausted.
func (g *Graph) IsFeatureUsed(locID, featureID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.featureTimers[featureKey{locID, featureID}]
	return ok
}

// MarkFeatureUsed exhausts a feature and starts its reset counter. Returns
// false when the feature was already used, so exactly one caller wins.
//
// Postcondition: IsFeatureUsed reports true until the feature's ResetTicks
// passes elapse (forever when ResetTicks is 0).
func (g *Graph) MarkFeatureUsed(locID string, f Feature) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := featureKey{locID, f.ID}
	if _, used := g.featureTimers[key]; used {
		return false
	}
	ticks := f.ResetTicks
	if ticks == 0 {
		ticks = permanent
	}
	g.featureTimers[key] = ticks
	return true
}

// VisibleExits returns the exits of the location that the given observer can
// see: every non-hidden exit, plus hidden ones that are globally revealed or
// in the observer's discovered set (keyed "locationID/direction").
func (g *Graph) VisibleExits(locID string, discovered map[string]bool) []Exit {
	g.mu.RLock()
	defer g.mu.RUnlock()
	loc, ok := g.locations[locID]
	if !ok {
		return nil
	}
	var out []Exit
	for _, e := range loc.Exits {
		if e.Hidden && !g.revealedLocked(locID, e.Direction) && !discovered[DiscoveryKey(locID, e.Direction)] {
			continue
		}
		out = append(out, e)
	}
	return out
}

// DiscoveryKey builds the key used in per-player discovered-exit sets.
func DiscoveryKey(locID string, dir Direction) string {
	return locID + "/" + string(dir)
}

// NearbyLocations returns the destinations one step away through exits the
// observer can see, for map snapshots.
//
// Postcondition: Returns a non-nil slice; may be empty.
func (g *Graph) NearbyLocations(locID string, discovered map[string]bool) []*Location {
	exits := g.VisibleExits(locID, discovered)
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Location, 0, len(exits))
	for _, e := range exits {
		if target, ok := g.locations[e.Target]; ok {
			out = append(out, target)
		}
	}
	return out
}

// TickResets winds every active counter down by one pass and restores the
// authored state of any exit or feature whose counter reaches zero. Called
// once per scheduler pass; handlers never mutate exit state directly.
//
// Postcondition: no counter is left at zero or below (expired entries are
// removed; permanent entries are untouched).
func (g *Graph) TickResets() {
	g.mu.Lock()
	defer g.mu.Unlock()
	tickTimerMap(g.unlockTimers)
	tickTimerMap(g.revealTimers)
	tickFeatureMap(g.featureTimers)
}

func tickTimerMap(m map[exitKey]int) {
	for k, v := range m {
		if v == permanent {
			continue
		}
		v--
		if v <= 0 {
			delete(m, k)
			continue
		}
		m[k] = v
	}
}

func tickFeatureMap(m map[featureKey]int) {
	for k, v := range m {
		if v == permanent {
			continue
		}
		v--
		if v <= 0 {
			delete(m, k)
			continue
		}
		m[k] = v
	}
}

// StartLocation returns the global start location.
//
// Postcondition: Returns the start location or nil if the world is empty.
func (g *Graph) StartLocation() *Location {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if g.startLocation == "" {
		return nil
	}
	return g.locations[g.startLocation]
}

// AllLocations returns every loaded location.
//
// Postcondition: Returns a non-nil slice; may be empty.
func (g *Graph) AllLocations() []*Location {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]*Location, 0, len(g.locations))
	for _, l := range g.locations {
		out = append(out, l)
	}
	return out
}

// LocationCount returns the total number of locations across all zones.
func (g *Graph) LocationCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.locations)
}

// ZoneCount returns the number of loaded zones.
func (g *Graph) ZoneCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.zones)
}
