// Package world provides the world graph: zones, locations, exits, and the
// interactable features inside locations.
package world

import "fmt"

// Direction represents a compass direction or named exit.
type Direction string

// Standard compass directions and vertical movements.
const (
	North Direction = "north"
	South Direction = "south"
	East  Direction = "east"
	West  Direction = "west"
	Up    Direction = "up"
	Down  Direction = "down"
)

// StandardDirections contains all standard compass and vertical directions.
var StandardDirections = []Direction{North, South, East, West, Up, Down}

// IsStandard reports whether d is one of the six standard directions.
func (d Direction) IsStandard() bool {
	for _, sd := range StandardDirections {
		if d == sd {
			return true
		}
	}
	return false
}

// Opposite returns the opposite of a standard direction.
// For custom directions, it returns an empty string.
func (d Direction) Opposite() Direction {
	switch d {
	case North:
		return South
	case South:
		return North
	case East:
		return West
	case West:
		return East
	case Up:
		return Down
	case Down:
		return Up
	default:
		return ""
	}
}

// Exit represents a passage from one location to another. The Locked and
// Hidden fields are the authored baseline; runtime unlock/reveal state lives
// in the Graph so it can be restored on a timer.
type Exit struct {
	// Direction is the compass direction or named exit (e.g., "stairs").
	Direction Direction
	// Target is the ID of the destination location.
	Target string
	// Locked indicates the exit starts locked and must be picked open.
	Locked bool
	// LockDifficulty is the target number for the pick-lock check.
	LockDifficulty int
	// LockResetTicks is how many scheduler passes an unlock lasts.
	LockResetTicks int
	// Hidden indicates the exit starts concealed and must be searched out.
	Hidden bool
	// PerceptionDifficulty is the target number for the search check.
	PerceptionDifficulty int
	// HideResetTicks is how many scheduler passes a reveal lasts.
	HideResetTicks int
}

// Feature effect kinds.
const (
	FeatureEffectHeal   = "heal"
	FeatureEffectDamage = "damage"
	FeatureEffectBuff   = "buff"
	FeatureEffectReveal = "reveal"
)

// Feature is a one-shot interactable object in a location: a healing
// fountain, a cursed altar, a hidden lever. Using it applies the effect and
// exhausts the feature until its reset counter runs out.
type Feature struct {
	// ID uniquely identifies the feature within its location.
	ID string
	// Name is the short display name shown in look output.
	Name string
	// Description is shown when the feature is examined.
	Description string
	// Effect is one of heal, damage, buff, reveal.
	Effect string
	// Magnitude is HP restored/lost or the buff bonus.
	Magnitude int
	// BuffStat names the buffed stat. Required for buff features.
	BuffStat string
	// DurationTicks is the buff duration. Required for buff features.
	DurationTicks int
	// RevealDirection names the exit a reveal feature uncovers.
	RevealDirection Direction
	// ResetTicks is how many scheduler passes until the feature can be
	// used again. 0 means it never resets.
	ResetTicks int
	// UseText is broadcast to the location when the feature fires.
	UseText string
}

// SpawnConfig defines how many instances of an entity template populate a
// location and how long a dead one stays down.
type SpawnConfig struct {
	// Template is the entity template ID to spawn.
	Template string
	// Count is the maximum number of live instances in the location.
	Count int
	// RespawnTicks overrides the template's respawn delay. 0 = template default.
	RespawnTicks int
}

// Location represents one place in the world graph.
type Location struct {
	// ID uniquely identifies this location within the zone.
	ID string
	// ZoneID identifies the zone this location belongs to.
	ZoneID string
	// Title is the short display name of the location.
	Title string
	// Description is the multi-line text shown to players.
	Description string
	// Exits lists all passages leading out of this location.
	Exits []Exit
	// Features lists the interactable objects here.
	Features []Feature
	// Spawns lists the entity templates that populate this location.
	Spawns []SpawnConfig
}

// ExitForDirection returns the exit in the given direction, if one exists.
//
// Postcondition: Returns (exit, true) if found, or (Exit{}, false) otherwise.
func (l *Location) ExitForDirection(dir Direction) (Exit, bool) {
	for _, e := range l.Exits {
		if e.Direction == dir {
			return e, true
		}
	}
	return Exit{}, false
}

// FeatureByID returns the feature with the given ID, if one exists.
func (l *Location) FeatureByID(id string) (Feature, bool) {
	for _, f := range l.Features {
		if f.ID == id {
			return f, true
		}
	}
	return Feature{}, false
}

// Zone groups related locations into a themed area.
type Zone struct {
	// ID uniquely identifies this zone.
	ID string
	// Name is the display name of the zone.
	Name string
	// Description summarizes the zone's theme.
	Description string
	// StartLocation is the ID of the default entry location.
	StartLocation string
	// Locations contains all locations in this zone, keyed by ID.
	Locations map[string]*Location
}

// Validate checks zone invariants.
//
// Postcondition: Returns nil if valid, or an error describing the first violation.
func (z *Zone) Validate() error {
	if z.ID == "" {
		return fmt.Errorf("zone ID must not be empty")
	}
	if z.Name == "" {
		return fmt.Errorf("zone %q: name must not be empty", z.ID)
	}
	if z.StartLocation == "" {
		return fmt.Errorf("zone %q: start_location must not be empty", z.ID)
	}
	if len(z.Locations) == 0 {
		return fmt.Errorf("zone %q: must contain at least one location", z.ID)
	}
	if _, ok := z.Locations[z.StartLocation]; !ok {
		return fmt.Errorf("zone %q: start_location %q not found", z.ID, z.StartLocation)
	}
	for id, loc := range z.Locations {
		if loc.ID != id {
			return fmt.Errorf("zone %q: location key %q does not match ID %q", z.ID, id, loc.ID)
		}
		if loc.Title == "" {
			return fmt.Errorf("zone %q: location %q: title must not be empty", z.ID, id)
		}
		if loc.Description == "" {
			return fmt.Errorf("zone %q: location %q: description must not be empty", z.ID, id)
		}
		for _, exit := range loc.Exits {
			if exit.Target == "" {
				return fmt.Errorf("zone %q: location %q: exit %q has empty target", z.ID, id, exit.Direction)
			}
			if exit.Locked && exit.LockDifficulty < 1 {
				return fmt.Errorf("zone %q: location %q: locked exit %q needs lock_difficulty >= 1", z.ID, id, exit.Direction)
			}
			if exit.Hidden && exit.PerceptionDifficulty < 1 {
				return fmt.Errorf("zone %q: location %q: hidden exit %q needs perception_difficulty >= 1", z.ID, id, exit.Direction)
			}
		}
		for _, f := range loc.Features {
			if err := validateFeature(f); err != nil {
				return fmt.Errorf("zone %q: location %q: %w", z.ID, id, err)
			}
		}
		for _, sp := range loc.Spawns {
			if sp.Template == "" {
				return fmt.Errorf("zone %q: location %q: spawn with empty template", z.ID, id)
			}
			if sp.Count < 1 {
				return fmt.Errorf("zone %q: location %q: spawn %q count must be >= 1", z.ID, id, sp.Template)
			}
		}
	}
	return nil
}

func validateFeature(f Feature) error {
	if f.ID == "" {
		return fmt.Errorf("feature with empty ID")
	}
	if f.Name == "" {
		return fmt.Errorf("feature %q: name must not be empty", f.ID)
	}
	switch f.Effect {
	case FeatureEffectHeal, FeatureEffectDamage:
		if f.Magnitude < 1 {
			return fmt.Errorf("feature %q: %s magnitude must be >= 1", f.ID, f.Effect)
		}
	case FeatureEffectBuff:
		if f.Magnitude < 1 || f.DurationTicks < 1 || f.BuffStat == "" {
			return fmt.Errorf("feature %q: buff requires magnitude, duration_ticks, and buff_stat", f.ID)
		}
	case FeatureEffectReveal:
		if f.RevealDirection == "" {
			return fmt.Errorf("feature %q: reveal requires reveal_direction", f.ID)
		}
	default:
		return fmt.Errorf("feature %q: unknown effect %q", f.ID, f.Effect)
	}
	return nil
}
