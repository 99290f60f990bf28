// Package session provides connected-player state: the session record, the
// activity state machine, the outbound event queue, and the registry that
// indexes sessions by UID, name, and location.
package session

import "fmt"

// Activity is the session's exclusive activity state. Exactly one state is
// active at a time, which makes resting/meditating and hidden/engaged
// mutual exclusion structural rather than checked.
type Activity int

// Activity states.
const (
	ActivityIdle Activity = iota
	ActivityEngaged
	ActivityHidden
	ActivityResting
	ActivityMeditating
)

// String returns the lowercase state name.
func (a Activity) String() string {
	switch a {
	case ActivityIdle:
		return "idle"
	case ActivityEngaged:
		return "engaged"
	case ActivityHidden:
		return "hidden"
	case ActivityResting:
		return "resting"
	case ActivityMeditating:
		return "meditating"
	default:
		return fmt.Sprintf("activity(%d)", int(a))
	}
}

// canTransition encodes the legal activity transitions:
//   - returning to idle is always legal (disengage, unhide, stop resting)
//   - leaving idle for any state is legal
//   - combat interrupts everything, so any state may become engaged
//   - every other pair is illegal (notably engaged -> hidden and
//     resting <-> meditating, which must pass through idle)
func canTransition(from, to Activity) bool {
	if to == ActivityIdle || from == ActivityIdle {
		return true
	}
	if to == ActivityEngaged {
		return true
	}
	return from == to
}
