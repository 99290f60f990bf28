package core

import (
	"github.com/cory-johannsen/realmd/internal/game/session"
)

// handleRest toggles resting. Activation is queued to the next scheduler
// pass; cancellation is immediate. Resting and meditating are mutually
// exclusive by the activity state machine.
func (c *Core) handleRest(sess *session.Session) {
	switch sess.Activity() {
	case session.ActivityResting:
		_ = sess.SetActivity(session.ActivityIdle)
		c.ok(sess, "you rise, rested")
		return
	case session.ActivityEngaged:
		c.fail(sess, "you cannot rest in the middle of a fight")
		return
	case session.ActivityMeditating:
		c.fail(sess, "you must stop meditating first")
		return
	case session.ActivityHidden:
		c.fail(sess, "you must leave the shadows first")
		return
	}

	if err := sess.SetPending(session.PendingRest{}); err != nil {
		c.fail(sess, err.Error())
		return
	}
	c.ok(sess, "you prepare to rest")
}

// handleMeditate toggles meditation, mirroring handleRest.
func (c *Core) handleMeditate(sess *session.Session) {
	switch sess.Activity() {
	case session.ActivityMeditating:
		_ = sess.SetActivity(session.ActivityIdle)
		c.ok(sess, "you open your eyes")
		return
	case session.ActivityEngaged:
		c.fail(sess, "you cannot meditate in the middle of a fight")
		return
	case session.ActivityResting:
		c.fail(sess, "you must stop resting first")
		return
	case session.ActivityHidden:
		c.fail(sess, "you must leave the shadows first")
		return
	}

	if err := sess.SetPending(session.PendingMeditate{}); err != nil {
		c.fail(sess, err.Error())
		return
	}
	c.ok(sess, "you settle into a meditative calm")
}
