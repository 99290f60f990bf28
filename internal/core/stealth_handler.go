package core

import (
	"fmt"

	"github.com/cory-johannsen/realmd/internal/game/catalog"
	"github.com/cory-johannsen/realmd/internal/game/session"
)

// hideBaseDifficulty is the target number of the hider's own agility check
// before any observer gets a chance to spot them.
const hideBaseDifficulty = 12

// handleHide attempts to slip into concealment. Hiding mid-fight is illegal;
// otherwise the hider passes an agility check and then survives an opposed
// perception check from every living hostile and every non-hidden player in
// the location. Any single opposing success aborts the attempt.
func (c *Core) handleHide(sess *session.Session) {
	if sess.IsHidden() {
		_ = sess.SetActivity(session.ActivityIdle)
		c.ok(sess, "you step out of the shadows")
		return
	}
	if sess.Activity() == session.ActivityEngaged {
		c.fail(sess, "you cannot hide in the middle of a fight")
		return
	}

	agility, err := sess.EffectiveStat(catalog.StatAgility)
	if err != nil {
		c.logger.Warn("effective stat", err2fields(sess.UID, err)...)
		c.fail(sess, "you fail to find cover")
		return
	}

	attempt := c.checker.Check(agility, sess.Level(), hideBaseDifficulty)
	if !attempt.Success {
		c.fail(sess, "you fail to find cover")
		return
	}

	// Opposed checks: each observer rolls perception against the hider's
	// attempt total.
	for _, inst := range c.entities.LivingHostilesInLocation(sess.Location()) {
		spot := c.checker.Check(inst.Template.Perception, inst.Template.Level, attempt.Total)
		if spot.Success {
			c.fail(sess, fmt.Sprintf("the %s is watching you too closely", inst.Name))
			return
		}
	}
	for _, other := range c.sessions.SessionsInLocation(sess.Location()) {
		if other.UID == sess.UID || other.IsHidden() {
			continue
		}
		perception, err := other.EffectiveStat(catalog.StatPerception)
		if err != nil {
			continue
		}
		spot := c.checker.Check(perception, other.Level(), attempt.Total)
		if spot.Success {
			c.fail(sess, fmt.Sprintf("%s is watching you too closely", other.Name))
			return
		}
	}

	if err := sess.SetActivity(session.ActivityHidden); err != nil {
		c.fail(sess, err.Error())
		return
	}
	c.ok(sess, "you melt into the shadows")
}
