package core

import (
	"fmt"

	"github.com/cory-johannsen/realmd/internal/game/catalog"
	"github.com/cory-johannsen/realmd/internal/game/protocol"
	"github.com/cory-johannsen/realmd/internal/game/session"
)

// handleSkill validates a melee skill use and queues it in the session's
// pending slot. The scheduler resolves it on the next pass; nothing lands
// immediately.
func (c *Core) handleSkill(sess *session.Session, abilityID, target string) {
	skill, ok := c.catalogs.Skill(abilityID)
	if !ok {
		c.fail(sess, "you know no such skill")
		return
	}
	if !c.classKnowsSkill(sess, skill.ID) {
		c.fail(sess, fmt.Sprintf("the %s skill is not yours to use", skill.Name))
		return
	}
	if cd := sess.Cooldown(skill.ID); cd > 0 {
		c.fail(sess, fmt.Sprintf("%s is not ready yet", skill.Name))
		return
	}

	switch skill.Kind {
	case catalog.SkillKindStrike, catalog.SkillKindKick:
		inst := c.resolveHostileTarget(sess, target)
		if inst == nil {
			return
		}
		if err := sess.SetActivity(session.ActivityEngaged); err != nil {
			c.fail(sess, err.Error())
			return
		}
		sess.SetTarget(inst.ID)
		inst.Engage(sess.UID)
		if err := sess.SetPending(session.PendingSkill{SkillID: skill.ID, TargetID: inst.ID}); err != nil {
			c.fail(sess, err.Error())
			return
		}
		c.ok(sess, fmt.Sprintf("you ready %s against the %s", skill.Name, inst.Name))
	case catalog.SkillKindTrack:
		if err := sess.SetPending(session.PendingSkill{SkillID: skill.ID}); err != nil {
			c.fail(sess, err.Error())
			return
		}
		c.ok(sess, "you study the ground for signs")
	default:
		// hide and picklock have dedicated commands.
		c.fail(sess, fmt.Sprintf("%s cannot be used that way", skill.Name))
	}
}

// classKnowsSkill reports whether the session's class skill list contains id.
func (c *Core) classKnowsSkill(sess *session.Session, id string) bool {
	for _, s := range sess.Class.Skills {
		if s == id {
			return true
		}
	}
	return false
}

// classKnowsSpell reports whether the session's class spell list contains id.
func (c *Core) classKnowsSpell(sess *session.Session, id string) bool {
	for _, s := range sess.Class.Spells {
		if s == id {
			return true
		}
	}
	return false
}

// resolvePendingSkill executes a queued skill on the tick path. The target
// is re-validated: it may have died or left since the queue.
//
// Check (strike/kick): skill stat + level/2 + d20 vs defense + evasion.
// Check (track): perception + level/2 + d20 vs the skill difficulty.
func (c *Core) resolvePendingSkill(sess *session.Session, p session.PendingSkill) {
	skill, ok := c.catalogs.Skill(p.SkillID)
	if !ok {
		return
	}

	stat, err := sess.EffectiveStat(skill.Stat)
	if err != nil {
		c.logger.Warn("effective stat", err2fields(sess.UID, err)...)
		return
	}

	switch skill.Kind {
	case catalog.SkillKindStrike, catalog.SkillKindKick:
		inst, ok := c.entities.Get(p.TargetID)
		if !ok || inst.IsDead() || inst.LocationID != sess.Location() {
			c.fail(sess, "your target is gone")
			return
		}
		sess.StartCooldown(skill.ID, skill.CooldownTicks)

		result := c.checker.Check(stat, sess.Level(), inst.Template.Defense+inst.Template.Evasion)
		ev := protocol.CombatEvent{
			Attacker: sess.Name,
			Defender: inst.Name,
			Hit:      result.Success,
			Roll:     result.Roll,
			Total:    result.Total,
			Against:  result.Difficulty,
			Ability:  skill.Name,
		}
		if result.Success {
			ev.Damage = meleeDamage(skill.DamageBase, result)
		}
		c.sessions.BroadcastToLocation(sess.Location(), ev)

		if result.Success && inst.Damage(ev.Damage) == 0 {
			c.resolveKill(sess, inst)
		}
	case catalog.SkillKindTrack:
		sess.StartCooldown(skill.ID, skill.CooldownTicks)
		result := c.checker.Check(stat, sess.Level(), skill.Difficulty)
		if !result.Success {
			c.fail(sess, "the trail goes cold")
			return
		}
		found := false
		for _, loc := range c.graph.NearbyLocations(sess.Location(), sess.DiscoveredSet()) {
			hostiles := c.entities.LivingHostilesInLocation(loc.ID)
			if len(hostiles) == 0 {
				continue
			}
			found = true
			c.ok(sess, fmt.Sprintf("tracks lead toward %s: %d hostile(s)", loc.Title, len(hostiles)))
		}
		if !found {
			c.ok(sess, "the tracks here are old; nothing prowls nearby")
		}
	}
}
