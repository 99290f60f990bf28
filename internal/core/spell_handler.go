package core

import (
	"fmt"

	"github.com/cory-johannsen/realmd/internal/game/catalog"
	"github.com/cory-johannsen/realmd/internal/game/effect"
	"github.com/cory-johannsen/realmd/internal/game/entity"
	"github.com/cory-johannsen/realmd/internal/game/protocol"
	"github.com/cory-johannsen/realmd/internal/game/session"
)

// handleCast resolves a spell immediately. Mana is spent and the cooldown
// starts on the attempt; a failed casting check wastes both.
//
// Check: intellect + level/2 + d20 vs the spell difficulty (0 always passes).
func (c *Core) handleCast(sess *session.Session, abilityID, target string) {
	spell, ok := c.catalogs.Spell(abilityID)
	if !ok {
		c.fail(sess, "you know no such spell")
		return
	}
	if !c.classKnowsSpell(sess, spell.ID) {
		c.fail(sess, fmt.Sprintf("the %s spell is not yours to cast", spell.Name))
		return
	}
	if cd := sess.Cooldown(spell.ID); cd > 0 {
		c.fail(sess, fmt.Sprintf("%s is not ready yet", spell.Name))
		return
	}

	offensive := spell.Kind == catalog.SpellKindDamage || spell.Kind == catalog.SpellKindDoT
	var inst *entity.Instance
	if offensive {
		if inst = c.resolveHostileTarget(sess, target); inst == nil {
			return
		}
	}

	if err := sess.SpendMana(spell.ManaCost); err != nil {
		c.fail(sess, "not enough mana")
		return
	}
	sess.StartCooldown(spell.ID, spell.CooldownTicks)

	if sess.IsHidden() {
		_ = sess.SetActivity(session.ActivityIdle)
	}

	intellect, err := sess.EffectiveStat(catalog.StatIntellect)
	if err != nil {
		c.logger.Warn("effective stat", err2fields(sess.UID, err)...)
		c.fail(sess, "the casting slips away")
		return
	}
	if spell.Difficulty > 0 {
		result := c.checker.Check(intellect, sess.Level(), spell.Difficulty)
		if !result.Success {
			c.fail(sess, fmt.Sprintf("the %s fizzles", spell.Name))
			c.sendVitals(sess)
			return
		}
	}

	switch spell.Kind {
	case catalog.SpellKindDamage:
		if err := sess.SetActivity(session.ActivityEngaged); err == nil {
			sess.SetTarget(inst.ID)
			inst.Engage(sess.UID)
		}
		c.sessions.BroadcastToLocation(sess.Location(), protocol.CombatEvent{
			Attacker: sess.Name,
			Defender: inst.Name,
			Hit:      true,
			Damage:   spell.Magnitude,
			Ability:  spell.Name,
		})
		if inst.Damage(spell.Magnitude) == 0 {
			c.resolveKill(sess, inst)
		}
	case catalog.SpellKindDoT:
		if err := sess.SetActivity(session.ActivityEngaged); err == nil {
			sess.SetTarget(inst.ID)
			inst.Engage(sess.UID)
		}
		inst.ApplyEffect(effect.Active{
			Name:      spell.Name,
			Kind:      effect.KindDamageOverTime,
			Magnitude: spell.Magnitude,
			Remaining: spell.DurationTicks,
		})
		c.ok(sess, fmt.Sprintf("the %s takes hold of the %s", spell.Name, inst.Name))
	case catalog.SpellKindHeal:
		sess.Heal(spell.Magnitude)
		c.ok(sess, fmt.Sprintf("%s restores %d health", spell.Name, spell.Magnitude))
	case catalog.SpellKindHoT:
		sess.ApplyEffect(effect.Active{
			Name:      spell.Name,
			Kind:      effect.KindHealOverTime,
			Magnitude: spell.Magnitude,
			Remaining: spell.DurationTicks,
		})
		c.ok(sess, "a mending warmth settles over you")
		c.sendEffects(sess)
	case catalog.SpellKindBuff:
		sess.ApplyEffect(effect.Active{
			Name:      spell.Name,
			Kind:      effect.KindStatBuff,
			Stat:      spell.BuffStat,
			Magnitude: spell.Magnitude,
			Remaining: spell.DurationTicks,
		})
		c.ok(sess, fmt.Sprintf("%s sharpens your %s", spell.Name, spell.BuffStat))
		c.sendEffects(sess)
	}
	c.sendVitals(sess)
}
