package core

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/realmd/internal/game/catalog"
	"github.com/cory-johannsen/realmd/internal/game/dice"
	"github.com/cory-johannsen/realmd/internal/game/entity"
	"github.com/cory-johannsen/realmd/internal/game/protocol"
	"github.com/cory-johannsen/realmd/internal/game/session"
)

// meleeDamage converts a successful check margin into damage.
//
// Postcondition: always >= 1 plus the base.
func meleeDamage(base int, result dice.CheckResult) int {
	margin := result.Total - result.Difficulty
	dmg := base + margin/2
	if dmg < base+1 {
		dmg = base + 1
	}
	return dmg
}

// handleTarget selects a living hostile in the session's location by name
// prefix without attacking it.
func (c *Core) handleTarget(sess *session.Session, target string) {
	if target == "" {
		c.disengage(sess)
		c.ok(sess, "you lower your guard")
		return
	}
	inst := c.entities.FindInLocation(sess.Location(), target)
	if inst == nil {
		c.fail(sess, fmt.Sprintf("there is no %s here", target))
		return
	}
	if !inst.Template.Hostile {
		c.fail(sess, fmt.Sprintf("%s is not a valid target", inst.Name))
		return
	}
	sess.SetTarget(inst.ID)
	c.ok(sess, fmt.Sprintf("you size up the %s", inst.Name))
}

// handleAttack swings at the named target (or the previously selected one),
// engaging both sides. Attacking from hiding breaks concealment.
//
// Check: might + level/2 + d20 vs the target's defense.
func (c *Core) handleAttack(sess *session.Session, target string) {
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

	might, err := sess.EffectiveStat(catalog.StatMight)
	if err != nil {
		c.logger.Warn("effective stat", err2fields(sess.UID, err)...)
		c.fail(sess, "your swing goes wide")
		return
	}

	result := c.checker.Check(might, sess.Level(), inst.Template.Defense)
	ev := protocol.CombatEvent{
		Attacker: sess.Name,
		Defender: inst.Name,
		Hit:      result.Success,
		Roll:     result.Roll,
		Total:    result.Total,
		Against:  result.Difficulty,
	}
	if result.Success {
		ev.Damage = meleeDamage(0, result)
	}
	c.sessions.BroadcastToLocation(sess.Location(), ev)

	if result.Success && inst.Damage(ev.Damage) == 0 {
		c.resolveKill(sess, inst)
	}
}

// resolveHostileTarget resolves the attack target from the argument or the
// selected target, validating it is a living hostile sharing the location.
// Sends the user error itself and returns nil when there is no valid target.
func (c *Core) resolveHostileTarget(sess *session.Session, target string) *entity.Instance {
	var inst *entity.Instance
	if target != "" {
		inst = c.entities.FindInLocation(sess.Location(), target)
	} else if selected := sess.Target(); selected != "" {
		if got, ok := c.entities.Get(selected); ok {
			inst = got
		}
	}
	if inst == nil {
		c.fail(sess, "attack what?")
		return nil
	}
	if inst.IsDead() || inst.LocationID != sess.Location() {
		c.fail(sess, fmt.Sprintf("the %s is not here", inst.Name))
		return nil
	}
	if !inst.Template.Hostile {
		c.fail(sess, fmt.Sprintf("%s is not a valid target", inst.Name))
		return nil
	}
	return inst
}

// resolveKill is the single death-resolution path for entities. The MarkDead
// winner — and only the winner — rolls loot onto the floor, grants XP,
// broadcasts the death, reconciles every engaged session, removes the
// instance, and schedules the respawn.
func (c *Core) resolveKill(killer *session.Session, inst *entity.Instance) {
	if !inst.MarkDead() {
		return
	}

	locID := inst.LocationID
	killerName := ""
	if killer != nil {
		killerName = killer.Name
	}
	c.sessions.BroadcastToLocation(locID, protocol.DeathEvent{Name: inst.Name, Killer: killerName})

	if killer != nil && inst.Template.XPReward > 0 {
		xp := killer.AddXP(inst.Template.XPReward)
		c.push(killer, protocol.ProgressEvent{
			XP:       xp,
			Level:    killer.Level(),
			Currency: killer.Currency(),
			Note:     fmt.Sprintf("you gain %d experience", inst.Template.XPReward),
		})
	}

	if table := inst.Template.Loot; table != nil {
		src := c.checker.Src()
		if coins := table.RollCoins(src); coins > 0 {
			c.floor.DropCoins(locID, coins)
		}
		var entries []protocol.LootEntry
		for _, drop := range table.RollItems(src) {
			item, ok := c.catalogs.Item(drop.ItemID)
			if !ok {
				c.logger.Warn("loot references unknown item",
					zap.String("template", inst.TemplateID),
					zap.String("item", drop.ItemID))
				continue
			}
			c.floor.Drop(locID, item, drop.Quantity)
			entries = append(entries, protocol.LootEntry{Name: item.Name, Quantity: drop.Quantity})
		}
		if len(entries) > 0 {
			c.sessions.BroadcastToLocation(locID, protocol.LootEvent{Source: inst.Name, Items: entries})
		}
	}

	for _, uid := range inst.EngagedClients() {
		engaged, ok := c.sessions.Get(uid)
		if !ok {
			continue
		}
		if engaged.Target() == inst.ID {
			engaged.ClearTarget()
			engaged.ClearPending()
		}
		if engaged.Activity() == session.ActivityEngaged &&
			len(c.entities.LivingHostilesInLocation(engaged.Location())) == 0 {
			_ = engaged.SetActivity(session.ActivityIdle)
		}
	}

	if err := c.entities.Remove(inst.ID); err != nil {
		c.logger.Warn("remove dead entity", zap.String("entity", inst.ID), zap.Error(err))
	}
	c.entities.ScheduleRespawn(inst.TemplateID, locID, inst.Template.RespawnTicks)

	if killer != nil {
		c.persistAsync(killer)
	}
}

// entityAttack executes one entity swing against a player on the tick path.
//
// Check: accuracy + level/2 + d20 vs 10 + the player's effective agility.
func (c *Core) entityAttack(inst *entity.Instance, sess *session.Session) {
	if inst.IsDead() || sess.Location() != inst.LocationID {
		inst.Disengage(sess.UID)
		return
	}

	agility, err := sess.EffectiveStat(catalog.StatAgility)
	if err != nil {
		c.logger.Warn("effective stat", err2fields(sess.UID, err)...)
		agility = 0
	}

	// Being attacked interrupts rest, meditation, and hiding.
	if sess.Activity() != session.ActivityEngaged {
		_ = sess.SetActivity(session.ActivityEngaged)
	}
	if sess.Target() == "" {
		sess.SetTarget(inst.ID)
	}

	result := c.checker.Check(inst.Template.Accuracy, inst.Template.Level, 10+agility)
	ev := protocol.CombatEvent{
		Attacker: inst.Name,
		Defender: sess.Name,
		Hit:      result.Success,
		Roll:     result.Roll,
		Total:    result.Total,
		Against:  result.Difficulty,
	}
	if result.Success {
		ev.Damage = meleeDamage(inst.Template.DamageBase, result)
	}
	c.sessions.BroadcastToLocation(sess.Location(), ev)

	if !result.Success {
		return
	}
	if sess.Damage(ev.Damage) == 0 {
		c.resolvePlayerDeath(sess, inst.Name)
		return
	}
	c.sendVitals(sess)
}

// resolvePlayerDeath handles a player's HP reaching zero: death broadcast,
// full disengage, effect wipe, and respawn at the world start location with
// restored vitals.
func (c *Core) resolvePlayerDeath(sess *session.Session, killer string) {
	from := sess.Location()
	c.sessions.BroadcastToLocation(from, protocol.DeathEvent{Name: sess.Name, Killer: killer})

	c.disengage(sess)
	for _, inst := range c.entities.EntitiesInLocation(from) {
		inst.Disengage(sess.UID)
	}
	sess.ClearEffects()
	_ = sess.SetActivity(session.ActivityIdle)

	start := c.graph.StartLocation()
	if start != nil && start.ID != from {
		if _, err := c.sessions.Move(sess.UID, start.ID); err != nil {
			c.logger.Warn("death respawn move", err2fields(sess.UID, err)...)
		}
	}

	_, maxHP, _, maxMP := sess.Vitals()
	sess.Heal(maxHP)
	sess.RestoreMana(maxMP)
	c.sendVitals(sess)
	c.sendEffects(sess)
	c.ok(sess, "you awaken, gasping, where your journey began")
	c.handleLook(sess)
	c.persistAsync(sess)
}
