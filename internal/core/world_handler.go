package core

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/realmd/internal/game/catalog"
	"github.com/cory-johannsen/realmd/internal/game/effect"
	"github.com/cory-johannsen/realmd/internal/game/protocol"
	"github.com/cory-johannsen/realmd/internal/game/session"
	"github.com/cory-johannsen/realmd/internal/game/world"
)

// handleMove walks the session through an exit. Movement forces disengage and
// cancels rest or meditation; a hidden session moves without arrival or
// departure broadcasts (sneaking).
func (c *Core) handleMove(sess *session.Session, direction string) {
	if direction == "" {
		c.fail(sess, "move where?")
		return
	}
	dir := world.Direction(direction)
	from := sess.Location()

	canSee := sess.HasDiscovered(world.DiscoveryKey(from, dir))
	target, err := c.graph.Navigate(from, dir, canSee)
	if err != nil {
		switch {
		case errors.Is(err, world.ErrExitLocked):
			c.fail(sess, fmt.Sprintf("the way %s is locked", dir))
		case errors.Is(err, world.ErrNoExit):
			c.fail(sess, fmt.Sprintf("you cannot go %s", dir))
		default:
			c.logger.Warn("navigate failed", err2fields(sess.UID, err)...)
			c.fail(sess, "you cannot go that way")
		}
		return
	}

	c.disengage(sess)
	switch sess.Activity() {
	case session.ActivityResting, session.ActivityMeditating:
		_ = sess.SetActivity(session.ActivityIdle)
	}
	sneaking := sess.IsHidden()

	if _, err := c.sessions.Move(sess.UID, target.ID); err != nil {
		c.logger.Warn("session move failed", err2fields(sess.UID, err)...)
		c.fail(sess, "you cannot go that way")
		return
	}

	if !sneaking {
		c.sessions.BroadcastToLocation(from, protocol.MoveEvent{Name: sess.Name, Arrived: false, Location: from}, sess.UID)
		c.sessions.BroadcastToLocation(target.ID, protocol.MoveEvent{Name: sess.Name, Arrived: true, Location: target.ID}, sess.UID)
	}

	c.handleLook(sess)
	c.persistAsync(sess)
}

// handleLook sends the session's current location description.
func (c *Core) handleLook(sess *session.Session) {
	loc, ok := c.graph.GetLocation(sess.Location())
	if !ok {
		c.fail(sess, "you are nowhere")
		return
	}

	exits := c.graph.VisibleExits(loc.ID, sess.DiscoveredSet())
	exitNames := make([]string, 0, len(exits))
	for _, e := range exits {
		exitNames = append(exitNames, string(e.Direction))
	}

	var entities []string
	for _, inst := range c.entities.EntitiesInLocation(loc.ID) {
		if inst.IsDead() {
			continue
		}
		entities = append(entities, fmt.Sprintf("%s (%s)", inst.Name, inst.HealthDescription()))
	}

	var features []string
	for _, f := range loc.Features {
		features = append(features, f.Name)
	}

	piles, coins := c.floor.Contents(loc.ID)
	var items []string
	for _, p := range piles {
		items = append(items, fmt.Sprintf("%s x%d", p.Item.Name, p.Quantity))
	}

	c.push(sess, protocol.LocationEvent{
		ID:          loc.ID,
		Title:       loc.Title,
		Description: loc.Description,
		Exits:       exitNames,
		Players:     c.sessions.VisibleNamesInLocation(loc.ID, sess.UID),
		Entities:    entities,
		Features:    features,
		Items:       items,
		Coins:       coins,
	})
}

// handleMap sends the breadth-1 map snapshot: every visible exit with its
// destination title and occupancy counts.
func (c *Core) handleMap(sess *session.Session) {
	loc, ok := c.graph.GetLocation(sess.Location())
	if !ok {
		c.fail(sess, "you are nowhere")
		return
	}

	discovered := sess.DiscoveredSet()
	exits := c.graph.VisibleExits(loc.ID, discovered)
	entries := make([]protocol.MapEntry, 0, len(exits))
	for _, e := range exits {
		target, ok := c.graph.GetLocation(e.Target)
		if !ok {
			continue
		}
		entries = append(entries, protocol.MapEntry{
			Direction: string(e.Direction),
			Title:     target.Title,
			Players:   len(c.sessions.VisibleNamesInLocation(target.ID, "")),
			Hostiles:  len(c.entities.LivingHostilesInLocation(target.ID)),
		})
	}

	c.push(sess, protocol.MapEvent{Here: loc.Title, Nearby: entries})
}

// handleSearch rolls perception against every concealed exit in the location
// and records each success in the session's discovered set. Discovery is
// per-player; the exit stays hidden for everyone else.
func (c *Core) handleSearch(sess *session.Session) {
	loc, ok := c.graph.GetLocation(sess.Location())
	if !ok {
		c.fail(sess, "you are nowhere")
		return
	}

	perception, err := sess.EffectiveStat(catalog.StatPerception)
	if err != nil {
		c.logger.Warn("effective stat", err2fields(sess.UID, err)...)
		c.fail(sess, "you find nothing")
		return
	}

	found := 0
	for _, e := range loc.Exits {
		if !e.Hidden {
			continue
		}
		key := world.DiscoveryKey(loc.ID, e.Direction)
		if sess.HasDiscovered(key) || c.graph.IsExitRevealed(loc.ID, e.Direction) {
			continue
		}
		result := c.checker.Check(perception, sess.Level(), e.PerceptionDifficulty)
		if !result.Success {
			continue
		}
		sess.Discover(key)
		found++
		c.ok(sess, fmt.Sprintf("you discover a hidden way %s", e.Direction))
	}

	if found == 0 {
		c.fail(sess, "you find nothing")
	}
}

// handlePickLock rolls agility against an exit's lock. Success opens the way
// for everyone and starts the re-lock counter.
func (c *Core) handlePickLock(sess *session.Session, direction string) {
	if direction == "" {
		c.fail(sess, "pick the lock on which exit?")
		return
	}
	dir := world.Direction(direction)
	loc, ok := c.graph.GetLocation(sess.Location())
	if !ok {
		c.fail(sess, "you are nowhere")
		return
	}
	exit, ok := loc.ExitForDirection(dir)
	if !ok {
		c.fail(sess, fmt.Sprintf("there is no way %s", dir))
		return
	}
	if exit.Hidden && !sess.HasDiscovered(world.DiscoveryKey(loc.ID, dir)) && !c.graph.IsExitRevealed(loc.ID, dir) {
		c.fail(sess, fmt.Sprintf("there is no way %s", dir))
		return
	}
	if !c.graph.IsExitLocked(loc.ID, dir) {
		c.fail(sess, fmt.Sprintf("the way %s is not locked", dir))
		return
	}

	agility, err := sess.EffectiveStat(catalog.StatAgility)
	if err != nil {
		c.logger.Warn("effective stat", err2fields(sess.UID, err)...)
		c.fail(sess, "the lock does not budge")
		return
	}

	result := c.checker.Check(agility, sess.Level(), exit.LockDifficulty)
	if !result.Success {
		c.fail(sess, "the lock does not budge")
		return
	}

	if err := c.graph.UnlockExit(loc.ID, dir); err != nil {
		c.logger.Warn("unlock exit", err2fields(sess.UID, err)...)
		c.fail(sess, "the lock does not budge")
		return
	}
	c.ok(sess, fmt.Sprintf("the lock clicks open; the way %s is clear", dir))
	c.sessions.BroadcastToLocation(loc.ID, protocol.SystemEvent{
		Text: fmt.Sprintf("%s picks open the way %s", sess.Name, dir),
	}, sess.UID)
}

// handleInteract fires a one-shot feature. Exactly one user wins a used
// feature; everyone else is told nothing happens until the reset counter
// restores it.
func (c *Core) handleInteract(sess *session.Session, featureID string) {
	if featureID == "" {
		c.fail(sess, "interact with what?")
		return
	}
	loc, ok := c.graph.GetLocation(sess.Location())
	if !ok {
		c.fail(sess, "you are nowhere")
		return
	}
	feature, ok := loc.FeatureByID(featureID)
	if !ok {
		c.fail(sess, "there is nothing like that here")
		return
	}
	if !c.graph.MarkFeatureUsed(loc.ID, feature) {
		c.fail(sess, fmt.Sprintf("the %s is spent; nothing happens", feature.Name))
		return
	}

	switch feature.Effect {
	case world.FeatureEffectHeal:
		sess.Heal(feature.Magnitude)
		c.ok(sess, fmt.Sprintf("the %s restores %d health", feature.Name, feature.Magnitude))
		c.sendVitals(sess)
	case world.FeatureEffectDamage:
		hp := sess.Damage(feature.Magnitude)
		c.ok(sess, fmt.Sprintf("the %s sears you for %d damage", feature.Name, feature.Magnitude))
		c.sendVitals(sess)
		if hp == 0 {
			c.resolvePlayerDeath(sess, feature.Name)
		}
	case world.FeatureEffectBuff:
		sess.ApplyEffect(effect.Active{
			Name:      feature.Name,
			Kind:      effect.KindStatBuff,
			Stat:      feature.BuffStat,
			Magnitude: feature.Magnitude,
			Remaining: feature.DurationTicks,
		})
		c.ok(sess, fmt.Sprintf("the %s empowers your %s", feature.Name, feature.BuffStat))
		c.sendEffects(sess)
	case world.FeatureEffectReveal:
		if err := c.graph.RevealExit(loc.ID, feature.RevealDirection); err != nil {
			c.logger.Warn("reveal exit", err2fields(sess.UID, err)...)
		}
		c.ok(sess, fmt.Sprintf("a way %s grinds open", feature.RevealDirection))
	}

	if feature.UseText != "" {
		c.sessions.BroadcastToLocation(loc.ID, protocol.SystemEvent{Text: feature.UseText}, sess.UID)
	}
}
