package core

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/cory-johannsen/realmd/internal/game/effect"
	"github.com/cory-johannsen/realmd/internal/game/entity"
	"github.com/cory-johannsen/realmd/internal/game/protocol"
	"github.com/cory-johannsen/realmd/internal/game/session"
	"github.com/cory-johannsen/realmd/internal/game/world"
)

// Scheduler drives the fixed-interval tick loop. Everything time-based in the
// game — cooldowns, effects, queued actions, regeneration, entity behavior,
// world resets, respawns — advances exactly once per pass, in a fixed order,
// on this single goroutine.
type Scheduler struct {
	core     *Core
	interval time.Duration
	logger   *zap.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

// NewScheduler creates a scheduler over the core with the configured tick
// interval.
func NewScheduler(core *Core, interval time.Duration, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		core:     core,
		interval: interval,
		logger:   logger,
	}
}

// Start launches the tick loop goroutine.
func (s *Scheduler) Start() error {
	if s.interval <= 0 {
		return fmt.Errorf("scheduler: tick interval must be positive, got %s", s.interval)
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})
	go s.run(ctx)
	s.logger.Info("tick scheduler started", zap.Duration("interval", s.interval))
	return nil
}

// Stop halts the loop and waits for the in-flight pass to finish.
func (s *Scheduler) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	s.logger.Info("tick scheduler stopped")
}

func (s *Scheduler) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.core.RunTickPass()
		}
	}
}

// RunTickPass executes one scheduler pass. Exported so tests can drive time
// without the ticker. The order is fixed: world resets, then player state,
// then entity effects and behavior, then respawns.
func (c *Core) RunTickPass() {
	c.graph.TickResets()

	for _, sess := range c.sessions.AllSessions() {
		c.tickSessionGuarded(sess)
	}

	c.tickEntities()
	c.tickBehavior()
	c.tickRespawns()
}

// tickSessionGuarded isolates one session's pass: a panic in one player's
// tick is logged and the rest of the pass continues.
func (c *Core) tickSessionGuarded(sess *session.Session) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("tick pass panic",
				zap.String("uid", sess.UID),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()))
		}
	}()
	c.tickSession(sess)
}

func (c *Core) tickSession(sess *session.Session) {
	sess.TickCooldowns()

	ticked, _, changed := sess.TickEffects()
	vitalsDirty := false
	for _, a := range ticked {
		switch a.Kind {
		case effect.KindDamageOverTime:
			vitalsDirty = true
			if sess.Damage(a.Magnitude) == 0 {
				c.resolvePlayerDeath(sess, a.Name)
				return
			}
		case effect.KindHealOverTime:
			vitalsDirty = true
			sess.Heal(a.Magnitude)
		}
	}
	if changed {
		c.sendEffects(sess)
	}

	switch p := sess.TakePending().(type) {
	case session.PendingSkill:
		c.resolvePendingSkill(sess, p)
	case session.PendingRest:
		if err := sess.SetActivity(session.ActivityResting); err == nil {
			c.ok(sess, "you settle down to rest")
		}
	case session.PendingMeditate:
		if err := sess.SetActivity(session.ActivityMeditating); err == nil {
			c.ok(sess, "you sink into meditation")
		}
	}

	hp, maxHP, mp, maxMP := sess.Vitals()
	switch sess.Activity() {
	case session.ActivityResting:
		if hp < maxHP {
			sess.Heal(c.cfg.RestRegenHP)
			vitalsDirty = true
		}
	case session.ActivityMeditating:
		if mp < maxMP {
			sess.RestoreMana(c.cfg.MeditateRegenMP)
			vitalsDirty = true
		}
	}

	if vitalsDirty {
		c.sendVitals(sess)
	}
}

// tickEntities advances timed effects on every entity instance. A damage-over-
// time kill resolves with no killer credit: the effects outlived whoever cast
// them.
func (c *Core) tickEntities() {
	for _, inst := range c.entities.AllInstances() {
		if inst.IsDead() {
			continue
		}
		ticked, _, _ := inst.TickEffects()
		for _, a := range ticked {
			switch a.Kind {
			case effect.KindDamageOverTime:
				if inst.Damage(a.Magnitude) == 0 {
					c.sessions.BroadcastToLocation(inst.LocationID, protocol.SystemEvent{
						Text: fmt.Sprintf("the %s succumbs to %s", inst.Name, a.Name),
					})
					c.resolveKill(nil, inst)
				}
			case effect.KindHealOverTime:
				inst.Heal(a.Magnitude)
			}
			if inst.IsDead() {
				break
			}
		}
	}
}

// tickBehavior collects and executes entity intents for this pass.
func (c *Core) tickBehavior() {
	intents := c.entities.AdvanceBehavior(c.checker.Src(), c.openExits)
	for _, intent := range intents {
		inst, ok := c.entities.Get(intent.EntityID)
		if !ok || inst.IsDead() {
			continue
		}
		switch intent.Kind {
		case entity.IntentAttack:
			target, ok := c.sessions.Get(intent.TargetUID)
			if !ok {
				inst.Disengage(intent.TargetUID)
				continue
			}
			c.entityAttack(inst, target)
		case entity.IntentMove:
			c.moveEntity(inst, world.Direction(intent.Direction))
		}
	}
}

// openExits reports the passable exit directions out of a location for
// patrolling entities: unlocked and not concealed.
func (c *Core) openExits(locationID string) []string {
	loc, ok := c.graph.GetLocation(locationID)
	if !ok {
		return nil
	}
	var dirs []string
	for _, exit := range loc.Exits {
		if exit.Hidden && !c.graph.IsExitRevealed(locationID, exit.Direction) {
			continue
		}
		if c.graph.IsExitLocked(locationID, exit.Direction) {
			continue
		}
		dirs = append(dirs, string(exit.Direction))
	}
	return dirs
}

// moveEntity walks one patroller through an exit with departure and arrival
// broadcasts.
func (c *Core) moveEntity(inst *entity.Instance, dir world.Direction) {
	dest, err := c.graph.Navigate(inst.LocationID, dir, false)
	if err != nil {
		return
	}
	from := inst.LocationID
	if err := c.entities.Move(inst.ID, dest.ID); err != nil {
		c.logger.Warn("entity move", zap.String("entity", inst.ID), zap.Error(err))
		return
	}
	c.sessions.BroadcastToLocation(from, protocol.SystemEvent{
		Text: fmt.Sprintf("the %s leaves %s", inst.Name, dir),
	})
	c.sessions.BroadcastToLocation(dest.ID, protocol.SystemEvent{
		Text: fmt.Sprintf("a %s arrives", inst.Name),
	})
}

// tickRespawns spawns every respawn entry that came due this pass.
func (c *Core) tickRespawns() {
	for _, due := range c.entities.TickRespawns() {
		inst, err := c.entities.Spawn(due.TemplateID, due.LocationID)
		if err != nil {
			c.logger.Error("respawn",
				zap.String("template", due.TemplateID),
				zap.String("location", due.LocationID),
				zap.Error(err))
			continue
		}
		c.sessions.BroadcastToLocation(due.LocationID, protocol.SystemEvent{
			Text: fmt.Sprintf("a %s appears", inst.Name),
		})
	}
}

// SeedSpawns populates the world from every location's authored spawn list.
// Called once at startup, before the scheduler and gateway start.
func (c *Core) SeedSpawns() error {
	for _, loc := range c.graph.AllLocations() {
		for _, cfg := range loc.Spawns {
			for i := 0; i < cfg.Count; i++ {
				if _, err := c.entities.Spawn(cfg.Template, loc.ID); err != nil {
					return fmt.Errorf("seed %q in %q: %w", cfg.Template, loc.ID, err)
				}
			}
		}
	}
	return nil
}
