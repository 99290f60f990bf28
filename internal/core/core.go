// Package core implements the command handlers and the tick scheduler: every
// player action enters through Dispatch, every time-driven rule runs in the
// scheduler pass. Handlers follow one contract: resolve the session, resolve
// and validate the target, check preconditions, perform the documented
// difficulty check, mutate state, emit events, persist.
package core

import (
	"context"

	"go.uber.org/zap"

	"github.com/cory-johannsen/realmd/internal/config"
	"github.com/cory-johannsen/realmd/internal/game/catalog"
	"github.com/cory-johannsen/realmd/internal/game/dice"
	"github.com/cory-johannsen/realmd/internal/game/entity"
	"github.com/cory-johannsen/realmd/internal/game/inventory"
	"github.com/cory-johannsen/realmd/internal/game/protocol"
	"github.com/cory-johannsen/realmd/internal/game/session"
	"github.com/cory-johannsen/realmd/internal/game/world"
)

// PlayerSnapshot is the persistable view of a session's player state.
type PlayerSnapshot struct {
	UID        string
	LocationID string
	Level      int
	XP         int
	Currency   int
	HP, MaxHP  int
	MP, MaxMP  int
	Stats      catalog.Stats
}

// ItemRecord is one persisted inventory row.
type ItemRecord struct {
	ItemID   string
	Quantity int
	// Slot is the equipment slot when equipped, empty when carried.
	Slot string
}

// PlayerStore persists player state. The postgres repository implements it;
// tests substitute a fake.
type PlayerStore interface {
	// SaveState writes the scalar player columns.
	SaveState(ctx context.Context, snap PlayerSnapshot) error
	// SaveInventory replaces the player's inventory rows.
	SaveInventory(ctx context.Context, uid string, items []ItemRecord) error
}

// Core wires the game managers together and owns all gameplay rules.
type Core struct {
	cfg      config.GameConfig
	logger   *zap.Logger
	graph    *world.Graph
	entities *entity.Manager
	sessions *session.Registry
	catalogs *catalog.Registry
	floor    *inventory.FloorManager
	checker  *dice.Checker
	store    PlayerStore // nil disables persistence (tests)
}

// New creates a Core over the loaded world and managers.
//
// Precondition: every argument except store must be non-nil.
func New(
	cfg config.GameConfig,
	logger *zap.Logger,
	graph *world.Graph,
	entities *entity.Manager,
	sessions *session.Registry,
	catalogs *catalog.Registry,
	floor *inventory.FloorManager,
	checker *dice.Checker,
	store PlayerStore,
) *Core {
	return &Core{
		cfg:      cfg,
		logger:   logger,
		graph:    graph,
		entities: entities,
		sessions: sessions,
		catalogs: catalogs,
		floor:    floor,
		checker:  checker,
		store:    store,
	}
}

// Sessions exposes the session registry for the gateway.
func (c *Core) Sessions() *session.Registry {
	return c.sessions
}

// Graph exposes the world graph for startup wiring.
func (c *Core) Graph() *world.Graph {
	return c.graph
}

// Entities exposes the entity manager for startup wiring.
func (c *Core) Entities() *entity.Manager {
	return c.entities
}

// HandleConnect announces a newly registered session and sends its first
// full state: location, vitals, inventory.
func (c *Core) HandleConnect(uid string) {
	sess, ok := c.sessions.Get(uid)
	if !ok {
		return
	}
	c.sessions.BroadcastToLocation(sess.Location(), protocol.SystemEvent{
		Text: sess.Name + " has entered the realm",
	}, sess.UID)
	c.handleLook(sess)
	c.sendVitals(sess)
	c.sendInventory(sess)
}

// HandleDisconnect cleans up a departing session: disengages it, announces
// the departure, persists the final state synchronously, and unregisters it.
// Safe to call for a uid that is already gone.
func (c *Core) HandleDisconnect(uid string) {
	sess, ok := c.sessions.Get(uid)
	if !ok {
		return
	}
	c.disengage(sess)
	for _, inst := range c.entities.EntitiesInLocation(sess.Location()) {
		inst.Disengage(sess.UID)
	}
	if err := c.persistSync(sess); err != nil {
		c.logger.Error("persist on disconnect", err2fields(uid, err)...)
	}
	records := inventoryRecords(sess)
	if c.store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		if err := c.store.SaveInventory(ctx, uid, records); err != nil {
			c.logger.Error("persist inventory on disconnect", err2fields(uid, err)...)
		}
		cancel()
	}
	if err := c.sessions.Remove(uid); err != nil {
		c.logger.Warn("remove session", err2fields(uid, err)...)
		return
	}
	c.sessions.BroadcastToLocation(sess.Location(), protocol.SystemEvent{
		Text: sess.Name + " has left the realm",
	})
}

// fail sends a user-error result to the requester only. Nothing has changed.
func (c *Core) fail(sess *session.Session, msg string) {
	c.push(sess, protocol.ResultEvent{OK: false, Message: msg})
}

// ok sends a success result to the requester.
func (c *Core) ok(sess *session.Session, msg string) {
	c.push(sess, protocol.ResultEvent{OK: true, Message: msg})
}

// push delivers an event to one session, best-effort with a debug log on drop.
func (c *Core) push(sess *session.Session, ev protocol.Event) {
	if err := sess.Send(ev); err != nil {
		c.logger.Debug("dropped event",
			zap.String("uid", sess.UID),
			zap.String("event", ev.EventType()),
			zap.Error(err))
	}
}

// sendVitals pushes the session's current vitals to its own client.
func (c *Core) sendVitals(sess *session.Session) {
	hp, maxHP, mp, maxMP := sess.Vitals()
	c.push(sess, protocol.VitalsEvent{HP: hp, MaxHP: maxHP, MP: mp, MaxMP: maxMP})
}

// sendEffects pushes the session's full effect list to its own client.
func (c *Core) sendEffects(sess *session.Session) {
	snapshot := sess.EffectSnapshot()
	entries := make([]protocol.EffectEntry, 0, len(snapshot))
	for _, a := range snapshot {
		entries = append(entries, protocol.EffectEntry{
			Name:      a.Name,
			Kind:      string(a.Kind),
			Magnitude: a.Magnitude,
			Remaining: a.Remaining,
		})
	}
	c.push(sess, protocol.EffectsEvent{Effects: entries})
}

// err2fields builds the standard log fields for a per-session failure.
func err2fields(uid string, err error) []zap.Field {
	return []zap.Field{zap.String("uid", uid), zap.Error(err)}
}

// disengage drops the session out of combat: idle activity, no target, no
// pending action, and removal from its target's engaged set.
func (c *Core) disengage(sess *session.Session) {
	if target := sess.Target(); target != "" {
		if inst, ok := c.entities.Get(target); ok {
			inst.Disengage(sess.UID)
		}
	}
	sess.ClearTarget()
	sess.ClearPending()
	if sess.Activity() == session.ActivityEngaged {
		_ = sess.SetActivity(session.ActivityIdle)
	}
}
