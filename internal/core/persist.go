package core

import (
	"context"
	"time"

	"github.com/cory-johannsen/realmd/internal/game/session"
)

// persistTimeout bounds every store write issued from a handler or scheduler
// pass so a stalled database cannot wedge gameplay goroutines.
const persistTimeout = 5 * time.Second

// snapshot assembles the persistable view of a session.
func snapshot(sess *session.Session) PlayerSnapshot {
	hp, maxHP, mp, maxMP := sess.Vitals()
	return PlayerSnapshot{
		UID:        sess.UID,
		LocationID: sess.Location(),
		Level:      sess.Level(),
		XP:         sess.XP(),
		Currency:   sess.Currency(),
		HP:         hp,
		MaxHP:      maxHP,
		MP:         mp,
		MaxMP:      maxMP,
		Stats:      sess.BaseStats(),
	}
}

// inventoryRecords flattens the backpack and worn equipment into store rows.
func inventoryRecords(sess *session.Session) []ItemRecord {
	stacks := sess.Backpack.Stacks()
	equipped := sess.Equipment.All()
	records := make([]ItemRecord, 0, len(stacks)+len(equipped))
	for _, s := range stacks {
		records = append(records, ItemRecord{ItemID: s.Item.ID, Quantity: s.Quantity})
	}
	for slot, item := range equipped {
		records = append(records, ItemRecord{ItemID: item.ID, Quantity: 1, Slot: slot})
	}
	return records
}

// persistSync writes the session's scalar state and blocks until the store
// confirms. Handlers call it when the player must not see a result the
// database could lose (purchases, sales, level-ups).
func (c *Core) persistSync(sess *session.Session) error {
	if c.store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	return c.store.SaveState(ctx, snapshot(sess))
}

// persistSyncOrFail persists the session's scalar state and, when the store
// rejects the write, tells the player the action was not recorded instead of
// reporting success. Returns false when the caller must skip its success
// result and broadcasts.
func (c *Core) persistSyncOrFail(sess *session.Session, action string) bool {
	if err := c.persistSync(sess); err != nil {
		c.logger.Error("persist after "+action, err2fields(sess.UID, err)...)
		c.fail(sess, "the realm could not record your "+action+"; try again")
		return false
	}
	return true
}

// persistAsync writes the session's scalar state off the calling goroutine.
// Failures are logged, not surfaced; the next write carries the full state
// again so a dropped one costs nothing but recency.
func (c *Core) persistAsync(sess *session.Session) {
	if c.store == nil {
		return
	}
	snap := snapshot(sess)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := c.store.SaveState(ctx, snap); err != nil {
			c.logger.Error("persist player state", err2fields(snap.UID, err)...)
		}
	}()
}

// persistInventoryAsync replaces the session's inventory rows off the calling
// goroutine. The record slice is built synchronously so the write captures
// the inventory as it was when the triggering command finished.
func (c *Core) persistInventoryAsync(sess *session.Session) {
	if c.store == nil {
		return
	}
	uid := sess.UID
	records := inventoryRecords(sess)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()
		if err := c.store.SaveInventory(ctx, uid, records); err != nil {
			c.logger.Error("persist player inventory", err2fields(uid, err)...)
		}
	}()
}
