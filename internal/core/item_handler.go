package core

import (
	"fmt"

	"github.com/cory-johannsen/realmd/internal/game/catalog"
	"github.com/cory-johannsen/realmd/internal/game/protocol"
	"github.com/cory-johannsen/realmd/internal/game/session"
)

// sendInventory pushes the session's backpack and equipment snapshot.
func (c *Core) sendInventory(sess *session.Session) {
	stacks := sess.Backpack.Stacks()
	items := make([]protocol.LootEntry, 0, len(stacks))
	for _, s := range stacks {
		items = append(items, protocol.LootEntry{Name: s.Item.Name, Quantity: s.Quantity})
	}
	equipped := make(map[string]string)
	for slot, item := range sess.Equipment.All() {
		equipped[slot] = item.Name
	}
	c.push(sess, protocol.InventoryEvent{
		Items:    items,
		Equipped: equipped,
		Weight:   sess.Backpack.TotalWeight(),
		Currency: sess.Currency(),
	})
}

// handleEquip moves a carried piece of gear into its slot, returning any
// previously worn item to the backpack.
func (c *Core) handleEquip(sess *session.Session, name string) {
	item, ok := sess.Backpack.Find(name)
	if !ok {
		c.fail(sess, fmt.Sprintf("you are not carrying a %s", name))
		return
	}
	if item.Kind != catalog.ItemKindGear || item.Slot == catalog.SlotNone {
		c.fail(sess, fmt.Sprintf("the %s cannot be equipped", item.Name))
		return
	}

	if err := sess.Backpack.Remove(item.ID, 1); err != nil {
		c.fail(sess, err.Error())
		return
	}
	prev, err := sess.Equipment.Equip(item)
	if err != nil {
		_ = sess.Backpack.Add(item, 1)
		c.fail(sess, err.Error())
		return
	}
	if prev != nil {
		if err := sess.Backpack.Add(prev, 1); err != nil {
			// No room for the swapped-out piece; it lands at the wearer's feet.
			c.floor.Drop(sess.Location(), prev, 1)
			c.ok(sess, fmt.Sprintf("you equip the %s; the %s falls to the ground", item.Name, prev.Name))
			c.sendInventory(sess)
			c.persistInventoryAsync(sess)
			return
		}
	}
	c.ok(sess, fmt.Sprintf("you equip the %s", item.Name))
	c.sendInventory(sess)
	c.persistInventoryAsync(sess)
}

// handleUnequip removes the item in the named slot and stows it.
func (c *Core) handleUnequip(sess *session.Session, slot string) {
	item, err := sess.Equipment.Unequip(slot)
	if err != nil {
		c.fail(sess, err.Error())
		return
	}
	if err := sess.Backpack.Add(item, 1); err != nil {
		// Backpack cannot take it back; restore the slot.
		_, _ = sess.Equipment.Equip(item)
		c.fail(sess, err.Error())
		return
	}
	c.ok(sess, fmt.Sprintf("you remove the %s", item.Name))
	c.sendInventory(sess)
	c.persistInventoryAsync(sess)
}

// handleUse consumes a consumable: heal is capped at max HP, mana at max MP,
// and the quantity drops by one.
func (c *Core) handleUse(sess *session.Session, name string) {
	item, ok := sess.Backpack.Find(name)
	if !ok {
		c.fail(sess, fmt.Sprintf("you are not carrying a %s", name))
		return
	}
	if item.Kind != catalog.ItemKindConsumable {
		c.fail(sess, fmt.Sprintf("the %s is not something you can use", item.Name))
		return
	}
	if err := sess.Backpack.Remove(item.ID, 1); err != nil {
		c.fail(sess, err.Error())
		return
	}

	switch item.Effect {
	case catalog.ItemEffectHeal:
		sess.Heal(item.Magnitude)
		c.ok(sess, fmt.Sprintf("the %s restores up to %d health", item.Name, item.Magnitude))
	case catalog.ItemEffectMana:
		sess.RestoreMana(item.Magnitude)
		c.ok(sess, fmt.Sprintf("the %s restores up to %d mana", item.Name, item.Magnitude))
	}
	c.sendVitals(sess)
	c.sendInventory(sess)
	c.persistInventoryAsync(sess)
}

// handleDrop places carried items on the floor of the current location.
func (c *Core) handleDrop(sess *session.Session, name string, qty int) {
	if qty <= 0 {
		qty = 1
	}
	item, ok := sess.Backpack.Find(name)
	if !ok {
		c.fail(sess, fmt.Sprintf("you are not carrying a %s", name))
		return
	}
	if err := sess.Backpack.Remove(item.ID, qty); err != nil {
		c.fail(sess, err.Error())
		return
	}
	c.floor.Drop(sess.Location(), item, qty)
	c.ok(sess, fmt.Sprintf("you drop %d x %s", qty, item.Name))
	c.sessions.BroadcastToLocation(sess.Location(), protocol.SystemEvent{
		Text: fmt.Sprintf("%s drops %s", sess.Name, item.Name),
	}, sess.UID)
	c.sendInventory(sess)
	c.persistInventoryAsync(sess)
}

// handleGet picks a named item up off the floor.
func (c *Core) handleGet(sess *session.Session, name string, qty int) {
	if qty <= 0 {
		qty = 1
	}
	item, taken := c.floor.Take(sess.Location(), name, qty)
	if taken == 0 {
		c.fail(sess, fmt.Sprintf("there is no %s here", name))
		return
	}
	if err := sess.Backpack.Add(item, taken); err != nil {
		// Could not carry it; put it back.
		c.floor.Drop(sess.Location(), item, taken)
		c.fail(sess, err.Error())
		return
	}
	c.ok(sess, fmt.Sprintf("you pick up %d x %s", taken, item.Name))
	c.sendInventory(sess)
	c.persistInventoryAsync(sess)
}

// handleLoot sweeps the location's floor: the coin pile (exactly one
// collector wins it) and every pile the backpack can hold.
func (c *Core) handleLoot(sess *session.Session) {
	locID := sess.Location()

	coins := c.floor.TakeCoins(locID)
	if coins > 0 {
		sess.AddCurrency(coins)
	}

	var collected []protocol.LootEntry
	piles, _ := c.floor.Contents(locID)
	for _, pile := range piles {
		item, taken := c.floor.Take(locID, pile.Item.ID, pile.Quantity)
		if taken == 0 {
			continue
		}
		if err := sess.Backpack.Add(item, taken); err != nil {
			c.floor.Drop(locID, item, taken)
			c.fail(sess, err.Error())
			continue
		}
		collected = append(collected, protocol.LootEntry{Name: item.Name, Quantity: taken})
	}

	if coins == 0 && len(collected) == 0 {
		c.fail(sess, "there is nothing here to take")
		return
	}

	if !c.persistSyncOrFail(sess, "haul") {
		c.sendInventory(sess)
		return
	}
	c.push(sess, protocol.LootEvent{Source: "the ground", Coins: coins, Items: collected})
	c.sendInventory(sess)
	c.persistInventoryAsync(sess)
}
