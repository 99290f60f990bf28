package inventory

import (
	"fmt"

	"github.com/cory-johannsen/realmd/internal/game/catalog"
)

// Equipment holds the gear worn in the three equipment slots.
type Equipment struct {
	slots map[string]*catalog.Item
}

// NewEquipment creates an empty equipment set.
func NewEquipment() *Equipment {
	return &Equipment{slots: make(map[string]*catalog.Item)}
}

// Equip places item into its declared slot and returns whatever was worn
// there before, or nil.
//
// Precondition: item must not be nil.
// Postcondition: on success the slot holds item; an error leaves the set
// unchanged.
func (e *Equipment) Equip(item *catalog.Item) (*catalog.Item, error) {
	if item.Kind != catalog.ItemKindGear || item.Slot == catalog.SlotNone {
		return nil, fmt.Errorf("%s cannot be equipped", item.Name)
	}
	prev := e.slots[item.Slot]
	e.slots[item.Slot] = item
	return prev, nil
}

// Unequip removes and returns the item in the named slot.
//
// Postcondition: the slot is empty on success; an error means the slot was
// already empty or unknown.
func (e *Equipment) Unequip(slot string) (*catalog.Item, error) {
	item, ok := e.slots[slot]
	if !ok || item == nil {
		return nil, fmt.Errorf("nothing equipped in %s slot", slot)
	}
	delete(e.slots, slot)
	return item, nil
}

// InSlot returns the item worn in the named slot, or nil.
func (e *Equipment) InSlot(slot string) *catalog.Item {
	return e.slots[slot]
}

// Bonuses returns the member-wise sum of stat bonuses across all worn gear.
func (e *Equipment) Bonuses() catalog.Stats {
	var total catalog.Stats
	for _, item := range e.slots {
		total = total.Plus(item.Bonuses)
	}
	return total
}

// All returns the worn items keyed by slot. The map is a snapshot copy.
func (e *Equipment) All() map[string]*catalog.Item {
	out := make(map[string]*catalog.Item, len(e.slots))
	for slot, item := range e.slots {
		out[slot] = item
	}
	return out
}
