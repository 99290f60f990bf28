// Package inventory implements carried items, equipped gear, and items lying
// on the ground. Backpacks and equipment belong to a single session and are
// serialised by the session; the floor manager is shared and locks internally.
package inventory

import (
	"fmt"

	"github.com/cory-johannsen/realmd/internal/game/catalog"
)

// Stack is one backpack slot: an item definition and how many are held.
type Stack struct {
	Item     *catalog.Item
	Quantity int
}

// Backpack holds a player's carried items under slot and weight caps.
//
// Invariant: len(stacks) <= maxSlots and TotalWeight() <= maxWeight at all
// times; every stack quantity is 1..Item.MaxStack.
type Backpack struct {
	stacks    []Stack
	maxSlots  int
	maxWeight float64
}

// NewBackpack creates an empty backpack with the given caps.
//
// Precondition: maxSlots >= 1 and maxWeight > 0.
func NewBackpack(maxSlots int, maxWeight float64) *Backpack {
	return &Backpack{
		maxSlots:  maxSlots,
		maxWeight: maxWeight,
	}
}

// TotalWeight returns the summed weight of every carried item.
func (b *Backpack) TotalWeight() float64 {
	var total float64
	for _, s := range b.stacks {
		total += s.Item.Weight * float64(s.Quantity)
	}
	return total
}

// FreeSlots returns how many empty slots remain.
func (b *Backpack) FreeSlots() int {
	return b.maxSlots - len(b.stacks)
}

// Add places qty units of item into the backpack, filling existing stacks
// before opening new slots. The add is all-or-nothing: when the full quantity
// does not fit under the slot and weight caps, nothing changes.
//
// Precondition: item must not be nil and qty must be >= 1.
// Postcondition: on success the backpack holds qty more units of item; on
// error the backpack is unchanged.
func (b *Backpack) Add(item *catalog.Item, qty int) error {
	if b.TotalWeight()+item.Weight*float64(qty) > b.maxWeight {
		return fmt.Errorf("%s is too heavy to carry", item.Name)
	}

	remaining := qty
	if item.Stackable {
		for _, s := range b.stacks {
			if s.Item.ID != item.ID {
				continue
			}
			room := item.MaxStack - s.Quantity
			if room > remaining {
				room = remaining
			}
			remaining -= room
		}
	}
	newSlots := 0
	if remaining > 0 {
		per := 1
		if item.Stackable {
			per = item.MaxStack
		}
		newSlots = (remaining + per - 1) / per
	}
	if len(b.stacks)+newSlots > b.maxSlots {
		return fmt.Errorf("no room for %s", item.Name)
	}

	// Caps hold; commit.
	remaining = qty
	if item.Stackable {
		for i := range b.stacks {
			if b.stacks[i].Item.ID != item.ID {
				continue
			}
			room := item.MaxStack - b.stacks[i].Quantity
			if room > remaining {
				room = remaining
			}
			b.stacks[i].Quantity += room
			remaining -= room
			if remaining == 0 {
				return nil
			}
		}
	}
	for remaining > 0 {
		take := 1
		if item.Stackable {
			take = item.MaxStack
			if take > remaining {
				take = remaining
			}
		}
		b.stacks = append(b.stacks, Stack{Item: item, Quantity: take})
		remaining -= take
	}
	return nil
}

// Remove takes qty units of the item with the given ID out of the backpack.
//
// Precondition: qty >= 1.
// Postcondition: on success the backpack holds qty fewer units; on error the
// backpack is unchanged.
func (b *Backpack) Remove(itemID string, qty int) error {
	if b.Count(itemID) < qty {
		return fmt.Errorf("not carrying %d of %s", qty, itemID)
	}
	remaining := qty
	kept := b.stacks[:0]
	for _, s := range b.stacks {
		if s.Item.ID != itemID || remaining == 0 {
			kept = append(kept, s)
			continue
		}
		take := s.Quantity
		if take > remaining {
			take = remaining
		}
		s.Quantity -= take
		remaining -= take
		if s.Quantity > 0 {
			kept = append(kept, s)
		}
	}
	b.stacks = kept
	return nil
}

// Count returns how many units of the item with the given ID are carried.
func (b *Backpack) Count(itemID string) int {
	total := 0
	for _, s := range b.stacks {
		if s.Item.ID == itemID {
			total += s.Quantity
		}
	}
	return total
}

// Find returns the item definition for the first stack whose item name or ID
// matches, or (nil, false). Name matching is exact and case-sensitive; the
// command parser lowercases input before lookup.
func (b *Backpack) Find(nameOrID string) (*catalog.Item, bool) {
	for _, s := range b.stacks {
		if s.Item.ID == nameOrID || s.Item.Name == nameOrID {
			return s.Item, true
		}
	}
	return nil, false
}

// Stacks returns a snapshot copy of the backpack contents.
//
// Postcondition: mutations of the returned slice do not affect the backpack.
func (b *Backpack) Stacks() []Stack {
	out := make([]Stack, len(b.stacks))
	copy(out, b.stacks)
	return out
}
