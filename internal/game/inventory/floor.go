package inventory

import (
	"sync"

	"github.com/cory-johannsen/realmd/internal/game/catalog"
)

// GroundStack is a pile of one item kind lying in a location.
type GroundStack struct {
	Item     *catalog.Item
	Quantity int
}

// FloorManager tracks dropped items and coin piles per location.
// Safe for concurrent use.
type FloorManager struct {
	mu    sync.RWMutex
	items map[string][]GroundStack // location ID -> piles
	coins map[string]int           // location ID -> coins on the ground
}

// NewFloorManager creates an empty FloorManager.
func NewFloorManager() *FloorManager {
	return &FloorManager{
		items: make(map[string][]GroundStack),
		coins: make(map[string]int),
	}
}

// Drop places qty units of item on the ground in the location, merging into
// an existing pile of the same item when one exists.
//
// Precondition: item must not be nil and qty must be >= 1.
func (f *FloorManager) Drop(locationID string, item *catalog.Item, qty int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	piles := f.items[locationID]
	for i := range piles {
		if piles[i].Item.ID == item.ID {
			piles[i].Quantity += qty
			return
		}
	}
	f.items[locationID] = append(piles, GroundStack{Item: item, Quantity: qty})
}

// Take removes up to qty units of the named item from the location's floor.
// Matching is by item ID or exact name. Returns the item taken and how many,
// or (nil, 0) when no pile matches.
//
// Postcondition: the returned quantity never exceeds what was on the floor.
func (f *FloorManager) Take(locationID, nameOrID string, qty int) (*catalog.Item, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	piles := f.items[locationID]
	for i := range piles {
		if piles[i].Item.ID != nameOrID && piles[i].Item.Name != nameOrID {
			continue
		}
		item := piles[i].Item
		take := qty
		if take > piles[i].Quantity {
			take = piles[i].Quantity
		}
		piles[i].Quantity -= take
		if piles[i].Quantity == 0 {
			f.items[locationID] = append(piles[:i], piles[i+1:]...)
			if len(f.items[locationID]) == 0 {
				delete(f.items, locationID)
			}
		}
		return item, take
	}
	return nil, 0
}

// DropCoins adds coins to the location's coin pile.
//
// Precondition: amount >= 1.
func (f *FloorManager) DropCoins(locationID string, amount int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.coins[locationID] += amount
}

// TakeCoins removes and returns the entire coin pile in the location.
// The swap happens under the lock, so two concurrent takers cannot both
// collect the same pile.
//
// Postcondition: the location's coin pile is zero after the call.
func (f *FloorManager) TakeCoins(locationID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	amount := f.coins[locationID]
	delete(f.coins, locationID)
	return amount
}

// Contents returns a snapshot of the piles and coins in the location.
func (f *FloorManager) Contents(locationID string) ([]GroundStack, int) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	piles := f.items[locationID]
	out := make([]GroundStack, len(piles))
	copy(out, piles)
	return out, f.coins[locationID]
}
