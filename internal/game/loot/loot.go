// Package loot rolls coin and item drops from authored loot tables.
package loot

import (
	"errors"
	"fmt"

	"github.com/cory-johannsen/realmd/internal/game/dice"
)

// Drop is one weighted item entry in a loot table.
type Drop struct {
	ItemID string `yaml:"item_id"`
	// Chance is the drop probability in percent, 1..100.
	Chance int `yaml:"chance"`
	MinQty int `yaml:"min_qty"`
	MaxQty int `yaml:"max_qty"`
}

// CoinRange bounds the coin drop of a table.
type CoinRange struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Table describes what an entity drops when it dies.
type Table struct {
	Coins CoinRange `yaml:"coins"`
	Items []Drop    `yaml:"items"`
}

// Validate checks that the Table satisfies its invariants.
//
// Postcondition: Returns nil iff every drop entry and the coin range are valid.
func (t *Table) Validate() error {
	var errs []error
	if t.Coins.Min < 0 {
		errs = append(errs, errors.New("coins.min must be >= 0"))
	}
	if t.Coins.Max < t.Coins.Min {
		errs = append(errs, errors.New("coins.max must be >= coins.min"))
	}
	for i, d := range t.Items {
		if d.ItemID == "" {
			errs = append(errs, fmt.Errorf("items[%d]: item_id must not be empty", i))
		}
		if d.Chance < 1 || d.Chance > 100 {
			errs = append(errs, fmt.Errorf("items[%d]: chance must be 1..100; got %d", i, d.Chance))
		}
		if d.MinQty < 1 {
			errs = append(errs, fmt.Errorf("items[%d]: min_qty must be >= 1", i))
		}
		if d.MaxQty < d.MinQty {
			errs = append(errs, fmt.Errorf("items[%d]: max_qty must be >= min_qty", i))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("loot table validation failed: %v", errs)
	}
	return nil
}

// Result is one rolled drop: the item ID and how many dropped.
type Result struct {
	ItemID   string
	Quantity int
}

// RollCoins rolls a coin amount uniformly within the table's range.
//
// Precondition: t must have passed Validate.
// Postcondition: Coins.Min <= result <= Coins.Max.
func (t *Table) RollCoins(src dice.Source) int {
	span := t.Coins.Max - t.Coins.Min
	if span == 0 {
		return t.Coins.Min
	}
	return t.Coins.Min + src.Intn(span+1)
}

// RollItems rolls every drop entry independently and returns the hits.
//
// Precondition: t must have passed Validate.
// Postcondition: every result quantity is within its entry's min/max range.
func (t *Table) RollItems(src dice.Source) []Result {
	var out []Result
	for _, d := range t.Items {
		if src.Intn(100)+1 > d.Chance {
			continue
		}
		qty := d.MinQty
		if span := d.MaxQty - d.MinQty; span > 0 {
			qty += src.Intn(span + 1)
		}
		out = append(out, Result{ItemID: d.ItemID, Quantity: qty})
	}
	return out
}
