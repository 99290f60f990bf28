package catalog

import (
	"errors"
	"fmt"
)

// Kind constants for Item.Kind.
const (
	ItemKindGear       = "gear"
	ItemKindConsumable = "consumable"
	ItemKindJunk       = "junk"
)

// Equipment slot constants for Item.Slot.
const (
	SlotNone    = ""
	SlotWeapon  = "weapon"
	SlotArmor   = "armor"
	SlotTrinket = "trinket"
)

// Effect constants for consumable items.
const (
	ItemEffectHeal = "heal"
	ItemEffectMana = "mana"
)

var validItemKinds = map[string]bool{
	ItemKindGear:       true,
	ItemKindConsumable: true,
	ItemKindJunk:       true,
}

var validSlots = map[string]bool{
	SlotNone:    true,
	SlotWeapon:  true,
	SlotArmor:   true,
	SlotTrinket: true,
}

// Item defines the static properties of an item loaded from YAML.
type Item struct {
	ID          string  `yaml:"id"`
	Name        string  `yaml:"name"`
	Description string  `yaml:"description"`
	Kind        string  `yaml:"kind"`
	Slot        string  `yaml:"slot"`
	Weight      float64 `yaml:"weight"`
	Stackable   bool    `yaml:"stackable"`
	MaxStack    int     `yaml:"max_stack"`
	// Value is the vendor buy price in coins. Sell price is derived (half).
	Value int `yaml:"value"`
	// Effect and Magnitude apply to consumables only ("heal", "mana").
	Effect    string `yaml:"effect"`
	Magnitude int    `yaml:"magnitude"`
	// Bonuses are stat bonuses granted while the item is equipped.
	Bonuses Stats `yaml:"bonuses"`
}

// Validate checks that the Item satisfies its invariants.
//
// Precondition: i must not be nil.
// Postcondition: Returns nil iff all fields are valid.
func (i *Item) Validate() error {
	var errs []error
	if i.ID == "" {
		errs = append(errs, errors.New("id must not be empty"))
	}
	if i.Name == "" {
		errs = append(errs, errors.New("name must not be empty"))
	}
	if !validItemKinds[i.Kind] {
		errs = append(errs, fmt.Errorf("kind must be one of gear, consumable, junk; got %q", i.Kind))
	}
	if !validSlots[i.Slot] {
		errs = append(errs, fmt.Errorf("slot must be one of weapon, armor, trinket or empty; got %q", i.Slot))
	}
	if i.Kind != ItemKindGear && i.Slot != SlotNone {
		errs = append(errs, fmt.Errorf("only gear may declare a slot; kind %q has slot %q", i.Kind, i.Slot))
	}
	if i.MaxStack < 1 {
		errs = append(errs, errors.New("max_stack must be >= 1"))
	}
	if i.Weight < 0 {
		errs = append(errs, errors.New("weight must be >= 0"))
	}
	if i.Value < 0 {
		errs = append(errs, errors.New("value must be >= 0"))
	}
	if i.Kind == ItemKindConsumable {
		if i.Effect != ItemEffectHeal && i.Effect != ItemEffectMana {
			errs = append(errs, fmt.Errorf("consumable effect must be heal or mana; got %q", i.Effect))
		}
		if i.Magnitude < 1 {
			errs = append(errs, errors.New("consumable magnitude must be >= 1"))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("item %q validation failed: %v", i.ID, errs)
	}
	return nil
}

// SellValue returns the coins a vendor pays for one unit of the item.
//
// Postcondition: Returns Value/2; always <= half the buy value.
func (i *Item) SellValue() int {
	return i.Value / 2
}
