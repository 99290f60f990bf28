// Package protocol defines the wire messages exchanged with clients: one
// tagged-union inbound message and a family of typed outbound events. The
// gateway marshals these as JSON; the core never touches the encoding.
package protocol

// Inbound message types.
const (
	TypeMove     = "move"
	TypeLook     = "look"
	TypeMap      = "map"
	TypeSay      = "say"
	TypeAttack   = "attack"
	TypeTarget   = "target"
	TypeSkill    = "skill"
	TypeCast     = "cast"
	TypeHide     = "hide"
	TypeRest     = "rest"
	TypeMeditate = "meditate"
	TypePickLock = "picklock"
	TypeSearch   = "search"
	TypeInteract = "interact"
	TypeLoot     = "loot"
	TypeVendor   = "vendor"
	TypeBuy      = "buy"
	TypeSell     = "sell"
	TypeTrainer  = "trainer"
	TypeLevelUp  = "levelup"
	TypeTrain    = "train"
	TypeEquip    = "equip"
	TypeUnequip  = "unequip"
	TypeUse      = "use"
	TypeDrop     = "drop"
	TypeGet      = "get"
	TypeAdmin    = "admin"
)

// ClientMessage is the single inbound wire shape. Type selects the action;
// the remaining fields are populated per type and ignored otherwise.
type ClientMessage struct {
	Type string `json:"type"`
	// Direction for move, picklock.
	Direction string `json:"direction,omitempty"`
	// Text for say and admin (the raw slash command line).
	Text string `json:"text,omitempty"`
	// Target is an entity name prefix (target) or player name (admin ops).
	Target string `json:"target,omitempty"`
	// Ability is the skill or spell catalog ID for skill/cast.
	Ability string `json:"ability,omitempty"`
	// Item is an item name or catalog ID for buy/sell/equip/use/drop/get.
	Item string `json:"item,omitempty"`
	// Quantity for buy/sell/drop/get. 0 means 1.
	Quantity int `json:"quantity,omitempty"`
	// Feature is the feature ID for interact.
	Feature string `json:"feature,omitempty"`
	// Slot is the equipment slot for unequip.
	Slot string `json:"slot,omitempty"`
	// Stat is the stat name for train.
	Stat string `json:"stat,omitempty"`
}

// Event is implemented by every outbound message. EventType returns the wire
// tag the gateway writes alongside the payload.
type Event interface {
	EventType() string
}

// ResultEvent reports the outcome of the requester's own command. OK false
// carries a user-facing message and nothing else changed.
type ResultEvent struct {
	OK      bool   `json:"ok"`
	Message string `json:"message,omitempty"`
}

func (ResultEvent) EventType() string { return "result" }

// LocationEvent describes the requester's current location.
type LocationEvent struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Exits       []string `json:"exits"`
	Players     []string `json:"players,omitempty"`
	Entities    []string `json:"entities,omitempty"`
	Features    []string `json:"features,omitempty"`
	Items       []string `json:"items,omitempty"`
	Coins       int      `json:"coins,omitempty"`
}

func (LocationEvent) EventType() string { return "location" }

// MapEvent is the breadth-1 map snapshot around the requester.
type MapEvent struct {
	Here   string     `json:"here"`
	Nearby []MapEntry `json:"nearby"`
}

// MapEntry is one neighboring location with its occupancy.
type MapEntry struct {
	Direction string `json:"direction"`
	Title     string `json:"title"`
	Players   int    `json:"players"`
	Hostiles  int    `json:"hostiles"`
}

func (MapEvent) EventType() string { return "map" }

// ChatEvent carries speech in a location.
type ChatEvent struct {
	From string `json:"from"`
	Text string `json:"text"`
}

func (ChatEvent) EventType() string { return "chat" }

// MoveEvent announces a player arriving at or leaving a location.
type MoveEvent struct {
	Name     string `json:"name"`
	Arrived  bool   `json:"arrived"`
	Location string `json:"location"`
}

func (MoveEvent) EventType() string { return "move" }

// CombatEvent reports one combat exchange.
type CombatEvent struct {
	Attacker string `json:"attacker"`
	Defender string `json:"defender"`
	Hit      bool   `json:"hit"`
	Damage   int    `json:"damage,omitempty"`
	Roll     int    `json:"roll,omitempty"`
	Total    int    `json:"total,omitempty"`
	Against  int    `json:"against,omitempty"`
	Ability  string `json:"ability,omitempty"`
}

func (CombatEvent) EventType() string { return "combat" }

// DeathEvent announces an entity or player death.
type DeathEvent struct {
	Name   string `json:"name"`
	Killer string `json:"killer,omitempty"`
}

func (DeathEvent) EventType() string { return "death" }

// VitalsEvent reports the requester's own HP/MP after a change.
type VitalsEvent struct {
	HP    int `json:"hp"`
	MaxHP int `json:"max_hp"`
	MP    int `json:"mp"`
	MaxMP int `json:"max_mp"`
}

func (VitalsEvent) EventType() string { return "vitals" }

// ProgressEvent reports XP gain and level/currency changes.
type ProgressEvent struct {
	XP       int    `json:"xp"`
	Level    int    `json:"level"`
	Currency int    `json:"currency"`
	Note     string `json:"note,omitempty"`
}

func (ProgressEvent) EventType() string { return "progress" }

// EffectsEvent carries the full active-effect list; sent only on change.
type EffectsEvent struct {
	Effects []EffectEntry `json:"effects"`
}

// EffectEntry is one active effect in an EffectsEvent.
type EffectEntry struct {
	Name      string `json:"name"`
	Kind      string `json:"kind"`
	Magnitude int    `json:"magnitude"`
	Remaining int    `json:"remaining"`
}

func (EffectsEvent) EventType() string { return "effects" }

// LootEvent reports what a kill or pickup yielded.
type LootEvent struct {
	Source string      `json:"source"`
	Coins  int         `json:"coins,omitempty"`
	Items  []LootEntry `json:"items,omitempty"`
}

// LootEntry is one dropped stack in a LootEvent.
type LootEntry struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
}

func (LootEvent) EventType() string { return "loot" }

// VendorEvent lists a vendor's wares with prices.
type VendorEvent struct {
	Vendor string       `json:"vendor"`
	Wares  []VendorWare `json:"wares"`
}

// VendorWare is one item offered for sale.
type VendorWare struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Price int    `json:"price"`
}

func (VendorEvent) EventType() string { return "vendor" }

// TrainerEvent reports what the trainer offers the requester right now.
type TrainerEvent struct {
	Trainer      string `json:"trainer"`
	Level        int    `json:"level"`
	XP           int    `json:"xp"`
	XPForNext    int    `json:"xp_for_next"`
	CanLevelUp   bool   `json:"can_level_up"`
	TrainCost    int    `json:"train_cost"`
	Currency     int    `json:"currency"`
	CanTrainStat bool   `json:"can_train_stat"`
}

func (TrainerEvent) EventType() string { return "trainer" }

// InventoryEvent is the requester's backpack and equipment snapshot.
type InventoryEvent struct {
	Items    []LootEntry       `json:"items"`
	Equipped map[string]string `json:"equipped,omitempty"`
	Weight   float64           `json:"weight"`
	Currency int               `json:"currency"`
}

func (InventoryEvent) EventType() string { return "inventory" }

// SystemEvent carries server-wide announcements and admin broadcasts.
type SystemEvent struct {
	Text string `json:"text"`
}

func (SystemEvent) EventType() string { return "system" }
