package catalog

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Registry holds every loaded definition table keyed by ID.
// It is built once at startup and read-only afterwards, so no locking is
// required for concurrent access.
type Registry struct {
	items   map[string]*Item
	spells  map[string]*Spell
	skills  map[string]*Skill
	classes map[string]*Class
	races   map[string]*Race
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		items:   make(map[string]*Item),
		spells:  make(map[string]*Spell),
		skills:  make(map[string]*Skill),
		classes: make(map[string]*Class),
		races:   make(map[string]*Race),
	}
}

// Item returns the item definition for id, or (nil, false).
func (r *Registry) Item(id string) (*Item, bool) {
	i, ok := r.items[id]
	return i, ok
}

// Spell returns the spell definition for id, or (nil, false).
func (r *Registry) Spell(id string) (*Spell, bool) {
	s, ok := r.spells[id]
	return s, ok
}

// Skill returns the skill definition for id, or (nil, false).
func (r *Registry) Skill(id string) (*Skill, bool) {
	s, ok := r.skills[id]
	return s, ok
}

// Class returns the class definition for id, or (nil, false).
func (r *Registry) Class(id string) (*Class, bool) {
	c, ok := r.classes[id]
	return c, ok
}

// Race returns the race definition for id, or (nil, false).
func (r *Registry) Race(id string) (*Race, bool) {
	ra, ok := r.races[id]
	return ra, ok
}

// Items returns all item definitions in no particular order.
func (r *Registry) Items() []*Item {
	out := make([]*Item, 0, len(r.items))
	for _, i := range r.items {
		out = append(out, i)
	}
	return out
}

// RegisterItem adds an item definition, overwriting any existing entry.
//
// Precondition: def must not be nil and def.ID must not be empty.
func (r *Registry) RegisterItem(def *Item) { r.items[def.ID] = def }

// RegisterSpell adds a spell definition, overwriting any existing entry.
func (r *Registry) RegisterSpell(def *Spell) { r.spells[def.ID] = def }

// RegisterSkill adds a skill definition, overwriting any existing entry.
func (r *Registry) RegisterSkill(def *Skill) { r.skills[def.ID] = def }

// RegisterClass adds a class definition, overwriting any existing entry.
func (r *Registry) RegisterClass(def *Class) { r.classes[def.ID] = def }

// RegisterRace adds a race definition, overwriting any existing entry.
func (r *Registry) RegisterRace(def *Race) { r.races[def.ID] = def }

// Dirs names the content directories a full Registry is loaded from.
type Dirs struct {
	Items   string
	Spells  string
	Skills  string
	Classes string
	Races   string
}

// Load reads every catalog directory and returns a validated Registry.
// Cross-references (class skill/spell lists) are resolved after loading;
// a dangling reference is a startup error.
//
// Precondition: every directory in dirs must be readable.
// Postcondition: Returns a fully populated Registry or the first error.
func Load(dirs Dirs) (*Registry, error) {
	r := NewRegistry()

	if err := loadDir(dirs.Items, func() validator { return &Item{} }, func(v validator) {
		r.RegisterItem(v.(*Item))
	}); err != nil {
		return nil, fmt.Errorf("loading items: %w", err)
	}
	if err := loadDir(dirs.Spells, func() validator { return &Spell{} }, func(v validator) {
		r.RegisterSpell(v.(*Spell))
	}); err != nil {
		return nil, fmt.Errorf("loading spells: %w", err)
	}
	if err := loadDir(dirs.Skills, func() validator { return &Skill{} }, func(v validator) {
		r.RegisterSkill(v.(*Skill))
	}); err != nil {
		return nil, fmt.Errorf("loading skills: %w", err)
	}
	if err := loadDir(dirs.Classes, func() validator { return &Class{} }, func(v validator) {
		r.RegisterClass(v.(*Class))
	}); err != nil {
		return nil, fmt.Errorf("loading classes: %w", err)
	}
	if err := loadDir(dirs.Races, func() validator { return &Race{} }, func(v validator) {
		r.RegisterRace(v.(*Race))
	}); err != nil {
		return nil, fmt.Errorf("loading races: %w", err)
	}

	for _, cls := range r.classes {
		for _, id := range cls.Skills {
			if _, ok := r.skills[id]; !ok {
				return nil, fmt.Errorf("class %q references unknown skill %q", cls.ID, id)
			}
		}
		for _, id := range cls.Spells {
			if _, ok := r.spells[id]; !ok {
				return nil, fmt.Errorf("class %q references unknown spell %q", cls.ID, id)
			}
		}
	}

	return r, nil
}

// validator is satisfied by every catalog definition type.
type validator interface {
	Validate() error
}

// loadDir reads every *.yaml file in dir, decodes it with strict field
// checking, validates it, and hands it to register.
func loadDir(dir string, newDef func() validator, register func(validator)) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading dir %q: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %q: %w", path, err)
		}
		def := newDef()
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(def); err != nil {
			return fmt.Errorf("parsing %q: %w", path, err)
		}
		if err := def.Validate(); err != nil {
			return fmt.Errorf("validating %q: %w", path, err)
		}
		register(def)
	}
	return nil
}
