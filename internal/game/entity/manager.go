package entity

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
)

// Manager tracks all live entity instances by ID and by location.
// All methods are safe for concurrent use.
type Manager struct {
	mu           sync.RWMutex
	templates    map[string]*Template
	instances    map[string]*Instance       // instanceID → Instance
	locationSets map[string]map[string]bool // locationID → set of instanceIDs

	respawn respawnQueue
}

// NewManager creates a Manager over the loaded templates.
//
// Precondition: templates must not be nil.
func NewManager(templates map[string]*Template) *Manager {
	return &Manager{
		templates:    templates,
		instances:    make(map[string]*Instance),
		locationSets: make(map[string]map[string]bool),
	}
}

// Template returns the template with the given ID.
//
// Postcondition: Returns (template, true) if found, or (nil, false) otherwise.
func (m *Manager) Template(id string) (*Template, bool) {
	t, ok := m.templates[id]
	return t, ok
}

// Spawn creates a new Instance of the named template in locationID.
//
// Precondition: templateID must be a loaded template; locationID must be
// non-empty.
// Postcondition: Returns a new live Instance registered in locationID.
func (m *Manager) Spawn(templateID, locationID string) (*Instance, error) {
	tmpl, ok := m.templates[templateID]
	if !ok {
		return nil, fmt.Errorf("entity template %q not found", templateID)
	}
	if locationID == "" {
		return nil, fmt.Errorf("entity.Manager.Spawn: locationID must not be empty")
	}

	inst := NewInstance(uuid.NewString(), tmpl, locationID)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.instances[inst.ID] = inst
	if m.locationSets[locationID] == nil {
		m.locationSets[locationID] = make(map[string]bool)
	}
	m.locationSets[locationID][inst.ID] = true

	return inst, nil
}

// Remove deletes an instance by ID.
//
// Precondition: id must be non-empty.
// Postcondition: Returns an error if the instance is not found.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, ok := m.instances[id]
	if !ok {
		return fmt.Errorf("entity instance %q not found", id)
	}

	if ls, ok := m.locationSets[inst.LocationID]; ok {
		delete(ls, id)
		if len(ls) == 0 {
			delete(m.locationSets, inst.LocationID)
		}
	}
	delete(m.instances, id)
	return nil
}

// Get returns the instance with the given ID.
//
// Postcondition: Returns (inst, true) if found, or (nil, false) otherwise.
func (m *Manager) Get(id string) (*Instance, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	inst, ok := m.instances[id]
	return inst, ok
}

// AllInstances returns a snapshot of every live instance, sorted by ID for
// deterministic iteration.
func (m *Manager) AllInstances() []*Instance {
	m.mu.RLock()
	out := make([]*Instance, 0, len(m.instances))
	for _, inst := range m.instances {
		out = append(out, inst)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(a, b int) bool { return out[a].ID < out[b].ID })
	return out
}

// EntitiesInLocation returns a snapshot of all instances in locationID.
//
// Postcondition: Returns a non-nil slice (may be empty).
func (m *Manager) EntitiesInLocation(locationID string) []*Instance {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.entitiesInLocationLocked(locationID)
}

// entitiesInLocationLocked requires m.mu held (read or write).
func (m *Manager) entitiesInLocationLocked(locationID string) []*Instance {
	ids, ok := m.locationSets[locationID]
	if !ok {
		return []*Instance{}
	}
	out := make([]*Instance, 0, len(ids))
	for id := range ids {
		if inst, ok := m.instances[id]; ok {
			out = append(out, inst)
		}
	}
	return out
}

// LivingHostilesInLocation returns every hostile instance in locationID that
// has not died. Engagement legality checks use this: a session may be
// engaged only while this is non-empty for its location.
//
// Postcondition: Returns a non-nil slice (may be empty).
func (m *Manager) LivingHostilesInLocation(locationID string) []*Instance {
	all := m.EntitiesInLocation(locationID)
	out := make([]*Instance, 0, len(all))
	for _, inst := range all {
		if inst.Template.Hostile && !inst.IsDead() {
			out = append(out, inst)
		}
	}
	return out
}

// VendorInLocation returns the first vendor in locationID, or nil.
func (m *Manager) VendorInLocation(locationID string) *Instance {
	return m.roleInLocation(locationID, RoleVendor)
}

// TrainerInLocation returns the first trainer in locationID, or nil.
func (m *Manager) TrainerInLocation(locationID string) *Instance {
	return m.roleInLocation(locationID, RoleTrainer)
}

func (m *Manager) roleInLocation(locationID, role string) *Instance {
	for _, inst := range m.EntitiesInLocation(locationID) {
		if inst.Template.Role == role && !inst.IsDead() {
			return inst
		}
	}
	return nil
}

// Move relocates an instance to newLocationID.
//
// Precondition: id must identify an existing instance; newLocationID must be
// non-empty.
// Postcondition: instance.LocationID equals newLocationID; the location index
// is updated accordingly.
func (m *Manager) Move(id, newLocationID string) error {
	if newLocationID == "" {
		return fmt.Errorf("entity.Manager.Move: newLocationID must not be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	inst, ok := m.instances[id]
	if !ok {
		return fmt.Errorf("entity.Manager.Move: instance %q not found", id)
	}

	oldLocationID := inst.LocationID
	if ls, ok := m.locationSets[oldLocationID]; ok {
		delete(ls, id)
		if len(ls) == 0 {
			delete(m.locationSets, oldLocationID)
		}
	}

	inst.LocationID = newLocationID
	if m.locationSets[newLocationID] == nil {
		m.locationSets[newLocationID] = make(map[string]bool)
	}
	m.locationSets[newLocationID][id] = true

	return nil
}

// FindInLocation returns the first living instance in locationID whose Name
// has target as a case-insensitive prefix. Returns nil if no match is found.
//
// Precondition: locationID and target must be non-empty for meaningful results.
func (m *Manager) FindInLocation(locationID, target string) *Instance {
	lower := strings.ToLower(target)
	for _, inst := range m.EntitiesInLocation(locationID) {
		if inst.IsDead() {
			continue
		}
		if strings.HasPrefix(strings.ToLower(inst.Name), lower) {
			return inst
		}
	}
	return nil
}

// LivingCountByTemplate returns how many living instances of the template
// occupy locationID. Used by startup spawning and respawn reconciliation.
func (m *Manager) LivingCountByTemplate(locationID, templateID string) int {
	count := 0
	for _, inst := range m.EntitiesInLocation(locationID) {
		if inst.TemplateID == templateID && !inst.IsDead() {
			count++
		}
	}
	return count
}
