package entity

import "sync"

// respawnEntry is one pending respawn, counted down in scheduler passes.
type respawnEntry struct {
	templateID string
	locationID string
	remaining  int
}

// respawnQueue holds pending respawns. Guarded by its own mutex so kill
// resolution can schedule without taking the manager lock.
type respawnQueue struct {
	mu      sync.Mutex
	entries []respawnEntry
}

// Due names a template/location pair whose respawn counter has expired.
type Due struct {
	TemplateID string
	LocationID string
}

// ScheduleRespawn queues the template to reappear in locationID after ticks
// scheduler passes. A ticks value of 0 or less means the entity does not
// respawn and the call is a no-op.
//
// Postcondition: TickRespawns returns the pair after exactly ticks passes.
func (m *Manager) ScheduleRespawn(templateID, locationID string, ticks int) {
	if ticks <= 0 {
		return
	}
	m.respawn.mu.Lock()
	defer m.respawn.mu.Unlock()
	m.respawn.entries = append(m.respawn.entries, respawnEntry{
		templateID: templateID,
		locationID: locationID,
		remaining:  ticks,
	})
}

// PendingRespawns returns how many respawns are queued.
func (m *Manager) PendingRespawns() int {
	m.respawn.mu.Lock()
	defer m.respawn.mu.Unlock()
	return len(m.respawn.entries)
}

// TickRespawns decrements every pending respawn by one pass and returns the
// entries that came due. The caller spawns them; the queue never spawns
// directly so the scheduler controls ordering.
//
// Postcondition: no remaining counter is ever negative; due entries are
// removed from the queue.
func (m *Manager) TickRespawns() []Due {
	m.respawn.mu.Lock()
	defer m.respawn.mu.Unlock()

	var due []Due
	kept := m.respawn.entries[:0]
	for _, e := range m.respawn.entries {
		e.remaining--
		if e.remaining <= 0 {
			due = append(due, Due{TemplateID: e.templateID, LocationID: e.locationID})
			continue
		}
		kept = append(kept, e)
	}
	m.respawn.entries = kept
	return due
}
