package entity

import (
	"sort"

	"github.com/cory-johannsen/realmd/internal/game/dice"
)

// Intent kinds produced by AdvanceBehavior.
const (
	IntentMove   = "move"
	IntentAttack = "attack"
)

// Intent is one action an entity wants to take this pass. The scheduler
// executes intents; behavior only decides them, so all mutation stays on the
// tick path.
type Intent struct {
	Kind     string
	EntityID string
	// Direction is set for move intents.
	Direction string
	// TargetUID is set for attack intents.
	TargetUID string
}

// patrolChance is the percent chance an idle patroller wanders each pass.
const patrolChance = 20

// AdvanceBehavior runs one behavior pass over every living instance and
// returns the intents to execute. openExits reports the passable exit
// directions out of a location. Called once per scheduler pass only.
//
// Postcondition: at most one intent per instance; engaged hostiles always
// prefer attacking over wandering.
func (m *Manager) AdvanceBehavior(src dice.Source, openExits func(locationID string) []string) []Intent {
	m.mu.RLock()
	instances := make([]*Instance, 0, len(m.instances))
	for _, inst := range m.instances {
		instances = append(instances, inst)
	}
	m.mu.RUnlock()

	// Deterministic iteration so a seeded source yields a stable pass.
	sort.Slice(instances, func(a, b int) bool { return instances[a].ID < instances[b].ID })

	var intents []Intent
	for _, inst := range instances {
		if inst.IsDead() {
			continue
		}

		if inst.Template.Hostile {
			if engaged := inst.EngagedClients(); len(engaged) > 0 {
				sort.Strings(engaged)
				target := engaged[src.Intn(len(engaged))]
				intents = append(intents, Intent{
					Kind:      IntentAttack,
					EntityID:  inst.ID,
					TargetUID: target,
				})
				continue
			}
		}

		if inst.Template.Patrol {
			if src.Intn(100) >= patrolChance {
				continue
			}
			dirs := openExits(inst.LocationID)
			if len(dirs) == 0 {
				continue
			}
			intents = append(intents, Intent{
				Kind:      IntentMove,
				EntityID:  inst.ID,
				Direction: dirs[src.Intn(len(dirs))],
			})
		}
	}
	return intents
}
