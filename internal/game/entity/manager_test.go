package entity

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func testTemplates() map[string]*Template {
	return map[string]*Template{
		"bog_rat": {
			ID: "bog_rat", Name: "bog rat", Level: 1, MaxHP: 8,
			Defense: 10, Hostile: true, DamageBase: 2, XPReward: 15,
			Patrol: true, RespawnTicks: 6,
		},
		"quartermaster": {
			ID: "quartermaster", Name: "quartermaster", Level: 5, MaxHP: 40,
			Defense: 12, Role: RoleVendor, Wares: []string{"iron_sword"},
		},
		"drill_sergeant": {
			ID: "drill_sergeant", Name: "drill sergeant", Level: 10, MaxHP: 60,
			Defense: 14, Role: RoleTrainer,
		},
	}
}

func TestSpawnAndLocationIndex(t *testing.T) {
	m := NewManager(testTemplates())
	rat, err := m.Spawn("bog_rat", "causeway")
	require.NoError(t, err)
	assert.Equal(t, 8, rat.CurrentHP())
	assert.Equal(t, "causeway", rat.LocationID)

	got, ok := m.Get(rat.ID)
	require.True(t, ok)
	assert.Same(t, rat, got)

	assert.Len(t, m.EntitiesInLocation("causeway"), 1)
	assert.Empty(t, m.EntitiesInLocation("hollow"))

	_, err = m.Spawn("dire_wolf", "causeway")
	assert.Error(t, err)
}

func TestMoveUpdatesIndex(t *testing.T) {
	m := NewManager(testTemplates())
	rat, err := m.Spawn("bog_rat", "causeway")
	require.NoError(t, err)

	require.NoError(t, m.Move(rat.ID, "hollow"))
	assert.Empty(t, m.EntitiesInLocation("causeway"))
	assert.Len(t, m.EntitiesInLocation("hollow"), 1)
	assert.Equal(t, "hollow", rat.LocationID)
}

func TestLivingHostilesExcludesDeadAndVendors(t *testing.T) {
	m := NewManager(testTemplates())
	rat, _ := m.Spawn("bog_rat", "causeway")
	m.Spawn("quartermaster", "causeway")

	assert.Len(t, m.LivingHostilesInLocation("causeway"), 1)

	require.True(t, rat.MarkDead())
	assert.Empty(t, m.LivingHostilesInLocation("causeway"))
}

func TestRoleLookups(t *testing.T) {
	m := NewManager(testTemplates())
	m.Spawn("quartermaster", "keep")
	m.Spawn("drill_sergeant", "keep")

	vendor := m.VendorInLocation("keep")
	require.NotNil(t, vendor)
	assert.Equal(t, "quartermaster", vendor.TemplateID)

	trainer := m.TrainerInLocation("keep")
	require.NotNil(t, trainer)
	assert.Equal(t, "drill_sergeant", trainer.TemplateID)

	assert.Nil(t, m.VendorInLocation("causeway"))
}

func TestFindInLocationPrefix(t *testing.T) {
	m := NewManager(testTemplates())
	rat, _ := m.Spawn("bog_rat", "causeway")

	assert.Same(t, rat, m.FindInLocation("causeway", "BOG"))
	assert.Same(t, rat, m.FindInLocation("causeway", "bog rat"))
	assert.Nil(t, m.FindInLocation("causeway", "wolf"))

	rat.MarkDead()
	assert.Nil(t, m.FindInLocation("causeway", "bog"))
}

func TestDamageHealClamping(t *testing.T) {
	m := NewManager(testTemplates())
	rat, _ := m.Spawn("bog_rat", "causeway")

	assert.Equal(t, 3, rat.Damage(5))
	assert.Equal(t, 0, rat.Damage(100))
	assert.Equal(t, 8, rat.Heal(100))
}

func TestHPClampProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		tmpl := &Template{ID: "x", Name: "x", Level: 1, MaxHP: rapid.IntRange(1, 100).Draw(t, "max"), Defense: 10}
		inst := NewInstance("i", tmpl, "loc")
		ops := rapid.SliceOf(rapid.IntRange(-50, 50)).Draw(t, "ops")
		for _, op := range ops {
			if op >= 0 {
				inst.Damage(op)
			} else {
				inst.Heal(-op)
			}
			hp := inst.CurrentHP()
			if hp < 0 || hp > tmpl.MaxHP {
				t.Fatalf("hp %d outside [0,%d]", hp, tmpl.MaxHP)
			}
		}
	})
}

func TestMarkDeadExactlyOnce(t *testing.T) {
	m := NewManager(testTemplates())
	rat, _ := m.Spawn("bog_rat", "causeway")

	const killers = 32
	var wg sync.WaitGroup
	wins := make([]bool, killers)
	for i := 0; i < killers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			wins[i] = rat.MarkDead()
		}(i)
	}
	wg.Wait()

	winners := 0
	for _, w := range wins {
		if w {
			winners++
		}
	}
	assert.Equal(t, 1, winners, "death transition must have exactly one winner")
	assert.True(t, rat.IsDead())
}

func TestEngagementBookkeeping(t *testing.T) {
	m := NewManager(testTemplates())
	rat, _ := m.Spawn("bog_rat", "causeway")

	rat.Engage("uid-1")
	rat.Engage("uid-2")
	assert.True(t, rat.EngagedWith("uid-1"))
	assert.ElementsMatch(t, []string{"uid-1", "uid-2"}, rat.EngagedClients())

	rat.Disengage("uid-1")
	assert.False(t, rat.EngagedWith("uid-1"))
	assert.Len(t, rat.EngagedClients(), 1)
}

func TestRemove(t *testing.T) {
	m := NewManager(testTemplates())
	rat, _ := m.Spawn("bog_rat", "causeway")

	require.NoError(t, m.Remove(rat.ID))
	assert.Empty(t, m.EntitiesInLocation("causeway"))
	assert.Error(t, m.Remove(rat.ID))
}

func TestRespawnQueueCountsDownInPasses(t *testing.T) {
	m := NewManager(testTemplates())
	m.ScheduleRespawn("bog_rat", "causeway", 3)
	m.ScheduleRespawn("bog_rat", "hollow", 1)
	assert.Equal(t, 2, m.PendingRespawns())

	due := m.TickRespawns()
	require.Len(t, due, 1)
	assert.Equal(t, "hollow", due[0].LocationID)

	assert.Empty(t, m.TickRespawns())
	due = m.TickRespawns()
	require.Len(t, due, 1)
	assert.Equal(t, "causeway", due[0].LocationID)
	assert.Equal(t, 0, m.PendingRespawns())
}

func TestScheduleRespawnZeroTicksIsNoOp(t *testing.T) {
	m := NewManager(testTemplates())
	m.ScheduleRespawn("bog_rat", "causeway", 0)
	assert.Equal(t, 0, m.PendingRespawns())
}
