package core

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/realmd/internal/config"
	"github.com/cory-johannsen/realmd/internal/game/catalog"
	"github.com/cory-johannsen/realmd/internal/game/dice"
	"github.com/cory-johannsen/realmd/internal/game/effect"
	"github.com/cory-johannsen/realmd/internal/game/entity"
	"github.com/cory-johannsen/realmd/internal/game/inventory"
	"github.com/cory-johannsen/realmd/internal/game/loot"
	"github.com/cory-johannsen/realmd/internal/game/protocol"
	"github.com/cory-johannsen/realmd/internal/game/session"
	"github.com/cory-johannsen/realmd/internal/game/world"
)

// scriptedSource replays a fixed roll sequence, wrapping around when it runs
// out. A scripted value v produces a d20 roll of v+1.
type scriptedSource struct {
	mu    sync.Mutex
	rolls []int
	i     int
}

func (s *scriptedSource) Intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.rolls) == 0 {
		return 0
	}
	v := s.rolls[s.i%len(s.rolls)]
	s.i++
	if v >= n {
		v = n - 1
	}
	return v
}

// panicSource blows up on first use; the tick pass must survive it.
type panicSource struct{}

func (panicSource) Intn(int) int { panic("scripted roll failure") }

func testCatalogs() *catalog.Registry {
	r := catalog.NewRegistry()
	r.RegisterItem(&catalog.Item{
		ID: "potion", Name: "healing draught", Kind: catalog.ItemKindConsumable,
		Effect: catalog.ItemEffectHeal, Magnitude: 10,
		Value: 10, Weight: 0.5, Stackable: true, MaxStack: 5,
	})
	r.RegisterItem(&catalog.Item{
		ID: "dagger", Name: "iron dagger", Kind: catalog.ItemKindGear,
		Slot: catalog.SlotWeapon, Value: 10, Weight: 1, MaxStack: 1,
		Bonuses: catalog.Stats{Might: 1},
	})
	r.RegisterSkill(&catalog.Skill{
		ID: "strike", Name: "Heavy Strike", Kind: catalog.SkillKindStrike,
		Stat: catalog.StatMight, CooldownTicks: 2, DamageBase: 2,
	})
	r.RegisterClass(testClass())
	r.RegisterRace(&catalog.Race{ID: "human", Name: "Human"})
	return r
}

func testClass() *catalog.Class {
	return &catalog.Class{
		ID: "warrior", Name: "Warrior",
		BaseHP: 20, BaseMP: 10, HPPerLevel: 5, MPPerLevel: 2,
		Skills:            []string{"strike"},
		VitalityThreshold: 12, ThresholdBonusHP: 5,
	}
}

func testZone() *world.Zone {
	return &world.Zone{
		ID: "vale", Name: "The Vale", StartLocation: "town",
		Locations: map[string]*world.Location{
			"town": {
				ID: "town", ZoneID: "vale", Title: "Town Square",
				Description: "A quiet cobbled square.",
				Exits: []world.Exit{
					{Direction: world.North, Target: "cave"},
					{Direction: world.East, Target: "vault", Locked: true, LockDifficulty: 20, LockResetTicks: 10},
				},
			},
			"cave": {
				ID: "cave", ZoneID: "vale", Title: "Dripping Cave",
				Description: "Water beads on the stone.",
				Exits:       []world.Exit{{Direction: world.South, Target: "town"}},
			},
			"vault": {
				ID: "vault", ZoneID: "vale", Title: "Old Vault",
				Description: "Dust and empty shelves.",
				Exits:       []world.Exit{{Direction: world.West, Target: "town"}},
			},
		},
	}
}

func testTemplates() map[string]*entity.Template {
	return map[string]*entity.Template{
		"goblin": {
			ID: "goblin", Name: "goblin", Level: 1, MaxHP: 10,
			Accuracy: 2, Defense: 10, Evasion: 2, Perception: 2,
			Hostile: true, XPReward: 25, DamageBase: 2, RespawnTicks: 3,
			Loot: &loot.Table{
				Coins: loot.CoinRange{Min: 5, Max: 5},
				Items: []loot.Drop{{ItemID: "dagger", Chance: 100, MinQty: 1, MaxQty: 1}},
			},
		},
		"shopkeep": {
			ID: "shopkeep", Name: "shopkeep", Level: 1, MaxHP: 10,
			Defense: 10, Role: entity.RoleVendor, Wares: []string{"potion", "dagger"},
		},
		"drillmaster": {
			ID: "drillmaster", Name: "drillmaster", Level: 5, MaxHP: 20,
			Defense: 10, Role: entity.RoleTrainer,
		},
	}
}

type fixture struct {
	core     *Core
	src      dice.Source
	graph    *world.Graph
	entities *entity.Manager
	sessions *session.Registry
	catalogs *catalog.Registry
	floor    *inventory.FloorManager
}

func newFixture(t *testing.T, src dice.Source) *fixture {
	t.Helper()
	graph, err := world.NewGraph([]*world.Zone{testZone()})
	require.NoError(t, err)

	logger := zap.NewNop()
	f := &fixture{
		src:      src,
		graph:    graph,
		entities: entity.NewManager(testTemplates()),
		sessions: session.NewRegistry(logger),
		catalogs: testCatalogs(),
		floor:    inventory.NewFloorManager(),
	}
	cfg := config.GameConfig{RestRegenHP: 3, MeditateRegenMP: 4, BackpackSlots: 10, BackpackWeight: 50}
	f.core = New(cfg, logger, f.graph, f.entities, f.sessions, f.catalogs, f.floor, dice.NewChecker(src, logger), nil)
	return f
}

func (f *fixture) addPlayer(t *testing.T, uid, name string) *session.Session {
	t.Helper()
	cls := testClass()
	sess := session.New(session.Params{
		UID: uid, Name: name, Role: session.RolePlayer,
		Class: cls, Race: &catalog.Race{ID: "human", Name: "Human"},
		LocationID: "town",
		Stats:      catalog.Stats{Might: 5, Agility: 5, Vitality: 12, Intellect: 3, Perception: 4},
		Level:      1, Currency: 100,
		HP: cls.BaseHP, MaxHP: cls.BaseHP, MP: cls.BaseMP, MaxMP: cls.BaseMP,
		OutboxSize: 128, BackpackSlots: 10, BackpackWeight: 50,
	})
	require.NoError(t, f.sessions.Add(sess))
	return sess
}

// drain empties the session's outbox without blocking.
func drain(sess *session.Session) []protocol.Event {
	var out []protocol.Event
	for {
		select {
		case ev, ok := <-sess.Outbox.Events():
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func effectDot(name string, magnitude, ticks int) effect.Active {
	return effect.Active{Name: name, Kind: effect.KindDamageOverTime, Magnitude: magnitude, Remaining: ticks}
}

// lastResult returns the final ResultEvent among evs.
func lastResult(t *testing.T, evs []protocol.Event) protocol.ResultEvent {
	t.Helper()
	var res protocol.ResultEvent
	found := false
	for _, ev := range evs {
		if r, ok := ev.(protocol.ResultEvent); ok {
			res = r
			found = true
		}
	}
	require.True(t, found, "expected at least one result event")
	return res
}

// failingStore rejects every write. Handlers that persist synchronously must
// not report success over it.
type failingStore struct{}

func (failingStore) SaveState(context.Context, PlayerSnapshot) error {
	return errors.New("connection refused")
}

func (failingStore) SaveInventory(context.Context, string, []ItemRecord) error {
	return errors.New("connection refused")
}

func TestSyncPersistFailureSurfacesToPlayer(t *testing.T) {
	t.Run("buy", func(t *testing.T) {
		f := newFixture(t, &scriptedSource{})
		f.core.store = failingStore{}
		sess := f.addPlayer(t, "p1", "Alia")
		_, err := f.entities.Spawn("shopkeep", "town")
		require.NoError(t, err)

		f.core.handleBuy(sess, "potion", 1)

		res := lastResult(t, drain(sess))
		assert.False(t, res.OK, "a purchase the database lost must not read as a success")
	})

	t.Run("level up", func(t *testing.T) {
		f := newFixture(t, &scriptedSource{})
		f.core.store = failingStore{}
		sess := f.addPlayer(t, "p1", "Alia")
		_, err := f.entities.Spawn("drillmaster", "town")
		require.NoError(t, err)
		sess.AddXP(100)

		f.core.handleLevelUp(sess)

		res := lastResult(t, drain(sess))
		assert.False(t, res.OK)
	})
}

func TestBuySellRoundTripIsLossy(t *testing.T) {
	f := newFixture(t, &scriptedSource{})
	sess := f.addPlayer(t, "p1", "Alia")
	_, err := f.entities.Spawn("shopkeep", "town")
	require.NoError(t, err)

	f.core.handleBuy(sess, "potion", 1)
	require.Equal(t, 90, sess.Currency())
	require.Equal(t, 1, sess.Backpack.Count("potion"))

	f.core.handleSell(sess, "potion", 1)
	assert.Equal(t, 95, sess.Currency(), "sell pays half the buy price")
	assert.Less(t, sess.Currency(), 100, "a buy/sell round trip must lose coins")
	assert.Zero(t, sess.Backpack.Count("potion"))
}

func TestBuyRefundsWhenBackpackFull(t *testing.T) {
	f := newFixture(t, &scriptedSource{})
	sess := f.addPlayer(t, "p1", "Alia")
	_, err := f.entities.Spawn("shopkeep", "town")
	require.NoError(t, err)

	// Fill every slot with unstackable daggers.
	dagger, _ := f.catalogs.Item("dagger")
	for i := 0; i < 10; i++ {
		require.NoError(t, sess.Backpack.Add(dagger, 1))
	}

	f.core.handleBuy(sess, "potion", 1)
	res := lastResult(t, drain(sess))
	assert.False(t, res.OK)
	assert.Equal(t, 100, sess.Currency(), "failed purchase must refund in full")
}

func TestUseHealConsumableIsCapped(t *testing.T) {
	f := newFixture(t, &scriptedSource{})
	sess := f.addPlayer(t, "p1", "Alia")
	potion, _ := f.catalogs.Item("potion")
	require.NoError(t, sess.Backpack.Add(potion, 2))

	sess.Damage(3) // 17/20, magnitude 10 would overshoot
	f.core.handleUse(sess, "potion")

	hp, maxHP, _, _ := sess.Vitals()
	assert.Equal(t, maxHP, hp, "healing never exceeds the maximum")
	assert.Equal(t, 1, sess.Backpack.Count("potion"))
}

func TestHideWhileEngagedIsRejected(t *testing.T) {
	// Roll 1 on every die: the opening swing misses but still engages.
	f := newFixture(t, &scriptedSource{rolls: []int{0}})
	sess := f.addPlayer(t, "p1", "Alia")
	_, err := f.entities.Spawn("goblin", "town")
	require.NoError(t, err)

	f.core.handleAttack(sess, "goblin")
	require.Equal(t, session.ActivityEngaged, sess.Activity())
	drain(sess)

	f.core.handleHide(sess)
	res := lastResult(t, drain(sess))
	assert.False(t, res.OK)
	assert.Equal(t, session.ActivityEngaged, sess.Activity())
}

func TestPickLockOpensAndRelocks(t *testing.T) {
	// agility 5 + level/2 (0) + roll 15 = 20, exactly the difficulty.
	f := newFixture(t, &scriptedSource{rolls: []int{14}})
	sess := f.addPlayer(t, "p1", "Alia")

	f.core.handleMove(sess, "east")
	res := lastResult(t, drain(sess))
	require.False(t, res.OK, "the vault starts locked")

	f.core.handlePickLock(sess, "east")
	res = lastResult(t, drain(sess))
	require.True(t, res.OK, "total 20 meets difficulty 20")

	f.core.handleMove(sess, "east")
	require.Equal(t, "vault", sess.Location())
	f.core.handleMove(sess, "west")
	require.Equal(t, "town", sess.Location())
	drain(sess)

	// The unlock holds for 10 passes, then the lock snaps back.
	for i := 0; i < 9; i++ {
		f.core.RunTickPass()
		assert.False(t, f.graph.IsExitLocked("town", world.East), "pass %d", i+1)
	}
	f.core.RunTickPass()
	assert.True(t, f.graph.IsExitLocked("town", world.East))

	drain(sess)
	f.core.handleMove(sess, "east")
	res = lastResult(t, drain(sess))
	assert.False(t, res.OK)
	assert.Equal(t, "town", sess.Location())
}

func TestKillCreditIsExclusive(t *testing.T) {
	f := newFixture(t, &scriptedSource{})
	a := f.addPlayer(t, "p1", "Alia")
	b := f.addPlayer(t, "p2", "Bram")

	inst, err := f.entities.Spawn("goblin", "town")
	require.NoError(t, err)
	inst.Damage(inst.MaxHP())

	// Both attackers race to resolve the same corpse.
	var wg sync.WaitGroup
	for _, sess := range []*session.Session{a, b} {
		wg.Add(1)
		go func(s *session.Session) {
			defer wg.Done()
			f.core.resolveKill(s, inst)
		}(sess)
	}
	wg.Wait()

	assert.Equal(t, 25, a.XP()+b.XP(), "exactly one killer is credited")
	_, coins := f.floor.Contents("town")
	assert.Equal(t, 5, coins, "loot drops exactly once")
	assert.Equal(t, 1, f.entities.PendingRespawns())
	assert.Empty(t, f.entities.LivingHostilesInLocation("town"))
}

func TestTickPassSurvivesPanickingRoll(t *testing.T) {
	f := newFixture(t, panicSource{})
	sess := f.addPlayer(t, "p1", "Alia")

	inst, err := f.entities.Spawn("goblin", "town")
	require.NoError(t, err)
	require.NoError(t, sess.SetPending(session.PendingSkill{SkillID: "strike", TargetID: inst.ID}))

	f.entities.ScheduleRespawn("goblin", "cave", 1)

	// The queued skill's check panics; the pass must still finish and spawn
	// the due respawn.
	require.NotPanics(t, func() { f.core.RunTickPass() })
	assert.Equal(t, 1, f.entities.LivingCountByTemplate("cave", "goblin"))
	assert.Zero(t, f.entities.PendingRespawns())
}

func TestRestActivatesNextPassAndRegenerates(t *testing.T) {
	f := newFixture(t, &scriptedSource{})
	sess := f.addPlayer(t, "p1", "Alia")
	sess.Damage(10) // 10/20

	f.core.handleRest(sess)
	require.Equal(t, session.ActivityIdle, sess.Activity(), "rest activates on the pass, not at arrival")

	f.core.RunTickPass()
	require.Equal(t, session.ActivityResting, sess.Activity())
	hp, _, _, _ := sess.Vitals()
	assert.Equal(t, 13, hp, "the activating pass already regenerates")

	f.core.RunTickPass()
	hp, _, _, _ = sess.Vitals()
	assert.Equal(t, 16, hp)

	// Cancellation is immediate.
	f.core.handleRest(sess)
	assert.Equal(t, session.ActivityIdle, sess.Activity())
}

func TestQueuedSkillResolvesOnPassWithCooldown(t *testing.T) {
	// First roll 20 (hit hard), later rolls irrelevant.
	f := newFixture(t, &scriptedSource{rolls: []int{19}})
	sess := f.addPlayer(t, "p1", "Alia")
	inst, err := f.entities.Spawn("goblin", "town")
	require.NoError(t, err)

	f.core.handleSkill(sess, "strike", "goblin")
	res := lastResult(t, drain(sess))
	require.True(t, res.OK)
	require.Equal(t, 10, inst.CurrentHP(), "nothing lands before the pass")

	f.core.RunTickPass()
	assert.Less(t, inst.CurrentHP(), 10)
	assert.Positive(t, sess.Cooldown("strike"))

	drain(sess)
	f.core.handleSkill(sess, "strike", "goblin")
	res = lastResult(t, drain(sess))
	assert.False(t, res.OK, "the skill is on cooldown")
}

func TestFirstLevelUpVitalityBonusIsOrderDependent(t *testing.T) {
	t.Run("threshold met at first level-up", func(t *testing.T) {
		f := newFixture(t, &scriptedSource{})
		sess := f.addPlayer(t, "p1", "Alia") // vitality 12 == threshold
		_, err := f.entities.Spawn("drillmaster", "town")
		require.NoError(t, err)

		sess.AddXP(catalog.XPForLevel(2))
		f.core.handleLevelUp(sess)

		require.Equal(t, 2, sess.Level())
		_, maxHP, _, _ := sess.Vitals()
		assert.Equal(t, 20+5+5, maxHP, "per-level gain plus the one-time bonus")
	})

	t.Run("threshold reached after first level-up grants nothing", func(t *testing.T) {
		f := newFixture(t, &scriptedSource{})
		sess := f.addPlayer(t, "p1", "Alia")
		require.NoError(t, sess.AdjustStat(catalog.StatVitality, -1)) // 11, below threshold
		_, err := f.entities.Spawn("drillmaster", "town")
		require.NoError(t, err)

		sess.AddXP(catalog.XPForLevel(2))
		f.core.handleLevelUp(sess)
		require.Equal(t, 2, sess.Level())
		_, maxHP, _, _ := sess.Vitals()
		require.Equal(t, 25, maxHP, "no bonus below the threshold")

		// Training past the threshold later changes nothing on future level-ups.
		require.NoError(t, sess.AdjustStat(catalog.StatVitality, 1))
		sess.AddXP(catalog.XPForLevel(3))
		f.core.handleLevelUp(sess)
		require.Equal(t, 3, sess.Level())
		_, maxHP, _, _ = sess.Vitals()
		assert.Equal(t, 30, maxHP, "only the per-level gain applies")
	})
}

func TestDamageOverTimeKillsEntityAndSchedulesRespawn(t *testing.T) {
	f := newFixture(t, &scriptedSource{})
	f.addPlayer(t, "p1", "Alia")
	inst, err := f.entities.Spawn("goblin", "town")
	require.NoError(t, err)

	inst.ApplyEffect(effectDot("withering", 10, 2))
	f.core.RunTickPass()

	assert.Empty(t, f.entities.LivingHostilesInLocation("town"))
	assert.Equal(t, 1, f.entities.PendingRespawns())

	for i := 0; i < 3; i++ {
		f.core.RunTickPass()
	}
	assert.Equal(t, 1, f.entities.LivingCountByTemplate("town", "goblin"))
}

func TestPlayerDeathRespawnsAtStart(t *testing.T) {
	f := newFixture(t, &scriptedSource{})
	sess := f.addPlayer(t, "p1", "Alia")
	f.core.handleMove(sess, "north")
	require.Equal(t, "cave", sess.Location())

	sess.ApplyEffect(effectDot("venom", 50, 3))
	f.core.RunTickPass()

	assert.Equal(t, "town", sess.Location(), "death returns the player to the start location")
	hp, maxHP, _, _ := sess.Vitals()
	assert.Equal(t, maxHP, hp)
	assert.Empty(t, sess.EffectSnapshot(), "death wipes active effects")
	assert.Equal(t, session.ActivityIdle, sess.Activity())
}

func TestFeatureFiresForExactlyOneUser(t *testing.T) {
	f := newFixture(t, &scriptedSource{})
	loc, ok := f.graph.GetLocation("town")
	require.True(t, ok)
	loc.Features = []world.Feature{{
		ID: "fountain", Name: "fountain", Effect: world.FeatureEffectHeal,
		Magnitude: 5, ResetTicks: 2,
	}}

	a := f.addPlayer(t, "p1", "Alia")
	b := f.addPlayer(t, "p2", "Bram")
	a.Damage(5)
	b.Damage(5)

	f.core.handleInteract(a, "fountain")
	f.core.handleInteract(b, "fountain")

	resA := lastResult(t, drain(a))
	resB := lastResult(t, drain(b))
	assert.True(t, resA.OK)
	assert.False(t, resB.OK, "a spent feature does nothing until it resets")

	f.core.RunTickPass()
	f.core.RunTickPass()
	drain(b)
	f.core.handleInteract(b, "fountain")
	resB = lastResult(t, drain(b))
	assert.True(t, resB.OK, "the reset counter restores the feature")
}

func TestHiddenMoveIsSilent(t *testing.T) {
	// High rolls: the hide check succeeds and no observer spots it.
	f := newFixture(t, &scriptedSource{rolls: []int{19, 0}})
	mover := f.addPlayer(t, "p1", "Alia")
	watcher := f.addPlayer(t, "p2", "Bram")

	f.core.handleHide(mover)
	require.True(t, mover.IsHidden())
	drain(watcher)

	f.core.handleMove(mover, "north")
	require.Equal(t, "cave", mover.Location())

	for _, ev := range drain(watcher) {
		_, isMove := ev.(protocol.MoveEvent)
		assert.False(t, isMove, "sneaking emits no departure broadcast")
	}
	assert.NotContains(t, f.sessions.VisibleNamesInLocation("cave", ""), "Alia")
}
