package world

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testZone() *Zone {
	return &Zone{
		ID:            "catacombs",
		Name:          "The Catacombs",
		StartLocation: "antechamber",
		Locations: map[string]*Location{
			"antechamber": {
				ID: "antechamber", ZoneID: "catacombs",
				Title:       "Antechamber",
				Description: "Dust hangs in the torchlight.",
				Exits: []Exit{
					{Direction: North, Target: "ossuary"},
					{Direction: East, Target: "vault", Locked: true, LockDifficulty: 20, LockResetTicks: 10},
					{Direction: Down, Target: "crypt", Hidden: true, PerceptionDifficulty: 15, HideResetTicks: 5},
				},
				Features: []Feature{
					{ID: "fountain", Name: "marble fountain", Effect: FeatureEffectHeal, Magnitude: 10, ResetTicks: 4},
					{ID: "lever", Name: "rusty lever", Effect: FeatureEffectReveal, RevealDirection: Down},
				},
			},
			"ossuary": {
				ID: "ossuary", ZoneID: "catacombs",
				Title:       "Ossuary",
				Description: "Bones line the walls.",
				Exits:       []Exit{{Direction: South, Target: "antechamber"}},
			},
			"vault": {
				ID: "vault", ZoneID: "catacombs",
				Title:       "Sealed Vault",
				Description: "The air is stale.",
			},
			"crypt": {
				ID: "crypt", ZoneID: "catacombs",
				Title:       "Hidden Crypt",
				Description: "Something stirs below.",
			},
		},
	}
}

func newTestGraph(t *testing.T) *Graph {
	t.Helper()
	g, err := NewGraph([]*Zone{testZone()})
	require.NoError(t, err)
	require.NoError(t, g.ValidateExits())
	return g
}

func TestValidateExitsCatchesDanglingCrossZoneTarget(t *testing.T) {
	other := &Zone{
		ID: "sewers", Name: "The Sewers", StartLocation: "outfall",
		Locations: map[string]*Location{
			"outfall": {
				ID: "outfall", ZoneID: "sewers",
				Title:       "Outfall",
				Description: "Green water sluices past.",
				Exits:       []Exit{{Direction: Up, Target: "demolished_gatehouse"}},
			},
		},
	}
	g, err := NewGraph([]*Zone{testZone(), other})
	require.NoError(t, err, "per-zone validation cannot see across zones")

	err = g.ValidateExits()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "demolished_gatehouse")
}

func TestNavigateOpenExit(t *testing.T) {
	g := newTestGraph(t)
	loc, err := g.Navigate("antechamber", North, false)
	require.NoError(t, err)
	assert.Equal(t, "ossuary", loc.ID)
}

func TestNavigateMissingExit(t *testing.T) {
	g := newTestGraph(t)
	_, err := g.Navigate("antechamber", West, false)
	assert.ErrorIs(t, err, ErrNoExit)
}

func TestNavigateLockedExit(t *testing.T) {
	g := newTestGraph(t)
	_, err := g.Navigate("antechamber", East, false)
	assert.ErrorIs(t, err, ErrExitLocked)
}

func TestNavigateHiddenExitBehavesAsAbsent(t *testing.T) {
	g := newTestGraph(t)

	_, err := g.Navigate("antechamber", Down, false)
	assert.ErrorIs(t, err, ErrNoExit)

	// A mover who has discovered the exit passes through.
	loc, err := g.Navigate("antechamber", Down, true)
	require.NoError(t, err)
	assert.Equal(t, "crypt", loc.ID)
}

func TestUnlockExitRelocksAfterResetTicks(t *testing.T) {
	g := newTestGraph(t)
	require.NoError(t, g.UnlockExit("antechamber", East))

	loc, err := g.Navigate("antechamber", East, false)
	require.NoError(t, err)
	assert.Equal(t, "vault", loc.ID)

	// Passable for exactly LockResetTicks passes.
	for i := 0; i < 9; i++ {
		g.TickResets()
		_, err := g.Navigate("antechamber", East, false)
		require.NoError(t, err, "pass %d", i+1)
	}
	g.TickResets()
	_, err = g.Navigate("antechamber", East, false)
	assert.ErrorIs(t, err, ErrExitLocked)
}

func TestUnlockExitRejectsUnlockedExit(t *testing.T) {
	g := newTestGraph(t)
	assert.Error(t, g.UnlockExit("antechamber", North))
}

func TestRevealExitRehidesAfterResetTicks(t *testing.T) {
	g := newTestGraph(t)
	require.NoError(t, g.RevealExit("antechamber", Down))

	// Globally visible: movers without personal discovery pass.
	_, err := g.Navigate("antechamber", Down, false)
	require.NoError(t, err)

	for i := 0; i < 5; i++ {
		g.TickResets()
	}
	_, err = g.Navigate("antechamber", Down, false)
	assert.ErrorIs(t, err, ErrNoExit)
}

func TestMarkFeatureUsedSingleWinner(t *testing.T) {
	g := newTestGraph(t)
	loc, ok := g.GetLocation("antechamber")
	require.True(t, ok)
	fountain, ok := loc.FeatureByID("fountain")
	require.True(t, ok)

	assert.True(t, g.MarkFeatureUsed("antechamber", fountain))
	assert.False(t, g.MarkFeatureUsed("antechamber", fountain))
	assert.True(t, g.IsFeatureUsed("antechamber", "fountain"))

	for i := 0; i < 4; i++ {
		g.TickResets()
	}
	assert.False(t, g.IsFeatureUsed("antechamber", "fountain"))
	assert.True(t, g.MarkFeatureUsed("antechamber", fountain))
}

func TestFeatureWithoutResetStaysUsed(t *testing.T) {
	g := newTestGraph(t)
	loc, _ := g.GetLocation("antechamber")
	lever, ok := loc.FeatureByID("lever")
	require.True(t, ok)

	require.True(t, g.MarkFeatureUsed("antechamber", lever))
	for i := 0; i < 50; i++ {
		g.TickResets()
	}
	assert.True(t, g.IsFeatureUsed("antechamber", "lever"))
}

func TestVisibleExitsRespectsDiscovery(t *testing.T) {
	g := newTestGraph(t)

	exits := g.VisibleExits("antechamber", nil)
	assert.Len(t, exits, 2)

	discovered := map[string]bool{DiscoveryKey("antechamber", Down): true}
	exits = g.VisibleExits("antechamber", discovered)
	assert.Len(t, exits, 3)
}

func TestNearbyLocations(t *testing.T) {
	g := newTestGraph(t)
	nearby := g.NearbyLocations("antechamber", nil)
	// Hidden crypt excluded; locked vault still shown (visible but shut).
	ids := make([]string, 0, len(nearby))
	for _, l := range nearby {
		ids = append(ids, l.ID)
	}
	assert.ElementsMatch(t, []string{"ossuary", "vault"}, ids)
}

func TestNewGraphRejectsDuplicateLocationIDs(t *testing.T) {
	a := testZone()
	b := testZone()
	b.ID = "catacombs_lower"
	_, err := NewGraph([]*Zone{a, b})
	assert.Error(t, err)
}

func TestStartLocation(t *testing.T) {
	g := newTestGraph(t)
	start := g.StartLocation()
	require.NotNil(t, start)
	assert.Equal(t, "antechamber", start.ID)
	assert.Equal(t, 4, g.LocationCount())
	assert.Equal(t, 1, g.ZoneCount())
}
