package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cory-johannsen/realmd/internal/config"
	"github.com/cory-johannsen/realmd/internal/core"
	"github.com/cory-johannsen/realmd/internal/game/catalog"
	"github.com/cory-johannsen/realmd/internal/game/world"
	"github.com/cory-johannsen/realmd/internal/storage/postgres"
	"github.com/cory-johannsen/realmd/internal/testutil"
)

func testCatalogs() *catalog.Registry {
	reg := catalog.NewRegistry()
	reg.RegisterClass(&catalog.Class{
		ID: "warrior", Name: "Warrior",
		BaseHP: 20, BaseMP: 10, HPPerLevel: 5, MPPerLevel: 2,
		StartStats: catalog.Stats{Might: 6, Agility: 4, Vitality: 12, Intellect: 2, Perception: 3},
	})
	reg.RegisterRace(&catalog.Race{
		ID: "dwarf", Name: "Dwarf",
		StatMods: catalog.Stats{Might: 1, Vitality: 2, Agility: -1},
	})
	reg.RegisterItem(&catalog.Item{
		ID: "iron_helm", Name: "iron helm", Kind: "gear", Slot: "head",
		Weight: 3, Value: 12,
	})
	return reg
}

func testGraph(t *testing.T) *world.Graph {
	t.Helper()
	zone := &world.Zone{
		ID: "harborwick", Name: "Harborwick", StartLocation: "quay",
		Locations: map[string]*world.Location{
			"quay": {
				ID: "quay", ZoneID: "harborwick",
				Title: "The Quay", Description: "Gulls wheel over the moorings.",
			},
		},
	}
	g, err := world.NewGraph([]*world.Zone{zone})
	require.NoError(t, err)
	return g
}

func newTestService(t *testing.T) (*Service, *postgres.AccountStore, *postgres.PlayerStore) {
	t.Helper()
	pool := testutil.StartPostgres(t)
	accounts := postgres.NewAccountStore(pool)
	players := postgres.NewPlayerStore(pool)
	svc := NewService(accounts, players, testCatalogs(), testGraph(t),
		config.GameConfig{BackpackSlots: 10, BackpackWeight: 50},
		config.GatewayConfig{OutboxSize: 16},
		zap.NewNop())
	return svc, accounts, players
}

func TestRegisterCreateAndLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	acctID, err := svc.Register(ctx, "merel", "tidewater")
	require.NoError(t, err)
	require.NotEmpty(t, acctID)

	p, err := svc.CreateCharacter(ctx, acctID, "Merel", "warrior", "dwarf")
	require.NoError(t, err)
	assert.Equal(t, "quay", p.LocationID)
	assert.Equal(t, 1, p.Level)
	assert.Equal(t, 20, p.HP)
	assert.Equal(t, 10, p.MP)
	// Class start stats plus racial modifiers.
	assert.Equal(t, catalog.Stats{Might: 7, Agility: 3, Vitality: 14, Intellect: 2, Perception: 3}, p.Stats)

	sess, err := svc.Login(ctx, "merel", "tidewater", "Merel")
	require.NoError(t, err)
	assert.Equal(t, p.ID, sess.UID)
	assert.Equal(t, "Merel", sess.Name)
	assert.Equal(t, "player", sess.Role)
	assert.Equal(t, "quay", sess.Location())
	assert.Equal(t, 1, sess.Level())
	hp, maxHP, mp, maxMP := sess.Vitals()
	assert.Equal(t, []int{20, 20, 10, 10}, []int{hp, maxHP, mp, maxMP})
}

func TestRegisterRejectsDuplicateUsername(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, "tamsin", "gullfeather")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "tamsin", "other")
	assert.ErrorIs(t, err, postgres.ErrDuplicateName)

	_, err = svc.Register(ctx, "", "gullfeather")
	assert.Error(t, err)
}

func TestCreateCharacterRejectsUnknownCatalogIDs(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	acctID, err := svc.Register(ctx, "osric", "lamplight")
	require.NoError(t, err)

	_, err = svc.CreateCharacter(ctx, acctID, "Osric", "necromancer", "dwarf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown class")

	_, err = svc.CreateCharacter(ctx, acctID, "Osric", "warrior", "selkie")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown race")
}

func TestLoginRestoresEquippedItems(t *testing.T) {
	svc, _, players := newTestService(t)
	ctx := context.Background()

	acctID, err := svc.Register(ctx, "brannoc", "saltmarsh")
	require.NoError(t, err)
	p, err := svc.CreateCharacter(ctx, acctID, "Brannoc", "warrior", "dwarf")
	require.NoError(t, err)

	require.NoError(t, players.SaveInventory(ctx, p.ID, []core.ItemRecord{
		{ItemID: "iron_helm", Quantity: 1, Slot: "head"},
	}))

	sess, err := svc.Login(ctx, "brannoc", "saltmarsh", "Brannoc")
	require.NoError(t, err)
	helm := sess.Equipment.InSlot("head")
	require.NotNil(t, helm)
	assert.Equal(t, "iron_helm", helm.ID)
	assert.Equal(t, 0, sess.Backpack.Count("iron_helm"))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	acctID, err := svc.Register(ctx, "yvaine", "moonwrack")
	require.NoError(t, err)
	_, err = svc.CreateCharacter(ctx, acctID, "Yvaine", "warrior", "dwarf")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "yvaine", "wrong", "Yvaine")
	assert.ErrorIs(t, err, postgres.ErrInvalidCredentials)

	_, err = svc.Login(ctx, "nobody", "moonwrack", "Yvaine")
	assert.ErrorIs(t, err, postgres.ErrAccountNotFound)
}
