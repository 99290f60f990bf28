// Package auth turns stored accounts and characters into live sessions: it
// authenticates credentials, loads the character row and inventory, and
// assembles the in-memory session the gateway registers.
package auth

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/cory-johannsen/realmd/internal/config"
	"github.com/cory-johannsen/realmd/internal/game/catalog"
	"github.com/cory-johannsen/realmd/internal/game/session"
	"github.com/cory-johannsen/realmd/internal/game/world"
	"github.com/cory-johannsen/realmd/internal/storage/postgres"
)

// Service performs login and character creation against the storage layer.
type Service struct {
	accounts *postgres.AccountStore
	players  *postgres.PlayerStore
	catalogs *catalog.Registry
	graph    *world.Graph
	game     config.GameConfig
	gateway  config.GatewayConfig
	logger   *zap.Logger
}

// NewService wires the auth service.
//
// Precondition: every argument must be non-nil / validated.
func NewService(
	accounts *postgres.AccountStore,
	players *postgres.PlayerStore,
	catalogs *catalog.Registry,
	graph *world.Graph,
	game config.GameConfig,
	gateway config.GatewayConfig,
	logger *zap.Logger,
) *Service {
	return &Service{
		accounts: accounts,
		players:  players,
		catalogs: catalogs,
		graph:    graph,
		game:     game,
		gateway:  gateway,
		logger:   logger,
	}
}

// Register creates a new player account.
func (s *Service) Register(ctx context.Context, username, password string) (string, error) {
	if username == "" || password == "" {
		return "", fmt.Errorf("username and password must not be empty")
	}
	return s.accounts.Create(ctx, username, password, session.RolePlayer)
}

// CreateCharacter rolls a fresh level-1 character for the account.
//
// Postcondition: the character starts at the world start location with the
// class base vitals and class start stats plus racial modifiers.
func (s *Service) CreateCharacter(ctx context.Context, accountID, name, classID, raceID string) (*postgres.Player, error) {
	cls, ok := s.catalogs.Class(classID)
	if !ok {
		return nil, fmt.Errorf("unknown class %q", classID)
	}
	race, ok := s.catalogs.Race(raceID)
	if !ok {
		return nil, fmt.Errorf("unknown race %q", raceID)
	}
	start := s.graph.StartLocation()
	if start == nil {
		return nil, fmt.Errorf("world has no start location")
	}

	p := &postgres.Player{
		AccountID:  accountID,
		Name:       name,
		ClassID:    cls.ID,
		RaceID:     race.ID,
		LocationID: start.ID,
		Level:      1,
		HP:         cls.BaseHP,
		MaxHP:      cls.BaseHP,
		MP:         cls.BaseMP,
		MaxMP:      cls.BaseMP,
		Stats:      cls.StartStats.Plus(race.StatMods),
	}
	if err := s.players.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("character created",
		zap.String("uid", p.ID),
		zap.String("name", name),
		zap.String("class", classID),
		zap.String("race", raceID))
	return p, nil
}

// Login authenticates the account and assembles the character's session.
//
// Postcondition: the returned session is fully hydrated (stats, vitals,
// backpack, equipment) but not yet registered; the gateway registers it.
func (s *Service) Login(ctx context.Context, username, password, character string) (*session.Session, error) {
	acct, err := s.accounts.Authenticate(ctx, username, password)
	if err != nil {
		return nil, err
	}
	player, err := s.players.Load(ctx, acct.ID, character)
	if err != nil {
		return nil, err
	}
	return s.buildSession(acct, player)
}

// buildSession hydrates a Session from the persisted character row.
func (s *Service) buildSession(acct *postgres.Account, player *postgres.Player) (*session.Session, error) {
	cls, ok := s.catalogs.Class(player.ClassID)
	if !ok {
		return nil, fmt.Errorf("player %q references unknown class %q", player.Name, player.ClassID)
	}
	race, ok := s.catalogs.Race(player.RaceID)
	if !ok {
		return nil, fmt.Errorf("player %q references unknown race %q", player.Name, player.RaceID)
	}

	locationID := player.LocationID
	if _, ok := s.graph.GetLocation(locationID); !ok {
		// The saved location no longer exists in the authored world.
		start := s.graph.StartLocation()
		if start == nil {
			return nil, fmt.Errorf("world has no start location")
		}
		s.logger.Warn("saved location gone, sending player to start",
			zap.String("uid", player.ID),
			zap.String("location", locationID))
		locationID = start.ID
	}

	sess := session.New(session.Params{
		UID:        player.ID,
		Name:       player.Name,
		Role:       acct.Role,
		Class:      cls,
		Race:       race,
		LocationID: locationID,
		Stats:      player.Stats,
		Level:      player.Level,
		XP:         player.XP,
		Currency:   player.Currency,
		HP:         player.HP, MaxHP: player.MaxHP,
		MP: player.MP, MaxMP: player.MaxMP,
		OutboxSize:     s.gateway.OutboxSize,
		BackpackSlots:  s.game.BackpackSlots,
		BackpackWeight: s.game.BackpackWeight,
	})

	for _, rec := range player.Items {
		item, ok := s.catalogs.Item(rec.ItemID)
		if !ok {
			s.logger.Warn("inventory references unknown item",
				zap.String("uid", player.ID),
				zap.String("item", rec.ItemID))
			continue
		}
		if rec.Slot != "" {
			if _, err := sess.Equipment.Equip(item); err != nil {
				s.logger.Warn("restoring equipped item", zap.String("uid", player.ID), zap.Error(err))
			}
			continue
		}
		if err := sess.Backpack.Add(item, rec.Quantity); err != nil {
			s.logger.Warn("restoring carried item", zap.String("uid", player.ID), zap.Error(err))
		}
	}
	return sess, nil
}
