// Command realmd runs the realm server: it loads configuration and content,
// connects to postgres, seeds the world, and serves the websocket gateway and
// tick scheduler under one lifecycle.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/cory-johannsen/realmd/internal/auth"
	"github.com/cory-johannsen/realmd/internal/config"
	"github.com/cory-johannsen/realmd/internal/core"
	"github.com/cory-johannsen/realmd/internal/game/catalog"
	"github.com/cory-johannsen/realmd/internal/game/dice"
	"github.com/cory-johannsen/realmd/internal/game/entity"
	"github.com/cory-johannsen/realmd/internal/game/inventory"
	"github.com/cory-johannsen/realmd/internal/game/session"
	"github.com/cory-johannsen/realmd/internal/game/world"
	"github.com/cory-johannsen/realmd/internal/gateway"
	"github.com/cory-johannsen/realmd/internal/observability"
	"github.com/cory-johannsen/realmd/internal/server"
	"github.com/cory-johannsen/realmd/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "loading config: %v\n", err)
		os.Exit(1)
	}

	logger, err := observability.NewLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "building logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	catalogs, err := catalog.Load(catalog.Dirs{
		Items:   cfg.Content.Items,
		Spells:  cfg.Content.Spells,
		Skills:  cfg.Content.Skills,
		Classes: cfg.Content.Classes,
		Races:   cfg.Content.Races,
	})
	if err != nil {
		return fmt.Errorf("loading catalogs: %w", err)
	}

	zones, err := world.LoadZonesFromDir(cfg.Content.Zones)
	if err != nil {
		return fmt.Errorf("loading zones: %w", err)
	}
	graph, err := world.NewGraph(zones)
	if err != nil {
		return fmt.Errorf("building world graph: %w", err)
	}
	if err := graph.ValidateExits(); err != nil {
		return fmt.Errorf("validating world graph: %w", err)
	}
	logger.Info("world loaded",
		zap.Int("zones", graph.ZoneCount()),
		zap.Int("locations", graph.LocationCount()))

	templates, err := entity.LoadTemplates(cfg.Content.Entities)
	if err != nil {
		return fmt.Errorf("loading entity templates: %w", err)
	}
	logger.Info("entity templates loaded", zap.Int("templates", len(templates)))

	pool, err := postgres.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()

	accounts := postgres.NewAccountStore(pool)
	players := postgres.NewPlayerStore(pool)

	entities := entity.NewManager(templates)
	sessions := session.NewRegistry(logger)
	floor := inventory.NewFloorManager()
	checker := dice.NewChecker(dice.NewCryptoSource(), logger)

	c := core.New(cfg.Game, logger, graph, entities, sessions, catalogs, floor, checker, players)
	if err := c.SeedSpawns(); err != nil {
		return fmt.Errorf("seeding world spawns: %w", err)
	}

	authSvc := auth.NewService(accounts, players, catalogs, graph, cfg.Game, cfg.Gateway, logger)
	scheduler := core.NewScheduler(c, cfg.Game.TickInterval, logger)
	gw := gateway.NewServer(cfg.Gateway, c, authSvc, logger)

	life := server.NewLifecycle(logger)
	life.Add("scheduler", scheduler)
	life.Add("gateway", gw)
	return life.Run(ctx)
}
