// Command realmctl administers accounts and characters from the shell:
// registering accounts, rolling characters, and changing account roles.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/realmd/internal/auth"
	"github.com/cory-johannsen/realmd/internal/config"
	"github.com/cory-johannsen/realmd/internal/game/catalog"
	"github.com/cory-johannsen/realmd/internal/game/session"
	"github.com/cory-johannsen/realmd/internal/game/world"
	"github.com/cory-johannsen/realmd/internal/storage/postgres"
)

const usage = `usage: realmctl [-config path] <command> [args]

commands:
  register <username> <password>                       create an account
  create   <username> <password> <name> <class> <race> create a character
  setrole  <username> <player|admin>                   change an account's role
`

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to the configuration file")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	if err := run(*configPath, flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "realmctl: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, command string, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := zap.NewNop()
	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer pool.Close()
	accounts := postgres.NewAccountStore(pool)

	switch command {
	case "register":
		if len(args) != 2 {
			return fmt.Errorf("register needs <username> <password>")
		}
		svc, err := authService(cfg, accounts, pool, logger)
		if err != nil {
			return err
		}
		id, err := svc.Register(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		fmt.Printf("account %s registered (%s)\n", args[0], id)
		return nil

	case "create":
		if len(args) != 5 {
			return fmt.Errorf("create needs <username> <password> <name> <class> <race>")
		}
		svc, err := authService(cfg, accounts, pool, logger)
		if err != nil {
			return err
		}
		acct, err := accounts.Authenticate(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		p, err := svc.CreateCharacter(ctx, acct.ID, args[2], args[3], args[4])
		if err != nil {
			return err
		}
		fmt.Printf("character %s created at %s (%s)\n", p.Name, p.LocationID, p.ID)
		return nil

	case "setrole":
		if len(args) != 2 {
			return fmt.Errorf("setrole needs <username> <player|admin>")
		}
		role := args[1]
		if role != session.RolePlayer && role != session.RoleAdmin {
			return fmt.Errorf("role must be player or admin, got %q", role)
		}
		if err := accounts.SetRole(ctx, args[0], role); err != nil {
			return err
		}
		fmt.Printf("account %s is now a %s\n", args[0], role)
		return nil
	}
	return fmt.Errorf("unknown command %q", command)
}

// authService loads the content the auth service needs: catalogs for class
// and race definitions, the world graph for the start location.
func authService(cfg config.Config, accounts *postgres.AccountStore, pool *pgxpool.Pool, logger *zap.Logger) (*auth.Service, error) {
	catalogs, err := catalog.Load(catalog.Dirs{
		Items:   cfg.Content.Items,
		Spells:  cfg.Content.Spells,
		Skills:  cfg.Content.Skills,
		Classes: cfg.Content.Classes,
		Races:   cfg.Content.Races,
	})
	if err != nil {
		return nil, fmt.Errorf("loading catalogs: %w", err)
	}
	zones, err := world.LoadZonesFromDir(cfg.Content.Zones)
	if err != nil {
		return nil, fmt.Errorf("loading zones: %w", err)
	}
	graph, err := world.NewGraph(zones)
	if err != nil {
		return nil, fmt.Errorf("building world graph: %w", err)
	}
	players := postgres.NewPlayerStore(pool)
	return auth.NewService(accounts, players, catalogs, graph, cfg.Game, cfg.Gateway, logger), nil
}
