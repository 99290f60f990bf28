// Command migrate applies or rolls back the database schema migrations.
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/cory-johannsen/realmd/internal/config"
)

func main() {
	configPath := flag.String("config", "configs/dev.yaml", "path to the configuration file")
	dir := flag.String("migrations", "migrations", "path to the migrations directory")
	down := flag.Bool("down", false, "roll back one migration instead of applying all")
	flag.Parse()

	if err := run(*configPath, *dir, *down); err != nil {
		fmt.Fprintf(os.Stderr, "migrate: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath, dir string, down bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	m, err := migrate.New("file://"+dir, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("opening migrations: %w", err)
	}
	defer m.Close()

	if down {
		err = m.Steps(-1)
	} else {
		err = m.Up()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return err
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("reading version: %w", err)
	}
	fmt.Printf("schema version %d (dirty=%v)\n", version, dirty)
	return nil
}
