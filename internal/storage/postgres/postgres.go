// Package postgres implements the persistence repositories over pgx:
// accounts, player state, and player inventory.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/cory-johannsen/realmd/internal/config"
)

// Sentinel errors callers branch on.
var (
	// ErrPlayerNotFound indicates no player row matched the query.
	ErrPlayerNotFound = errors.New("player not found")
	// ErrAccountNotFound indicates no account row matched the query.
	ErrAccountNotFound = errors.New("account not found")
	// ErrInvalidCredentials indicates the password did not match.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrDuplicateName indicates a unique name collision on insert.
	ErrDuplicateName = errors.New("name already taken")
)

// NewPool creates a pgx connection pool from the database configuration and
// verifies connectivity with a ping.
//
// Precondition: cfg must have passed config validation.
// Postcondition: Returns a ready pool, or an error; never a half-open pool.
func NewPool(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*pgxpool.Pool, error) {
	poolCfg, err := pgxpool.ParseConfig(cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("parsing database config: %w", err)
	}
	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}

	logger.Info("database pool ready",
		zap.String("host", cfg.Host),
		zap.Int("port", cfg.Port),
		zap.String("database", cfg.Name),
		zap.Int32("max_conns", cfg.MaxConns))
	return pool, nil
}
