// Package config provides Viper-based configuration loading for the realm server.
package config

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	Name            string        `mapstructure:"name"`
	SSLMode         string        `mapstructure:"sslmode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	MaxConnLifetime time.Duration `mapstructure:"max_conn_lifetime"`
}

// DSN returns the PostgreSQL connection string.
//
// Precondition: Host, Port, User, and Name must be non-empty.
// Postcondition: Returns a valid PostgreSQL DSN string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.Name, d.SSLMode,
	)
}

// GatewayConfig holds the websocket gateway listener settings.
type GatewayConfig struct {
	// Host is the bind address for the websocket listener.
	Host string `mapstructure:"host"`
	// Port is the TCP port for the websocket listener.
	Port int `mapstructure:"port"`
	// WriteTimeout is the per-message write deadline for client connections.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	// OutboxSize is the per-client outbound event buffer size.
	OutboxSize int `mapstructure:"outbox_size"`
}

// Addr returns the "host:port" listen address.
//
// Postcondition: Returns a non-empty string in "host:port" format.
func (g GatewayConfig) Addr() string {
	return fmt.Sprintf("%s:%d", g.Host, g.Port)
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	// Level is the minimum log level: "debug", "info", "warn", "error".
	Level string `mapstructure:"level"`
	// Format is the log output format: "json" or "console".
	Format string `mapstructure:"format"`
}

// GameConfig holds the world simulation settings.
type GameConfig struct {
	// TickInterval is the fixed period of the scheduler pass.
	TickInterval time.Duration `mapstructure:"tick_interval"`
	// RestRegenHP is the HP restored per tick while resting.
	RestRegenHP int `mapstructure:"rest_regen_hp"`
	// MeditateRegenMP is the MP restored per tick while meditating.
	MeditateRegenMP int `mapstructure:"meditate_regen_mp"`
	// BackpackSlots is the number of inventory slots per player.
	BackpackSlots int `mapstructure:"backpack_slots"`
	// BackpackWeight is the maximum carry weight per player.
	BackpackWeight float64 `mapstructure:"backpack_weight"`
}

// ContentConfig names the authored content directories loaded at startup.
type ContentConfig struct {
	Zones    string `mapstructure:"zones"`
	Entities string `mapstructure:"entities"`
	Items    string `mapstructure:"items"`
	Spells   string `mapstructure:"spells"`
	Skills   string `mapstructure:"skills"`
	Classes  string `mapstructure:"classes"`
	Races    string `mapstructure:"races"`
}

// Config is the top-level application configuration.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Gateway  GatewayConfig  `mapstructure:"gateway"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Game     GameConfig     `mapstructure:"game"`
	Content  ContentConfig  `mapstructure:"content"`
}

// Validate checks all configuration invariants.
//
// Postcondition: Returns nil if configuration is valid, or an error describing all violations.
func (c Config) Validate() error {
	var errs []string

	if err := validateDatabase(c.Database); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGateway(c.Gateway); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateLogging(c.Logging); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateGame(c.Game); err != nil {
		errs = append(errs, err.Error())
	}
	if err := validateContent(c.Content); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

func validateDatabase(d DatabaseConfig) error {
	var errs []string
	if d.Host == "" {
		errs = append(errs, "database.host must not be empty")
	}
	if d.Port < 1 || d.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port must be 1-65535, got %d", d.Port))
	}
	if d.User == "" {
		errs = append(errs, "database.user must not be empty")
	}
	if d.Name == "" {
		errs = append(errs, "database.name must not be empty")
	}
	validSSL := map[string]bool{"disable": true, "require": true, "verify-ca": true, "verify-full": true}
	if !validSSL[d.SSLMode] {
		errs = append(errs, fmt.Sprintf("database.sslmode must be one of [disable, require, verify-ca, verify-full], got %q", d.SSLMode))
	}
	if d.MaxConns < 1 {
		errs = append(errs, fmt.Sprintf("database.max_conns must be >= 1, got %d", d.MaxConns))
	}
	if d.MinConns < 0 {
		errs = append(errs, fmt.Sprintf("database.min_conns must be >= 0, got %d", d.MinConns))
	}
	if d.MinConns > d.MaxConns {
		errs = append(errs, "database.min_conns must not exceed database.max_conns")
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateGateway(g GatewayConfig) error {
	var errs []string
	if g.Port < 1 || g.Port > 65535 {
		errs = append(errs, fmt.Sprintf("gateway.port must be 1-65535, got %d", g.Port))
	}
	if g.WriteTimeout < 0 {
		errs = append(errs, "gateway.write_timeout must not be negative")
	}
	if g.OutboxSize < 1 {
		errs = append(errs, fmt.Sprintf("gateway.outbox_size must be >= 1, got %d", g.OutboxSize))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[l.Level] {
		return fmt.Errorf("logging.level must be one of [debug, info, warn, error], got %q", l.Level)
	}
	validFormats := map[string]bool{"json": true, "console": true}
	if !validFormats[l.Format] {
		return fmt.Errorf("logging.format must be one of [json, console], got %q", l.Format)
	}
	return nil
}

func validateGame(g GameConfig) error {
	var errs []string
	if g.TickInterval <= 0 {
		errs = append(errs, fmt.Sprintf("game.tick_interval must be > 0, got %s", g.TickInterval))
	}
	if g.RestRegenHP < 1 {
		errs = append(errs, fmt.Sprintf("game.rest_regen_hp must be >= 1, got %d", g.RestRegenHP))
	}
	if g.MeditateRegenMP < 1 {
		errs = append(errs, fmt.Sprintf("game.meditate_regen_mp must be >= 1, got %d", g.MeditateRegenMP))
	}
	if g.BackpackSlots < 1 {
		errs = append(errs, fmt.Sprintf("game.backpack_slots must be >= 1, got %d", g.BackpackSlots))
	}
	if g.BackpackWeight <= 0 {
		errs = append(errs, fmt.Sprintf("game.backpack_weight must be > 0, got %.2f", g.BackpackWeight))
	}
	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func validateContent(c ContentConfig) error {
	var errs []string
	for name, dir := range map[string]string{
		"content.zones":    c.Zones,
		"content.entities": c.Entities,
		"content.items":    c.Items,
		"content.spells":   c.Spells,
		"content.skills":   c.Skills,
		"content.classes":  c.Classes,
		"content.races":    c.Races,
	} {
		if dir == "" {
			errs = append(errs, fmt.Sprintf("%s must not be empty", name))
		}
	}
	if len(errs) > 0 {
		sort.Strings(errs)
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

// Load reads configuration from the given file path, applies environment variable
// overrides, and validates the result.
//
// Precondition: path must be a valid file path to a YAML configuration file.
// Postcondition: Returns a valid Config or a non-nil error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigFile(path)

	// Environment variable overrides with REALM_ prefix
	v.SetEnvPrefix("REALM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "realm")
	v.SetDefault("database.password", "realm")
	v.SetDefault("database.name", "realm")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 10)
	v.SetDefault("database.min_conns", 2)
	v.SetDefault("database.max_conn_lifetime", "1h")

	v.SetDefault("gateway.host", "0.0.0.0")
	v.SetDefault("gateway.port", 4600)
	v.SetDefault("gateway.write_timeout", "30s")
	v.SetDefault("gateway.outbox_size", 64)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("game.tick_interval", "2s")
	v.SetDefault("game.rest_regen_hp", 3)
	v.SetDefault("game.meditate_regen_mp", 4)
	v.SetDefault("game.backpack_slots", 20)
	v.SetDefault("game.backpack_weight", 50.0)

	v.SetDefault("content.zones", "content/zones")
	v.SetDefault("content.entities", "content/entities")
	v.SetDefault("content.items", "content/items")
	v.SetDefault("content.spells", "content/spells")
	v.SetDefault("content.skills", "content/skills")
	v.SetDefault("content.classes", "content/classes")
	v.SetDefault("content.races", "content/races")
}
