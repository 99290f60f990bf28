package world

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlZoneFile is the top-level YAML structure for zone files.
type yamlZoneFile struct {
	Zone yamlZone `yaml:"zone"`
}

// yamlZone is the YAML representation of a zone.
type yamlZone struct {
	ID            string         `yaml:"id"`
	Name          string         `yaml:"name"`
	Description   string         `yaml:"description"`
	StartLocation string         `yaml:"start_location"`
	Locations     []yamlLocation `yaml:"locations"`
}

// yamlLocation is the YAML representation of a location.
type yamlLocation struct {
	ID          string        `yaml:"id"`
	Title       string        `yaml:"title"`
	Description string        `yaml:"description"`
	Exits       []yamlExit    `yaml:"exits"`
	Features    []yamlFeature `yaml:"features"`
	Spawns      []yamlSpawn   `yaml:"spawns"`
}

// yamlExit is the YAML representation of an exit.
type yamlExit struct {
	Direction            string `yaml:"direction"`
	Target               string `yaml:"target"`
	Locked               bool   `yaml:"locked"`
	LockDifficulty       int    `yaml:"lock_difficulty"`
	LockResetTicks       int    `yaml:"lock_reset_ticks"`
	Hidden               bool   `yaml:"hidden"`
	PerceptionDifficulty int    `yaml:"perception_difficulty"`
	HideResetTicks       int    `yaml:"hide_reset_ticks"`
}

// yamlFeature is the YAML representation of an interactable feature.
type yamlFeature struct {
	ID              string `yaml:"id"`
	Name            string `yaml:"name"`
	Description     string `yaml:"description"`
	Effect          string `yaml:"effect"`
	Magnitude       int    `yaml:"magnitude"`
	BuffStat        string `yaml:"buff_stat"`
	DurationTicks   int    `yaml:"duration_ticks"`
	RevealDirection string `yaml:"reveal_direction"`
	ResetTicks      int    `yaml:"reset_ticks"`
	UseText         string `yaml:"use_text"`
}

// yamlSpawn is the YAML representation of a spawn entry.
type yamlSpawn struct {
	Template     string `yaml:"template"`
	Count        int    `yaml:"count"`
	RespawnTicks int    `yaml:"respawn_ticks"`
}

// LoadZoneFromFile reads and validates a single zone YAML file.
//
// Precondition: path must point to a valid YAML zone file.
// Postcondition: Returns a validated Zone or a non-nil error.
func LoadZoneFromFile(path string) (*Zone, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading zone file %s: %w", path, err)
	}
	return LoadZoneFromBytes(data)
}

// LoadZoneFromBytes parses and validates a zone from YAML bytes. Unknown
// fields are a parse error, so content typos fail at startup.
//
// Precondition: data must be valid YAML conforming to the zone schema.
// Postcondition: Returns a validated Zone or a non-nil error.
func LoadZoneFromBytes(data []byte) (*Zone, error) {
	var file yamlZoneFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("parsing zone YAML: %w", err)
	}

	zone := convertYAMLZone(file.Zone)
	if err := zone.Validate(); err != nil {
		return nil, fmt.Errorf("validating zone: %w", err)
	}

	return zone, nil
}

// LoadZonesFromDir loads all YAML files in a directory as zones.
//
// Precondition: dir must be a valid directory path.
// Postcondition: Returns all validated zones or the first error encountered.
func LoadZonesFromDir(dir string) ([]*Zone, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading zone directory %s: %w", dir, err)
	}

	var zones []*Zone
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") && !strings.HasSuffix(name, ".yml") {
			continue
		}
		zone, err := LoadZoneFromFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("loading zone from %s: %w", name, err)
		}
		zones = append(zones, zone)
	}

	if len(zones) == 0 {
		return nil, fmt.Errorf("no zone files found in %s", dir)
	}

	return zones, nil
}

// convertYAMLZone converts the parsed YAML structures into domain types.
func convertYAMLZone(yz yamlZone) *Zone {
	zone := &Zone{
		ID:            yz.ID,
		Name:          yz.Name,
		Description:   yz.Description,
		StartLocation: yz.StartLocation,
		Locations:     make(map[string]*Location, len(yz.Locations)),
	}

	for _, yl := range yz.Locations {
		loc := &Location{
			ID:          yl.ID,
			ZoneID:      yz.ID,
			Title:       yl.Title,
			Description: strings.TrimSpace(yl.Description),
		}
		for _, ye := range yl.Exits {
			loc.Exits = append(loc.Exits, Exit{
				Direction:            Direction(ye.Direction),
				Target:               ye.Target,
				Locked:               ye.Locked,
				LockDifficulty:       ye.LockDifficulty,
				LockResetTicks:       ye.LockResetTicks,
				Hidden:               ye.Hidden,
				PerceptionDifficulty: ye.PerceptionDifficulty,
				HideResetTicks:       ye.HideResetTicks,
			})
		}
		for _, yf := range yl.Features {
			loc.Features = append(loc.Features, Feature{
				ID:              yf.ID,
				Name:            yf.Name,
				Description:     yf.Description,
				Effect:          yf.Effect,
				Magnitude:       yf.Magnitude,
				BuffStat:        yf.BuffStat,
				DurationTicks:   yf.DurationTicks,
				RevealDirection: Direction(yf.RevealDirection),
				ResetTicks:      yf.ResetTicks,
				UseText:         yf.UseText,
			})
		}
		for _, ys := range yl.Spawns {
			loc.Spawns = append(loc.Spawns, SpawnConfig{
				Template:     ys.Template,
				Count:        ys.Count,
				RespawnTicks: ys.RespawnTicks,
			})
		}
		zone.Locations[loc.ID] = loc
	}

	return zone
}
