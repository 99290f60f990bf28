package world

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleZoneYAML = `
zone:
  id: mire
  name: The Sunken Mire
  description: A drowned bog at the forest's edge.
  start_location: causeway
  locations:
    - id: causeway
      title: Rotting Causeway
      description: |
        Planks sag underfoot. Green water laps at the boards.
      exits:
        - direction: north
          target: hollow
        - direction: east
          target: shrine
          locked: true
          lock_difficulty: 18
          lock_reset_ticks: 12
      spawns:
        - template: bog_rat
          count: 2
          respawn_ticks: 6
    - id: hollow
      title: Black Hollow
      description: The trees close overhead.
      exits:
        - direction: south
          target: causeway
        - direction: down
          target: shrine
          hidden: true
          perception_difficulty: 14
          hide_reset_ticks: 8
      features:
        - id: idol
          name: moss-covered idol
          description: Its eyes seem to follow you.
          effect: buff
          magnitude: 2
          buff_stat: might
          duration_ticks: 10
          reset_ticks: 20
          use_text: The idol hums with old power.
    - id: shrine
      title: Drowned Shrine
      description: Half the altar is underwater.
`

func TestLoadZoneFromBytes(t *testing.T) {
	zone, err := LoadZoneFromBytes([]byte(sampleZoneYAML))
	require.NoError(t, err)

	assert.Equal(t, "mire", zone.ID)
	assert.Equal(t, "causeway", zone.StartLocation)
	require.Len(t, zone.Locations, 3)

	causeway := zone.Locations["causeway"]
	require.NotNil(t, causeway)
	assert.Equal(t, "mire", causeway.ZoneID)
	require.Len(t, causeway.Exits, 2)

	east, ok := causeway.ExitForDirection(East)
	require.True(t, ok)
	assert.True(t, east.Locked)
	assert.Equal(t, 18, east.LockDifficulty)
	assert.Equal(t, 12, east.LockResetTicks)

	require.Len(t, causeway.Spawns, 1)
	assert.Equal(t, "bog_rat", causeway.Spawns[0].Template)

	hollow := zone.Locations["hollow"]
	down, ok := hollow.ExitForDirection(Down)
	require.True(t, ok)
	assert.True(t, down.Hidden)
	assert.Equal(t, 14, down.PerceptionDifficulty)

	idol, ok := hollow.FeatureByID("idol")
	require.True(t, ok)
	assert.Equal(t, FeatureEffectBuff, idol.Effect)
	assert.Equal(t, "might", idol.BuffStat)
	assert.Equal(t, 10, idol.DurationTicks)
}

func TestLoadZoneRejectsUnknownFields(t *testing.T) {
	_, err := LoadZoneFromBytes([]byte(`
zone:
  id: bad
  name: Bad
  start_location: a
  locations:
    - id: a
      title: A
      description: B
      color: purple
`))
	assert.Error(t, err)
}

func TestLoadZoneRejectsDanglingStartLocation(t *testing.T) {
	_, err := LoadZoneFromBytes([]byte(`
zone:
  id: bad
  name: Bad
  start_location: nowhere
  locations:
    - id: a
      title: A
      description: B
`))
	assert.Error(t, err)
}

func TestLoadZoneRejectsLockedExitWithoutDifficulty(t *testing.T) {
	_, err := LoadZoneFromBytes([]byte(`
zone:
  id: bad
  name: Bad
  start_location: a
  locations:
    - id: a
      title: A
      description: B
      exits:
        - direction: north
          target: a
          locked: true
`))
	assert.Error(t, err)
}

func TestLoadZonesFromDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mire.yaml"), []byte(sampleZoneYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	zones, err := LoadZonesFromDir(dir)
	require.NoError(t, err)
	require.Len(t, zones, 1)
	assert.Equal(t, "mire", zones[0].ID)
}

func TestLoadZonesFromDirEmpty(t *testing.T) {
	_, err := LoadZonesFromDir(t.TempDir())
	assert.Error(t, err)
}

func TestDirectionOpposite(t *testing.T) {
	assert.Equal(t, South, North.Opposite())
	assert.Equal(t, Up, Down.Opposite())
	assert.Equal(t, Direction(""), Direction("stairs").Opposite())
	assert.True(t, East.IsStandard())
	assert.False(t, Direction("stairs").IsStandard())
}
