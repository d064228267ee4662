package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// withDefaultsFile points the preset loader at a temp defaults.yaml for the
// duration of one test.
func withDefaultsFile(t *testing.T, content string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "defaults.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	prev := defaultsFilePath
	defaultsFilePath = path
	t.Cleanup(func() { defaultsFilePath = prev })
}

const testDefaultsYAML = `version: "1"
tracks:
  - id: test-sprint
    pit_time_cost: 18.5
    total_laps: 20
    target_stint: 12
    degradation_rate: 0.12
  - id: test-endurance
    pit_time_cost: 25.0
    total_laps: 30
    degradation_rate: 0.3
    base_lap_time: 90.0
    cautions_per_race: 2.0
`

func TestGetTrackPreset_KnownTrack(t *testing.T) {
	withDefaultsFile(t, testDefaultsYAML)

	preset, err := GetTrackPreset("test-endurance")
	require.NoError(t, err)
	assert.Equal(t, 25.0, preset.PitTimeCost)
	assert.Equal(t, 30, preset.TotalLaps)
	assert.Equal(t, 0.3, preset.DegradationRate)
	assert.Equal(t, 90.0, preset.BaseLapTime)
	assert.Equal(t, 2.0, preset.CautionsPerRace)
	// fields absent from the yaml stay zero
	assert.Equal(t, 0, preset.TargetStint)
}

func TestGetTrackPreset_UnknownTrack(t *testing.T) {
	withDefaultsFile(t, testDefaultsYAML)
	_, err := GetTrackPreset("monza")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monza")
}

func TestGetTrackPreset_StrictParsingRejectsTypos(t *testing.T) {
	withDefaultsFile(t, `version: "1"
tracks:
  - id: test-sprint
    pit_tim_cost: 18.5
`)
	_, err := GetTrackPreset("test-sprint")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse defaults file")
}

func TestGetTrackPreset_MissingFile(t *testing.T) {
	prev := defaultsFilePath
	defaultsFilePath = filepath.Join(t.TempDir(), "absent.yaml")
	t.Cleanup(func() { defaultsFilePath = prev })

	_, err := GetTrackPreset("test-sprint")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read defaults file")
}

func TestShippedDefaultsFileParses(t *testing.T) {
	// The repository's own defaults.yaml must satisfy strict parsing.
	prev := defaultsFilePath
	defaultsFilePath = filepath.Join("..", "defaults.yaml")
	t.Cleanup(func() { defaultsFilePath = prev })

	preset, err := GetTrackPreset("gr86-cup-endurance")
	require.NoError(t, err)
	assert.Equal(t, 25.0, preset.PitTimeCost)
	assert.Equal(t, 30, preset.TotalLaps)
}
