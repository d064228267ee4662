package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// defaultsFilePath locates the track preset file relative to the working
// directory.
var defaultsFilePath = "defaults.yaml"

// TrackPreset is one per-track/series entry in defaults.yaml. Zero-valued
// fields leave the corresponding flag default untouched.
type TrackPreset struct {
	ID              string  `yaml:"id"`
	PitTimeCost     float64 `yaml:"pit_time_cost"`
	TotalLaps       int     `yaml:"total_laps"`
	TargetStint     int     `yaml:"target_stint"`
	DegradationRate float64 `yaml:"degradation_rate"`
	BaseLapTime     float64 `yaml:"base_lap_time"`
	CautionsPerRace float64 `yaml:"cautions_per_race"`
}

// Defaults represents the full defaults.yaml structure. All top-level
// sections must be listed to satisfy KnownFields(true) strict parsing.
type Defaults struct {
	Version string        `yaml:"version"`
	Tracks  []TrackPreset `yaml:"tracks"`
}

// GetTrackPreset loads defaults.yaml and returns the preset with the given
// id. Typos in the file must cause errors, so parsing is strict.
func GetTrackPreset(id string) (*TrackPreset, error) {
	data, err := os.ReadFile(defaultsFilePath)
	if err != nil {
		return nil, fmt.Errorf("read defaults file: %w", err)
	}

	var defaults Defaults
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&defaults); err != nil {
		return nil, fmt.Errorf("parse defaults file: %w", err)
	}

	for i := range defaults.Tracks {
		if defaults.Tracks[i].ID == id {
			return &defaults.Tracks[i], nil
		}
	}
	return nil, fmt.Errorf("no track preset %q in %s", id, defaultsFilePath)
}

// applyTrackDefaults fills race flags from the selected track preset.
// Flags the user set explicitly always win.
func applyTrackDefaults(cmd *cobra.Command) error {
	if track == "" {
		return nil
	}
	preset, err := GetTrackPreset(track)
	if err != nil {
		return err
	}
	logrus.Infof("applying track preset %q", preset.ID)

	flags := cmd.Flags()
	if !flags.Changed("pit-cost") && preset.PitTimeCost > 0 {
		pitCost = preset.PitTimeCost
	}
	if !flags.Changed("race-laps") && preset.TotalLaps > 0 {
		raceLaps = preset.TotalLaps
	}
	if !flags.Changed("target-stint") && preset.TargetStint > 0 {
		targetStint = preset.TargetStint
	}
	if !flags.Changed("degradation") && preset.DegradationRate > 0 {
		degradationRate = preset.DegradationRate
	}
	if !flags.Changed("base-lap-time") && preset.BaseLapTime > 0 {
		baseLapTime = preset.BaseLapTime
	}
	if !flags.Changed("cautions-per-race") && preset.CautionsPerRace > 0 {
		cautionsPerRace = preset.CautionsPerRace
	}
	return nil
}
