package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/race-engineer/race-engineer/strategy"
)

// newAdviseCmd builds the one-shot recommendation command.
func newAdviseCmd() *cobra.Command {
	var (
		lapFile       string
		vehicleID     string
		telemetryFile string
		enduranceFile string
		carNumber     int
		currentLap    int
		tireAge       int
		cautionActive bool
		enableCaution bool
	)

	cmd := &cobra.Command{
		Use:   "advise",
		Short: "Issue a single pit recommendation for the current race state",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession(lapFile, vehicleID, telemetryFile, enduranceFile, carNumber, enableCaution)
			if err != nil {
				return err
			}

			last := s.laps[len(s.laps)-1]
			if currentLap <= 0 {
				currentLap = last.Lap
			}
			if tireAge < 0 {
				tireAge = last.TireAge
			}

			rec, err := s.optimizer.Optimize(strategy.RaceState{
				CurrentLap:    currentLap,
				TireAge:       tireAge,
				RaceLaps:      raceLaps,
				TargetStint:   targetStint,
				PitTimeCost:   pitCost,
				CautionActive: cautionActive,
				Degradation:   s.degr,
			})
			if err != nil {
				return err
			}
			rec.Warnings = append(s.warnings, rec.Warnings...)

			out, err := json.MarshalIndent(rec, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return nil
		},
	}

	cmd.Flags().StringVar(&lapFile, "lap-file", "", "lap-time CSV (vehicle_id, lap, value)")
	cmd.Flags().StringVar(&vehicleID, "vehicle", "", "vehicle id (default: first in the file)")
	cmd.Flags().StringVar(&telemetryFile, "telemetry-file", "", "telemetry CSV for degradation auto-detection")
	cmd.Flags().StringVar(&enduranceFile, "endurance-file", "", "semicolon-separated endurance timing CSV for traffic analysis")
	cmd.Flags().IntVar(&carNumber, "car", 0, "car number in the endurance data (default: parsed from vehicle id)")
	cmd.Flags().IntVar(&currentLap, "current-lap", 0, "current lap (default: last lap in the file)")
	cmd.Flags().IntVar(&tireAge, "tire-age", -1, "current tire age in laps (default: from lap records)")
	cmd.Flags().BoolVar(&cautionActive, "caution-active", false, "a caution is currently active (halves effective pit cost)")
	cmd.Flags().BoolVar(&enableCaution, "enable-caution", false, "weigh caution probability into the recommendation")
	_ = cmd.MarkFlagRequired("lap-file")

	return cmd
}
