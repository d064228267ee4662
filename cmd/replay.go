package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/race-engineer/race-engineer/strategy"
	"github.com/race-engineer/race-engineer/strategy/replay"
)

// newReplayCmd builds the lap-by-lap replay command: it steps through a
// vehicle's laps and prints one recommendation per lap tick.
func newReplayCmd() *cobra.Command {
	var (
		lapFile       string
		vehicleID     string
		telemetryFile string
		enduranceFile string
		carNumber     int
		enableCaution bool
		speed         float64
		noWait        bool
	)

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Replay a vehicle's laps, issuing a recommendation per lap",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSession(lapFile, vehicleID, telemetryFile, enduranceFile, carNumber, enableCaution)
			if err != nil {
				return err
			}

			delay := func(d time.Duration) { time.Sleep(d) }
			if noWait {
				delay = func(time.Duration) {}
			}

			stepper := replay.New(s.laps, speed)
			return stepper.Replay(cmd.Context(), func(lap strategy.LapRecord) error {
				rec, err := s.optimizer.Optimize(strategy.RaceState{
					CurrentLap:  lap.Lap,
					TireAge:     lap.TireAge,
					RaceLaps:    raceLaps,
					TargetStint: targetStint,
					PitTimeCost: pitCost,
					Degradation: s.degr,
				})
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "lap %3d  %-8.3fs  %s", lap.Lap, lap.LapTime, rec.Action)
				switch rec.Action {
				case strategy.ActionPitNow, strategy.ActionPitAtLap:
					fmt.Fprintf(cmd.OutOrStdout(), " (lap %d, saves %.2fs, %s)", rec.PitLap, rec.TimeSaved, rec.Confidence)
				default:
					fmt.Fprintf(cmd.OutOrStdout(), " (%s)", rec.Reason)
				}
				if rec.Position != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "  P%d -> P%d after stop", rec.Position.Current, rec.Position.AfterPit)
				}
				fmt.Fprintln(cmd.OutOrStdout())
				return nil
			}, delay)
		},
	}

	cmd.Flags().StringVar(&lapFile, "lap-file", "", "lap-time CSV (vehicle_id, lap, value)")
	cmd.Flags().StringVar(&vehicleID, "vehicle", "", "vehicle id (default: first in the file)")
	cmd.Flags().StringVar(&telemetryFile, "telemetry-file", "", "telemetry CSV for degradation auto-detection")
	cmd.Flags().StringVar(&enduranceFile, "endurance-file", "", "semicolon-separated endurance timing CSV for traffic analysis")
	cmd.Flags().IntVar(&carNumber, "car", 0, "car number in the endurance data (default: parsed from vehicle id)")
	cmd.Flags().BoolVar(&enableCaution, "enable-caution", false, "weigh caution probability into the recommendation")
	cmd.Flags().Float64Var(&speed, "speed", 1.0, "replay speed in laps per second")
	cmd.Flags().BoolVar(&noWait, "no-wait", false, "replay without pacing delays")
	_ = cmd.MarkFlagRequired("lap-file")

	return cmd
}
