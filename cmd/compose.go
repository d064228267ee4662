package cmd

import (
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/race-engineer/race-engineer/loader"
	"github.com/race-engineer/race-engineer/strategy"
	"github.com/race-engineer/race-engineer/strategy/caution"
	"github.com/race-engineer/race-engineer/strategy/traffic"
)

// recentLapWindow bounds how many trailing laps feed the derived base lap
// time.
const recentLapWindow = 5

// session is everything a subcommand needs to issue recommendations: the
// selected vehicle's laps, the degradation model, and the optional traffic
// and caution contexts wired into an optimizer.
type session struct {
	vehicleID string
	laps      []strategy.LapRecord
	degr      strategy.DegradationModel
	optimizer *strategy.Optimizer
	warnings  []string
}

// loadSession composes the loaders, the degradation estimator and the
// optional analysis contexts from the CLI flags.
func loadSession(lapFile, vehicleID, telemetryFile, enduranceFile string, carNumber int, enableCaution bool) (*session, error) {
	records, warns, err := loader.LoadLapTimes(lapFile)
	if err != nil {
		return nil, err
	}
	s := &session{warnings: warns}

	if vehicleID == "" {
		vehicles := loader.Vehicles(records)
		if len(vehicles) == 0 {
			return nil, fmt.Errorf("no vehicles found in %s", lapFile)
		}
		vehicleID = vehicles[0]
		logrus.Infof("no vehicle selected; using %s", vehicleID)
	}
	s.vehicleID = vehicleID
	s.laps = loader.FilterVehicle(records, vehicleID)
	if len(s.laps) == 0 {
		return nil, fmt.Errorf("no laps for vehicle %s in %s", vehicleID, lapFile)
	}

	base := baseLapTime
	if base <= 0 {
		base = meanRecentLapTime(s.laps)
		logrus.Debugf("derived base lap time %.3fs from recent laps", base)
	}

	degr, degrWarns, err := buildDegradation(vehicleID, base, telemetryFile)
	if err != nil {
		return nil, err
	}
	s.degr = degr
	s.warnings = append(s.warnings, degrWarns...)

	opt := &strategy.Optimizer{}
	if enduranceFile != "" {
		if carNumber <= 0 {
			if parsed, ok := loader.ParseVehicleID(vehicleID); ok {
				carNumber = parsed.CarNumber
			}
		}
		if carNumber <= 0 {
			return nil, fmt.Errorf("traffic analysis needs a car number; pass --car or use a vehicle id ending in one")
		}
		rows, warns, err := loader.LoadEnduranceTiming(enduranceFile)
		if err != nil {
			return nil, err
		}
		s.warnings = append(s.warnings, warns...)
		model, err := traffic.New(rows)
		if err != nil {
			return nil, err
		}
		s.warnings = append(s.warnings, model.Warnings()...)
		opt.Traffic = model
		opt.CarNumber = carNumber
	}
	if enableCaution {
		eval, err := caution.New(cautionsPerRace, lookaheadLaps)
		if err != nil {
			return nil, err
		}
		opt.Caution = eval
	}
	s.optimizer = opt
	return s, nil
}

// buildDegradation prefers telemetry-derived estimation when requested and
// possible, falling back to the configured rate otherwise. Insufficient
// telemetry is recoverable: logged, accumulated as a warning, and the
// configured rate is used.
func buildDegradation(vehicleID string, base float64, telemetryFile string) (strategy.DegradationModel, []string, error) {
	var warnings []string
	if autoDegradation && telemetryFile != "" {
		samples, warns, err := loader.LoadTelemetry(telemetryFile)
		if err != nil {
			return strategy.DegradationModel{}, nil, err
		}
		for _, w := range warns {
			logrus.Warn(w)
		}
		warnings = append(warnings, warns...)

		model, estWarns, err := strategy.EstimateDegradation(vehicleID, base, degradationRate, samples)
		var insufficient *strategy.InsufficientDataError
		switch {
		case errors.As(err, &insufficient):
			msg := fmt.Sprintf("degradation auto-detect: %v; using configured rate %g", err, degradationRate)
			logrus.Warn(msg)
			warnings = append(warnings, msg)
		case err != nil:
			return strategy.DegradationModel{}, nil, err
		default:
			for _, w := range estWarns {
				logrus.Warn(w)
			}
			logrus.Infof("degradation rate %.3fs/lap (source: %s)", model.RatePerLap, model.Source)
			return model, append(warnings, estWarns...), nil
		}
	}
	model, err := strategy.NewConfiguredDegradation(base, degradationRate)
	return model, warnings, err
}

// meanRecentLapTime averages the trailing laps of the stint.
func meanRecentLapTime(laps []strategy.LapRecord) float64 {
	start := len(laps) - recentLapWindow
	if start < 0 {
		start = 0
	}
	sum := 0.0
	for _, l := range laps[start:] {
		sum += l.LapTime
	}
	return sum / float64(len(laps)-start)
}
