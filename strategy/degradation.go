package strategy

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// NewConfiguredDegradation builds a DegradationModel from configuration
// values, verbatim. Fails with ConfigError on a negative rate or a
// non-positive base lap time.
func NewConfiguredDegradation(baseLapTime, ratePerLap float64) (DegradationModel, error) {
	if baseLapTime <= 0 {
		return DegradationModel{}, &ConfigError{Field: "base_lap_time", Msg: fmt.Sprintf("must be > 0, got %g", baseLapTime)}
	}
	if ratePerLap < 0 {
		return DegradationModel{}, &ConfigError{Field: "degradation_rate", Msg: fmt.Sprintf("must be >= 0, got %g", ratePerLap)}
	}
	return DegradationModel{BaseLapTime: baseLapTime, RatePerLap: ratePerLap, Source: SourceConfigured}, nil
}

// EstimateDegradation derives a degradation rate for one vehicle's current
// stint from telemetry. Per lap it takes the peak lateral-acceleration
// magnitude, splits the stint into an early half (first ⌈n/2⌉ laps) and a
// late half, and converts the fractional decline in peak grip into a
// seconds-per-lap rate scaled against the base lap time.
//
// A stint whose peak magnitude does not decline, or with fewer than two
// complete laps, is a recoverable condition: the result falls back to
// fallbackRate tagged SourceConfigured and a warning is accumulated. Only a
// vehicle with zero samples is an InsufficientDataError.
func EstimateDegradation(
	vehicleID string,
	baseLapTime, fallbackRate float64,
	samples []TelemetrySample,
) (DegradationModel, []string, error) {
	if baseLapTime <= 0 {
		return DegradationModel{}, nil, &ConfigError{Field: "base_lap_time", Msg: fmt.Sprintf("must be > 0, got %g", baseLapTime)}
	}
	if fallbackRate < 0 {
		return DegradationModel{}, nil, &ConfigError{Field: "degradation_rate", Msg: fmt.Sprintf("must be >= 0, got %g", fallbackRate)}
	}

	peakByLap := make(map[int]float64)
	total := 0
	for _, s := range samples {
		if s.VehicleID != vehicleID {
			continue
		}
		total++
		if mag := math.Abs(s.LateralAccel); mag > peakByLap[s.Lap] {
			peakByLap[s.Lap] = mag
		}
	}
	if total == 0 {
		return DegradationModel{}, nil, &InsufficientDataError{VehicleID: vehicleID, Need: 1, Got: 0}
	}

	fallback := DegradationModel{BaseLapTime: baseLapTime, RatePerLap: fallbackRate, Source: SourceConfigured}

	laps := make([]int, 0, len(peakByLap))
	for lap := range peakByLap {
		laps = append(laps, lap)
	}
	sort.Ints(laps)
	if len(laps) < 2 {
		warn := fmt.Sprintf("vehicle %s: %d complete telemetry laps, need 2; using configured rate %g",
			vehicleID, len(laps), fallbackRate)
		return fallback, []string{warn}, nil
	}

	peaks := make([]float64, len(laps))
	for i, lap := range laps {
		peaks[i] = peakByLap[lap]
	}
	early := peaks[:(len(peaks)+1)/2]
	late := peaks[(len(peaks)+1)/2:]
	earlyMean := stat.Mean(early, nil)
	lateMean := stat.Mean(late, nil)

	if earlyMean <= 0 || lateMean >= earlyMean {
		warn := fmt.Sprintf("vehicle %s: peak lateral grip did not decline over the stint; using configured rate %g",
			vehicleID, fallbackRate)
		return fallback, []string{warn}, nil
	}

	// Fractional grip loss across the stint, spread over its laps and
	// scaled by the base lap time to land in seconds per lap.
	decline := (earlyMean - lateMean) / earlyMean
	rate := decline * baseLapTime / float64(len(laps))
	return DegradationModel{BaseLapTime: baseLapTime, RatePerLap: rate, Source: SourceTelemetry}, nil, nil
}
