package strategy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfiguredDegradation_Verbatim(t *testing.T) {
	model, err := NewConfiguredDegradation(90.0, 0.15)
	require.NoError(t, err)
	assert.Equal(t, DegradationModel{BaseLapTime: 90.0, RatePerLap: 0.15, Source: SourceConfigured}, model)
}

func TestNewConfiguredDegradation_NegativeRate_ConfigError(t *testing.T) {
	_, err := NewConfiguredDegradation(90.0, -0.1)
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
}

func TestNewConfiguredDegradation_ZeroBase_ConfigError(t *testing.T) {
	_, err := NewConfiguredDegradation(0, 0.15)
	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
}

// stintSamples builds telemetry with the given per-lap peak magnitudes,
// padding each lap with lower-magnitude noise samples.
func stintSamples(vehicleID string, peaks []float64) []TelemetrySample {
	var samples []TelemetrySample
	ts := 0.0
	for i, peak := range peaks {
		lap := i + 1
		samples = append(samples,
			TelemetrySample{VehicleID: vehicleID, Lap: lap, ReceivedAt: ts, LateralAccel: peak * 0.8},
			TelemetrySample{VehicleID: vehicleID, Lap: lap, ReceivedAt: ts + 1, LateralAccel: -peak}, // sign must not matter
			TelemetrySample{VehicleID: vehicleID, Lap: lap, ReceivedAt: ts + 2, LateralAccel: peak * 0.5},
		)
		ts += 10
	}
	return samples
}

func TestEstimateDegradation_DecliningGrip(t *testing.T) {
	// GIVEN a four-lap stint whose peak grip falls from 1.2g to 1.0g
	samples := stintSamples("GR86-004-78", []float64{1.2, 1.2, 1.0, 1.0})

	// WHEN the rate is estimated against a 90s base lap
	model, warns, err := EstimateDegradation("GR86-004-78", 90.0, 0.15, samples)
	require.NoError(t, err)
	assert.Empty(t, warns)

	// THEN the fractional decline (1.2-1.0)/1.2 spreads over 4 laps of 90s
	want := (1.2 - 1.0) / 1.2 * 90.0 / 4.0
	assert.Equal(t, SourceTelemetry, model.Source)
	assert.InDelta(t, want, model.RatePerLap, 1e-9)
	assert.InDelta(t, 90.0, model.BaseLapTime, 1e-9)
}

func TestEstimateDegradation_NoDecline_FallsBack(t *testing.T) {
	// Grip improving over the stint is noise, not negative degradation.
	samples := stintSamples("v1", []float64{1.0, 1.0, 1.2, 1.2})
	model, warns, err := EstimateDegradation("v1", 90.0, 0.15, samples)
	require.NoError(t, err)
	assert.Equal(t, SourceConfigured, model.Source)
	assert.InDelta(t, 0.15, model.RatePerLap, 1e-9)
	assert.Len(t, warns, 1)
}

func TestEstimateDegradation_SingleLap_FallsBack(t *testing.T) {
	samples := stintSamples("v1", []float64{1.2})
	model, warns, err := EstimateDegradation("v1", 90.0, 0.2, samples)
	require.NoError(t, err)
	assert.Equal(t, SourceConfigured, model.Source)
	assert.InDelta(t, 0.2, model.RatePerLap, 1e-9)
	assert.Len(t, warns, 1)
}

func TestEstimateDegradation_NoSamples_InsufficientData(t *testing.T) {
	// Samples exist, but none for the requested vehicle.
	samples := stintSamples("other", []float64{1.2, 1.1})
	_, _, err := EstimateDegradation("v1", 90.0, 0.15, samples)
	var insufficient *InsufficientDataError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, "v1", insufficient.VehicleID)
}

func TestEstimateDegradation_IgnoresOtherVehicles(t *testing.T) {
	samples := append(
		stintSamples("v1", []float64{1.2, 1.2, 1.0, 1.0}),
		// A rival with flat grip must not dilute v1's decline.
		stintSamples("v2", []float64{1.0, 1.0, 1.0, 1.0})...,
	)
	model, _, err := EstimateDegradation("v1", 90.0, 0.15, samples)
	require.NoError(t, err)
	assert.Equal(t, SourceTelemetry, model.Source)
}

func TestEstimateDegradation_InvalidConfig(t *testing.T) {
	var cfgErr *ConfigError
	_, _, err := EstimateDegradation("v1", 0, 0.15, stintSamples("v1", []float64{1.2, 1.0}))
	require.True(t, errors.As(err, &cfgErr))
	_, _, err = EstimateDegradation("v1", 90.0, -1, stintSamples("v1", []float64{1.2, 1.0}))
	require.True(t, errors.As(err, &cfgErr))
}
