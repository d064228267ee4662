package strategy

import "fmt"

// ConfigError reports invalid or out-of-range configuration. Not
// recoverable: it is surfaced to the caller immediately with no partial
// result.
type ConfigError struct {
	Field string
	Msg   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid config %s: %s", e.Field, e.Msg)
}

// InsufficientDataError reports that degradation auto-detection found no
// usable telemetry for a vehicle. Callers typically recover by falling back
// to a configured rate.
type InsufficientDataError struct {
	VehicleID string
	Need      int
	Got       int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("insufficient telemetry for vehicle %s: need %d samples, got %d",
		e.VehicleID, e.Need, e.Got)
}

// MalformedTimingError reports a single timing record that failed to parse.
// The record is dropped and processing continues; this is never fatal to a
// whole lap.
type MalformedTimingError struct {
	Value string
	Msg   string
}

func (e *MalformedTimingError) Error() string {
	return fmt.Sprintf("malformed timing value %q: %s", e.Value, e.Msg)
}
