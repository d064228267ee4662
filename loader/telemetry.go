package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/race-engineer/race-engineer/strategy"
)

// lateralAccelColumns are the column names accepted for the lateral
// acceleration channel, in preference order. Exports differ between
// logging stacks.
var lateralAccelColumns = []string{"lateral_accel", "accel_lateral", "accel_y"}

// LoadTelemetry reads a telemetry CSV with columns vehicle_id, lap,
// timestamp and one of the recognized lateral-acceleration columns.
// Timestamps are numeric seconds and serve only as a reception-order key.
func LoadTelemetry(path string) ([]strategy.TelemetrySample, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open telemetry file: %w", err)
	}
	defer f.Close()
	return ReadTelemetry(f)
}

// ReadTelemetry is LoadTelemetry over an already-open reader.
func ReadTelemetry(src io.Reader) ([]strategy.TelemetrySample, []string, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1

	h, err := readHeader(r)
	if err != nil {
		return nil, nil, err
	}
	if err := h.require("vehicle_id", "lap", "timestamp"); err != nil {
		return nil, nil, err
	}
	accelCol := ""
	for _, c := range lateralAccelColumns {
		if _, ok := h[c]; ok {
			accelCol = c
			break
		}
	}
	if accelCol == "" {
		return nil, nil, &strategy.ConfigError{Field: "csv_columns", Msg: "no lateral-acceleration column found"}
	}

	var samples []strategy.TelemetrySample
	var warnings []string
	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return samples, warnings, fmt.Errorf("telemetry row %d: %w", line, err)
		}
		line++

		lap, lapErr := strconv.Atoi(h.field(row, "lap"))
		ts, tsErr := strconv.ParseFloat(h.field(row, "timestamp"), 64)
		accel, accErr := strconv.ParseFloat(h.field(row, accelCol), 64)
		vehicle := h.field(row, "vehicle_id")
		if lapErr != nil || tsErr != nil || accErr != nil || vehicle == "" || lap < 1 {
			msg := fmt.Sprintf("skipping telemetry row %d: unparseable fields", line)
			logrus.Warn(msg)
			warnings = append(warnings, msg)
			continue
		}
		samples = append(samples, strategy.TelemetrySample{
			VehicleID:    vehicle,
			Lap:          lap,
			ReceivedAt:   ts,
			LateralAccel: accel,
		})
	}
	return samples, warnings, nil
}
