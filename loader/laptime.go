// Package loader turns the raw timing and telemetry CSVs into the clean,
// typed inputs the strategy engine consumes. Malformed rows are dropped
// with accumulated warnings; only structural problems (missing files,
// missing required columns) are errors.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/race-engineer/race-engineer/strategy"
)

// header maps lowercased, whitespace-trimmed column names to indices.
type header map[string]int

func readHeader(r *csv.Reader) (header, error) {
	row, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	h := make(header, len(row))
	for i, name := range row {
		h[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return h, nil
}

func (h header) require(cols ...string) error {
	var missing []string
	for _, c := range cols {
		if _, ok := h[c]; !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return &strategy.ConfigError{Field: "csv_columns", Msg: "missing required columns: " + strings.Join(missing, ", ")}
	}
	return nil
}

func (h header) field(row []string, col string) string {
	i, ok := h[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// LoadLapTimes reads a lap-time CSV with columns vehicle_id, lap and value
// (lap time in seconds). An optional tire_age column is honored; without it
// tire age counts up from zero per vehicle in lap order. Rows that fail to
// parse are skipped with a warning.
func LoadLapTimes(path string) ([]strategy.LapRecord, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open lap-time file: %w", err)
	}
	defer f.Close()
	return ReadLapTimes(f)
}

// ReadLapTimes is LoadLapTimes over an already-open reader.
func ReadLapTimes(src io.Reader) ([]strategy.LapRecord, []string, error) {
	r := csv.NewReader(src)
	r.FieldsPerRecord = -1

	h, err := readHeader(r)
	if err != nil {
		return nil, nil, err
	}
	if err := h.require("vehicle_id", "lap", "value"); err != nil {
		return nil, nil, err
	}
	_, hasAge := h["tire_age"]

	var records []strategy.LapRecord
	var warnings []string
	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return records, warnings, fmt.Errorf("lap-time row %d: %w", line, err)
		}
		line++

		lap, lapErr := strconv.Atoi(h.field(row, "lap"))
		value, valErr := strconv.ParseFloat(h.field(row, "value"), 64)
		vehicle := h.field(row, "vehicle_id")
		if lapErr != nil || valErr != nil || vehicle == "" || lap < 1 || value <= 0 {
			msg := fmt.Sprintf("skipping lap-time row %d: unparseable lap/value", line)
			logrus.Warn(msg)
			warnings = append(warnings, msg)
			continue
		}
		rec := strategy.LapRecord{VehicleID: vehicle, Lap: lap, LapTime: value, TireAge: -1}
		if hasAge {
			if age, err := strconv.Atoi(h.field(row, "tire_age")); err == nil && age >= 0 {
				rec.TireAge = age
			}
		}
		records = append(records, rec)
	}

	sort.SliceStable(records, func(i, j int) bool {
		if records[i].VehicleID != records[j].VehicleID {
			return records[i].VehicleID < records[j].VehicleID
		}
		return records[i].Lap < records[j].Lap
	})
	fillTireAges(records)
	return records, warnings, nil
}

// fillTireAges replaces unknown (-1) tire ages with a zero-based counter
// per vehicle, in lap order. Records are already vehicle/lap sorted.
func fillTireAges(records []strategy.LapRecord) {
	age := 0
	for i := range records {
		if i == 0 || records[i].VehicleID != records[i-1].VehicleID {
			age = 0
		}
		if records[i].TireAge < 0 {
			records[i].TireAge = age
		}
		age = records[i].TireAge + 1
	}
}

// Vehicles lists the distinct vehicle identifiers, sorted.
func Vehicles(records []strategy.LapRecord) []string {
	ids := lo.Uniq(lo.Map(records, func(r strategy.LapRecord, _ int) string { return r.VehicleID }))
	sort.Strings(ids)
	return ids
}

// FilterVehicle keeps one vehicle's records, preserving lap order.
func FilterVehicle(records []strategy.LapRecord, vehicleID string) []strategy.LapRecord {
	return lo.Filter(records, func(r strategy.LapRecord, _ int) bool { return r.VehicleID == vehicleID })
}
