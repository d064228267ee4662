package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"

	"github.com/race-engineer/race-engineer/strategy/traffic"
)

// LoadEnduranceTiming reads a semicolon-separated endurance analysis CSV
// (NUMBER;LAP_NUMBER;ELAPSED;...) into raw timing rows. ELAPSED stays a
// string; the traffic model owns its parsing. Header names are matched
// after trimming, so padded exports load cleanly.
func LoadEnduranceTiming(path string) ([]traffic.TimingRow, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open endurance file: %w", err)
	}
	defer f.Close()
	return ReadEnduranceTiming(f)
}

// ReadEnduranceTiming is LoadEnduranceTiming over an already-open reader.
func ReadEnduranceTiming(src io.Reader) ([]traffic.TimingRow, []string, error) {
	r := csv.NewReader(src)
	r.Comma = ';'
	r.FieldsPerRecord = -1

	h, err := readHeader(r)
	if err != nil {
		return nil, nil, err
	}
	if err := h.require("number", "lap_number", "elapsed"); err != nil {
		return nil, nil, err
	}

	var rows []traffic.TimingRow
	var warnings []string
	line := 1
	for {
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return rows, warnings, fmt.Errorf("endurance row %d: %w", line, err)
		}
		line++

		car, carErr := strconv.Atoi(h.field(row, "number"))
		lap, lapErr := strconv.Atoi(h.field(row, "lap_number"))
		if carErr != nil || lapErr != nil {
			msg := fmt.Sprintf("skipping endurance row %d: unparseable car/lap number", line)
			logrus.Warn(msg)
			warnings = append(warnings, msg)
			continue
		}
		rows = append(rows, traffic.TimingRow{
			CarNumber: car,
			LapNumber: lap,
			Elapsed:   h.field(row, "elapsed"),
		})
	}
	return rows, warnings, nil
}
