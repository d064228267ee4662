package loader

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/race-engineer/race-engineer/strategy"
)

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadLapTimes_BasicFile(t *testing.T) {
	src := strings.NewReader(
		"vehicle_id,lap,value\n" +
			"GR86-004-78,2,90.6\n" +
			"GR86-004-78,1,90.1\n" +
			"GR86-011-13,1,91.4\n")

	records, warnings, err := ReadLapTimes(src)
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, records, 3)

	// Vehicle then lap order, tire ages counted up from zero per vehicle.
	assert.Equal(t, strategy.LapRecord{VehicleID: "GR86-004-78", Lap: 1, LapTime: 90.1, TireAge: 0}, records[0])
	assert.Equal(t, strategy.LapRecord{VehicleID: "GR86-004-78", Lap: 2, LapTime: 90.6, TireAge: 1}, records[1])
	assert.Equal(t, strategy.LapRecord{VehicleID: "GR86-011-13", Lap: 1, LapTime: 91.4, TireAge: 0}, records[2])
}

func TestReadLapTimes_ExplicitTireAgeColumn(t *testing.T) {
	src := strings.NewReader(
		"vehicle_id,lap,value,tire_age\n" +
			"GR86-004-78,5,90.1,12\n" +
			"GR86-004-78,6,90.4,13\n")

	records, _, err := ReadLapTimes(src)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 12, records[0].TireAge)
	assert.Equal(t, 13, records[1].TireAge)
}

func TestReadLapTimes_MalformedRowsDroppedWithWarning(t *testing.T) {
	src := strings.NewReader(
		"vehicle_id,lap,value\n" +
			"GR86-004-78,1,90.1\n" +
			"GR86-004-78,notanumber,90.3\n" +
			"GR86-004-78,3,-5.0\n" +
			",4,90.9\n" +
			"GR86-004-78,5,91.0\n")

	records, warnings, err := ReadLapTimes(src)
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Len(t, warnings, 3)
	for _, w := range warnings {
		assert.Contains(t, w, "skipping lap-time row")
	}
}

func TestReadLapTimes_MissingColumn(t *testing.T) {
	src := strings.NewReader("vehicle_id,lap\nGR86-004-78,1\n")
	_, _, err := ReadLapTimes(src)
	var cfgErr *strategy.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Msg, "value")
}

func TestReadLapTimes_HeaderCaseAndPadding(t *testing.T) {
	src := strings.NewReader(
		" Vehicle_ID , LAP , Value \n" +
			"GR86-004-78,1,90.1\n")
	records, _, err := ReadLapTimes(src)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "GR86-004-78", records[0].VehicleID)
}

func TestLoadLapTimes_FromDisk(t *testing.T) {
	path := writeTempCSV(t, "laps.csv",
		"vehicle_id,lap,value\nGR86-004-78,1,90.1\n")
	records, _, err := LoadLapTimes(path)
	require.NoError(t, err)
	assert.Len(t, records, 1)

	_, _, err = LoadLapTimes(filepath.Join(t.TempDir(), "absent.csv"))
	assert.Error(t, err)
}

func TestVehiclesAndFilter(t *testing.T) {
	records := []strategy.LapRecord{
		{VehicleID: "GR86-011-13", Lap: 1},
		{VehicleID: "GR86-004-78", Lap: 1},
		{VehicleID: "GR86-004-78", Lap: 2},
	}
	assert.Equal(t, []string{"GR86-004-78", "GR86-011-13"}, Vehicles(records))

	only := FilterVehicle(records, "GR86-004-78")
	require.Len(t, only, 2)
	assert.Equal(t, 1, only[0].Lap)
	assert.Equal(t, 2, only[1].Lap)
}

func TestParseVehicleID(t *testing.T) {
	cases := []struct {
		raw     string
		ok      bool
		chassis string
		car     int
	}{
		{"GR86-004-78", true, "GR86-004", 78},
		{"GR86-13", true, "GR86", 13},
		{" GR86-004-78 ", true, "GR86-004", 78},
		{"GR86", false, "", 0},
		{"GR86-004-abc", false, "", 0},
		{"", false, "", 0},
	}
	for _, tc := range cases {
		id, ok := ParseVehicleID(tc.raw)
		assert.Equal(t, tc.ok, ok, "raw=%q", tc.raw)
		if tc.ok {
			assert.Equal(t, tc.chassis, id.Chassis, "raw=%q", tc.raw)
			assert.Equal(t, tc.car, id.CarNumber, "raw=%q", tc.raw)
		}
	}
}
