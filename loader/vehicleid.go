package loader

import (
	"strconv"
	"strings"
)

// VehicleID is a parsed vehicle identifier such as "GR86-004-78": a chassis
// designation plus a trailing car number.
type VehicleID struct {
	Raw       string
	Chassis   string
	CarNumber int
}

// ParseVehicleID extracts the trailing numeric car number from a
// dash-separated vehicle identifier. Returns false when no trailing number
// exists; the traffic model cannot be joined without one.
func ParseVehicleID(raw string) (VehicleID, bool) {
	trimmed := strings.TrimSpace(raw)
	parts := strings.Split(trimmed, "-")
	if len(parts) < 2 {
		return VehicleID{Raw: raw}, false
	}
	num, err := strconv.Atoi(parts[len(parts)-1])
	if err != nil || num < 0 {
		return VehicleID{Raw: raw}, false
	}
	return VehicleID{
		Raw:       raw,
		Chassis:   strings.Join(parts[:len(parts)-1], "-"),
		CarNumber: num,
	}, true
}
