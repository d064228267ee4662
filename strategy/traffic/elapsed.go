package traffic

import (
	"strconv"
	"strings"

	"github.com/race-engineer/race-engineer/strategy"
)

// ParseElapsed converts a timing string into seconds. Accepted forms are
// SS.mmm, MM:SS.mmm and HH:MM:SS.mmm. A failure is a MalformedTimingError;
// callers drop the record and continue.
func ParseElapsed(value string) (float64, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return 0, &strategy.MalformedTimingError{Value: value, Msg: "empty"}
	}
	parts := strings.Split(trimmed, ":")
	if len(parts) > 3 {
		return 0, &strategy.MalformedTimingError{Value: value, Msg: "too many ':' separators"}
	}

	// The last field carries the fractional seconds; leading fields are
	// whole hours/minutes.
	seconds, err := strconv.ParseFloat(parts[len(parts)-1], 64)
	if err != nil || seconds < 0 {
		return 0, &strategy.MalformedTimingError{Value: value, Msg: "bad seconds field"}
	}
	total := seconds
	multiplier := 60.0
	for i := len(parts) - 2; i >= 0; i-- {
		unit, err := strconv.Atoi(strings.TrimSpace(parts[i]))
		if err != nil || unit < 0 {
			return 0, &strategy.MalformedTimingError{Value: value, Msg: "bad hours/minutes field"}
		}
		total += float64(unit) * multiplier
		multiplier *= 60
	}
	return total, nil
}
