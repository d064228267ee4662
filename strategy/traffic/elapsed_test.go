package traffic

import (
	"errors"
	"math"
	"testing"

	"github.com/race-engineer/race-engineer/strategy"
)

func TestParseElapsed_AcceptedFormats(t *testing.T) {
	cases := []struct {
		in   string
		want float64
	}{
		{"1:40.123", 100.123},
		{"45:30.456", 2730.456},
		{"1:23:45.789", 5025.789},
		{"95.5", 95.5},
		{" 1:40.0 ", 100.0},
	}
	for _, tc := range cases {
		got, err := ParseElapsed(tc.in)
		if err != nil {
			t.Errorf("ParseElapsed(%q): %v", tc.in, err)
			continue
		}
		if math.Abs(got-tc.want) > 0.01 {
			t.Errorf("ParseElapsed(%q) = %.3f, want %.3f", tc.in, got, tc.want)
		}
	}
}

func TestParseElapsed_Malformed(t *testing.T) {
	for _, in := range []string{"", "abc", "1:2:3:4", "1:xx.0", "-5.0", "1:-30.0"} {
		_, err := ParseElapsed(in)
		var malformed *strategy.MalformedTimingError
		if !errors.As(err, &malformed) {
			t.Errorf("ParseElapsed(%q): got %v, want MalformedTimingError", in, err)
		}
	}
}
