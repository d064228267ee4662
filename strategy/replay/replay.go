// Package replay steps through a vehicle's lap records one at a time, the
// way a live timing feed would deliver them. The dashboard layer drives a
// Stepper once per tick; tests drive it with a no-op delay.
package replay

import (
	"context"
	"sort"
	"time"

	"github.com/race-engineer/race-engineer/strategy"
)

// minPace is the floor on the delay between replayed laps.
const minPace = 10 * time.Millisecond

// Stepper replays lap records in lap order at a configurable speed.
type Stepper struct {
	laps  []strategy.LapRecord
	pos   int
	speed float64
}

// New copies and lap-orders the records. A speed of laps-per-second <= 0 is
// coerced to 1.0.
func New(laps []strategy.LapRecord, speed float64) *Stepper {
	if speed <= 0 {
		speed = 1.0
	}
	ordered := make([]strategy.LapRecord, len(laps))
	copy(ordered, laps)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].Lap < ordered[j].Lap })
	return &Stepper{laps: ordered, speed: speed}
}

// HasNext reports whether another lap remains.
func (s *Stepper) HasNext() bool { return s.pos < len(s.laps) }

// Next returns the next lap record, or false when the replay is exhausted.
func (s *Stepper) Next() (strategy.LapRecord, bool) {
	if !s.HasNext() {
		return strategy.LapRecord{}, false
	}
	rec := s.laps[s.pos]
	s.pos++
	return rec, true
}

// Pos is the number of laps already replayed.
func (s *Stepper) Pos() int { return s.pos }

// Reset rewinds the replay to the first lap.
func (s *Stepper) Reset() { s.pos = 0 }

// Pace is the delay between replayed laps: 1/speed seconds, floored at
// minPace.
func (s *Stepper) Pace() time.Duration {
	pace := time.Duration(float64(time.Second) / s.speed)
	if pace < minPace {
		pace = minPace
	}
	return pace
}

// Replay drives fn once per remaining lap, waiting Pace() between laps via
// delay (time.Sleep when nil). It stops early when ctx is canceled or fn
// returns an error.
func (s *Stepper) Replay(ctx context.Context, fn func(strategy.LapRecord) error, delay func(time.Duration)) error {
	if delay == nil {
		delay = time.Sleep
	}
	for s.HasNext() {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, _ := s.Next()
		if err := fn(rec); err != nil {
			return err
		}
		if s.HasNext() {
			delay(s.Pace())
		}
	}
	return nil
}
