// Package traffic reconstructs running order from lap timing and flags
// undercut/overcut opportunities. It is independent of the optimizer; the
// Model type implements strategy.TrafficContext.
package traffic

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/race-engineer/race-engineer/strategy"
)

// TimingRow is one raw timing record for one car on one lap, as delivered
// by the endurance-timing loader. Elapsed stays a string; parsing it is
// this package's input-adaptation responsibility.
type TimingRow struct {
	CarNumber int
	LapNumber int
	Elapsed   string
}

// Config holds the tunable detection thresholds. The values are documented
// defaults, not physical law.
type Config struct {
	MinTireAgeDelta int     // rival must be at least this many laps older
	HighAdvantage   float64 // seconds of net advantage for high confidence
	MediumAdvantage float64 // seconds of net advantage for medium confidence
	HighAgeDelta    int     // age delta backing a high-confidence call
	MediumAgeDelta  int     // age delta backing a medium-confidence call
	ProximityWindow float64 // seconds; rivals beyond this are ignored
	CloseGap        float64 // seconds; following closer than this costs time
	FollowPenalty   float64 // seconds lost per lap when glued to the car ahead
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		MinTireAgeDelta: 5,
		HighAdvantage:   2.0,
		MediumAdvantage: 1.0,
		HighAgeDelta:    10,
		MediumAgeDelta:  7,
		ProximityWindow: 30.0,
		CloseGap:        2.0,
		FollowPenalty:   0.5,
	}
}

// Option adjusts detection thresholds at construction.
type Option func(*Config)

// WithMinTireAgeDelta overrides the minimum rival tire-age delta.
func WithMinTireAgeDelta(laps int) Option {
	return func(c *Config) { c.MinTireAgeDelta = laps }
}

// WithProximityWindow overrides the rival proximity window in seconds.
func WithProximityWindow(seconds float64) Option {
	return func(c *Config) { c.ProximityWindow = seconds }
}

// WithAdvantageCutoffs overrides the confidence grading cutoffs.
func WithAdvantageCutoffs(high, medium float64, highAge, mediumAge int) Option {
	return func(c *Config) {
		c.HighAdvantage = high
		c.MediumAdvantage = medium
		c.HighAgeDelta = highAge
		c.MediumAgeDelta = mediumAge
	}
}

type carTime struct {
	car     int
	elapsed float64
}

// Model answers field-position queries over a set of parsed timing rows.
// Immutable after New; positions are re-derived on every query.
type Model struct {
	cfg      Config
	byLap    map[int][]carTime
	warnings []string
}

// New parses the timing rows into a Model. A row with a malformed elapsed
// string or an invalid lap/car number is dropped with an accumulated
// warning; only an entirely empty row set is an error.
func New(rows []TimingRow, opts ...Option) (*Model, error) {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.MinTireAgeDelta < 0 || cfg.ProximityWindow < 0 {
		return nil, &strategy.ConfigError{Field: "traffic", Msg: "thresholds must be non-negative"}
	}

	m := &Model{cfg: cfg, byLap: make(map[int][]carTime)}
	for _, row := range rows {
		if row.LapNumber < 1 || row.CarNumber < 1 {
			m.warn(fmt.Sprintf("dropping timing row for car %d: invalid lap %d", row.CarNumber, row.LapNumber))
			continue
		}
		elapsed, err := ParseElapsed(row.Elapsed)
		if err != nil {
			m.warn(fmt.Sprintf("dropping timing row for car %d lap %d: %v", row.CarNumber, row.LapNumber, err))
			continue
		}
		m.byLap[row.LapNumber] = append(m.byLap[row.LapNumber], carTime{car: row.CarNumber, elapsed: elapsed})
	}
	if len(m.byLap) == 0 {
		return nil, &strategy.ConfigError{Field: "timing_rows", Msg: "no usable timing rows"}
	}
	return m, nil
}

func (m *Model) warn(msg string) {
	logrus.Warn(msg)
	m.warnings = append(m.warnings, msg)
}

// Warnings reports the rows dropped during construction.
func (m *Model) Warnings() []string { return m.warnings }

// Laps returns the lap numbers present in the timing data, ascending.
func (m *Model) Laps() []int {
	laps := lo.Keys(m.byLap)
	sort.Ints(laps)
	return laps
}

// RunningOrder returns the lap snapshot sorted by elapsed time ascending,
// ties broken by car number for determinism. Positions are a contiguous
// 1..k ranking. TireAge is -1: the timing feed does not carry it.
func (m *Model) RunningOrder(lap int) []strategy.RunningOrderEntry {
	times, ok := m.byLap[lap]
	if !ok {
		return nil
	}
	sorted := make([]carTime, len(times))
	copy(sorted, times)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].elapsed != sorted[j].elapsed {
			return sorted[i].elapsed < sorted[j].elapsed
		}
		return sorted[i].car < sorted[j].car
	})

	leader := sorted[0].elapsed
	entries := make([]strategy.RunningOrderEntry, len(sorted))
	for i, ct := range sorted {
		gapAhead := 0.0
		if i > 0 {
			gapAhead = ct.elapsed - sorted[i-1].elapsed
		}
		entries[i] = strategy.RunningOrderEntry{
			CarNumber:   ct.car,
			Position:    i + 1,
			ElapsedTime: ct.elapsed,
			GapToLeader: ct.elapsed - leader,
			GapToAhead:  gapAhead,
			TireAge:     -1,
		}
	}
	return entries
}

// FieldPosition returns the car's entry in the lap snapshot.
func (m *Model) FieldPosition(carNumber, lap int) (strategy.RunningOrderEntry, bool) {
	for _, e := range m.RunningOrder(lap) {
		if e.CarNumber == carNumber {
			return e, true
		}
	}
	return strategy.RunningOrderEntry{}, false
}

// PositionAfterPit projects the car's elapsed time forward by pitCost while
// every other car holds its last known snapshot time, then re-ranks. No
// forward extrapolation of competitors — a stated simplification.
func (m *Model) PositionAfterPit(carNumber, lap int, pitCost float64) (int, bool) {
	times, ok := m.byLap[lap]
	if !ok {
		return 0, false
	}
	adjusted := make([]carTime, 0, len(times))
	found := false
	for _, ct := range times {
		if ct.car == carNumber {
			ct.elapsed += pitCost
			found = true
		}
		adjusted = append(adjusted, ct)
	}
	if !found {
		return 0, false
	}
	sort.Slice(adjusted, func(i, j int) bool {
		if adjusted[i].elapsed != adjusted[j].elapsed {
			return adjusted[i].elapsed < adjusted[j].elapsed
		}
		return adjusted[i].car < adjusted[j].car
	})
	for i, ct := range adjusted {
		if ct.car == carNumber {
			return i + 1, true
		}
	}
	return 0, false // unreachable
}

// DetectUndercuts scans the cars ahead within the proximity window for
// rivals whose tires are at least MinTireAgeDelta laps older than the
// subject's. Net advantage of pitting now against such a rival is
//
//	rate * ageDelta - (gapToRival + pitCost)
//
// Positive net advantage emits an Opportunity; results are sorted by net
// advantage descending. Cars missing from tireAges are skipped.
func (m *Model) DetectUndercuts(
	carNumber, lap int,
	model strategy.DegradationModel,
	pitCost float64,
	tireAges map[int]int,
) []strategy.Opportunity {
	subject, ok := m.FieldPosition(carNumber, lap)
	if !ok || len(tireAges) == 0 {
		return nil
	}
	ownAge, ok := tireAges[carNumber]
	if !ok {
		return nil
	}

	var opps []strategy.Opportunity
	for _, rival := range m.RunningOrder(lap) {
		if rival.Position >= subject.Position {
			continue
		}
		gap := subject.ElapsedTime - rival.ElapsedTime
		if gap > m.cfg.ProximityWindow {
			continue
		}
		rivalAge, ok := tireAges[rival.CarNumber]
		if !ok {
			continue
		}
		delta := rivalAge - ownAge
		if delta < m.cfg.MinTireAgeDelta {
			continue
		}
		net := model.RatePerLap*float64(delta) - (gap + pitCost)
		if net <= 0 {
			continue
		}
		opps = append(opps, strategy.Opportunity{
			Kind:           strategy.KindUndercut,
			TargetCar:      rival.CarNumber,
			TargetPosition: rival.Position,
			TireAgeDelta:   delta,
			NetAdvantage:   net,
			Confidence:     m.grade(net, delta),
		})
	}
	sort.Slice(opps, func(i, j int) bool {
		if opps[i].NetAdvantage != opps[j].NetAdvantage {
			return opps[i].NetAdvantage > opps[j].NetAdvantage
		}
		return opps[i].TargetCar < opps[j].TargetCar
	})
	return opps
}

// DetectOvercuts is the role-reversed scan: rivals ahead who are expected
// to pit soon. Staying out gains while they pay the pit cost; the
// degradation term now works against the subject, whose older tires bleed
// time for each lap of age advantage the rival will regain.
func (m *Model) DetectOvercuts(
	carNumber, lap int,
	model strategy.DegradationModel,
	pitCost float64,
	tireAges map[int]int,
	pittingSoon []int,
) []strategy.Opportunity {
	subject, ok := m.FieldPosition(carNumber, lap)
	if !ok || len(pittingSoon) == 0 {
		return nil
	}
	ownAge := tireAges[carNumber]

	var opps []strategy.Opportunity
	for _, rival := range m.RunningOrder(lap) {
		if rival.Position >= subject.Position || !lo.Contains(pittingSoon, rival.CarNumber) {
			continue
		}
		gap := subject.ElapsedTime - rival.ElapsedTime
		if gap > m.cfg.ProximityWindow {
			continue
		}
		delta := tireAges[rival.CarNumber] - ownAge
		net := pitCost - gap - model.RatePerLap*float64(ownAge)
		if net <= 0 {
			continue
		}
		opps = append(opps, strategy.Opportunity{
			Kind:           strategy.KindOvercut,
			TargetCar:      rival.CarNumber,
			TargetPosition: rival.Position,
			TireAgeDelta:   delta,
			NetAdvantage:   net,
			Confidence:     m.grade(net, delta),
		})
	}
	sort.Slice(opps, func(i, j int) bool {
		if opps[i].NetAdvantage != opps[j].NetAdvantage {
			return opps[i].NetAdvantage > opps[j].NetAdvantage
		}
		return opps[i].TargetCar < opps[j].TargetCar
	})
	return opps
}

// grade maps net advantage and age delta onto a confidence tier.
func (m *Model) grade(net float64, ageDelta int) strategy.Confidence {
	switch {
	case net > m.cfg.HighAdvantage && ageDelta >= m.cfg.HighAgeDelta:
		return strategy.ConfidenceHigh
	case net > m.cfg.MediumAdvantage && ageDelta >= m.cfg.MediumAgeDelta:
		return strategy.ConfidenceMedium
	default:
		return strategy.ConfidenceLow
	}
}

// CarsWithinWindow returns every other car whose elapsed time on the lap is
// within window seconds of the subject's, ahead or behind.
func (m *Model) CarsWithinWindow(carNumber, lap int, window float64) []strategy.RunningOrderEntry {
	subject, ok := m.FieldPosition(carNumber, lap)
	if !ok {
		return nil
	}
	return lo.Filter(m.RunningOrder(lap), func(e strategy.RunningOrderEntry, _ int) bool {
		if e.CarNumber == carNumber {
			return false
		}
		diff := e.ElapsedTime - subject.ElapsedTime
		return diff >= -window && diff <= window
	})
}

// TrafficImpact estimates seconds lost to close following over the next
// lapsAhead laps of timing data: each lap where the gap to the car ahead is
// under CloseGap costs a proportional share of FollowPenalty. Always
// non-negative; laps without data contribute nothing.
func (m *Model) TrafficImpact(carNumber, lap, lapsAhead int) float64 {
	loss := 0.0
	for l := lap; l < lap+lapsAhead; l++ {
		entry, ok := m.FieldPosition(carNumber, l)
		if !ok || entry.Position == 1 {
			continue
		}
		if entry.GapToAhead < m.cfg.CloseGap {
			loss += m.cfg.FollowPenalty * (1 - entry.GapToAhead/m.cfg.CloseGap)
		}
	}
	return loss
}
