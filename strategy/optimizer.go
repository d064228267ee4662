package strategy

import "fmt"

// TrafficContext supplies field-position answers to the optimizer. The
// canonical implementation is strategy/traffic.Model.
type TrafficContext interface {
	// FieldPosition returns the car's entry in the lap snapshot, or false
	// if the car or lap is unknown.
	FieldPosition(carNumber, lap int) (RunningOrderEntry, bool)
	// PositionAfterPit re-ranks the car after adding pitCost to its elapsed
	// time while all other cars hold their snapshot times.
	PositionAfterPit(carNumber, lap int, pitCost float64) (int, bool)
	// DetectUndercuts scans nearby rivals for undercut openings.
	DetectUndercuts(carNumber, lap int, model DegradationModel, pitCost float64, tireAges map[int]int) []Opportunity
}

// CautionContext supplies expected-value analysis across caution-response
// strategies. The canonical implementation is strategy/caution.Evaluator.
type CautionContext interface {
	// Evaluate scores pit-now vs wait-for-caution vs the deterministic
	// optimum. best is the optimizer's chosen candidate; noPitBaseline is
	// the never-pit total.
	Evaluate(state RaceState, best CandidateStrategy, noPitBaseline float64) *CautionAnalysis
}

// Optimizer searches candidate stop laps for minimum total race time and
// assembles the final Recommendation. Traffic and Caution are optional;
// when nil the corresponding annotations are skipped.
type Optimizer struct {
	Traffic   TrafficContext
	Caution   CautionContext
	CarNumber int         // subject car in the traffic snapshot
	TireAges  map[int]int // tire age by car number, for undercut detection
}

// Optimize evaluates every candidate pit lap in (CurrentLap, RaceLaps] and
// recommends the one minimizing total projected race time. Ties break to
// the earliest lap. Pure: identical inputs yield identical output.
func (o *Optimizer) Optimize(state RaceState) (*Recommendation, error) {
	if err := validateState(state); err != nil {
		return nil, err
	}

	if state.RaceLaps <= state.CurrentLap {
		// Race essentially over. Not an error; a defined no-action result.
		return &Recommendation{
			Action:     ActionStayOut,
			Reason:     ReasonTooFewLaps,
			Confidence: ConfidenceHigh,
		}, nil
	}

	baseline := state.NoPitTotal()
	pitCost := state.EffectivePitCost()

	candidates := make([]CandidateStrategy, 0, state.RaceLaps-state.CurrentLap)
	best := 0 // index into candidates
	for p := state.CurrentLap + 1; p <= state.RaceLaps; p++ {
		total := state.ProjectedTotal(p, pitCost)
		candidates = append(candidates, CandidateStrategy{
			PitLap:       p,
			ExpectedTime: total,
			TimeSaved:    baseline - total,
		})
		if total < candidates[best].ExpectedTime {
			best = len(candidates) - 1
		}
	}
	chosen := candidates[best]

	rec := &Recommendation{
		PitLap:     chosen.PitLap,
		TimeSaved:  chosen.TimeSaved,
		Candidates: candidates,
	}
	switch {
	case state.TargetStint > 0 && state.TireAge >= state.TargetStint:
		// Stint cap reached: pit next lap regardless of the time model.
		rec.Action = ActionPitNow
		rec.PitLap = state.CurrentLap + 1
		rec.Reason = ReasonStintTarget
		rec.Confidence = ConfidenceHigh
		rec.TimeSaved = candidates[0].TimeSaved
	case chosen.TimeSaved <= 0:
		rec.Action = ActionStayOut
		rec.Reason = ReasonNoNetBenefit
		rec.Confidence = ConfidenceMedium
	case chosen.PitLap == state.CurrentLap+1:
		rec.Action = ActionPitNow
		rec.Reason = ReasonNetGain
		rec.Confidence = ConfidenceMedium
	default:
		rec.Action = ActionPitAtLap
		rec.Reason = ReasonNetGain
		rec.Confidence = ConfidenceMedium
	}

	if o.Traffic != nil {
		o.annotateTraffic(rec, state)
	}
	if o.Caution != nil {
		o.applyCaution(rec, state, chosen, baseline)
	}
	return rec, nil
}

// annotateTraffic attaches field position and undercut context. A detected
// undercut whose projected gain beats the deterministic time saved takes
// priority over the computed window.
func (o *Optimizer) annotateTraffic(rec *Recommendation, state RaceState) {
	entry, ok := o.Traffic.FieldPosition(o.CarNumber, state.CurrentLap)
	if !ok {
		rec.Warnings = append(rec.Warnings,
			fmt.Sprintf("car %d not found in lap %d snapshot; skipping traffic annotation",
				o.CarNumber, state.CurrentLap))
		return
	}
	ann := &PositionAnnotation{
		Current:     entry.Position,
		GapToLeader: entry.GapToLeader,
		GapToAhead:  entry.GapToAhead,
		AfterPit:    entry.Position,
	}
	if after, ok := o.Traffic.PositionAfterPit(o.CarNumber, state.CurrentLap, state.PitTimeCost); ok {
		ann.AfterPit = after
	}
	rec.Position = ann

	opps := o.Traffic.DetectUndercuts(o.CarNumber, state.CurrentLap, state.Degradation,
		state.PitTimeCost, o.TireAges)
	rec.Undercuts = opps
	for _, opp := range opps {
		if opp.NetAdvantage > rec.TimeSaved {
			rec.Action = ActionPitNow
			rec.PitLap = state.CurrentLap + 1
			rec.Reason = ReasonUndercutWindow
			rec.Confidence = opp.Confidence
			break // opportunities arrive sorted by advantage descending
		}
	}
}

// applyCaution lets the expected-value analysis override the deterministic
// choice; the caller opted in by supplying a CautionContext.
func (o *Optimizer) applyCaution(rec *Recommendation, state RaceState, chosen CandidateStrategy, baseline float64) {
	analysis := o.Caution.Evaluate(state, chosen, baseline)
	rec.Caution = analysis
	rec.Confidence = analysis.Confidence
	switch analysis.Chosen {
	case StrategyPitNow:
		rec.Action = ActionPitNow
		rec.PitLap = state.CurrentLap + 1
		rec.Reason = ReasonCautionValue
		rec.TimeSaved = analysis.ExpectedTimeSaved
	case StrategyWaitForCaution:
		rec.Action = ActionWaitForCaution
		rec.Reason = ReasonCautionValue
		rec.TimeSaved = analysis.ExpectedTimeSaved
	default:
		// StrategyOptimalTiming: keep the deterministic action.
	}
}

// Caution-response strategy names shared between the optimizer and the
// caution evaluator.
const (
	StrategyPitNow         = "pit_now"
	StrategyWaitForCaution = "wait_for_caution"
	StrategyOptimalTiming  = "optimal_timing"
)

func validateState(state RaceState) error {
	if state.CurrentLap < 1 {
		return &ConfigError{Field: "current_lap", Msg: fmt.Sprintf("must be >= 1, got %d", state.CurrentLap)}
	}
	if state.TireAge < 0 {
		return &ConfigError{Field: "tire_age", Msg: fmt.Sprintf("must be >= 0, got %d", state.TireAge)}
	}
	if state.TargetStint < 0 {
		return &ConfigError{Field: "target_stint", Msg: fmt.Sprintf("must be >= 0, got %d", state.TargetStint)}
	}
	if state.RaceLaps < 1 {
		return &ConfigError{Field: "race_laps", Msg: fmt.Sprintf("must be >= 1, got %d", state.RaceLaps)}
	}
	if state.PitTimeCost <= 0 {
		return &ConfigError{Field: "pit_time_cost", Msg: fmt.Sprintf("must be > 0, got %g", state.PitTimeCost)}
	}
	if state.Degradation.BaseLapTime <= 0 {
		return &ConfigError{Field: "base_lap_time", Msg: fmt.Sprintf("must be > 0, got %g", state.Degradation.BaseLapTime)}
	}
	if state.Degradation.RatePerLap < 0 {
		return &ConfigError{Field: "degradation_rate", Msg: fmt.Sprintf("must be >= 0, got %g", state.Degradation.RatePerLap)}
	}
	return nil
}
