// Package caution weighs "pit now" against "wait for a yellow flag" using
// expected-value analysis over a Poisson caution process. Evaluator
// implements strategy.CautionContext; it is independent of the optimizer.
package caution

import (
	"fmt"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/race-engineer/race-engineer/strategy"
)

// Default tuning. PitFactor matches the optimizer's under-caution discount;
// the confidence cutoffs grade the margin over the runner-up strategy.
const (
	defaultPitFactor     = 0.5
	defaultLookaheadLaps = 10

	highConfidenceGap   = 1.5
	mediumConfidenceGap = 0.5
)

// Evaluator scores caution-response strategies for a race context. Stateless
// between calls; safe for concurrent use.
type Evaluator struct {
	cautionsPerRace float64 // season-style rate λ: expected cautions per full race
	lookaheadLaps   int
	pitFactor       float64
}

// Option adjusts evaluator tuning.
type Option func(*Evaluator)

// WithPitFactor overrides the fraction of the pit cost paid under caution.
func WithPitFactor(f float64) Option {
	return func(e *Evaluator) { e.pitFactor = f }
}

// New builds an Evaluator. Fails with ConfigError on a negative caution
// rate or a non-positive lookahead.
func New(cautionsPerRace float64, lookaheadLaps int, opts ...Option) (*Evaluator, error) {
	if cautionsPerRace < 0 {
		return nil, &strategy.ConfigError{Field: "cautions_per_race", Msg: fmt.Sprintf("must be >= 0, got %g", cautionsPerRace)}
	}
	if lookaheadLaps <= 0 {
		return nil, &strategy.ConfigError{Field: "lookahead_laps", Msg: fmt.Sprintf("must be > 0, got %d", lookaheadLaps)}
	}
	e := &Evaluator{
		cautionsPerRace: cautionsPerRace,
		lookaheadLaps:   lookaheadLaps,
		pitFactor:       defaultPitFactor,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Probability is P(at least one caution within the next lookahead laps),
// modeling cautions as a Poisson process over remaining race distance:
// the window rate is λ · lookahead/raceLaps and P = 1 − PMF(0).
func (e *Evaluator) Probability(raceLaps int) float64 {
	if raceLaps <= 0 || e.cautionsPerRace == 0 {
		// Poisson PMF at zero rate is 0*log(0); handle the no-caution
		// process directly.
		return 0
	}
	window := distuv.Poisson{Lambda: e.cautionsPerRace * float64(e.lookaheadLaps) / float64(raceLaps)}
	return 1 - window.Prob(0)
}

// Evaluate scores three mutually exclusive strategies and picks the lowest
// expected total:
//
//   - pit_now: deterministic total pitting next lap at the effective pit
//     cost (discounted when a caution is already active).
//   - wait_for_caution: P-weighted mix of pitting mid-window at the
//     discounted cost and, if no caution comes, falling back to the
//     optimizer's deterministic candidate at full cost.
//   - optimal_timing: the deterministic optimum, unweighted, as a baseline.
//
// best is the optimizer's chosen candidate; noPitBaseline its never-pit
// total. Confidence grades the gap to the runner-up strategy.
func (e *Evaluator) Evaluate(state strategy.RaceState, best strategy.CandidateStrategy, noPitBaseline float64) *strategy.CautionAnalysis {
	p := e.Probability(state.RaceLaps)

	pitNow := state.ProjectedTotal(min(state.CurrentLap+1, state.RaceLaps), state.EffectivePitCost())

	// Assume an in-window caution lands mid-window; clamp the resulting
	// stop lap into the candidate range.
	waitLap := state.CurrentLap + (e.lookaheadLaps+1)/2
	if waitLap > state.RaceLaps {
		waitLap = state.RaceLaps
	}
	if waitLap <= state.CurrentLap {
		waitLap = state.CurrentLap + 1
	}
	underCaution := state.ProjectedTotal(waitLap, state.PitTimeCost*e.pitFactor)
	noLuck := state.ProjectedTotal(best.PitLap, state.PitTimeCost)
	wait := p*underCaution + (1-p)*noLuck

	strategies := []strategy.StrategyScore{
		{Name: strategy.StrategyPitNow, ExpectedTime: pitNow},
		{Name: strategy.StrategyWaitForCaution, ExpectedTime: wait},
		{Name: strategy.StrategyOptimalTiming, ExpectedTime: best.ExpectedTime},
	}

	chosen, margin := pickLowest(strategies)
	return &strategy.CautionAnalysis{
		Chosen:            chosen.Name,
		Confidence:        gradeMargin(margin),
		Probability:       p,
		ExpectedTimeSaved: noPitBaseline - chosen.ExpectedTime,
		Scenarios: []strategy.CautionScenario{
			{Name: "caution_within_window", Probability: p, ExpectedTime: underCaution},
			{Name: "no_caution", Probability: 1 - p, ExpectedTime: noLuck},
		},
		Strategies: strategies,
	}
}

// pickLowest returns the lowest-expected-time strategy and its margin over
// the runner-up. Ties keep declaration order, so pit_now wins exact ties.
func pickLowest(scores []strategy.StrategyScore) (strategy.StrategyScore, float64) {
	best, second := 0, -1
	for i := 1; i < len(scores); i++ {
		switch {
		case scores[i].ExpectedTime < scores[best].ExpectedTime:
			second = best
			best = i
		case second == -1 || scores[i].ExpectedTime < scores[second].ExpectedTime:
			second = i
		}
	}
	return scores[best], scores[second].ExpectedTime - scores[best].ExpectedTime
}

func gradeMargin(margin float64) strategy.Confidence {
	switch {
	case margin > highConfidenceGap:
		return strategy.ConfidenceHigh
	case margin > mediumConfidenceGap:
		return strategy.ConfidenceMedium
	default:
		return strategy.ConfidenceLow
	}
}
