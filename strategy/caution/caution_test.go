package caution

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/race-engineer/race-engineer/strategy"
)

func testState() strategy.RaceState {
	return strategy.RaceState{
		CurrentLap:  10,
		TireAge:     5,
		RaceLaps:    30,
		PitTimeCost: 25.0,
		Degradation: strategy.DegradationModel{BaseLapTime: 90.0, RatePerLap: 0.3},
	}
}

// deterministicBest runs the plain optimizer to obtain the candidate the
// evaluator uses as its no-caution fallback.
func deterministicBest(t *testing.T, state strategy.RaceState) (strategy.CandidateStrategy, float64) {
	t.Helper()
	rec, err := (&strategy.Optimizer{}).Optimize(state)
	require.NoError(t, err)
	baseline := state.NoPitTotal()
	for _, c := range rec.Candidates {
		if c.PitLap == rec.PitLap {
			return c, baseline
		}
	}
	t.Fatal("chosen candidate missing from table")
	return strategy.CandidateStrategy{}, 0
}

func TestNew_InvalidConfig(t *testing.T) {
	var cfgErr *strategy.ConfigError
	_, err := New(-0.1, 10)
	require.True(t, errors.As(err, &cfgErr))
	_, err = New(2.0, 0)
	require.True(t, errors.As(err, &cfgErr))
	_, err = New(2.0, -3)
	require.True(t, errors.As(err, &cfgErr))
}

func TestProbability_ReferenceValue(t *testing.T) {
	// λ=2.0 over a 30-lap race, 10-lap window: P = 1 - exp(-2/3) ≈ 0.4866
	e, err := New(2.0, 10)
	require.NoError(t, err)
	assert.InDelta(t, 0.4866, e.Probability(30), 1e-3)
}

func TestProbability_ZeroRate(t *testing.T) {
	// GIVEN a race with no cautions expected
	e, err := New(0.0, 10)
	require.NoError(t, err)

	// WHEN the window probability is computed
	p := e.Probability(30)

	// THEN it is exactly zero, not NaN
	assert.False(t, math.IsNaN(p))
	assert.Equal(t, 0.0, p)
}

func TestProbability_Bounds(t *testing.T) {
	for _, lam := range []float64{0, 0.5, 2, 10, 100} {
		e, err := New(lam, 10)
		require.NoError(t, err)
		p := e.Probability(30)
		assert.GreaterOrEqual(t, p, 0.0, "λ=%g", lam)
		assert.LessOrEqual(t, p, 1.0, "λ=%g", lam)
	}
}

func TestProbability_IncreasesWithRate(t *testing.T) {
	prev := -1.0
	for _, lam := range []float64{0.5, 1, 2, 4, 8} {
		e, err := New(lam, 10)
		require.NoError(t, err)
		p := e.Probability(30)
		if p <= prev {
			t.Errorf("λ=%g: P=%.6f did not increase past %.6f", lam, p, prev)
		}
		prev = p
	}
}

func TestProbability_IncreasesWithLookahead(t *testing.T) {
	prev := -1.0
	for _, window := range []int{1, 5, 10, 20} {
		e, err := New(2.0, window)
		require.NoError(t, err)
		p := e.Probability(30)
		if p <= prev {
			t.Errorf("lookahead=%d: P=%.6f did not increase past %.6f", window, p, prev)
		}
		prev = p
	}
}

func TestEvaluate_ScenarioWeightsSumToOne(t *testing.T) {
	e, err := New(2.0, 10)
	require.NoError(t, err)
	state := testState()
	best, baseline := deterministicBest(t, state)

	analysis := e.Evaluate(state, best, baseline)
	sum := 0.0
	for _, sc := range analysis.Scenarios {
		assert.GreaterOrEqual(t, sc.Probability, 0.0)
		assert.LessOrEqual(t, sc.Probability, 1.0)
		sum += sc.Probability
	}
	assert.InDelta(t, 1.0, sum, 1e-9)
}

func TestEvaluate_ChoosesLowestExpectedTotal(t *testing.T) {
	e, err := New(2.0, 10)
	require.NoError(t, err)
	state := testState()
	best, baseline := deterministicBest(t, state)

	analysis := e.Evaluate(state, best, baseline)
	require.Len(t, analysis.Strategies, 3)
	var chosenTime float64
	found := false
	for _, s := range analysis.Strategies {
		if s.Name == analysis.Chosen {
			chosenTime = s.ExpectedTime
			found = true
		}
	}
	require.True(t, found)
	for _, s := range analysis.Strategies {
		assert.LessOrEqual(t, chosenTime, s.ExpectedTime, "strategy %s", s.Name)
	}
	assert.InDelta(t, baseline-chosenTime, analysis.ExpectedTimeSaved, 1e-9)
}

func TestEvaluate_NearCertainCaution_PrefersWaiting(t *testing.T) {
	// GIVEN a caution all but guaranteed inside the window
	e, err := New(50.0, 10)
	require.NoError(t, err)
	state := testState()
	best, baseline := deterministicBest(t, state)

	// WHEN strategies are scored
	analysis := e.Evaluate(state, best, baseline)

	// THEN the discounted stop under caution wins
	assert.Equal(t, strategy.StrategyWaitForCaution, analysis.Chosen)
	assert.Greater(t, analysis.Probability, 0.99)
}

func TestEvaluate_NoCautionsExpected_MatchesDeterministic(t *testing.T) {
	// λ=0 means the wait branch degenerates to the optimizer's own pick.
	e, err := New(0.0, 10)
	require.NoError(t, err)
	state := testState()
	best, baseline := deterministicBest(t, state)

	analysis := e.Evaluate(state, best, baseline)
	assert.InDelta(t, 0.0, analysis.Probability, 1e-12)
	for _, s := range analysis.Strategies {
		if s.Name == strategy.StrategyWaitForCaution {
			assert.InDelta(t, best.ExpectedTime, s.ExpectedTime, 1e-9)
		}
	}
}

func TestEvaluate_ActiveCaution_DiscountsPitNow(t *testing.T) {
	// GIVEN a caution already waving
	e, err := New(2.0, 10)
	require.NoError(t, err)
	state := testState()
	state.CautionActive = true
	best, baseline := deterministicBest(t, state)

	// WHEN strategies are scored
	analysis := e.Evaluate(state, best, baseline)

	// THEN pit_now is priced at the same discounted cost the optimizer used
	want := state.ProjectedTotal(state.CurrentLap+1, state.PitTimeCost*0.5)
	for _, s := range analysis.Strategies {
		if s.Name == strategy.StrategyPitNow {
			assert.InDelta(t, want, s.ExpectedTime, 1e-9)
		}
	}
}

func TestEvaluate_ConfidenceGradesMargin(t *testing.T) {
	e, err := New(50.0, 10)
	require.NoError(t, err)
	state := testState()
	best, baseline := deterministicBest(t, state)

	analysis := e.Evaluate(state, best, baseline)
	// A near-certain caution halves a 25s stop: the margin over the
	// runner-up is far beyond the 1.5s high-confidence cutoff.
	assert.Equal(t, strategy.ConfidenceHigh, analysis.Confidence)
}
