package strategy

// LapRecord is one completed lap for one vehicle, produced by upstream
// loaders. Immutable once constructed; ordered by Lap per vehicle.
type LapRecord struct {
	VehicleID string
	Lap       int     // 1-indexed lap number
	LapTime   float64 // seconds, > 0
	TireAge   int     // laps since last stop at lap start, >= 0
}

// TelemetrySample is one lateral-acceleration reading used for degradation
// auto-detection. Samples are grouped by lap to compute a per-lap peak.
type TelemetrySample struct {
	VehicleID    string
	Lap          int
	ReceivedAt   float64 // monotonic ordering key (seconds)
	LateralAccel float64 // signed; magnitude is what matters
}

// DegradationSource tags where a DegradationModel's rate came from.
type DegradationSource string

const (
	SourceConfigured DegradationSource = "configured"
	SourceTelemetry  DegradationSource = "telemetry"
)

// DegradationModel is the linear tire model: each lap of tire age adds
// RatePerLap seconds to the base lap time.
type DegradationModel struct {
	BaseLapTime float64 // seconds, > 0
	RatePerLap  float64 // seconds per lap of tire age, >= 0
	Source      DegradationSource
}

// RaceState is the full input to one optimizer invocation. The optimizer is
// a pure function of a RaceState; callers mutate it between calls.
type RaceState struct {
	CurrentLap    int // 1-indexed
	TireAge       int // current tire age in laps
	RaceLaps      int // total race laps
	TargetStint   int // max stint length in laps; 0 disables the cap
	PitTimeCost   float64
	CautionActive bool // halves the effective pit cost when set
	Degradation   DegradationModel
}

// cautionPitFactor is the fraction of the pit cost paid under caution.
const cautionPitFactor = 0.5

// EffectivePitCost returns the pit cost adjusted for an active caution. All
// pricing of an immediate stop goes through this, optimizer and caution
// evaluator alike.
func (s RaceState) EffectivePitCost() float64 {
	if s.CautionActive {
		return s.PitTimeCost * cautionPitFactor
	}
	return s.PitTimeCost
}

// ProjectedTotal is the projected race time from CurrentLap to RaceLaps with
// a single stop on lap pitLap at cost pitCost. Laps before the stop age the
// current tires; the stop resets tire age to zero.
func (s RaceState) ProjectedTotal(pitLap int, pitCost float64) float64 {
	d := s.Degradation
	n1 := pitLap - s.CurrentLap
	before := float64(n1)*d.BaseLapTime + d.RatePerLap*ageSum(s.TireAge, n1)
	n2 := s.RaceLaps - pitLap
	after := float64(n2)*d.BaseLapTime + d.RatePerLap*ageSum(0, n2)
	return before + pitCost + after
}

// NoPitTotal is the projected race time if the car never stops again.
func (s RaceState) NoPitTotal() float64 {
	d := s.Degradation
	n := s.RaceLaps - s.CurrentLap
	return float64(n)*d.BaseLapTime + d.RatePerLap*ageSum(s.TireAge, n)
}

// ageSum is startAge + (startAge+1) + ... over n laps.
func ageSum(startAge, n int) float64 {
	return float64(n)*float64(startAge) + float64(n*(n-1))/2
}

// CandidateStrategy is one evaluated stop lap. Ephemeral: produced and
// discarded inside a single optimizer call, retained on the Recommendation
// only for diagnostics.
type CandidateStrategy struct {
	PitLap       int     `json:"pit_lap"`
	ExpectedTime float64 `json:"expected_time"` // total projected race time with this stop
	TimeSaved    float64 `json:"time_saved"`    // no-pit baseline minus ExpectedTime; may be negative
}

// RunningOrderEntry is one car's place in a lap snapshot. Positions are
// re-derived on every query, never persisted incrementally.
type RunningOrderEntry struct {
	CarNumber   int
	Position    int // 1 = leader
	ElapsedTime float64
	GapToLeader float64
	GapToAhead  float64 // 0 for the leader
	TireAge     int     // -1 when unknown
}

// OpportunityKind distinguishes undercut from overcut openings.
type OpportunityKind string

const (
	KindUndercut OpportunityKind = "undercut"
	KindOvercut  OpportunityKind = "overcut"
)

// Opportunity is a detected undercut or overcut opening against one rival.
type Opportunity struct {
	Kind           OpportunityKind `json:"kind"`
	TargetCar      int             `json:"target_car"`
	TargetPosition int             `json:"target_position"`
	TireAgeDelta   int             `json:"tire_age_delta"` // target tire age minus subject tire age
	NetAdvantage   float64         `json:"net_advantage"`
	Confidence     Confidence      `json:"confidence"`
}

// CautionScenario is one probability-weighted outcome in the caution
// evaluator's scenario table. Weights across a table sum to 1.
type CautionScenario struct {
	Name         string  `json:"name"`
	Probability  float64 `json:"probability"` // weight in [0, 1]
	ExpectedTime float64 `json:"expected_time"`
}

// StrategyScore is one caution-response strategy's expected total time.
type StrategyScore struct {
	Name         string  `json:"name"`
	ExpectedTime float64 `json:"expected_time"`
}

// CautionAnalysis is the caution evaluator's output: the chosen response
// strategy plus the full diagnostic tables behind it.
type CautionAnalysis struct {
	Chosen            string            `json:"chosen"`
	Confidence        Confidence        `json:"confidence"`
	Probability       float64           `json:"probability"`         // P(at least one caution within the lookahead)
	ExpectedTimeSaved float64           `json:"expected_time_saved"` // no-pit baseline minus the chosen expected total
	Scenarios         []CautionScenario `json:"scenarios"`
	Strategies        []StrategyScore   `json:"strategies"`
}

// Action is the recommended response.
type Action string

const (
	ActionPitNow         Action = "pit_now"
	ActionPitAtLap       Action = "pit_at_lap"
	ActionWaitForCaution Action = "wait_for_caution"
	ActionStayOut        Action = "stay_out"
)

// Confidence grades how clearly a recommendation beats its alternatives.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// Reason codes attached to recommendations.
const (
	ReasonTooFewLaps     = "too_few_laps_remaining"
	ReasonNoNetBenefit   = "no_net_benefit"
	ReasonNetGain        = "net_gain_positive"
	ReasonStintTarget    = "stint_target_reached"
	ReasonUndercutWindow = "undercut_window"
	ReasonCautionValue   = "caution_expected_value"
)

// PositionAnnotation is the field-position context attached to a
// recommendation when a traffic context is supplied.
type PositionAnnotation struct {
	Current     int     `json:"current"`
	GapToLeader float64 `json:"gap_to_leader"`
	GapToAhead  float64 `json:"gap_to_ahead"`
	AfterPit    int     `json:"after_pit"` // projected position after paying the pit cost
}

// Recommendation is the single externally visible output of the engine.
type Recommendation struct {
	Action     Action     `json:"action"`
	PitLap     int        `json:"pit_lap,omitempty"` // meaningful for ActionPitNow / ActionPitAtLap
	Reason     string     `json:"reason"`
	Confidence Confidence `json:"confidence"`
	TimeSaved  float64    `json:"time_saved"`

	// Diagnostics: the full candidate table, ordered by pit lap ascending.
	Candidates []CandidateStrategy `json:"candidates,omitempty"`

	Position  *PositionAnnotation `json:"position,omitempty"`  // nil without a traffic context
	Undercuts []Opportunity       `json:"undercuts,omitempty"` // nil without a traffic context
	Caution   *CautionAnalysis    `json:"caution,omitempty"`   // nil without a caution context

	// Warnings accumulated during evaluation. Returned, not printed, so
	// callers decide presentation.
	Warnings []string `json:"warnings,omitempty"`
}
