// Package strategy provides the core pit-strategy decision engine.
//
// # Reading Guide
//
// Start with these three files to understand the engine:
//   - types.go: the data model (LapRecord, RaceState, Recommendation) and lap-time projection
//   - degradation.go: tire degradation estimation (configured or telemetry-derived)
//   - optimizer.go: the pit-window search and recommendation assembly
//
// # Architecture
//
// The strategy package defines the data model and the context interfaces;
// collaborating analyses live in sub-packages:
//   - strategy/traffic/: running order, gaps, undercut/overcut detection
//   - strategy/caution/: probabilistic caution-response evaluation
//   - strategy/replay/: lap-by-lap replay stepping for live advisories
//
// Sub-packages implement the TrafficContext and CautionContext interfaces;
// the optimizer consumes them when supplied and falls back to a purely
// deterministic search otherwise.
//
// All operations are synchronous, stateless pure functions of their inputs.
// Repeated calls with identical inputs yield identical results, and
// independent calls are safe to run concurrently.
package strategy
