package constants

// RunState is the canonical state of a pipeline run.
type RunState string

// Stable values (surfaced verbatim to the presentation layer).
const (
	RunStateIdle       RunState = "IDLE"       // no run started yet
	RunStateProcessing RunState = "PROCESSING" // run in progress
	RunStateSuccess    RunState = "SUCCESS"    // all stages completed
	RunStateError      RunState = "ERROR"      // terminal failure for this run
)

// Sub-phase labels attached to RunStateProcessing. Presentation only;
// they are not distinct states.
const (
	PhaseRecognizing = "recognizing"
	PhaseExtracting  = "extracting"
	PhaseSaving      = "saving"
)
