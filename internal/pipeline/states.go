package pipeline

// State is the externally visible phase of an export job.
type State string

const (
	StateIdle              State = "idle"
	StateValidating        State = "validating"
	StateMeasuringBaseline State = "measuring_baseline"
	StateNormalizing       State = "normalizing"
	StateExporting         State = "exporting"
	StateDone              State = "done"
	StateFailed            State = "failed"
)
