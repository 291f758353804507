package workflow

// Trigger drives a transition between loading states.
type Trigger string

const (
	TriggerStartAnalysis  Trigger = "START_ANALYSIS"
	TriggerFinishAnalysis Trigger = "FINISH_ANALYSIS"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}
