package workflow

// StateMachine tracks the current state and validates transitions.
// Implementations are safe for concurrent use: Fire checks and moves
// atomically, so two callers cannot both leave the same state.
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if the trigger is permitted in the current state
	CanFire(trigger Trigger) bool

	// Fire executes the trigger or returns ErrInvalidTransition
	Fire(trigger Trigger) error

	// PermittedTriggers returns all triggers that can be fired in the current state
	PermittedTriggers() []Trigger
}

// NewCaptureMachine returns the loading state machine guarding receipt
// capture: IDLE -START_ANALYSIS-> ANALYZING -FINISH_ANALYSIS-> IDLE.
func NewCaptureMachine() StateMachine {
	b := NewBuilder()
	b.Configure(StateIdle).Permit(TriggerStartAnalysis, StateAnalyzing)
	b.Configure(StateAnalyzing).Permit(TriggerFinishAnalysis, StateIdle)
	return b.Build(StateIdle)
}
