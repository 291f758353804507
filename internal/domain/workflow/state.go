package workflow

// State is a capture loading state. It is process-local and never persisted.
type State string

const (
	StateIdle      State = "IDLE"
	StateAnalyzing State = "ANALYZING"
)

// String returns the string representation of the state
func (s State) String() string {
	return string(s)
}

// IsValid checks if the state is one of the defined constants
func (s State) IsValid() bool {
	switch s {
	case StateIdle, StateAnalyzing:
		return true
	default:
		return false
	}
}
