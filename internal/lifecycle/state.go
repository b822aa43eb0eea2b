package lifecycle

// State is the view state of a screening job as seen by the user.
type State string

const (
	StateUploading  State = "uploading"
	StateProcessing State = "processing"
	StateFailed     State = "failed"
	StateResults    State = "results"
)

var transitions = map[State][]State{
	StateUploading:  {StateProcessing},
	StateProcessing: {StateResults, StateFailed},
	StateResults:    {StateUploading},
	StateFailed:     {StateUploading},
}

// CanTransitionTo reports whether moving from s to next is allowed.
func (s State) CanTransitionTo(next State) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsSettled reports whether s is a state in which no more work happens until a reset.
func (s State) IsSettled() bool {
	return s == StateResults || s == StateFailed
}

func (s State) String() string {
	return string(s)
}
