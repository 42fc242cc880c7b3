package domain

// State is a step of the rewrite workflow.
type State int

const (
	StateIdle State = iota
	StateInspecting
	StateDeciding
	StateReading
	StateWriting
	StateDone
	StateFailed
)

var stateNames = [...]string{
	StateIdle:       "idle",
	StateInspecting: "inspecting",
	StateDeciding:   "deciding",
	StateReading:    "reading",
	StateWriting:    "writing",
	StateDone:       "done",
	StateFailed:     "failed",
}

func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return "unknown"
	}
	return stateNames[s]
}

// Terminal reports whether no further transition is possible.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
