package frame

import "fmt"

// State is where a frame slot is in its cycle. A slot always moves
// Idle, Acquiring, Recording, Submitted, Presenting and back to Idle.
type State int

const (
	Idle State = iota
	Acquiring
	Recording
	Submitted
	Presenting
)

var stateNames = map[State]string{
	Idle:       "Idle",
	Acquiring:  "Acquiring",
	Recording:  "Recording",
	Submitted:  "Submitted",
	Presenting: "Presenting",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("State(%d)", int(s))
}
