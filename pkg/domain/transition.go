package domain

// Direction is the visual direction of a page transition.
type Direction string

const (
	DirectionForward  Direction = "forward"
	DirectionBackward Direction = "backward"
)

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	if d == DirectionForward {
		return DirectionBackward
	}
	return DirectionForward
}

// Phase is the mode of the transition state machine.
type Phase string

const (
	PhaseIdle          Phase = "idle"
	PhaseTransitioning Phase = "transitioning"
)

// TransitionState is a point-in-time view of the transition state machine.
// Direction is empty while Idle.
type TransitionState struct {
	Phase     Phase     `json:"phase"`
	Direction Direction `json:"direction,omitempty"`
}

// Idle reports whether a new transition may begin.
func (s TransitionState) Idle() bool {
	return s.Phase != PhaseTransitioning
}
