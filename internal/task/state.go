package task

import "sync/atomic"

// State is the lifecycle position of a Task.
type State int32

// Possible task states. A task only moves forward through them.
const (
	StateCreated State = iota
	StateRunning
	StateCompleting
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateRunning:
		return "running"
	case StateCompleting:
		return "completing"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// validTransitions lists every edge of the lifecycle graph.
// Created -> Finished is taken when a pending task is discarded.
var validTransitions = map[State][]State{
	StateCreated:    {StateRunning, StateFinished},
	StateRunning:    {StateCompleting, StateFinished},
	StateCompleting: {StateFinished},
}

func canTransition(from, to State) bool {
	for _, s := range validTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// stateMachine holds a State and only lets it move along validTransitions.
type stateMachine struct {
	v atomic.Int32
}

func (m *stateMachine) load() State {
	return State(m.v.Load())
}

// transition moves from -> to. It returns false if the edge does not exist
// or the machine is no longer in from.
func (m *stateMachine) transition(from, to State) bool {
	if !canTransition(from, to) {
		return false
	}
	return m.v.CompareAndSwap(int32(from), int32(to))
}
