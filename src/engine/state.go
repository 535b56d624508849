package engine

import (
	"sync/atomic"
)

// State captures the phase of the effect lifecycle.
type State uint32

const (
	// Initializing is the state in which a new network and signal are
	// generated and drawn, still transparent.
	Initializing State = iota
	// FadingIn is the state in which both layers become opaque.
	FadingIn
	// Running is the state in which the signal is cycled at every tick of the
	// cycle timer.
	Running
	// FadingOut is the state in which both layers become transparent again.
	FadingOut
	// Shutdown is the terminal state.
	Shutdown
)

func (s State) String() string {
	switch s {
	case Initializing:
		return "Initializing"
	case FadingIn:
		return "FadingIn"
	case Running:
		return "Running"
	case FadingOut:
		return "FadingOut"
	case Shutdown:
		return "Shutdown"
	default:
		return "Unknown"
	}
}

type state struct {
	state State
}

func (s *state) getState() State {
	stateAddr := (*uint32)(&s.state)
	return State(atomic.LoadUint32(stateAddr))
}

func (s *state) setState(st State) {
	stateAddr := (*uint32)(&s.state)
	atomic.StoreUint32(stateAddr, uint32(st))
}

// swapState moves from one state to the next, unless the state was changed
// in between, by a shutdown for instance.
func (s *state) swapState(from, to State) bool {
	stateAddr := (*uint32)(&s.state)
	return atomic.CompareAndSwapUint32(stateAddr, uint32(from), uint32(to))
}
