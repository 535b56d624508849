// Package engine implements the orchestrator of the effect.
//
// An Engine owns two layers, the network layer and the signal layer, and
// drives them through a cyclic state machine:
//
//	Initializing -> FadingIn -> Running -> FadingOut -> Initializing ...
//
// Initializing generates a random node chain and a signal starting at its
// deepest node, and draws them on transparent layers. FadingIn makes both
// layers opaque. Running cycles the signal at every tick of the CycleTimer
// until the signal has reached the root and its tracer has vanished.
// FadingOut makes the layers transparent again, records the generation in the
// history Store, and starts over.
//
// The loop never stops on its own; Shutdown terminates it. New surface sizes
// and attributes are queued and only applied in the Initializing state, so that
// a generation is always played with a single set of parameters.
package engine
