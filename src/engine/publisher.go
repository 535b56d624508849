package engine

import "github.com/mosaicnetworks/synapse/src/render"

// Publisher receives state transitions and rendered frames.
type Publisher interface {
	PublishState(generation int, state string) error
	PublishFrame(generation int, frame render.Frame) error
}

type nopPublisher struct{}

func (nopPublisher) PublishState(int, string) error {
	return nil
}

func (nopPublisher) PublishFrame(int, render.Frame) error {
	return nil
}
