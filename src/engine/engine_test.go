package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/mosaicnetworks/synapse/src/common"
	"github.com/mosaicnetworks/synapse/src/config"
	"github.com/mosaicnetworks/synapse/src/history"
	"github.com/mosaicnetworks/synapse/src/render"
	"github.com/sirupsen/logrus"
)

type recordingPublisher struct {
	sync.Mutex
	states []string
	frames map[string]int
}

func newRecordingPublisher() *recordingPublisher {
	return &recordingPublisher{frames: make(map[string]int)}
}

func (p *recordingPublisher) PublishState(generation int, state string) error {
	p.Lock()
	defer p.Unlock()
	p.states = append(p.states, state)
	return nil
}

func (p *recordingPublisher) PublishFrame(generation int, frame render.Frame) error {
	p.Lock()
	defer p.Unlock()
	p.frames[frame.Layer]++
	return nil
}

func (p *recordingPublisher) getStates() []string {
	p.Lock()
	defer p.Unlock()
	res := make([]string, len(p.states))
	copy(res, p.states)
	return res
}

func newTestEngine(t *testing.T, attrs config.Attributes) (*Engine, *recordingPublisher) {
	conf := config.NewTestConfig(t, logrus.DebugLevel)
	conf.Attributes = attrs
	publisher := newRecordingPublisher()
	return NewEngine(conf, history.NewInmemStore(10), publisher), publisher
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(10 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timeout waiting for %s", what)
		}
		time.Sleep(time.Millisecond)
	}
}

func waitGeneration(t *testing.T, e *Engine, generation int) *history.Record {
	t.Helper()
	waitFor(t, "generation", func() bool {
		return e.Store().LastGeneration() >= generation
	})
	r, err := e.Store().GetRecord(generation)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestEngineLifecycle(t *testing.T) {
	e, publisher := newTestEngine(t, config.Attributes{Nodes: "2"})
	e.RunAsync()
	defer e.Shutdown()

	r := waitGeneration(t, e, 1)
	e.Shutdown()

	// 1 segment at 0.02 per cycle
	if r.Cycles != 50 {
		t.Fatalf("signal should take 50 cycles, not %d", r.Cycles)
	}
	if r.Nodes() != 2 {
		t.Fatalf("network should have 2 nodes, not %d", r.Nodes())
	}

	expected := []string{
		"FadingIn", "Running", "FadingOut", "Initializing",
		"FadingIn", "Running", "FadingOut",
	}
	states := publisher.getStates()
	if len(states) < len(expected) {
		t.Fatalf("expected at least %d transitions, got %v", len(expected), states)
	}
	for i, s := range expected {
		if states[i] != s {
			t.Fatalf("transition %d should be %s, not %s (%v)", i, s, states[i], states)
		}
	}

	publisher.Lock()
	signalFrames := publisher.frames[SignalLayer]
	networkFrames := publisher.frames[NetworkLayer]
	publisher.Unlock()
	if signalFrames < 100 || networkFrames < 4 {
		t.Fatalf("unexpected frame counts: signal %d, network %d", signalFrames, networkFrames)
	}

	if s := e.State(); s != Shutdown {
		t.Fatalf("state should be Shutdown, not %v", s)
	}
}

func TestEngineSpeedScale(t *testing.T) {
	e, _ := newTestEngine(t, config.Attributes{Nodes: "3", SpeedScale: "2"})
	e.RunAsync()
	defer e.Shutdown()

	r := waitGeneration(t, e, 0)

	// 2 segments at 0.04 per cycle
	if r.Cycles != 50 {
		t.Fatalf("signal should take 50 cycles, not %d", r.Cycles)
	}
	if r.SpeedScale != 2 {
		t.Fatalf("speed scale should be 2, not %v", r.SpeedScale)
	}
}

func TestEngineInvalidAttributesFallBack(t *testing.T) {
	e, _ := newTestEngine(t, config.Attributes{Nodes: "1", SpeedScale: "-3", Color: "nope"})
	e.RunAsync()
	defer e.Shutdown()

	r := waitGeneration(t, e, 0)

	if r.Nodes() != config.DefaultNetworkSize {
		t.Fatalf("network should have %d nodes, not %d", config.DefaultNetworkSize, r.Nodes())
	}
	if r.SpeedScale != config.DefaultSpeedScale {
		t.Fatalf("speed scale should be %v, not %v", config.DefaultSpeedScale, r.SpeedScale)
	}
	if r.Color != (render.Color{}) {
		t.Fatalf("color should be black, not %v", r.Color)
	}
}

func TestEnginePendingChanges(t *testing.T) {
	e, _ := newTestEngine(t, config.Attributes{Nodes: "2"})
	e.RunAsync()
	defer e.Shutdown()

	waitFor(t, "Running", func() bool { return e.State() == Running })

	if err := e.Resize(40, 30); err != nil {
		t.Fatal(err)
	}
	settings := config.DefaultSettings()
	settings.NetworkSize = 4
	e.SetAttributes(settings)

	if e.Settings().NetworkSize != 2 {
		t.Fatal("settings should not change before the next generation")
	}

	first := waitGeneration(t, e, 0)
	if first.Nodes() != 2 {
		t.Fatalf("first generation should have 2 nodes, not %d", first.Nodes())
	}

	second := waitGeneration(t, e, 1)
	if second.Nodes() != 4 {
		t.Fatalf("second generation should have 4 nodes, not %d", second.Nodes())
	}
	for _, p := range second.Positions {
		if p.X < 0 || p.X > 40 || p.Y < 0 || p.Y > 30 {
			t.Fatalf("position %v outside of the resized surface", p)
		}
	}

	frames := e.Frames()
	if len(frames) != 2 {
		t.Fatalf("expected 2 frames, got %d", len(frames))
	}
	for _, f := range frames {
		if f.Width != 40 || f.Height != 30 {
			t.Fatalf("frame %s should be 40x30, not %vx%v", f.Layer, f.Width, f.Height)
		}
	}
}

func TestEngineUpdateAttributesMerges(t *testing.T) {
	e, _ := newTestEngine(t, config.Attributes{Nodes: "2"})

	if _, err := e.UpdateAttributes(config.Attributes{Nodes: "7"}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.UpdateAttributes(config.Attributes{SpeedScale: "3"}); err != nil {
		t.Fatal(err)
	}
	if _, err := e.UpdateAttributes(config.Attributes{TracerScale: "-1"}); !common.IsConfig(err, common.InvalidValue) {
		t.Fatalf("expected an InvalidValue error, got %v", err)
	}

	pending := e.PendingSettings()
	if pending.NetworkSize != 7 || pending.SpeedScale != 3 || pending.TracerScale != config.DefaultTracerScale {
		t.Fatalf("pending settings should merge both updates, got %+v", pending)
	}
	if e.Settings().NetworkSize != 2 {
		t.Fatal("current settings should not change before the next generation")
	}

	e.RunAsync()
	defer e.Shutdown()

	r := waitGeneration(t, e, 0)
	if r.Nodes() != 7 || r.SpeedScale != 3 {
		t.Fatalf("generation 0 should use 7 nodes at speed 3, not %d at %v", r.Nodes(), r.SpeedScale)
	}
}

func TestEngineScaleFallbackKeepsStep(t *testing.T) {
	conf := config.NewTestConfig(t, logrus.DebugLevel)
	conf.Attributes = config.Attributes{Nodes: "2"}
	conf.Step = 0.05
	e := NewEngine(conf, history.NewInmemStore(10), nil)

	settings := config.DefaultSettings()
	settings.NetworkSize = 2
	settings.SpeedScale = 0
	e.SetAttributes(settings)

	e.RunAsync()
	defer e.Shutdown()

	r := waitGeneration(t, e, 0)
	if r.SpeedScale != config.DefaultSpeedScale {
		t.Fatalf("speed scale should fall back to %v, not %v", config.DefaultSpeedScale, r.SpeedScale)
	}
	if r.Cycles != 20 {
		t.Fatalf("a step of 0.05 should take 20 cycles, not %d", r.Cycles)
	}
}

func TestEngineResizeRejectsInvalidSize(t *testing.T) {
	e, _ := newTestEngine(t, config.Attributes{})

	err := e.Resize(0, 100)
	if !common.IsConfig(err, common.InvalidValue) {
		t.Fatalf("expected an InvalidValue error, got %v", err)
	}
}

func TestEngineShutdownDuringFade(t *testing.T) {
	conf := config.NewTestConfig(t, logrus.DebugLevel)
	conf.FadeDuration = time.Hour
	e := NewEngine(conf, nil, nil)
	e.RunAsync()

	waitFor(t, "FadingIn", func() bool { return e.State() == FadingIn })

	done := make(chan struct{})
	go func() {
		e.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Shutdown should interrupt the fade")
	}

	if e.State() != Shutdown {
		t.Fatalf("state should be Shutdown, not %v", e.State())
	}
	if e.Store().LastGeneration() != -1 {
		t.Fatal("no generation should be recorded")
	}
}

func TestEngineStats(t *testing.T) {
	e, _ := newTestEngine(t, config.Attributes{Nodes: "3", TracerScale: "2"})

	stats := e.Stats()
	if stats["state"] != "Initializing" {
		t.Fatalf("state should be Initializing, not %s", stats["state"])
	}
	if stats["generation"] != "0" || stats["last_generation"] != "-1" {
		t.Fatalf("unexpected generations %s/%s", stats["generation"], stats["last_generation"])
	}
	if stats["tracer_scale"] != "2" {
		t.Fatalf("tracer_scale should be 2, not %s", stats["tracer_scale"])
	}
	if stats["width"] != "1280" || stats["height"] != "720" {
		t.Fatalf("unexpected size %sx%s", stats["width"], stats["height"])
	}

	e.RunAsync()
	defer e.Shutdown()

	waitFor(t, "cycles", func() bool {
		return e.Stats()["cycles"] != "0"
	})
	stats = e.Stats()
	if stats["nodes"] != "3" {
		t.Fatalf("nodes should be 3, not %s", stats["nodes"])
	}
}
