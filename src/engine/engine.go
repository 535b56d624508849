package engine

import (
	"math"
	"math/rand"
	"strconv"
	"sync"
	"time"

	"github.com/mosaicnetworks/synapse/src/common"
	"github.com/mosaicnetworks/synapse/src/config"
	"github.com/mosaicnetworks/synapse/src/history"
	"github.com/mosaicnetworks/synapse/src/layer"
	"github.com/mosaicnetworks/synapse/src/network"
	"github.com/mosaicnetworks/synapse/src/render"
	"github.com/mosaicnetworks/synapse/src/signal"
	"github.com/sirupsen/logrus"
)

// Layer names.
const (
	NetworkLayer = "network"
	SignalLayer  = "signal"
)

// Engine runs the lifecycle of the effect.
type Engine struct {
	state

	conf   *config.Config
	logger *logrus.Entry

	networkLayer *layer.Layer
	signalLayer  *layer.Layer

	cycleTimer *CycleTimer
	store      history.Store
	publisher  Publisher
	rng        *rand.Rand

	// mu guards everything below
	mu              sync.Mutex
	settings        config.Settings
	pendingSettings *config.Settings
	pendingSize     *[2]float64
	network         *network.Network
	signal          *signal.Signal
	generation      int
	started         time.Time
	cycles          int
	segment         int
	progress        float64
	lastCycles      int

	shutdownCh   chan struct{}
	shutdownOnce sync.Once
	doneCh       chan struct{}
	runOnce      sync.Once
}

// NewEngine creates an Engine in the Initializing state. A nil store is
// replaced by an InmemStore and a nil publisher discards everything.
func NewEngine(conf *config.Config, store history.Store, publisher Publisher) *Engine {
	conf.Normalize()

	logger := conf.Logger().WithField("prefix", "engine")

	if store == nil {
		store = history.NewInmemStore(conf.CacheSize)
	}
	if publisher == nil {
		publisher = nopPublisher{}
	}

	seed := conf.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	engine := &Engine{
		conf:   conf,
		logger: logger,
		networkLayer: layer.New(NetworkLayer,
			render.NewCanvas(conf.Width, conf.Height),
			conf.FadeDuration, conf.FadeStep, logger),
		signalLayer: layer.New(SignalLayer,
			render.NewCanvas(conf.Width, conf.Height),
			conf.FadeDuration, conf.FadeStep, logger),
		cycleTimer: NewRealCycleTimer(),
		store:      store,
		publisher:  publisher,
		rng:        rand.New(rand.NewSource(seed)),
		settings:   conf.Settings(),
		generation: store.LastGeneration() + 1,
		lastCycles: -1,
		shutdownCh: make(chan struct{}),
		doneCh:     make(chan struct{}),
	}

	logger.WithFields(logrus.Fields{
		"seed":       seed,
		"generation": engine.generation,
	}).Debug("NewEngine")

	return engine
}

// RunAsync calls Run in a separate goroutine.
func (e *Engine) RunAsync() {
	go e.Run()
}

// Run is the main loop. It only returns after Shutdown.
func (e *Engine) Run() {
	started := false
	e.runOnce.Do(func() { started = true })
	if !started {
		if e.getState() != Shutdown {
			e.logger.Warn("Engine already running")
		}
		return
	}
	defer close(e.doneCh)

	go e.cycleTimer.Run()

	for {
		state := e.getState()

		e.logger.WithField("state", state.String()).Debug("Run loop")

		switch state {
		case Initializing:
			e.initialize()
		case FadingIn:
			e.fadeIn()
		case Running:
			e.run()
		case FadingOut:
			e.fadeOut()
		case Shutdown:
			return
		}
	}
}

func (e *Engine) transition(from, to State) bool {
	if !e.swapState(from, to) {
		return false
	}

	e.mu.Lock()
	generation := e.generation
	e.mu.Unlock()

	e.logger.WithFields(logrus.Fields{
		"generation": generation,
		"from":       from.String(),
		"to":         to.String(),
	}).Debug("Transition")

	if err := e.publisher.PublishState(generation, to.String()); err != nil {
		e.logger.WithError(err).Warn("Publishing state")
	}

	return true
}

func (e *Engine) initialize() {
	e.mu.Lock()
	if e.pendingSize != nil {
		e.networkLayer.Resize(e.pendingSize[0], e.pendingSize[1])
		e.signalLayer.Resize(e.pendingSize[0], e.pendingSize[1])
		e.pendingSize = nil
	}
	if e.pendingSettings != nil {
		e.settings = *e.pendingSettings
		e.pendingSettings = nil
	}
	settings := e.settings
	e.mu.Unlock()

	width, height := e.signalLayer.Size()

	chain, err := network.CreateNetwork(settings.NetworkSize, settings.Color, width, height, e.rng)
	if err != nil {
		e.logger.WithError(err).Warn("Creating network, using default size")
		settings.NetworkSize = config.DefaultNetworkSize
		chain, err = network.CreateNetwork(settings.NetworkSize, settings.Color, width, height, e.rng)
	}
	if err != nil {
		e.logger.WithError(err).Error("Creating network")
		e.shutdown()
		return
	}

	sig, err := signal.New(chain, settings.Color, settings.SpeedScale, settings.TracerScale, e.conf.Step)
	if common.IsConfigurationError(err) {
		e.logger.WithError(err).Warn("Creating signal, using default scales")
		settings.SpeedScale = config.DefaultSpeedScale
		settings.TracerScale = config.DefaultTracerScale
		sig, err = signal.New(chain, settings.Color, settings.SpeedScale, settings.TracerScale, e.conf.Step)
	}
	if err != nil {
		e.logger.WithError(err).Error("Creating signal")
		e.shutdown()
		return
	}

	e.networkLayer.SetEntities(chain.Entities())
	e.networkLayer.RenderAll()
	e.signalLayer.SetEntities([]render.Entity{sig})
	e.signalLayer.RenderAll()

	e.mu.Lock()
	e.settings = settings
	e.network = chain
	e.signal = sig
	e.started = time.Now()
	e.cycles = 0
	e.segment = sig.Segment()
	e.progress = sig.Progress()
	generation := e.generation
	e.mu.Unlock()

	e.logger.WithFields(logrus.Fields{
		"generation":   generation,
		"nodes":        chain.Len(),
		"speed_scale":  settings.SpeedScale,
		"tracer_scale": settings.TracerScale,
	}).Debug("Initialized")

	e.transition(Initializing, FadingIn)
}

func (e *Engine) fadeIn() {
	completed := layer.WaitAll(e.shutdownCh,
		e.networkLayer.DoFade(true),
		e.signalLayer.DoFade(true))
	if !completed {
		return
	}

	e.publishFrames()

	if e.transition(FadingIn, Running) {
		e.cycleTimer.Start(e.conf.CycleInterval)
	}
}

func (e *Engine) run() {
	select {
	case <-e.cycleTimer.TickCh():
		e.cycle()
	case <-e.shutdownCh:
	}
}

func (e *Engine) cycle() {
	if !e.hasLivingEntities() {
		e.cycleTimer.Stop()
		e.transition(Running, FadingOut)
		return
	}

	e.signalLayer.CycleAll()

	e.mu.Lock()
	sig := e.signal
	e.cycles = sig.Cycles()
	e.segment = sig.Segment()
	e.progress = sig.Progress()
	generation := e.generation
	e.mu.Unlock()

	if err := e.publisher.PublishFrame(generation, e.signalLayer.Snapshot()); err != nil {
		e.logger.WithError(err).Warn("Publishing frame")
	}
}

func (e *Engine) hasLivingEntities() bool {
	return e.signalLayer.AnyActive()
}

func (e *Engine) fadeOut() {
	completed := layer.WaitAll(e.shutdownCh,
		e.networkLayer.DoFade(false),
		e.signalLayer.DoFade(false))
	if !completed {
		return
	}

	e.publishFrames()

	e.mu.Lock()
	record := &history.Record{
		Generation:  e.generation,
		Positions:   e.network.Positions(),
		Color:       e.settings.Color,
		SpeedScale:  e.settings.SpeedScale,
		TracerScale: e.settings.TracerScale,
		Cycles:      e.cycles,
		Started:     e.started,
		Finished:    time.Now(),
	}
	e.network = nil
	e.signal = nil
	e.lastCycles = e.cycles
	e.cycles = 0
	e.generation++
	e.mu.Unlock()

	if err := e.store.SetRecord(record); err != nil {
		e.logger.WithError(err).WithField("generation", record.Generation).Warn("Recording generation")
	}

	e.logger.WithFields(logrus.Fields{
		"generation": record.Generation,
		"cycles":     record.Cycles,
		"duration":   record.Duration(),
	}).Info("Generation complete")

	e.transition(FadingOut, Initializing)
}

func (e *Engine) publishFrames() {
	e.mu.Lock()
	generation := e.generation
	e.mu.Unlock()

	for _, f := range e.Frames() {
		if err := e.publisher.PublishFrame(generation, f); err != nil {
			e.logger.WithError(err).Warn("Publishing frame")
		}
	}
}

// Resize queues a new surface size for the next generation.
func (e *Engine) Resize(width, height float64) error {
	if width <= 0 || height <= 0 || math.IsNaN(width) || math.IsNaN(height) {
		return common.NewConfigErr("size",
			common.InvalidValue,
			strconv.FormatFloat(width, 'f', -1, 64)+"x"+strconv.FormatFloat(height, 'f', -1, 64))
	}

	e.mu.Lock()
	e.pendingSize = &[2]float64{width, height}
	e.mu.Unlock()

	return nil
}

// SetAttributes queues new settings for the next generation.
func (e *Engine) SetAttributes(settings config.Settings) {
	e.mu.Lock()
	e.pendingSettings = &settings
	e.mu.Unlock()
}

// UpdateAttributes merges attrs into the queued settings, or into the current
// ones when nothing is queued, and queues the result for the next generation.
// An invalid attribute leaves the queue untouched.
func (e *Engine) UpdateAttributes(attrs config.Attributes) (config.Settings, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	base := e.settings
	if e.pendingSettings != nil {
		base = *e.pendingSettings
	}

	settings, err := base.Update(attrs)
	if err != nil {
		return base, err
	}
	e.pendingSettings = &settings

	return settings, nil
}

// PendingSettings returns the settings the next generation will start with.
func (e *Engine) PendingSettings() config.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.pendingSettings != nil {
		return *e.pendingSettings
	}
	return e.settings
}

// Settings returns the settings of the current generation.
func (e *Engine) Settings() config.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

// State returns the current state.
func (e *Engine) State() State {
	return e.getState()
}

// Generation returns the index of the current generation.
func (e *Engine) Generation() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.generation
}

// Store returns the history store.
func (e *Engine) Store() history.Store {
	return e.store
}

// Frames returns the current display lists of the network and signal layers.
func (e *Engine) Frames() []render.Frame {
	return []render.Frame{
		e.networkLayer.Snapshot(),
		e.signalLayer.Snapshot(),
	}
}

// Stats returns a snapshot of the engine in string form.
func (e *Engine) Stats() map[string]string {
	e.mu.Lock()
	defer e.mu.Unlock()

	width, height := e.signalLayer.Size()

	nodes := 0
	if e.network != nil {
		nodes = e.network.Len()
	}

	return map[string]string{
		"state":           e.getState().String(),
		"generation":      strconv.Itoa(e.generation),
		"last_generation": strconv.Itoa(e.store.LastGeneration()),
		"cycles":          strconv.Itoa(e.cycles),
		"last_cycles":     strconv.Itoa(e.lastCycles),
		"nodes":           strconv.Itoa(nodes),
		"signal_segment":  strconv.Itoa(e.segment),
		"signal_progress": strconv.FormatFloat(e.progress, 'f', 4, 64),
		"network_alpha":   strconv.FormatFloat(e.networkLayer.Alpha(), 'f', 3, 64),
		"signal_alpha":    strconv.FormatFloat(e.signalLayer.Alpha(), 'f', 3, 64),
		"speed_scale":     strconv.FormatFloat(e.settings.SpeedScale, 'f', -1, 64),
		"tracer_scale":    strconv.FormatFloat(e.settings.TracerScale, 'f', -1, 64),
		"width":           strconv.FormatFloat(width, 'f', -1, 64),
		"height":          strconv.FormatFloat(height, 'f', -1, 64),
		"timer_set":       strconv.FormatBool(e.cycleTimer.IsSet()),
	}
}

func (e *Engine) shutdown() {
	e.shutdownOnce.Do(func() {
		e.logger.Debug("Shutdown")
		e.setState(Shutdown)
		close(e.shutdownCh)
		e.networkLayer.Cancel()
		e.signalLayer.Cancel()
		e.cycleTimer.Shutdown()
	})
}

// Shutdown stops the loop, cancels the fades in flight and the timer, and
// waits for Run to return if it was started.
func (e *Engine) Shutdown() {
	e.shutdown()

	started := true
	e.runOnce.Do(func() { started = false })
	if started {
		<-e.doneCh
	}

	// a fade may have been started after the first cancellation
	e.networkLayer.Cancel()
	e.signalLayer.Cancel()
}
