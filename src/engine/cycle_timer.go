package engine

import (
	"sync"
	"sync/atomic"
	"time"
)

// tickerFactory returns the channel of a periodic ticker and the function that
// stops it.
type tickerFactory func(time.Duration) (<-chan time.Time, func())

func newTicker(d time.Duration) (<-chan time.Time, func()) {
	t := time.NewTicker(d)
	return t.C, t.Stop
}

// CycleTimer owns the periodic ticker of the engine. At most one ticker is
// armed at any time. Ticks are forwarded on a one-slot channel, so they
// coalesce when the consumer falls behind.
type CycleTimer struct {
	tickerFactory tickerFactory
	tickCh        chan struct{}      //sends a signal to the listening process
	startCh       chan time.Duration //receives instruction to arm the ticker
	stopCh        chan struct{}      //receives instruction to disarm the ticker
	shutdownCh    chan struct{}      //receives instruction to exit Run loop
	shutdownOnce  sync.Once
	set           int32
}

// NewCycleTimer ...
func NewCycleTimer(tickerFactory tickerFactory) *CycleTimer {
	return &CycleTimer{
		tickerFactory: tickerFactory,
		tickCh:        make(chan struct{}, 1),
		startCh:       make(chan time.Duration),
		stopCh:        make(chan struct{}),
		shutdownCh:    make(chan struct{}),
	}
}

// NewRealCycleTimer returns a CycleTimer backed by time.Ticker.
func NewRealCycleTimer() *CycleTimer {
	return NewCycleTimer(newTicker)
}

// Run is the timer loop. It returns after Shutdown.
func (c *CycleTimer) Run() {
	var ticks <-chan time.Time
	var stop func()

	disarm := func() {
		atomic.StoreInt32(&c.set, 0)
		if stop != nil {
			stop()
		}
		ticks, stop = nil, nil
		c.drain()
	}

	for {
		select {
		case <-ticks:
			select {
			case c.tickCh <- struct{}{}:
			default:
			}
		case d := <-c.startCh:
			disarm()
			ticks, stop = c.tickerFactory(d)
			atomic.StoreInt32(&c.set, 1)
		case <-c.stopCh:
			disarm()
		case <-c.shutdownCh:
			disarm()
			return
		}
	}
}

func (c *CycleTimer) drain() {
	select {
	case <-c.tickCh:
	default:
	}
}

// TickCh delivers the ticks of the armed ticker.
func (c *CycleTimer) TickCh() <-chan struct{} {
	return c.tickCh
}

// Start arms the ticker with the given period, replacing any armed ticker.
func (c *CycleTimer) Start(period time.Duration) {
	select {
	case c.startCh <- period:
	case <-c.shutdownCh:
	}
}

// Stop disarms the ticker. No tick is delivered after Stop returns.
func (c *CycleTimer) Stop() {
	select {
	case c.stopCh <- struct{}{}:
	case <-c.shutdownCh:
	}
	c.drain()
}

// IsSet reports whether a ticker is armed.
func (c *CycleTimer) IsSet() bool {
	return atomic.LoadInt32(&c.set) == 1
}

// Shutdown terminates the Run loop. It can be called more than once.
func (c *CycleTimer) Shutdown() {
	c.shutdownOnce.Do(func() {
		close(c.shutdownCh)
	})
}
