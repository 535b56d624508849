package layer

import (
	"sync"
	"time"
)

// FadeResult tells how a fade ended.
type FadeResult uint32

const (
	// Pending is the result of a fade that has not completed yet.
	Pending FadeResult = iota
	// Completed means the target opacity was reached.
	Completed
	// Preempted means another fade, or Cancel, took over the layer.
	Preempted
)

// String ...
func (r FadeResult) String() string {
	switch r {
	case Pending:
		return "Pending"
	case Completed:
		return "Completed"
	case Preempted:
		return "Preempted"
	default:
		return "Unknown"
	}
}

// Fade is the handle of an opacity transition. It completes exactly once.
type Fade struct {
	In bool

	from     float64
	target   float64
	duration time.Duration

	done   chan struct{}
	stopCh chan struct{}
	once   sync.Once
	result FadeResult
	mu     sync.Mutex
}

func newFade(in bool, from float64, duration time.Duration) *Fade {
	target := 0.0
	if in {
		target = 1
	}
	return &Fade{
		In:       in,
		from:     from,
		target:   target,
		duration: duration,
		done:     make(chan struct{}),
		stopCh:   make(chan struct{}),
	}
}

// Done is closed when the fade completes or is preempted.
func (f *Fade) Done() <-chan struct{} {
	return f.done
}

// Result returns Pending until Done is closed.
func (f *Fade) Result() FadeResult {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.result
}

// Wait blocks until the fade is over.
func (f *Fade) Wait() FadeResult {
	<-f.done
	return f.Result()
}

func (f *Fade) resolve(r FadeResult) {
	f.once.Do(func() {
		f.mu.Lock()
		f.result = r
		f.mu.Unlock()
		close(f.stopCh)
		close(f.done)
	})
}

// alphaAt returns the opacity after elapsed time. Opacity moves at the constant
// rate of one full range per duration, starting from the opacity the layer had
// when the fade began, and never passes the target.
func (f *Fade) alphaAt(elapsed time.Duration) float64 {
	if f.duration <= 0 {
		return f.target
	}
	delta := float64(elapsed) / float64(f.duration)
	if f.target > f.from {
		if a := f.from + delta; a < f.target {
			return a
		}
		return f.target
	}
	if a := f.from - delta; a > f.target {
		return a
	}
	return f.target
}

// WaitAll blocks until every fade is over or stop is closed. It returns false
// if stop fired first or if any fade was preempted.
func WaitAll(stop <-chan struct{}, fades ...*Fade) bool {
	ok := true
	for _, f := range fades {
		select {
		case <-f.Done():
			if f.Result() != Completed {
				ok = false
			}
		case <-stop:
			return false
		}
	}
	return ok
}
