// Package layer implements the rendering surfaces of the effect. A Layer owns
// a homogeneous set of entities, redraws them on demand and runs timed opacity
// transitions.
package layer

import (
	"sync"
	"time"

	"github.com/mosaicnetworks/synapse/src/render"
	"github.com/sirupsen/logrus"
)

// Layer is a surface plus its entities and fade state. It is safe for
// concurrent use: the owner cycles it while its fade stepper and readers such
// as the HTTP service access it.
type Layer struct {
	name         string
	surface      *render.Canvas
	fadeDuration time.Duration
	fadeStep     time.Duration

	mu       sync.Mutex
	entities []render.Entity
	alpha    float64
	fade     *Fade

	logger *logrus.Entry
}

// New creates a transparent, empty layer.
func New(name string, surface *render.Canvas, fadeDuration, fadeStep time.Duration, logger *logrus.Entry) *Layer {
	return &Layer{
		name:         name,
		surface:      surface,
		fadeDuration: fadeDuration,
		fadeStep:     fadeStep,
		logger:       logger.WithField("layer", name),
	}
}

// Name ...
func (l *Layer) Name() string {
	return l.name
}

// SetEntities replaces the entities. The fade state is left untouched.
func (l *Layer) SetEntities(entities []render.Entity) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entities = make([]render.Entity, len(entities))
	copy(l.entities, entities)
	for _, e := range l.entities {
		e.SetAlpha(l.alpha)
	}
}

// AddEntity appends an entity.
func (l *Layer) AddEntity(e render.Entity) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.SetAlpha(l.alpha)
	l.entities = append(l.entities, e)
}

// Entities returns a copy of the entity list.
func (l *Layer) Entities() []render.Entity {
	l.mu.Lock()
	defer l.mu.Unlock()

	res := make([]render.Entity, len(l.entities))
	copy(res, l.entities)
	return res
}

// AnyActive reports whether at least one entity is active.
func (l *Layer) AnyActive() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, e := range l.entities {
		if e.IsActive() {
			return true
		}
	}
	return false
}

// CycleAll updates and redraws every entity. Inactive entities stay in the
// layer.
func (l *Layer) CycleAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.surface.Clear()
	for _, e := range l.entities {
		e.Update()
		e.Render(l.surface)
	}
}

// RenderAll redraws every entity without updating them.
func (l *Layer) RenderAll() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.redraw()
}

func (l *Layer) redraw() {
	l.surface.Clear()
	for _, e := range l.entities {
		e.Render(l.surface)
	}
}

// Resize changes the size of the surface.
func (l *Layer) Resize(width, height float64) {
	l.surface.Resize(width, height)
}

// Size returns the size of the surface.
func (l *Layer) Size() (float64, float64) {
	return l.surface.Size()
}

// Alpha returns the current opacity.
func (l *Layer) Alpha() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.alpha
}

// Snapshot returns the current display list.
func (l *Layer) Snapshot() render.Frame {
	l.mu.Lock()
	alpha := l.alpha
	l.mu.Unlock()

	return l.surface.Snapshot(l.name, alpha)
}

// DoFade starts a transition to full opacity (fadeIn) or full transparency. A
// fade in flight is preempted: it completes with Preempted and the new one
// starts from the current opacity.
func (l *Layer) DoFade(fadeIn bool) *Fade {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fade != nil {
		l.logger.WithField("in", l.fade.In).Debug("Preempting fade")
		l.fade.resolve(Preempted)
	}

	f := newFade(fadeIn, l.alpha, l.fadeDuration)
	l.fade = f

	if l.alpha == f.target {
		l.fade = nil
		f.resolve(Completed)
		return f
	}

	go l.runFade(f)

	return f
}

// Cancel preempts the fade in flight, if any, leaving the opacity where it is.
func (l *Layer) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fade != nil {
		l.fade.resolve(Preempted)
		l.fade = nil
	}
}

func (l *Layer) runFade(f *Fade) {
	step := l.fadeStep
	if step <= 0 {
		step = time.Millisecond
	}

	start := time.Now()
	ticker := time.NewTicker(step)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if l.stepFade(f, time.Since(start)) {
				return
			}
		case <-f.stopCh:
			return
		}
	}
}

// stepFade applies the opacity of f after elapsed and returns true once f is
// over.
func (l *Layer) stepFade(f *Fade, elapsed time.Duration) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.fade != f {
		return true
	}

	l.alpha = render.Clamp01(f.alphaAt(elapsed))
	for _, e := range l.entities {
		e.SetAlpha(l.alpha)
	}
	l.redraw()

	if l.alpha == f.target {
		l.fade = nil
		f.resolve(Completed)
		return true
	}
	return false
}
