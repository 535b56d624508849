package history

import (
	"strconv"

	cm "github.com/mosaicnetworks/synapse/src/common"
)

// recordWindow holds the records of consecutive generations. It grows up to
// twice its size, then drops its oldest half.
type recordWindow struct {
	size           int
	lastGeneration int
	items          []*Record
}

func newRecordWindow(size int) *recordWindow {
	return &recordWindow{
		size:           size,
		items:          make([]*Record, 0, 2*size),
		lastGeneration: -1,
	}
}

func (w *recordWindow) oldest() int {
	return w.lastGeneration - len(w.items) + 1
}

// after returns the records following skip.
func (w *recordWindow) after(skip int) ([]*Record, error) {
	res := []*Record{}

	if skip < -1 {
		skip = -1
	}

	if skip >= w.lastGeneration {
		return res, nil
	}

	if skip+1 < w.oldest() {
		return res, cm.NewStoreErr("Record", cm.TooLate, strconv.Itoa(skip))
	}

	start := skip - w.oldest() + 1
	return append(res, w.items[start:]...), nil
}

func (w *recordWindow) get(generation int) (*Record, error) {
	if generation < w.oldest() {
		return nil, cm.NewStoreErr("Record", cm.TooLate, strconv.Itoa(generation))
	}
	pos := generation - w.oldest()
	if pos >= len(w.items) {
		return nil, cm.NewStoreErr("Record", cm.KeyNotFound, strconv.Itoa(generation))
	}
	return w.items[pos], nil
}

// set appends the next generation or replaces a cached one.
func (w *recordWindow) set(r *Record) error {
	g := r.Generation

	if w.lastGeneration >= 0 && g > w.lastGeneration+1 {
		return cm.NewStoreErr("Record", cm.SkippedIndex, strconv.Itoa(g))
	}

	if w.lastGeneration < 0 || g == w.lastGeneration+1 {
		if len(w.items) >= 2*w.size {
			w.roll()
		}
		w.items = append(w.items, r)
		w.lastGeneration = g
		return nil
	}

	if g < w.oldest() {
		return cm.NewStoreErr("Record", cm.TooLate, strconv.Itoa(g))
	}

	w.items[g-w.oldest()] = r
	return nil
}

func (w *recordWindow) roll() {
	kept := make([]*Record, 0, 2*w.size)
	kept = append(kept, w.items[w.size:]...)
	w.items = kept
}
