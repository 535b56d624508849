package history

import (
	"strconv"
	"sync"

	cm "github.com/mosaicnetworks/synapse/src/common"
)

// InmemStore implements the Store interface with an in-memory window. Records
// older than the window are lost.
type InmemStore struct {
	cacheSize int

	sync.RWMutex
	window *recordWindow
}

// NewInmemStore creates an InmemStore which keeps at least the last cacheSize
// records.
func NewInmemStore(cacheSize int) *InmemStore {
	if cacheSize < 1 {
		cacheSize = 1
	}
	return &InmemStore{
		cacheSize: cacheSize,
		window:    newRecordWindow(cacheSize),
	}
}

// CacheSize implements the Store interface.
func (s *InmemStore) CacheSize() int {
	return s.cacheSize
}

// GetRecord implements the Store interface.
func (s *InmemStore) GetRecord(generation int) (*Record, error) {
	s.RLock()
	defer s.RUnlock()
	return s.window.get(generation)
}

// SetRecord implements the Store interface. The first record sets the starting
// generation, which does not have to be zero.
func (s *InmemStore) SetRecord(record *Record) error {
	if record.Generation < 0 {
		return cm.NewStoreErr("Record", cm.SkippedIndex, strconv.Itoa(record.Generation))
	}
	s.Lock()
	defer s.Unlock()
	if s.window.lastGeneration < 0 && len(s.window.items) == 0 {
		s.window.lastGeneration = record.Generation - 1
	}
	return s.window.set(record)
}

// Records implements the Store interface.
func (s *InmemStore) Records(skip int) ([]*Record, error) {
	s.RLock()
	defer s.RUnlock()
	return s.window.after(skip)
}

// LastGeneration implements the Store interface.
func (s *InmemStore) LastGeneration() int {
	s.RLock()
	defer s.RUnlock()
	if len(s.window.items) == 0 {
		return -1
	}
	return s.window.lastGeneration
}

// Close implements the Store interface.
func (s *InmemStore) Close() error {
	return nil
}

// StorePath implements the Store interface.
func (s *InmemStore) StorePath() string {
	return ""
}
