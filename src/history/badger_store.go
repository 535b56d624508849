package history

import (
	"fmt"
	"os"
	"strconv"

	"github.com/dgraph-io/badger"
	cm "github.com/mosaicnetworks/synapse/src/common"
	"github.com/sirupsen/logrus"
)

const recordPrefix = "record_"

// BadgerStore persists records in a Badger database, behind an InmemStore
// cache.
type BadgerStore struct {
	inmemStore *InmemStore
	db         *badger.DB
	path       string
	logger     *logrus.Entry
}

func openDB(path string, logger *logrus.Entry) (*badger.DB, error) {
	opts := badger.DefaultOptions(path)
	opts.SyncWrites = false
	opts.Logger = logger
	return badger.Open(opts)
}

// NewBadgerStore creates a brand new Store with a new database.
func NewBadgerStore(cacheSize int, path string, logger *logrus.Entry) (*BadgerStore, error) {
	handle, err := openDB(path, logger)
	if err != nil {
		return nil, err
	}
	return &BadgerStore{
		inmemStore: NewInmemStore(cacheSize),
		db:         handle,
		path:       path,
		logger:     logger,
	}, nil
}

// LoadBadgerStore opens an existing database and warms the cache with its
// most recent records.
func LoadBadgerStore(cacheSize int, path string, logger *logrus.Entry) (*BadgerStore, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}

	handle, err := openDB(path, logger)
	if err != nil {
		return nil, err
	}

	store := &BadgerStore{
		inmemStore: NewInmemStore(cacheSize),
		db:         handle,
		path:       path,
		logger:     logger,
	}

	records, err := store.dbRecords(-1)
	if err != nil {
		handle.Close()
		return nil, err
	}

	if len(records) > cacheSize {
		records = records[len(records)-cacheSize:]
	}
	for _, r := range records {
		if err := store.inmemStore.SetRecord(r); err != nil {
			handle.Close()
			return nil, err
		}
	}

	logger.WithFields(logrus.Fields{
		"path":            path,
		"last_generation": store.LastGeneration(),
	}).Debug("Loaded history")

	return store, nil
}

// LoadOrCreateBadgerStore loads the database at path if there is one, or
// creates it.
func LoadOrCreateBadgerStore(cacheSize int, path string, logger *logrus.Entry) (*BadgerStore, error) {
	store, err := LoadBadgerStore(cacheSize, path, logger)
	if err != nil {
		logger.WithError(err).Debug("Creating new history database")
		return NewBadgerStore(cacheSize, path, logger)
	}
	return store, nil
}

func recordKey(generation int) []byte {
	return []byte(fmt.Sprintf("%s%09d", recordPrefix, generation))
}

// CacheSize implements the Store interface.
func (s *BadgerStore) CacheSize() int {
	return s.inmemStore.CacheSize()
}

// GetRecord implements the Store interface.
func (s *BadgerStore) GetRecord(generation int) (*Record, error) {
	res, err := s.inmemStore.GetRecord(generation)
	if err != nil {
		res, err = s.dbGetRecord(generation)
	}
	return res, mapError(err, "Record", strconv.Itoa(generation))
}

// SetRecord implements the Store interface.
func (s *BadgerStore) SetRecord(record *Record) error {
	if err := s.inmemStore.SetRecord(record); err != nil {
		return err
	}
	return s.dbSetRecord(record)
}

// Records implements the Store interface. Records evicted from the cache are
// read from the database.
func (s *BadgerStore) Records(skip int) ([]*Record, error) {
	res, err := s.inmemStore.Records(skip)
	if cm.IsStore(err, cm.TooLate) {
		return s.dbRecords(skip)
	}
	return res, err
}

// LastGeneration implements the Store interface.
func (s *BadgerStore) LastGeneration() int {
	return s.inmemStore.LastGeneration()
}

// Close implements the Store interface.
func (s *BadgerStore) Close() error {
	if err := s.inmemStore.Close(); err != nil {
		return err
	}
	return s.db.Close()
}

// StorePath implements the Store interface.
func (s *BadgerStore) StorePath() string {
	return s.path
}

//++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++
//DB Methods

func (s *BadgerStore) dbGetRecord(generation int) (*Record, error) {
	var recordBytes []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(generation))
		if err != nil {
			return err
		}
		recordBytes, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		return nil, err
	}

	record := new(Record)
	if err := record.Unmarshal(recordBytes); err != nil {
		return nil, err
	}
	return record, nil
}

func (s *BadgerStore) dbSetRecord(record *Record) error {
	val, err := record.Marshal()
	if err != nil {
		return err
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(record.Generation), val)
	})
}

// dbRecords returns the stored records after skip, in generation order.
func (s *BadgerStore) dbRecords(skip int) ([]*Record, error) {
	res := []*Record{}
	prefix := []byte(recordPrefix)

	err := s.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		start := prefix
		if skip >= 0 {
			start = recordKey(skip + 1)
		}

		for it.Seek(start); it.ValidForPrefix(prefix); it.Next() {
			val, err := it.Item().ValueCopy(nil)
			if err != nil {
				return err
			}
			r := new(Record)
			if err := r.Unmarshal(val); err != nil {
				return err
			}
			res = append(res, r)
		}
		return nil
	})

	return res, err
}

//++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++++

func mapError(err error, name, key string) error {
	if err == badger.ErrKeyNotFound {
		return cm.NewStoreErr(name, cm.KeyNotFound, key)
	}
	return err
}
