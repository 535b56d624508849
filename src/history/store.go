package history

// Store is an interface for history backends.
type Store interface {
	// CacheSize returns the number of records kept in memory.
	CacheSize() int
	// GetRecord returns the record of a generation.
	GetRecord(generation int) (*Record, error)
	// SetRecord inserts a record. Generations must be inserted in order,
	// without gaps.
	SetRecord(record *Record) error
	// Records returns the records of all generations after skip.
	Records(skip int) ([]*Record, error)
	// LastGeneration returns the last recorded generation, or -1.
	LastGeneration() int
	// Close closes the underlying database.
	Close() error
	// StorePath returns the filepath of the underlying database.
	StorePath() string
}
