package logs

import (
	"sync"

	"github.com/charliek/logview/internal/domain"
)

// Store is the append-only sequence of every ingested record.
// Appends are visible to readers only once complete; readers get
// snapshot-consistent prefixes that later appends never modify.
type Store struct {
	mu      sync.RWMutex
	records []domain.Record
	indexer Indexer
}

// NewStore creates an empty store
func NewStore(indexer Indexer) *Store {
	return &Store{indexer: indexer}
}

// Append indexes data, assigns it the next sequence number and stores it
func (s *Store) Append(data any) domain.Record {
	// Indexing is pure, keep it outside the lock
	index := s.indexer.Tokens(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	rec := domain.Record{
		Seq:   len(s.records) + 1,
		Data:  data,
		Index: index,
	}
	s.records = append(s.records, rec)
	return rec
}

// Snapshot returns every record appended so far, in seq order.
// The returned slice must not be modified.
func (s *Store) Snapshot() []domain.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.records)
	return s.records[:n:n]
}

// FilteredSlice returns, in ascending seq order, the records accepted by m
func (s *Store) FilteredSlice(m Matcher) []domain.Record {
	return FilterRecords(s.Snapshot(), m)
}

// TotalSize returns the number of records ever appended
func (s *Store) TotalSize() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Get returns the record with the given seq
func (s *Store) Get(seq int) (domain.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if seq < 1 || seq > len(s.records) {
		return domain.Record{}, false
	}
	return s.records[seq-1], true
}

// IncludeKeys reports whether object keys are indexed
func (s *Store) IncludeKeys() bool {
	return s.indexer.IncludeKeys
}
