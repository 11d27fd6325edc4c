package server

import (
	"sync"
	"time"
)

// DefaultStoreSize is the number of finished solves kept for lookup.
const DefaultStoreSize = 1024

// SolveRecord is a finished solve kept for later lookup.
type SolveRecord struct {
	ID        string      `json:"solve_id"`
	Kind      string      `json:"kind"`
	StartTime time.Time   `json:"start_time"`
	Result    interface{} `json:"result"`
}

// solveStore keeps the most recent solves. It is safe for concurrent use.
type solveStore struct {
	mu      sync.RWMutex
	size    int
	records map[string]*SolveRecord
	order   []string
}

func newSolveStore(size int) *solveStore {
	if size <= 0 {
		size = DefaultStoreSize
	}
	return &solveStore{
		size:    size,
		records: make(map[string]*SolveRecord, size),
	}
}

func (s *solveStore) put(id, kind string, start time.Time, result interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.order) >= s.size {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.records, oldest)
	}
	s.records[id] = &SolveRecord{ID: id, Kind: kind, StartTime: start, Result: result}
	s.order = append(s.order, id)
}

func (s *solveStore) get(id string) (*SolveRecord, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	return rec, ok
}

func (s *solveStore) len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *solveStore) reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*SolveRecord, s.size)
	s.order = nil
}
