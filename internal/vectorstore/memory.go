package vectorstore

import (
	"context"
	"sort"
	"sync"
)

// MemoryStore keeps records in process and searches them exhaustively.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
	order   []string
	filings map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
		filings: make(map[string]int),
	}
}

// Add inserts records, replacing any with the same id.
func (s *MemoryStore) Add(_ context.Context, records []Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range records {
		if old, ok := s.records[r.ID]; ok {
			s.filings[old.FilingID]--
		} else {
			s.order = append(s.order, r.ID)
		}
		s.records[r.ID] = r
		s.filings[r.FilingID]++
	}
	return nil
}

// Query returns the n records most similar to vec, best first. Ties keep
// insertion order.
func (s *MemoryStore) Query(_ context.Context, vec []float32, n int) ([]Match, error) {
	if n <= 0 {
		return nil, nil
	}
	s.mu.RLock()
	matches := make([]Match, 0, len(s.order))
	for _, id := range s.order {
		r := s.records[id]
		matches = append(matches, Match{Record: r, Score: cosineSimilarity(vec, r.Embedding)})
	}
	s.mu.RUnlock()

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > n {
		matches = matches[:n]
	}
	return matches, nil
}

func (s *MemoryStore) HasFiling(_ context.Context, filingID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filings[filingID] > 0, nil
}

// Len is the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

func (s *MemoryStore) Reset(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]Record)
	s.filings = make(map[string]int)
	s.order = nil
	return nil
}
