// Package memory is the in-memory audit store used by unit tests and local
// development.
package memory

import (
	"context"
	"sort"
	"sync"

	"hrcore/internal/audit"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	records []audit.Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{nextID: 1}
}

func (s *InMemoryStore) Append(_ context.Context, rec *audit.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec.ID = s.nextID
	s.nextID++
	s.records = append(s.records, *rec)
	return nil
}

func (s *InMemoryStore) List(_ context.Context, q audit.Query) ([]audit.Record, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matches []audit.Record
	for _, rec := range s.records {
		if rec.EmployeeID != q.EmployeeID {
			continue
		}
		if q.ReferrableTypeID != nil {
			if rec.ReferrableTypeID == nil || *rec.ReferrableTypeID != *q.ReferrableTypeID {
				continue
			}
		}
		matches = append(matches, rec)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].CreatedAt.Equal(matches[j].CreatedAt) {
			return matches[i].ID > matches[j].ID
		}
		return matches[i].CreatedAt.After(matches[j].CreatedAt)
	})

	total := len(matches)
	if q.Offset >= total {
		return nil, total, nil
	}
	end := q.Offset + q.Limit
	if q.Limit <= 0 || end > total {
		end = total
	}
	return append([]audit.Record{}, matches[q.Offset:end]...), total, nil
}

// All returns every stored record, oldest first. Test helper.
func (s *InMemoryStore) All() []audit.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Record{}, s.records...)
}
