// Package memory is the in-memory document store used by unit tests and
// local development.
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"hrcore/internal/document"
	"hrcore/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu    sync.RWMutex
	temps map[uuid.UUID]document.TempDocument
	docs  map[uuid.UUID]document.Record
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		temps: make(map[uuid.UUID]document.TempDocument),
		docs:  make(map[uuid.UUID]document.Record),
	}
}

func (s *InMemoryStore) CreateTemp(_ context.Context, doc *document.TempDocument) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.temps[doc.ID] = *doc
	return nil
}

func (s *InMemoryStore) GetTemp(_ context.Context, id uuid.UUID) (*document.TempDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.temps[id]
	if !ok {
		return nil, fmt.Errorf("temp document %s: %w", id, sentinel.ErrNotFound)
	}
	return &doc, nil
}

func (s *InMemoryStore) DeleteTemp(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.temps, id)
	return nil
}

func (s *InMemoryStore) Create(_ context.Context, rec *document.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[rec.ID] = *rec
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id uuid.UUID) (*document.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.docs[id]
	if !ok || rec.DeletedAt != nil {
		return nil, fmt.Errorf("document %s: %w", id, sentinel.ErrNotFound)
	}
	return &rec, nil
}

func (s *InMemoryStore) SetLocation(_ context.Context, id uuid.UUID, folder, name, url, path string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.docs[id]
	if !ok || rec.DeletedAt != nil {
		return fmt.Errorf("document %s: %w", id, sentinel.ErrNotFound)
	}
	rec.Folder = folder
	rec.DocumentName = name
	rec.DocumentURL = url
	rec.DocumentPath = path
	rec.UpdatedAt = at
	s.docs[id] = rec
	return nil
}

func (s *InMemoryStore) SoftDelete(_ context.Context, id uuid.UUID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.docs[id]
	if !ok || rec.DeletedAt != nil {
		return fmt.Errorf("document %s: %w", id, sentinel.ErrNotFound)
	}
	rec.DeletedAt = &at
	rec.UpdatedAt = at
	s.docs[id] = rec
	return nil
}

func (s *InMemoryStore) CountNameMatches(_ context.Context, folder, name string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	needle := strings.ToLower(name)
	count := 0
	for _, rec := range s.docs {
		if rec.DeletedAt != nil || rec.Folder != folder {
			continue
		}
		if strings.Contains(strings.ToLower(rec.DocumentName), needle) {
			count++
		}
	}
	return count, nil
}
