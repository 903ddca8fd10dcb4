// Package memory is the in-memory bank account store used by unit tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"hrcore/internal/employee/bank"
	"hrcore/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	nextID   int64
	accounts map[int64]bank.Account
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{accounts: make(map[int64]bank.Account)}
}

func (s *InMemoryStore) Create(_ context.Context, acc *bank.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	acc.ID = s.nextID
	s.accounts[acc.ID] = *acc
	return nil
}

func (s *InMemoryStore) Update(_ context.Context, acc *bank.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[acc.ID]; !ok {
		return fmt.Errorf("bank account %d: %w", acc.ID, sentinel.ErrNotFound)
	}
	s.accounts[acc.ID] = *acc
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.accounts[id]; !ok {
		return fmt.Errorf("bank account %d: %w", id, sentinel.ErrNotFound)
	}
	delete(s.accounts, id)
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, id int64) (*bank.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	if !ok {
		return nil, fmt.Errorf("bank account %d: %w", id, sentinel.ErrNotFound)
	}
	return &acc, nil
}

func (s *InMemoryStore) ListByEmployee(_ context.Context, employeeID int64) ([]*bank.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var accounts []*bank.Account
	for _, acc := range s.accounts {
		if acc.EmployeeID != employeeID {
			continue
		}
		copied := acc
		accounts = append(accounts, &copied)
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].ID < accounts[j].ID })
	return accounts, nil
}
