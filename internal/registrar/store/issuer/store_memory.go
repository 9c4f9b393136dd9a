package issuer

import (
	"context"
	"sync"

	id "namegate/pkg/domain"
)

// InMemoryStore keeps the issuer whitelist in process memory.
type InMemoryStore struct {
	mu      sync.RWMutex
	issuers map[id.Address]struct{}
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		issuers: make(map[id.Address]struct{}),
	}
}

func (s *InMemoryStore) Add(_ context.Context, issuer id.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.issuers[issuer] = struct{}{}
	return nil
}

func (s *InMemoryStore) Remove(_ context.Context, issuer id.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.issuers, issuer)
	return nil
}

func (s *InMemoryStore) IsIssuer(_ context.Context, issuer id.Address) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.issuers[issuer]
	return ok, nil
}
