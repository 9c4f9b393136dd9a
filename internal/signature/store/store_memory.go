package store

import (
	"context"
	"sync"

	id "namegate/pkg/domain"
)

// InMemoryAccountStore maps deployed smart accounts to their signer keys.
type InMemoryAccountStore struct {
	mu       sync.RWMutex
	accounts map[id.Address][]id.Address
}

func NewMemory() *InMemoryAccountStore {
	return &InMemoryAccountStore{
		accounts: make(map[id.Address][]id.Address),
	}
}

// Register records the signer keys authorized for a deployed account,
// replacing any previous set.
func (s *InMemoryAccountStore) Register(_ context.Context, account id.Address, signers ...id.Address) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts[account] = append([]id.Address(nil), signers...)
	return nil
}

func (s *InMemoryAccountStore) Signers(_ context.Context, account id.Address) ([]id.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return append([]id.Address(nil), s.accounts[account]...), nil
}
