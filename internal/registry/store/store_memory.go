package store

import (
	"context"
	"sync"

	"namegate/internal/registry"
	"namegate/pkg/platform/sentinel"

	id "namegate/pkg/domain"
)

type recordKey struct {
	node     id.Node
	coinType uint32
}

// InMemoryStore keeps claims and address records in process memory.
// Suitable for development and tests; production uses PostgresStore.
type InMemoryStore struct {
	mu      sync.RWMutex
	claims  map[id.Node]registry.Claim
	records map[recordKey]registry.AddressRecord
}

func NewMemory() *InMemoryStore {
	return &InMemoryStore{
		claims:  make(map[id.Node]registry.Claim),
		records: make(map[recordKey]registry.AddressRecord),
	}
}

func (s *InMemoryStore) SaveClaim(_ context.Context, claim registry.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.claims[claim.Node]; exists {
		return sentinel.ErrConflict
	}
	s.claims[claim.Node] = claim
	return nil
}

func (s *InMemoryStore) GetClaim(_ context.Context, node id.Node) (registry.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	claim, exists := s.claims[node]
	if !exists {
		return registry.Claim{}, sentinel.ErrNotFound
	}
	return claim, nil
}

func (s *InMemoryStore) SaveAddressRecord(_ context.Context, node id.Node, rec registry.AddressRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	addr := make([]byte, len(rec.Addr))
	copy(addr, rec.Addr)
	rec.Addr = addr
	s.records[recordKey{node: node, coinType: rec.CoinType}] = rec
	return nil
}

func (s *InMemoryStore) GetAddressRecord(_ context.Context, node id.Node, coinType uint32) (registry.AddressRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, exists := s.records[recordKey{node: node, coinType: coinType}]
	if !exists {
		return registry.AddressRecord{}, sentinel.ErrNotFound
	}
	return rec, nil
}
