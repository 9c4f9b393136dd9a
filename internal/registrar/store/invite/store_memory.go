package invite

import (
	"context"
	"sync"

	id "namegate/pkg/domain"
)

// InMemoryLedger keeps consumed invite identifiers in process memory.
// Append-only: identifiers are added and never removed.
type InMemoryLedger struct {
	mu   sync.RWMutex
	used map[id.Hash]struct{}
}

func NewMemory() *InMemoryLedger {
	return &InMemoryLedger{
		used: make(map[id.Hash]struct{}),
	}
}

func (l *InMemoryLedger) MarkUsed(_ context.Context, inviteID id.Hash) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.used[inviteID] = struct{}{}
	return nil
}

func (l *InMemoryLedger) IsUsed(_ context.Context, inviteID id.Hash) (bool, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, ok := l.used[inviteID]
	return ok, nil
}
