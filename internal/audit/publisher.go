// Package audit publishes engine notifications (issuer changes, name
// registrations, ownership changes) for off-chain observers. Kafka is the
// production sink; the memory publisher serves tests and broker-less setups.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"namegate/pkg/requestcontext"
)

// Publisher emits engine notifications. Emit is best-effort metadata
// enrichment plus a sink write; failures surface to the caller so fail-closed
// call sites can decide.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
}

// prepare fills event plumbing shared by all sinks.
func prepare(ctx context.Context, event Event) Event {
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	if event.RequestID == "" {
		event.RequestID = requestcontext.RequestID(ctx)
	}
	if event.Device == "" {
		event.Device = requestcontext.Device(ctx)
	}
	if !event.Subject.IsZero() {
		event.SubjectHex = event.Subject.String()
	}
	if !event.Actor.IsZero() {
		event.ActorHex = event.Actor.String()
	}
	return event
}

// MemoryPublisher appends events to an in-process slice.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemory() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Emit(ctx context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.events = append(p.events, prepare(ctx, event))
	return nil
}

// Events returns a copy of everything emitted so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]Event(nil), p.events...)
}
