package audit

import (
	"context"
	"sync"
)

// Sink receives drained audit events. Implementations decide durability:
// the in-memory sink keeps events queryable for tests and dev runs, the
// Kafka sink hands them to the streaming platform.
type Sink interface {
	Append(ctx context.Context, event Event) error
}

// InMemorySink accumulates events in process memory.
type InMemorySink struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemorySink() *InMemorySink {
	return &InMemorySink{}
}

func (s *InMemorySink) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemorySink) Events() []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events...)
}

func (s *InMemorySink) ByBatch(batchID string) []Event {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.BatchID == batchID {
			out = append(out, e)
		}
	}
	return out
}
