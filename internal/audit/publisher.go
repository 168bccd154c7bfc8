package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Publisher captures structured audit events. It is append-only: events
// are stamped and queued onto an inbox channel that a Worker drains, so
// emission never blocks domain logic. A nil Publisher discards events,
// which lets callers wire auditing as an optional collaborator.
type Publisher struct {
	inbox  chan Event
	logger *slog.Logger
}

func NewPublisher(buffer int, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{inbox: make(chan Event, buffer), logger: logger}
}

// Emit queues one event, stamping its id and timestamp when unset. When
// the inbox is full the event is dropped and the drop logged; auditing
// degrades before the pipeline does.
func (p *Publisher) Emit(ctx context.Context, event Event) {
	if p == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}

	select {
	case p.inbox <- event:
	default:
		p.logger.WarnContext(ctx, "audit inbox full, dropping event",
			"action", event.Action,
			"batch_id", event.BatchID,
		)
	}
}

// Inbox exposes the event channel for a draining Worker.
func (p *Publisher) Inbox() <-chan Event {
	return p.inbox
}
