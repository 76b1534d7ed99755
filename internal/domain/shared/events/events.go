// Package events is the shared kernel for domain events relayed through the
// outbox.
package events

import (
	"slices"
	"time"
)

// DomainEvent is a fact recorded by an aggregate. EventName doubles as the
// outbox record name and, suffixed with ".v1", as the CloudEvents type.
type DomainEvent interface {
	EventName() string
	AggregateID() string
	OccurredAt() time.Time
}

// EventRecorder is embedded by aggregates to collect events until the unit of
// work persists them. The zero value is ready to use.
type EventRecorder struct {
	pending []DomainEvent
}

// Record appends evs, skipping nils.
func (r *EventRecorder) Record(evs ...DomainEvent) {
	for _, ev := range evs {
		if ev != nil {
			r.pending = append(r.pending, ev)
		}
	}
}

func (r *EventRecorder) PendingEvents() []DomainEvent {
	return slices.Clone(r.pending)
}

// DrainEvents returns the pending events and forgets them.
func (r *EventRecorder) DrainEvents() []DomainEvent {
	out := r.pending
	r.pending = nil
	return out
}
