// Package events records what the simulation pipeline did and why, as a
// causal chain of correlated events. The chain is an in-process provenance
// trail for audit and explanation; it is not a message bus.
package events

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ErrCorrelationMismatch reports an event appended to a chain that tracks a
// different correlation ID.
var ErrCorrelationMismatch = errors.New("events: correlation id mismatch")

// CorrelatedEvent is a single step in a causal chain. The correlation ID ties
// every event of one logical flow together and never changes after creation;
// ParentID records which event caused this one.
type CorrelatedEvent struct {
	ID            uuid.UUID         `json:"id"`
	Type          string            `json:"type"`
	CorrelationID uuid.UUID         `json:"correlation_id"`
	ParentID      *uuid.UUID        `json:"parent_id,omitempty"`
	Timestamp     time.Time         `json:"timestamp"`
	Metadata      map[string]string `json:"metadata,omitempty"`
}

// NewEvent creates a root event. Passing uuid.Nil as the correlation ID
// starts a fresh correlation.
func NewEvent(eventType string, correlationID uuid.UUID, metadata map[string]string) (CorrelatedEvent, error) {
	if eventType == "" {
		return CorrelatedEvent{}, fmt.Errorf("event type is required")
	}
	if correlationID == uuid.Nil {
		correlationID = uuid.New()
	}
	return CorrelatedEvent{
		ID:            uuid.New(),
		Type:          eventType,
		CorrelationID: correlationID,
		Timestamp:     time.Now().UTC(),
		Metadata:      copyMetadata(metadata),
	}, nil
}

// ChildEvent creates an event caused by parent. The child inherits the
// parent's correlation ID and metadata; keys in metadata override inherited
// ones.
func ChildEvent(parent CorrelatedEvent, eventType string, metadata map[string]string) (CorrelatedEvent, error) {
	if eventType == "" {
		return CorrelatedEvent{}, fmt.Errorf("event type is required")
	}
	if parent.ID == uuid.Nil {
		return CorrelatedEvent{}, fmt.Errorf("parent event has no id")
	}

	merged := copyMetadata(parent.Metadata)
	if len(metadata) > 0 {
		if merged == nil {
			merged = make(map[string]string, len(metadata))
		}
		for k, v := range metadata {
			merged[k] = v
		}
	}

	parentID := parent.ID
	return CorrelatedEvent{
		ID:            uuid.New(),
		Type:          eventType,
		CorrelationID: parent.CorrelationID,
		ParentID:      &parentID,
		Timestamp:     time.Now().UTC(),
		Metadata:      merged,
	}, nil
}

// EventChain is the ordered record of one correlated flow. Events keep
// insertion order, which is also causal order for a single producer.
type EventChain struct {
	CorrelationID uuid.UUID         `json:"correlation_id"`
	Events        []CorrelatedEvent `json:"events"`
}

// NewChain creates an empty chain for the given correlation ID. Passing
// uuid.Nil starts a fresh correlation.
func NewChain(correlationID uuid.UUID) *EventChain {
	if correlationID == uuid.Nil {
		correlationID = uuid.New()
	}
	return &EventChain{CorrelationID: correlationID}
}

// Append adds an event to the chain. Events from other correlations are
// rejected so a chain can never interleave two flows.
func (c *EventChain) Append(e CorrelatedEvent) error {
	if e.CorrelationID != c.CorrelationID {
		return fmt.Errorf("%w: chain %s, event %s", ErrCorrelationMismatch, c.CorrelationID, e.CorrelationID)
	}
	c.Events = append(c.Events, e)
	return nil
}

// Len returns the number of events in the chain.
func (c *EventChain) Len() int {
	return len(c.Events)
}

// Root returns the first event without a parent, which started the flow.
func (c *EventChain) Root() (CorrelatedEvent, bool) {
	for _, e := range c.Events {
		if e.ParentID == nil {
			return e, true
		}
	}
	return CorrelatedEvent{}, false
}

// Children returns the direct children of the given event in insertion order.
func (c *EventChain) Children(parentID uuid.UUID) []CorrelatedEvent {
	var out []CorrelatedEvent
	for _, e := range c.Events {
		if e.ParentID != nil && *e.ParentID == parentID {
			out = append(out, e)
		}
	}
	return out
}

// OfType returns every event with the given type in insertion order.
func (c *EventChain) OfType(eventType string) []CorrelatedEvent {
	var out []CorrelatedEvent
	for _, e := range c.Events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// Tree returns the parent-to-children adjacency of the chain.
func (c *EventChain) Tree() map[uuid.UUID][]uuid.UUID {
	out := make(map[uuid.UUID][]uuid.UUID)
	for _, e := range c.Events {
		if e.ParentID != nil {
			out[*e.ParentID] = append(out[*e.ParentID], e.ID)
		}
	}
	return out
}

func copyMetadata(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
