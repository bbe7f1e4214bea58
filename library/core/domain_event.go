package core

import (
	"time"
)

// DomainEvents is a slice of DomainEvent instances.
type DomainEvents = []DomainEvent

// DomainEvent represents a business event that has occurred in the domain.
type DomainEvent interface {
	EventType() string
	HasOccurredAt() time.Time

	// IsErrorEvent returns true for events recording a rejected intent.
	IsErrorEvent() bool
}
