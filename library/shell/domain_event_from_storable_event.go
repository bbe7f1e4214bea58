package shell

import (
	"errors"

	jsoniter "github.com/json-iterator/go"

	"github.com/bookdesk/bookdesk/eventstore"
	"github.com/bookdesk/bookdesk/library/core"
)

var (
	// ErrMappingToDomainEventFailed is returned when domain event conversion fails.
	ErrMappingToDomainEventFailed = errors.New("mapping to domain event failed")

	// ErrMappingToDomainEventUnknownEventType is returned for unrecognized event types.
	ErrMappingToDomainEventUnknownEventType = errors.New("unknown event type")
)

// DomainEventsFrom converts multiple StorableEvents to DomainEvents, keeping their order.
func DomainEventsFrom(storableEvents eventstore.StorableEvents) (core.DomainEvents, error) {
	domainEvents := make(core.DomainEvents, 0, len(storableEvents))

	for _, storableEvent := range storableEvents {
		domainEvent, err := DomainEventFrom(storableEvent)
		if err != nil {
			return nil, err
		}

		domainEvents = append(domainEvents, domainEvent)
	}

	return domainEvents, nil
}

// DomainEventFrom converts a StorableEvent to its corresponding DomainEvent.
func DomainEventFrom(storableEvent eventstore.StorableEvent) (core.DomainEvent, error) {
	payload := storableEvent.PayloadJSON

	switch storableEvent.EventType {
	case core.BookAddedToCatalogEventType:
		return unmarshal[core.BookAddedToCatalog](payload)
	case core.BookRemovedFromCatalogEventType:
		return unmarshal[core.BookRemovedFromCatalog](payload)
	case core.MemberRegisteredEventType:
		return unmarshal[core.MemberRegistered](payload)
	case core.MemberDeletedEventType:
		return unmarshal[core.MemberDeleted](payload)
	case core.BorrowRequestedEventType:
		return unmarshal[core.BorrowRequested](payload)
	case core.BorrowApprovedEventType:
		return unmarshal[core.BorrowApproved](payload)
	case core.BorrowRejectedEventType:
		return unmarshal[core.BorrowRejected](payload)
	case core.ReturnRequestedEventType:
		return unmarshal[core.ReturnRequested](payload)
	case core.ReturnApprovedEventType:
		return unmarshal[core.ReturnApproved](payload)
	case core.ReturnRejectedEventType:
		return unmarshal[core.ReturnRejected](payload)
	case core.BookReturnedEventType:
		return unmarshal[core.BookReturned](payload)
	case core.RemovingBookFailedEventType:
		return unmarshal[core.RemovingBookFailed](payload)
	case core.RegisteringMemberFailedEventType:
		return unmarshal[core.RegisteringMemberFailed](payload)
	case core.DeletingMemberFailedEventType:
		return unmarshal[core.DeletingMemberFailed](payload)
	case core.RequestingBorrowFailedEventType:
		return unmarshal[core.RequestingBorrowFailed](payload)
	case core.BorrowRecordTransitionFailedEventType:
		return unmarshal[core.BorrowRecordTransitionFailed](payload)
	}

	return nil, errors.Join(ErrMappingToDomainEventFailed, ErrMappingToDomainEventUnknownEventType)
}

func unmarshal[E core.DomainEvent](payloadJSON []byte) (core.DomainEvent, error) {
	var event E

	if err := jsoniter.ConfigFastest.Unmarshal(payloadJSON, &event); err != nil {
		return nil, errors.Join(ErrMappingToDomainEventFailed, err)
	}

	return event, nil
}
