package borrowrecords

import (
	"context"

	"github.com/bookdesk/bookdesk/library/shell"
)

// QueryHandler runs Query -> Unmarshal -> Project. Observability and snapshots are added by wrappers.
type QueryHandler struct {
	eventStore shell.QueriesEvents
}

func NewQueryHandler(eventStore shell.QueriesEvents) QueryHandler {
	return QueryHandler{eventStore: eventStore}
}

func (h QueryHandler) Handle(ctx context.Context, query Query) (BorrowRecords, error) {
	storableEvents, maxSequenceNumber, err := h.eventStore.Query(ctx, BuildEventFilter(query))
	if err != nil {
		return BorrowRecords{}, err
	}

	history, err := shell.DomainEventsFrom(storableEvents)
	if err != nil {
		return BorrowRecords{}, err
	}

	return Project(history, query, maxSequenceNumber), nil
}
