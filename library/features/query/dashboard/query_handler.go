package dashboard

import (
	"context"

	"github.com/bookdesk/bookdesk/library/shell"
)

// QueryHandler runs Query -> Unmarshal -> Project. Observability is added by a wrapper.
type QueryHandler struct {
	eventStore shell.QueriesEvents
}

func NewQueryHandler(eventStore shell.QueriesEvents) QueryHandler {
	return QueryHandler{eventStore: eventStore}
}

func (h QueryHandler) Handle(ctx context.Context, query Query) (Stats, error) {
	storableEvents, maxSequenceNumber, err := h.eventStore.Query(ctx, BuildEventFilter(query))
	if err != nil {
		return Stats{}, err
	}

	history, err := shell.DomainEventsFrom(storableEvents)
	if err != nil {
		return Stats{}, err
	}

	return Project(history, query, maxSequenceNumber), nil
}
