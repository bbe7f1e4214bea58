package authentication

import (
	"context"
	"fmt"

	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/shell"
)

type QueryHandler struct {
	eventStore shell.QueriesEvents
}

func NewQueryHandler(eventStore shell.QueriesEvents) QueryHandler {
	return QueryHandler{eventStore: eventStore}
}

// Handle runs Query -> Unmarshal -> Project -> verify password.
func (h QueryHandler) Handle(ctx context.Context, query Query) (Authenticated, error) {
	storableEvents, maxSequenceNumber, err := h.eventStore.Query(ctx, BuildEventFilter(query))
	if err != nil {
		return Authenticated{}, err
	}

	history, err := shell.DomainEventsFrom(storableEvents)
	if err != nil {
		return Authenticated{}, err
	}

	account := Project(history, query, maxSequenceNumber)

	if !account.Active || !shell.PasswordMatches(account.PasswordHash, query.Password) {
		return Authenticated{}, fmt.Errorf("%s: %w", query.MemberID, core.ErrInvalidCredentials)
	}

	return Authenticated{
		MemberID:       account.MemberID,
		FullName:       account.FullName,
		Role:           account.Role,
		SequenceNumber: account.SequenceNumber,
	}, nil
}
