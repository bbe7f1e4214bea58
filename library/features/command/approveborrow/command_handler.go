package approveborrow

import (
	"context"

	"github.com/bookdesk/bookdesk/library/core"
	"github.com/bookdesk/bookdesk/library/features/command/internal/borrowrecord"
	"github.com/bookdesk/bookdesk/library/shell"
)

// CommandHandler resolves the record to its book, then runs Query -> Unmarshal -> Decide -> Append
// on the book's events with retry on concurrency conflicts.
type CommandHandler struct {
	eventStore   shell.QueriesAndAppendsEvents
	retryOptions []shell.RetryOption
}

type Option func(*CommandHandler)

func WithRetryOptions(opts ...shell.RetryOption) Option {
	return func(h *CommandHandler) {
		h.retryOptions = opts
	}
}

func NewCommandHandler(eventStore shell.QueriesAndAppendsEvents, opts ...Option) CommandHandler {
	handler := CommandHandler{eventStore: eventStore}

	for _, opt := range opts {
		opt(&handler)
	}

	return handler
}

func (h CommandHandler) Handle(ctx context.Context, command Command) (shell.HandlerResult, error) {
	return shell.HandleWithRetry(ctx, func(ctx context.Context) (bool, error) {
		return borrowrecord.Execute(ctx, h.eventStore, command.RecordID, func(history core.DomainEvents) core.DecisionResult {
			return Decide(history, command)
		})
	}, h.retryOptions...)
}
