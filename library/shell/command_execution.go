package shell

import (
	"context"

	"github.com/bookdesk/bookdesk/eventstore"
	"github.com/bookdesk/bookdesk/library/core"
)

// QueryHistory runs the Query and Unmarshal phases. Commands always read with strong consistency,
// a decision on stale history would only end in a concurrency conflict.
func QueryHistory(ctx context.Context, eventStore QueriesEvents, filter eventstore.Filter) (
	core.DomainEvents,
	eventstore.MaxSequenceNumberUint,
	error,
) {

	storableEvents, maxSeq, err := eventStore.Query(eventstore.WithStrongConsistency(ctx), filter)
	if err != nil {
		return nil, 0, err
	}

	history, err := DomainEventsFrom(storableEvents)
	if err != nil {
		return nil, 0, err
	}

	return history, maxSeq, nil
}

// AppendDecision runs the Append phase for a decision made on the history queried with filter up to maxSeq.
// It reports whether the decision was idempotent. For an error decision the failure event is appended
// and the business error returned.
func AppendDecision(
	ctx context.Context,
	eventStore QueriesAndAppendsEvents,
	filter eventstore.Filter,
	maxSeq eventstore.MaxSequenceNumberUint,
	result core.DecisionResult,
) (bool, error) {

	if !result.HasEventToAppend() {
		return true, nil
	}

	storableEvent, err := StorableEventFrom(result.Event, NewCommandEventMetadata())
	if err != nil {
		return false, err
	}

	if err = eventStore.Append(ctx, filter, maxSeq, storableEvent); err != nil {
		return false, err
	}

	return false, result.HasError()
}

// HandleWithRetry retries execute on concurrency conflicts and turns its outcome into a HandlerResult.
func HandleWithRetry(
	ctx context.Context,
	execute func(ctx context.Context) (bool, error),
	retryOptions ...RetryOption,
) (HandlerResult, error) {

	idempotent := false

	retryMetrics, err := RetryWithExponentialBackoff(
		ctx,
		func(ctx context.Context) error {
			var executeErr error
			idempotent, executeErr = execute(ctx)

			return executeErr
		},
		retryOptions...,
	)

	switch {
	case err != nil:
		return NewErrorResult(retryMetrics), err
	case idempotent:
		return NewIdempotentResult(retryMetrics), nil
	default:
		return NewSuccessResult(retryMetrics), nil
	}
}
