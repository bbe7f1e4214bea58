// Package snapshot brings query projections up to date from stored snapshots instead of
// projecting the full history on every call.
package snapshot

import (
	"context"
	"errors"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/bookdesk/bookdesk/eventstore"
	"github.com/bookdesk/bookdesk/library/shell"
)

const snapshotSaveTimeout = 10 * time.Second

var (
	// ErrIncrementalQueryFailed is returned when querying the events after the snapshot fails.
	ErrIncrementalQueryFailed = errors.New("incremental query failed")

	// ErrEventUnmarshalingFailed is returned when the events after the snapshot cannot be converted.
	ErrEventUnmarshalingFailed = errors.New("event unmarshaling failed")
)

// QueriesEventsAndHandlesSnapshots is what the wrapper needs from an event store.
type QueriesEventsAndHandlesSnapshots interface {
	shell.QueriesEvents
	SaveSnapshot(ctx context.Context, snapshot eventstore.Snapshot) error
	LoadSnapshot(ctx context.Context, projectionType string, filter eventstore.Filter) (*eventstore.Snapshot, error)
}

// QueryWrapper answers queries from snapshot + events after it:
//
//	miss: run the core handler, store its result as snapshot
//	hit:  query events with sequence > snapshot sequence, project them onto the snapshot, store the result
//
// A snapshot which cannot be loaded or decoded is treated like a miss. Failing to store a snapshot
// is logged, the result is returned anyway.
type QueryWrapper[Q shell.Query, R shell.QueryResult] struct {
	coreHandler   shell.QueryHandler[Q, R]
	eventStore    QueriesEventsAndHandlesSnapshots
	projectFunc   shell.ProjectionFunc[Q, R]
	filterBuilder shell.FilterBuilderFunc[Q]
	obs           shell.Observability
}

// Option configures a QueryWrapper.
type Option func(*shell.Observability)

// WithObservability sets logger and metrics for snapshot hits, misses and failures.
func WithObservability(obs shell.Observability) Option {
	return func(o *shell.Observability) { *o = obs }
}

// NewQueryWrapper wraps coreHandler. projectFunc and filterBuilder must be the ones coreHandler uses.
func NewQueryWrapper[Q shell.Query, R shell.QueryResult](
	coreHandler shell.QueryHandler[Q, R],
	eventStore QueriesEventsAndHandlesSnapshots,
	projectFunc shell.ProjectionFunc[Q, R],
	filterBuilder shell.FilterBuilderFunc[Q],
	opts ...Option,
) *QueryWrapper[Q, R] {

	w := &QueryWrapper[Q, R]{
		coreHandler:   coreHandler,
		eventStore:    eventStore,
		projectFunc:   projectFunc,
		filterBuilder: filterBuilder,
	}

	for _, opt := range opts {
		opt(&w.obs)
	}

	return w
}

func (w *QueryWrapper[Q, R]) Handle(ctx context.Context, query Q) (R, error) {
	baseFilter := w.filterBuilder(query)
	snapshotType := query.SnapshotType()

	reopened, ok := baseFilter.ReopenForSequenceFiltering().(eventstore.SequenceFilteringCapable)
	if !ok {
		return w.coreHandler.Handle(ctx, query)
	}

	snapshot, err := w.eventStore.LoadSnapshot(ctx, snapshotType, baseFilter)
	if err != nil {
		w.obs.Warn(ctx, shell.LogMsgSnapshotFallback, shell.LogAttrQueryType, query.QueryType(), shell.LogAttrError, err.Error())
		w.countReason(ctx, query, shell.SnapshotReasonError)

		return w.fallbackAndSaveSnapshot(ctx, query, baseFilter)
	}

	if snapshot == nil {
		w.obs.Debug(ctx, shell.LogMsgSnapshotMiss, shell.LogAttrQueryType, query.QueryType())
		w.countReason(ctx, query, shell.SnapshotReasonMiss)

		return w.fallbackAndSaveSnapshot(ctx, query, baseFilter)
	}

	var base R
	if err = jsoniter.ConfigFastest.Unmarshal(snapshot.Data, &base); err != nil {
		w.obs.Warn(ctx, shell.LogMsgSnapshotFallback, shell.LogAttrQueryType, query.QueryType(), shell.LogAttrError, err.Error())
		w.countReason(ctx, query, shell.SnapshotReasonError)

		return w.fallbackAndSaveSnapshot(ctx, query, baseFilter)
	}

	incrementalFilter := reopened.WithSequenceNumberHigherThan(snapshot.SequenceNumber).Finalize()

	storableEvents, maxSeq, err := w.eventStore.Query(ctx, incrementalFilter)
	if err != nil {
		return *new(R), errors.Join(ErrIncrementalQueryFailed, err)
	}

	history, err := shell.DomainEventsFrom(storableEvents)
	if err != nil {
		return *new(R), errors.Join(ErrEventUnmarshalingFailed, err)
	}

	finalSequence := max(maxSeq, snapshot.SequenceNumber)
	result := w.projectFunc(history, query, finalSequence, base)

	w.obs.Debug(ctx, shell.LogMsgSnapshotHit,
		shell.LogAttrQueryType, query.QueryType(),
		shell.LogAttrFromSequence, snapshot.SequenceNumber,
		shell.LogAttrToSequence, finalSequence,
		shell.LogAttrEventCount, len(history),
	)
	w.countReason(ctx, query, shell.SnapshotReasonHit)

	if len(history) > 0 {
		w.saveSnapshot(ctx, query, baseFilter, result)
	}

	return result, nil
}

func (w *QueryWrapper[Q, R]) fallbackAndSaveSnapshot(ctx context.Context, query Q, baseFilter eventstore.Filter) (R, error) {
	result, err := w.coreHandler.Handle(ctx, query)
	if err != nil {
		return result, err
	}

	w.saveSnapshot(ctx, query, baseFilter, result)

	return result, nil
}

// saveSnapshot outlives a canceled request context, a computed projection is worth keeping.
func (w *QueryWrapper[Q, R]) saveSnapshot(parentCtx context.Context, query Q, filter eventstore.Filter, result R) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parentCtx), snapshotSaveTimeout)
	defer cancel()

	data, err := jsoniter.ConfigFastest.Marshal(result)
	if err == nil {
		var snapshot eventstore.Snapshot

		snapshot, err = eventstore.BuildSnapshot(query.SnapshotType(), filter.Hash(), result.GetSequenceNumber(), data)
		if err == nil {
			err = w.eventStore.SaveSnapshot(ctx, snapshot)
		}
	}

	if err != nil {
		w.obs.Warn(ctx, shell.LogMsgSnapshotFallback, shell.LogAttrQueryType, query.QueryType(), shell.LogAttrError, err.Error())
		return
	}

	w.obs.Debug(ctx, shell.LogMsgSnapshotSaved, shell.LogAttrQueryType, query.QueryType(), shell.LogAttrToSequence, result.GetSequenceNumber())
}

func (w *QueryWrapper[Q, R]) countReason(ctx context.Context, query Q, reason string) {
	w.obs.IncrementCounter(ctx, shell.QuerySnapshotMetric, map[string]string{
		shell.LogAttrQueryType:      query.QueryType(),
		shell.LogAttrSnapshotReason: reason,
	})
}
