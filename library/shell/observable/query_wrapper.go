package observable

import (
	"context"
	"time"

	"github.com/bookdesk/bookdesk/library/shell"
)

// QueryWrapper instruments a shell.QueryHandler.
type QueryWrapper[Q shell.Query, R shell.QueryResult] struct {
	coreHandler shell.QueryHandler[Q, R]
	queryType   string
	obs         shell.Observability
}

// NewQueryWrapper takes the query type from the zero value of Q.
func NewQueryWrapper[Q shell.Query, R shell.QueryResult](coreHandler shell.QueryHandler[Q, R], opts ...Option) *QueryWrapper[Q, R] {
	var zeroQuery Q

	w := &QueryWrapper[Q, R]{
		coreHandler: coreHandler,
		queryType:   zeroQuery.QueryType(),
	}

	for _, opt := range opts {
		opt(&w.obs)
	}

	return w
}

func (w *QueryWrapper[Q, R]) Handle(ctx context.Context, query Q) (R, error) {
	start := time.Now()
	ctx, span := w.obs.StartSpan(ctx, shell.SpanNameQueryHandle, map[string]string{shell.LogAttrQueryType: w.queryType})
	w.obs.Debug(ctx, shell.LogMsgQueryStarted, shell.LogAttrQueryType, w.queryType)

	result, err := w.coreHandler.Handle(ctx, query)
	duration := time.Since(start)
	status := shell.StatusFor(err)

	labels := map[string]string{shell.LogAttrQueryType: w.queryType, shell.LogAttrStatus: status}
	w.obs.RecordDuration(ctx, shell.QueryHandlerDurationMetric, duration, labels)
	w.obs.IncrementCounter(ctx, shell.QueryHandlerCallsMetric, labels)

	switch status {
	case shell.StatusCanceled:
		w.obs.IncrementCounter(ctx, shell.QueryHandlerCanceledMetric, labels)
	case shell.StatusTimeout:
		w.obs.IncrementCounter(ctx, shell.QueryHandlerTimeoutMetric, labels)
	}

	w.obs.FinishSpan(span, status, duration, err)

	if status == shell.StatusBusinessError {
		w.obs.Warn(ctx, shell.LogMsgQueryFailed, shell.LogAttrQueryType, w.queryType, shell.LogAttrError, err.Error())
		return result, err
	}

	if err != nil {
		w.obs.Error(ctx, shell.LogMsgQueryFailed,
			shell.LogAttrQueryType, w.queryType,
			shell.LogAttrStatus, status,
			shell.LogAttrError, err.Error(),
		)

		return result, err
	}

	w.obs.Info(ctx, shell.LogMsgQueryCompleted,
		shell.LogAttrQueryType, w.queryType,
		shell.LogAttrDurationMS, shell.ToMilliseconds(duration),
		shell.LogAttrToSequence, result.GetSequenceNumber(),
	)

	return result, nil
}
