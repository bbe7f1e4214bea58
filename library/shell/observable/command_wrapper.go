package observable

import (
	"context"
	"time"

	"github.com/bookdesk/bookdesk/library/shell"
)

// CommandWrapper instruments a shell.CommandHandler.
type CommandWrapper[C shell.Command] struct {
	coreHandler shell.CommandHandler[C]
	commandType string
	obs         shell.Observability
}

// Option configures a wrapper.
type Option func(*shell.Observability)

func WithMetrics(collector shell.MetricsCollector) Option {
	return func(o *shell.Observability) { o.Metrics = collector }
}

func WithTracing(collector shell.TracingCollector) Option {
	return func(o *shell.Observability) { o.Tracing = collector }
}

func WithContextualLogging(logger shell.ContextualLogger) Option {
	return func(o *shell.Observability) { o.ContextualLogger = logger }
}

func WithLogging(logger shell.Logger) Option {
	return func(o *shell.Observability) { o.Logger = logger }
}

// WithObservability sets all collaborators at once.
func WithObservability(obs shell.Observability) Option {
	return func(o *shell.Observability) { *o = obs }
}

// NewCommandWrapper takes the command type from the zero value of C.
func NewCommandWrapper[C shell.Command](coreHandler shell.CommandHandler[C], opts ...Option) *CommandWrapper[C] {
	var zeroCommand C

	w := &CommandWrapper[C]{
		coreHandler: coreHandler,
		commandType: zeroCommand.CommandType(),
	}

	for _, opt := range opts {
		opt(&w.obs)
	}

	return w
}

// Handle delegates to the wrapped handler and reports duration, outcome and retries.
func (w *CommandWrapper[C]) Handle(ctx context.Context, command C) (shell.HandlerResult, error) {
	start := time.Now()
	ctx, span := w.obs.StartSpan(ctx, shell.SpanNameCommandHandle, map[string]string{shell.LogAttrCommandType: w.commandType})
	w.obs.Debug(ctx, shell.LogMsgCommandStarted, shell.LogAttrCommandType, w.commandType)

	result, err := w.coreHandler.Handle(ctx, command)
	duration := time.Since(start)

	w.recordRetries(ctx, result)

	status := shell.StatusFor(err)
	if err == nil && result.Idempotent {
		status = shell.StatusIdempotent
	}

	w.recordOutcome(ctx, status, duration)
	w.obs.FinishSpan(span, status, duration, err)

	switch status {
	case shell.StatusSuccess, shell.StatusIdempotent:
		w.obs.Info(ctx, shell.LogMsgCommandCompleted,
			shell.LogAttrCommandType, w.commandType,
			shell.LogAttrBusinessOutcome, status,
			shell.LogAttrDurationMS, shell.ToMilliseconds(duration),
		)
	case shell.StatusBusinessError:
		w.obs.Warn(ctx, shell.LogMsgCommandRejected,
			shell.LogAttrCommandType, w.commandType,
			shell.LogAttrError, err.Error(),
		)
	default:
		w.obs.Error(ctx, shell.LogMsgCommandFailed,
			shell.LogAttrCommandType, w.commandType,
			shell.LogAttrStatus, status,
			shell.LogAttrError, err.Error(),
		)
	}

	return result, err
}

func (w *CommandWrapper[C]) recordOutcome(ctx context.Context, status string, duration time.Duration) {
	labels := map[string]string{shell.LogAttrCommandType: w.commandType, shell.LogAttrStatus: status}

	w.obs.RecordDuration(ctx, shell.CommandHandlerDurationMetric, duration, labels)
	w.obs.IncrementCounter(ctx, shell.CommandHandlerCallsMetric, labels)

	outcomeMetric := map[string]string{
		shell.StatusIdempotent:          shell.CommandHandlerIdempotentMetric,
		shell.StatusCanceled:            shell.CommandHandlerCanceledMetric,
		shell.StatusTimeout:             shell.CommandHandlerTimeoutMetric,
		shell.StatusConcurrencyConflict: shell.CommandHandlerConcurrencyConflictMetric,
		shell.StatusBusinessError:       shell.CommandHandlerBusinessErrorMetric,
	}[status]

	if outcomeMetric != "" {
		w.obs.IncrementCounter(ctx, outcomeMetric, labels)
	}
}

func (w *CommandWrapper[C]) recordRetries(ctx context.Context, result shell.HandlerResult) {
	if result.RetryAttempts > 1 {
		w.obs.IncrementCounter(ctx, shell.CommandHandlerRetriesMetric,
			shell.BuildRetryLabels(w.commandType, result.RetryAttempts-1, result.LastErrorType))
		w.obs.RecordDuration(ctx, shell.CommandHandlerRetryDelayMetric, result.TotalRetryDelay,
			map[string]string{shell.LogAttrCommandType: w.commandType})
	}

	if result.RetriesExhausted {
		w.obs.IncrementCounter(ctx, shell.CommandHandlerMaxRetriesReachedMetric,
			map[string]string{shell.LogAttrCommandType: w.commandType, shell.LogAttrErrorType: result.LastErrorType})
	}
}
