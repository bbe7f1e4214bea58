package oteladapters_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/log/embedded"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/bookdesk/bookdesk/eventstore/oteladapters"
)

// capturedRecord keeps what Emit saw; log.Record must not be retained after Emit returns.
type capturedRecord struct {
	body     string
	severity log.Severity
	attrs    map[string]log.Value
	trace    trace.SpanContext
}

func (r capturedRecord) Body() string                { return r.body }
func (r capturedRecord) Severity() log.Severity      { return r.severity }
func (r capturedRecord) Attrs() map[string]log.Value { return r.attrs }

type recordingLogger struct {
	embedded.Logger

	mu      sync.Mutex
	records []capturedRecord
}

func (l *recordingLogger) Emit(ctx context.Context, record log.Record) {
	l.mu.Lock()
	defer l.mu.Unlock()

	attrs := make(map[string]log.Value, record.AttributesLen())
	record.WalkAttributes(func(kv log.KeyValue) bool {
		attrs[kv.Key] = kv.Value
		return true
	})

	l.records = append(l.records, capturedRecord{
		body:     record.Body().AsString(),
		severity: record.Severity(),
		attrs:    attrs,
		trace:    trace.SpanContextFromContext(ctx),
	})
}

func (l *recordingLogger) Enabled(context.Context, log.EnabledParameters) bool {
	return true
}

type recordingProvider struct {
	embedded.LoggerProvider

	logger *recordingLogger
}

func (p *recordingProvider) Logger(string, ...log.LoggerOption) log.Logger {
	return p.logger
}

func Test_OTelLogger_EmitsTypedAttributes(t *testing.T) {
	// arrange
	logger := &recordingLogger{}
	otelLogger := oteladapters.NewOTelLogger(logger)

	// act
	otelLogger.InfoContext(context.Background(), "eventstore operation: events appended",
		"event_count", 2, "duration_ms", 1.5, "engine", "file", "dangling")

	// assert
	require.Len(t, logger.records, 1)
	record := logger.records[0]
	assert.Equal(t, "eventstore operation: events appended", record.Body())
	assert.Equal(t, log.SeverityInfo, record.Severity())

	values := record.Attrs()
	require.Len(t, values, 3)
	assert.Equal(t, int64(2), values["event_count"].AsInt64())
	assert.InDelta(t, 1.5, values["duration_ms"].AsFloat64(), 0.0001)
	assert.Equal(t, "file", values["engine"].AsString())
}

func Test_OTelLogger_MapsLevelsToSeverities(t *testing.T) {
	logger := &recordingLogger{}
	otelLogger := oteladapters.NewOTelLogger(logger)
	ctx := context.Background()

	otelLogger.DebugContext(ctx, "d")
	otelLogger.WarnContext(ctx, "w")
	otelLogger.ErrorContext(ctx, "e", "timeout", 2*time.Second)

	require.Len(t, logger.records, 3)
	assert.Equal(t, log.SeverityDebug, logger.records[0].Severity())
	assert.Equal(t, log.SeverityWarn, logger.records[1].Severity())
	assert.Equal(t, log.SeverityError, logger.records[2].Severity())
	assert.InDelta(t, 2000.0, logger.records[2].Attrs()["timeout"].AsFloat64(), 0.0001)
}

func Test_SlogBridgeLogger_PassesTheSpanContextOn(t *testing.T) {
	// arrange
	logger := &recordingLogger{}
	bridge := oteladapters.NewSlogBridgeLogger("bookdesk", &recordingProvider{logger: logger})
	tracer := sdktrace.NewTracerProvider().Tracer("test")

	ctx, span := tracer.Start(context.Background(), "commandhandler.handle")
	defer span.End()

	// act
	bridge.InfoContext(ctx, "command handled", "command_type", "LendBook")

	// assert
	require.Len(t, logger.records, 1)
	assert.Equal(t, "command handled", logger.records[0].Body())
	assert.Equal(t, span.SpanContext().TraceID(), logger.records[0].trace.TraceID())
	assert.Equal(t, "LendBook", logger.records[0].Attrs()["command_type"].AsString())
	assert.NotNil(t, bridge.Logger())
}
