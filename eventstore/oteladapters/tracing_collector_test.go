package oteladapters_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/bookdesk/bookdesk/eventstore/oteladapters"
)

func givenTracingCollector() (*oteladapters.TracingCollector, *tracetest.InMemoryExporter) {
	exporter := tracetest.NewInMemoryExporter()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	return oteladapters.NewTracingCollector(provider.Tracer("test")), exporter
}

func attributeValue(span tracetest.SpanStub, key string) (string, bool) {
	for _, attr := range span.Attributes {
		if attr.Key == attribute.Key(key) {
			return attr.Value.AsString(), true
		}
	}

	return "", false
}

func Test_TracingCollector_RecordsStartAndEndAttributes(t *testing.T) {
	// arrange
	collector, exporter := givenTracingCollector()

	// act
	_, span := collector.StartSpan(context.Background(), "eventstore.query", map[string]string{"operation": "query"})
	collector.FinishSpan(span, "success", map[string]string{"event_count": "3"})

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, "eventstore.query", spans[0].Name)
	assert.Equal(t, codes.Ok, spans[0].Status.Code)

	operation, found := attributeValue(spans[0], "operation")
	assert.True(t, found)
	assert.Equal(t, "query", operation)

	eventCount, found := attributeValue(spans[0], "event_count")
	assert.True(t, found)
	assert.Equal(t, "3", eventCount)
}

func Test_TracingCollector_UsesErrorTypeAsStatusDescription(t *testing.T) {
	collector, exporter := givenTracingCollector()

	_, span := collector.StartSpan(context.Background(), "eventstore.append", nil)
	collector.FinishSpan(span, "error", map[string]string{"error_type": "concurrency"})

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	assert.Equal(t, codes.Error, spans[0].Status.Code)
	assert.Equal(t, "concurrency", spans[0].Status.Description)
}

func Test_TracingCollector_NestsSpansStartedFromTheReturnedContext(t *testing.T) {
	// arrange
	collector, exporter := givenTracingCollector()

	// act
	ctx, parent := collector.StartSpan(context.Background(), "commandhandler.handle", nil)
	_, child := collector.StartSpan(ctx, "eventstore.query", nil)
	collector.FinishSpan(child, "success", nil)
	collector.FinishSpan(parent, "success", nil)

	// assert
	spans := exporter.GetSpans()
	require.Len(t, spans, 2)
	assert.Equal(t, spans[1].SpanContext.SpanID(), spans[0].Parent.SpanID())
	assert.Equal(t, spans[1].SpanContext.TraceID(), spans[0].SpanContext.TraceID())
}

func Test_TracingCollector_IgnoresForeignSpanContexts(t *testing.T) {
	collector, exporter := givenTracingCollector()

	assert.NotPanics(t, func() { collector.FinishSpan(nil, "success", nil) })
	assert.Empty(t, exporter.GetSpans())
}

func Test_OTelSpanContext_KeepsUnknownStatusAsAttribute(t *testing.T) {
	collector, exporter := givenTracingCollector()

	_, span := collector.StartSpan(context.Background(), "x", nil)
	span.AddAttribute("member_id", "m-1")
	collector.FinishSpan(span, "skipped", nil)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	status, found := attributeValue(spans[0], "status")
	assert.True(t, found)
	assert.Equal(t, "skipped", status)

	memberID, _ := attributeValue(spans[0], "member_id")
	assert.Equal(t, "m-1", memberID)
}
