package oteladapters_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/bookdesk/bookdesk/eventstore/oteladapters"
)

func givenMetricsCollector() (*oteladapters.MetricsCollector, *sdkmetric.ManualReader) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	return oteladapters.NewMetricsCollector(provider.Meter("test")), reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader, name string) metricdata.Aggregation {
	t.Helper()

	var resourceMetrics metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &resourceMetrics))

	for _, scopeMetrics := range resourceMetrics.ScopeMetrics {
		for _, m := range scopeMetrics.Metrics {
			if m.Name == name {
				return m.Data
			}
		}
	}

	require.Failf(t, "metric not found", "metric %s was not collected", name)

	return nil
}

func Test_MetricsCollector_RecordDuration_RecordsSecondsInAHistogram(t *testing.T) {
	// arrange
	collector, reader := givenMetricsCollector()
	labels := map[string]string{"operation": "query", "status": "success"}

	// act
	collector.RecordDuration("eventstore_query_duration_seconds", 150*time.Millisecond, labels)

	// assert
	histogram, ok := collect(t, reader, "eventstore_query_duration_seconds").(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, histogram.DataPoints, 1)
	assert.Equal(t, uint64(1), histogram.DataPoints[0].Count)
	assert.InDelta(t, 0.15, histogram.DataPoints[0].Sum, 0.001)

	expected := attribute.NewSet(attribute.String("operation", "query"), attribute.String("status", "success"))
	assert.True(t, histogram.DataPoints[0].Attributes.Equals(&expected))
}

func Test_MetricsCollector_IncrementCounter_Sums(t *testing.T) {
	collector, reader := givenMetricsCollector()
	labels := map[string]string{"operation": "append", "conflict_type": "concurrency"}

	collector.IncrementCounter("eventstore_concurrency_conflicts_total", labels)
	collector.IncrementCounterContext(context.Background(), "eventstore_concurrency_conflicts_total", labels)

	sum, ok := collect(t, reader, "eventstore_concurrency_conflicts_total").(metricdata.Sum[int64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.Equal(t, int64(2), sum.DataPoints[0].Value)
	assert.True(t, sum.IsMonotonic)
}

func Test_MetricsCollector_RecordValue_AddsUpTotals(t *testing.T) {
	collector, reader := givenMetricsCollector()

	collector.RecordValue("eventstore_events_appended_total", 2, nil)
	collector.RecordValue("eventstore_events_appended_total", 3, nil)

	sum, ok := collect(t, reader, "eventstore_events_appended_total").(metricdata.Sum[float64])
	require.True(t, ok)
	require.Len(t, sum.DataPoints, 1)
	assert.InDelta(t, 5.0, sum.DataPoints[0].Value, 0.0001)
}

func Test_MetricsCollector_RecordValue_KeepsTheLastValueOfGauges(t *testing.T) {
	collector, reader := givenMetricsCollector()

	collector.RecordValue("bookdesk_catalog_books", 12, nil)
	collector.RecordValue("bookdesk_catalog_books", 11, nil)

	gauge, ok := collect(t, reader, "bookdesk_catalog_books").(metricdata.Gauge[float64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.InDelta(t, 11.0, gauge.DataPoints[0].Value, 0.0001)
}

func Test_MetricsCollector_IsSafeForConcurrentUse(t *testing.T) {
	// arrange
	collector, reader := givenMetricsCollector()
	wg := sync.WaitGroup{}

	// act
	for range 20 {
		wg.Add(1)

		go func() {
			defer wg.Done()
			collector.IncrementCounter("commandhandler_handle_total", map[string]string{"command_type": "LendBook"})
			collector.RecordDuration("commandhandler_handle_duration_seconds", time.Millisecond, nil)
		}()
	}

	wg.Wait()

	// assert
	sum, ok := collect(t, reader, "commandhandler_handle_total").(metricdata.Sum[int64])
	require.True(t, ok)
	assert.Equal(t, int64(20), sum.DataPoints[0].Value)
}
