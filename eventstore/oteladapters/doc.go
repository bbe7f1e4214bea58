// Package oteladapters implements the eventstore observability interfaces on the OpenTelemetry APIs.
//
// The engines and the command/query handlers only know eventstore.MetricsCollector,
// eventstore.TracingCollector and eventstore.ContextualLogger; this package maps them to
// OpenTelemetry meters, tracers and loggers, so any OTel SDK or exporter can be plugged in.
package oteladapters
