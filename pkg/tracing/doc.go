// Package tracing records each task session as an OpenTelemetry span.
//
// The span starts in task_start. The plugin then registers a task_stop
// implementation scoped to that session which ends the span with an error or
// ok status and unregisters itself, so sessions never share a span.
//
// The tracer comes from the global OpenTelemetry provider unless one is
// injected; without a configured provider spans are no-ops.
package tracing
