package tracing

import (
	"context"

	"github.com/sirupsen/logrus"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// LogExporter writes ended spans to a logrus entry at debug level.
type LogExporter struct {
	log *logrus.Entry
}

// NewLogExporter creates an exporter logging to log, or to the standard logger if nil.
func NewLogExporter(log *logrus.Entry) *LogExporter {
	if log == nil {
		log = logrus.WithField("component", "tracing")
	}

	return &LogExporter{log: log}
}

// ExportSpans logs one entry per span with its ids, duration, status and attributes.
func (e *LogExporter) ExportSpans(_ context.Context, spans []sdktrace.ReadOnlySpan) error {
	for _, span := range spans {
		fields := logrus.Fields{
			"trace_id": span.SpanContext().TraceID().String(),
			"span_id":  span.SpanContext().SpanID().String(),
			"duration": span.EndTime().Sub(span.StartTime()),
			"status":   span.Status().Code.String(),
		}

		for _, kv := range span.Attributes() {
			fields[string(kv.Key)] = kv.Value.Emit()
		}

		e.log.WithFields(fields).Debug(span.Name())
	}

	return nil
}

// Shutdown implements sdktrace.SpanExporter. There is nothing to flush.
func (e *LogExporter) Shutdown(context.Context) error {
	return nil
}

// NewProvider returns a tracer provider exporting every span synchronously to exporter.
// Callers install it with otel.SetTracerProvider and shut it down on exit.
func NewProvider(exporter sdktrace.SpanExporter) *sdktrace.TracerProvider {
	return sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
}
