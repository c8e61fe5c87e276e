package tracing

import (
	"context"
	"fmt"
	"sync"

	"github.com/spf13/viper"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nicholas-fedor/taskhooks/pkg/entrypoint"
	"github.com/nicholas-fedor/taskhooks/pkg/hookspec"
	"github.com/nicholas-fedor/taskhooks/pkg/lifecycle"
	"github.com/nicholas-fedor/taskhooks/pkg/plugin"
)

// Module is the module name the plugin is linked in under.
const Module = "taskhooks.tracing"

// EnabledKey is the configuration key that turns the plugin on.
const EnabledKey = "TASKHOOKS_TRACING"

// tracerName is the instrumentation scope name for session spans.
const tracerName = "github.com/nicholas-fedor/taskhooks"

// spanName names every session span.
const spanName = "taskhooks.session"

func init() {
	entrypoint.Provide(Module, Load)
	entrypoint.MustDeclare(entrypoint.EntryPoint{
		Group:  entrypoint.DefaultHookGroup,
		Name:   "tracing",
		Module: Module,
	})
}

// Load registers the plugin with the global tracer when tracing is enabled.
func Load(pm *plugin.Manager) error {
	if !viper.GetBool(EnabledKey) {
		return nil
	}

	return pm.RegisterPlugin(New(pm, otel.Tracer(tracerName)))
}

// Plugin opens a span per session.
type Plugin struct {
	manager *plugin.Manager
	tracer  trace.Tracer

	mu      sync.Mutex
	seq     int
	pending map[string]trace.Span // keyed by stop implementation name
}

// New creates a tracing plugin registering its stop implementations on pm.
func New(pm *plugin.Manager, tracer trace.Tracer) *Plugin {
	return &Plugin{
		manager: pm,
		tracer:  tracer,
		pending: make(map[string]trace.Span),
	}
}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "tracing"
}

// TaskStart starts the session span and registers the task_stop implementation ending it.
//
// Spans left open by sessions whose start failed after this hook ran are ended
// with an error status first.
func (p *Plugin) TaskStart(ctx context.Context) error {
	p.abandonPending()

	attrs := []attribute.KeyValue{}
	if session, ok := lifecycle.FromContext(ctx); ok {
		attrs = append(attrs, attribute.String("taskhooks.session.id", session.ID.String()))
	}

	_, span := p.tracer.Start(ctx, spanName,
		trace.WithAttributes(attrs...),
		trace.WithSpanKind(trace.SpanKindInternal),
	)

	p.mu.Lock()
	p.seq++
	name := fmt.Sprintf("%s/%d", p.Name(), p.seq)
	p.pending[name] = span
	p.mu.Unlock()

	err := p.manager.Register(hookspec.TaskStopName, plugin.StopHook(name, func(_ context.Context, failed bool) error {
		p.finish(name, failed)

		return nil
	}))
	if err != nil {
		p.finish(name, true)

		return err
	}

	return nil
}

// finish ends the span behind name and removes its stop implementation.
func (p *Plugin) finish(name string, failed bool) {
	p.mu.Lock()
	span, ok := p.pending[name]
	delete(p.pending, name)
	p.mu.Unlock()

	p.manager.Unregister(hookspec.TaskStopName, name)

	if !ok {
		return
	}

	span.SetAttributes(attribute.Bool("taskhooks.task.failed", failed))

	if failed {
		span.SetStatus(codes.Error, "task failed")
	} else {
		span.SetStatus(codes.Ok, "")
	}

	span.End()
}

// abandonPending ends spans of sessions that never reached task_stop.
func (p *Plugin) abandonPending() {
	p.mu.Lock()
	names := make([]string, 0, len(p.pending))
	for name := range p.pending {
		names = append(names, name)
	}
	p.mu.Unlock()

	for _, name := range names {
		p.finish(name, true)
	}
}
