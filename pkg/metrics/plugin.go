package metrics

import (
	"context"
	"sync"
	"time"

	"github.com/spf13/viper"

	"github.com/nicholas-fedor/taskhooks/pkg/entrypoint"
	"github.com/nicholas-fedor/taskhooks/pkg/plugin"
)

// Module is the module name the plugin is linked in under.
const Module = "taskhooks.metrics"

// EnabledKey is the configuration key that turns the plugin on.
const EnabledKey = "TASKHOOKS_HTTP_API_METRICS"

func init() {
	entrypoint.Provide(Module, Load)
	entrypoint.MustDeclare(entrypoint.EntryPoint{
		Group:  entrypoint.DefaultHookGroup,
		Name:   "metrics",
		Module: Module,
	})
}

// Load registers the plugin against the default handler when metrics are enabled.
func Load(pm *plugin.Manager) error {
	if !viper.GetBool(EnabledKey) {
		return nil
	}

	return pm.RegisterPlugin(NewPlugin(Default()))
}

// Plugin records every session it sees in a Metrics handler.
type Plugin struct {
	metrics *Metrics
	clock   func() time.Time

	mu      sync.Mutex
	started time.Time
}

// NewPlugin creates a plugin feeding m.
func NewPlugin(m *Metrics) *Plugin {
	return &Plugin{metrics: m, clock: time.Now}
}

// Name returns the plugin name.
func (p *Plugin) Name() string {
	return "metrics"
}

// TaskStart counts the session and notes its start time.
func (p *Plugin) TaskStart(context.Context) error {
	p.mu.Lock()
	p.started = p.clock()
	p.mu.Unlock()

	p.metrics.SessionStarted()

	return nil
}

// TaskStop queues the session's result.
// A stop without a recorded start reports a zero duration.
func (p *Plugin) TaskStop(_ context.Context, failed bool) error {
	p.mu.Lock()
	started := p.started
	p.started = time.Time{}
	p.mu.Unlock()

	var duration time.Duration
	if !started.IsZero() {
		duration = p.clock().Sub(started)
	}

	p.metrics.RegisterSession(&Metric{Failed: failed, Duration: duration})

	return nil
}
