package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var metrics *Metrics

// Metric holds data points from one task session.
type Metric struct {
	Failed   bool          // Whether task_stop was called with failed set.
	Duration time.Duration // Time from task_start to task_stop.
}

// Metrics handles processing and exposing session metrics.
type Metrics struct {
	channel      chan *Metric       // Channel for queuing metrics.
	failed       prometheus.Gauge   // Gauge for the last session's failure.
	duration     prometheus.Gauge   // Gauge for the last session's duration.
	started      prometheus.Counter // Counter for started sessions.
	total        prometheus.Counter // Counter for finished sessions.
	failedTotal  prometheus.Counter // Counter for failed sessions.
	skipped      prometheus.Counter // Counter for skipped sessions.
	dropped      prometheus.Counter // Counter for dropped metrics.
	stopCh       chan struct{}      // Channel for shutdown signaling.
	shutdownOnce sync.Once          // Ensures shutdown is called only once.
	//nolint:containedctx
	ctx    context.Context    // Context for cancellation.
	cancel context.CancelFunc // Cancel function for the context.
}

// NewWithRegistry creates a new Metrics handler with a custom Prometheus registry.
//
// Parameters:
//   - registry: Prometheus registerer to use for metric registration.
//
// Returns:
//   - (*Metrics, error): Metrics handler with Prometheus metrics and goroutine, or an error if registration fails.
func NewWithRegistry(registry prometheus.Registerer) (*Metrics, error) {
	// channelBufferSize sets the metrics channel capacity.
	const channelBufferSize = 10

	ctx, cancel := context.WithCancel(context.Background())

	metrics := &Metrics{
		failed: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taskhooks_session_failed",
			Help: "Whether the last task session failed (1) or not (0)",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "taskhooks_session_duration_seconds",
			Help: "Duration of the last task session in seconds",
		}),
		started: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskhooks_sessions_started_total",
			Help: "Number of task sessions whose start hooks ran",
		}),
		total: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskhooks_sessions_total",
			Help: "Number of task sessions finished or skipped",
		}),
		failedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskhooks_sessions_failed_total",
			Help: "Number of task sessions that finished with a failure",
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskhooks_sessions_skipped_total",
			Help: "Number of scheduled task sessions skipped because one was running",
		}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "taskhooks_metrics_dropped_total",
			Help: "Number of metrics dropped due to full channel",
		}),
		channel: make(chan *Metric, channelBufferSize),
		stopCh:  make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}

	metricsList := []prometheus.Collector{
		metrics.failed,
		metrics.duration,
		metrics.started,
		metrics.total,
		metrics.failedTotal,
		metrics.skipped,
		metrics.dropped,
	}
	for _, m := range metricsList {
		if err := registry.Register(m); err != nil {
			cancel()

			return nil, fmt.Errorf("failed to register metric: %w", err)
		}
	}

	go metrics.HandleUpdate()

	return metrics, nil
}

// QueueIsEmpty checks if the metrics channel is empty.
//
// Returns:
//   - bool: True if empty, false otherwise.
func (m *Metrics) QueueIsEmpty() bool {
	return len(m.channel) == 0
}

// Register attempts to enqueue a metric for processing.
// If the channel is full, the metric is dropped and the dropped counter is incremented.
// A nil metric records a skipped session.
//
// Parameters:
//   - metric: Metric to register.
func (m *Metrics) Register(metric *Metric) {
	select {
	case m.channel <- metric:
	default:
		m.dropped.Inc()
	}
}

// RegisterSession enqueues a finished session.
func (m *Metrics) RegisterSession(metric *Metric) {
	m.Register(metric)
}

// RegisterSkipped enqueues a session that was never started.
func (m *Metrics) RegisterSkipped() {
	m.Register(nil)
}

// SessionStarted counts a session whose start hooks are running.
func (m *Metrics) SessionStarted() {
	m.started.Inc()
}

// Default initializes or returns the singleton Metrics handler. It panics on registration failure, such as duplicate registration against the default registry.
//
// Returns:
//   - *Metrics: Metrics handler with Prometheus metrics and goroutine.
func Default() *Metrics {
	if metrics != nil {
		return metrics
	}

	var err error

	metrics, err = NewWithRegistry(prometheus.DefaultRegisterer)
	if err != nil {
		panic(err)
	}

	return metrics
}

// Shutdown gracefully stops the metrics processing goroutine.
// This method is idempotent and can be called multiple times safely.
func (m *Metrics) Shutdown() {
	m.shutdownOnce.Do(func() {
		close(m.stopCh)
		m.cancel()
	})
}

// HandleUpdate processes metrics from the channel.
func (m *Metrics) HandleUpdate() {
	for {
		select {
		case change, ok := <-m.channel:
			if !ok {
				return
			}

			m.total.Inc()

			if change == nil {
				m.skipped.Inc()
				m.failed.Set(0)
				m.duration.Set(0)

				continue
			}

			m.duration.Set(change.Duration.Seconds())

			if change.Failed {
				m.failed.Set(1)
				m.failedTotal.Inc()
			} else {
				m.failed.Set(0)
			}
		case <-m.stopCh:
			return
		case <-m.ctx.Done():
			return
		}
	}
}
