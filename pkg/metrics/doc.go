// Package metrics provides tracking and exposure of task session metrics.
// It integrates with Prometheus to monitor how lifecycle sessions end.
//
// Key components:
//   - Metrics: Handles metric queuing and updates.
//   - Metric: One finished (or skipped) session.
//   - Plugin: task_start and task_stop hooks feeding the default handler.
//
// Usage example:
//
//	m := metrics.Default()
//	m.RegisterSession(&metrics.Metric{Failed: true, Duration: time.Second})
//	if !m.QueueIsEmpty() {
//	    logrus.Info("Metrics queued")
//	}
//
// The plugin is linked in as the "taskhooks.metrics" module of the hook group
// and only registers itself when TASKHOOKS_HTTP_API_METRICS is set.
package metrics
