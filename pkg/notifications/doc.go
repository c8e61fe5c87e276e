// Package notifications sends a message through Shoutrrr when a task session ends.
// The notifier collects log entries written during the session and renders them
// with the session result into a templated message.
//
// Key components:
//   - Notifier: task_start/task_stop plugin and logrus hook (shoutrrr.go).
//   - Data: Template data model, JSON-marshalable (model.go, json.go).
//   - Load: Entry point loader reading TASKHOOKS_NOTIFICATION_* settings (plugin.go).
//
// Usage example:
//
//	notifier, err := notifications.NewNotifier(urls, data, "", logrus.InfoLevel)
//	if err != nil {
//	    return err
//	}
//	logrus.AddHook(notifier)
//	err = pm.RegisterPlugin(notifier)
//
// Failed sends are retried with exponential backoff. If every attempt fails the
// stop hook returns the error, which surfaces as a stop hook failure.
package notifications
