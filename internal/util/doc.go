// Package util provides formatting helpers for task hook logs and messages.
//
// Key components:
//   - FormatDuration: Renders durations like "1 hour, 2 minutes, 3 seconds".
//   - CommandLine: Renders a command and its arguments for logs.
//
// Usage example:
//
//	logrus.Info("Next run in " + util.FormatDuration(time.Until(next)))
//	logrus.WithField("command", util.CommandLine(args)).Debug("Running task command")
package util
