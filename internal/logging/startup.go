// Package logging writes the startup summary of the taskhooks CLI.
// It reports the version, the resolved plugins, the schedule and the HTTP API.
package logging

import (
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nicholas-fedor/taskhooks/internal/util"
	"github.com/nicholas-fedor/taskhooks/pkg/notifications"
)

// WriteStartupMessage logs startup information based on configuration flags.
//
// Parameters:
//   - c: The cobra.Command instance, providing access to flags like --no-startup-message.
//   - sched: The time.Time of the first scheduled run, or zero if no schedule is set.
//   - plugins: Names of the plugins with registered hook implementations.
//   - version: The version string to include in startup messages.
func WriteStartupMessage(c *cobra.Command, sched time.Time, plugins []string, version string) {
	noStartupMessage, _ := c.Flags().GetBool("no-startup-message")
	if noStartupMessage {
		return
	}

	startupLog := logrus.NewEntry(logrus.StandardLogger())
	startupLog.Info("Taskhooks ", version)

	LogPluginInfo(startupLog, plugins)
	LogScheduleInfo(startupLog, c, sched)

	apiAddr := apiAddress(c)
	if enabled, _ := c.Flags().GetBool("http-api-metrics"); enabled {
		startupLog.Info("The metrics HTTP API is enabled at " + apiAddr + ".")
	}

	if enabled, _ := c.Flags().GetBool("http-api-run"); enabled {
		startupLog.Info("The run HTTP API is enabled at " + apiAddr + ".")
	}

	if logrus.IsLevelEnabled(logrus.TraceLevel) {
		notifications.LocalLog.Warn(
			"Trace level enabled: log will include sensitive information as credentials and tokens",
		)
	}
}

// apiAddress returns the listen address shown in startup messages.
func apiAddress(c *cobra.Command) string {
	host, _ := c.Flags().GetString("http-api-host")

	port, _ := c.Flags().GetString("http-api-port")
	if port == "" {
		port = "8080"
	}

	return host + ":" + port
}

// LogPluginInfo logs the plugins whose hooks will run around each task.
//
// Parameters:
//   - log: The logrus.Entry used to write the plugin information.
//   - plugins: Plugin names.
func LogPluginInfo(log *logrus.Entry, plugins []string) {
	if len(plugins) > 0 {
		log.Info("Using hook plugins: " + strings.Join(plugins, ", "))
	} else {
		log.Info("Using no hook plugins")
	}
}

// LogScheduleInfo logs information about the scheduling or run mode configuration.
//
// Parameters:
//   - log: The logrus.Entry used to write the schedule information.
//   - c: The cobra.Command instance, providing access to the run-on-start and http-api-run flags.
//   - sched: The time.Time of the first scheduled run, or zero if no schedule is set.
func LogScheduleInfo(log *logrus.Entry, c *cobra.Command, sched time.Time) {
	runOnStart, _ := c.Flags().GetBool("run-on-start")
	runOnRequest, _ := c.Flags().GetBool("http-api-run")

	switch {
	case !sched.IsZero():
		until := util.FormatDuration(time.Until(sched))
		log.Info("Scheduling first run: " + sched.Format("2006-01-02 15:04:05 -0700 MST"))
		log.Info("Note that the first run will be performed in " + until)

		if runOnStart {
			log.Info("Running the task on start, then on schedule.")
		}
	case runOnRequest:
		log.Info("Running the task on HTTP API requests only. Periodic runs are not enabled.")
	case runOnStart:
		log.Info("Running the task once on start. Periodic runs are not enabled.")
	default:
		log.Info("Running the task once.")
	}
}
