// Package scheduling runs task sessions periodically from a cron specification.
// It serializes sessions with a one-slot lock channel shared with the HTTP API,
// skips a tick while a session is still running, and waits for a running
// session before shutting down.
package scheduling

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron"
	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/taskhooks/pkg/lifecycle"
	"github.com/nicholas-fedor/taskhooks/pkg/metrics"
)

// sessionWaitTimeout bounds how long shutdown waits for a running session.
const sessionWaitTimeout = 60 * time.Second

// WaitForRunningSession waits for any currently running session to complete before proceeding with shutdown.
//
// Parameters:
//   - ctx: The context for cancellation, allowing early shutdown on context timeout.
//   - lock: The channel used to serialize sessions.
func WaitForRunningSession(ctx context.Context, lock chan bool) {
	logrus.Debug("Checking lock status before shutdown.")

	if len(lock) == 0 {
		select {
		case v := <-lock:
			logrus.Debug("Lock acquired, session finished.")

			lock <- v
		case <-time.After(sessionWaitTimeout):
			logrus.Warn("Timeout waiting for running session to finish, proceeding with shutdown.")
		case <-ctx.Done():
			logrus.Warn("Context cancelled while waiting for running session.")
		}
	} else {
		logrus.Debug("No session running, lock available.")
	}
}

// RunOnSchedule runs task sessions according to the cron specification until
// the context is cancelled or the process is interrupted.
//
// Session failures are logged and do not stop the schedule.
//
// Parameters:
//   - ctx: The context controlling the scheduler's lifecycle.
//   - lock: A channel ensuring only one session runs at a time, or nil to create a new one.
//   - scheduleSpec: The cron-formatted schedule; empty runs nothing periodically.
//   - runOnStart: Run one session immediately before starting the scheduler.
//   - run: Runs one lifecycle session.
//   - writeStartupMessage: Called once with the first scheduled run time (zero if none).
//
// Returns:
//   - error: An error if the cron spec is invalid, nil on shutdown.
func RunOnSchedule(
	ctx context.Context,
	lock chan bool,
	scheduleSpec string,
	runOnStart bool,
	run func(ctx context.Context) error,
	writeStartupMessage func(nextRun time.Time),
) error {
	if lock == nil {
		lock = make(chan bool, 1)
		lock <- true
	}

	scheduler := cron.New()

	runFunc := func() {
		select {
		case v := <-lock:
			defer func() { lock <- v }()

			err := run(ctx)
			outcome := lifecycle.Classify(err)

			clog := logrus.WithField("outcome", outcome.Kind.String())
			if outcome.Failed() {
				clog.WithError(err).Warn("Scheduled task failed")
			} else {
				clog.Debug("Scheduled task completed successfully")
			}
		default:
			metrics.Default().RegisterSkipped()
			logrus.Debug("Skipped task, another session already running.")
		}

		if nextRuns := scheduler.Entries(); len(nextRuns) > 0 {
			logrus.Debug("Scheduled next run: " + nextRuns[0].Next.String())
		}
	}

	if scheduleSpec != "" {
		if err := scheduler.AddFunc(scheduleSpec, runFunc); err != nil {
			return fmt.Errorf("failed to schedule task: %w", err)
		}
	}

	var nextRun time.Time
	if entries := scheduler.Entries(); len(entries) > 0 {
		nextRun = entries[0].Schedule.Next(time.Now())
	}

	writeStartupMessage(nextRun)

	if runOnStart {
		runFunc()
	}

	scheduler.Start()

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt, syscall.SIGTERM)

	defer signal.Stop(interrupt)

	select {
	case <-ctx.Done():
		logrus.Debug("Context canceled, stopping scheduler...")
	case <-interrupt:
		logrus.Debug("Received interrupt signal, stopping scheduler...")
	}

	scheduler.Stop()
	logrus.Debug("Waiting for running session to be finished...")

	WaitForRunningSession(ctx, lock)

	logrus.Debug("Scheduler stopped.")

	return nil
}
