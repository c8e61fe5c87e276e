package cmd

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/taskhooks/internal/util"
	"github.com/nicholas-fedor/taskhooks/pkg/entrypoint"
	"github.com/nicholas-fedor/taskhooks/pkg/lifecycle"
	"github.com/nicholas-fedor/taskhooks/pkg/plugin"
)

// hostModule is the module behind the taskhooks console script.
// Its hooks are found through the console_scripts group like any task program's.
const hostModule = "taskhooks.cmd"

func init() {
	entrypoint.Provide(hostModule, func(pm *plugin.Manager) error {
		return pm.RegisterPlugin(&sessionLogger{})
	})
	entrypoint.MustDeclare(entrypoint.EntryPoint{
		Group:  entrypoint.ConsoleScriptsGroup,
		Name:   "taskhooks",
		Module: hostModule,
	})
}

// sessionLogger reports the start and end of every session at info level.
type sessionLogger struct {
	started time.Time
}

func (l *sessionLogger) Name() string {
	return "session-log"
}

func (l *sessionLogger) TaskStart(ctx context.Context) error {
	l.started = time.Now()

	sessionLog(ctx).Info("Task started")

	return nil
}

func (l *sessionLogger) TaskStop(ctx context.Context, failed bool) error {
	clog := sessionLog(ctx).WithFields(logrus.Fields{
		"failed":   failed,
		"duration": util.FormatDuration(time.Since(l.started)),
	})

	if failed {
		clog.Warn("Task failed")
	} else {
		clog.Info("Task finished")
	}

	return nil
}

// sessionLog returns a logger tagged with the running session, if any.
func sessionLog(ctx context.Context) *logrus.Entry {
	if s, ok := lifecycle.FromContext(ctx); ok {
		return logrus.WithField("session", s.ID.String())
	}

	return logrus.NewEntry(logrus.StandardLogger())
}
