package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/nicholas-fedor/taskhooks/internal/flags"
	"github.com/nicholas-fedor/taskhooks/pkg/lifecycle"

	// Built-in hook modules declare their entry points on import.
	_ "github.com/nicholas-fedor/taskhooks/pkg/metrics"
	_ "github.com/nicholas-fedor/taskhooks/pkg/notifications"
	_ "github.com/nicholas-fedor/taskhooks/pkg/tracing"
)

// rootCmd is the taskhooks command all subcommands are attached to.
var rootCmd = NewRootCommand()

// NewRootCommand creates the root command without subcommands or flags.
func NewRootCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "taskhooks",
		Short: "Runs tasks inside lifecycle sessions with pluggable start and stop hooks",
		Long: "\ntaskhooks runs a command as a task, calling the task_start and task_stop hooks of every\n" +
			"installed plugin around it. More information available at https://github.com/nicholas-fedor/taskhooks/.",
		PersistentPreRun: preRun,
		SilenceUsage:     true,
		SilenceErrors:    true,
	}
}

func init() {
	flags.SetDefaults()
	flags.RegisterSystemFlags(rootCmd)
	flags.RegisterAPIFlags(rootCmd)
	flags.RegisterNotificationFlags(rootCmd)

	rootCmd.AddCommand(newExecCommand(), newPluginsCommand(), newVersionCommand())
}

// Execute runs the root command and exits with the status the task requested.
func Execute() {
	os.Exit(exitStatus(rootCmd.Execute()))
}

// exitStatus maps the result of a command to a process exit status.
// Exit requests keep their code, any other error is status 1.
func exitStatus(err error) int {
	if err == nil {
		return 0
	}

	if outcome := lifecycle.Classify(err); outcome.Kind == lifecycle.OutcomeExit {
		return outcome.Code
	}

	logrus.WithError(err).Error("Task failed")

	return 1
}

// preRun configures logging, secrets and hook module configuration from flags.
func preRun(cmd *cobra.Command, _ []string) {
	flagsSet := cmd.Flags()
	flags.ProcessFlagAliases(flagsSet)

	if err := flags.SetupLogging(flagsSet); err != nil {
		logrus.WithError(err).Fatal("Failed to initialize logging")
	}

	flags.GetSecretsFromFiles(cmd.Root())

	if err := flags.BindPluginConfig(flagsSet); err != nil {
		logrus.WithError(err).Fatal("Failed to configure hook modules")
	}
}
