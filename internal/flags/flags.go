// Package flags manages command-line flags and environment variables for taskhooks configuration.
package flags

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/nicholas-fedor/taskhooks/pkg/entrypoint"
	"github.com/nicholas-fedor/taskhooks/pkg/metrics"
	"github.com/nicholas-fedor/taskhooks/pkg/notifications"
	"github.com/nicholas-fedor/taskhooks/pkg/tracing"
)

// defaultHTTPAPIPort is the port the HTTP API binds to when none is configured.
const defaultHTTPAPIPort = "8080"

// errInvalidLogFormat indicates an invalid log format was specified.
var errInvalidLogFormat = errors.New("invalid log format specified")

// errInvalidLogLevel indicates an invalid log level was specified.
var errInvalidLogLevel = errors.New("invalid log level specified")

// errOpenFileFailed indicates a failure to open a file for reading secrets.
var errOpenFileFailed = errors.New("failed to open secret file")

// errCloseFileFailed indicates a failure to close a file after reading secrets.
var errCloseFileFailed = errors.New("failed to close secret file")

// errReplaceSliceFailed indicates a failure to replace a slice value in a flag.
var errReplaceSliceFailed = errors.New("failed to replace slice value in flag")

// errReadFileFailed indicates a failure to read a file’s contents.
var errReadFileFailed = errors.New("failed to read secret file")

// errSetFlagFailed indicates a failure to set or read a flag’s value.
var errSetFlagFailed = errors.New("failed to set flag value")

// errBindFlagFailed indicates a flag could not be bound to its configuration key.
var errBindFlagFailed = errors.New("failed to bind flag to configuration key")

// pluginKeys maps flags read by built-in hook modules to the configuration
// keys those modules look up when they are loaded.
var pluginKeys = map[string]string{
	"http-api-metrics":      metrics.EnabledKey,
	"tracing":               tracing.EnabledKey,
	"notification-url":      notifications.URLKey,
	"notification-title":    notifications.TitleKey,
	"notification-template": notifications.TemplateKey,
	"notifications-level":   notifications.LevelKey,
}

// RegisterSystemFlags adds flags controlling discovery, scheduling and logging to the root command.
func RegisterSystemFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()

	flags.StringP(
		"namespace",
		"",
		envString("TASKHOOKS_NAMESPACE"),
		"Prefix of console-script entry points whose modules are searched for hooks")

	flags.StringP(
		"hook-group",
		"g",
		envString("TASKHOOKS_HOOK_GROUP"),
		"Entry-point group whose modules provide hooks")

	flags.StringP(
		"manifest",
		"",
		envString("TASKHOOKS_MANIFEST"),
		"Path to a YAML manifest declaring additional entry points")

	flags.StringP(
		"schedule",
		"s",
		envString("TASKHOOKS_SCHEDULE"),
		"The cron expression which defines when to run the task")

	flags.BoolP(
		"run-on-start",
		"",
		envBool("TASKHOOKS_RUN_ON_START"),
		"Run the task once before the first scheduled run")

	flags.BoolP(
		"no-startup-message",
		"",
		envBool("TASKHOOKS_NO_STARTUP_MESSAGE"),
		"Prevents taskhooks from logging a startup message")

	flags.StringP(
		"log-format",
		"l",
		envString("TASKHOOKS_LOG_FORMAT"),
		"Sets what logging format to use for console output. Possible values: Auto, LogFmt, Pretty, JSON",
	)

	flags.String(
		"log-level",
		envString("TASKHOOKS_LOG_LEVEL"),
		"The maximum log level that will be written to STDERR. Possible values: panic, fatal, error, warn, info, debug or trace",
	)

	flags.BoolP(
		"debug",
		"d",
		envBool("TASKHOOKS_DEBUG"),
		"Enable debug mode with verbose logging")

	flags.BoolP(
		"trace",
		"",
		envBool("TASKHOOKS_TRACE"),
		"Enable trace mode with very verbose logging")

	// https://no-color.org/
	flags.BoolP(
		"no-color",
		"",
		viper.IsSet("NO_COLOR"),
		"Disable ANSI color escape codes in log output")

	flags.BoolP(
		"tracing",
		"",
		envBool("TASKHOOKS_TRACING"),
		"Record an OpenTelemetry span for every task session")
}

// RegisterAPIFlags adds flags configuring the HTTP API to the root command.
func RegisterAPIFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()

	flags.BoolP(
		"http-api-metrics",
		"",
		envBool("TASKHOOKS_HTTP_API_METRICS"),
		"Serve Prometheus session metrics over the HTTP API")

	flags.BoolP(
		"http-api-run",
		"",
		envBool("TASKHOOKS_HTTP_API_RUN"),
		"Allow task sessions to be triggered by a request to the HTTP API")

	flags.StringP(
		"http-api-host",
		"",
		envString("TASKHOOKS_HTTP_API_HOST"),
		"Host to bind the HTTP API to (default: all interfaces)")

	flags.StringP(
		"http-api-port",
		"",
		envString("TASKHOOKS_HTTP_API_PORT"),
		"Port to bind the HTTP API to (default: 8080)")

	flags.StringP(
		"http-api-token",
		"",
		envString("TASKHOOKS_HTTP_API_TOKEN"),
		"Sets an authentication token to HTTP API requests.")
}

// RegisterNotificationFlags adds flags configuring session report notifications to the root command.
func RegisterNotificationFlags(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()

	flags.StringSliceP(
		"notification-url",
		"n",
		envStringSlice("TASKHOOKS_NOTIFICATION_URL"),
		"The shoutrrr URL to send session reports to")

	flags.StringP(
		"notification-title",
		"",
		envString("TASKHOOKS_NOTIFICATION_TITLE"),
		"Tag prepended to the title of session reports")

	flags.StringP(
		"notification-template",
		"",
		envString("TASKHOOKS_NOTIFICATION_TEMPLATE"),
		"The shoutrrr text/template for the messages")

	flags.String(
		"notifications-level",
		envString("TASKHOOKS_NOTIFICATIONS_LEVEL"),
		"The log level included in session reports. Possible values: panic, fatal, error, warn, info, debug or trace",
	)
}

// envString retrieves a string value from an environment variable via Viper.
func envString(key string) string {
	viper.MustBindEnv(key)

	return viper.GetString(key)
}

// envStringSlice retrieves a string slice from an environment variable via Viper.
func envStringSlice(key string) []string {
	viper.MustBindEnv(key)

	return viper.GetStringSlice(key)
}

// envBool retrieves a boolean value from an environment variable via Viper.
func envBool(key string) bool {
	viper.MustBindEnv(key)

	return viper.GetBool(key)
}

// SetDefaults configures default values for environment variables.
func SetDefaults() {
	viper.AutomaticEnv()
	viper.SetDefault("TASKHOOKS_NAMESPACE", entrypoint.DefaultNamespace)
	viper.SetDefault("TASKHOOKS_HOOK_GROUP", entrypoint.DefaultHookGroup)
	viper.SetDefault("TASKHOOKS_HTTP_API_PORT", defaultHTTPAPIPort)
	viper.SetDefault("TASKHOOKS_NOTIFICATION_URL", []string{})
	viper.SetDefault("TASKHOOKS_NOTIFICATIONS_LEVEL", "info")
	viper.SetDefault("TASKHOOKS_LOG_LEVEL", "info")
	viper.SetDefault("TASKHOOKS_LOG_FORMAT", "auto")
}

// BindPluginConfig binds the flags read by built-in hook modules to their configuration keys,
// so command-line values take precedence over the environment when the modules load.
//
// Parameters:
//   - flags: Flag set holding the registered flags.
//
// Returns:
//   - error: Non-nil if a flag is missing or cannot be bound.
func BindPluginConfig(flags *pflag.FlagSet) error {
	for name, key := range pluginKeys {
		flag := flags.Lookup(name)
		if flag == nil {
			return fmt.Errorf("%w: %q is not defined", errBindFlagFailed, name)
		}

		if err := viper.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("%w: %w", errBindFlagFailed, err)
		}
	}

	return nil
}

// GetSecretsFromFiles replaces flag values with file contents if they reference files.
func GetSecretsFromFiles(rootCmd *cobra.Command) {
	flags := rootCmd.PersistentFlags()

	secrets := []string{
		"notification-url",
		"http-api-token",
	}
	for _, secret := range secrets {
		if err := getSecretFromFile(flags, secret); err != nil {
			logrus.Fatalf("failed to get secret from flag %v: %s", secret, err)
		}
	}
}

// getSecretFromFile updates a flag’s value with file contents if it references a file.
// Slice flags take one value per non-empty line.
func getSecretFromFile(flags *pflag.FlagSet, secret string) error {
	flag := flags.Lookup(secret)
	if sliceValue, ok := flag.Value.(pflag.SliceValue); ok {
		oldValues := sliceValue.GetSlice()
		values := make([]string, 0, len(oldValues))

		for _, value := range oldValues {
			if value == "" || !isFilePath(value) {
				values = append(values, value)

				continue
			}

			lines, err := readLines(value)
			if err != nil {
				return err
			}

			values = append(values, lines...)
		}

		if err := sliceValue.Replace(values); err != nil {
			return fmt.Errorf("%w: %w", errReplaceSliceFailed, err)
		}

		return nil
	}

	value := flag.Value.String()
	if value != "" && isFilePath(value) {
		content, err := os.ReadFile(value)
		if err != nil {
			return fmt.Errorf("%w: %w", errReadFileFailed, err)
		}

		if err := flags.Set(secret, strings.TrimSpace(string(content))); err != nil {
			return fmt.Errorf("%w: %w", errSetFlagFailed, err)
		}
	}

	return nil
}

// readLines returns the non-empty lines of the file at path.
func readLines(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errOpenFileFailed, err)
	}

	var lines []string

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			lines = append(lines, line)
		}
	}

	if err := file.Close(); err != nil {
		return nil, fmt.Errorf("%w: %w", errCloseFileFailed, err)
	}

	return lines, nil
}

// isFilePath determines if a string likely represents a file path.
// It checks for file existence, avoiding false positives from URLs.
func isFilePath(path string) bool {
	firstColon := strings.IndexRune(path, ':')
	if firstColon != 1 && firstColon != -1 {
		// If ':' exists but isn’t the second character, it’s likely not a file path (e.g., URLs).
		return false
	}

	_, err := os.Stat(path)

	return !errors.Is(err, os.ErrNotExist)
}

// ProcessFlagAliases applies the debug and trace shorthands to the log level.
func ProcessFlagAliases(flags *pflag.FlagSet) {
	if flagIsEnabled(flags, "debug") {
		if err := flags.Set("log-level", "debug"); err != nil {
			logrus.Errorf("Failed to set log-level flag: %v", err)
		}
	}

	if flagIsEnabled(flags, "trace") {
		if err := flags.Set("log-level", "trace"); err != nil {
			logrus.Errorf("Failed to set log-level flag: %v", err)
		}
	}
}

// SetupLogging configures the global logger based on log-related flags.
//
// Parameters:
//   - flags: Flag set holding log-format, no-color and log-level.
//
// Returns:
//   - error: Non-nil for an unknown format or level.
func SetupLogging(flags *pflag.FlagSet) error {
	logFormat, err := flags.GetString("log-format")
	if err != nil {
		return fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	noColor, err := flags.GetBool("no-color")
	if err != nil {
		return fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	if err := configureLogFormat(logFormat, noColor); err != nil {
		return err
	}

	rawLogLevel, err := flags.GetString("log-level")
	if err != nil {
		return fmt.Errorf("%w: %w", errSetFlagFailed, err)
	}

	logLevel, err := logrus.ParseLevel(rawLogLevel)
	if err != nil {
		return fmt.Errorf("%w: %w", errInvalidLogLevel, err)
	}

	logrus.SetLevel(logLevel)

	return nil
}

// configureLogFormat sets the logrus formatter based on the specified format and color preference.
func configureLogFormat(logFormat string, noColor bool) error {
	switch strings.ToLower(logFormat) {
	case "auto":
		logrus.SetFormatter(&logrus.TextFormatter{
			DisableColors:             noColor,
			EnvironmentOverrideColors: true,
		})
	case "json":
		logrus.SetFormatter(&logrus.JSONFormatter{})
	case "logfmt":
		logrus.SetFormatter(&logrus.TextFormatter{
			DisableColors: true,
			FullTimestamp: true,
		})
	case "pretty":
		logrus.SetFormatter(&logrus.TextFormatter{
			ForceColors:   !noColor,
			FullTimestamp: false,
		})
	default:
		return fmt.Errorf("%w: %s", errInvalidLogFormat, logFormat)
	}

	return nil
}

// flagIsEnabled checks if a boolean flag is set to true.
// It exits with a fatal error if the flag is not defined.
func flagIsEnabled(flags *pflag.FlagSet, name string) bool {
	value, err := flags.GetBool(name)
	if err != nil {
		logrus.Fatalf("The flag %q is not defined", name)
	}

	return value
}
