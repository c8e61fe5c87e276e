// Package flags manages command-line flags and environment variables for taskhooks configuration.
// It configures discovery, scheduling, logging, the HTTP API and notifications via Cobra and Viper.
//
// Key components:
//   - RegisterSystemFlags: Adds discovery, scheduling and logging flags.
//   - RegisterAPIFlags: Adds HTTP API flags.
//   - RegisterNotificationFlags: Adds session report settings.
//   - BindPluginConfig: Exposes flag values to built-in hook modules through Viper keys.
//   - SetupLogging: Configures logrus based on flags.
//
// Usage example:
//
//	cmd := &cobra.Command{}
//	flags.SetDefaults()
//	flags.RegisterSystemFlags(cmd)
//	err := flags.SetupLogging(cmd.PersistentFlags())
//	if err != nil {
//	    logrus.WithError(err).Fatal("Logging setup failed")
//	}
//
// The package integrates with Cobra for flag parsing, Viper for environment variable binding,
// and logrus for logging configuration errors.
package flags
