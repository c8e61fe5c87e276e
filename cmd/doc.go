// Package cmd contains the command-line interface (CLI) definitions of taskhooks.
// It provides the root command and the subcommands running tasks inside lifecycle sessions.
//
// Key components:
//   - rootCmd: Root command holding the persistent configuration flags.
//   - exec: Runs a command as a task, once, on a schedule or on HTTP API request.
//   - plugins: Resolves installed hooks and lists specifications and implementations.
//   - version: Prints build metadata.
//
// Usage examples:
//   - Run the CLI from main.go:
//     cmd.Execute()
//   - Run a nightly backup with session reports:
//     taskhooks exec --schedule "0 0 2 * * *" --notification-url logger:// -- backup.sh
//
// The package integrates with the flags, api, scheduling and lifecycle packages,
// using Cobra for CLI parsing and logrus for logging.
package cmd
