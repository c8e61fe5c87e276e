package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/nicholas-fedor/taskhooks/internal/util"
	"github.com/nicholas-fedor/taskhooks/pkg/discovery"
	"github.com/nicholas-fedor/taskhooks/pkg/entrypoint"
	"github.com/nicholas-fedor/taskhooks/pkg/lifecycle"
	"github.com/nicholas-fedor/taskhooks/pkg/plugin"
)

// errEmptyCommand indicates exec was given no command to run.
var errEmptyCommand = errors.New("no command given")

// host bundles the plugin manager, scanner and controller of one process.
type host struct {
	manager    *plugin.Manager
	scanner    *discovery.Scanner
	controller *lifecycle.Controller
}

// newHost builds the lifecycle machinery over catalog from the discovery flags.
//
// Parameters:
//   - f: Flag set holding namespace, hook-group and manifest.
//   - catalog: Entry point catalog; a configured manifest is loaded into it.
//
// Returns:
//   - *host: Ready-to-use host.
//   - error: Non-nil if the manifest cannot be loaded.
func newHost(f *pflag.FlagSet, catalog *entrypoint.Catalog) (*host, error) {
	namespace, _ := f.GetString("namespace")
	group, _ := f.GetString("hook-group")

	if manifest, _ := f.GetString("manifest"); manifest != "" {
		if err := catalog.LoadManifestFile(manifest); err != nil {
			return nil, err
		}

		logrus.WithField("manifest", manifest).Debug("Loaded entry point manifest")
	}

	pm := plugin.New(nil)
	scanner := discovery.NewScanner(pm, catalog, entrypoint.DefaultSources(catalog, namespace, group)...)

	return &host{
		manager:    pm,
		scanner:    scanner,
		controller: lifecycle.NewController(pm, scanner),
	}, nil
}

// commandBlock returns a block running args as a child process.
// A non-zero exit status becomes an exit request with that status.
func commandBlock(args []string) lifecycle.Block {
	return func(ctx context.Context) error {
		if len(args) == 0 {
			return errEmptyCommand
		}

		command := exec.CommandContext(ctx, args[0], args[1:]...)
		command.Stdin = os.Stdin
		command.Stdout = os.Stdout
		command.Stderr = os.Stderr

		logrus.WithField("command", util.CommandLine(args)).Debug("Running task command")

		err := command.Run()

		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() > 0 {
			return lifecycle.Exit(exitErr.ExitCode())
		}

		if err != nil {
			return fmt.Errorf("failed to run %s: %w", args[0], err)
		}

		return nil
	}
}
