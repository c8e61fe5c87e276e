package cmd

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"

	"github.com/nicholas-fedor/taskhooks/internal/api"
	"github.com/nicholas-fedor/taskhooks/internal/logging"
	"github.com/nicholas-fedor/taskhooks/internal/meta"
	"github.com/nicholas-fedor/taskhooks/internal/scheduling"
	"github.com/nicholas-fedor/taskhooks/pkg/entrypoint"
	"github.com/nicholas-fedor/taskhooks/pkg/tracing"
)

// execConfig holds the exec options read from flags.
type execConfig struct {
	Schedule   string
	RunOnStart bool
	Tracing    bool
	API        api.Config
}

func newExecCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "exec [flags] -- command [args...]",
		Short: "Run a command as a task inside a lifecycle session",
		Long: "Runs the command once inside a lifecycle session and exits with its status.\n" +
			"With --schedule the command runs on every cron tick until interrupted.\n" +
			"With --http-api-run sessions can also be triggered through the HTTP API.",
		Args: cobra.MinimumNArgs(1),
		RunE: runExec,
	}
}

// readExecConfig reads the exec options and validates the API host.
func readExecConfig(c *cobra.Command) (execConfig, error) {
	f := c.Flags()

	var cfg execConfig

	cfg.Schedule, _ = f.GetString("schedule")
	cfg.RunOnStart, _ = f.GetBool("run-on-start")
	cfg.Tracing, _ = f.GetBool("tracing")
	cfg.API.Host, _ = f.GetString("http-api-host")
	cfg.API.Port, _ = f.GetString("http-api-port")
	cfg.API.Token, _ = f.GetString("http-api-token")
	cfg.API.EnableMetrics, _ = f.GetBool("http-api-metrics")
	cfg.API.EnableRun, _ = f.GetBool("http-api-run")

	if cfg.API.Host != "" && net.ParseIP(cfg.API.Host) == nil {
		return cfg, fmt.Errorf(
			"invalid http-api-host %q: must be empty or a valid IP address (IPv4 or IPv6)",
			cfg.API.Host,
		)
	}

	if cfg.API.Port == "" {
		cfg.API.Port = "8080"
	}

	// Without a schedule the API is the only trigger and keeps the process alive.
	cfg.API.Block = cfg.Schedule == ""

	return cfg, nil
}

// runExec runs the command once, on a schedule, or on API request.
func runExec(c *cobra.Command, args []string) error {
	cfg, err := readExecConfig(c)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if cfg.Tracing {
		provider := tracing.NewProvider(tracing.NewLogExporter(nil))
		otel.SetTracerProvider(provider)

		defer func() {
			if err := provider.Shutdown(context.WithoutCancel(ctx)); err != nil {
				logrus.WithError(err).Debug("Failed to shut down tracer provider")
			}
		}()
	}

	h, err := newHost(c.Flags(), entrypoint.Default)
	if err != nil {
		return err
	}

	// Resolve hooks up front so the startup message can name them.
	// Every session still runs discovery, which is a no-op once resolved.
	if err := h.scanner.Discover(ctx); err != nil {
		return err
	}

	block := commandBlock(args)
	run := func(ctx context.Context) error {
		return h.controller.Run(ctx, block)
	}

	writeStartupMessage := func(sched time.Time) {
		logging.WriteStartupMessage(c, sched, h.manager.Plugins(), meta.Version)
	}

	if cfg.Schedule == "" && !cfg.API.EnableRun {
		writeStartupMessage(time.Time{})

		if cfg.API.EnableMetrics {
			logrus.Warn("The metrics HTTP API is not served for a single run; use --schedule or --http-api-run")
		}

		return run(ctx)
	}

	lock := make(chan bool, 1)
	lock <- true

	if cfg.Schedule == "" {
		writeStartupMessage(time.Time{})

		return api.SetupAndStartAPI(ctx, cfg.API, lock, run)
	}

	if cfg.API.EnableMetrics || cfg.API.EnableRun {
		if err := api.SetupAndStartAPI(ctx, cfg.API, lock, run); err != nil {
			return err
		}
	}

	return scheduling.RunOnSchedule(ctx, lock, cfg.Schedule, cfg.RunOnStart, run, writeStartupMessage)
}
