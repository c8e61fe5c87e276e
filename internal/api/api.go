// Package api wires the HTTP API endpoints of taskhooks to the lifecycle controller.
package api

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/taskhooks/pkg/api"
	metricsAPI "github.com/nicholas-fedor/taskhooks/pkg/api/metrics"
	runAPI "github.com/nicholas-fedor/taskhooks/pkg/api/run"
)

// Config selects the endpoints served by the HTTP API.
type Config struct {
	Host          string
	Port          string
	Token         string
	EnableMetrics bool // Serve /v1/metrics.
	EnableRun     bool // Serve /v1/run.
	// Block serves the API in the foreground until ctx is cancelled.
	Block bool
}

// SetupAndStartAPI configures and launches the HTTP API if any endpoint is enabled.
//
// Parameters:
//   - ctx: The context controlling the API's lifecycle, enabling graceful shutdown on cancellation.
//   - cfg: Address, token and endpoint selection.
//   - lock: One-slot channel shared with the scheduler so sessions never overlap.
//   - run: Runs one lifecycle session for /v1/run.
//   - server: Optional HTTP server replacing the default one.
//
// Returns:
//   - error: An error if the API fails to start (excluding clean shutdown), nil otherwise.
func SetupAndStartAPI(
	ctx context.Context,
	cfg Config,
	lock chan bool,
	run func(context.Context) error,
	server ...api.HTTPServer,
) error {
	httpAPI := api.New(cfg.Token, api.GetAddr(cfg.Host, cfg.Port), server...)

	if cfg.EnableRun {
		runHandler := runAPI.New(run, lock)
		httpAPI.RegisterFunc(runHandler.Path, runHandler.Handle)
	}

	if cfg.EnableMetrics {
		metricsHandler := metricsAPI.New()
		httpAPI.RegisterFunc(metricsHandler.Path, metricsHandler.Handle)
	}

	if err := httpAPI.Start(ctx, cfg.Block); err != nil {
		logrus.WithError(err).Error("Failed to start API")

		return fmt.Errorf("failed to start HTTP API: %w", err)
	}

	return nil
}
