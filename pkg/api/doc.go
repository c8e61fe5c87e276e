// Package api provides an HTTP server for the task hook API endpoints.
// It handles token-authenticated requests for metrics and on-demand task runs.
//
// Key components:
//   - API: Manages server setup and endpoint registration.
//   - RequireToken: Wraps HTTP handlers with bearer token validation.
//
// Usage example:
//
//	httpAPI := api.New("secure-token", ":8080")
//	httpAPI.RegisterHandler("/v1/metrics", metricsHandler)
//	if err := httpAPI.Start(ctx, true); err != nil {
//	    logrus.WithError(err).Error("API start failed")
//	}
//
// The package uses a private ServeMux for routing and shuts the server down
// gracefully when the context is cancelled.
package api
