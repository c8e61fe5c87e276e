package api

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Server timeouts.
const (
	readHeaderTimeout = 10 * time.Second
	serverIdleTimeout = 60 * time.Second
	shutdownTimeout   = 5 * time.Second
)

// errEmptyToken indicates the API was started without an authentication token.
var errEmptyToken = errors.New("api token is empty or has not been set")

// API represents the HTTP API server.
type API struct {
	Token       string
	Addr        string
	hasHandlers bool
	mux         *http.ServeMux
	server      HTTPServer // Optional injected server for testing
}

// HTTPServer is the part of *http.Server used by RunHTTPServer.
type HTTPServer interface {
	ListenAndServe() error
	Shutdown(ctx context.Context) error
}

// New is a factory function creating a new API instance.
// The server parameter is optional and allows dependency injection for testing.
func New(token, addr string, server ...HTTPServer) *API {
	var injectedServer HTTPServer
	if len(server) > 0 {
		injectedServer = server[0]
	}

	logrus.WithField("addr", addr).Debug("Initialized new API instance")

	return &API{
		Token:  token,
		Addr:   addr,
		mux:    http.NewServeMux(),
		server: injectedServer,
	}
}

// GetAddr formats the listen address from host and port, bracketing IPv6 hosts.
func GetAddr(host, port string) string {
	if host != "" && strings.Contains(host, ":") && net.ParseIP(host) != nil {
		return "[" + host + "]:" + port
	}

	return host + ":" + port
}

// RegisterFunc registers a token-guarded handler function for the given path.
func (a *API) RegisterFunc(path string, fn http.HandlerFunc) {
	a.mux.HandleFunc(path, a.RequireToken(fn))
	a.hasHandlers = true
}

// RegisterHandler registers a token-guarded handler for the given path.
func (a *API) RegisterHandler(path string, handler http.Handler) {
	a.mux.Handle(path, a.RequireToken(handler.ServeHTTP))
	a.hasHandlers = true
}

// Start starts the HTTP API server.
//
// Parameters:
//   - ctx: Shutting the server down when cancelled.
//   - block: Run in the foreground until shutdown if true, otherwise in the background.
//
// Returns:
//   - error: Non-nil if the token is empty or the server fails in blocking mode.
func (a *API) Start(ctx context.Context, block bool) error {
	if !a.hasHandlers {
		logrus.Debug("HTTP API skipped, no handlers registered")

		return nil
	}

	if a.Token == "" {
		return errEmptyToken
	}

	server := a.server
	if server == nil {
		server = &http.Server{
			Addr:              a.Addr,
			Handler:           a.mux,
			ReadHeaderTimeout: readHeaderTimeout,
			IdleTimeout:       serverIdleTimeout,
			BaseContext:       func(net.Listener) context.Context { return ctx },
		}
	}

	logrus.WithField("addr", a.Addr).Info("Starting HTTP API server")

	if block {
		return RunHTTPServer(ctx, server)
	}

	go func() {
		if err := RunHTTPServer(ctx, server); err != nil {
			logrus.WithError(err).Error("HTTP API server failed")
		}
	}()

	return nil
}

// RequireToken wraps a handler function with bearer token authentication.
func (a *API) RequireToken(fn http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || a.Token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(a.Token)) != 1 {
			logrus.WithField("path", r.URL.Path).Debug("Rejected unauthorized API request")
			http.Error(w, "Unauthorized", http.StatusUnauthorized)

			return
		}

		fn(w, r)
	}
}

// RunHTTPServer starts the HTTP server and handles graceful shutdown.
// A clean shutdown returns nil.
func RunHTTPServer(ctx context.Context, server HTTPServer) error {
	errChan := make(chan error, 1)

	go func() {
		errChan <- server.ListenAndServe()
	}()

	select {
	case err := <-errChan:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}

		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}

		return nil
	}
}
