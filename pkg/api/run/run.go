// Package run provides the HTTP endpoint triggering a task session on demand.
package run

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/nicholas-fedor/taskhooks/pkg/lifecycle"
)

// Handler triggers task sessions via HTTP.
//
// It shares the scheduler's lock so an API-triggered session never overlaps a
// scheduled one.
type Handler struct {
	fn   func(ctx context.Context) error // Runs one lifecycle session.
	Path string                          // API endpoint path.
	lock chan bool                       // One-slot lock serializing sessions.
}

// New creates a new Handler instance.
//
// Parameters:
//   - runFn: Function running one session and returning its result.
//   - runLock: Optional lock channel shared with the scheduler; if nil, a new channel is created.
//
// Returns:
//   - *Handler: Initialized handler for the /v1/run endpoint.
func New(runFn func(ctx context.Context) error, runLock chan bool) *Handler {
	lock := runLock
	if lock == nil {
		lock = make(chan bool, 1)
		lock <- true
	}

	return &Handler{
		fn:   runFn,
		Path: "/v1/run",
		lock: lock,
	}
}

// Handle runs a session and reports its outcome as JSON.
//
// It answers 405 for anything but POST and 429 if a session is already running.
// A failed task still answers 200; the outcome is in the body.
func (handle *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	clog := logrus.WithFields(logrus.Fields{
		"method": r.Method,
		"path":   r.URL.Path,
	})
	clog.Info("Received HTTP API run request")

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)

		return
	}

	if _, err := io.Copy(io.Discard, r.Body); err != nil {
		clog.WithError(err).Debug("Failed to read request body")
		http.Error(w, "Failed to read request body", http.StatusInternalServerError)

		return
	}

	select {
	case v := <-handle.lock:
		defer func() { handle.lock <- v }()
	default:
		clog.Debug("Skipped run, another session already in progress")
		w.Header().Set("Retry-After", "30")
		writeJSON(w, http.StatusTooManyRequests, map[string]any{
			"error":       "another session is already running",
			"api_version": "v1",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
		})

		return
	}

	startTime := time.Now()
	err := handle.fn(context.WithoutCancel(r.Context()))
	duration := time.Since(startTime)

	outcome := lifecycle.Classify(err)
	response := map[string]any{
		"outcome": outcome.Kind.String(),
		"failed":  outcome.Failed(),
		"timing": map[string]any{
			"duration_ms": duration.Milliseconds(),
			"duration":    duration.String(),
		},
		"timestamp":   time.Now().UTC().Format(time.RFC3339),
		"api_version": "v1",
	}

	if outcome.Kind == lifecycle.OutcomeExit {
		response["exit_code"] = outcome.Code
	}

	if err != nil {
		response["error"] = err.Error()
	}

	writeJSON(w, http.StatusOK, response)
}

// writeJSON writes body with the given status code.
func writeJSON(w http.ResponseWriter, code int, body any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		logrus.WithError(err).Error("Failed to encode JSON response")
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)

		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)

	if _, err := w.Write(buf.Bytes()); err != nil {
		logrus.WithError(err).Error("Failed to write response")
	}
}
