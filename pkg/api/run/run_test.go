package run_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicholas-fedor/taskhooks/pkg/api/run"
	"github.com/nicholas-fedor/taskhooks/pkg/lifecycle"
	"github.com/nicholas-fedor/taskhooks/pkg/plugin"
)

func post(t *testing.T, h *run.Handler) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodPost, h.Path, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	return rec, body
}

func TestHandle(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		outcome  string
		failed   bool
		exitCode any
	}{
		{name: "success", outcome: "success"},
		{name: "failure", err: errors.New("boom"), outcome: "failure", failed: true},
		{name: "exit zero", err: lifecycle.Exit(0), outcome: "exit", exitCode: float64(0)},
		{name: "exit non-zero", err: lifecycle.Exit(3), outcome: "exit", failed: true, exitCode: float64(3)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := run.New(func(context.Context) error { return tt.err }, nil)

			rec, body := post(t, h)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.outcome, body["outcome"])
			assert.Equal(t, tt.failed, body["failed"])
			assert.Equal(t, tt.exitCode, body["exit_code"])
		})
	}
}

func TestHandle_StopHookFailureAfterExitZero(t *testing.T) {
	pm := plugin.New(nil)
	require.NoError(t, pm.Register("task_stop", plugin.StopHook("flaky", func(context.Context, bool) error {
		return errors.New("stop failed")
	})))

	controller := lifecycle.NewController(pm, nil)
	h := run.New(func(ctx context.Context) error {
		return controller.Run(ctx, func(context.Context) error { return lifecycle.Exit(0) })
	}, nil)

	rec, body := post(t, h)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "failure", body["outcome"])
	assert.Equal(t, true, body["failed"])
	assert.NotContains(t, body, "exit_code")
	assert.Contains(t, body["error"], "stop failed")
}

func TestHandle_Busy(t *testing.T) {
	lock := make(chan bool, 1)
	called := false
	h := run.New(func(context.Context) error {
		called = true

		return nil
	}, lock)

	rec, body := post(t, h)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "30", rec.Header().Get("Retry-After"))
	assert.Contains(t, body["error"], "already running")
	assert.False(t, called)
}

func TestHandle_ReleasesLock(t *testing.T) {
	lock := make(chan bool, 1)
	lock <- true

	h := run.New(func(context.Context) error { return nil }, lock)

	post(t, h)
	post(t, h)

	assert.Len(t, lock, 1)
}

func TestHandle_MethodNotAllowed(t *testing.T) {
	h := run.New(func(context.Context) error { return nil }, nil)

	rec := httptest.NewRecorder()
	h.Handle(rec, httptest.NewRequest(http.MethodGet, h.Path, nil))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, http.MethodPost, rec.Header().Get("Allow"))
}
