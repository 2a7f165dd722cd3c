package loadgen

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stubAPI(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/v1/occurrences", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"counts":{}}`))
	})
	mux.HandleFunc("/v1/references/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"references":[]}`))
	})
	return httptest.NewServer(mux)
}

func TestRunnerRun(t *testing.T) {
	srv := stubAPI(t)
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.Target = srv.URL
	cfg.Duration = 200 * time.Millisecond
	cfg.Workers = 4

	runner, err := NewRunner(cfg)
	require.NoError(t, err)
	defer runner.Close()

	result, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Greater(t, result.Summary.TotalOperations, int64(0))
	assert.Zero(t, result.Summary.TotalErrors)
	assert.True(t, result.EndTime.After(result.StartTime))
}

func TestRunnerRecordsErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.Target = srv.URL
	cfg.Duration = 100 * time.Millisecond
	cfg.Workers = 2

	runner, err := NewRunner(cfg)
	require.NoError(t, err)
	defer runner.Close()

	result, err := runner.Run(context.Background())
	require.NoError(t, err)

	assert.Greater(t, result.Summary.TotalErrors, int64(0))
	assert.Equal(t, result.Summary.TotalOperations, result.Summary.TotalErrors)
}

func TestRunnerCanceledContext(t *testing.T) {
	srv := stubAPI(t)
	defer srv.Close()

	cfg := DefaultConfig()
	cfg.Target = srv.URL
	cfg.Duration = 10 * time.Second

	runner, err := NewRunner(cfg)
	require.NoError(t, err)
	defer runner.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = runner.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewRunnerRejectsBadConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Workers = 0

	_, err := NewRunner(cfg)
	assert.Error(t, err)
}
