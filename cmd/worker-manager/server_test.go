package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"credit-scoring-workers/internal/common/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBroker struct{ err error }

func (s stubBroker) HealthCheck(ctx context.Context) error { return s.err }

type stubChecker struct {
	name string
	err  error
}

func (s stubChecker) Name() string                   { return s.name }
func (s stubChecker) Ping(ctx context.Context) error { return s.err }

func get(t *testing.T, mux http.Handler, path string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	var body map[string]interface{}
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealth(t *testing.T) {
	rec, body := get(t, newServeMux(nil, nil), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestReady(t *testing.T) {
	mux := newServeMux(stubBroker{}, []database.Checker{stubChecker{name: "postgres"}})

	rec, body := get(t, mux, "/ready")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ready", body["status"])
	assert.Equal(t, map[string]interface{}{"zeebe": "up", "postgres": "up"}, body["dependencies"])
}

func TestReady_DependencyDown(t *testing.T) {
	mux := newServeMux(stubBroker{err: errors.New("unavailable")}, []database.Checker{
		stubChecker{name: "postgres"},
		stubChecker{name: "redis", err: errors.New("refused")},
	})

	rec, body := get(t, mux, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "not_ready", body["status"])
	deps := body["dependencies"].(map[string]interface{})
	assert.Equal(t, "down", deps["zeebe"])
	assert.Equal(t, "down", deps["redis"])
	assert.Equal(t, "up", deps["postgres"])
}

func TestMetrics(t *testing.T) {
	rec, _ := get(t, newServeMux(nil, nil), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}
