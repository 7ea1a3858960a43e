// cmd/worker-manager/server.go
package main

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"credit-scoring-workers/internal/common/database"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const readinessTimeout = 2 * time.Second

// brokerChecker adapts the Zeebe client to the readiness probe.
type brokerChecker struct {
	health interface {
		HealthCheck(ctx context.Context) error
	}
}

func (b brokerChecker) Name() string { return "zeebe" }

func (b brokerChecker) Ping(ctx context.Context) error { return b.health.HealthCheck(ctx) }

func newServeMux(broker interface {
	HealthCheck(ctx context.Context) error
}, checkers []database.Checker) *http.ServeMux {
	if broker != nil {
		checkers = append([]database.Checker{brokerChecker{health: broker}}, checkers...)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		deps, err := database.CheckAll(r.Context(), readinessTimeout, checkers...)
		status, code := "ready", http.StatusOK
		if err != nil {
			status, code = "not_ready", http.StatusServiceUnavailable
		}
		writeJSON(w, code, map[string]interface{}{
			"status":       status,
			"dependencies": deps,
			"time":         time.Now().Format(time.RFC3339),
		})
	})
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

func writeJSON(w http.ResponseWriter, code int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}
