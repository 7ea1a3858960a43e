// cmd/worker-manager/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"credit-scoring-workers/internal/bootstrap"
	"credit-scoring-workers/internal/common/camunda"
	"credit-scoring-workers/internal/common/config"
	"credit-scoring-workers/internal/common/logger"
	"credit-scoring-workers/internal/common/observability"

	ccs "credit-scoring-workers/internal/workers/credit/calculate-credit-score"

	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "worker manager: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config load failed: %w", err)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
	})

	log.Info("Starting worker manager...", map[string]interface{}{"environment": cfg.App.Environment})

	obs, err := observability.New(cfg.App.Name)
	if err != nil {
		log.Warn("OpenTelemetry metrics disabled", map[string]interface{}{"error": err.Error()})
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = obs.Shutdown(ctx)
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Zeebe ---
	var zeebe *camunda.Client
	err = bootstrap.RetryWithBackoff(ctx, bootstrap.DefaultRetryPolicy, log, "Zeebe client initialization", func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: cfg.Camunda.Insecure,
			ConnectionTimeout:      10 * time.Second,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	})
	if err != nil {
		return err
	}
	defer zeebe.Close()
	log.Info("Zeebe client connected successfully", nil)

	// --- Storage ---
	clients, err := bootstrap.Connect(ctx, cfg, bootstrap.DefaultRetryPolicy, log)
	if err != nil {
		return err
	}
	defer clients.Close()
	if err := prometheus.Register(clients.Postgres.StatsCollector()); err != nil {
		log.Warn("Postgres pool metrics not registered", map[string]interface{}{"error": err.Error()})
	}

	engine, err := bootstrap.NewEngine(ctx, cfg, clients, log)
	if err != nil {
		return err
	}

	// --- Workers ---
	var workers []*camunda.CamundaWorker
	if config.IsWorkerEnabled(cfg, ccs.TaskType) {
		wcfg := ccs.LoadConfig(cfg)
		handler := ccs.NewHandler(wcfg, engine, obs, log)
		w := camunda.NewWorker(zeebe.GetClient(), ccs.TaskType, camunda.WorkerOptions{
			MaxJobsActive: wcfg.MaxJobsActive,
			Timeout:       config.GetDuration(cfg.Camunda.Timeout),
		}, handler, log)
		w.Start()
		workers = append(workers, w)
	} else {
		log.Info("worker disabled", map[string]interface{}{"taskType": ccs.TaskType})
	}

	// --- Health & Metrics Server ---
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler:           newServeMux(zeebe, clients.Checkers()),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Info("Health/Metrics server listening", map[string]interface{}{"addr": srv.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Health/Metrics server failed", map[string]interface{}{"error": err.Error()})
		}
	}()

	// --- Graceful Shutdown ---
	<-ctx.Done()
	log.Info("Shutdown signal received, stopping workers...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop(shutdownCtx)
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Error stopping Health/Metrics server", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Worker manager stopped gracefully", nil)
	return nil
}
