// cmd/worker-manager/main.go
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"summons-workers/internal/app"
	"summons-workers/internal/common/camunda"
	"summons-workers/internal/common/config"
	"summons-workers/internal/common/database"
	"summons-workers/internal/common/logger"
	"summons-workers/internal/common/observability"
	"summons-workers/pkg/registry"

	cn "summons-workers/internal/workers/summons/compose-narrative"
	ecf "summons-workers/internal/workers/summons/extract-case-fields"
	gc "summons-workers/internal/workers/summons/gather-context"
	sa "summons-workers/internal/workers/summons/summons-assist"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()
	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting worker manager...",
		zap.String("app", cfg.App.Name),
		zap.String("environment", cfg.App.Environment),
		zap.String("genaiProvider", cfg.APIs.GenAI.Provider),
	)

	obs := observability.New(cfg.Observability.ServiceName, zapLog)
	defer obs.Shutdown()

	var tracer *observability.TracerProvider
	if cfg.Observability.Tracing.Enabled {
		tracer, err = observability.NewTracerProvider(observability.TracingOptions{
			ServiceName:    cfg.Observability.ServiceName,
			JaegerEndpoint: cfg.Observability.Tracing.JaegerEndpoint,
			SampleRatio:    cfg.Observability.Tracing.SampleRatio,
		})
		if err != nil {
			zapLog.Fatal("tracing init failed", zap.Error(err))
		}
		obs.AttachTracing(tracer)
	}

	ctx := context.Background()

	// --- Zeebe client ---
	var zeebe *camunda.Client
	err = retryWithBackoff(func() error {
		var err error
		zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
			GatewayAddress:         cfg.Camunda.BrokerAddress,
			UsePlaintextConnection: cfg.Camunda.Plaintext,
			RequestTimeout:         config.GetDuration(cfg.Camunda.RequestTimeout),
		})
		return err
	}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
	if err != nil {
		zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
	}
	zapLog.Info("Zeebe client connected successfully")

	// --- Run audit (optional) ---
	opts := app.Options{Logger: log}
	if cfg.Pipeline.AuditEnabled {
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var store *database.RunStore
			var err error
			pg, store, err = app.ConnectAudit(ctx, cfg.Database.Postgres)
			if err == nil {
				opts.Recorder = store
			}
			return err
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		zapLog.Info("PostgreSQL connected successfully, run audit enabled")
	}

	// --- Activity registry ---
	reg, err := registry.LoadRegistry(cfg.Pipeline.RegistryPath)
	if err != nil {
		zapLog.Fatal("activity registry load failed", zap.Error(err))
	}
	if err := reg.Validate(); err != nil {
		zapLog.Fatal("activity registry invalid", zap.Error(err))
	}

	// --- Pipeline ---
	assist, err := app.NewAssist(ctx, cfg, opts)
	if err != nil {
		zapLog.Fatal("assist pipeline init failed", zap.Error(err))
	}

	// --- Workers ---
	zc := zeebe.GetClient()
	var workers []*camunda.CamundaWorker
	register := func(w *camunda.CamundaWorker) {
		if w != nil {
			workers = append(workers, w)
		}
	}

	{
		wcfg := config.GetWorkerConfig(cfg, ecf.TaskType)
		h := ecf.NewHandler(&ecf.Config{Timeout: reg.JobTimeout(ecf.TaskType, config.GetDuration(wcfg.Timeout))},
			assist.Extractor, reg, &extractCaseFieldsLoggerAdapter{log})
		register(camunda.StartWorker(zc, ecf.TaskType, wcfg, h.Handle, zapLog))
	}

	{
		wcfg := config.GetWorkerConfig(cfg, gc.TaskType)
		h := gc.NewHandler(&gc.Config{
			Timeout:          reg.JobTimeout(gc.TaskType, config.GetDuration(wcfg.Timeout)),
			DefaultStayHours: cfg.Pipeline.DefaultStayHours,
		}, assist.Orchestrator, reg, &gatherContextLoggerAdapter{log})
		register(camunda.StartWorker(zc, gc.TaskType, wcfg, h.Handle, zapLog))
	}

	{
		wcfg := config.GetWorkerConfig(cfg, cn.TaskType)
		h := cn.NewHandler(&cn.Config{Timeout: reg.JobTimeout(cn.TaskType, config.GetDuration(wcfg.Timeout))},
			reg, &composeNarrativeLoggerAdapter{log})
		register(camunda.StartWorker(zc, cn.TaskType, wcfg, h.Handle, zapLog))
	}

	{
		wcfg := config.GetWorkerConfig(cfg, sa.TaskType)
		h := sa.NewHandler(sa.HandlerOptions{
			Config:    &sa.Config{Timeout: reg.JobTimeout(sa.TaskType, config.GetDuration(cfg.Pipeline.RunTimeout))},
			Runner:    assist.Pipeline,
			Validator: reg,
			Observer:  obs,
			Logger:    &summonsAssistLoggerAdapter{log},
		})
		register(camunda.StartWorker(zc, sa.TaskType, wcfg, h.Handle, zapLog))
	}

	zapLog.Info("workers registered", zap.Int("count", len(workers)))

	// --- Health & Metrics Server ---
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeStatus(w, http.StatusOK, "healthy")
	})
	mux.HandleFunc("/ready", func(w http.ResponseWriter, r *http.Request) {
		readyCtx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
		defer cancel()
		if err := zeebe.HealthCheck(readyCtx); err != nil {
			writeStatus(w, http.StatusServiceUnavailable, "not ready")
			return
		}
		writeStatus(w, http.StatusOK, "ready")
	})
	mux.Handle("/metrics", promhttp.Handler())

	server := &http.Server{Addr: cfg.Observability.MetricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		zapLog.Info("Health/Metrics server listening", zap.String("addr", cfg.Observability.MetricsAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Error("Health/Metrics server failed", zap.Error(err))
		}
	}()

	// --- Graceful Shutdown ---
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	zapLog.Info("Shutdown signal received, stopping workers...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	for _, w := range workers {
		w.Stop()
	}
	if err := server.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error stopping health server", zap.Error(err))
	}
	if err := tracer.Shutdown(shutdownCtx); err != nil {
		zapLog.Error("Error flushing traces", zap.Error(err))
	}
	if err := zeebe.Close(); err != nil {
		zapLog.Error("Error closing Zeebe client", zap.Error(err))
	}

	zapLog.Info("Worker manager stopped gracefully")
}

func writeStatus(w http.ResponseWriter, code int, status string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": status,
		"time":   time.Now().Format(time.RFC3339),
	})
}

// Logger adapters for workers that declare their own Logger interfaces
type extractCaseFieldsLoggerAdapter struct {
	logger.Logger
}

func (a *extractCaseFieldsLoggerAdapter) With(fields map[string]interface{}) ecf.Logger {
	return &extractCaseFieldsLoggerAdapter{a.Logger.With(fields)}
}

type gatherContextLoggerAdapter struct {
	logger.Logger
}

func (a *gatherContextLoggerAdapter) With(fields map[string]interface{}) gc.Logger {
	return &gatherContextLoggerAdapter{a.Logger.With(fields)}
}

type composeNarrativeLoggerAdapter struct {
	logger.Logger
}

func (a *composeNarrativeLoggerAdapter) With(fields map[string]interface{}) cn.Logger {
	return &composeNarrativeLoggerAdapter{a.Logger.With(fields)}
}

type summonsAssistLoggerAdapter struct {
	logger.Logger
}

func (a *summonsAssistLoggerAdapter) With(fields map[string]interface{}) sa.Logger {
	return &summonsAssistLoggerAdapter{a.Logger.With(fields)}
}
