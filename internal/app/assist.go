// Package app assembles the assist pipeline from configuration. It is shared by
// the worker manager and the local CLI so both run the same wiring.
package app

import (
	"context"
	"fmt"
	"time"

	"summons-workers/internal/common/config"
	"summons-workers/internal/common/database"
	commonhttp "summons-workers/internal/common/http"
	"summons-workers/internal/common/logger"
	"summons-workers/internal/common/weather"
	"summons-workers/internal/llm"
	"summons-workers/internal/summons"
)

// Assist holds the long-lived collaborators of every pipeline run.
type Assist struct {
	LLM          *llm.Client
	Extractor    *summons.Extractor
	Orchestrator *summons.Orchestrator
	Pipeline     *summons.Pipeline
}

// Options carries what cannot come from configuration alone.
type Options struct {
	// Completer replaces the configured provider; used by tests.
	Completer llm.Completer
	// Recorder receives finished runs when auditing is on.
	Recorder summons.RunRecorder
	Logger   logger.Logger
}

func NewCompleter(ctx context.Context, cfg config.GenAIConfig) (llm.Completer, error) {
	httpClient, err := commonhttp.NewClientWithOptions(commonhttp.Options{ProxyURL: cfg.ProxyURL})
	if err != nil {
		return nil, err
	}

	switch cfg.Provider {
	case config.ProviderGateway:
		gw, err := llm.NewGatewayCompleter(llm.GatewayConfig{
			BaseURL:    cfg.BaseURL,
			APIKey:     cfg.APIKey,
			HTTPClient: httpClient.HTTPClient(),
		})
		if err != nil {
			return nil, err
		}
		return gw, nil
	case config.ProviderGemini, "":
		gc, err := llm.NewGeminiCompleter(ctx, llm.GeminiConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			HTTPClient: httpClient.HTTPClient(),
		})
		if err != nil {
			return nil, err
		}
		return gc, nil
	default:
		return nil, fmt.Errorf("unsupported genai provider %q", cfg.Provider)
	}
}

func NewAssist(ctx context.Context, cfg *config.Config, opts Options) (*Assist, error) {
	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}

	completer := opts.Completer
	if completer == nil {
		var err error
		if completer, err = NewCompleter(ctx, cfg.APIs.GenAI); err != nil {
			return nil, fmt.Errorf("genai completer: %w", err)
		}
	}

	genai := cfg.APIs.GenAI
	client := llm.NewClient(completer, llm.Options{
		DefaultModel:      genai.Model,
		MaxAttempts:       genai.MaxAttempts,
		BackoffBase:       config.GetDuration(genai.BackoffBase),
		AttemptTimeout:    config.GetDuration(genai.Timeout),
		RequestsPerSecond: genai.RequestsPerSecond,
		Logger:            log.With(map[string]interface{}{"component": "llm"}),
	})

	weatherHTTP, err := commonhttp.NewClientWithOptions(commonhttp.Options{
		Timeout:  config.GetDuration(cfg.APIs.Weather.Timeout),
		ProxyURL: genai.ProxyURL,
	})
	if err != nil {
		return nil, fmt.Errorf("weather http client: %w", err)
	}
	weatherClient := weather.NewClient(weather.Config{
		GeocodingURL: cfg.APIs.Weather.GeocodingURL,
		ForecastURL:  cfg.APIs.Weather.ForecastURL,
		HTTPClient:   weatherHTTP.HTTPClient(),
	})

	extractor := summons.NewExtractor(client, genai.Model)
	orchestrator := summons.NewOrchestrator(
		weatherClient,
		summons.NewTransportAdvisor(client, genai.Model),
		summons.NewPoiAdvisor(client, genai.Model),
		log.With(map[string]interface{}{"component": "orchestrator"}),
	)

	pipeline := summons.NewPipeline(extractor, orchestrator, summons.PipelineOptions{
		Recorder:         opts.Recorder,
		Logger:           log.With(map[string]interface{}{"component": "pipeline"}),
		DefaultStayHours: cfg.Pipeline.DefaultStayHours,
	})

	return &Assist{
		LLM:          client,
		Extractor:    extractor,
		Orchestrator: orchestrator,
		Pipeline:     pipeline,
	}, nil
}

// ConnectAudit opens Postgres and prepares the runs table. Callers own Close.
func ConnectAudit(ctx context.Context, cfg config.PostgresConfig) (*database.PostgresClient, *database.RunStore, error) {
	pg, err := database.NewPostgres(cfg)
	if err != nil {
		return nil, nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pg.Ping(pingCtx); err != nil {
		pg.Close()
		return nil, nil, fmt.Errorf("postgres ping: %w", err)
	}

	store := database.NewRunStore(pg)
	if err := store.EnsureSchema(ctx); err != nil {
		pg.Close()
		return nil, nil, err
	}
	return pg, store, nil
}
