package main

import (
	"context"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/ahrav/go-triad/internal/compare"
	"github.com/ahrav/go-triad/internal/llm"
	"github.com/ahrav/go-triad/internal/llm/configuration"
	"github.com/ahrav/go-triad/internal/llm/observability"
	"github.com/ahrav/go-triad/internal/worker"
)

// app holds the process-wide handles every command needs.
type app struct {
	cfg      *configuration.Config
	logger   *slog.Logger
	registry *prometheus.Registry
	caller   *compare.UpstreamCaller
	orch     *compare.Orchestrator
}

func (o *Options) bootstrap(ctx context.Context) (*app, error) {
	cfg, err := configuration.Load(o.Config)
	if err != nil {
		return nil, err
	}

	logger := observability.NewLogger(cfg.Observability, os.Stderr)

	registry := prometheus.NewRegistry()
	var metrics observability.Metrics = observability.NewNoOpMetrics()
	if cfg.Observability.MetricsEnabled {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics = observability.NewPrometheusMetrics(registry, logger)
	}

	client, err := worker.InitializeLLMClient(ctx, cfg,
		llm.WithLogger(logger),
		llm.WithMetrics(metrics),
	)
	if err != nil {
		return nil, err
	}

	caller := compare.NewUpstreamCaller(client, cfg.Generation,
		compare.WithLogger(logger),
		compare.WithMetrics(metrics),
	)
	orch := compare.NewOrchestrator(caller, cfg.Personas,
		compare.WithLogger(logger),
		compare.WithMetrics(metrics),
	)

	return &app{
		cfg:      cfg,
		logger:   logger,
		registry: registry,
		caller:   caller,
		orch:     orch,
	}, nil
}
