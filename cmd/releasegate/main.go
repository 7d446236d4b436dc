package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	githubadapter "github.com/cfarleigh/releasegate/internal/adapter/driven/github"
	"github.com/cfarleigh/releasegate/internal/adapter/driven/llm"
	"github.com/cfarleigh/releasegate/internal/adapter/driven/prom"
	weaviateadapter "github.com/cfarleigh/releasegate/internal/adapter/driven/weaviate"
	httphandler "github.com/cfarleigh/releasegate/internal/adapter/driving/http"
	"github.com/cfarleigh/releasegate/internal/application"
	"github.com/cfarleigh/releasegate/internal/config"
)

func main() {
	if err := run(); err != nil {
		slog.Error("fatal error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// 1. Load configuration (fail fast on missing required env vars).
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	slog.Info("config loaded",
		"listen_addr", cfg.ListenAddr,
		"github_repo", cfg.GitHubOwner+"/"+cfg.GitHubRepo,
		"branch", cfg.GitHubBranch,
		"weaviate", cfg.WeaviateScheme+"://"+cfg.WeaviateHost,
		"collection", cfg.Collection,
	)

	// 2. Setup signal-based context (SIGINT, SIGTERM).
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// 3. Metrics registry with process and Go runtime collectors.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := prom.NewSink(registry)

	// 4. Wire driven adapters.
	ghClient := githubadapter.NewClient(cfg.GitHubToken)

	wvClient, err := weaviateadapter.NewClient(cfg.WeaviateHost, cfg.WeaviateScheme)
	if err != nil {
		return err
	}

	embedder := llm.NewEmbedder(cfg.OpenAIKey, cfg.EmbedModel, cfg.EmbedCostPer1K, metrics)
	index := weaviateadapter.NewIndex(wvClient, embedder, cfg.Collection)

	// 5. Wire the application services.
	scorer := application.NewRiskScorer(index, application.KeywordStrategy{}, metrics)
	svc := application.NewAnalysisService(
		ghClient,
		index,
		scorer,
		application.NewReporter(),
		metrics,
		cfg.ArtifactName,
	)

	// 6. HTTP API plus metrics endpoint.
	apiHandler := httphandler.NewHandler(svc, httphandler.Defaults{
		Owner:  cfg.GitHubOwner,
		Repo:   cfg.GitHubRepo,
		Branch: cfg.GitHubBranch,
	}, slog.Default())

	mux := http.NewServeMux()
	mux.Handle("/api/v1/", httphandler.NewServeMux(apiHandler, slog.Default()))
	mux.Handle("GET /metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		// Analysis runs block on GitHub, OpenAI, and Weaviate round trips.
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		slog.Info("http server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("http server error", "error", err)
		}
	}()

	slog.Info("releasegate started", "listen_addr", cfg.ListenAddr)

	// 7. Wait for shutdown signal.
	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("http server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
	return nil
}
