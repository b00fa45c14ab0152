package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"trader-gateway/internal/api"
	"trader-gateway/internal/backend"
	"trader-gateway/internal/dashboard"
	"trader-gateway/internal/monitor"
	"trader-gateway/internal/provision"
	"trader-gateway/pkg/config"
	"trader-gateway/pkg/logger"
	"trader-gateway/pkg/secrets"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	log := logger.New(logger.Config{
		Level:      cfg.LogLevel,
		OutputFile: cfg.LogFile,
	})

	buildVersion := os.Getenv("APP_VERSION")
	if buildVersion == "" {
		buildVersion = "v1.0-dev"
	}
	log.WithField("backend", cfg.BackendURL).Info("starting trader gateway")

	var sealer *secrets.Sealer
	if cfg.SecretsKey != "" {
		sealer, err = secrets.NewSealer(cfg.SecretsKey)
		if err != nil {
			log.WithError(err).Fatal("invalid SECRETS_KEY")
		}
		log.Info("secret sealing enabled")
	}

	registry, err := provision.LoadRegistry(cfg.VenuesFile)
	if err != nil {
		log.WithError(err).Fatal("failed to load venue registry")
	}

	metrics := monitor.NewSystemMetrics()
	client := backend.New(cfg.BackendURL, cfg.BackendTimeout)
	client.Instrument(func(d time.Duration, failed bool) {
		metrics.IncrementUpstream()
		metrics.UpstreamLatency.RecordDuration(d)
		if failed {
			metrics.IncrementUpstreamErrors()
		}
	})
	resolver := provision.NewResolver(client, registry, provision.ProviderSecrets{
		Keys:   cfg.ProviderKeys,
		URLs:   cfg.ProviderURLs,
		Models: cfg.ProviderModels,
	}, sealer, log)
	orchestrator := provision.NewOrchestrator(resolver, client, cfg.DefaultProvider, log)
	aggregator := dashboard.NewAggregator(client, cfg.SubReadTimeout, log)

	server := api.NewServer(api.Deps{
		Backend:        client,
		Orchestrator:   orchestrator,
		Aggregator:     aggregator,
		Registry:       registry,
		Sealer:         sealer,
		Metrics:        metrics,
		Log:            log,
		RequestTimeout: cfg.RequestTimeout,
		LeaderboardTTL: cfg.LeaderboardTTL,
		DashboardTTL:   cfg.DashboardTTL,
		Version:        buildVersion,
	})

	httpServer := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: server.Router,
	}
	go func() {
		log.WithField("port", cfg.Port).Info("API server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("API server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("forced shutdown")
	}
}
