package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/renewable-power-plants-etl/internal/adapter/export"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/adapter/fetch"
	httpadapter "github.com/couchcryptid/renewable-power-plants-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/renewable-power-plants-etl/internal/adapter/kafka"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/config"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/domain"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/observability"
	"github.com/couchcryptid/renewable-power-plants-etl/internal/pipeline"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		return 1
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	def, err := config.LoadPipeline(cfg.PipelineConfig, cfg.InputDir)
	if err != nil {
		logger.Error("failed to load pipeline definition", "path", cfg.PipelineConfig, "error", err)
		return 1
	}
	lookups, err := pipeline.LoadLookups(def.Lookups)
	if err != nil {
		logger.Error("failed to load lookup tables", "error", err)
		return 1
	}

	exporters, err := export.New(cfg.ExportFormats, cfg.OutputDir, domain.NewValidator(def.Rules).Rules(), logger)
	if err != nil {
		logger.Error("failed to configure exports", "error", err)
		return 1
	}
	loaders := make([]pipeline.Loader, 0, len(exporters)+1)
	for _, e := range exporters {
		loaders = append(loaders, e)
	}

	if cfg.KafkaEnabled() {
		writer := kafkaadapter.NewWriter(cfg, metrics, logger)
		defer func() {
			if err := writer.Close(); err != nil {
				logger.Error("kafka writer close error", "error", err)
			}
		}()
		loaders = append(loaders, writer)
		logger.Info("kafka publication enabled", "topic", cfg.KafkaSinkTopic)
	} else {
		logger.Info("kafka publication disabled")
	}

	cache := fetch.NewCache(cfg.CacheDir, cfg.FetchTimeout, metrics, logger,
		fetch.WithMaxAge(cfg.FetchMaxAge),
		fetch.WithRetries(cfg.FetchRetries),
	)
	extractor := pipeline.NewFileExtractor(def.Sources, cache, logger)
	p := pipeline.New(def, lookups, extractor, loaders, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var srv *httpadapter.Server
	if cfg.HTTPAddr != "" {
		srv = httpadapter.NewServer(cfg.HTTPAddr, p, logger)
		go func() {
			if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("http server error", "error", err)
			}
		}()
	}

	code := 0
	if _, err := p.Run(ctx); err != nil {
		code = 1
	}

	if srv != nil && cfg.ServeAfterRun && ctx.Err() == nil {
		logger.Info("run finished, serving until signalled")
		<-ctx.Done()
	}
	logger.Info("shutting down")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("http server shutdown error", "error", err)
		}
	}

	logger.Info("shutdown complete")
	return code
}
