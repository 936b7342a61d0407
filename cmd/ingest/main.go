package main

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/weather-station-ingest/internal/adapter/api"
	httpadapter "github.com/couchcryptid/weather-station-ingest/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/weather-station-ingest/internal/adapter/kafka"
	"github.com/couchcryptid/weather-station-ingest/internal/adapter/mapbox"
	mongostore "github.com/couchcryptid/weather-station-ingest/internal/adapter/mongo"
	"github.com/couchcryptid/weather-station-ingest/internal/adapter/mqtt"
	"github.com/couchcryptid/weather-station-ingest/internal/config"
	"github.com/couchcryptid/weather-station-ingest/internal/domain"
	"github.com/couchcryptid/weather-station-ingest/internal/observability"
	"github.com/couchcryptid/weather-station-ingest/internal/pipeline"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is normal in containers; anything else is worth reporting.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		slog.Warn("failed to load .env", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, err := mongostore.Connect(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to connect to mongo", "error", err)
		os.Exit(1)
	}
	if err := store.EnsureIndexes(ctx); err != nil {
		logger.Warn("failed to ensure mongo indexes", "error", err)
	}

	// Geocoding is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	transformer := pipeline.NewTransformer(domain.NewValidator(cfg.SchemaStrict), geocoder, logger, metrics)

	loader := pipeline.Chain{store}
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		writer = kafkaadapter.NewWriter(cfg, logger)
		loader = append(loader, writer)
	}
	ingestor := pipeline.NewIngestor(transformer, loader, logger, metrics)

	router := api.NewRouter(cfg, ingestor, store, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, router, store, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	var reader *kafkaadapter.Reader
	pipelineDone := make(chan struct{})
	if cfg.KafkaEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		p := pipeline.New(reader, transformer, loader, logger, metrics, cfg.BatchSize)
		go func() {
			defer close(pipelineDone)
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
	} else {
		close(pipelineDone)
		logger.Info("kafka pipeline disabled")
	}

	var subscriber *mqtt.Subscriber
	if cfg.MQTTBroker != "" {
		subscriber = mqtt.NewSubscriber(ctx, cfg, ingestor, logger)
		if err := subscriber.Connect(); err != nil {
			logger.Error("mqtt connect failed", "broker", cfg.MQTTBroker, "error", err)
		}
	} else {
		logger.Info("mqtt subscription disabled")
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if subscriber != nil {
		subscriber.Close()
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	select {
	case <-pipelineDone:
	case <-shutdownCtx.Done():
		logger.Warn("pipeline did not stop before shutdown timeout")
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}
	if err := store.Close(shutdownCtx); err != nil {
		logger.Error("mongo close error", "error", err)
	}

	logger.Info("shutdown complete")
}
