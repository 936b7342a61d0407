// Package api exposes the HTTP ingestion endpoints: multipart image uploads,
// flat raw readings, nested records, and per-sensor lookups.
package api

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/weather-station-ingest/internal/config"
	"github.com/couchcryptid/weather-station-ingest/internal/domain"
	"github.com/couchcryptid/weather-station-ingest/internal/observability"
	"github.com/gin-gonic/gin"
)

// Ingester runs submissions through normalization, validation, and storage.
type Ingester interface {
	Ingest(ctx context.Context, fields domain.RawPayload, att domain.Attachment) (domain.SensorRecord, error)
	IngestStructured(ctx context.Context, candidate map[string]any, att domain.Attachment) (domain.SensorRecord, error)
}

// RecordFinder looks up stored records for a sensor, newest first.
type RecordFinder interface {
	FindBySensorID(ctx context.Context, sensorID string, limit int) ([]domain.SensorRecord, error)
}

// NewRouter builds the gin engine serving /api/v1.
func NewRouter(cfg *config.Config, ingester Ingester, finder RecordFinder, logger *slog.Logger, metrics *observability.Metrics) *gin.Engine {
	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery(), RequestLogger(logger))

	h := NewHandler(ingester, finder, UploadOptions{
		Dir:               cfg.UploadDir,
		AllowedExtensions: cfg.UploadAllowedExtensions,
		MaxBytes:          cfg.UploadMaxBytes,
	}, logger, metrics)
	limiter := NewRateLimiter(cfg.UploadRateLimit, cfg.UploadRateBurst, metrics)

	v1 := engine.Group("/api/v1")
	writes := v1.Group("", limiter.Limit())
	{
		writes.POST("/upload", h.Upload)
		writes.POST("/readings", h.IngestReading)
		writes.POST("/records", h.IngestRecord)
	}
	v1.GET("/sensors/:id/records", h.ListRecords)

	return engine
}
