package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-station-ingest/internal/domain"
	"github.com/couchcryptid/weather-station-ingest/internal/observability"
)

// ErrStore wraps failures reported by the storage or publishing collaborators.
var ErrStore = errors.New("store record")

// Ingestor handles one submission at a time for request-driven transports
// (HTTP, MQTT): transform, then hand the record to the loader.
type Ingestor struct {
	transformer *SensorTransformer
	loader      BatchLoader
	logger      *slog.Logger
	metrics     *observability.Metrics
}

// NewIngestor creates an Ingestor that stores through loader.
func NewIngestor(t *SensorTransformer, loader BatchLoader, logger *slog.Logger, metrics *observability.Metrics) *Ingestor {
	return &Ingestor{
		transformer: t,
		loader:      loader,
		logger:      logger,
		metrics:     metrics,
	}
}

// Ingest normalizes, validates, and stores a flat payload.
func (i *Ingestor) Ingest(ctx context.Context, fields domain.RawPayload, att domain.Attachment) (domain.SensorRecord, error) {
	return i.run(ctx, att.Source, func() (domain.SensorRecord, error) {
		return i.transformer.TransformFlat(ctx, fields, att)
	})
}

// IngestStructured validates and stores an already nested candidate record.
func (i *Ingestor) IngestStructured(ctx context.Context, candidate map[string]any, att domain.Attachment) (domain.SensorRecord, error) {
	return i.run(ctx, att.Source, func() (domain.SensorRecord, error) {
		return i.transformer.TransformStructured(ctx, candidate, att)
	})
}

// IngestRaw decodes and ingests a message delivered by a streaming transport.
func (i *Ingestor) IngestRaw(ctx context.Context, raw domain.RawEvent) (domain.SensorRecord, error) {
	return i.run(ctx, raw.Source, func() (domain.SensorRecord, error) {
		return i.transformer.Transform(ctx, raw)
	})
}

func (i *Ingestor) run(ctx context.Context, source string, transform func() (domain.SensorRecord, error)) (domain.SensorRecord, error) {
	start := time.Now()
	i.metrics.RecordsReceived.WithLabelValues(source).Inc()

	rec, err := transform()
	if err != nil {
		return domain.SensorRecord{}, err
	}

	if err := i.loader.LoadBatch(ctx, []domain.SensorRecord{rec}); err != nil {
		i.metrics.StoreErrors.Inc()
		i.logger.Error("store record failed", "sensor_id", rec.SensorID, "source", source, "error", err)
		return domain.SensorRecord{}, fmt.Errorf("%w: %w", ErrStore, err)
	}

	i.metrics.RecordsStored.Inc()
	i.metrics.IngestDuration.Observe(time.Since(start).Seconds())
	i.logger.Info("record stored",
		"sensor_id", rec.SensorID,
		"timestamp", rec.Timestamp,
		"source", source,
	)
	return rec, nil
}
