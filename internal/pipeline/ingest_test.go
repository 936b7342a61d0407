package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/weather-station-ingest/internal/domain"
	"github.com/couchcryptid/weather-station-ingest/internal/observability"
	"github.com/couchcryptid/weather-station-ingest/internal/pipeline"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestIngestor(ldr pipeline.BatchLoader) (*pipeline.Ingestor, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	return pipeline.NewIngestor(newTestTransformer(metrics), ldr, discardLogger(), metrics), metrics
}

func TestIngestor_Ingest(t *testing.T) {
	ldr := &mockLoader{}
	ing, metrics := newTestIngestor(ldr)

	rec, err := ing.Ingest(context.Background(), domain.RawPayload{
		"sensor_id":     "ws-1",
		"timestamp":     "2024-05-01T12:00:00Z",
		"lat":           "30.2",
		"lon":           "-97.7",
		"pressure_hpa":  "1013",
		"data_quality":  "good",
		"quality_flags": "ok",
	}, domain.Attachment{Source: "http", Filename: "sky.jpg"})

	require.NoError(t, err)
	assert.Equal(t, "ws-1", rec.SensorID)
	assert.Equal(t, 101300.0, *rec.Readings.PressurePa)
	assert.True(t, *rec.DataQuality)
	assert.Equal(t, "sky.jpg", *rec.Upload.Filename)
	assert.Len(t, ldr.records(), 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RecordsStored))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RecordsReceived.WithLabelValues("http")))
}

func TestIngestor_ValidationFailureNotStored(t *testing.T) {
	ldr := &mockLoader{}
	ing, _ := newTestIngestor(ldr)

	_, err := ing.Ingest(context.Background(), domain.RawPayload{"humidity": "150"}, domain.Attachment{Source: "http"})

	var verr *domain.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Zero(t, ldr.calls)
}

func TestIngestor_StoreFailure(t *testing.T) {
	ldr := &mockLoader{err: errors.New("connection refused")}
	ing, metrics := newTestIngestor(ldr)

	_, err := ing.IngestStructured(context.Background(), map[string]any{
		"timestamp":   "2024-05-01T12:00:00Z",
		"sensor_id":   "ws-1",
		"location":    map[string]any{"lat": 1.0, "lon": 1.0},
		"readings":    map[string]any{},
		"device_info": map[string]any{},
	}, domain.Attachment{Source: "http"})

	require.ErrorIs(t, err, pipeline.ErrStore)
	assert.Contains(t, err.Error(), "connection refused")
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.StoreErrors))
	assert.Equal(t, 0.0, testutil.ToFloat64(metrics.RecordsStored))
}

func TestIngestor_IngestRaw_Malformed(t *testing.T) {
	ldr := &mockLoader{}
	ing, _ := newTestIngestor(ldr)

	_, err := ing.IngestRaw(context.Background(), domain.RawEvent{Source: "mqtt", Value: []byte("{")})

	require.ErrorIs(t, err, pipeline.ErrMalformedPayload)
	assert.Zero(t, ldr.calls)
}
