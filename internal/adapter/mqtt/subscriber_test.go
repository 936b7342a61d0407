package mqtt

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/couchcryptid/weather-station-ingest/internal/config"
	"github.com/couchcryptid/weather-station-ingest/internal/domain"
	"github.com/couchcryptid/weather-station-ingest/internal/observability"
	"github.com/couchcryptid/weather-station-ingest/internal/pipeline"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingIngester struct {
	events []domain.RawEvent
	err    error
}

func (r *recordingIngester) IngestRaw(_ context.Context, raw domain.RawEvent) (domain.SensorRecord, error) {
	r.events = append(r.events, raw)
	if r.err != nil {
		return domain.SensorRecord{}, r.err
	}
	return domain.SensorRecord{SensorID: "ws-1"}, nil
}

type sliceLoader struct{ records []domain.SensorRecord }

func (l *sliceLoader) LoadBatch(_ context.Context, records []domain.SensorRecord) error {
	l.records = append(l.records, records...)
	return nil
}

var receivedAt = time.Date(2024, 5, 1, 12, 0, 5, 0, time.UTC)

func testConfig() *config.Config {
	return &config.Config{
		MQTTBroker:         "tcp://localhost:1883",
		MQTTClientID:       "test-client",
		MQTTTopic:          "weather/+/telemetry",
		MQTTQoS:            1,
		MQTTConnectTimeout: time.Second,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestSubscriber(ing RawIngester) *Subscriber {
	s := NewSubscriber(context.Background(), testConfig(), ing, discardLogger())
	s.clock = clockwork.NewFakeClockAt(receivedAt)
	return s
}

func TestHandleMessage_BuildsRawEvent(t *testing.T) {
	ing := &recordingIngester{}
	s := newTestSubscriber(ing)

	s.HandleMessage("weather/WS-AUS-001/telemetry", []byte(`{"sensor_id":"WS-AUS-001"}`))

	require.Len(t, ing.events, 1)
	ev := ing.events[0]
	assert.Equal(t, "mqtt", ev.Source)
	assert.Equal(t, "weather/WS-AUS-001/telemetry", ev.Topic)
	assert.JSONEq(t, `{"sensor_id":"WS-AUS-001"}`, string(ev.Value))
	assert.Equal(t, receivedAt, ev.Timestamp)
	assert.Equal(t, map[string]string{"station": "WS-AUS-001"}, ev.Headers)
	assert.Nil(t, ev.Commit)
}

func TestHandleMessage_RejectionIsDropped(t *testing.T) {
	ing := &recordingIngester{err: errors.New("validation failed")}
	s := newTestSubscriber(ing)

	assert.NotPanics(t, func() {
		s.HandleMessage("weather/WS-1/telemetry", []byte(`{}`))
	})
	assert.Len(t, ing.events, 1)
}

func TestHandleMessage_ThroughIngestor(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	loader := &sliceLoader{}
	transformer := pipeline.NewTransformer(domain.NewValidator(false), nil, discardLogger(), metrics)
	s := newTestSubscriber(pipeline.NewIngestor(transformer, loader, discardLogger(), metrics))

	s.HandleMessage("weather/ws-1/telemetry",
		[]byte(`{"sensor_id":"ws-1","timestamp":"2024-05-01T12:00:00Z","lat":"30.2","lon":"-97.7","temperature_c":"21.5"}`))
	s.HandleMessage("weather/ws-1/telemetry", []byte(`not json`))

	require.Len(t, loader.records, 1)
	rec := loader.records[0]
	assert.Equal(t, "mqtt", *rec.Upload.Source)
	assert.Equal(t, receivedAt, *rec.Upload.Timestamp)
	assert.InDelta(t, 294.65, *rec.Readings.TemperatureK, 1e-9)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.RecordsReceived.WithLabelValues("mqtt")))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.RecordsStored))
}

func TestHandleMessage_TopicSuppliesSensorID(t *testing.T) {
	metrics := observability.NewMetricsForTesting()
	loader := &sliceLoader{}
	transformer := pipeline.NewTransformer(domain.NewValidator(false), nil, discardLogger(), metrics)
	s := newTestSubscriber(pipeline.NewIngestor(transformer, loader, discardLogger(), metrics))

	s.HandleMessage("weather/WS-DEN-003/telemetry",
		[]byte(`{"timestamp":"2024-05-01T12:00:00Z","lat":"39.7","lon":"-104.9"}`))

	require.Len(t, loader.records, 1)
	assert.Equal(t, "WS-DEN-003", loader.records[0].SensorID)
}

func TestStationFromTopic(t *testing.T) {
	tests := []struct {
		topic string
		want  string
	}{
		{"weather/WS-AUS-001/telemetry", "WS-AUS-001"},
		{"weather/ws-1/images/raw", "ws-1"},
		{"weather/ws-1", ""},
		{"other/ws-1/telemetry", ""},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.topic, func(t *testing.T) {
			assert.Equal(t, tt.want, StationFromTopic(tt.topic))
		})
	}
}

func TestClose_NotConnectedIsNoop(t *testing.T) {
	s := newTestSubscriber(&recordingIngester{})
	assert.NotPanics(t, s.Close)
}
