package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/weather-station-ingest/internal/config"
	"github.com/couchcryptid/weather-station-ingest/internal/domain"
	kafkago "github.com/segmentio/kafka-go"
)

// Writer publishes validated records to a Kafka topic for downstream consumers.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes the records in a single WriteMessages call. Records are
// keyed by sensor id so each station's readings stay ordered on one partition.
func (w *Writer) LoadBatch(ctx context.Context, records []domain.SensorRecord) error {
	if len(records) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(records))
	for i := range records {
		msg, err := serializeToMessage(records[i])
		if err != nil {
			return err
		}
		msgs[i] = msg
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return fmt.Errorf("publish %d records: %w", len(msgs), err)
	}
	w.logger.Debug("records published", "count", len(msgs), "topic", w.writer.Topic)
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage marshals a SensorRecord into a Kafka message.
func serializeToMessage(rec domain.SensorRecord) (kafkago.Message, error) {
	data, err := json.Marshal(rec)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize sensor record: %w", err)
	}
	headers := []kafkago.Header{
		{Key: "sensor_id", Value: []byte(rec.SensorID)},
		{Key: "timestamp", Value: []byte(rec.Timestamp.Format(time.RFC3339))},
	}
	if rec.Upload != nil && rec.Upload.UploadID != nil {
		headers = append(headers, kafkago.Header{Key: "upload_id", Value: []byte(*rec.Upload.UploadID)})
	}
	return kafkago.Message{
		Key:     []byte(rec.SensorID),
		Value:   data,
		Headers: headers,
	}, nil
}
