// Package mongo persists validated sensor records and image metadata in
// MongoDB. Each validated record is inserted once; the store never updates or
// deletes, and retries are left to the caller.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/weather-station-ingest/internal/config"
	"github.com/couchcryptid/weather-station-ingest/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const (
	// DefaultLimit is the page size used when a lookup does not specify one.
	DefaultLimit = 50
	// MaxLimit caps the number of records returned by a single lookup.
	MaxLimit = 500
)

// ErrNotConnected is returned by operations on a store whose client is closed.
var ErrNotConnected = errors.New("mongo store not connected")

// Store writes records to the sensor collection and image metadata to the
// image collection. It implements pipeline.BatchLoader.
type Store struct {
	client  *mongo.Client
	sensors *mongo.Collection
	images  *mongo.Collection
	timeout time.Duration
	logger  *slog.Logger
	closed  atomic.Bool
}

// Connect opens a client against cfg.MongoURI and verifies it with a ping.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Store, error) {
	connectCtx, cancel := context.WithTimeout(ctx, cfg.MongoTimeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(cfg.MongoDatabase)
	s := &Store{
		client:  client,
		sensors: db.Collection(cfg.MongoSensorCollection),
		images:  db.Collection(cfg.MongoImageCollection),
		timeout: cfg.MongoTimeout,
		logger:  logger,
	}
	logger.Info("mongo connected",
		"database", cfg.MongoDatabase,
		"sensor_collection", cfg.MongoSensorCollection,
		"image_collection", cfg.MongoImageCollection,
	)
	return s, nil
}

// EnsureIndexes creates the lookup index on sensor id and timestamp.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, err := s.sensors.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "sensor_id", Value: 1}, {Key: "timestamp", Value: -1}},
		Options: options.Index().SetName("sensor_id_timestamp"),
	})
	if err != nil {
		return fmt.Errorf("create sensor index: %w", err)
	}
	return nil
}

// LoadBatch inserts the records and, for records that carry an image, an
// image metadata document.
func (s *Store) LoadBatch(ctx context.Context, records []domain.SensorRecord) error {
	if len(records) == 0 {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	docs, images := splitDocuments(records)
	if _, err := s.sensors.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("insert %d sensor records: %w", len(docs), err)
	}
	if len(images) > 0 {
		if _, err := s.images.InsertMany(ctx, images); err != nil {
			return fmt.Errorf("insert %d image documents: %w", len(images), err)
		}
	}
	s.logger.Debug("records inserted", "records", len(docs), "images", len(images))
	return nil
}

// FindBySensorID returns the newest records for a sensor, at most limit of
// them. The limit is clamped to [1, MaxLimit].
func (s *Store) FindBySensorID(ctx context.Context, sensorID string, limit int) ([]domain.SensorRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	opts := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(int64(ClampLimit(limit)))

	cur, err := s.sensors.Find(ctx, bson.D{{Key: "sensor_id", Value: sensorID}}, opts)
	if err != nil {
		return nil, fmt.Errorf("find records for %s: %w", sensorID, err)
	}
	defer cur.Close(ctx)

	records := make([]domain.SensorRecord, 0)
	if err := cur.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode records for %s: %w", sensorID, err)
	}
	return records, nil
}

// CheckReadiness pings the server. Used by the /readyz endpoint.
func (s *Store) CheckReadiness(ctx context.Context) error {
	if s.client == nil || s.closed.Load() {
		return ErrNotConnected
	}
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client. Later calls are no-ops and readiness reports
// ErrNotConnected from then on.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil || !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	return s.client.Disconnect(ctx)
}

// ClampLimit applies the default and maximum page size.
func ClampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

func splitDocuments(records []domain.SensorRecord) (docs, images []any) {
	docs = make([]any, len(records))
	for i := range records {
		docs[i] = records[i]
		if img, ok := domain.NewImageDocument(records[i]); ok {
			images = append(images, img)
		}
	}
	return docs, images
}
