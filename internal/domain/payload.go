package domain

import (
	"context"
	"time"
)

// RawPayload is an unvalidated, flatly keyed sensor submission as received
// from a device or upload form. Values are strings, numbers, json.Number, or
// booleans.
type RawPayload map[string]any

// Identity returns the sensor id and timestamp for diagnostics, substituting
// "unknown" for either when absent.
func (p RawPayload) Identity() (sensorID, timestamp string) {
	return identityField(p, "sensor_id"), identityField(p, "timestamp")
}

func identityField(p RawPayload, key string) string {
	v, ok := p[key]
	if !ok || v == nil {
		return "unknown"
	}
	s, ok := trimString(v)
	if !ok {
		return "unknown"
	}
	return s
}

// RawEvent represents an unprocessed message from a streaming source.
type RawEvent struct {
	Source    string // transport that delivered the message
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// ImagePayload is an image carried alongside a submission.
type ImagePayload struct {
	Base64Data string
	Format     string
	Width      int
	Height     int
}

// Attachment describes how a submission arrived: the transport, the time it
// was received, and, for uploads, the stored asset reference.
type Attachment struct {
	Source     string // "http", "kafka", "mqtt"
	UploadID   string
	ReceivedAt time.Time
	Filename   string
	StoredPath string
	Image      *ImagePayload
}

// ImageDocument is the metadata document stored for each record that carries
// an image.
type ImageDocument struct {
	SensorID  string      `json:"sensor_id" bson:"sensor_id"`
	Timestamp time.Time   `json:"timestamp" bson:"timestamp"`
	Image     ImageInfo   `json:"image" bson:"image"`
	Location  GeoLocation `json:"location" bson:"location"`
}

// NewImageDocument extracts the image metadata document from a record.
// Returns false when the record has no image.
func NewImageDocument(rec SensorRecord) (ImageDocument, bool) {
	if rec.Image == nil {
		return ImageDocument{}, false
	}
	return ImageDocument{
		SensorID:  rec.SensorID,
		Timestamp: rec.Timestamp,
		Image:     *rec.Image,
		Location:  rec.Location,
	}, true
}
