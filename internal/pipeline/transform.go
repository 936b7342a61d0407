package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/couchcryptid/weather-station-ingest/internal/domain"
	"github.com/couchcryptid/weather-station-ingest/internal/observability"
)

// ErrMalformedPayload is returned when a message body is not a JSON object.
var ErrMalformedPayload = errors.New("malformed payload")

// SensorTransformer turns raw submissions into validated records: flat
// payloads go through normalization and assembly, nested ones straight to the
// validator. Geocoding enrichment runs when a geocoder is configured.
type SensorTransformer struct {
	validator domain.Validator
	geocoder  domain.Geocoder
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewTransformer creates a SensorTransformer. Pass a nil geocoder to disable
// geocoding enrichment.
func NewTransformer(validator domain.Validator, geocoder domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics) *SensorTransformer {
	return &SensorTransformer{
		validator: validator,
		geocoder:  geocoder,
		logger:    logger,
		metrics:   metrics,
	}
}

// Transform decodes a streamed message and validates it.
func (t *SensorTransformer) Transform(ctx context.Context, raw domain.RawEvent) (domain.SensorRecord, error) {
	fields, err := DecodePayload(raw.Value)
	if err != nil {
		return domain.SensorRecord{}, err
	}
	// Transports that address a station out of band supply the id when the
	// body leaves it out.
	if station := raw.Headers["station"]; station != "" && blank(fields["sensor_id"]) {
		fields["sensor_id"] = station
	}

	att := domain.Attachment{
		Source:     raw.Source,
		UploadID:   raw.Headers["upload_id"],
		ReceivedAt: raw.Timestamp,
	}
	if IsStructured(fields) {
		return t.TransformStructured(ctx, fields, att)
	}
	return t.TransformFlat(ctx, domain.RawPayload(fields), att)
}

func blank(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && strings.TrimSpace(s) == ""
}

// TransformFlat normalizes a flat payload, assembles the nested candidate,
// and validates it.
func (t *SensorTransformer) TransformFlat(ctx context.Context, raw domain.RawPayload, att domain.Attachment) (domain.SensorRecord, error) {
	sensorID, ts := raw.Identity()
	t.logger.Debug("normalizing sensor payload", "sensor_id", sensorID, "timestamp", ts, "source", att.Source)

	results := domain.NormalizeFields(raw)
	cleaned := make(domain.CleanedRecord, len(results))
	for _, res := range results {
		cleaned[res.Rule.Clean] = res.Value
		if res.Status == domain.Unparsable {
			t.metrics.UnparsableFields.WithLabelValues(res.Rule.Raw).Inc()
			t.logger.Debug("field not convertible",
				"sensor_id", sensorID,
				"field", res.Rule.Raw,
				"error", res.Err,
			)
		}
	}

	return t.validate(ctx, domain.Assemble(cleaned, att), att.Source)
}

// TransformStructured validates an already nested candidate record.
func (t *SensorTransformer) TransformStructured(ctx context.Context, candidate map[string]any, att domain.Attachment) (domain.SensorRecord, error) {
	return t.validate(ctx, candidate, att.Source)
}

func (t *SensorTransformer) validate(ctx context.Context, candidate map[string]any, source string) (domain.SensorRecord, error) {
	rec, err := t.validator.Validate(candidate)
	if err != nil {
		t.metrics.ValidationFailures.WithLabelValues(source).Inc()
		return domain.SensorRecord{}, err
	}

	if t.geocoder != nil {
		var outcome string
		rec, outcome = domain.EnrichWithGeocoding(ctx, rec, t.geocoder, t.logger)
		t.metrics.GeocodeEnrichment.WithLabelValues(outcome).Inc()
	}
	return rec, nil
}

// DecodePayload parses a JSON object, keeping numbers as json.Number so that
// integers and decimals survive unchanged until normalization.
func DecodePayload(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}
	if fields == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrMalformedPayload)
	}
	return fields, nil
}

// IsStructured reports whether a payload is already in the nested record
// shape rather than the flat device shape.
func IsStructured(fields map[string]any) bool {
	for _, key := range []string{"readings", "location"} {
		if _, ok := fields[key].(map[string]any); ok {
			return true
		}
	}
	return false
}
