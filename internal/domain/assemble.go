package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// fieldMap copies a cleaned field into a candidate sub-document under a
// possibly different key. Fields that were never provided are skipped; nil
// (unparsable) values are copied so the validator treats them as absent.
type fieldMap struct {
	from, to string
}

func same(names ...string) []fieldMap {
	out := make([]fieldMap, len(names))
	for i, n := range names {
		out[i] = fieldMap{from: n, to: n}
	}
	return out
}

var (
	topLevelFields = same(
		"timestamp", "sensor_id", "comments", "data_quality",
		"processing_notes", "upload_time", "upload_status",
	)
	locationFields = []fieldMap{
		{"lat", "lat"},
		{"lon", "lon"},
		{"altitude", "altitude"},
		{"location_accuracy_m", "accuracy"},
		{"location", "description"},
	}
	readingFields = same(
		"temperature_k", "humidity", "wind_speed_kph", "wind_direction",
		"pressure_pa", "dew_point_k", "heat_index_k",
	)
	deviceFields = same(
		"sensor_id", "location", "battery_level", "signal_strength",
		"sensor_type", "manufacturer", "model", "firmware_version",
		"calibration_data", "sensor_status", "sensor_location",
		"sensor_calibration", "sensor_accuracy", "sensor_precision",
	)
	anomalyFields = []fieldMap{
		{"anomaly_detected", "detected"},
		{"anomaly_type", "type"},
		{"anomaly_severity", "severity"},
		{"anomaly_timestamp", "timestamp"},
		{"anomaly_resolution", "resolution"},
		{"anomaly_comments", "comments"},
	}
	uploadFields = same(
		"upload_time", "data_quality", "raw_data", "data_source",
		"upload_status", "processing_notes", "quality_flags",
	)
	logFields = same("processing_notes", "raw_data")
)

// copyFields copies mapped fields present in src into dst and reports
// whether any were copied.
func copyFields(dst map[string]any, src CleanedRecord, fields []fieldMap) bool {
	copied := false
	for _, f := range fields {
		if v, ok := src[f.from]; ok {
			dst[f.to] = v
			copied = true
		}
	}
	return copied
}

// Assemble builds the nested candidate record from a cleaned flat record and
// the transport context it arrived with. The result is the input to
// Validator.Validate.
func Assemble(cleaned CleanedRecord, att Attachment) map[string]any {
	candidate := make(map[string]any, 16)
	copyFields(candidate, cleaned, topLevelFields)

	source := att.Source
	if ds, ok := cleaned.String("data_source"); ok {
		source = ds
	}
	if source != "" {
		candidate["source"] = source
	}

	location := map[string]any{}
	copyFields(location, cleaned, locationFields)
	candidate["location"] = location

	readings := map[string]any{}
	copyFields(readings, cleaned, readingFields)
	candidate["readings"] = readings

	device := map[string]any{}
	copyFields(device, cleaned, deviceFields)
	candidate["device_info"] = device

	anomaly := map[string]any{}
	if copyFields(anomaly, cleaned, anomalyFields) {
		candidate["anomaly"] = anomaly
	}

	candidate["upload"] = assembleUpload(cleaned, att)

	logs := map[string]any{}
	if copyFields(logs, cleaned, logFields) {
		candidate["logs"] = logs
	}

	if att.Image != nil {
		candidate["image"] = assembleImage(cleaned, att.Image)
	}
	return candidate
}

func assembleUpload(cleaned CleanedRecord, att Attachment) map[string]any {
	upload := map[string]any{}
	copyFields(upload, cleaned, uploadFields)

	received := att.ReceivedAt
	if received.IsZero() {
		received = clock.Now()
	}
	upload["timestamp"] = received.UTC()

	id := att.UploadID
	if id == "" {
		id = uuid.NewString()
	}
	upload["upload_id"] = id

	if att.Source != "" {
		upload["source"] = att.Source
	}
	if s, ok := cleaned.String("upload_status"); ok {
		upload["status"] = s
	}
	if att.Filename != "" {
		upload["filename"] = att.Filename
	}
	if att.StoredPath != "" {
		upload["stored_path"] = att.StoredPath
	}
	return upload
}

func assembleImage(cleaned CleanedRecord, img *ImagePayload) map[string]any {
	out := map[string]any{"base64_data": img.Base64Data}
	if img.Format != "" {
		out["format"] = img.Format
	}
	if img.Width > 0 && img.Height > 0 {
		out["width"] = img.Width
		out["height"] = img.Height
		out["resolution"] = fmt.Sprintf("%dx%d", img.Width, img.Height)
	}
	if id, ok := cleaned.String("sensor_id"); ok {
		out["device_id"] = id
	}
	if loc, ok := cleaned.String("location"); ok {
		out["location"] = loc
	}
	return out
}

// BuildRecord runs the full flat-payload path: normalize, assemble, validate.
func BuildRecord(v Validator, raw RawPayload, att Attachment) (SensorRecord, CleanedRecord, error) {
	cleaned := Normalize(raw)
	rec, err := v.Validate(Assemble(cleaned, att))
	return rec, cleaned, err
}
