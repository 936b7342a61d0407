package domain

import (
	"fmt"
	"strings"
)

// FieldError is a single validation failure at a dotted path such as
// "readings.humidity".
type FieldError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
	Value   any    `json:"value,omitempty"`
}

func (e FieldError) Error() string {
	return e.Path + ": " + e.Message
}

// ValidationError aggregates every field error found in one candidate.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Error()
	}
	return fmt.Sprintf("validation failed with %d error(s): %s", len(e.Errors), strings.Join(parts, "; "))
}

// Paths returns the paths of all failing fields in report order.
func (e *ValidationError) Paths() []string {
	out := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		out[i] = fe.Path
	}
	return out
}

// Validator checks a nested candidate record against the canonical schema.
// In strict mode unknown fields are reported as errors; otherwise they are
// dropped.
type Validator struct {
	Strict bool
}

// NewValidator creates a validator.
func NewValidator(strict bool) Validator {
	return Validator{Strict: strict}
}

// Validate coerces candidate into a SensorRecord. Either the full record is
// returned with a nil error, or the zero record with a *ValidationError
// listing every failing field.
func (v Validator) Validate(candidate map[string]any) (SensorRecord, error) {
	d := &decoder{strict: v.Strict}
	rec := decodeSensorRecord(d.root(candidate))
	if len(d.errs) > 0 {
		return SensorRecord{}, &ValidationError{Errors: d.errs}
	}
	return rec, nil
}

var (
	nonNegative = atLeast(0)
	percent     = between(0, 100)
	compass     = between(0, 360)
	latitude    = between(-90, 90)
	longitude   = between(-180, 180)
)

func decodeSensorRecord(o *object) SensorRecord {
	rec := SensorRecord{
		Timestamp: o.requiredTime("timestamp"),
		SensorID:  o.requiredString("sensor_id"),
	}
	if loc := o.requiredObject("location"); loc != nil {
		rec.Location = decodeGeoLocation(loc)
	}
	if r := o.requiredObject("readings"); r != nil {
		rec.Readings = decodeSensorReading(r)
	}
	if dev := o.requiredObject("device_info"); dev != nil {
		rec.DeviceInfo = decodeDeviceMetadata(dev)
	}
	if img := o.optionalObject("image"); img != nil {
		v := decodeImageInfo(img)
		rec.Image = &v
	}
	if an := o.optionalObject("anomaly"); an != nil {
		v := decodeAnomalyInfo(an)
		rec.Anomaly = &v
	}
	if val := o.optionalObject("validation"); val != nil {
		v := decodeValidationInfo(val)
		rec.Validation = &v
	}
	if up := o.optionalObject("upload"); up != nil {
		v := decodeUploadMetadata(up)
		rec.Upload = &v
	}
	if lg := o.optionalObject("logs"); lg != nil {
		v := decodeLogMetadata(lg)
		rec.Logs = &v
	}

	rec.Comments = o.optionalString("comments")
	rec.DataQuality = o.optionalBool("data_quality")
	rec.ProcessingTime = o.optionalFloat("processing_time", nonNegative)
	rec.Source = o.optionalString("source")
	rec.Status = o.optionalString("status")
	rec.UploadStatus = o.optionalString("upload_status")
	rec.AdditionalInfo = o.optionalString("additional_info")
	rec.ErrorLogs = o.optionalString("error_logs")
	rec.Warnings = o.optionalString("warnings")
	rec.DebugInfo = o.optionalString("debug_info")
	rec.ProcessingNotes = o.optionalString("processing_notes")
	rec.UploadTime = o.optionalTime("upload_time")

	rec.ValidationStatus = o.optionalString("validation_status")
	rec.ValidationNotes = o.optionalString("validation_notes")
	rec.ValidationErrors = o.optionalString("validation_errors")
	rec.ValidationWarnings = o.optionalString("validation_warnings")
	rec.ValidationDebugInfo = o.optionalString("validation_debug_info")
	rec.ValidationProcessingTime = o.optionalFloat("validation_processing_time", nonNegative)
	rec.ValidationUploadTime = o.optionalTime("validation_upload_time")
	rec.ValidationUploadStatus = o.optionalString("validation_upload_status")
	if loc := o.optionalObject("validation_location"); loc != nil {
		v := decodeGeoLocation(loc)
		rec.ValidationLocation = &v
	}
	if img := o.optionalObject("validation_image"); img != nil {
		v := decodeImageInfo(img)
		rec.ValidationImage = &v
	}
	if dev := o.optionalObject("validation_device_info"); dev != nil {
		v := decodeDeviceMetadata(dev)
		rec.ValidationDeviceInfo = &v
	}
	if an := o.optionalObject("validation_anomaly"); an != nil {
		v := decodeAnomalyInfo(an)
		rec.ValidationAnomaly = &v
	}
	rec.ValidationComments = o.optionalString("validation_comments")
	rec.ValidationDataQuality = o.optionalBool("validation_data_quality")
	rec.ValidationSource = o.optionalString("validation_source")

	o.finish()
	return rec
}

func decodeGeoLocation(o *object) GeoLocation {
	loc := GeoLocation{
		Lat:               o.requiredFloat("lat", latitude),
		Lon:               o.requiredFloat("lon", longitude),
		Description:       o.optionalString("description"),
		Altitude:          o.optionalFloat("altitude", nil),
		Accuracy:          o.optionalFloat("accuracy", nonNegative),
		Timestamp:         o.optionalString("timestamp"),
		Source:            o.optionalString("source"),
		DeviceID:          o.optionalString("device_id"),
		LocationType:      o.optionalString("location_type"),
		AdditionalInfo:    o.optionalString("additional_info"),
		ProcessingNotes:   o.optionalString("processing_notes"),
		ErrorLogs:         o.optionalString("error_logs"),
		Warnings:          o.optionalString("warnings"),
		DebugInfo:         o.optionalString("debug_info"),
		ProcessingTime:    o.optionalFloat("processing_time", nonNegative),
		UploadTime:        o.optionalString("upload_time"),
		UploadStatus:      o.optionalString("upload_status"),
		LocationAccuracy:  o.optionalString("location_accuracy"),
		LocationPrecision: o.optionalString("location_precision"),
	}
	o.finish()
	return loc
}

func decodeSensorReading(o *object) SensorReading {
	r := SensorReading{
		TemperatureK:  o.optionalFloat("temperature_k", nonNegative),
		Humidity:      o.optionalFloat("humidity", percent),
		WindSpeedKPH:  o.optionalFloat("wind_speed_kph", nonNegative),
		WindDirection: o.optionalFloat("wind_direction", compass),
		PressurePa:    o.optionalFloat("pressure_pa", nonNegative),
		DewPointK:     o.optionalFloat("dew_point_k", nonNegative),
		HeatIndexK:    o.optionalFloat("heat_index_k", nonNegative),
		RainMM:        o.optionalFloat("rain_mm", nonNegative),
		LightLux:      o.optionalFloat("light_lux", nonNegative),
		UVIndex:       o.optionalFloat("uv_index", nonNegative),
	}
	o.finish()
	return r
}

func decodeDeviceMetadata(o *object) DeviceMetadata {
	dev := DeviceMetadata{
		SensorID:          o.optionalString("sensor_id"),
		Location:          o.optionalString("location"),
		BatteryLevel:      o.optionalFloat("battery_level", percent),
		SignalStrength:    o.optionalFloat("signal_strength", nil),
		SensorType:        o.optionalString("sensor_type"),
		Manufacturer:      o.optionalString("manufacturer"),
		Model:             o.optionalString("model"),
		FirmwareVersion:   o.optionalString("firmware_version"),
		CalibrationData:   o.optionalString("calibration_data"),
		SensorStatus:      o.optionalString("sensor_status"),
		SensorLocation:    o.optionalString("sensor_location"),
		SensorCalibration: o.optionalString("sensor_calibration"),
		SensorAccuracy:    o.optionalString("sensor_accuracy"),
		SensorPrecision:   o.optionalString("sensor_precision"),
	}
	o.finish()
	return dev
}

func decodeImageInfo(o *object) ImageInfo {
	img := ImageInfo{
		Base64Data:      o.requiredBase64("base64_data"),
		Width:           o.optionalInt("width", 0),
		Height:          o.optionalInt("height", 0),
		Resolution:      o.optionalString("resolution"),
		Format:          o.optionalString("format"),
		Timestamp:       o.optionalString("timestamp"),
		Description:     o.optionalString("description"),
		CameraModel:     o.optionalString("camera_model"),
		Location:        o.optionalString("location"),
		DeviceID:        o.optionalString("device_id"),
		UploadTime:      o.optionalString("upload_time"),
		UploadStatus:    o.optionalString("upload_status"),
		ProcessingNotes: o.optionalString("processing_notes"),
		ErrorLogs:       o.optionalString("error_logs"),
		Warnings:        o.optionalString("warnings"),
		DebugInfo:       o.optionalString("debug_info"),
		ProcessingTime:  o.optionalFloat("processing_time", nonNegative),
	}
	o.finish()
	return img
}

func decodeAnomalyInfo(o *object) AnomalyInfo {
	an := AnomalyInfo{
		Detected:   o.optionalBool("detected"),
		Type:       o.optionalString("type"),
		Severity:   o.optionalString("severity"),
		Timestamp:  o.optionalTime("timestamp"),
		Resolution: o.optionalString("resolution"),
		Comments:   o.optionalString("comments"),
	}
	o.finish()
	return an
}

func decodeValidationInfo(o *object) ValidationInfo {
	v := ValidationInfo{
		Status:           o.optionalString("status"),
		Notes:            o.optionalString("notes"),
		Errors:           o.optionalString("errors"),
		Warnings:         o.optionalString("warnings"),
		DebugInfo:        o.optionalString("debug_info"),
		ProcessingTime:   o.optionalFloat("processing_time", nonNegative),
		UploadTime:       o.optionalTime("upload_time"),
		UploadStatus:     o.optionalString("upload_status"),
		Comments:         o.optionalString("comments"),
		DataQuality:      o.optionalBool("data_quality"),
		Source:           o.optionalString("source"),
		QualityFlags:     o.optionalStringList("quality_flags"),
		ValidatorVersion: o.optionalString("validator_version"),
	}
	o.finish()
	return v
}

func decodeUploadMetadata(o *object) UploadMetadata {
	up := UploadMetadata{
		Timestamp:       o.optionalTime("timestamp"),
		UploadTime:      o.optionalTime("upload_time"),
		Status:          o.optionalString("status"),
		Source:          o.optionalString("source"),
		DataQuality:     o.optionalBool("data_quality"),
		Comments:        o.optionalString("comments"),
		RawData:         o.optionalString("raw_data"),
		DataSource:      o.optionalString("data_source"),
		UploadStatus:    o.optionalString("upload_status"),
		ProcessingNotes: o.optionalString("processing_notes"),
		QualityFlags:    o.optionalString("quality_flags"),
		ErrorLogs:       o.optionalString("error_logs"),
		Warnings:        o.optionalString("warnings"),
		DebugInfo:       o.optionalString("debug_info"),
		ProcessingTime:  o.optionalFloat("processing_time", nonNegative),
		UploadID:        o.optionalString("upload_id"),
		Filename:        o.optionalString("filename"),
		StoredPath:      o.optionalString("stored_path"),
	}
	o.finish()
	return up
}

func decodeLogMetadata(o *object) LogMetadata {
	lg := LogMetadata{
		ProcessingNotes: o.optionalString("processing_notes"),
		RawData:         o.optionalString("raw_data"),
		ErrorLogs:       o.optionalString("error_logs"),
		Warnings:        o.optionalString("warnings"),
		DebugInfo:       o.optionalString("debug_info"),
		ProcessingTime:  o.optionalFloat("processing_time", nonNegative),
	}
	o.finish()
	return lg
}
