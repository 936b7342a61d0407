package domain

import "time"

// SensorRecord is the canonical, validated weather-station record. Optional
// scalars are pointers so that "absent" survives storage and serialization.
type SensorRecord struct {
	Timestamp  time.Time      `json:"timestamp" bson:"timestamp"`
	SensorID   string         `json:"sensor_id" bson:"sensor_id"`
	Location   GeoLocation    `json:"location" bson:"location"`
	Readings   SensorReading  `json:"readings" bson:"readings"`
	DeviceInfo DeviceMetadata `json:"device_info" bson:"device_info"`

	Image      *ImageInfo      `json:"image,omitempty" bson:"image,omitempty"`
	Anomaly    *AnomalyInfo    `json:"anomaly,omitempty" bson:"anomaly,omitempty"`
	Validation *ValidationInfo `json:"validation,omitempty" bson:"validation,omitempty"`
	Upload     *UploadMetadata `json:"upload,omitempty" bson:"upload,omitempty"`
	Logs       *LogMetadata    `json:"logs,omitempty" bson:"logs,omitempty"`

	Comments        *string    `json:"comments,omitempty" bson:"comments,omitempty"`
	DataQuality     *bool      `json:"data_quality,omitempty" bson:"data_quality,omitempty"`
	ProcessingTime  *float64   `json:"processing_time,omitempty" bson:"processing_time,omitempty"`
	Source          *string    `json:"source,omitempty" bson:"source,omitempty"`
	Status          *string    `json:"status,omitempty" bson:"status,omitempty"`
	UploadStatus    *string    `json:"upload_status,omitempty" bson:"upload_status,omitempty"`
	AdditionalInfo  *string    `json:"additional_info,omitempty" bson:"additional_info,omitempty"`
	ErrorLogs       *string    `json:"error_logs,omitempty" bson:"error_logs,omitempty"`
	Warnings        *string    `json:"warnings,omitempty" bson:"warnings,omitempty"`
	DebugInfo       *string    `json:"debug_info,omitempty" bson:"debug_info,omitempty"`
	ProcessingNotes *string    `json:"processing_notes,omitempty" bson:"processing_notes,omitempty"`
	UploadTime      *time.Time `json:"upload_time,omitempty" bson:"upload_time,omitempty"`

	ValidationStatus         *string         `json:"validation_status,omitempty" bson:"validation_status,omitempty"`
	ValidationNotes          *string         `json:"validation_notes,omitempty" bson:"validation_notes,omitempty"`
	ValidationErrors         *string         `json:"validation_errors,omitempty" bson:"validation_errors,omitempty"`
	ValidationWarnings       *string         `json:"validation_warnings,omitempty" bson:"validation_warnings,omitempty"`
	ValidationDebugInfo      *string         `json:"validation_debug_info,omitempty" bson:"validation_debug_info,omitempty"`
	ValidationProcessingTime *float64        `json:"validation_processing_time,omitempty" bson:"validation_processing_time,omitempty"`
	ValidationUploadTime     *time.Time      `json:"validation_upload_time,omitempty" bson:"validation_upload_time,omitempty"`
	ValidationUploadStatus   *string         `json:"validation_upload_status,omitempty" bson:"validation_upload_status,omitempty"`
	ValidationLocation       *GeoLocation    `json:"validation_location,omitempty" bson:"validation_location,omitempty"`
	ValidationImage          *ImageInfo      `json:"validation_image,omitempty" bson:"validation_image,omitempty"`
	ValidationDeviceInfo     *DeviceMetadata `json:"validation_device_info,omitempty" bson:"validation_device_info,omitempty"`
	ValidationAnomaly        *AnomalyInfo    `json:"validation_anomaly,omitempty" bson:"validation_anomaly,omitempty"`
	ValidationComments       *string         `json:"validation_comments,omitempty" bson:"validation_comments,omitempty"`
	ValidationDataQuality    *bool           `json:"validation_data_quality,omitempty" bson:"validation_data_quality,omitempty"`
	ValidationSource         *string         `json:"validation_source,omitempty" bson:"validation_source,omitempty"`
}

// GeoLocation is where the station sits. Lat and Lon are required.
type GeoLocation struct {
	Lat               float64  `json:"lat" bson:"lat"`
	Lon               float64  `json:"lon" bson:"lon"`
	Description       *string  `json:"description,omitempty" bson:"description,omitempty"`
	Altitude          *float64 `json:"altitude,omitempty" bson:"altitude,omitempty"`
	Accuracy          *float64 `json:"accuracy,omitempty" bson:"accuracy,omitempty"`
	Timestamp         *string  `json:"timestamp,omitempty" bson:"timestamp,omitempty"`
	Source            *string  `json:"source,omitempty" bson:"source,omitempty"`
	DeviceID          *string  `json:"device_id,omitempty" bson:"device_id,omitempty"`
	LocationType      *string  `json:"location_type,omitempty" bson:"location_type,omitempty"`
	AdditionalInfo    *string  `json:"additional_info,omitempty" bson:"additional_info,omitempty"`
	ProcessingNotes   *string  `json:"processing_notes,omitempty" bson:"processing_notes,omitempty"`
	ErrorLogs         *string  `json:"error_logs,omitempty" bson:"error_logs,omitempty"`
	Warnings          *string  `json:"warnings,omitempty" bson:"warnings,omitempty"`
	DebugInfo         *string  `json:"debug_info,omitempty" bson:"debug_info,omitempty"`
	ProcessingTime    *float64 `json:"processing_time,omitempty" bson:"processing_time,omitempty"`
	UploadTime        *string  `json:"upload_time,omitempty" bson:"upload_time,omitempty"`
	UploadStatus      *string  `json:"upload_status,omitempty" bson:"upload_status,omitempty"`
	LocationAccuracy  *string  `json:"location_accuracy,omitempty" bson:"location_accuracy,omitempty"`
	LocationPrecision *string  `json:"location_precision,omitempty" bson:"location_precision,omitempty"`
}

// SensorReading holds the converted measurements, all SI or metric.
type SensorReading struct {
	TemperatureK  *float64 `json:"temperature_k,omitempty" bson:"temperature_k,omitempty"`
	Humidity      *float64 `json:"humidity,omitempty" bson:"humidity,omitempty"`
	WindSpeedKPH  *float64 `json:"wind_speed_kph,omitempty" bson:"wind_speed_kph,omitempty"`
	WindDirection *float64 `json:"wind_direction,omitempty" bson:"wind_direction,omitempty"`
	PressurePa    *float64 `json:"pressure_pa,omitempty" bson:"pressure_pa,omitempty"`
	DewPointK     *float64 `json:"dew_point_k,omitempty" bson:"dew_point_k,omitempty"`
	HeatIndexK    *float64 `json:"heat_index_k,omitempty" bson:"heat_index_k,omitempty"`
	RainMM        *float64 `json:"rain_mm,omitempty" bson:"rain_mm,omitempty"`
	LightLux      *float64 `json:"light_lux,omitempty" bson:"light_lux,omitempty"`
	UVIndex       *float64 `json:"uv_index,omitempty" bson:"uv_index,omitempty"`
}

// DeviceMetadata describes the reporting hardware.
type DeviceMetadata struct {
	SensorID          *string  `json:"sensor_id,omitempty" bson:"sensor_id,omitempty"`
	Location          *string  `json:"location,omitempty" bson:"location,omitempty"`
	BatteryLevel      *float64 `json:"battery_level,omitempty" bson:"battery_level,omitempty"`
	SignalStrength    *float64 `json:"signal_strength,omitempty" bson:"signal_strength,omitempty"`
	SensorType        *string  `json:"sensor_type,omitempty" bson:"sensor_type,omitempty"`
	Manufacturer      *string  `json:"manufacturer,omitempty" bson:"manufacturer,omitempty"`
	Model             *string  `json:"model,omitempty" bson:"model,omitempty"`
	FirmwareVersion   *string  `json:"firmware_version,omitempty" bson:"firmware_version,omitempty"`
	CalibrationData   *string  `json:"calibration_data,omitempty" bson:"calibration_data,omitempty"`
	SensorStatus      *string  `json:"sensor_status,omitempty" bson:"sensor_status,omitempty"`
	SensorLocation    *string  `json:"sensor_location,omitempty" bson:"sensor_location,omitempty"`
	SensorCalibration *string  `json:"sensor_calibration,omitempty" bson:"sensor_calibration,omitempty"`
	SensorAccuracy    *string  `json:"sensor_accuracy,omitempty" bson:"sensor_accuracy,omitempty"`
	SensorPrecision   *string  `json:"sensor_precision,omitempty" bson:"sensor_precision,omitempty"`
}

// ImageInfo is an image captured by the station. Base64Data is required.
type ImageInfo struct {
	Base64Data      string   `json:"base64_data" bson:"base64_data"`
	Width           *int     `json:"width,omitempty" bson:"width,omitempty"`
	Height          *int     `json:"height,omitempty" bson:"height,omitempty"`
	Resolution      *string  `json:"resolution,omitempty" bson:"resolution,omitempty"`
	Format          *string  `json:"format,omitempty" bson:"format,omitempty"`
	Timestamp       *string  `json:"timestamp,omitempty" bson:"timestamp,omitempty"`
	Description     *string  `json:"description,omitempty" bson:"description,omitempty"`
	CameraModel     *string  `json:"camera_model,omitempty" bson:"camera_model,omitempty"`
	Location        *string  `json:"location,omitempty" bson:"location,omitempty"`
	DeviceID        *string  `json:"device_id,omitempty" bson:"device_id,omitempty"`
	UploadTime      *string  `json:"upload_time,omitempty" bson:"upload_time,omitempty"`
	UploadStatus    *string  `json:"upload_status,omitempty" bson:"upload_status,omitempty"`
	ProcessingNotes *string  `json:"processing_notes,omitempty" bson:"processing_notes,omitempty"`
	ErrorLogs       *string  `json:"error_logs,omitempty" bson:"error_logs,omitempty"`
	Warnings        *string  `json:"warnings,omitempty" bson:"warnings,omitempty"`
	DebugInfo       *string  `json:"debug_info,omitempty" bson:"debug_info,omitempty"`
	ProcessingTime  *float64 `json:"processing_time,omitempty" bson:"processing_time,omitempty"`
}

// AnomalyInfo is an anomaly reported by the device. Detection happens upstream.
type AnomalyInfo struct {
	Detected   *bool      `json:"detected,omitempty" bson:"detected,omitempty"`
	Type       *string    `json:"type,omitempty" bson:"type,omitempty"`
	Severity   *string    `json:"severity,omitempty" bson:"severity,omitempty"`
	Timestamp  *time.Time `json:"timestamp,omitempty" bson:"timestamp,omitempty"`
	Resolution *string    `json:"resolution,omitempty" bson:"resolution,omitempty"`
	Comments   *string    `json:"comments,omitempty" bson:"comments,omitempty"`
}

type ValidationInfo struct {
	Status           *string    `json:"status,omitempty" bson:"status,omitempty"`
	Notes            *string    `json:"notes,omitempty" bson:"notes,omitempty"`
	Errors           *string    `json:"errors,omitempty" bson:"errors,omitempty"`
	Warnings         *string    `json:"warnings,omitempty" bson:"warnings,omitempty"`
	DebugInfo        *string    `json:"debug_info,omitempty" bson:"debug_info,omitempty"`
	ProcessingTime   *float64   `json:"processing_time,omitempty" bson:"processing_time,omitempty"`
	UploadTime       *time.Time `json:"upload_time,omitempty" bson:"upload_time,omitempty"`
	UploadStatus     *string    `json:"upload_status,omitempty" bson:"upload_status,omitempty"`
	Comments         *string    `json:"comments,omitempty" bson:"comments,omitempty"`
	DataQuality      *bool      `json:"data_quality,omitempty" bson:"data_quality,omitempty"`
	Source           *string    `json:"source,omitempty" bson:"source,omitempty"`
	QualityFlags     []string   `json:"quality_flags,omitempty" bson:"quality_flags,omitempty"`
	ValidatorVersion *string    `json:"validator_version,omitempty" bson:"validator_version,omitempty"`
}

// UploadMetadata records how the submission reached the service.
type UploadMetadata struct {
	Timestamp       *time.Time `json:"timestamp,omitempty" bson:"timestamp,omitempty"`
	UploadTime      *time.Time `json:"upload_time,omitempty" bson:"upload_time,omitempty"`
	Status          *string    `json:"status,omitempty" bson:"status,omitempty"`
	Source          *string    `json:"source,omitempty" bson:"source,omitempty"`
	DataQuality     *bool      `json:"data_quality,omitempty" bson:"data_quality,omitempty"`
	Comments        *string    `json:"comments,omitempty" bson:"comments,omitempty"`
	RawData         *string    `json:"raw_data,omitempty" bson:"raw_data,omitempty"`
	DataSource      *string    `json:"data_source,omitempty" bson:"data_source,omitempty"`
	UploadStatus    *string    `json:"upload_status,omitempty" bson:"upload_status,omitempty"`
	ProcessingNotes *string    `json:"processing_notes,omitempty" bson:"processing_notes,omitempty"`
	QualityFlags    *string    `json:"quality_flags,omitempty" bson:"quality_flags,omitempty"`
	ErrorLogs       *string    `json:"error_logs,omitempty" bson:"error_logs,omitempty"`
	Warnings        *string    `json:"warnings,omitempty" bson:"warnings,omitempty"`
	DebugInfo       *string    `json:"debug_info,omitempty" bson:"debug_info,omitempty"`
	ProcessingTime  *float64   `json:"processing_time,omitempty" bson:"processing_time,omitempty"`
	UploadID        *string    `json:"upload_id,omitempty" bson:"upload_id,omitempty"`
	Filename        *string    `json:"filename,omitempty" bson:"filename,omitempty"`
	StoredPath      *string    `json:"stored_path,omitempty" bson:"stored_path,omitempty"`
}

type LogMetadata struct {
	ProcessingNotes *string  `json:"processing_notes,omitempty" bson:"processing_notes,omitempty"`
	RawData         *string  `json:"raw_data,omitempty" bson:"raw_data,omitempty"`
	ErrorLogs       *string  `json:"error_logs,omitempty" bson:"error_logs,omitempty"`
	Warnings        *string  `json:"warnings,omitempty" bson:"warnings,omitempty"`
	DebugInfo       *string  `json:"debug_info,omitempty" bson:"debug_info,omitempty"`
	ProcessingTime  *float64 `json:"processing_time,omitempty" bson:"processing_time,omitempty"`
}
