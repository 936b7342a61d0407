// Package domain models weather-station telemetry and the rules that turn a
// raw device payload into a canonical sensor record.
//
// # Data Source
//
// Edge devices (ESP32-class weather stations) submit readings either as
// multipart form uploads alongside a camera image, as flat JSON over HTTP, or
// as flat JSON published to a Kafka topic or MQTT broker. All transports
// deliver the same loosely typed payload: a flat map of field name to string,
// number, or boolean-like string. Any subset of fields may be present.
//
// # Normalization
//
// Each recognized raw field is described by one [FieldRule] in a fixed
// registry. Rules are tagged by [ConversionKind]:
//
//	LinearScale   clean = raw*Scale + Offset
//	              temperature_c  -> temperature_k   (x1, +273.15)
//	              wind_speed_mps -> wind_speed_kph  (x3.6)
//	              pressure_hpa   -> pressure_pa     (x100)
//	NumericCast   humidity, wind_direction, battery_level, ... as float64
//	BooleanToken  true iff the trimmed lowercase value is one of
//	              "true", "yes", "1", "good", "valid"
//	TrimString    surrounding whitespace removed; empty becomes missing
//
// Normalization is per field. A raw field that is absent produces no clean
// key at all. A raw field that is present but cannot be converted produces a
// clean key holding nil. Consumers rely on the difference for provenance.
//
// # Canonical Record
//
// [Assemble] nests the cleaned fields into the candidate shape and
// [Validator.Validate] coerces it into a [SensorRecord]. Validation is
// all-or-nothing and reports every failing field at once, addressed by dotted
// path (e.g. "readings.humidity").
//
// Physical bounds enforced on readings:
//
//	temperature_k, dew_point_k, heat_index_k  >= 0 K
//	pressure_pa                               >= 0 Pa
//	humidity                                  0..100 %
//	wind_direction                            0..360 degrees
//
// Timestamps accept native time values or ISO-8601 strings. Naive strings
// (no zone designator) are taken as UTC.
//
// # Diagnostic Fields
//
// The stored document layout carries processing diagnostics both at the top
// level and under a "validation_" prefix, plus a nested "validation" object.
// All three are stored exactly as submitted; none is derived from another.
package domain
