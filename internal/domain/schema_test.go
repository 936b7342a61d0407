package domain

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validCandidate() map[string]any {
	return map[string]any{
		"timestamp": "2024-05-01T12:30:00Z",
		"sensor_id": "ws-001",
		"location":  map[string]any{"lat": 30.27, "lon": -97.74},
		"readings": map[string]any{
			"temperature_k": 298.15,
			"humidity":      50.0,
		},
		"device_info": map[string]any{"battery_level": 87.0},
	}
}

func requireValidationError(t *testing.T, err error) *ValidationError {
	t.Helper()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr), "expected *ValidationError, got %v", err)
	return verr
}

func TestValidate_MinimalRecord(t *testing.T) {
	rec, err := Validator{}.Validate(validCandidate())
	require.NoError(t, err)

	assert.Equal(t, time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC), rec.Timestamp)
	assert.Equal(t, "ws-001", rec.SensorID)
	assert.Equal(t, 30.27, rec.Location.Lat)
	assert.Equal(t, -97.74, rec.Location.Lon)
	require.NotNil(t, rec.Readings.Humidity)
	assert.Equal(t, 50.0, *rec.Readings.Humidity)
	assert.Nil(t, rec.Readings.PressurePa)
	assert.Nil(t, rec.Image)
	assert.Nil(t, rec.Anomaly)
}

func TestValidate_HumidityRange(t *testing.T) {
	c := validCandidate()
	c["readings"].(map[string]any)["humidity"] = 150.0

	rec, err := Validator{}.Validate(c)

	verr := requireValidationError(t, err)
	assert.Equal(t, []string{"readings.humidity"}, verr.Paths())
	assert.Equal(t, 150.0, verr.Errors[0].Value)
	assert.Empty(t, rec.SensorID, "no partial record on failure")
}

func TestValidate_RangeInvariants(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		mutate func(map[string]any)
	}{
		{"negative kelvin", "readings.temperature_k", func(c map[string]any) {
			c["readings"].(map[string]any)["temperature_k"] = -0.01
		}},
		{"negative pressure", "readings.pressure_pa", func(c map[string]any) {
			c["readings"].(map[string]any)["pressure_pa"] = -1.0
		}},
		{"negative dew point", "readings.dew_point_k", func(c map[string]any) {
			c["readings"].(map[string]any)["dew_point_k"] = -5.0
		}},
		{"negative heat index", "readings.heat_index_k", func(c map[string]any) {
			c["readings"].(map[string]any)["heat_index_k"] = -5.0
		}},
		{"humidity below zero", "readings.humidity", func(c map[string]any) {
			c["readings"].(map[string]any)["humidity"] = -1.0
		}},
		{"wind direction over 360", "readings.wind_direction", func(c map[string]any) {
			c["readings"].(map[string]any)["wind_direction"] = 361.0
		}},
		{"latitude out of range", "location.lat", func(c map[string]any) {
			c["location"].(map[string]any)["lat"] = 91.0
		}},
		{"battery over 100", "device_info.battery_level", func(c map[string]any) {
			c["device_info"].(map[string]any)["battery_level"] = 101.0
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCandidate()
			tt.mutate(c)
			_, err := Validator{}.Validate(c)
			verr := requireValidationError(t, err)
			assert.Equal(t, []string{tt.path}, verr.Paths())
		})
	}
}

func TestValidate_BoundaryValuesAccepted(t *testing.T) {
	c := validCandidate()
	r := c["readings"].(map[string]any)
	r["temperature_k"] = 0.0
	r["humidity"] = 100.0
	r["wind_direction"] = 360.0
	r["pressure_pa"] = 0.0

	_, err := Validator{}.Validate(c)
	assert.NoError(t, err)
}

func TestValidate_RequiredFields(t *testing.T) {
	_, err := Validator{}.Validate(map[string]any{})

	verr := requireValidationError(t, err)
	assert.Equal(t, []string{"timestamp", "sensor_id", "location", "readings", "device_info"}, verr.Paths())
	for _, fe := range verr.Errors {
		assert.Equal(t, "field required", fe.Message)
	}
}

func TestValidate_NilCandidate(t *testing.T) {
	_, err := Validator{}.Validate(nil)
	verr := requireValidationError(t, err)
	assert.Len(t, verr.Errors, 5)
}

func TestValidate_RequiredLatLon(t *testing.T) {
	c := validCandidate()
	c["location"] = map[string]any{"lat": nil}

	_, err := Validator{}.Validate(c)

	verr := requireValidationError(t, err)
	assert.Equal(t, []string{"location.lat", "location.lon"}, verr.Paths())
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	c := validCandidate()
	c["timestamp"] = "yesterday"
	c["readings"].(map[string]any)["humidity"] = 150.0
	c["readings"].(map[string]any)["wind_direction"] = "north"
	c["device_info"] = "not an object"

	_, err := Validator{}.Validate(c)

	verr := requireValidationError(t, err)
	assert.Equal(t, []string{
		"timestamp",
		"readings.humidity",
		"readings.wind_direction",
		"device_info",
	}, verr.Paths())
	assert.Contains(t, verr.Error(), "validation failed with 4 error(s)")
}

func TestValidate_TimestampCoercion(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want time.Time
	}{
		{"RFC3339 Z", "2024-05-01T12:30:00Z", time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)},
		{"offset converted to UTC", "2024-05-01T14:30:00+02:00", time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)},
		{"fractional seconds", "2024-05-01T12:30:00.250Z", time.Date(2024, 5, 1, 12, 30, 0, 250000000, time.UTC)},
		{"naive treated as UTC", "2024-05-01T12:30:00", time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)},
		{"space separator", "2024-05-01 12:30:00", time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)},
		{"compact offset", "2024-05-01T12:30:00+0000", time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)},
		{"date only", "2024-05-01", time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)},
		{"native time", time.Date(2024, 5, 1, 7, 30, 0, 0, time.FixedZone("CDT", -5*3600)), time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)},
		{"native time pointer", timePtr(time.Date(2024, 5, 1, 7, 30, 0, 0, time.FixedZone("CDT", -5*3600))), time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCandidate()
			c["timestamp"] = tt.in
			rec, err := Validator{}.Validate(c)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(rec.Timestamp), "got %s", rec.Timestamp)
			assert.Equal(t, time.UTC, rec.Timestamp.Location())
		})
	}
}

func timePtr(t time.Time) *time.Time { return &t }

func TestValidate_NilTimePointer(t *testing.T) {
	var nilTime *time.Time

	c := validCandidate()
	c["upload_time"] = nilTime
	rec, err := Validator{}.Validate(c)
	require.NoError(t, err)
	assert.Nil(t, rec.UploadTime)

	c = validCandidate()
	c["timestamp"] = nilTime
	_, err = Validator{}.Validate(c)
	verr := requireValidationError(t, err)
	require.Len(t, verr.Errors, 1)
	assert.Equal(t, "timestamp", verr.Errors[0].Path)
	assert.Equal(t, "field required", verr.Errors[0].Message)
}

func TestValidate_MalformedTimestamps(t *testing.T) {
	tests := []struct {
		name string
		key  string
		in   any
		msg  string
	}{
		{"garbage string", "timestamp", "not-a-date", `invalid ISO-8601 datetime "not-a-date"`},
		{"wrong type", "timestamp", 12345, "must be a datetime or ISO-8601 string"},
		{"bad upload time", "upload_time", "13/45/2024", `invalid ISO-8601 datetime "13/45/2024"`},
		{"bad validation upload time", "validation_upload_time", "soon", `invalid ISO-8601 datetime "soon"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCandidate()
			c[tt.key] = tt.in
			_, err := Validator{}.Validate(c)
			verr := requireValidationError(t, err)
			require.Len(t, verr.Errors, 1)
			assert.Equal(t, tt.key, verr.Errors[0].Path)
			assert.Equal(t, tt.msg, verr.Errors[0].Message)
			assert.Equal(t, tt.in, verr.Errors[0].Value)
		})
	}
}

func TestValidate_AnomalyTimestamp(t *testing.T) {
	c := validCandidate()
	c["anomaly"] = map[string]any{"detected": "yes", "timestamp": "nope"}

	_, err := Validator{}.Validate(c)
	verr := requireValidationError(t, err)
	assert.Equal(t, []string{"anomaly.timestamp"}, verr.Paths())

	c["anomaly"] = map[string]any{"detected": "yes", "timestamp": "2024-05-01T12:00:00Z"}
	rec, err := Validator{}.Validate(c)
	require.NoError(t, err)
	require.NotNil(t, rec.Anomaly)
	assert.True(t, *rec.Anomaly.Detected)
	assert.Equal(t, time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC), *rec.Anomaly.Timestamp)
}

func TestValidate_LaxCoercion(t *testing.T) {
	c := validCandidate()
	c["location"] = map[string]any{"lat": "30.5", "lon": json.Number("-97.5")}
	c["data_quality"] = "off"
	c["validation"] = map[string]any{"quality_flags": "spike, gap ,,stale"}
	c["image"] = map[string]any{
		"base64_data": base64.StdEncoding.EncodeToString([]byte("png")),
		"width":       640.0,
		"height":      json.Number("480"),
	}

	rec, err := Validator{}.Validate(c)
	require.NoError(t, err)

	assert.Equal(t, 30.5, rec.Location.Lat)
	assert.Equal(t, -97.5, rec.Location.Lon)
	assert.False(t, *rec.DataQuality)
	assert.Equal(t, []string{"spike", "gap", "stale"}, rec.Validation.QualityFlags)
	assert.Equal(t, 640, *rec.Image.Width)
	assert.Equal(t, 480, *rec.Image.Height)
}

func TestValidate_TypeErrors(t *testing.T) {
	tests := []struct {
		name string
		path string
		set  func(map[string]any)
		msg  string
	}{
		{"sensor id number", "sensor_id", func(c map[string]any) { c["sensor_id"] = 7 }, "must be a string"},
		{"bool as number", "readings.humidity", func(c map[string]any) {
			c["readings"].(map[string]any)["humidity"] = true
		}, "must be a number"},
		{"non finite", "readings.humidity", func(c map[string]any) {
			c["readings"].(map[string]any)["humidity"] = "NaN"
		}, "must be a finite number"},
		{"fractional width", "image.width", func(c map[string]any) {
			c["image"] = map[string]any{"base64_data": "aGk=", "width": 10.5}
		}, "must be an integer"},
		{"unrecognized bool", "data_quality", func(c map[string]any) { c["data_quality"] = "sometimes" }, "must be a boolean"},
		{"flags list with number", "validation.quality_flags.1", func(c map[string]any) {
			c["validation"] = map[string]any{"quality_flags": []any{"ok", 3}}
		}, "must be a string"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCandidate()
			tt.set(c)
			_, err := Validator{}.Validate(c)
			verr := requireValidationError(t, err)
			require.Len(t, verr.Errors, 1)
			assert.Equal(t, tt.path, verr.Errors[0].Path)
			assert.Equal(t, tt.msg, verr.Errors[0].Message)
		})
	}
}

func TestValidate_ImageBase64(t *testing.T) {
	tests := []struct {
		name string
		img  map[string]any
		msg  string
	}{
		{"missing", map[string]any{"format": "png"}, "field required"},
		{"empty", map[string]any{"base64_data": ""}, "must not be empty"},
		{"invalid", map[string]any{"base64_data": "%%%not base64%%%"}, "must be valid base64"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := validCandidate()
			c["image"] = tt.img
			_, err := Validator{}.Validate(c)
			verr := requireValidationError(t, err)
			require.Len(t, verr.Errors, 1)
			assert.Equal(t, "image.base64_data", verr.Errors[0].Path)
			assert.Equal(t, tt.msg, verr.Errors[0].Message)
		})
	}
}

func TestValidate_NilOptionalIsAbsent(t *testing.T) {
	c := validCandidate()
	c["readings"].(map[string]any)["pressure_pa"] = nil
	c["image"] = nil
	c["comments"] = nil

	rec, err := Validator{}.Validate(c)
	require.NoError(t, err)
	assert.Nil(t, rec.Readings.PressurePa)
	assert.Nil(t, rec.Image)
	assert.Nil(t, rec.Comments)
}

func TestValidate_UnknownFields(t *testing.T) {
	c := validCandidate()
	c["colour"] = "blue"
	c["readings"].(map[string]any)["temperature_f"] = 77.0
	c["location"].(map[string]any)["zone"] = "b"
	c["location"].(map[string]any)["area"] = "a"

	t.Run("lenient ignores", func(t *testing.T) {
		_, err := NewValidator(false).Validate(c)
		assert.NoError(t, err)
	})

	t.Run("strict reports", func(t *testing.T) {
		_, err := NewValidator(true).Validate(c)
		verr := requireValidationError(t, err)
		assert.Equal(t, []string{
			"location.area",
			"location.zone",
			"readings.temperature_f",
			"colour",
		}, verr.Paths())
		for _, fe := range verr.Errors {
			assert.Equal(t, "unknown field", fe.Message)
		}
	})
}

func TestValidate_DiagnosticNamespaces(t *testing.T) {
	c := validCandidate()
	c["processing_notes"] = "resampled"
	c["validation_status"] = "valid"
	c["validation_processing_time"] = "0.25"
	c["validation_location"] = map[string]any{"lat": 1.0, "lon": 2.0}
	c["validation"] = map[string]any{"status": "valid", "validator_version": "2"}

	rec, err := Validator{}.Validate(c)
	require.NoError(t, err)

	assert.Equal(t, "resampled", *rec.ProcessingNotes)
	assert.Equal(t, "valid", *rec.ValidationStatus)
	assert.Equal(t, 0.25, *rec.ValidationProcessingTime)
	assert.Equal(t, 1.0, rec.ValidationLocation.Lat)
	assert.Equal(t, "valid", *rec.Validation.Status)
	assert.Nil(t, rec.Status, "namespaces are stored as submitted, not mirrored")
}

func TestValidate_JSONRoundTripShape(t *testing.T) {
	rec, err := Validator{}.Validate(validCandidate())
	require.NoError(t, err)

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	want := map[string]any{
		"timestamp":   "2024-05-01T12:30:00Z",
		"sensor_id":   "ws-001",
		"location":    map[string]any{"lat": 30.27, "lon": -97.74},
		"readings":    map[string]any{"temperature_k": 298.15, "humidity": 50.0},
		"device_info": map[string]any{"battery_level": 87.0},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("serialized record mismatch (-want +got):\n%s", diff)
	}
}

func TestParseTimestamp_Empty(t *testing.T) {
	_, err := ParseTimestamp("  ")
	assert.Error(t, err)
}
