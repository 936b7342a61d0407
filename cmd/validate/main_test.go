package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/weather-station-ingest/internal/domain"
	"github.com/stretchr/testify/assert"
)

func writeInput(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "input.json")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRun(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		strict bool
		want   int
	}{
		{
			name: "flat payload",
			body: `[{"sensor_id":"ws-1","timestamp":"2024-05-01T12:00:00Z","lat":"30.2","lon":"-97.7","temperature_c":"21.5"}]`,
			want: 0,
		},
		{
			name: "nested record",
			body: `[{"sensor_id":"ws-1","timestamp":"2024-05-01T12:00:00Z","location":{"lat":1,"lon":2},"readings":{},"device_info":{}}]`,
			want: 0,
		},
		{
			name:   "unknown nested field in strict mode",
			body:   `[{"sensor_id":"ws-1","timestamp":"2024-05-01T12:00:00Z","location":{"lat":1,"lon":2,"elevation":3},"readings":{},"device_info":{}}]`,
			strict: true,
			want:   1,
		},
		{
			name: "unregistered flat field ignored when lenient",
			body: `[{"sensor_id":"ws-1","timestamp":"2024-05-01T12:00:00Z","lat":"30.2","lon":"-97.7","temperature_f":"70"}]`,
			want: 0,
		},
		{
			name:   "unregistered flat field in strict mode",
			body:   `[{"sensor_id":"ws-1","timestamp":"2024-05-01T12:00:00Z","lat":"30.2","lon":"-97.7","temperature_f":"70"}]`,
			strict: true,
			want:   1,
		},
		{
			name: "unparsable reading",
			body: `[{"sensor_id":"ws-1","timestamp":"2024-05-01T12:00:00Z","lat":"30.2","lon":"-97.7","temperature_c":"warm"}]`,
			want: 1,
		},
		{
			name: "missing coordinates",
			body: `[{"sensor_id":"ws-1","timestamp":"2024-05-01T12:00:00Z"}]`,
			want: 1,
		},
		{
			name: "duplicate reading",
			body: `[{"sensor_id":"ws-1","timestamp":"2024-05-01T12:00:00Z","lat":"1","lon":"2"},{"sensor_id":"ws-1","timestamp":"2024-05-01T12:00:00Z","lat":"1","lon":"2"}]`,
			want: 1,
		},
		{
			name: "not an array",
			body: `{"sensor_id":"ws-1"}`,
			want: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, run(writeInput(t, tt.body), tt.strict))
		})
	}
}

func TestUnregisteredFields(t *testing.T) {
	got := unregisteredFields(domain.RawPayload{
		"sensor_id":     "ws-1",
		"temperature_f": "70",
		"camera_model":  "ESP32-CAM",
		"humidity":      "40",
	})
	assert.Equal(t, []string{"camera_model", "temperature_f"}, got)
	assert.Empty(t, unregisteredFields(domain.RawPayload{"lat": "1"}))
}

func TestRun_CommittedFixturePasses(t *testing.T) {
	assert.Equal(t, 0, run("../../data/mock/sensor_payloads.json", true))
}
