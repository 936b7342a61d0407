package main

import (
	"encoding/json"
	"os"
	"testing"

	"github.com/couchcryptid/weather-station-ingest/internal/domain"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeneratePayloads_MatchesCommittedFixture(t *testing.T) {
	data, err := os.ReadFile("../../data/mock/sensor_payloads.json")
	require.NoError(t, err)
	var committed []map[string]string
	require.NoError(t, json.Unmarshal(data, &committed))

	assert.Equal(t, committed, generatePayloads())
}

func TestBuildRecords_AllPayloadsValidate(t *testing.T) {
	domain.SetClock(clockwork.NewFakeClockAt(receivedAt))
	t.Cleanup(func() { domain.SetClock(nil) })

	records, unparsable, err := buildRecords(generatePayloads())
	require.NoError(t, err)
	require.Len(t, records, len(stations)*readingsPerStation)
	assert.Empty(t, unparsable)

	first := records[0]
	assert.Equal(t, "WS-AUS-001", first.SensorID)
	require.NotNil(t, first.Upload)
	assert.Equal(t, "genmock-00", *first.Upload.UploadID)
	assert.True(t, first.Upload.Timestamp.Equal(receivedAt))
	assert.InDelta(t, 297.15, *first.Readings.TemperatureK, 1e-9)
}
