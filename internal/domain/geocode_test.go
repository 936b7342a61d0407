package domain

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockGeocoder struct {
	result GeocodingResult
	err    error
	calls  int
}

func (m *mockGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (GeocodingResult, error) {
	m.calls++
	return m.result, m.err
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func strPtr(s string) *string { return &s }

func TestEnrichWithGeocoding_NilGeocoder(t *testing.T) {
	rec := SensorRecord{SensorID: "ws-1", Location: GeoLocation{Lat: 30.27, Lon: -97.74}}

	got, outcome := EnrichWithGeocoding(context.Background(), rec, nil, discardLogger())

	assert.Equal(t, GeoSkipped, outcome)
	assert.Nil(t, got.Location.Description)
}

func TestEnrichWithGeocoding_FillsMissingDescription(t *testing.T) {
	geo := &mockGeocoder{result: GeocodingResult{
		FormattedAddress: "Austin, Texas, United States",
		PlaceName:        "Austin",
		Confidence:       0.9,
	}}
	rec := SensorRecord{SensorID: "ws-1", Location: GeoLocation{Lat: 30.27, Lon: -97.74}}

	got, outcome := EnrichWithGeocoding(context.Background(), rec, geo, discardLogger())

	assert.Equal(t, GeoReverse, outcome)
	require.NotNil(t, got.Location.Description)
	assert.Equal(t, "Austin, Texas, United States", *got.Location.Description)
	require.NotNil(t, got.Location.AdditionalInfo)
	assert.Equal(t, "Austin", *got.Location.AdditionalInfo)
	assert.Equal(t, 1, geo.calls)
	assert.Nil(t, rec.Location.Description, "input record must not be mutated")
}

func TestEnrichWithGeocoding_KeepsExistingDescription(t *testing.T) {
	geo := &mockGeocoder{}
	rec := SensorRecord{Location: GeoLocation{Lat: 1, Lon: 2, Description: strPtr("Roof mast")}}

	got, outcome := EnrichWithGeocoding(context.Background(), rec, geo, discardLogger())

	assert.Equal(t, GeoSkipped, outcome)
	assert.Equal(t, "Roof mast", *got.Location.Description)
	assert.Zero(t, geo.calls)
}

func TestEnrichWithGeocoding_ZeroCoordinates(t *testing.T) {
	geo := &mockGeocoder{}

	_, outcome := EnrichWithGeocoding(context.Background(), SensorRecord{}, geo, discardLogger())

	assert.Equal(t, GeoSkipped, outcome)
	assert.Zero(t, geo.calls)
}

func TestEnrichWithGeocoding_Failure(t *testing.T) {
	geo := &mockGeocoder{err: errors.New("timeout")}
	rec := SensorRecord{SensorID: "ws-1", Location: GeoLocation{Lat: 30.27, Lon: -97.74}}

	got, outcome := EnrichWithGeocoding(context.Background(), rec, geo, discardLogger())

	assert.Equal(t, GeoFailed, outcome)
	assert.Nil(t, got.Location.Description)
}

func TestEnrichWithGeocoding_EmptyResult(t *testing.T) {
	geo := &mockGeocoder{}
	rec := SensorRecord{Location: GeoLocation{Lat: 30.27, Lon: -97.74}}

	got, outcome := EnrichWithGeocoding(context.Background(), rec, geo, discardLogger())

	assert.Equal(t, GeoNoResult, outcome)
	assert.Nil(t, got.Location.Description)
}
