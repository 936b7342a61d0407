package domain

import (
	"context"
	"log/slog"
)

// Geocode outcomes reported by EnrichWithGeocoding.
const (
	GeoSkipped  = "skipped"
	GeoReverse  = "reverse"
	GeoFailed   = "failed"
	GeoNoResult = "no_result"
)

// EnrichWithGeocoding fills a missing location description from the record's
// coordinates. The record is returned unchanged when geocoder is nil, the
// description is already set, or the lookup fails (graceful degradation).
func EnrichWithGeocoding(ctx context.Context, rec SensorRecord, geocoder Geocoder, logger *slog.Logger) (SensorRecord, string) {
	if geocoder == nil {
		return rec, GeoSkipped
	}
	if rec.Location.Description != nil && *rec.Location.Description != "" {
		return rec, GeoSkipped
	}
	if rec.Location.Lat == 0 && rec.Location.Lon == 0 {
		return rec, GeoSkipped
	}

	result, err := geocoder.ReverseGeocode(ctx, rec.Location.Lat, rec.Location.Lon)
	if err != nil {
		logger.Warn("reverse geocoding failed",
			"sensor_id", rec.SensorID,
			"lat", rec.Location.Lat,
			"lon", rec.Location.Lon,
			"error", err,
		)
		return rec, GeoFailed
	}
	if result.FormattedAddress == "" {
		return rec, GeoNoResult
	}

	desc := result.FormattedAddress
	rec.Location.Description = &desc
	if rec.Location.AdditionalInfo == nil && result.PlaceName != "" {
		place := result.PlaceName
		rec.Location.AdditionalInfo = &place
	}
	return rec, GeoReverse
}
