package domain

import (
	"errors"
	"strings"
	"time"
)

// timestampLayouts are the ISO-8601 forms accepted for timestamps, tried in
// order. Fractional seconds are accepted after the seconds field by the
// parser even when a layout omits them.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05Z0700",
	"2006-01-02T15:04Z07:00",
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

var errEmptyTimestamp = errors.New("empty timestamp")

// ParseTimestamp parses an ISO-8601 date or date-time. Values without a zone
// offset are taken as UTC. The result is always in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errEmptyTimestamp
	}
	var firstErr error
	for _, layout := range timestampLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t.UTC(), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}
