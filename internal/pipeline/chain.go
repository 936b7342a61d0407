package pipeline

import (
	"context"

	"github.com/couchcryptid/weather-station-ingest/internal/domain"
)

// Chain is a BatchLoader that runs each loader in order and stops at the
// first error. Used to store records and then publish them downstream.
type Chain []BatchLoader

func (c Chain) LoadBatch(ctx context.Context, records []domain.SensorRecord) error {
	for _, l := range c {
		if err := l.LoadBatch(ctx, records); err != nil {
			return err
		}
	}
	return nil
}
