package identifier

import (
	"context"
	"fmt"
)

// Sequencer computes the next serial for a bucket from the latest
// issued identifier.
type Sequencer struct {
	store Store
}

func NewSequencer(store Store) *Sequencer {
	return &Sequencer{store: store}
}

// Next returns the next serial for the bucket. An empty bucket yields
// 1. A store failure propagates; it is never treated as an empty
// bucket, so an outage cannot restart a sequence. Reaching MaxSerial
// returns ErrSequenceExhausted.
func (s *Sequencer) Next(ctx context.Context, b Bucket) (int, error) {
	latest, found, err := s.store.FindLatestInBucket(ctx, b.Prefix())
	if err != nil {
		return 0, fmt.Errorf("latest identifier in bucket %s: %w", b, err)
	}
	last := 0
	if found {
		last, err = serialSegment(latest)
		if err != nil {
			return 0, err
		}
	}
	if last >= MaxSerial {
		return 0, fmt.Errorf("bucket %s: %w", b, ErrSequenceExhausted)
	}
	return last + 1, nil
}
