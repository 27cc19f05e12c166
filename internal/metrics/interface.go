package metrics

import (
	"context"
	"time"
)

// Collector records the outcome of every poll.
type Collector interface {
	Record(ctx context.Context, sample *PollSample) error
	Stats() Stats
	Close() error
}

// Repository keeps recent samples and running totals.
type Repository interface {
	Record(sample *PollSample) error
	Stats() Stats
	Close() error
}

// PollSample describes one poll.
type PollSample struct {
	Timestamp time.Time
	Duration  time.Duration
	Readings  int
	Err       error
}

// Succeeded reports whether the poll returned readings.
func (p *PollSample) Succeeded() bool {
	return p.Err == nil
}

// Stats summarizes the polls seen so far.
type Stats struct {
	Polls               uint64
	Failures            uint64
	ConsecutiveFailures uint64
	LastDuration        time.Duration
	AverageDuration     time.Duration
	LastSuccess         time.Time
	LastFailure         time.Time
}
