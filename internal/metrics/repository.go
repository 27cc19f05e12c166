package metrics

import (
	"sync"
	"time"

	"codeberg.org/mutker/diskgauge/internal/errors"
	"codeberg.org/mutker/diskgauge/internal/logger"
)

// repository holds the last Window samples in a ring buffer plus running
// totals. Nothing is written to disk.
type repository struct {
	logger logger.Logger
	cfg    Config
	mu     sync.Mutex
	closed bool

	buffer []PollSample
	next   int
	filled bool

	polls               uint64
	failures            uint64
	consecutiveFailures uint64
	lastSuccess         time.Time
	lastFailure         time.Time
}

func NewRepository(cfg Config, log logger.Logger) (Repository, error) {
	errFactory := errors.New()

	if cfg.Window <= 0 {
		return nil, errFactory.WithData(ErrInvalidWindow, cfg.Window)
	}

	log.Debug().
		Int("window", cfg.Window).
		Msg("Metrics repository initialized")

	return &repository{
		logger: log,
		cfg:    cfg,
		buffer: make([]PollSample, cfg.Window),
	}, nil
}

func (r *repository) Record(sample *PollSample) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return errors.New().New(ErrClosed)
	}

	r.buffer[r.next] = *sample
	r.next = (r.next + 1) % len(r.buffer)
	if r.next == 0 {
		r.filled = true
	}

	r.polls++
	if sample.Succeeded() {
		r.consecutiveFailures = 0
		r.lastSuccess = sample.Timestamp
	} else {
		r.failures++
		r.consecutiveFailures++
		r.lastFailure = sample.Timestamp
	}

	return nil
}

func (r *repository) Stats() Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	stats := Stats{
		Polls:               r.polls,
		Failures:            r.failures,
		ConsecutiveFailures: r.consecutiveFailures,
		LastSuccess:         r.lastSuccess,
		LastFailure:         r.lastFailure,
	}

	n := r.next
	if r.filled {
		n = len(r.buffer)
	}
	if n == 0 {
		return stats
	}

	last := (r.next - 1 + len(r.buffer)) % len(r.buffer)
	stats.LastDuration = r.buffer[last].Duration

	var total time.Duration
	for i := 0; i < n; i++ {
		total += r.buffer[i].Duration
	}
	stats.AverageDuration = total / time.Duration(n)

	return stats
}

func (r *repository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	r.logger.Debug().
		Uint64("polls", r.polls).
		Uint64("failures", r.failures).
		Msg("Metrics repository closed")

	return nil
}
