package metrics

import (
	"context"

	"codeberg.org/mutker/diskgauge/internal/errors"
	"codeberg.org/mutker/diskgauge/internal/logger"
)

type service struct {
	repo Repository
	cfg  Config
}

// No-op implementation
type noopCollector struct{}

func NewService(cfg Config, log logger.Logger) (Collector, error) {
	errFactory := errors.New()

	if err := cfg.Validate(); err != nil {
		return nil, errFactory.Wrap(ErrInvalidConfig, err)
	}

	// If metrics is disabled, return a no-op collector
	if !cfg.Enabled {
		log.Debug().Msg("Poll metrics disabled, using no-op collector")
		return &noopCollector{}, nil
	}

	repo, err := NewRepository(cfg, log)
	if err != nil {
		log.Debug().Err(err).Msg("Failed to create metrics repository")
		return nil, err
	}

	return &service{
		repo: repo,
		cfg:  cfg,
	}, nil
}

func (s *service) Record(ctx context.Context, sample *PollSample) error {
	errFactory := errors.New()

	if sample == nil {
		return errFactory.New(ErrInvalidSample)
	}

	select {
	case <-ctx.Done():
		return errFactory.Wrap(ErrOperationTimeout, ctx.Err())
	default:
		return s.repo.Record(sample)
	}
}

func (s *service) Stats() Stats {
	return s.repo.Stats()
}

func (s *service) Close() error {
	return s.repo.Close()
}

// Noop returns a collector that records nothing.
func Noop() Collector {
	return &noopCollector{}
}

func (*noopCollector) Record(_ context.Context, _ *PollSample) error {
	return nil
}

func (*noopCollector) Stats() Stats {
	return Stats{}
}

func (*noopCollector) Close() error {
	return nil
}
