package cli

import (
	"io"
	"os"
	"path/filepath"

	"codeberg.org/mutker/diskgauge/internal/config"
	"codeberg.org/mutker/diskgauge/internal/errors"
	"codeberg.org/mutker/diskgauge/internal/logger"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// setupLogging sends logs to stderr, or to cfg.LogFile when the terminal
// belongs to the dashboard.
func setupLogging(cfg *config.Config, toFile bool) (io.Closer, error) {
	level, err := logger.ParseLevel(string(cfg.LogLevel))
	if err != nil {
		return nil, err
	}

	if !toFile || cfg.LogFile == "" {
		logger.Init(level, os.Stderr, false)
		return nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, errors.New().Wrap(errors.ErrInitFailed, err)
	}
	f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, errors.New().Wrap(errors.ErrInitFailed, err)
	}

	logger.Init(level, f, true)
	return f, nil
}
