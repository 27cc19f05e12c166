package metrics

import "codeberg.org/mutker/diskgauge/internal/errors"

const (
	defaultWindow = 60
	maxWindow     = 10_000
)

type Config struct {
	// Window is the number of recent polls kept for averages.
	Window  int
	Enabled bool
}

func DefaultConfig() Config {
	return Config{
		Window:  defaultWindow,
		Enabled: true,
	}
}

func (c Config) Validate() error {
	errFactory := errors.New()

	// Only validate the window if collection is enabled
	if c.Enabled && (c.Window <= 0 || c.Window > maxWindow) {
		return errFactory.WithData(ErrInvalidWindow, c.Window)
	}
	return nil
}
