package terminal

import "codeberg.org/mutker/diskgauge/internal/errors"

const (
	ErrInitFailed = errors.ErrorCode("terminal_init_failed")
	ErrClosed     = errors.ErrorCode("terminal_closed")
)

func init() {
	errors.RegisterMessage(ErrInitFailed, "Failed to initialize terminal")
	errors.RegisterMessage(ErrClosed, "Terminal closed")
}
