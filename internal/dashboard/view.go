package dashboard

import (
	"time"

	"codeberg.org/mutker/diskgauge/internal/metrics"
	"codeberg.org/mutker/diskgauge/internal/usage"
)

// View is everything a renderer needs for one frame.
type View struct {
	Readings  usage.Snapshot
	UpdatedAt time.Time // zero until the first successful poll
	LastError error
	FailedAt  time.Time
	Stats     metrics.Stats
	Now       time.Time
}

// Renderer draws a frame. A returned error ends the loop.
type Renderer interface {
	Render(v View) error
}
