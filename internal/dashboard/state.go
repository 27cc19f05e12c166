package dashboard

import (
	"time"

	"codeberg.org/mutker/diskgauge/internal/usage"
)

// State is the dashboard's current data. It is owned by the loop goroutine:
// written by the update step and read by the render step, never shared, so
// it carries no lock.
type State struct {
	snapshot  usage.Snapshot
	updatedAt time.Time
	lastErr   error
	failedAt  time.Time
}

// Snapshot returns the readings of the last successful poll.
func (s *State) Snapshot() usage.Snapshot {
	return s.snapshot
}

// UpdatedAt is the start time of the last successful poll.
func (s *State) UpdatedAt() time.Time {
	return s.updatedAt
}

// LastError is the error of the most recent poll, or nil if it succeeded.
func (s *State) LastError() error {
	return s.lastErr
}

// Replace swaps in the result of a successful poll. The previous snapshot is
// discarded, never merged.
func (s *State) Replace(snap usage.Snapshot, at time.Time) {
	s.snapshot = snap.Clone()
	s.updatedAt = at
	s.lastErr = nil
}

// Fail records a failed poll and leaves the snapshot untouched.
func (s *State) Fail(err error, at time.Time) {
	s.lastErr = err
	s.failedAt = at
}

// FailedAt is the start time of the most recent failed poll.
func (s *State) FailedAt() time.Time {
	return s.failedAt
}
