// Package usage holds the storage-utilization data model shared by the
// query gateway, the dashboard loop and the output sinks.
package usage

// Reading is one storage device's utilization percentage at the latest poll.
// Value is expected in [0, 100] but is neither validated nor clamped.
type Reading struct {
	Label string  `json:"label" yaml:"label"`
	Value float64 `json:"value" yaml:"value"`
}

// Snapshot is the ordered result of a single poll. Order follows the group
// order of the query response; duplicate labels are legal.
type Snapshot []Reading

// Len returns the number of readings.
func (s Snapshot) Len() int {
	return len(s)
}

// Clone returns a copy that does not share the backing array.
func (s Snapshot) Clone() Snapshot {
	if s == nil {
		return nil
	}
	out := make(Snapshot, len(s))
	copy(out, s)
	return out
}
