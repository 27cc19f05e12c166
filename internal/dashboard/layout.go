package dashboard

// Margin is the number of cells left blank on every side of the gauge area.
const Margin = 2

// Rect is a screen region in cells.
type Rect struct {
	X, Y, Width, Height int
}

// Inset shrinks r by n cells on every side, never below zero size.
func (r Rect) Inset(n int) Rect {
	out := Rect{X: r.X + n, Y: r.Y + n, Width: r.Width - 2*n, Height: r.Height - 2*n}
	if out.Width < 0 {
		out.Width = 0
	}
	if out.Height < 0 {
		out.Height = 0
	}
	return out
}

// Band is the slot of one gauge.
type Band struct {
	Percent int
	Rect    Rect
}

// BandPercent is the share of the gauge area given to each of n gauges.
// Integer division leaves up to n-1 percent unused for counts that do not
// divide 100; that slack stays blank.
func BandPercent(n int) int {
	if n <= 0 {
		return 0
	}
	return 100 / n
}

// Layout splits area, minus Margin, into n stacked bands of equal height.
// It returns nil for n <= 0.
func Layout(n int, area Rect) []Band {
	if n <= 0 {
		return nil
	}

	inner := area.Inset(Margin)
	pct := BandPercent(n)
	height := inner.Height * pct / 100

	bands := make([]Band, n)
	for i := range bands {
		bands[i] = Band{
			Percent: pct,
			Rect: Rect{
				X:      inner.X,
				Y:      inner.Y + i*height,
				Width:  inner.Width,
				Height: height,
			},
		}
	}
	return bands
}
