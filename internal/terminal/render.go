package terminal

import (
	"fmt"
	"math"

	"codeberg.org/mutker/diskgauge/internal/dashboard"
	"codeberg.org/mutker/diskgauge/internal/usage"
	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const waitingText = "waiting for data"

var (
	statusColor = tcell.ColorGray
	errorColor  = tcell.ColorRed
)

// Render draws one frame: a gauge per reading stacked top to bottom and a
// status line on the last row.
func (t *Terminal) Render(v dashboard.View) error {
	w, h := t.screen.Size()
	resized := w != t.width || h != t.height
	t.width, t.height = w, h

	t.screen.Clear()

	area := dashboard.Rect{Width: w, Height: h - 1}
	if len(v.Readings) == 0 {
		tview.Print(t.screen, waitingText, dashboard.Margin, dashboard.Margin,
			w-2*dashboard.Margin, tview.AlignLeft, statusColor)
	}
	for i, band := range dashboard.Layout(len(v.Readings), area) {
		g := newGauge(v.Readings[i])
		g.SetRect(band.Rect.X, band.Rect.Y, band.Rect.Width, band.Rect.Height)
		g.Draw(t.screen)
	}

	if h > 0 {
		tview.Print(t.screen, statusLine(v), 1, h-1, w-2, tview.AlignLeft, statusColor)
	}

	if resized {
		t.screen.Sync()
	} else {
		t.screen.Show()
	}
	return nil
}

func statusLine(v dashboard.View) string {
	updated := "never"
	if !v.UpdatedAt.IsZero() {
		updated = humanize.RelTime(v.UpdatedAt, v.Now, "ago", "from now")
	}

	line := "updated " + updated
	if v.Stats.Polls > 0 {
		line += fmt.Sprintf(" · polls %s", humanize.Comma(int64(v.Stats.Polls)))
		if v.Stats.Failures > 0 {
			line += fmt.Sprintf(" (%s failed)", humanize.Comma(int64(v.Stats.Failures)))
		}
	}
	if v.LastError != nil {
		line += fmt.Sprintf(" · [%s]%s[-]", errorColor.Name(), tview.Escape(v.LastError.Error()))
	}
	return line + " · q quit"
}

func toneColor(t dashboard.Tone) tcell.Color {
	switch t {
	case dashboard.ToneOK:
		return tcell.ColorLightGreen
	case dashboard.ToneWarning:
		return tcell.ColorLightYellow
	default:
		return tcell.ColorIndianRed
	}
}

// gauge is a horizontal bar for one reading.
type gauge struct {
	*tview.Box
	reading usage.Reading
	color   tcell.Color
}

func newGauge(r usage.Reading) *gauge {
	g := &gauge{
		Box:     tview.NewBox(),
		reading: r,
		color:   toneColor(dashboard.Classify(r.Value)),
	}
	g.SetBorder(true).
		SetBorderColor(g.color).
		SetTitle(" " + tview.Escape(r.Label) + " ").
		SetTitleAlign(tview.AlignLeft)
	return g
}

func (g *gauge) Draw(screen tcell.Screen) {
	// Too short for a border: draw the bar alone.
	if _, _, _, h := g.GetRect(); h < 3 {
		g.SetBorder(false)
	}
	g.Box.DrawForSubclass(screen, g)

	x, y, width, height := g.GetInnerRect()
	if width <= 0 || height <= 0 {
		return
	}

	filled := int(math.Round(fillPercent(g.reading.Value) / 100 * float64(width)))
	label := []rune(fmt.Sprintf("%.1f%%", g.reading.Value))
	labelRow := y + height/2
	labelStart := x + (width-len(label))/2

	barStyle := tcell.StyleDefault.Background(g.color).Foreground(tcell.ColorBlack)
	restStyle := tcell.StyleDefault.Foreground(g.color)

	for row := y; row < y+height; row++ {
		for col := x; col < x+width; col++ {
			style := restStyle
			if col-x < filled {
				style = barStyle
			}
			ch := ' '
			if row == labelRow && col >= labelStart && col-labelStart < len(label) {
				ch = label[col-labelStart]
			}
			screen.SetContent(col, row, ch, nil, style)
		}
	}
}

// fillPercent clamps v to [0, 100] for drawing. The label keeps the raw value.
func fillPercent(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 100:
		return 100
	default:
		return v
	}
}
