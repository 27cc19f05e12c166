package report

import (
	"fmt"
	"math"
	"strings"
	"time"

	"codeberg.org/mutker/diskgauge/internal/dashboard"
	"codeberg.org/mutker/diskgauge/internal/usage"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

const (
	colorOK       lipgloss.Color = "2"
	colorWarning  lipgloss.Color = "3"
	colorCritical lipgloss.Color = "1"
	colorMuted    lipgloss.Color = "8"

	minBarWidth = 10
	maxBarWidth = 50
	valueWidth  = 7 // "100.0%"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
)

func toneColor(t dashboard.Tone) lipgloss.Color {
	switch t {
	case dashboard.ToneOK:
		return colorOK
	case dashboard.ToneWarning:
		return colorWarning
	default:
		return colorCritical
	}
}

// Table renders one line per reading with a bar coloured by tone, followed
// by a footer with the poll time. cols is the available width.
func Table(snap usage.Snapshot, at, now time.Time, cols int) string {
	var b strings.Builder

	if snap.Len() == 0 {
		b.WriteString(mutedStyle.Render("no readings"))
		b.WriteString("\n")
		return b.String()
	}

	labelWidth := lipgloss.Width("DEVICE")
	for _, r := range snap {
		labelWidth = max(labelWidth, lipgloss.Width(r.Label))
	}
	barWidth := min(max(cols-labelWidth-valueWidth-4, minBarWidth), maxBarWidth)

	label := lipgloss.NewStyle().Width(labelWidth)
	value := lipgloss.NewStyle().Width(valueWidth).Align(lipgloss.Right)

	b.WriteString(headerStyle.Render(label.Render("DEVICE") + "  " + value.Render("USED")))
	b.WriteString("\n")

	for _, r := range snap {
		color := toneColor(dashboard.Classify(r.Value))
		bar := progress.New(
			progress.WithSolidFill(string(color)),
			progress.WithWidth(barWidth),
			progress.WithoutPercentage(),
		)
		bar.EmptyColor = string(colorMuted)

		b.WriteString(label.Render(r.Label))
		b.WriteString("  ")
		b.WriteString(value.Foreground(color).Render(fmt.Sprintf("%.1f%%", r.Value)))
		b.WriteString("  ")
		b.WriteString(bar.ViewAs(fillRatio(r.Value)))
		b.WriteString("\n")
	}

	footer := fmt.Sprintf("%d %s · polled %s (%s)",
		snap.Len(), plural(snap.Len(), "device", "devices"),
		at.Local().Format("2006-01-02 15:04:05"),
		humanize.RelTime(at, now, "ago", "from now"))
	b.WriteString(mutedStyle.Render(footer))
	b.WriteString("\n")

	return b.String()
}

// fillRatio clamps a percentage into the [0, 1] range the bar expects.
func fillRatio(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return math.Min(v, 100) / 100
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}
