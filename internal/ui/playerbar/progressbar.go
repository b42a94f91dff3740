package playerbar

import (
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	filledBlock = "━"
	emptyBlock  = "─"
)

// RenderProgressBar renders a progress bar between the position and the
// duration. Format: 1:23  ━━━━━─────  4:56
func RenderProgressBar(position, duration time.Duration, width int) string {
	posStr := formatDuration(position)
	durStr := formatDuration(duration)

	fixedWidth := lipgloss.Width(posStr) + 2 + 2 + lipgloss.Width(durStr)
	barWidth := width - fixedWidth

	if barWidth < 3 {
		// Too narrow for bar, just show times
		return progressTimeStyle().Render(posStr + " / " + durStr)
	}

	var ratio float64
	if duration > 0 {
		ratio = float64(position) / float64(duration)
	}
	filled := min(max(int(float64(barWidth)*ratio), 0), barWidth)

	bar := progressBarFilled().Render(strings.Repeat(filledBlock, filled)) +
		progressBarEmpty().Render(strings.Repeat(emptyBlock, barWidth-filled))

	return progressTimeStyle().Render(posStr) + "  " + bar + "  " + progressTimeStyle().Render(durStr)
}
