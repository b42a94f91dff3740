// Package playerbar renders the playback status panel.
package playerbar

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/mediaplayer/internal/mediaplayer"
	"github.com/llehouerou/mediaplayer/internal/ui/render"
)

// State holds everything needed to render the player bar.
type State struct {
	Status mediaplayer.State
	Title  string
	Artist string
	Album  string
	Year   int

	Position    time.Duration
	HasPosition bool
	// Duration is the length of the seekable range, when known.
	Duration    time.Duration
	HasDuration bool

	// Message is shown in the error state.
	Message string
}

// Height is the rendered height: two content rows and the border.
const Height = 4

// Render returns the player bar string for the given width.
func Render(s State, width int) string {
	innerWidth := max(width-6, 0)

	label := stateStyle(s.Status).Render(stateSymbol(s.Status) + " " + s.Status.String())
	header := label
	if s.Status != mediaplayer.StateEmpty {
		title := s.Title
		if title == "" {
			title = "Unknown"
		}
		header += "   " + titleStyle().Render(render.TruncateEllipsis(title, innerWidth/2))
		if info := infoLine(s); info != "" {
			avail := innerWidth - lipgloss.Width(header) - 3
			if avail > 3 {
				header += "   " + artistStyle().Render(render.TruncateEllipsis(info, avail))
			}
		}
	}

	var detail string
	switch {
	case s.Status == mediaplayer.StateError:
		detail = stateStyle(s.Status).Render(render.TruncateEllipsis(s.Message, innerWidth))
	case s.Status == mediaplayer.StateEmpty:
		detail = progressTimeStyle().Render("no source")
	case s.HasDuration:
		detail = RenderProgressBar(s.Position, s.Duration, innerWidth)
	case s.HasPosition:
		detail = progressTimeStyle().Render(formatDuration(s.Position) + " / --:--")
	default:
		detail = progressTimeStyle().Render("--:-- / --:--")
	}

	return barStyle().Padding(0, 2).Width(max(width-2, 0)).Render(header + "\n" + detail)
}

// infoLine joins artist, album and year.
func infoLine(s State) string {
	var parts []string
	if s.Artist != "" {
		parts = append(parts, s.Artist)
	}
	if s.Album != "" {
		parts = append(parts, s.Album)
	}
	if s.Year > 0 {
		parts = append(parts, strconv.Itoa(s.Year))
	}
	return strings.Join(parts, " · ")
}

func formatDuration(d time.Duration) string {
	if d >= time.Hour {
		return fmt.Sprintf("%d:%02d:%02d", int(d.Hours()), int(d.Minutes())%60, int(d.Seconds())%60)
	}
	m := int(d.Minutes())
	s := int(d.Seconds()) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}
