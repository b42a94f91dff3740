package app

import (
	"strings"

	"github.com/llehouerou/mediaplayer/internal/ui/playerbar"
	"github.com/llehouerou/mediaplayer/internal/ui/render"
	"github.com/llehouerou/mediaplayer/internal/ui/styles"
)

// View renders the player view.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	width := m.Width
	if width <= 0 {
		width = defaultWidth
	}
	s := styles.T().S()

	var b strings.Builder

	kind := m.media.Type.String()
	if m.media.MimeType != "" {
		kind += " · " + m.media.MimeType
	}
	header := render.Row(
		s.Title.Render("mediaplayer"),
		s.Subtle.Render(render.TruncateEllipsis(kind, width/2)),
		width,
	)
	b.WriteString(header)
	b.WriteString("\n")
	b.WriteString(s.Muted.Render(render.TruncateEllipsis(m.media.URL, width)))
	b.WriteString("\n")

	b.WriteString(playerbar.Render(m.barState(), width))
	b.WriteString("\n")

	if m.flash != "" {
		b.WriteString(s.Error.Render(render.TruncateEllipsis(m.flash, width)))
		b.WriteString("\n")
	}

	if m.showHelp {
		b.WriteString(s.Subtle.Render(render.Separator(width)))
		b.WriteString("\n")
		for _, line := range m.keys.Help() {
			b.WriteString(render.Row(
				s.Base.Render(line.Keys),
				s.Muted.Render(line.Description),
				min(width, 48),
			))
			b.WriteString("\n")
		}
		return b.String()
	}

	b.WriteString(s.Subtle.Render(render.TruncateEllipsis(m.keys.Footer(), width)))
	return b.String()
}

func (m Model) barState() playerbar.State {
	info := m.media.Info
	bar := playerbar.State{
		Status:      m.snap.State,
		Title:       info.Title,
		Artist:      info.Artist,
		Album:       info.Album,
		Year:        info.Year,
		Position:    m.snap.Position,
		HasPosition: m.snap.HasPosition,
		Message:     m.snap.Message,
	}
	if m.snap.HasRange {
		bar.Duration = m.snap.Range.End
		bar.HasDuration = true
	}
	return bar
}
