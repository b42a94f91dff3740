package playerbar

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/llehouerou/mediaplayer/internal/mediaplayer"
	"github.com/llehouerou/mediaplayer/internal/ui/styles"
)

const (
	playSymbol  = "▶"
	pauseSymbol = "⏸"
	stopSymbol  = "■"
	waitSymbol  = "…"
	errorSymbol = "✗"
)

func barStyle() lipgloss.Style {
	return styles.PanelStyle(false)
}

func titleStyle() lipgloss.Style {
	return styles.T().S().Title
}

func artistStyle() lipgloss.Style {
	return styles.T().S().Muted
}

func progressTimeStyle() lipgloss.Style {
	return styles.T().S().Subtle
}

func progressBarFilled() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(styles.T().Primary)
}

func progressBarEmpty() lipgloss.Style {
	return styles.T().S().Subtle
}

// stateStyle colors the state label.
func stateStyle(st mediaplayer.State) lipgloss.Style {
	s := styles.T().S()
	switch st {
	case mediaplayer.StatePlaying:
		return s.Playing
	case mediaplayer.StateBuffering:
		return s.Warning
	case mediaplayer.StateComplete:
		return s.Success
	case mediaplayer.StateError:
		return s.Error
	default:
		return s.Muted
	}
}

func stateSymbol(st mediaplayer.State) string {
	switch st {
	case mediaplayer.StatePlaying:
		return playSymbol
	case mediaplayer.StatePaused:
		return pauseSymbol
	case mediaplayer.StateBuffering:
		return waitSymbol
	case mediaplayer.StateError:
		return errorSymbol
	default:
		return stopSymbol
	}
}
