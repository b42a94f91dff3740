package keymap

import "strings"

// Binding maps keys to an action. Hint, when set, labels the action in the
// one-line footer.
type Binding struct {
	Keys        []string
	Action      Action
	Description string
	Hint        string
}

// All contains every key binding, in help order.
var All = []Binding{
	{[]string{"space"}, ActionPlayPause, "Pause/resume", "pause"},
	{[]string{"p", "enter"}, ActionPlay, "Play from current position", ""},
	{[]string{"home", "0"}, ActionRestart, "Play from start", ""},
	{[]string{"right", "l"}, ActionSeekForward, "Seek +10s", "+10s"},
	{[]string{"left", "h"}, ActionSeekBack, "Seek -10s", "-10s"},
	{[]string{"end", "G"}, ActionSeekEnd, "Seek to end", ""},
	{[]string{"s"}, ActionStop, "Stop", "stop"},
	{[]string{"r"}, ActionReset, "Reload source", "reload"},
	{[]string{"?"}, ActionHelp, "Toggle help", "help"},
	{[]string{"q", "ctrl+c"}, ActionQuit, "Quit", "quit"},
}

// keyLabels shortens key names for display.
var keyLabels = map[string]string{
	"right": "→",
	"left":  "←",
	"enter": "↵",
}

// Map resolves key presses against a binding list. The first binding of a
// key wins.
type Map struct {
	bindings []Binding
	byKey    map[string]Action
}

// New creates a map from bindings.
func New(bindings []Binding) *Map {
	m := &Map{bindings: bindings, byKey: make(map[string]Action)}
	for _, b := range bindings {
		for _, k := range b.Keys {
			if _, ok := m.byKey[k]; !ok {
				m.byKey[k] = b.Action
			}
		}
	}
	return m
}

// Lookup returns the action bound to key, or "" when unbound.
func (m *Map) Lookup(key string) Action {
	return m.byKey[key]
}

// HelpLine is one row of the help listing.
type HelpLine struct {
	Keys        string
	Description string
}

// Help lists every binding with its display keys.
func (m *Map) Help() []HelpLine {
	lines := make([]HelpLine, 0, len(m.bindings))
	for _, b := range m.bindings {
		keys := make([]string, len(b.Keys))
		for i, k := range b.Keys {
			keys[i] = label(k)
		}
		lines = append(lines, HelpLine{Keys: strings.Join(keys, ", "), Description: b.Description})
	}
	return lines
}

// Footer returns the short hint line, "space pause · → +10s · ...".
func (m *Map) Footer() string {
	var parts []string
	for _, b := range m.bindings {
		if b.Hint == "" || len(b.Keys) == 0 {
			continue
		}
		parts = append(parts, label(b.Keys[0])+" "+b.Hint)
	}
	return strings.Join(parts, " · ")
}

func label(key string) string {
	if l, ok := keyLabels[key]; ok {
		return l
	}
	return key
}
