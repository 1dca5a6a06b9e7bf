// Package tuitest provides testing utilities for TUI components.
package tuitest

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
)

// StripANSI removes ANSI escape codes and trailing whitespace for cleaner golden files.
func StripANSI(s string) string {
	s = ansi.Strip(s)
	lines := strings.Split(s, "\n")
	var result []string
	for _, line := range lines {
		result = append(result, strings.TrimRight(line, " "))
	}
	return strings.TrimRight(strings.Join(result, "\n"), "\n")
}

// KeyPress creates a key press message for a single rune.
func KeyPress(key rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{key}}
}

// KeyType creates a key press message for a special key such as
// tea.KeyEnter or tea.KeyCtrlS.
func KeyType(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

// Type creates one key press message per rune of s.
func Type(s string) []tea.Msg {
	msgs := make([]tea.Msg, 0, len(s))
	for _, r := range s {
		msgs = append(msgs, KeyPress(r))
	}
	return msgs
}

// WindowSize creates a window size message.
func WindowSize(w, h int) tea.WindowSizeMsg {
	return tea.WindowSizeMsg{Width: w, Height: h}
}

// MouseAt creates a mouse message at column x, row y.
func MouseAt(x, y int, action tea.MouseAction, button tea.MouseButton) tea.MouseMsg {
	return tea.MouseMsg{X: x, Y: y, Action: action, Button: button}
}
