package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// refreshInterval is how often the view re-reads controller state. Bus
// events are handled off the UI goroutine so the view polls for them.
const refreshInterval = 100 * time.Millisecond

type refreshTickMsg struct{}

func scheduleRefreshTick() tea.Cmd {
	return tea.Tick(refreshInterval, func(time.Time) tea.Msg {
		return refreshTickMsg{}
	})
}
