package tui

import (
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

// scenarioChangedMsg is sent when the scenario file changes on disk.
type scenarioChangedMsg struct{}

// ScenarioWatcher watches one scenario file. The parent directory is
// watched so editors that save by rename are seen too.
type ScenarioWatcher struct {
	watcher     *fsnotify.Watcher
	path        string
	debounceDur time.Duration
}

// NewScenarioWatcher starts watching path.
func NewScenarioWatcher(path string) (*ScenarioWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := watcher.Add(filepath.Dir(abs)); err != nil {
		watcher.Close()
		return nil, err
	}

	return &ScenarioWatcher{
		watcher:     watcher,
		path:        abs,
		debounceDur: 100 * time.Millisecond,
	}, nil
}

// Start returns a command that waits for the next change to the file.
func (w *ScenarioWatcher) Start() tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case event, ok := <-w.watcher.Events:
				if !ok {
					return nil
				}
				if !w.matches(event) {
					continue
				}

				// Debounce: wait for changes to settle
				time.Sleep(w.debounceDur)
				drained := false
				for !drained {
					select {
					case <-w.watcher.Events:
					default:
						drained = true
					}
				}
				return scenarioChangedMsg{}

			case _, ok := <-w.watcher.Errors:
				if !ok {
					return nil
				}
			}
		}
	}
}

func (w *ScenarioWatcher) matches(event fsnotify.Event) bool {
	if filepath.Clean(event.Name) != w.path {
		return false
	}
	return event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename)
}

// Close stops the watcher.
func (w *ScenarioWatcher) Close() error {
	return w.watcher.Close()
}
