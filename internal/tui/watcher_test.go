package tui

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestScenarioWatcher_ReportsWrites(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "review.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0o644))

	w, err := NewScenarioWatcher(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	got := make(chan any, 1)
	go func() { got <- w.Start()() }()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("b"), 0o644))
	require.NoError(t, os.WriteFile(path, []byte("c"), 0o644))

	select {
	case msg := <-got:
		require.IsType(t, scenarioChangedMsg{}, msg)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}
}
