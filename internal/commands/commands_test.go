package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/margin/internal/core/config"
	"github.com/colonyops/margin/internal/core/eventbus"
	"github.com/colonyops/margin/internal/margin"
	"github.com/colonyops/margin/internal/margin/scenario"
	"github.com/colonyops/margin/internal/printer"
	"github.com/colonyops/margin/pkg/iojson"
)

const testScenario = `
document:
  uri: file:///main.go
  text: "package main\n\nfunc main() {}\n"
providers:
  - owner: gh
    label: GitHub
    ranges: ["1-3"]
    threads:
      - id: t1
        range: "3"
        comments:
          - id: c1
            author: octocat
            body: empty main
steps:
  - add: "2"
  - draft:
      line: 2
      text: spacing
`

type harness struct {
	flags *Flags
	out   bytes.Buffer
	ctx   context.Context
	path  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	cfg := config.DefaultConfig()
	app := margin.NewApp(&cfg, eventbus.New(64), zerolog.Nop())
	app.Start(ctx)

	h := &harness{flags: &Flags{Config: &cfg, App: app}}
	h.ctx = printer.NewContext(ctx, printer.New(&h.out))

	h.path = filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(h.path, []byte(testScenario), 0o644))
	return h
}

func (h *harness) run(args ...string) error {
	root := &cli.Command{
		Name:           "margin",
		Writer:         &h.out,
		ErrWriter:      &h.out,
		ExitErrHandler: func(context.Context, *cli.Command, error) {},
	}
	root = NewReplayCmd(h.flags).Register(root)
	root = NewShowCmd(h.flags).Register(root)
	root = NewRangesCmd(h.flags).Register(root)
	root = NewAddCmd(h.flags).Register(root)
	root = NewConfigValidateCmd(h.flags).Register(root)
	return root.Run(h.ctx, append([]string{"margin"}, args...))
}

func TestReplayCmd_JSON(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("replay", "-f", h.path, "--json"))

	var snaps []scenario.Snapshot
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &snaps))
	require.Len(t, snaps, 3)
	assert.Equal(t, "open", snaps[0].Action)
	require.Len(t, snaps[2].Threads, 2)
	assert.Equal(t, "spacing", snaps[2].Threads[0].Pending)
}

func TestReplayCmd_Text(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("replay", "-f", h.path))

	out := h.out.String()
	assert.Contains(t, out, "step 1: add")
	assert.Contains(t, out, `pending="spacing"`)
}

func TestShowCmd(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("show", "-f", h.path, "--step", "0", "--width", "60"))

	out := h.out.String()
	assert.Contains(t, out, "package main")
	assert.NotContains(t, out, "empty main", "collapsed threads stay closed")
}

func TestRangesCmd_JSON(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("ranges", "-f", h.path, "--line", "2", "--json"))

	var out rangesOutput
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &out))
	assert.Equal(t, 2, out.Line)
	assert.Equal(t, []string{"gh"}, out.Actions)
	assert.NotEmpty(t, out.Claims)
}

func TestRangesCmd_Selection(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want []string
	}{
		{name: "inside range", args: []string{"--select", "1-2"}, want: []string{"gh"}},
		{name: "past range end", args: []string{"--select", "2-5"}},
		{name: "selection wins over line", args: []string{"--line", "2", "--select", "2-5"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			args := append([]string{"ranges", "-f", h.path, "--json"}, tt.args...)
			require.NoError(t, h.run(args...))

			var out rangesOutput
			require.NoError(t, json.Unmarshal(h.out.Bytes(), &out))
			assert.Equal(t, tt.want, out.Actions)
			assert.NotEmpty(t, out.Selection)
		})
	}
}

func TestRangesCmd_SelectionText(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("ranges", "-f", h.path, "--select", "1-2"))
	assert.Contains(t, h.out.String(), "selection 1-2: GitHub")
}

func TestAddCmd_Submit(t *testing.T) {
	h := newHarness(t)
	require.NoError(t, h.run("add", "-f", h.path, "--at", "1", "--body", "hello", "--submit", "--interactive=false", "--json"))

	var snap scenario.Snapshot
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &snap))

	var found bool
	for _, th := range snap.Threads {
		if th.Line == 1 {
			found = true
			assert.False(t, th.Draft)
			require.Len(t, th.Comments, 1)
			assert.Equal(t, "hello", th.Comments[0].Body)
		}
	}
	assert.True(t, found)
}

func TestAddCmd_OutsideRange(t *testing.T) {
	h := newHarness(t)
	err := h.run("add", "-f", h.path, "--at", "20", "--interactive=false")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no commenting range")
}

func TestAddCmd_OutsideRangeJSON(t *testing.T) {
	h := newHarness(t)
	err := h.run("add", "-f", h.path, "--at", "20", "--interactive=false", "--json")
	require.Error(t, err)

	var out iojson.Error
	require.NoError(t, json.Unmarshal(h.out.Bytes(), &out))
	assert.Contains(t, out.Message, "no commenting range")
	assert.Equal(t, "20", out.Data["at"])
}

func TestConfigValidateCmd(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		h := newHarness(t)
		require.NoError(t, h.run("config", "validate"))
		assert.Contains(t, h.out.String(), "Configuration is valid")
	})

	t.Run("invalid json", func(t *testing.T) {
		h := newHarness(t)
		h.flags.Config.Comments.Exclude = []string{"[bad"}

		err := h.run("config", "validate", "--format", "json")
		require.Error(t, err)

		var out struct {
			Valid  bool              `json:"valid"`
			Errors []validationError `json:"errors"`
		}
		require.NoError(t, json.Unmarshal(h.out.Bytes(), &out))
		assert.False(t, out.Valid)
		require.Len(t, out.Errors, 1)
		assert.Equal(t, "comments.exclude[0]", out.Errors[0].Field)
	})
}

func TestParseRangeErrors(t *testing.T) {
	h := newHarness(t)
	err := h.run("add", "-f", h.path, "--at", "x-y", "--interactive=false")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--at")
}
