package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/margin/internal/margin"
	"github.com/colonyops/margin/internal/tui"
)

type ShowCmd struct {
	flags *Flags
	input scenarioInput

	// flags
	step  int
	width int
}

// NewShowCmd creates a new show command
func NewShowCmd(flags *Flags) *ShowCmd {
	return &ShowCmd{flags: flags}
}

// Register adds the show command to the application
func (cmd *ShowCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "show",
		Usage:     "Render a scenario document with its comment gutter",
		UsageText: "margin show -f scenario.yaml [--step N] [--width N]",
		Description: `Plays the scenario steps and prints the document with commenting range
glyphs, thread glyphs and the expanded threads below their lines.

--step stops after the given number of steps; 0 shows the document as opened.`,
		Flags: []cli.Flag{
			cmd.input.Flag(),
			&cli.IntFlag{
				Name:        "step",
				Usage:       "number of steps to play (default: all)",
				Value:       -1,
				Destination: &cmd.step,
			},
			&cli.IntFlag{
				Name:        "width",
				Usage:       "render width (default: terminal width)",
				Destination: &cmd.width,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ShowCmd) run(ctx context.Context, c *cli.Command) error {
	r, err := cmd.input.open(ctx, cmd.flags, margin.EditorOptions{})
	if err != nil {
		return err
	}
	defer r.Close()

	steps := len(r.Scenario().Steps)
	if cmd.step >= 0 && cmd.step < steps {
		steps = cmd.step
	}

	snap := r.Snapshot(0, "open")
	for i := range steps {
		if snap, err = r.Step(ctx, i); err != nil {
			return fmt.Errorf("step %d: %w", i+1, err)
		}
	}

	renderer, err := tui.NewRenderer(cmd.flags.Config.TUI.Glyphs, cmd.renderWidth())
	if err != nil {
		return err
	}

	_, err = fmt.Fprint(c.Root().Writer, renderer.Render(r.Model().Text(), snap))
	return err
}

func (cmd *ShowCmd) renderWidth() int {
	if cmd.width > 0 {
		return cmd.width
	}
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 80
}
