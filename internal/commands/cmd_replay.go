package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/margin/internal/margin"
	"github.com/colonyops/margin/internal/margin/scenario"
	"github.com/colonyops/margin/internal/printer"
	"github.com/colonyops/margin/pkg/iojson"
)

type ReplayCmd struct {
	flags *Flags
	input scenarioInput

	// flags
	jsonOutput bool
	strict     bool
}

// NewReplayCmd creates a new replay command
func NewReplayCmd(flags *Flags) *ReplayCmd {
	return &ReplayCmd{flags: flags}
}

// Register adds the replay command to the application
func (cmd *ReplayCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "replay",
		Usage:     "Play a scenario and print the state after every step",
		UsageText: "margin replay -f scenario.yaml [--json] [--strict]",
		Description: `Opens the scenario document, registers its providers and plays each step.

The state after every step lists the commenting range claims and the
displayed threads. Use --json for machine readable output.`,
		Flags: []cli.Flag{
			cmd.input.Flag(),
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output snapshots as a JSON array",
				Destination: &cmd.jsonOutput,
			},
			&cli.BoolFlag{
				Name:        "strict",
				Usage:       "exit non-zero when any step fails",
				Destination: &cmd.strict,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ReplayCmd) run(ctx context.Context, c *cli.Command) error {
	r, err := cmd.input.open(ctx, cmd.flags, margin.EditorOptions{})
	if err != nil {
		return err
	}
	defer r.Close()

	var snaps []scenario.Snapshot
	if err := r.Run(ctx, func(s scenario.Snapshot) { snaps = append(snaps, s) }); err != nil {
		return fmt.Errorf("replay: %w", err)
	}

	failed := 0
	for _, s := range snaps {
		if s.Error != "" {
			failed++
		}
	}

	if cmd.jsonOutput {
		if err := iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, snaps); err != nil {
			return err
		}
	} else {
		printSnapshots(printer.Ctx(ctx), snaps)
	}

	if cmd.strict && failed > 0 {
		return cli.Exit(fmt.Sprintf("%d step(s) failed", failed), 1)
	}
	return nil
}

func printSnapshots(p *printer.Printer, snaps []scenario.Snapshot) {
	for _, s := range snaps {
		title := fmt.Sprintf("step %d: %s (cursor %d:%d)", s.Step, s.Action, s.Cursor.Line, s.Cursor.Col)
		if s.Error != "" {
			p.Errorf("%s: %s", title, s.Error)
		} else {
			p.Successf("%s", title)
		}

		for _, c := range s.Claims {
			p.Printf("  claim  %-10s %-9s %s", c.Owner, c.Category, c.Range)
		}
		for _, t := range s.Threads {
			p.Printf("  thread %s", threadSummary(t))
		}
	}
}

func threadSummary(t scenario.ThreadView) string {
	var b strings.Builder
	where := "file"
	if t.Range != nil {
		where = t.Range.String()
	}
	fmt.Fprintf(&b, "%-10s %-12s %s %s", t.Owner, t.ID, where, t.State)
	if t.Draft {
		b.WriteString(" draft")
	}
	if !t.Expanded {
		b.WriteString(" collapsed")
	}
	fmt.Fprintf(&b, " comments=%d", len(t.Comments))
	if t.Pending != "" {
		fmt.Fprintf(&b, " pending=%q", t.Pending)
	}
	return b.String()
}
