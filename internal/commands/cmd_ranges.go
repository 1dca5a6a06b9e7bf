package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/textrange"
	"github.com/colonyops/margin/internal/margin"
	"github.com/colonyops/margin/internal/margin/scenario"
	"github.com/colonyops/margin/internal/printer"
	"github.com/colonyops/margin/pkg/iojson"
)

type RangesCmd struct {
	flags *Flags
	input scenarioInput

	// flags
	line       int
	selection  string
	jsonOutput bool
}

// NewRangesCmd creates a new ranges command
func NewRangesCmd(flags *Flags) *RangesCmd {
	return &RangesCmd{flags: flags}
}

// Register adds the ranges command to the application
func (cmd *RangesCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "ranges",
		Usage:     "Show the commenting range claims of a scenario document",
		UsageText: "margin ranges -f scenario.yaml [--line N] [--select A-B] [--json]",
		Description: `Opens the scenario document without playing its steps and prints the
claims drawn in the gutter. --line moves the cursor and lists the providers
that accept a comment there; --select emphasises a selected span and lists
the providers that accept a comment covering all of it.`,
		Flags: []cli.Flag{
			cmd.input.Flag(),
			&cli.IntFlag{
				Name:        "line",
				Usage:       "cursor line",
				Destination: &cmd.line,
			},
			&cli.StringFlag{
				Name:        "select",
				Usage:       "selected range, e.g. 3-5",
				Destination: &cmd.selection,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

type rangesOutput struct {
	Claims    []scenario.ClaimView `json:"claims"`
	Line      int                  `json:"line,omitempty"`
	Selection string               `json:"selection,omitempty"`
	Actions   []string             `json:"actions,omitempty"`
}

func (cmd *RangesCmd) run(ctx context.Context, c *cli.Command) error {
	r, err := cmd.input.open(ctx, cmd.flags, margin.EditorOptions{})
	if err != nil {
		return err
	}
	defer r.Close()

	out := rangesOutput{Line: max(cmd.line, 0)}

	// A selection is the span a new comment would cover, so it is the hit
	// range when both flags are set.
	var hit *textrange.Range
	var target string
	ed := r.Editor()
	if cmd.line > 0 {
		ed.SetCursor(textrange.Position{Line: cmd.line, Col: 1})
		hit = textrange.Line(cmd.line).Ptr()
		target = fmt.Sprintf("line %d", cmd.line)
	}
	if cmd.selection != "" {
		sel, err := textrange.Parse(cmd.selection)
		if err != nil {
			return fmt.Errorf("--select: %w", err)
		}
		ed.Select(sel.Start(), sel.End())
		hit = &sel
		out.Selection = cmd.selection
		target = "selection " + cmd.selection
	}

	out.Claims = r.Snapshot(0, "ranges").Claims
	var actions []comment.Action
	if hit != nil {
		actions = r.Controller().MatchedActions(hit)
		for _, a := range actions {
			out.Actions = append(out.Actions, a.OwnerID)
		}
	}

	if cmd.jsonOutput {
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, out)
	}

	p := printer.Ctx(ctx)
	if len(out.Claims) == 0 {
		p.Infof("No commenting ranges")
	}
	for _, cl := range out.Claims {
		mark := ""
		if cl.Emphasis {
			mark = " *"
		}
		p.Printf("%-10s %-9s %s%s", cl.Owner, cl.Category, cl.Range, mark)
	}
	if hit != nil {
		if len(actions) == 0 {
			p.Errorf("%s: no provider accepts a comment", target)
		} else {
			p.Successf("%s: %s", target, describe(actions))
		}
	}
	return nil
}

func describe(actions []comment.Action) string {
	names := make([]string, len(actions))
	for i, a := range actions {
		names[i] = a.DisplayName()
	}
	return strings.Join(names, ", ")
}
