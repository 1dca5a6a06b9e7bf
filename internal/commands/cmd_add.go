package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/colonyops/margin/internal/margin"
	"github.com/colonyops/margin/internal/margin/scenario"
	"github.com/colonyops/margin/internal/printer"
	"github.com/colonyops/margin/pkg/iojson"
)

type AddCmd struct {
	flags *Flags
	input scenarioInput

	// flags
	at          string
	body        string
	submit      bool
	interactive bool
	jsonOutput  bool
}

// NewAddCmd creates a new add command
func NewAddCmd(flags *Flags) *AddCmd {
	return &AddCmd{flags: flags}
}

// Register adds the add command to the application
func (cmd *AddCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "add",
		Usage:     "Add a comment to a scenario document",
		UsageText: "margin add -f scenario.yaml --at 6 [--body text] [--submit]",
		Description: `Plays the scenario, then adds a comment thread at --at (a line, a range
such as 3-5, or "file"). When several providers accept the comment you are
asked to choose one; without a terminal the first is taken.`,
		Flags: []cli.Flag{
			cmd.input.Flag(),
			&cli.StringFlag{
				Name:        "at",
				Usage:       "line, range or \"file\" to comment on",
				Required:    true,
				Destination: &cmd.at,
			},
			&cli.StringFlag{
				Name:        "body",
				Usage:       "comment text",
				Destination: &cmd.body,
			},
			&cli.BoolFlag{
				Name:        "submit",
				Usage:       "submit the comment to its provider",
				Destination: &cmd.submit,
			},
			&cli.BoolFlag{
				Name:        "interactive",
				Usage:       "ask which provider to use when several match",
				Value:       true,
				Destination: &cmd.interactive,
			},
			&cli.BoolFlag{
				Name:        "json",
				Usage:       "output the resulting state as JSON",
				Destination: &cmd.jsonOutput,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *AddCmd) run(ctx context.Context, c *cli.Command) error {
	rng, err := scenario.ParseRange(cmd.at)
	if err != nil {
		return fmt.Errorf("--at: %w", err)
	}
	if cmd.submit && cmd.body == "" {
		return errors.New("--submit needs --body")
	}

	r, err := cmd.input.open(ctx, cmd.flags, margin.EditorOptions{Picker: pickerFor(cmd.interactive)})
	if err != nil {
		return err
	}
	defer r.Close()

	if err := r.Run(ctx, func(scenario.Snapshot) {}); err != nil {
		return err
	}

	w, err := r.Controller().AddOrToggleCommentAtLine(ctx, rng)
	if err != nil {
		if cmd.jsonOutput {
			_ = iojson.WriteError(c.Root().ErrWriter, err.Error(), map[string]any{"at": cmd.at})
			return cli.Exit("", 1)
		}
		return err
	}
	if w == nil {
		printer.Ctx(ctx).Infof("Cancelled")
		return nil
	}

	if cmd.body != "" {
		w.SetPendingComment(cmd.body)
	}
	if cmd.submit {
		if err := r.Submit(w); err != nil {
			return fmt.Errorf("submit: %w", err)
		}
	}

	snap, err := r.Settled(ctx, "add")
	if err != nil {
		return err
	}

	if cmd.jsonOutput {
		return iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, snap)
	}
	p := printer.Ctx(ctx)
	p.Successf("Comment added with %s", w.OwnerID())
	for _, t := range snap.Threads {
		p.Printf("  thread %s", threadSummary(t))
	}
	return nil
}
