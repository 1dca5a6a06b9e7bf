package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/colonyops/margin/internal/tui"
	"github.com/colonyops/margin/pkg/profiler"
)

type ViewCmd struct {
	flags *Flags

	// flags
	file         string
	play         bool
	watch        bool
	profilerPort int
}

// NewViewCmd creates a new view command
func NewViewCmd(flags *Flags) *ViewCmd {
	return &ViewCmd{flags: flags}
}

// Register adds the view command to the application
func (cmd *ViewCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "view",
		Usage:     "Open a scenario document in the interactive viewer",
		UsageText: "margin view -f scenario.yaml [--play] [--watch]",
		Description: `Shows the document with its comment gutter. Move with j/k, extend the
selection with J/K, press c to comment and enter to reply to the thread on
the cursor line. Press ? for every key.`,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "file",
				Aliases:     []string{"f"},
				Usage:       "path to a JSON, YAML or TOML scenario",
				Required:    true,
				Destination: &cmd.file,
			},
			&cli.BoolFlag{
				Name:        "play",
				Usage:       "play the scenario steps before showing the document",
				Destination: &cmd.play,
			},
			&cli.BoolFlag{
				Name:        "watch",
				Usage:       "reopen the scenario when the file changes",
				Destination: &cmd.watch,
			},
			&cli.IntFlag{
				Name:        "profiler-port",
				Usage:       "serve pprof on 127.0.0.1 at this port (0 disables)",
				Sources:     cli.EnvVars("MARGIN_PROFILER_PORT"),
				Destination: &cmd.profilerPort,
			},
		},
		Action: cmd.run,
	})

	return app
}

func (cmd *ViewCmd) run(ctx context.Context, c *cli.Command) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("view needs a terminal; use 'margin show' for plain output")
	}

	if cmd.profilerPort > 0 {
		prof := profiler.New(cmd.profilerPort, log.Logger)
		if err := prof.Start(ctx); err != nil {
			return fmt.Errorf("start profiler: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := prof.Shutdown(shutdownCtx); err != nil {
				log.Error().Err(err).Msg("failed to shut down profiler")
			}
		}()
	}

	m, err := tui.New(ctx, cmd.flags.App, log.Logger, cmd.file, tui.Options{
		Play:  cmd.play,
		Watch: cmd.watch,
	})
	if err != nil {
		return err
	}

	// Logs would tear the alternate screen, so they wait until it closes.
	if cmd.flags.Stderr != nil {
		cmd.flags.Stderr.Hold()
		defer func() { _ = cmd.flags.Stderr.Release() }()
	}
	return tui.Run(ctx, m)
}
