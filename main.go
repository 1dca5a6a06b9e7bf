package main

import (
	"context"
	"fmt"
	"os"
	"runtime/debug"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/margin/internal/commands"
	"github.com/colonyops/margin/internal/core/config"
	"github.com/colonyops/margin/internal/core/eventbus"
	"github.com/colonyops/margin/internal/core/logging"
	"github.com/colonyops/margin/internal/core/styles"
	"github.com/colonyops/margin/internal/margin"
	"github.com/colonyops/margin/pkg/logutils"
)

var (
	// Build information. Populated at build-time via -ldflags flag.
	// When installed via `go install module@version`, init() populates
	// these from runtime/debug.BuildInfo instead.
	version = "dev"
	commit  = "HEAD"
	date    = "now"
)

func build() string {
	v, c, d := version, commit, date

	// When installed via `go install module@version`, ldflags aren't set
	// so version remains "dev". Fall back to runtime/debug.BuildInfo which
	// Go populates automatically with the module version and VCS metadata.
	if v == "dev" {
		if info, ok := debug.ReadBuildInfo(); ok {
			if mv := info.Main.Version; mv != "" && mv != "(devel)" {
				v = mv
			}
			for _, s := range info.Settings {
				switch s.Key {
				case "vcs.revision":
					c = s.Value
				case "vcs.time":
					d = s.Value
				}
			}
		}
	}

	short := c
	if len(c) > 7 {
		short = c[:7]
	}

	return fmt.Sprintf("%s (%s) %s", v, short, d)
}

// busCapacity bounds the queued events per editor session.
const busCapacity = 256

func main() {
	ctx := context.Background()

	var (
		logCloser func()
		busCancel context.CancelFunc
	)

	flags := &commands.Flags{}

	app := &cli.Command{
		Name:      "margin",
		Usage:     "Review documents with comments from many providers",
		UsageText: "margin [global options] command [command options]",
		Description: `Margin draws the commenting ranges of every registered comment provider in
a gutter beside the document and keeps their comment threads in sync.

Providers, threads and review steps are described in a scenario file
(YAML, TOML or JSON). Run 'margin view -f scenario.yaml' to open it
interactively or 'margin replay -f scenario.yaml' to print every step.`,
		Version: build(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error, fatal, panic)",
				Sources:     cli.EnvVars("MARGIN_LOG_LEVEL"),
				Value:       "warn",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "log-file",
				Usage:       "path to log file (defaults to stderr)",
				Sources:     cli.EnvVars("MARGIN_LOG_FILE"),
				Destination: &flags.LogFile,
			},
			&cli.StringFlag{
				Name:        "config",
				Aliases:     []string{"c"},
				Usage:       "path to config file",
				Sources:     cli.EnvVars("MARGIN_CONFIG"),
				Value:       commands.DefaultConfigPath(),
				Destination: &flags.ConfigPath,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			logger, stderr, closer, err := logutils.New(flags.LogLevel, flags.LogFile)
			if err != nil {
				return ctx, fmt.Errorf("setup logger: %w", err)
			}
			log.Logger = logger
			logCloser = closer
			flags.Stderr = stderr

			cfg, err := config.Load(flags.ConfigPath)
			if err != nil {
				return ctx, fmt.Errorf("load config: %w", err)
			}
			flags.Config = cfg

			// Apply configured theme (validation ensures name is valid)
			palette, _ := styles.GetPalette(cfg.TUI.Theme)
			styles.SetTheme(palette)

			busCtx, cancel := context.WithCancel(ctx)
			busCancel = cancel

			bus := eventbus.New(busCapacity)
			eventbus.RegisterDebugLogger(bus, logging.Component(log.Logger, "eventbus"))

			flags.App = margin.NewApp(cfg, bus, logging.Component(log.Logger, "margin"))
			flags.App.Start(busCtx)

			return ctx, nil
		},
		After: func(ctx context.Context, c *cli.Command) error {
			if busCancel != nil {
				busCancel()
			}

			// Close log file
			if logCloser != nil {
				logCloser()
			}
			return nil
		},
	}

	app = commands.NewViewCmd(flags).Register(app)
	app = commands.NewShowCmd(flags).Register(app)
	app = commands.NewReplayCmd(flags).Register(app)
	app = commands.NewRangesCmd(flags).Register(app)
	app = commands.NewAddCmd(flags).Register(app)
	app = commands.NewConfigValidateCmd(flags).Register(app)

	exitCode := 0
	runErr := app.Run(ctx, os.Args)
	if runErr != nil {
		fmt.Println()
		fmt.Println(runErr.Error())
		exitCode = 1
	}

	os.Exit(exitCode)
}
