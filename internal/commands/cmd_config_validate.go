package commands

import (
	"context"
	"errors"

	"github.com/hay-kot/criterio"
	"github.com/urfave/cli/v3"

	"github.com/colonyops/margin/internal/printer"
	"github.com/colonyops/margin/pkg/iojson"
)

type ConfigValidateCmd struct {
	flags  *Flags
	format string
}

// NewConfigValidateCmd creates a new config validate command.
func NewConfigValidateCmd(flags *Flags) *ConfigValidateCmd {
	return &ConfigValidateCmd{flags: flags}
}

// Register adds the config validate command to the application.
func (cmd *ConfigValidateCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:  "config",
		Usage: "Configuration management commands",
		Commands: []*cli.Command{
			{
				Name:        "validate",
				Usage:       "Validate configuration file",
				UsageText:   "margin config validate [options]",
				Description: "Validates the configuration file, checking the open_view policy, exclude globs and gutter glyph widths.",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:        "format",
						Usage:       "output format (text, json)",
						Value:       "text",
						Destination: &cmd.format,
					},
				},
				Action: cmd.run,
			},
		},
	})

	return app
}

type validationError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

func (cmd *ConfigValidateCmd) run(ctx context.Context, c *cli.Command) error {
	errs := collectErrors(cmd.flags.Config.ValidateDeep(cmd.flags.ConfigPath))

	if cmd.format == "json" {
		out := struct {
			Valid  bool              `json:"valid"`
			Errors []validationError `json:"errors,omitempty"`
		}{Valid: len(errs) == 0, Errors: errs}
		if err := iojson.WriteWith(c.Root().Writer, c.Root().ErrWriter, out); err != nil {
			return err
		}
		if len(errs) > 0 {
			return cli.Exit("", 1)
		}
		return nil
	}

	p := printer.Ctx(ctx)
	for _, e := range errs {
		if e.Field != "" {
			p.Errorf("%s: %s", e.Field, e.Message)
			continue
		}
		p.Errorf("%s", e.Message)
	}

	if len(errs) == 0 {
		p.Successf("Configuration is valid")
		return nil
	}

	p.Printf("")
	p.Errorf("%d error(s) found", len(errs))
	return cli.Exit("", 1)
}

func collectErrors(err error) []validationError {
	if err == nil {
		return nil
	}

	var fieldErrs criterio.FieldErrors
	if !errors.As(err, &fieldErrs) {
		return []validationError{{Message: err.Error()}}
	}

	out := make([]validationError, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		out = append(out, validationError{Field: fe.Field, Message: fe.Err.Error()})
	}
	return out
}
