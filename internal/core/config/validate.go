package config

import (
	"fmt"
	"os"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/charmbracelet/lipgloss"
	"github.com/hay-kot/criterio"
)

// ValidateDeep performs comprehensive validation of the configuration
// including glob syntax, glyph widths and file accessibility. The configPath
// argument specifies the config file location to validate (empty string
// skips the config file check). This calls Validate() first for basic
// structural validation.
func (c *Config) ValidateDeep(configPath string) error {
	if err := c.Validate(); err != nil {
		return err
	}

	return criterio.ValidateStruct(
		validateConfigFile(configPath),
		c.validateExclude(),
		c.validateGlyphs(),
	)
}

func validateConfigFile(configPath string) error {
	if configPath == "" {
		return nil
	}

	info, err := os.Stat(configPath)
	if os.IsNotExist(err) {
		return nil // not found is fine, using defaults
	}
	if err != nil {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("cannot access: %w", err))
	}
	if info.IsDir() {
		return criterio.NewFieldErrors("config_file", fmt.Errorf("%s is a directory, not a file", configPath))
	}
	return nil
}

// validateExclude checks exclude patterns are valid doublestar globs.
func (c *Config) validateExclude() error {
	var errs criterio.FieldErrorsBuilder
	for i, pattern := range c.Comments.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			errs = errs.Append(fmt.Sprintf("comments.exclude[%d]", i), fmt.Errorf("invalid glob %q", pattern))
		}
	}
	return errs.ToError()
}

// validateGlyphs checks every gutter glyph occupies exactly one cell.
func (c *Config) validateGlyphs() error {
	var errs criterio.FieldErrorsBuilder
	for name, glyph := range map[string]string{
		"plain":     c.TUI.Glyphs.Plain,
		"hover":     c.TUI.Glyphs.Hover,
		"multiline": c.TUI.Glyphs.Multiline,
		"thread":    c.TUI.Glyphs.Thread,
	} {
		if w := lipgloss.Width(glyph); w != 1 {
			errs = errs.Append("tui.glyphs."+name, fmt.Errorf("glyph %q is %d cells wide, want 1", glyph, w))
		}
	}
	return errs.ToError()
}
