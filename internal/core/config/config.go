// Package config handles configuration loading and validation for margin.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/colonyops/margin/internal/core/comment"
	"github.com/colonyops/margin/internal/core/styles"
)

// DefaultDebounce is the delay between a document edit and the commenting
// range refresh.
const DefaultDebounce = 200 * time.Millisecond

// Config holds the application configuration.
type Config struct {
	Comments CommentsConfig `yaml:"comments"`
	TUI      TUIConfig      `yaml:"tui"`
}

// CommentsConfig configures the comment engines.
type CommentsConfig struct {
	// Enabled switches commenting on or off globally. nil means enabled.
	Enabled  *bool         `yaml:"enabled"`
	OpenView string        `yaml:"open_view"`
	Debounce time.Duration `yaml:"debounce"`
	// Exclude lists doublestar globs of document paths without commenting.
	Exclude []string `yaml:"exclude"`
}

// TUIConfig configures rendering.
type TUIConfig struct {
	Theme  string `yaml:"theme"`
	Glyphs Glyphs `yaml:"glyphs"`
}

// Glyphs are the gutter markers drawn for each claim category and for
// threads.
type Glyphs struct {
	Plain     string `yaml:"plain"`
	Hover     string `yaml:"hover"`
	Multiline string `yaml:"multiline"`
	Thread    string `yaml:"thread"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Comments: CommentsConfig{
			OpenView: string(comment.OpenViewFirstFile),
			Debounce: DefaultDebounce,
			Exclude:  []string{},
		},
		TUI: TUIConfig{
			Theme: styles.DefaultTheme,
			Glyphs: Glyphs{
				Plain:     "│",
				Hover:     "+",
				Multiline: "┃",
				Thread:    "●",
			},
		},
	}
}

// Load reads configuration from the given path.
// If configPath is empty or doesn't exist, returns defaults.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Comments.OpenView == "" {
		c.Comments.OpenView = defaults.Comments.OpenView
	}
	if c.Comments.Debounce == 0 {
		c.Comments.Debounce = defaults.Comments.Debounce
	}

	if c.TUI.Theme == "" {
		c.TUI.Theme = defaults.TUI.Theme
	}

	g, d := &c.TUI.Glyphs, defaults.TUI.Glyphs
	if g.Plain == "" {
		g.Plain = d.Plain
	}
	if g.Hover == "" {
		g.Hover = d.Hover
	}
	if g.Multiline == "" {
		g.Multiline = d.Multiline
	}
	if g.Thread == "" {
		g.Thread = d.Thread
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if _, err := comment.ParseOpenViewPolicy(c.Comments.OpenView); err != nil {
		return fmt.Errorf("comments.open_view: %w", err)
	}

	if c.Comments.Debounce < 0 {
		return fmt.Errorf("comments.debounce cannot be negative")
	}

	if _, ok := styles.GetPalette(c.TUI.Theme); !ok {
		return fmt.Errorf("tui.theme: unknown theme %q (available: %s)", c.TUI.Theme, strings.Join(styles.ThemeNames(), ", "))
	}

	return nil
}

// CommentingEnabled reports whether commenting starts switched on.
func (c *Config) CommentingEnabled() bool {
	return c.Comments.Enabled == nil || *c.Comments.Enabled
}

// OpenViewPolicy returns the configured panel policy.
func (c *Config) OpenViewPolicy() comment.OpenViewPolicy {
	return comment.OpenViewPolicy(c.Comments.OpenView)
}
