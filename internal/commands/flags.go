package commands

import (
	"os"
	"path/filepath"

	"github.com/colonyops/margin/internal/core/config"
	"github.com/colonyops/margin/internal/margin"
	"github.com/colonyops/margin/pkg/utils"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config

	// Stderr carries console log output
	Stderr *utils.DeferredWriter

	// App is built in the Before hook once the config is loaded
	App *margin.App
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "margin", "config.yaml")
}
