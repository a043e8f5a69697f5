package commands

import (
	"os"
	"path/filepath"

	"github.com/tkarvinen/moodlesync/internal/core/config"
	"github.com/tkarvinen/moodlesync/internal/core/history"
)

type Flags struct {
	LogLevel   string
	LogFile    string
	ConfigPath string
	Root       string

	// Config is loaded in the Before hook and available to all commands
	Config *config.Config

	// History is the shared download cache, opened in the Before hook
	History history.Store
}

// DefaultConfigPath returns the default config file path using XDG_CONFIG_HOME.
func DefaultConfigPath() string {
	configHome := os.Getenv("XDG_CONFIG_HOME")
	if configHome == "" {
		home, _ := os.UserHomeDir()
		configHome = filepath.Join(home, ".config")
	}
	return filepath.Join(configHome, "moodlesync", "config.yaml")
}
