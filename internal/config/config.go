// Package config provides configuration utilities for the application.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// SetDefaults registers the configuration defaults with viper. Called once
// from the CLI before any value is read.
func SetDefaults() {
	viper.SetDefault("database.path", "$HOME/.local/share/shulefees/shulefees.db")
	viper.SetDefault("school.scope", "")
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.format", "console")
}

// DatabasePath returns the configured database location with ~ and
// environment variables expanded.
func DatabasePath() string {
	return ExpandPath(viper.GetString("database.path"))
}

// SchoolScope returns the path prefix namespacing this school's data in a
// shared store. Empty means unscoped.
func SchoolScope() string {
	return viper.GetString("school.scope")
}

// ExpandPath expands ~ and environment variables in a file path.
func ExpandPath(path string) string {
	if path == "" {
		return path
	}

	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	} else if path == "~" {
		if home, err := os.UserHomeDir(); err == nil {
			path = home
		}
	}

	return os.ExpandEnv(path)
}
