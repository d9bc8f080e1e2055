// Package context detects project context from the working directory.
package context

import (
	"os"

	"github.com/example/relay/internal/config"
)

// GetContextProjectID returns the project ID from .relay/config.json in the
// current directory. Returns empty string if no context found - caller
// should handle this (usually by requiring an explicit --project flag).
func GetContextProjectID() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return ""
	}
	return cfg.ProjectID
}

// GetContextConfig returns the full config from the current directory, or
// nil when none exists.
func GetContextConfig() *config.Config {
	dir, err := os.Getwd()
	if err != nil {
		return nil
	}
	cfg, err := config.LoadConfig(dir)
	if err != nil {
		return nil
	}
	return cfg
}
