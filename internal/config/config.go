package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the flat relay configuration persisted at .relay/config.json.
type Config struct {
	Version     string   `json:"version"`
	ProjectID   string   `json:"project_id,omitempty"`
	MaxParallel int      `json:"max_parallel,omitempty"`
	Timeout     string   `json:"invocation_timeout,omitempty"` // Go duration string
	WorkerCmd   string   `json:"worker_cmd,omitempty"`
	WorkerArgs  []string `json:"worker_args,omitempty"`
}

// LoadConfig reads .relay/config.json from the specified directory.
// Resolution order: cwd only (no home fallback).
// Returns error if no config found - caller should handle accordingly.
func LoadConfig(dir string) (*Config, error) {
	path := filepath.Join(dir, ".relay", "config.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return &cfg, nil
}

// SaveConfig writes config.json to directory.
func SaveConfig(dir string, cfg *Config) error {
	relayDir := filepath.Join(dir, ".relay")
	if err := os.MkdirAll(relayDir, 0755); err != nil {
		return fmt.Errorf("failed to create .relay dir: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	path := filepath.Join(relayDir, "config.json")
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// Settings are the immutable orchestration knobs, resolved once at startup
// and passed into constructors. There are deliberately no package-level
// mutable globals behind these.
type Settings struct {
	// MaxParallel caps concurrent worker invocations per wave. Paired
	// blind-wall roles count as two against this ceiling.
	MaxParallel int
	// InvocationTimeout converts a hung worker to the never-returned
	// failure path. The source behavior had no ceiling; 30 minutes is the
	// documented default here.
	InvocationTimeout time.Duration
	// ParseRetries is how many corrective re-invocations malformed output
	// earns before the task fails.
	ParseRetries int
	// SpawnRetries is how many clean re-invocations a spawn failure earns.
	SpawnRetries int
	// BugMaxCycles bounds the fix/verify loop per defect.
	BugMaxCycles int
	// DebateMaxCycles bounds plan negotiation rounds between the planner
	// and reviewer roles.
	DebateMaxCycles int
}

// DefaultSettings returns the stock orchestration knobs.
func DefaultSettings() Settings {
	return Settings{
		MaxParallel:       2,
		InvocationTimeout: 30 * time.Minute,
		ParseRetries:      2,
		SpawnRetries:      2,
		BugMaxCycles:      3,
		DebateMaxCycles:   3,
	}
}

// SettingsFromConfig overlays persisted config values onto the defaults.
func SettingsFromConfig(cfg *Config) Settings {
	s := DefaultSettings()
	if cfg == nil {
		return s
	}
	if cfg.MaxParallel > 0 {
		s.MaxParallel = cfg.MaxParallel
	}
	if cfg.Timeout != "" {
		if d, err := time.ParseDuration(cfg.Timeout); err == nil && d > 0 {
			s.InvocationTimeout = d
		}
	}
	return s
}
