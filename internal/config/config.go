// Package config provides configuration types and defaults for conch.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/zjrosen/conch/internal/log"
)

// Config holds all configuration options for conch.
type Config struct {
	// MaxOutputEntries bounds the printed-output history; oldest entries
	// are evicted first. 0 disables the cap.
	MaxOutputEntries int `mapstructure:"max_output_entries" yaml:"max_output_entries"`

	// HistorySize bounds command recall (up/down arrows).
	HistorySize int `mapstructure:"history_size" yaml:"history_size"`

	// ScrollSpeed is the number of lines per mouse wheel tick.
	ScrollSpeed int `mapstructure:"scroll_speed" yaml:"scroll_speed"`

	// ReplacementChar substitutes undecodable byte sequences typed or
	// pasted into the input.
	ReplacementChar string `mapstructure:"replacement_char" yaml:"replacement_char"`

	Cursor CursorConfig `mapstructure:"cursor" yaml:"cursor"`
	Cell   CellConfig   `mapstructure:"cell" yaml:"cell"`
	Theme  ThemeConfig  `mapstructure:"theme" yaml:"theme"`
}

// CursorConfig selects the cursor variant. Kind is "glyph" or "block"; Glyph
// is the character drawn when Kind is "glyph".
type CursorConfig struct {
	Kind  string `mapstructure:"kind" yaml:"kind"`
	Glyph string `mapstructure:"glyph" yaml:"glyph"`
}

// CellConfig sets the metric the width oracle reports per terminal cell.
// Both default to 1, making pixel space the cell grid.
type CellConfig struct {
	Width  float64 `mapstructure:"width" yaml:"width"`
	Height float64 `mapstructure:"height" yaml:"height"`
}

// ThemeConfig holds color overrides (hex strings).
type ThemeConfig struct {
	Echo      string `mapstructure:"echo" yaml:"echo"`
	Result    string `mapstructure:"result" yaml:"result"`
	Error     string `mapstructure:"error" yaml:"error"`
	Selection string `mapstructure:"selection" yaml:"selection"`
	Muted     string `mapstructure:"muted" yaml:"muted"`
}

// Defaults returns the default configuration.
func Defaults() Config {
	return Config{
		MaxOutputEntries: 500,
		HistorySize:      100,
		ScrollSpeed:      3,
		ReplacementChar:  "?",
		Cursor: CursorConfig{
			Kind:  "glyph",
			Glyph: "|",
		},
		Cell: CellConfig{
			Width:  1,
			Height: 1,
		},
		Theme: ThemeConfig{
			Echo:      "#73F59F",
			Result:    "#CCCCCC",
			Error:     "#FF8787",
			Selection: "#3A5A8C",
			Muted:     "#696969",
		},
	}
}

// Validate rejects configurations the session cannot run with.
func Validate(cfg Config) error {
	if cfg.MaxOutputEntries < 0 {
		return fmt.Errorf("max_output_entries must be >= 0, got %d", cfg.MaxOutputEntries)
	}
	if cfg.HistorySize < 1 {
		return fmt.Errorf("history_size must be >= 1, got %d", cfg.HistorySize)
	}
	if cfg.ScrollSpeed < 1 {
		return fmt.Errorf("scroll_speed must be >= 1, got %d", cfg.ScrollSpeed)
	}
	if cfg.ReplacementChar == "" {
		return fmt.Errorf("replacement_char must not be empty")
	}
	switch cfg.Cursor.Kind {
	case "glyph", "block":
	default:
		return fmt.Errorf("cursor.kind must be %q or %q, got %q", "glyph", "block", cfg.Cursor.Kind)
	}
	if cfg.Cursor.Kind == "glyph" && cfg.Cursor.Glyph == "" {
		return fmt.Errorf("cursor.glyph must not be empty when cursor.kind is glyph")
	}
	if cfg.Cell.Width <= 0 || cfg.Cell.Height <= 0 {
		return fmt.Errorf("cell metrics must be positive, got %gx%g", cfg.Cell.Width, cfg.Cell.Height)
	}
	return nil
}

// WriteDefaultConfig writes the defaults as YAML at configPath, creating
// parent directories as needed.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(Defaults())
	if err != nil {
		return fmt.Errorf("marshaling default config: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
