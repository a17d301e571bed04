package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestDefaults_AreValid(t *testing.T) {
	require.NoError(t, Validate(Defaults()))
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		errVal string
	}{
		{"negative retention", func(c *Config) { c.MaxOutputEntries = -1 }, "max_output_entries"},
		{"zero history", func(c *Config) { c.HistorySize = 0 }, "history_size"},
		{"zero scroll speed", func(c *Config) { c.ScrollSpeed = 0 }, "scroll_speed"},
		{"empty replacement", func(c *Config) { c.ReplacementChar = "" }, "replacement_char"},
		{"bad cursor kind", func(c *Config) { c.Cursor.Kind = "beam" }, "cursor.kind"},
		{"glyph cursor without glyph", func(c *Config) { c.Cursor.Glyph = "" }, "cursor.glyph"},
		{"zero cell width", func(c *Config) { c.Cell.Width = 0 }, "cell metrics"},
		{"negative cell height", func(c *Config) { c.Cell.Height = -2 }, "cell metrics"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)
			err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.errVal)
		})
	}
}

func TestValidate_BlockCursorNeedsNoGlyph(t *testing.T) {
	cfg := Defaults()
	cfg.Cursor.Kind = "block"
	cfg.Cursor.Glyph = ""
	require.NoError(t, Validate(cfg))
}

func TestValidate_UnboundedRetention(t *testing.T) {
	cfg := Defaults()
	cfg.MaxOutputEntries = 0
	require.NoError(t, Validate(cfg))
}

func TestWriteDefaultConfig_RoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	require.NoError(t, WriteDefaultConfig(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var cfg Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	require.Equal(t, Defaults(), cfg)
}
