package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/conch/internal/config"
	"github.com/zjrosen/conch/internal/console/textbuffer"
	"github.com/zjrosen/conch/internal/eval"
	"github.com/zjrosen/conch/internal/log"
	consoleui "github.com/zjrosen/conch/internal/ui/console"
	"github.com/zjrosen/conch/internal/watcher"
)

func init() {
	// Force lipgloss/termenv to query terminal background color BEFORE
	// any Bubble Tea program starts. This prevents the terminal's OSC 11
	// response from racing with Bubble Tea's input loop and appearing as
	// garbage text in input fields.
	//
	// See: https://github.com/charmbracelet/bubbletea/issues/1036
	_ = lipgloss.HasDarkBackground()
}

var (
	version = "dev"
	cfgFile string
	debug   bool
	cfg     config.Config
)

var rootCmd = &cobra.Command{
	Use:     "conch",
	Short:   "An interactive developer console",
	Long:    `An interactive developer console with a reflowing text buffer: mouse selection across wrapped lines, copy/paste, and command history.`,
	Version: version,
	RunE:    runConsole,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ~/.config/conch/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false,
		"write a debug log and enable buffer consistency checks")
	rootCmd.Flags().Int("scroll-speed", 0,
		"lines scrolled per mouse wheel tick")

	_ = viper.BindPFlag("scroll_speed", rootCmd.Flags().Lookup("scroll-speed"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("max_output_entries", defaults.MaxOutputEntries)
	viper.SetDefault("history_size", defaults.HistorySize)
	viper.SetDefault("scroll_speed", defaults.ScrollSpeed)
	viper.SetDefault("replacement_char", defaults.ReplacementChar)
	viper.SetDefault("cursor.kind", defaults.Cursor.Kind)
	viper.SetDefault("cursor.glyph", defaults.Cursor.Glyph)
	viper.SetDefault("cell.width", defaults.Cell.Width)
	viper.SetDefault("cell.height", defaults.Cell.Height)
	viper.SetDefault("theme.echo", defaults.Theme.Echo)
	viper.SetDefault("theme.result", defaults.Theme.Result)
	viper.SetDefault("theme.error", defaults.Theme.Error)
	viper.SetDefault("theme.selection", defaults.Theme.Selection)
	viper.SetDefault("theme.muted", defaults.Theme.Muted)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .conch/config.yaml (current directory)
		// 2. ~/.config/conch/config.yaml (user config)
		if _, err := os.Stat(".conch/config.yaml"); err == nil {
			viper.SetConfigFile(".conch/config.yaml")
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "conch"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		// No config file found anywhere - create a default one
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			home, homeErr := os.UserHomeDir()
			if homeErr == nil {
				defaultPath := filepath.Join(home, ".config", "conch", "config.yaml")
				if writeErr := config.WriteDefaultConfig(defaultPath); writeErr == nil {
					viper.SetConfigFile(defaultPath)
					_ = viper.ReadInConfig()
				}
			}
			// If write fails, just continue with defaults (no config file)
		}
	}

	_ = viper.Unmarshal(&cfg)
}

func runConsole(cmd *cobra.Command, args []string) error {
	if debug || os.Getenv("CONCH_DEBUG") != "" {
		cleanup, err := log.InitWithTeaLog("conch-debug.log", "conch")
		if err != nil {
			return fmt.Errorf("initializing debug log: %w", err)
		}
		defer cleanup()
		textbuffer.ConsistencyChecks = true
	}

	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	opts := consoleui.Options{
		Config:    cfg,
		Evaluator: eval.NewCalc(),
		Clipboard: consoleui.SystemClipboard{},
	}

	// Watch the config file so theme and metric edits apply live.
	configFilePath := viper.ConfigFileUsed()
	if configFilePath != "" {
		w, err := watcher.New(watcher.Config{
			ConfigPath:  configFilePath,
			DebounceDur: 500 * time.Millisecond,
		})
		if err == nil {
			if ch, startErr := w.Start(); startErr == nil {
				opts.ReloadCh = ch
				opts.Reload = reloadConfig
				defer func() { _ = w.Stop() }()
			} else {
				log.ErrorErr(log.CatWatcher, "config watch failed", startErr)
			}
		}
	}

	zone.NewGlobal()
	defer zone.Close()

	model := consoleui.New(opts)
	p := tea.NewProgram(
		model,
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

func reloadConfig() (config.Config, error) {
	if err := viper.ReadInConfig(); err != nil {
		return config.Config{}, fmt.Errorf("re-reading config: %w", err)
	}
	var fresh config.Config
	if err := viper.Unmarshal(&fresh); err != nil {
		return config.Config{}, fmt.Errorf("decoding config: %w", err)
	}
	return fresh, nil
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags)
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
