// Package main provides the CLI entrypoint for fluent.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/fluent/internal/config"
	"github.com/verte-zerg/fluent/internal/drill"
	"github.com/verte-zerg/fluent/internal/model"
	"github.com/verte-zerg/fluent/internal/tui"
)

const (
	defaultFocusFactor = 1.0
	defaultTickMs      = 200
	defaultStatsWindow = 14
	defaultServeAddr   = "127.0.0.1:8080"
	defaultRateLimit   = 60
	defaultLogLevel    = "warn"
)

var (
	rootDBPath     string
	rootConfigPath string
	rootLogLevel   string

	practiceFocusLeast  bool
	practiceFocusFactor float64
	practiceTickMs      int
	practiceAPIKey      string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fluent",
		Short:         "Speaking practice tracker",
		SilenceUsage:  true,
		SilenceErrors: false,
		RunE:          runPracticeCmd,
	}

	rootCmd.PersistentFlags().StringVar(&rootDBPath, "db", "", "database path (default: $XDG_DATA_HOME/fluent/fluent.db)")
	rootCmd.PersistentFlags().StringVar(&rootConfigPath, "config", "", "config file path (default: $XDG_CONFIG_HOME/fluent/config.toml)")
	rootCmd.PersistentFlags().StringVar(&rootLogLevel, "log-level", defaultLogLevel, "log level (debug, info, warn, error, off)")

	rootCmd.Flags().BoolVar(&practiceFocusLeast, "focus-least", false, "show least practised sentences first")
	rootCmd.Flags().Float64Var(&practiceFocusFactor, "focus-factor", defaultFocusFactor, "weight factor for least practised sentences")
	rootCmd.Flags().IntVar(&practiceTickMs, "tick-ms", defaultTickMs, "stopwatch refresh interval in milliseconds")
	rootCmd.Flags().StringVar(&practiceAPIKey, "api-key", "", "speech API key (default: $"+config.EnvAPIKey+")")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newTopicCmd())
	rootCmd.AddCommand(newSentenceCmd())
	rootCmd.AddCommand(newSessionCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newExportCmd())
	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newSpeakCmd())
	rootCmd.AddCommand(newServeCmd())

	return rootCmd
}

func runPracticeCmd(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cmd, appOptions{quiet: true})
	if err != nil {
		return err
	}
	defer a.Close()

	applyBoolConfig(cmd, "focus-least", &practiceFocusLeast, a.fileCfg.Practice.FocusLeast)
	applyFloatConfig(cmd, "focus-factor", &practiceFocusFactor, a.fileCfg.Practice.FocusFactor)
	applyIntConfig(cmd, "tick-ms", &practiceTickMs, a.fileCfg.Practice.TickMs)

	cfg := model.Config{
		FocusLeast:  practiceFocusLeast,
		FocusFactor: practiceFocusFactor,
		TickMs:      practiceTickMs,
	}
	if err := validateConfig(cfg); err != nil {
		return err
	}

	if len(a.store.SelectedSentences()) == 0 {
		logErrln("No sentences selected. Select some with: fluent sentence select <topic-id> <sentence-id>")
	}

	opts := tui.Options{
		AudioDir: config.DefaultAudioDir(),
		Logger:   a.logger,
	}
	if key := a.apiKey(practiceAPIKey); key != "" {
		opts.Speaker = a.speechClient(key)
	}

	m := tui.NewModel(cfg, a.store, drill.New(), opts)
	program := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := configFilePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(config.DefaultFile), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func validateConfig(cfg model.Config) error {
	if cfg.FocusFactor < 0 {
		return fmt.Errorf("--focus-factor must be >= 0")
	}
	if cfg.TickMs <= 0 {
		return fmt.Errorf("--tick-ms must be > 0")
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyBoolConfig(cmd *cobra.Command, name string, target, value *bool) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
