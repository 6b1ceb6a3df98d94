package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/verte-zerg/fluent/internal/config"
	"github.com/verte-zerg/fluent/internal/kv"
	"github.com/verte-zerg/fluent/internal/logging"
	"github.com/verte-zerg/fluent/internal/speech"
	"github.com/verte-zerg/fluent/internal/store"
)

type appOptions struct {
	// quiet silences logging unless --log-level is given, and then sends it to
	// the log file instead of stderr.
	quiet  bool
	format logging.Format
}

// app bundles what every command needs: config, logger and the loaded store.
type app struct {
	fileCfg config.FileConfig
	logger  *zap.Logger
	backend *kv.SQLite
	store   *store.Store
	dbPath  string
}

func openApp(cmd *cobra.Command, opts appOptions) (*app, error) {
	if err := config.LoadEnv(config.DefaultEnvPath(), ".env"); err != nil {
		return nil, err
	}
	fileCfg, err := config.LoadConfig(configFilePath())
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	format := opts.format
	if format == "" {
		format = logging.FormatConsole
	}
	logger, err := newLogger(cmd, fileCfg, format, opts.quiet)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	dbPath := resolveDBPath()
	backend, err := kv.OpenSQLite(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	st := store.New(backend, store.WithLogger(logger))
	st.Load(cmd.Context())
	logger.Debug("store ready", zap.String("db", dbPath), zap.Bool("seeded", st.Seeded()))

	return &app{
		fileCfg: fileCfg,
		logger:  logger,
		backend: backend,
		store:   st,
		dbPath:  dbPath,
	}, nil
}

// Close releases the database and flushes the logger.
func (a *app) Close() {
	if err := a.backend.Close(); err != nil {
		logErrf("failed to close db: %v\n", err)
	}
	_ = a.logger.Sync()
}

// apiKey resolves the speech key from flag, environment and config, in that
// order.
func (a *app) apiKey(flagKey string) string {
	if key := strings.TrimSpace(flagKey); key != "" {
		return key
	}
	if key := config.Getenv(config.EnvAPIKey, ""); key != "" {
		return key
	}
	if a.fileCfg.Speech.APIKey != nil {
		return strings.TrimSpace(*a.fileCfg.Speech.APIKey)
	}
	return ""
}

func (a *app) speechClient(key string) *speech.Client {
	client := speech.NewClient(key)
	client.Logger = a.logger.Named("speech")
	if v := a.fileCfg.Speech.Model; v != nil && *v != "" {
		client.Model = *v
	}
	if v := a.fileCfg.Speech.Voice; v != nil && *v != "" {
		client.Voice = *v
	}
	if v := a.fileCfg.Speech.Endpoint; v != nil && *v != "" {
		client.Endpoint = *v
	}
	return client
}

func configFilePath() string {
	if rootConfigPath != "" {
		return rootConfigPath
	}
	return config.DefaultConfigPath()
}

func resolveDBPath() string {
	if rootDBPath != "" {
		return rootDBPath
	}
	return config.Getenv(config.EnvDBPath, config.DefaultDBPath())
}

func newLogger(cmd *cobra.Command, fileCfg config.FileConfig, format logging.Format, quiet bool) (*zap.Logger, error) {
	level := resolveLogLevel(cmd, fileCfg)
	if !quiet {
		return logging.New(level, format)
	}
	if !cmd.Flags().Changed("log-level") {
		return logging.New("off", format)
	}
	return logging.NewFile(level, format, config.DefaultLogPath())
}

// resolveLogLevel prefers the flag, then the environment, then the config file.
func resolveLogLevel(cmd *cobra.Command, fileCfg config.FileConfig) string {
	if cmd.Flags().Changed("log-level") {
		return rootLogLevel
	}
	if v := config.Getenv(config.EnvLogLevel, ""); v != "" {
		return v
	}
	if fileCfg.Log.Level != nil {
		return *fileCfg.Log.Level
	}
	return rootLogLevel
}
