package main

import (
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"declgen/internal/config"
	"declgen/internal/logger"
)

var (
	configPath string
	jsonLogs   bool
	logLevel   string
)

var rootCmd = &cobra.Command{
	Use:   "declgen",
	Short: "Generate class stubs from type declaration files",
	Long: `Generate class stubs from TypeScript declaration files (*.d.ts) or
Windows metadata (*.winmd).

Starting from one or more root declarations, every declaration reachable
through base types and member types is emitted exactly once.

Examples:
  declgen generate lib.dom.d.ts --root AesDerivedKeyParams
  declgen generate --config declgen.toml
  declgen dump lib.dom.d.ts --format yaml`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./"+config.DefaultFile+" if present)")
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "Write logs as JSON")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn or error")

	rootCmd.AddCommand(generateCmd, dumpCmd, checkCmd, watchCmd, fetchWinMdCmd)
}

// prepare loads the config file, lets the command override it from its own
// flags and builds the logger.
func prepare(cmd *cobra.Command, override func(*config.Config)) (*config.Config, *zap.SugaredLogger, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}

	flags := cmd.Flags()
	if flags.Changed("json-logs") {
		cfg.Log.JSON = jsonLogs
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	log, err := logger.New(cfg.Log.JSON, cfg.Log.Level)
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}

func loadConfig() (*config.Config, error) {
	if configPath != "" {
		return config.Load(configPath)
	}
	if _, err := os.Stat(config.DefaultFile); err == nil {
		return config.Load(config.DefaultFile)
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, errors.Wrapf(err, "could not stat %s", config.DefaultFile)
	}
	return config.Default(), nil
}
