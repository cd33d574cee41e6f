package main

import (
	"os"

	"stb/internal/config"
	"stb/internal/logging"
	"stb/internal/version"

	"github.com/spf13/cobra"
)

var (
	// formatFlag is the CLI --format flag value
	formatFlag string
	// logLevelFlag is the CLI --log-level flag value
	logLevelFlag string
)

var rootCmd = &cobra.Command{
	Use:   "stb",
	Short: "STB - SAS Translation Blueprint",
	Long: `STB (SAS Translation Blueprint) analyzes SAS programs without executing them
and produces a translation-readiness blueprint: construct counts, dataset flow,
complexity flags, and a prioritized effort estimate for migration planning.`,
	Version: version.Version,
}

func init() {
	rootCmd.SetVersionTemplate("STB version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&formatFlag, "format", "human",
		"Output format: json, yaml, or human")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "",
		"Log level: debug, info, warn, or error (default: info)")
}

// resolveLogLevel determines the effective log level from CLI flag, env var, and config.
// Precedence: CLI flag > STB_LOG_LEVEL env var > config.json logging.level > info
func resolveLogLevel(cfg *config.Config) logging.LogLevel {
	// 1. CLI flag (highest priority)
	if logLevelFlag != "" {
		return parseLogLevel(logLevelFlag)
	}

	// 2. Environment variable
	if env := os.Getenv("STB_LOG_LEVEL"); env != "" {
		return parseLogLevel(env)
	}

	// 3. Config file default
	if cfg != nil && cfg.Logging.Level != "" {
		return parseLogLevel(cfg.Logging.Level)
	}

	// 4. Default
	return logging.InfoLevel
}

func parseLogLevel(s string) logging.LogLevel {
	switch s {
	case "debug":
		return logging.DebugLevel
	case "warn":
		return logging.WarnLevel
	case "error":
		return logging.ErrorLevel
	default:
		return logging.InfoLevel
	}
}
