package main

import (
	"encoding/json"
	"fmt"
	"os"

	"stb/internal/auth"
	"stb/internal/config"
	"stb/internal/logging"
	"stb/internal/storage"
)

// getWorkspaceRoot returns the workspace root directory.
func getWorkspaceRoot() (string, error) {
	return os.Getwd()
}

// mustGetWorkspaceRoot returns the workspace root or exits on error.
func mustGetWorkspaceRoot() string {
	workspaceRoot, err := getWorkspaceRoot()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	return workspaceRoot
}

// loadConfigOrDefaults loads the workspace configuration, falling back to
// defaults when no config file exists or loading fails.
func loadConfigOrDefaults(workspaceRoot string, logger *logging.Logger) *config.Config {
	cfg, err := config.LoadConfig(workspaceRoot)
	if err != nil {
		logger.Warn("Failed to load config, using defaults", map[string]interface{}{
			"error": err.Error(),
		})
		cfg = config.DefaultConfig()
	}
	return cfg
}

// mustOpenStore opens the workspace history database or exits on error.
// Callers own the returned DB and must Close it.
func mustOpenStore(workspaceRoot string, logger *logging.Logger) (*storage.DB, *storage.AnalysisStore) {
	db, err := storage.Open(workspaceRoot, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening history database: %v\n", err)
		os.Exit(1)
	}
	store, err := storage.NewAnalysisStore(db)
	if err != nil {
		db.Close()
		fmt.Fprintf(os.Stderr, "Error opening history database: %v\n", err)
		os.Exit(1)
	}
	return db, store
}

// mustGetAuthManager opens the workspace database and builds an API key
// manager backed by it, or exits on error. Keys share the history database.
func mustGetAuthManager(workspaceRoot string, logger *logging.Logger) (*storage.DB, *auth.Manager) {
	db, err := storage.Open(workspaceRoot, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}

	managerConfig := auth.DefaultManagerConfig()
	managerConfig.Enabled = true

	manager, err := auth.NewManager(managerConfig, db.Conn(), logger)
	if err != nil {
		db.Close()
		fmt.Fprintf(os.Stderr, "Error initializing key manager: %v\n", err)
		os.Exit(1)
	}
	return db, manager
}

// newLogger creates a logger with the specified format, honoring --log-level.
func newLogger(format string) *logging.Logger {
	logFormat := logging.HumanFormat
	if format == "json" {
		logFormat = logging.JSONFormat
	}
	return logging.NewLogger(logging.Config{
		Format: logFormat,
		Level:  resolveLogLevel(nil),
	})
}

// printJSON outputs data as formatted JSON
func printJSON(data interface{}) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}
