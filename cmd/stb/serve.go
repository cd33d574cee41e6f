package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"stb/internal/api"
	"stb/internal/auth"
	"stb/internal/logging"
	"stb/internal/storage"
)

var (
	serveAddr string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the STB HTTP API server. The server exposes the analyzer over
REST: POST /parse for blueprints, GET /analyses for stored history,
plus health and metrics endpoints for the dashboard frontend.

Configuration comes from .stb/config.json, overridden by STB_*
environment variables and the --addr flag.

Examples:
  stb serve
  stb serve --addr :9000
  STB_HISTORY_ENABLED=false stb serve`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "Listen address (overrides config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	// Load .env before config so STB_* values in it act as env overrides.
	_ = godotenv.Load()

	workspaceRoot := mustGetWorkspaceRoot()

	bootLogger := logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  logging.InfoLevel,
	})
	cfg := loadConfigOrDefaults(workspaceRoot, bootLogger)
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logFormat := logging.HumanFormat
	if cfg.Logging.Format == "json" {
		logFormat = logging.JSONFormat
	}
	logger := logging.NewLogger(logging.Config{
		Format: logFormat,
		Level:  resolveLogLevel(cfg),
	})

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	// Server-lifetime context for background tasks (rate-limit cleanup).
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := api.Options{
		CORSOrigins:    cfg.Server.CorsOrigins,
		MaxSourceBytes: cfg.Server.MaxSourceBytes,
		CacheSize:      cfg.Server.CacheSize,
	}

	// History and auth share the workspace database; open it only when
	// at least one of them needs it.
	if cfg.History.Enabled || cfg.Server.AuthEnabled {
		db, err := storage.Open(workspaceRoot, logger)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()

		if cfg.History.Enabled {
			store, err := storage.NewAnalysisStore(db)
			if err != nil {
				return fmt.Errorf("failed to create analysis store: %w", err)
			}
			opts.Store = store
		}
		if cfg.Server.AuthEnabled {
			managerConfig := auth.DefaultManagerConfig()
			managerConfig.Enabled = true
			managerConfig.RateLimiting.Enabled = true
			manager, err := auth.NewManager(managerConfig, db.Conn(), logger)
			if err != nil {
				return fmt.Errorf("failed to initialize auth: %w", err)
			}
			manager.StartBackgroundTasks(ctx)
			logger.Debug("Auth manager ready", manager.Stats())
			opts.Auth = manager
		}
	}

	server, err := api.NewServer(addr, opts, logger)
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	// Setup graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Start server in a goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("Starting STB HTTP API server", map[string]interface{}{
			"addr":    addr,
			"history": cfg.History.Enabled,
			"auth":    cfg.Server.AuthEnabled,
		})
		fmt.Printf("STB HTTP API server listening on http://%s\n", displayAddr(addr))
		fmt.Println("Press Ctrl+C to stop")
		serverErr <- server.Start()
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErr:
		if err != nil {
			logger.Error("Server error", map[string]interface{}{
				"error": err.Error(),
			})
			return err
		}
	case sig := <-shutdown:
		logger.Info("Received shutdown signal", map[string]interface{}{
			"signal": sig.String(),
		})

		// Create shutdown context with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		// Attempt graceful shutdown
		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Error during shutdown", map[string]interface{}{
				"error": err.Error(),
			})
			return err
		}

		logger.Info("Server stopped gracefully", nil)
	}

	return nil
}

// displayAddr makes a bare ":port" address printable as a URL host.
func displayAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "localhost" + addr
	}
	return addr
}
