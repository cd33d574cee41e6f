package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"stb/internal/config"
	"stb/internal/errors"
	"stb/internal/logging"
)

var (
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize STB configuration",
	Long:  "Creates a .stb/ directory with default configuration in the current workspace root",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Force reinitialization (removes existing .stb directory)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	logger := logging.NewLogger(logging.Config{
		Format: logging.HumanFormat,
		Level:  logging.InfoLevel,
	})

	// Get current directory
	cwd, err := os.Getwd()
	if err != nil {
		return errors.NewStbError(errors.InternalError, "Failed to get current directory", err, nil, nil)
	}

	// Check if .stb already exists
	stbDir := filepath.Join(cwd, ".stb")
	if _, statErr := os.Stat(stbDir); statErr == nil {
		if !initForce {
			// Idempotent behavior: already initialized is success (CI-friendly)
			fmt.Println("STB already initialized.")
			fmt.Printf("Configuration at: %s\n", filepath.Join(stbDir, "config.json"))
			fmt.Println("\nRun 'stb init --force' to reinitialize.")
			return nil
		}
		// Remove existing directory
		if removeErr := os.RemoveAll(stbDir); removeErr != nil {
			return errors.NewStbError(errors.InternalError, "Failed to remove existing .stb directory", removeErr, nil, nil)
		}
		logger.Info("Removed existing .stb directory", nil)
	}

	// Create .stb directory
	if mkdirErr := os.MkdirAll(stbDir, 0755); mkdirErr != nil {
		return errors.NewStbError(errors.InternalError, "Failed to create .stb directory", mkdirErr, nil, nil)
	}

	// Write default config file
	cfg := config.DefaultConfig()
	if saveErr := cfg.Save(cwd); saveErr != nil {
		return errors.NewStbError(errors.InternalError, "Failed to write config file", saveErr, nil, nil)
	}

	configPath := filepath.Join(stbDir, "config.json")
	logger.Info("STB initialized successfully", map[string]interface{}{
		"config_path": configPath,
	})

	fmt.Println("STB initialized successfully!")
	fmt.Printf("Configuration written to: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Run 'stb analyze <file.sas>' to analyze a program")
	fmt.Println("  2. Run 'stb serve' to start the HTTP API server")

	return nil
}
