package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"stb/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage STB configuration",
	Long:  "View and manage STB configuration stored in .stb/config.json",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Display the current STB configuration with its sources: the config
file, environment overrides, and defaults.

Examples:
  stb config show
  stb config show --format=json`,
	Run: runConfigShow,
}

var configEnvCmd = &cobra.Command{
	Use:   "env",
	Short: "List supported environment variables",
	Long:  "Display all supported STB environment variable overrides",
	Run:   runConfigEnv,
}

var configGetCmd = &cobra.Command{
	Use:   "get <path>",
	Short: "Get one configuration value",
	Long: `Print a single configuration value by its dotted path.

Examples:
  stb config get server.addr
  stb config get history.enabled`,
	Args: cobra.ExactArgs(1),
	Run:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <path> <value>",
	Short: "Set one configuration value",
	Long: `Set a configuration value and write it back to .stb/config.json.

Environment overrides are not persisted: set reads the file, applies
the change, and saves, so a transient STB_* variable never ends up in
the config file.

Settable paths:
  ` + strings.Join(config.SettablePaths(), "\n  ") + `

Examples:
  stb config set history.enabled false
  stb config set server.addr :9000
  stb config set logging.level debug`,
	Args: cobra.ExactArgs(2),
	Run:  runConfigSet,
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configEnvCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

// ConfigShowResponse is the response format for config show
type ConfigShowResponse struct {
	ConfigPath   string                 `json:"configPath,omitempty"`
	UsedDefaults bool                   `json:"usedDefaults"`
	EnvOverrides []config.EnvOverride   `json:"envOverrides,omitempty"`
	Config       map[string]interface{} `json:"config"`
}

func runConfigShow(cmd *cobra.Command, args []string) {
	workspaceRoot := mustGetWorkspaceRoot()

	result, err := config.LoadConfigWithDetails(workspaceRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if formatFlag == "human" {
		outputConfigHuman(result)
		return
	}

	configBytes, err := json.Marshal(result.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error marshaling config: %v\n", err)
		os.Exit(1)
	}
	var configMap map[string]interface{}
	if err := json.Unmarshal(configBytes, &configMap); err != nil {
		fmt.Fprintf(os.Stderr, "Error unmarshaling config: %v\n", err)
		os.Exit(1)
	}

	resp := &ConfigShowResponse{
		ConfigPath:   result.ConfigPath,
		UsedDefaults: result.UsedDefaults,
		EnvOverrides: result.EnvOverrides,
		Config:       configMap,
	}

	output, err := FormatResponse(resp, OutputFormat(formatFlag))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error formatting output: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(output)
}

func outputConfigHuman(result *config.LoadResult) {
	fmt.Println("STB Configuration")
	fmt.Println(strings.Repeat("─", 50))

	if result.UsedDefaults {
		fmt.Println("Source: defaults (no config file found)")
	} else if result.ConfigPath != "" {
		fmt.Printf("Source: %s\n", result.ConfigPath)
	}

	if len(result.EnvOverrides) > 0 {
		fmt.Println("\nEnvironment Overrides:")
		for _, ov := range result.EnvOverrides {
			fmt.Printf("  %s=%s → %s\n", ov.EnvVar, ov.Value, ov.Path)
		}
	}

	fmt.Println()

	cfg := result.Config
	defaults := config.DefaultConfig()

	printConfigSection("version", cfg.Version, defaults.Version)

	fmt.Println("\nserver:")
	printConfigSection("  addr", cfg.Server.Addr, defaults.Server.Addr)
	printConfigSection("  corsOrigins", cfg.Server.CorsOrigins, defaults.Server.CorsOrigins)
	printConfigSection("  authEnabled", cfg.Server.AuthEnabled, defaults.Server.AuthEnabled)
	printConfigSection("  maxSourceBytes", cfg.Server.MaxSourceBytes, defaults.Server.MaxSourceBytes)
	printConfigSection("  cacheSize", cfg.Server.CacheSize, defaults.Server.CacheSize)

	fmt.Println("\nhistory:")
	printConfigSection("  enabled", cfg.History.Enabled, defaults.History.Enabled)

	fmt.Println("\nlogging:")
	printConfigSection("  level", cfg.Logging.Level, defaults.Logging.Level)
	printConfigSection("  format", cfg.Logging.Format, defaults.Logging.Format)

	fmt.Println()
	fmt.Println("Use 'stb config show --format=json' for full configuration")
	fmt.Println("Use 'stb config env' to see supported environment variables")
}

func printConfigSection(name string, value, defaultValue interface{}) {
	modified := ""
	if !isEqual(value, defaultValue) {
		modified = fmt.Sprintf(" (default: %v)", defaultValue)
	}
	fmt.Printf("%s: %v%s\n", name, value, modified)
}

func isEqual(a, b interface{}) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

func runConfigEnv(cmd *cobra.Command, args []string) {
	fmt.Println("Supported STB Environment Variables")
	fmt.Println(strings.Repeat("─", 50))
	fmt.Println()

	categories := map[string][]envVarInfo{
		"General": {
			{"STB_CONFIG_PATH", "Path to config file", "string"},
		},
		"Logging": {
			{"STB_LOG_LEVEL", "Log level (debug, info, warn, error)", "string"},
			{"STB_LOG_FORMAT", "Log format (human, json)", "string"},
			{"STB_LOGGING_LEVEL", "Alias for STB_LOG_LEVEL", "string"},
			{"STB_LOGGING_FORMAT", "Alias for STB_LOG_FORMAT", "string"},
		},
		"Server": {
			{"STB_SERVER_ADDR", "HTTP listen address", "string"},
			{"STB_SERVER_AUTH_ENABLED", "Require API key authentication", "bool"},
			{"STB_SERVER_MAX_SOURCE_BYTES", "Maximum accepted source size", "int"},
			{"STB_SERVER_CACHE_SIZE", "Blueprint cache entries", "int"},
		},
		"History": {
			{"STB_HISTORY_ENABLED", "Persist analyses to the history database", "bool"},
		},
	}

	order := []string{"General", "Logging", "Server", "History"}
	for _, cat := range order {
		vars := categories[cat]
		fmt.Printf("%s:\n", cat)
		for _, v := range vars {
			fmt.Printf("  %-30s %s (%s)\n", v.name, v.desc, v.varType)
		}
		fmt.Println()
	}

	fmt.Println("Example usage:")
	fmt.Println("  STB_LOG_LEVEL=debug stb serve")
	fmt.Println("  STB_HISTORY_ENABLED=false stb serve")
	fmt.Println("  STB_CONFIG_PATH=/etc/stb/config.json stb serve")
}

type envVarInfo struct {
	name    string
	desc    string
	varType string
}

func runConfigGet(cmd *cobra.Command, args []string) {
	workspaceRoot := mustGetWorkspaceRoot()
	path := args[0]

	result, err := config.LoadConfigWithDetails(workspaceRoot)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	value, err := config.GetValue(result.Config, path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if formatFlag == "human" {
		fmt.Printf("%v\n", value)
	} else {
		printJSON(map[string]interface{}{path: value})
	}
}

func runConfigSet(cmd *cobra.Command, args []string) {
	workspaceRoot := mustGetWorkspaceRoot()
	path, value := args[0], args[1]

	cfg, err := config.LoadFileConfig(workspaceRoot)
	if err != nil {
		if os.IsNotExist(err) {
			fmt.Fprintln(os.Stderr, "Error: no configuration found; run 'stb init' first")
		} else {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		}
		os.Exit(1)
	}

	if err := config.SetValue(cfg, path, value); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Save(workspaceRoot); err != nil {
		fmt.Fprintf(os.Stderr, "Error saving config: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("%s = %s\n", path, value)
}
