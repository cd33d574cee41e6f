package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/spf13/viper"
)

// SupportedConfigVersions lists the config schema versions this build can load.
var SupportedConfigVersions = []int{1}

// Config represents the complete STB configuration (v1 schema)
type Config struct {
	Version int `json:"version" mapstructure:"version"`

	Server  ServerConfig  `json:"server" mapstructure:"server"`
	History HistoryConfig `json:"history" mapstructure:"history"`
	Logging LoggingConfig `json:"logging" mapstructure:"logging"`
}

// ServerConfig contains HTTP API configuration
type ServerConfig struct {
	Addr           string   `json:"addr" mapstructure:"addr"`
	CorsOrigins    []string `json:"corsOrigins" mapstructure:"corsOrigins"`
	AuthEnabled    bool     `json:"authEnabled" mapstructure:"authEnabled"`
	MaxSourceBytes int      `json:"maxSourceBytes" mapstructure:"maxSourceBytes"`
	CacheSize      int      `json:"cacheSize" mapstructure:"cacheSize"`
}

// HistoryConfig controls persistence of analysis results
type HistoryConfig struct {
	Enabled bool `json:"enabled" mapstructure:"enabled"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Format string `json:"format" mapstructure:"format"`
	Level  string `json:"level" mapstructure:"level"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		Version: 1,
		Server: ServerConfig{
			Addr:           ":8000",
			CorsOrigins:    []string{"http://localhost:8050"},
			AuthEnabled:    false,
			MaxSourceBytes: 5000000,
			CacheSize:      256,
		},
		History: HistoryConfig{
			Enabled: true,
		},
		Logging: LoggingConfig{
			Format: "human",
			Level:  "info",
		},
	}
}

// EnvOverride records a configuration value replaced from the environment.
type EnvOverride struct {
	EnvVar string
	Path   string
	Value  string
}

// LoadResult carries the loaded config plus provenance details for diagnostics.
type LoadResult struct {
	Config       *Config
	UsedDefaults bool
	ConfigPath   string
	EnvOverrides []EnvOverride
}

type envValueKind int

const (
	envString envValueKind = iota
	envInt
	envBool
)

type envMapping struct {
	path string
	kind envValueKind
}

// envVarMappings maps STB_* environment variables onto config paths.
var envVarMappings = map[string]envMapping{
	"STB_LOG_LEVEL":               {"logging.level", envString},
	"STB_LOG_FORMAT":              {"logging.format", envString},
	"STB_LOGGING_LEVEL":           {"logging.level", envString},
	"STB_LOGGING_FORMAT":          {"logging.format", envString},
	"STB_SERVER_ADDR":             {"server.addr", envString},
	"STB_SERVER_AUTH_ENABLED":     {"server.authEnabled", envBool},
	"STB_SERVER_MAX_SOURCE_BYTES": {"server.maxSourceBytes", envInt},
	"STB_SERVER_CACHE_SIZE":       {"server.cacheSize", envInt},
	"STB_HISTORY_ENABLED":         {"history.enabled", envBool},
}

// GetSupportedEnvVars returns the sorted list of recognized environment variables.
func GetSupportedEnvVars() []string {
	vars := make([]string, 0, len(envVarMappings)+1)
	for k := range envVarMappings {
		vars = append(vars, k)
	}
	vars = append(vars, "STB_CONFIG_PATH")
	sort.Strings(vars)
	return vars
}

// LoadConfig loads configuration from .stb/config.json, applying STB_* env overrides.
func LoadConfig(repoRoot string) (*Config, error) {
	result, err := LoadConfigWithDetails(repoRoot)
	if err != nil {
		return nil, err
	}
	return result.Config, nil
}

// LoadConfigWithDetails loads configuration and reports where each value came from.
// Resolution order: STB_CONFIG_PATH, then <repoRoot>/.stb/config.json, then defaults.
// Environment overrides are applied last.
func LoadConfigWithDetails(repoRoot string) (*LoadResult, error) {
	result := &LoadResult{}

	if envPath := os.Getenv("STB_CONFIG_PATH"); envPath != "" {
		cfg, err := loadConfigFromPath(envPath)
		if err != nil {
			return nil, err
		}
		result.Config = cfg
		result.ConfigPath = envPath
	} else {
		standardPath := filepath.Join(repoRoot, ".stb", "config.json")
		if _, err := os.Stat(standardPath); err == nil {
			cfg, err := loadConfigFromPath(standardPath)
			if err != nil {
				return nil, err
			}
			result.Config = cfg
			result.ConfigPath = standardPath
		} else {
			result.Config = DefaultConfig()
			result.UsedDefaults = true
		}
	}

	result.EnvOverrides = applyEnvOverrides(result.Config)
	return result, nil
}

// LoadFileConfig loads <repoRoot>/.stb/config.json without applying
// environment overrides. Editing commands use it so transient STB_*
// values are never written back to the file. A missing file surfaces
// as an os.IsNotExist error.
func LoadFileConfig(repoRoot string) (*Config, error) {
	standardPath := filepath.Join(repoRoot, ".stb", "config.json")
	if _, err := os.Stat(standardPath); err != nil {
		return nil, err
	}
	return loadConfigFromPath(standardPath)
}

// loadConfigFromPath reads a single config file, merging over defaults.
func loadConfigFromPath(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// setDefaults seeds viper so partial config files inherit unset values.
func setDefaults(v *viper.Viper) {
	def := DefaultConfig()
	v.SetDefault("version", def.Version)
	v.SetDefault("server.addr", def.Server.Addr)
	v.SetDefault("server.corsOrigins", def.Server.CorsOrigins)
	v.SetDefault("server.authEnabled", def.Server.AuthEnabled)
	v.SetDefault("server.maxSourceBytes", def.Server.MaxSourceBytes)
	v.SetDefault("server.cacheSize", def.Server.CacheSize)
	v.SetDefault("history.enabled", def.History.Enabled)
	v.SetDefault("logging.format", def.Logging.Format)
	v.SetDefault("logging.level", def.Logging.Level)
}

// applyEnvOverrides applies STB_* environment variables to cfg and returns
// the overrides that took effect. Variables with unparseable values are skipped.
func applyEnvOverrides(cfg *Config) []EnvOverride {
	var overrides []EnvOverride

	// Deterministic application order.
	names := make([]string, 0, len(envVarMappings))
	for name := range envVarMappings {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		raw, ok := os.LookupEnv(name)
		if !ok || raw == "" {
			continue
		}

		mapping := envVarMappings[name]
		var value interface{}
		switch mapping.kind {
		case envString:
			value = raw
		case envInt:
			n, err := strconv.Atoi(raw)
			if err != nil {
				continue
			}
			value = n
		case envBool:
			b, err := strconv.ParseBool(raw)
			if err != nil {
				continue
			}
			value = b
		}

		if applyOverride(cfg, mapping.path, value) {
			overrides = append(overrides, EnvOverride{
				EnvVar: name,
				Path:   mapping.path,
				Value:  raw,
			})
		}
	}

	return overrides
}

// applyOverride sets a single config value by dotted path. Returns false for
// unknown paths or mismatched value types.
func applyOverride(cfg *Config, path string, value interface{}) bool {
	switch path {
	case "logging.level":
		s, ok := value.(string)
		if !ok {
			return false
		}
		cfg.Logging.Level = s
	case "logging.format":
		s, ok := value.(string)
		if !ok {
			return false
		}
		cfg.Logging.Format = s
	case "server.addr":
		s, ok := value.(string)
		if !ok {
			return false
		}
		cfg.Server.Addr = s
	case "server.authEnabled":
		b, ok := value.(bool)
		if !ok {
			return false
		}
		cfg.Server.AuthEnabled = b
	case "server.maxSourceBytes":
		n, ok := value.(int)
		if !ok {
			return false
		}
		cfg.Server.MaxSourceBytes = n
	case "server.cacheSize":
		n, ok := value.(int)
		if !ok {
			return false
		}
		cfg.Server.CacheSize = n
	case "history.enabled":
		b, ok := value.(bool)
		if !ok {
			return false
		}
		cfg.History.Enabled = b
	default:
		return false
	}
	return true
}

// settablePaths maps dotted config paths accepted by SetValue to their
// value kinds. corsOrigins is list-valued and must be edited in the file.
var settablePaths = map[string]envValueKind{
	"logging.level":         envString,
	"logging.format":        envString,
	"server.addr":           envString,
	"server.authEnabled":    envBool,
	"server.maxSourceBytes": envInt,
	"server.cacheSize":      envInt,
	"history.enabled":       envBool,
}

// SettablePaths returns the sorted list of dotted paths SetValue accepts.
func SettablePaths() []string {
	paths := make([]string, 0, len(settablePaths))
	for p := range settablePaths {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// SetValue parses raw according to the path's value kind and applies it
// to cfg. Unknown paths and unparseable values return a ConfigError.
func SetValue(cfg *Config, path, raw string) error {
	kind, ok := settablePaths[path]
	if !ok {
		return &ConfigError{Field: path, Message: "unknown configuration path"}
	}

	var value interface{}
	switch kind {
	case envString:
		value = raw
	case envInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return &ConfigError{Field: path, Message: "must be an integer"}
		}
		value = n
	case envBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return &ConfigError{Field: path, Message: "must be true or false"}
		}
		value = b
	}

	if !applyOverride(cfg, path, value) {
		return &ConfigError{Field: path, Message: "unknown configuration path"}
	}
	return nil
}

// GetValue returns the current value at a dotted config path.
func GetValue(cfg *Config, path string) (interface{}, error) {
	switch path {
	case "version":
		return cfg.Version, nil
	case "logging.level":
		return cfg.Logging.Level, nil
	case "logging.format":
		return cfg.Logging.Format, nil
	case "server.addr":
		return cfg.Server.Addr, nil
	case "server.corsOrigins":
		return cfg.Server.CorsOrigins, nil
	case "server.authEnabled":
		return cfg.Server.AuthEnabled, nil
	case "server.maxSourceBytes":
		return cfg.Server.MaxSourceBytes, nil
	case "server.cacheSize":
		return cfg.Server.CacheSize, nil
	case "history.enabled":
		return cfg.History.Enabled, nil
	default:
		return nil, &ConfigError{Field: path, Message: "unknown configuration path"}
	}
}

// Save writes the configuration to .stb/config.json
func (c *Config) Save(repoRoot string) error {
	configPath := filepath.Join(repoRoot, ".stb", "config.json")

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(configPath, data, 0644)
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	supported := false
	for _, v := range SupportedConfigVersions {
		if c.Version == v {
			supported = true
			break
		}
	}
	if !supported {
		return &ConfigError{Field: "version", Message: "unsupported config version"}
	}

	if c.Server.MaxSourceBytes <= 0 {
		return &ConfigError{Field: "server.maxSourceBytes", Message: "must be positive"}
	}
	if c.Server.CacheSize <= 0 {
		return &ConfigError{Field: "server.cacheSize", Message: "must be positive"}
	}

	switch c.Logging.Format {
	case "json", "human":
	default:
		return &ConfigError{Field: "logging.format", Message: "must be 'json' or 'human'"}
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return &ConfigError{Field: "logging.level", Message: "must be one of debug, info, warn, error"}
	}

	return nil
}

// ConfigError represents a configuration error
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return "config error in field '" + e.Field + "': " + e.Message
}
