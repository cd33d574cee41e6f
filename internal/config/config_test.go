package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearConfigEnv() {
	for envVar := range envVarMappings {
		os.Unsetenv(envVar)
	}
	os.Unsetenv("STB_CONFIG_PATH")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1", cfg.Version)
	}

	if cfg.Server.Addr != ":8000" {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, ":8000")
	}

	if len(cfg.Server.CorsOrigins) != 1 || cfg.Server.CorsOrigins[0] != "http://localhost:8050" {
		t.Errorf("Server.CorsOrigins = %v, want [http://localhost:8050]", cfg.Server.CorsOrigins)
	}

	if cfg.Server.AuthEnabled {
		t.Error("Auth should be disabled by default")
	}

	if cfg.Server.MaxSourceBytes <= 0 {
		t.Error("MaxSourceBytes should be positive")
	}
	if cfg.Server.CacheSize <= 0 {
		t.Error("CacheSize should be positive")
	}

	if !cfg.History.Enabled {
		t.Error("History should be enabled by default")
	}

	if cfg.Logging.Format != "human" {
		t.Errorf("Logging.Format = %q, want %q", cfg.Logging.Format, "human")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "info")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults valid", func(c *Config) {}, false},
		{"version 0 unsupported", func(c *Config) { c.Version = 0 }, true},
		{"version 2 unsupported", func(c *Config) { c.Version = 2 }, true},
		{"zero max source bytes", func(c *Config) { c.Server.MaxSourceBytes = 0 }, true},
		{"negative cache size", func(c *Config) { c.Server.CacheSize = -1 }, true},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }, true},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, true},
		{"json format valid", func(c *Config) { c.Logging.Format = "json" }, false},
		{"debug level valid", func(c *Config) { c.Logging.Level = "debug" }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr && err == nil {
				t.Error("Validate() should return error")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() returned unexpected error: %v", err)
			}

			// Check error type
			if err != nil {
				if _, ok := err.(*ConfigError); !ok {
					t.Errorf("Validate() error type = %T, want *ConfigError", err)
				}
			}
		})
	}
}

func TestConfigError_Error(t *testing.T) {
	err := &ConfigError{
		Field:   "version",
		Message: "unsupported config version",
	}

	got := err.Error()
	want := "config error in field 'version': unsupported config version"

	if got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestSupportedConfigVersions(t *testing.T) {
	if len(SupportedConfigVersions) == 0 {
		t.Error("SupportedConfigVersions should not be empty")
	}

	has1 := false
	for _, v := range SupportedConfigVersions {
		if v == 1 {
			has1 = true
		}
	}
	if !has1 {
		t.Error("SupportedConfigVersions should include 1")
	}
}

func TestLoadConfig_Default(t *testing.T) {
	clearConfigEnv()

	// Temp directory without a config file
	tmpDir := t.TempDir()

	cfg, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Version != 1 {
		t.Errorf("Version = %d, want 1 (default)", cfg.Version)
	}
	if cfg.Server.Addr != ":8000" {
		t.Errorf("Server.Addr = %q, want %q (default)", cfg.Server.Addr, ":8000")
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	clearConfigEnv()

	tmpDir := t.TempDir()
	stbDir := filepath.Join(tmpDir, ".stb")
	if err := os.MkdirAll(stbDir, 0755); err != nil {
		t.Fatalf("Failed to create .stb dir: %v", err)
	}

	configContent := `{
		"version": 1,
		"server": {
			"addr": ":9000",
			"authEnabled": true
		},
		"history": {
			"enabled": false
		}
	}`

	configPath := filepath.Join(stbDir, "config.json")
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	if cfg.Server.Addr != ":9000" {
		t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, ":9000")
	}
	if !cfg.Server.AuthEnabled {
		t.Error("Auth should be enabled per config")
	}
	if cfg.History.Enabled {
		t.Error("History should be disabled per config")
	}

	// Unset fields keep their defaults
	if cfg.Server.MaxSourceBytes != DefaultConfig().Server.MaxSourceBytes {
		t.Errorf("MaxSourceBytes = %d, want default %d",
			cfg.Server.MaxSourceBytes, DefaultConfig().Server.MaxSourceBytes)
	}
}

func TestConfig_Save(t *testing.T) {
	clearConfigEnv()

	tmpDir := t.TempDir()
	stbDir := filepath.Join(tmpDir, ".stb")
	if err := os.MkdirAll(stbDir, 0755); err != nil {
		t.Fatalf("Failed to create .stb dir: %v", err)
	}

	cfg := DefaultConfig()
	cfg.Server.CacheSize = 42

	err := cfg.Save(tmpDir)
	if err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	configPath := filepath.Join(stbDir, "config.json")
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		t.Error("Config file was not created")
	}

	// Load it back and verify
	loaded, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig() after save error = %v", err)
	}

	if loaded.Server.CacheSize != 42 {
		t.Errorf("Loaded Server.CacheSize = %d, want 42", loaded.Server.CacheSize)
	}
}

func TestSave_ErrorHandling(t *testing.T) {
	cfg := DefaultConfig()

	// The .stb directory does not exist here
	err := cfg.Save("/nonexistent/directory")
	if err == nil {
		t.Error("Save() should return error when directory doesn't exist")
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	tests := []struct {
		name     string
		envVars  map[string]string
		validate func(t *testing.T, cfg *Config, overrides []EnvOverride)
	}{
		{
			name: "logging level override",
			envVars: map[string]string{
				"STB_LOG_LEVEL": "debug",
			},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Logging.Level != "debug" {
					t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "debug")
				}
				if len(overrides) != 1 {
					t.Errorf("len(overrides) = %d, want 1", len(overrides))
				}
			},
		},
		{
			name: "int override",
			envVars: map[string]string{
				"STB_SERVER_CACHE_SIZE": "512",
			},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Server.CacheSize != 512 {
					t.Errorf("Server.CacheSize = %d, want 512", cfg.Server.CacheSize)
				}
			},
		},
		{
			name: "bool override",
			envVars: map[string]string{
				"STB_SERVER_AUTH_ENABLED": "true",
			},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if !cfg.Server.AuthEnabled {
					t.Error("Server.AuthEnabled should be true")
				}
			},
		},
		{
			name: "multiple overrides",
			envVars: map[string]string{
				"STB_LOG_LEVEL":       "warn",
				"STB_SERVER_ADDR":     ":7070",
				"STB_HISTORY_ENABLED": "false",
			},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if cfg.Logging.Level != "warn" {
					t.Errorf("Logging.Level = %q, want %q", cfg.Logging.Level, "warn")
				}
				if cfg.Server.Addr != ":7070" {
					t.Errorf("Server.Addr = %q, want %q", cfg.Server.Addr, ":7070")
				}
				if cfg.History.Enabled {
					t.Error("History.Enabled should be false")
				}
				if len(overrides) != 3 {
					t.Errorf("len(overrides) = %d, want 3", len(overrides))
				}
			},
		},
		{
			name: "invalid int ignored",
			envVars: map[string]string{
				"STB_SERVER_MAX_SOURCE_BYTES": "not-a-number",
			},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				// Should keep default value
				if cfg.Server.MaxSourceBytes != DefaultConfig().Server.MaxSourceBytes {
					t.Errorf("Server.MaxSourceBytes = %d, want default", cfg.Server.MaxSourceBytes)
				}
				if len(overrides) != 0 {
					t.Errorf("len(overrides) = %d, want 0 (invalid value should be skipped)", len(overrides))
				}
			},
		},
		{
			name: "invalid bool ignored",
			envVars: map[string]string{
				"STB_HISTORY_ENABLED": "not-a-bool",
			},
			validate: func(t *testing.T, cfg *Config, overrides []EnvOverride) {
				if !cfg.History.Enabled {
					t.Error("History.Enabled should keep its default")
				}
				if len(overrides) != 0 {
					t.Errorf("len(overrides) = %d, want 0", len(overrides))
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearConfigEnv()

			for k, v := range tt.envVars {
				os.Setenv(k, v)
			}
			defer func() {
				for k := range tt.envVars {
					os.Unsetenv(k)
				}
			}()

			cfg := DefaultConfig()
			overrides := applyEnvOverrides(cfg)

			tt.validate(t, cfg, overrides)
		})
	}
}

func TestLoadConfigWithDetails(t *testing.T) {
	clearConfigEnv()

	tmpDir := t.TempDir()

	result, err := LoadConfigWithDetails(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfigWithDetails() error = %v", err)
	}

	if !result.UsedDefaults {
		t.Error("UsedDefaults should be true when no config file exists")
	}

	if result.ConfigPath != "" {
		t.Errorf("ConfigPath = %q, want empty string", result.ConfigPath)
	}
}

func TestLoadConfigWithDetails_EnvConfigPath(t *testing.T) {
	clearConfigEnv()

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "custom-config.json")
	configContent := `{
		"version": 1,
		"server": {"cacheSize": 99}
	}`
	if err := os.WriteFile(configPath, []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	os.Setenv("STB_CONFIG_PATH", configPath)
	defer os.Unsetenv("STB_CONFIG_PATH")

	result, err := LoadConfigWithDetails(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfigWithDetails() error = %v", err)
	}

	if result.ConfigPath != configPath {
		t.Errorf("ConfigPath = %q, want %q", result.ConfigPath, configPath)
	}

	if result.Config.Server.CacheSize != 99 {
		t.Errorf("Server.CacheSize = %d, want 99", result.Config.Server.CacheSize)
	}
}

func TestLoadConfigWithDetails_EnvOverridesApplied(t *testing.T) {
	clearConfigEnv()

	tmpDir := t.TempDir()

	os.Setenv("STB_SERVER_CACHE_SIZE", "42")
	os.Setenv("STB_LOG_LEVEL", "error")
	defer func() {
		os.Unsetenv("STB_SERVER_CACHE_SIZE")
		os.Unsetenv("STB_LOG_LEVEL")
	}()

	result, err := LoadConfigWithDetails(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfigWithDetails() error = %v", err)
	}

	if result.Config.Server.CacheSize != 42 {
		t.Errorf("Server.CacheSize = %d, want 42", result.Config.Server.CacheSize)
	}
	if result.Config.Logging.Level != "error" {
		t.Errorf("Logging.Level = %q, want %q", result.Config.Logging.Level, "error")
	}

	if len(result.EnvOverrides) != 2 {
		t.Errorf("len(EnvOverrides) = %d, want 2", len(result.EnvOverrides))
	}
}

func TestLoadConfigWithDetails_FromStandardLocation(t *testing.T) {
	clearConfigEnv()

	tmpDir := t.TempDir()
	stbDir := filepath.Join(tmpDir, ".stb")
	if err := os.MkdirAll(stbDir, 0755); err != nil {
		t.Fatalf("Failed to create .stb dir: %v", err)
	}

	configContent := `{"version": 1, "logging": {"level": "debug"}}`
	if err := os.WriteFile(filepath.Join(stbDir, "config.json"), []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	result, err := LoadConfigWithDetails(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfigWithDetails() error = %v", err)
	}

	if result.UsedDefaults {
		t.Error("UsedDefaults should be false when config file exists")
	}
	if result.ConfigPath == "" {
		t.Error("ConfigPath should be set when config file exists")
	}
	if result.Config.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want %q", result.Config.Logging.Level, "debug")
	}
}

func TestLoadConfigWithDetails_InvalidConfigPath(t *testing.T) {
	clearConfigEnv()

	tmpDir := t.TempDir()

	os.Setenv("STB_CONFIG_PATH", "/nonexistent/config.json")
	defer os.Unsetenv("STB_CONFIG_PATH")

	_, err := LoadConfigWithDetails(tmpDir)
	if err == nil {
		t.Error("LoadConfigWithDetails() should return error for nonexistent STB_CONFIG_PATH")
	}
}

func TestLoadConfigWithDetails_InvalidJSON(t *testing.T) {
	clearConfigEnv()

	tmpDir := t.TempDir()
	stbDir := filepath.Join(tmpDir, ".stb")
	if err := os.MkdirAll(stbDir, 0755); err != nil {
		t.Fatalf("Failed to create .stb dir: %v", err)
	}

	configPath := filepath.Join(stbDir, "config.json")
	if err := os.WriteFile(configPath, []byte("{ invalid }"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	_, err := LoadConfigWithDetails(tmpDir)
	if err == nil {
		t.Error("LoadConfigWithDetails() should return error for invalid JSON config")
	}
}

func TestLoadConfigFromPath_InvalidJSON(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "bad-config.json")

	if err := os.WriteFile(configPath, []byte("{ invalid json }"), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	_, err := loadConfigFromPath(configPath)
	if err == nil {
		t.Error("loadConfigFromPath() should return error for invalid JSON")
	}
}

func TestLoadConfigFromPath_NotFound(t *testing.T) {
	_, err := loadConfigFromPath("/nonexistent/path/config.json")
	if err == nil {
		t.Error("loadConfigFromPath() should return error for nonexistent file")
	}
}

func TestGetSupportedEnvVars(t *testing.T) {
	vars := GetSupportedEnvVars()

	if len(vars) == 0 {
		t.Error("GetSupportedEnvVars() should return non-empty list")
	}

	hasLogLevel := false
	hasConfigPath := false
	for _, v := range vars {
		if v == "STB_LOG_LEVEL" {
			hasLogLevel = true
		}
		if v == "STB_CONFIG_PATH" {
			hasConfigPath = true
		}
	}

	if !hasLogLevel {
		t.Error("GetSupportedEnvVars() should include STB_LOG_LEVEL")
	}
	if !hasConfigPath {
		t.Error("GetSupportedEnvVars() should include STB_CONFIG_PATH")
	}
}

func TestApplyOverride_AllPaths(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		value    interface{}
		validate func(cfg *Config) bool
	}{
		{"logging.level", "logging.level", "debug", func(cfg *Config) bool { return cfg.Logging.Level == "debug" }},
		{"logging.format", "logging.format", "json", func(cfg *Config) bool { return cfg.Logging.Format == "json" }},
		{"server.addr", "server.addr", ":9999", func(cfg *Config) bool { return cfg.Server.Addr == ":9999" }},
		{"server.authEnabled", "server.authEnabled", true, func(cfg *Config) bool { return cfg.Server.AuthEnabled }},
		{"server.maxSourceBytes", "server.maxSourceBytes", 1024, func(cfg *Config) bool { return cfg.Server.MaxSourceBytes == 1024 }},
		{"server.cacheSize", "server.cacheSize", 16, func(cfg *Config) bool { return cfg.Server.CacheSize == 16 }},
		{"history.enabled", "history.enabled", false, func(cfg *Config) bool { return !cfg.History.Enabled }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			result := applyOverride(cfg, tt.path, tt.value)

			if !result {
				t.Errorf("applyOverride() returned false for path %q", tt.path)
			}

			if !tt.validate(cfg) {
				t.Errorf("applyOverride() did not set value correctly for path %q", tt.path)
			}
		})
	}
}

func TestApplyOverride_InvalidPaths(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		value interface{}
	}{
		{"unknown top-level", "unknown", "value"},
		{"incomplete logging path", "logging", "value"},
		{"incomplete server path", "server", 100},
		{"unknown server field", "server.unknown", true},
		// Wrong types
		{"logging.level wrong type", "logging.level", 123},
		{"server.addr wrong type", "server.addr", 123},
		{"server.authEnabled wrong type", "server.authEnabled", "string"},
		{"server.cacheSize wrong type", "server.cacheSize", "string"},
		{"history.enabled wrong type", "history.enabled", "string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			result := applyOverride(cfg, tt.path, tt.value)

			if result {
				t.Errorf("applyOverride() should return false for invalid path %q", tt.path)
			}
		})
	}
}

func TestLoadConfig_WithEnvOverrides(t *testing.T) {
	clearConfigEnv()

	tmpDir := t.TempDir()
	stbDir := filepath.Join(tmpDir, ".stb")
	if err := os.MkdirAll(stbDir, 0755); err != nil {
		t.Fatalf("Failed to create .stb dir: %v", err)
	}

	configContent := `{"version": 1, "server": {"cacheSize": 10}}`
	if err := os.WriteFile(filepath.Join(stbDir, "config.json"), []byte(configContent), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	os.Setenv("STB_SERVER_CACHE_SIZE", "99")
	defer os.Unsetenv("STB_SERVER_CACHE_SIZE")

	cfg, err := LoadConfig(tmpDir)
	if err != nil {
		t.Fatalf("LoadConfig() error = %v", err)
	}

	// Env override beats the file value
	if cfg.Server.CacheSize != 99 {
		t.Errorf("Server.CacheSize = %d, want 99 (from env override)", cfg.Server.CacheSize)
	}
}

func TestLoadConfig_ErrorHandling(t *testing.T) {
	clearConfigEnv()

	os.Setenv("STB_CONFIG_PATH", "/nonexistent/config.json")
	defer os.Unsetenv("STB_CONFIG_PATH")

	_, err := LoadConfig("/tmp")
	if err == nil {
		t.Error("LoadConfig() should return error for invalid STB_CONFIG_PATH")
	}
}

func TestSetValue(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		raw      string
		validate func(cfg *Config) bool
	}{
		{"string value", "logging.level", "debug", func(cfg *Config) bool { return cfg.Logging.Level == "debug" }},
		{"bool value", "history.enabled", "false", func(cfg *Config) bool { return !cfg.History.Enabled }},
		{"bool value true", "server.authEnabled", "true", func(cfg *Config) bool { return cfg.Server.AuthEnabled }},
		{"int value", "server.cacheSize", "32", func(cfg *Config) bool { return cfg.Server.CacheSize == 32 }},
		{"addr value", "server.addr", ":9000", func(cfg *Config) bool { return cfg.Server.Addr == ":9000" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := SetValue(cfg, tt.path, tt.raw); err != nil {
				t.Fatalf("SetValue(%q, %q) error = %v", tt.path, tt.raw, err)
			}
			if !tt.validate(cfg) {
				t.Errorf("SetValue(%q, %q) did not apply", tt.path, tt.raw)
			}
		})
	}
}

func TestSetValue_Errors(t *testing.T) {
	tests := []struct {
		name string
		path string
		raw  string
	}{
		{"unknown path", "server.unknown", "1"},
		{"list path not settable", "server.corsOrigins", "http://x"},
		{"bad int", "server.cacheSize", "lots"},
		{"bad bool", "history.enabled", "maybe"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			if err := SetValue(cfg, tt.path, tt.raw); err == nil {
				t.Errorf("SetValue(%q, %q) should fail", tt.path, tt.raw)
			}
		})
	}
}

func TestGetValue(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.CacheSize = 77

	v, err := GetValue(cfg, "server.cacheSize")
	if err != nil {
		t.Fatalf("GetValue() error = %v", err)
	}
	if v != 77 {
		t.Errorf("GetValue(server.cacheSize) = %v, want 77", v)
	}

	v, err = GetValue(cfg, "history.enabled")
	if err != nil {
		t.Fatalf("GetValue() error = %v", err)
	}
	if v != true {
		t.Errorf("GetValue(history.enabled) = %v, want true", v)
	}

	if _, err := GetValue(cfg, "no.such.path"); err == nil {
		t.Error("GetValue() should fail for unknown path")
	}
}

func TestSettablePaths(t *testing.T) {
	paths := SettablePaths()
	if len(paths) == 0 {
		t.Fatal("SettablePaths() returned no paths")
	}

	// Sorted and round-trippable through SetValue
	for i := 1; i < len(paths); i++ {
		if paths[i-1] >= paths[i] {
			t.Errorf("SettablePaths() not sorted: %q before %q", paths[i-1], paths[i])
		}
	}

	cfg := DefaultConfig()
	for _, p := range paths {
		if _, err := GetValue(cfg, p); err != nil {
			t.Errorf("GetValue(%q) failed for settable path: %v", p, err)
		}
	}
}
