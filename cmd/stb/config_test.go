package main

import (
	"bytes"
	"os"
	"strings"
	"testing"

	"stb/internal/config"
)

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("failed to create pipe: %v", err)
	}
	os.Stdout = w

	fn()

	w.Close()
	os.Stdout = old

	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func TestIsEqual(t *testing.T) {
	tests := []struct {
		name string
		a    interface{}
		b    interface{}
		want bool
	}{
		{"equal strings", "hello", "hello", true},
		{"different strings", "hello", "world", false},
		{"equal ints", 42, 42, true},
		{"different ints", 42, 43, false},
		{"equal bools", true, true, true},
		{"different bools", true, false, false},
		{"int vs string representation", 42, "42", true}, // fmt.Sprintf behavior
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := isEqual(tt.a, tt.b)
			if got != tt.want {
				t.Errorf("isEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestPrintConfigSection(t *testing.T) {
	output := captureStdout(t, func() {
		printConfigSection("test.key", "value", "value")
	})

	// Should not show "(default: ...)" when values match
	if strings.Contains(output, "(default:") {
		t.Errorf("printConfigSection() should not show default marker when values match")
	}
	if !strings.Contains(output, "test.key: value") {
		t.Errorf("printConfigSection() output = %q, should contain key and value", output)
	}

	output = captureStdout(t, func() {
		printConfigSection("modified.key", "newvalue", "oldvalue")
	})

	if !strings.Contains(output, "(default: oldvalue)") {
		t.Errorf("printConfigSection() should show default marker when values differ, got: %q", output)
	}
}

func TestOutputConfigHuman(t *testing.T) {
	result := &config.LoadResult{
		Config:       config.DefaultConfig(),
		ConfigPath:   "/path/to/config.json",
		UsedDefaults: false,
		EnvOverrides: []config.EnvOverride{
			{EnvVar: "STB_LOG_LEVEL", Path: "logging.level", Value: "debug"},
		},
	}

	output := captureStdout(t, func() {
		outputConfigHuman(result)
	})

	if !strings.Contains(output, "STB Configuration") {
		t.Error("outputConfigHuman() should show header")
	}
	if !strings.Contains(output, "/path/to/config.json") {
		t.Error("outputConfigHuman() should show config path")
	}
	if !strings.Contains(output, "Environment Overrides") {
		t.Error("outputConfigHuman() should show env overrides section")
	}
	if !strings.Contains(output, "STB_LOG_LEVEL") {
		t.Error("outputConfigHuman() should show env var name")
	}
	if !strings.Contains(output, "maxSourceBytes") {
		t.Error("outputConfigHuman() should show server settings")
	}
}

func TestOutputConfigHuman_Defaults(t *testing.T) {
	result := &config.LoadResult{
		Config:       config.DefaultConfig(),
		UsedDefaults: true,
	}

	output := captureStdout(t, func() {
		outputConfigHuman(result)
	})

	if !strings.Contains(output, "defaults") {
		t.Error("outputConfigHuman() should indicate defaults are used")
	}
}

func TestRunConfigEnv(t *testing.T) {
	output := captureStdout(t, func() {
		runConfigEnv(nil, nil)
	})

	if !strings.Contains(output, "Supported STB Environment Variables") {
		t.Error("runConfigEnv() should show header")
	}

	expectedCategories := []string{"General:", "Logging:", "Server:", "History:"}
	for _, cat := range expectedCategories {
		if !strings.Contains(output, cat) {
			t.Errorf("runConfigEnv() missing category %q", cat)
		}
	}

	expectedVars := []string{"STB_CONFIG_PATH", "STB_LOG_LEVEL", "STB_SERVER_ADDR", "STB_HISTORY_ENABLED"}
	for _, v := range expectedVars {
		if !strings.Contains(output, v) {
			t.Errorf("runConfigEnv() missing env var %q", v)
		}
	}

	if !strings.Contains(output, "Example usage:") {
		t.Error("runConfigEnv() should show example usage")
	}
}

func TestConfigCommands_Setup(t *testing.T) {
	if configCmd.Use != "config" {
		t.Errorf("configCmd.Use = %q, want %q", configCmd.Use, "config")
	}

	wantSubcommands := map[string]bool{
		"show": false, "env": false, "get <path>": false, "set <path> <value>": false,
	}
	for _, cmd := range configCmd.Commands() {
		if _, ok := wantSubcommands[cmd.Use]; ok {
			wantSubcommands[cmd.Use] = true
		}
	}
	for use, found := range wantSubcommands {
		if !found {
			t.Errorf("configCmd should have %q subcommand", use)
		}
	}
}
