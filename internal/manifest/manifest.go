// Package manifest reads and validates PROGRAMS.toml, the declaration
// file that lists SAS programs for batch analysis.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"

	"stb/internal/errors"
	"stb/internal/paths"
)

// DeclarationFile is the default filename for program declarations
const DeclarationFile = "PROGRAMS.toml"

// ProgramDeclaration represents a declared program in PROGRAMS.toml
type ProgramDeclaration struct {
	// ID is the unique program identifier (optional, will be generated if not provided)
	ID string `toml:"id"`

	// Name is the human-readable name of the program
	Name string `toml:"name"`

	// Path is the workspace-relative path to the .sas file
	Path string `toml:"path"`

	// Tags are classification tags for the program
	Tags []string `toml:"tags,omitempty"`

	// Owner is the owner reference (e.g., @team-name or user@email.com)
	Owner string `toml:"owner,omitempty"`
}

// Manifest represents the root structure of PROGRAMS.toml
type Manifest struct {
	// Version is the schema version
	Version int `toml:"version"`

	// Programs is the list of declared programs
	Programs []ProgramDeclaration `toml:"program"`
}

// Parse parses PROGRAMS.toml content
func Parse(data []byte) (*Manifest, error) {
	var man Manifest
	if err := toml.Unmarshal(data, &man); err != nil {
		return nil, errors.NewStbError(
			errors.ManifestInvalid,
			"failed to parse "+DeclarationFile,
			err, errors.GetSuggestedFixes(errors.ManifestInvalid), nil,
		)
	}

	if man.Version < 1 {
		man.Version = 1 // Default to version 1
	}

	return &man, nil
}

// ParseFile parses a PROGRAMS.toml file from the given path
func ParseFile(filePath string) (*Manifest, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, errors.NewStbError(
			errors.ManifestInvalid,
			fmt.Sprintf("failed to read %s", filePath),
			err, errors.GetSuggestedFixes(errors.ManifestInvalid), nil,
		)
	}
	return Parse(data)
}

// Load loads the manifest from the workspace root if it exists.
// Returns nil without error when no declaration file is present.
func Load(workspaceRoot string, declarationFile string) (*Manifest, error) {
	if declarationFile == "" {
		declarationFile = DeclarationFile
	}

	filePath := filepath.Join(workspaceRoot, declarationFile)

	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return nil, nil // No declared programs file
	}

	return ParseFile(filePath)
}

// Validate checks the manifest for structural problems: missing paths,
// duplicate IDs or paths, entries that escape the workspace, and
// non-.sas files. All problems are collected into one error.
func (m *Manifest) Validate(workspaceRoot string) error {
	var problems []string

	seenIDs := make(map[string]bool)
	seenPaths := make(map[string]bool)

	for i, prog := range m.Programs {
		label := prog.Name
		if label == "" {
			label = fmt.Sprintf("program #%d", i+1)
		}

		if prog.Path == "" {
			problems = append(problems, fmt.Sprintf("%s: missing required 'path' field", label))
			continue
		}

		normalized := paths.NormalizePath(prog.Path)
		if seenPaths[normalized] {
			problems = append(problems, fmt.Sprintf("%s: duplicate path %q", label, prog.Path))
		}
		seenPaths[normalized] = true

		if !strings.HasSuffix(strings.ToLower(normalized), ".sas") {
			problems = append(problems, fmt.Sprintf("%s: path %q is not a .sas file", label, prog.Path))
		}

		if workspaceRoot != "" {
			abs := paths.JoinWorkspacePath(workspaceRoot, normalized)
			if !paths.IsWithinWorkspace(abs, workspaceRoot) {
				problems = append(problems, fmt.Sprintf("%s: path %q escapes the workspace", label, prog.Path))
			}
		}

		id := prog.ID
		if id == "" {
			id = GenerateStableProgramID(prog.Path)
		}
		if seenIDs[id] {
			problems = append(problems, fmt.Sprintf("%s: duplicate id %q", label, id))
		}
		seenIDs[id] = true
	}

	if len(problems) > 0 {
		return errors.NewStbError(
			errors.ManifestInvalid,
			fmt.Sprintf("%d problem(s) in %s", len(problems), DeclarationFile),
			nil, errors.GetSuggestedFixes(errors.ManifestInvalid), nil,
		).WithDetails(problems)
	}

	return nil
}

// Write writes a manifest to the given path
func Write(filePath string, man *Manifest) error {
	data, err := toml.Marshal(man)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", DeclarationFile, err)
	}

	// Ensure directory exists
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", DeclarationFile, err)
	}

	return nil
}

// CreateExample creates an example PROGRAMS.toml file
func CreateExample(filePath string) error {
	example := &Manifest{
		Version: 1,
		Programs: []ProgramDeclaration{
			{
				Name:  "monthly-etl",
				Path:  "jobs/monthly_etl.sas",
				Tags:  []string{"etl", "scheduled"},
				Owner: "@data-team",
			},
			{
				Name:  "claims-report",
				Path:  "reports/claims.sas",
				Tags:  []string{"reporting"},
				Owner: "@analytics-team",
			},
		},
	}

	return Write(filePath, example)
}

// GenerateStableProgramID generates a stable program ID that survives renames
// Format: stb:prog:<hash>
// The hash is based on the normalized path
func GenerateStableProgramID(programPath string) string {
	// IDs must match across platforms, so unify separators before hashing.
	normalizedPath := strings.ReplaceAll(paths.NormalizePath(programPath), "\\", "/")

	hash := sha256.Sum256([]byte(normalizedPath))
	hashStr := hex.EncodeToString(hash[:8]) // Use first 8 bytes for shorter ID

	return fmt.Sprintf("stb:prog:%s", hashStr)
}

// ParseProgramID extracts components from a program ID
// Returns (prefix, hash, isValid)
func ParseProgramID(programID string) (prefix string, hash string, isValid bool) {
	if !strings.HasPrefix(programID, "stb:prog:") {
		return "", "", false
	}

	parts := strings.Split(programID, ":")
	if len(parts) != 3 {
		return "", "", false
	}

	// Hash must not be empty
	if parts[2] == "" {
		return "", "", false
	}

	return parts[0] + ":" + parts[1], parts[2], true
}

// IsValidProgramID checks if a string is a valid program ID
func IsValidProgramID(programID string) bool {
	_, _, isValid := ParseProgramID(programID)
	return isValid
}

// HashContent returns the hex sha256 of program source content
func HashContent(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
