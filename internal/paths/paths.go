package paths

import (
	"os"
	"path/filepath"
	"strings"
)

// CanonicalizePath converts an absolute path to a workspace-relative canonical path
// - Resolves symlinks to real paths
// - Makes path relative to the workspace root
// - Converts backslashes to forward slashes
// - Returns workspace-relative path with forward slashes
func CanonicalizePath(absolutePath string, workspaceRoot string) (string, error) {
	// Resolve symlinks
	resolved, err := filepath.EvalSymlinks(absolutePath)
	if err != nil {
		// If the file doesn't exist yet, use the path as-is
		if os.IsNotExist(err) {
			resolved = absolutePath
		} else {
			return "", err
		}
	}

	// Make path relative to workspace root
	rootResolved, err := filepath.EvalSymlinks(workspaceRoot)
	if err != nil {
		if os.IsNotExist(err) {
			rootResolved = workspaceRoot
		} else {
			return "", err
		}
	}

	relativePath, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}

	// Convert to forward slashes (platform independent)
	canonicalPath := filepath.ToSlash(relativePath)

	return canonicalPath, nil
}

// IsWithinWorkspace checks if a path is within the workspace root.
// Manifest entries that escape the workspace are rejected with this.
func IsWithinWorkspace(path string, workspaceRoot string) bool {
	canonical, err := CanonicalizePath(path, workspaceRoot)
	if err != nil {
		return false
	}

	// Path is outside the workspace if it starts with ..
	return !strings.HasPrefix(canonical, "..")
}

// NormalizePath normalizes a path by converting backslashes to forward slashes
// This is useful for paths that are already relative but need normalization
func NormalizePath(path string) string {
	return filepath.ToSlash(path)
}

// JoinWorkspacePath joins a workspace root with a canonical path
func JoinWorkspacePath(workspaceRoot string, canonicalPath string) string {
	// Ensure we use forward slashes in the canonical path
	normalizedPath := strings.ReplaceAll(canonicalPath, "\\", "/")
	// Convert to OS-specific path separator for joining
	parts := strings.Split(normalizedPath, "/")
	return filepath.Join(append([]string{workspaceRoot}, parts...)...)
}
