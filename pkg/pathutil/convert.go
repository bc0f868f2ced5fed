// Package pathutil converts between the absolute paths used during analysis
// and the root-relative paths shown to users.
//
// Files are read, cached and reported with absolute paths. Output boundaries
// (CLI formatters, MCP responses) convert to forward-slash paths relative to
// the project root.
package pathutil

import (
	"path/filepath"
	"strings"

	"github.com/standardbeagle/disposeflow/internal/types"
)

// ToRelative converts an absolute path to a forward-slash path relative to
// rootDir. Paths outside the root, relative paths and empty inputs are
// returned unchanged.
//
// Examples:
//   - ToRelative("/home/user/app/src/Service.cs", "/home/user/app") → "src/Service.cs"
//   - ToRelative("/other/Lib.cs", "/home/user/app") → "/other/Lib.cs"
func ToRelative(absPath, rootDir string) string {
	if absPath == "" || rootDir == "" || !filepath.IsAbs(absPath) {
		return absPath
	}

	absPath = filepath.Clean(absPath)
	relPath, err := filepath.Rel(filepath.Clean(rootDir), absPath)
	if err != nil || relPath == ".." || strings.HasPrefix(relPath, ".."+string(filepath.Separator)) {
		return absPath
	}
	return filepath.ToSlash(relPath)
}

// ToAbsolute resolves a user supplied path against rootDir. Slash separated
// relative paths are accepted on every platform.
func ToAbsolute(path, rootDir string) string {
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(rootDir, filepath.FromSlash(path))
}

// ToRelativeDiagnostics returns a copy of diags with root-relative locations
func ToRelativeDiagnostics(diags []types.Diagnostic, rootDir string) []types.Diagnostic {
	converted := make([]types.Diagnostic, len(diags))
	copy(converted, diags)
	for i := range converted {
		converted[i].Location.Path = ToRelative(converted[i].Location.Path, rootDir)
	}
	return converted
}

// ToRelativeValues returns a copy of values with root-relative locations
func ToRelativeValues(values []types.Value, rootDir string) []types.Value {
	converted := make([]types.Value, len(values))
	copy(converted, values)
	for i := range converted {
		converted[i].Location.Path = ToRelative(converted[i].Location.Path, rootDir)
	}
	return converted
}
