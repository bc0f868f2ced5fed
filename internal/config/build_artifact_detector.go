// Build artifact detection from MSBuild project files
// Parses *.csproj and Directory.Build.props to find custom output directories
package config

import (
	"encoding/xml"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/standardbeagle/disposeflow/internal/debug"
)

// maxProjectDepth bounds the directory depth searched for project files
const maxProjectDepth = 4

// outputProperties are the MSBuild properties naming build output folders
var outputProperties = map[string]bool{
	"OutputPath":                 true,
	"BaseOutputPath":             true,
	"IntermediateOutputPath":     true,
	"BaseIntermediateOutputPath": true,
	"PublishDir":                 true,
	"PackageOutputPath":          true,
}

// BuildArtifactDetector finds build output directories configured in
// MSBuild files
type BuildArtifactDetector struct {
	projectRoot string
}

func NewBuildArtifactDetector(projectRoot string) *BuildArtifactDetector {
	return &BuildArtifactDetector{projectRoot: projectRoot}
}

// DetectOutputDirectories returns exclusion globs such as "**/out/**" for
// every output directory that a project file under the root overrides
func (bad *BuildArtifactDetector) DetectOutputDirectories() []string {
	var patterns []string
	_ = filepath.WalkDir(bad.projectRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		rel, _ := filepath.Rel(bad.projectRoot, path)
		if d.IsDir() {
			name := d.Name()
			if rel != "." && (strings.HasPrefix(name, ".") || name == "bin" || name == "obj" || name == "node_modules") {
				return filepath.SkipDir
			}
			if strings.Count(filepath.ToSlash(rel), "/") >= maxProjectDepth {
				return filepath.SkipDir
			}
			return nil
		}
		if ok, _ := doublestar.Match("{*.csproj,Directory.Build.props}", d.Name()); !ok {
			return nil
		}
		for _, dir := range bad.outputDirs(path) {
			patterns = append(patterns, "**/"+dir+"/**")
		}
		return nil
	})
	return DeduplicatePatterns(patterns)
}

// outputDirs reads the first path segment of each output property in the
// project file at path. MSBuild variables such as $(Configuration) end the
// segment.
func (bad *BuildArtifactDetector) outputDirs(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()

	var dirs []string
	dec := xml.NewDecoder(f)
	for {
		tok, err := dec.Token()
		if err != nil {
			break
		}
		start, ok := tok.(xml.StartElement)
		if !ok || !outputProperties[start.Name.Local] {
			continue
		}
		var value string
		if err := dec.DecodeElement(&value, &start); err != nil {
			debug.LogConfig("bad %s in %s: %v\n", start.Name.Local, path, err)
			continue
		}
		if dir := firstSegment(value); dir != "" {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func firstSegment(value string) string {
	value = strings.TrimSpace(strings.ReplaceAll(value, "\\", "/"))
	value = strings.TrimPrefix(value, "./")
	if i := strings.Index(value, "$("); i >= 0 {
		value = value[:i]
	}
	seg, _, _ := strings.Cut(value, "/")
	if seg == "" || seg == "." || seg == ".." || strings.ContainsAny(seg, "*?[{") {
		return ""
	}
	return seg
}

// DeduplicatePatterns removes duplicate patterns, keeping the first
func DeduplicatePatterns(patterns []string) []string {
	seen := make(map[string]bool, len(patterns))
	result := make([]string, 0, len(patterns))
	for _, pattern := range patterns {
		if !seen[pattern] {
			seen[pattern] = true
			result = append(result, pattern)
		}
	}
	return result
}
