package parser

import (
	"bytes"
	"path/filepath"
	"strings"
)

var generatedSuffixes = []string{
	".g.cs",
	".g.i.cs",
	".designer.cs",
	".generated.cs",
	".assemblyinfo.cs",
}

// generatedHeaderLines is how far into a file the auto-generated marker is searched for
const generatedHeaderLines = 10

// IsGenerated reports whether a file is tool-generated, by file name or by an
// <auto-generated> marker in its leading comments.
func IsGenerated(path string, content []byte) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, suffix := range generatedSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	if strings.HasPrefix(name, "temporarygeneratedfile_") {
		return true
	}

	lines := 0
	for len(content) > 0 && lines < generatedHeaderLines {
		line := content
		if i := bytes.IndexByte(content, '\n'); i >= 0 {
			line, content = content[:i], content[i+1:]
		} else {
			content = nil
		}
		lines++
		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 {
			continue
		}
		if !bytes.HasPrefix(trimmed, []byte("//")) && !bytes.HasPrefix(trimmed, []byte("/*")) && !bytes.HasPrefix(trimmed, []byte("*")) {
			return false
		}
		lower := bytes.ToLower(trimmed)
		if bytes.Contains(lower, []byte("<auto-generated")) || bytes.Contains(lower, []byte("<autogenerated")) {
			return true
		}
	}
	return false
}
