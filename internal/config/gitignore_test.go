package config

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitignoreParser_ShouldIgnore(t *testing.T) {
	gp := NewGitignoreParser()
	require.NoError(t, gp.Read(strings.NewReader(`
# Visual Studio
.vs/
*.user
/artifacts/
src/Generated/*.cs
!src/Generated/Keep.cs
\#notes.txt
`)))

	tests := []struct {
		path  string
		isDir bool
		want  bool
	}{
		{".vs", true, true},
		{".vs/config/applicationhost.config", false, true},
		{"src/.vs", true, true},
		{"App.csproj.user", false, true},
		{"src/App/App.csproj.user", false, true},
		{"artifacts/bin/App.dll", false, true},
		{"src/artifacts/x.cs", false, false},
		{"src/Generated/Model.cs", false, true},
		{"src/Generated/Keep.cs", false, false},
		{"#notes.txt", false, true},
		{"src/Program.cs", false, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, gp.ShouldIgnore(tt.path, tt.isDir), tt.path)
	}
}

func TestGitignoreParser_GetExclusionPatterns(t *testing.T) {
	gp := NewGitignoreParser()
	gp.AddPattern("logs/")
	gp.AddPattern("*.user")
	gp.AddPattern("!keep.user")
	gp.AddPattern("/build")
	gp.AddPattern("   ")

	assert.Equal(t, []string{
		"**/logs/**",
		"**/*.user", "**/*.user/**",
		"build", "build/**",
	}, gp.GetExclusionPatterns())
}

func TestGitignoreParser_MissingFile(t *testing.T) {
	gp := NewGitignoreParser()
	require.NoError(t, gp.LoadGitignore(t.TempDir()))
	assert.False(t, gp.ShouldIgnore("a.cs", false))
}
