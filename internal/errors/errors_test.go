package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseError(t *testing.T) {
	syntax := errors.New("syntax error")

	err := NewParseError("/src/Broken.cs", 10, 5, "}", syntax)
	assert.ErrorIs(t, err, syntax)
	assert.Equal(t, `/src/Broken.cs:10:5: syntax error near "}"`, err.Error())

	err = NewParseError("/src/Broken.cs", 1, 1, "", syntax)
	assert.Equal(t, "/src/Broken.cs:1:1: syntax error", err.Error())
}

func TestQueryError(t *testing.T) {
	err := NewQueryError("Foo.strem", ErrSymbolNotFound)
	assert.ErrorIs(t, err, ErrSymbolNotFound)
	assert.Equal(t, `query "Foo.strem" failed: symbol not found`, err.Error())

	err.WithSuggestions([]string{"Foo.stream", "Foo.streams"})
	assert.Equal(t, `query "Foo.strem" failed: symbol not found (did you mean [Foo.stream Foo.streams]?)`, err.Error())

	var wrapped error = fmt.Errorf("return values: %w", err)
	var qerr *QueryError
	require.ErrorAs(t, wrapped, &qerr)
	assert.Equal(t, []string{"Foo.stream", "Foo.streams"}, qerr.Suggestions)
}

func TestFileError(t *testing.T) {
	_, statErr := os.Stat(filepath.Join(t.TempDir(), "Ghost.cs"))
	require.Error(t, statErr)

	err := NewFileError("stat", "/src/Ghost.cs", statErr)
	assert.True(t, err.NotFound())
	assert.False(t, err.Permission())
	assert.ErrorIs(t, err, fs.ErrNotExist)
	assert.Contains(t, err.Error(), "stat /src/Ghost.cs: ")

	err = NewFileError("read", "/src/Locked.cs", fs.ErrPermission)
	assert.True(t, err.Permission())
	assert.False(t, err.NotFound())
	assert.Equal(t, "read /src/Locked.cs: permission denied", err.Error())

	err = NewFileError("parse", "notes.txt", ErrUnsupportedLanguage)
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestConfigError(t *testing.T) {
	invalid := errors.New("must be one of toplevel, type, recursive")

	err := NewConfigError("analysis.scope", "sideways", invalid)
	assert.ErrorIs(t, err, invalid)
	assert.Equal(t, `invalid analysis.scope "sideways": must be one of toplevel, type, recursive`, err.Error())

	err = NewConfigError("performance", "", errors.New("workers must be positive"))
	assert.Equal(t, "invalid performance: workers must be positive", err.Error())
}

func TestMultiError(t *testing.T) {
	err1 := errors.New("error 1")
	err2 := errors.New("error 2")

	multi := NewMultiError([]error{err1, nil, err2, nil})
	require.Len(t, multi.Errors, 2)
	assert.Equal(t, "2 errors: error 1; error 2", multi.Error())
	assert.ErrorIs(t, multi, err2)
	assert.Same(t, multi, multi.ErrOrNil())

	assert.Equal(t, "error 1", NewMultiError([]error{err1}).Error())

	empty := NewMultiError(nil)
	assert.Equal(t, "no errors", empty.Error())
	assert.NoError(t, empty.ErrOrNil())

	var nilMulti *MultiError
	assert.NoError(t, nilMulti.ErrOrNil())
}

func TestMultiErrorWrapsConfigErrors(t *testing.T) {
	err := NewMultiError([]error{
		NewConfigError("analysis.scope", "x", errors.New("bad scope")),
		NewConfigError("watch.debounce_ms", "-1", errors.New("must not be negative")),
	}).ErrOrNil()

	var cfgErr *ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Equal(t, "analysis.scope", cfgErr.Field)
}
