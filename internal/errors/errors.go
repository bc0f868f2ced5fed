// Package errors defines the typed errors returned by parsing, analysis,
// queries and configuration loading.
package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
)

var (
	// ErrSymbolNotFound is returned when a query names a member that does not exist
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrNotAnalyzable is returned when a member has no body to walk
	ErrNotAnalyzable = errors.New("member has no body to analyze")
	// ErrUnsupportedLanguage is returned for files that are not C#
	ErrUnsupportedLanguage = errors.New("unsupported language")
)

// ParseError describes the first syntax error tree-sitter found in a file.
// The file is still analysed; the error is reported alongside its diagnostics.
type ParseError struct {
	FilePath   string
	Line       int
	Column     int
	Token      string
	Underlying error
}

// NewParseError creates a parse error at a 1-based position
func NewParseError(path string, line, column int, token string, err error) *ParseError {
	return &ParseError{FilePath: path, Line: line, Column: column, Token: token, Underlying: err}
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("%s:%d:%d: %v", e.FilePath, e.Line, e.Column, e.Underlying)
	}
	return fmt.Sprintf("%s:%d:%d: %v near %q", e.FilePath, e.Line, e.Column, e.Underlying, e.Token)
}

func (e *ParseError) Unwrap() error { return e.Underlying }

// QueryError is returned by value-flow queries that cannot be answered
type QueryError struct {
	Query      string
	Underlying error
	// Suggestions holds close matches for an unknown symbol, best first
	Suggestions []string
}

// NewQueryError creates a query error
func NewQueryError(query string, err error) *QueryError {
	return &QueryError{Query: query, Underlying: err}
}

// WithSuggestions attaches near-miss names
func (e *QueryError) WithSuggestions(s []string) *QueryError {
	e.Suggestions = s
	return e
}

func (e *QueryError) Error() string {
	if len(e.Suggestions) > 0 {
		return fmt.Sprintf("query %q failed: %v (did you mean %v?)", e.Query, e.Underlying, e.Suggestions)
	}
	return fmt.Sprintf("query %q failed: %v", e.Query, e.Underlying)
}

func (e *QueryError) Unwrap() error { return e.Underlying }

// FileError wraps a failure to stat, read or parse one source file
type FileError struct {
	Path       string
	Operation  string
	Underlying error
}

// NewFileError creates a file error for op ("stat", "read", "parse")
func NewFileError(op, path string, err error) *FileError {
	return &FileError{Path: path, Operation: op, Underlying: err}
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Operation, e.Path, e.Underlying)
}

func (e *FileError) Unwrap() error { return e.Underlying }

// NotFound reports whether the file did not exist
func (e *FileError) NotFound() bool { return errors.Is(e.Underlying, fs.ErrNotExist) }

// Permission reports whether the file could not be opened for lack of access
func (e *FileError) Permission() bool { return errors.Is(e.Underlying, fs.ErrPermission) }

// ConfigError names the configuration field that failed validation
type ConfigError struct {
	Field      string
	Value      string
	Underlying error
}

// NewConfigError creates a config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{Field: field, Value: value, Underlying: err}
}

func (e *ConfigError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("invalid %s: %v", e.Field, e.Underlying)
	}
	return fmt.Sprintf("invalid %s %q: %v", e.Field, e.Value, e.Underlying)
}

func (e *ConfigError) Unwrap() error { return e.Underlying }

// MultiError collects independent failures, such as every invalid config field
type MultiError struct {
	Errors []error
}

// NewMultiError creates a multi-error, dropping nils
func NewMultiError(errs []error) *MultiError {
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// ErrOrNil returns nil when no errors were collected
func (e *MultiError) ErrOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

func (e *MultiError) Error() string {
	switch len(e.Errors) {
	case 0:
		return "no errors"
	case 1:
		return e.Errors[0].Error()
	}
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("%d errors: %s", len(e.Errors), strings.Join(msgs, "; "))
}

func (e *MultiError) Unwrap() []error { return e.Errors }
