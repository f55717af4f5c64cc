package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"time"
)

// Error types for the rewriting framework
type ErrorType string

const (
	// Traversal errors
	ErrorTypeInvariant ErrorType = "invariant"
	ErrorTypeParse     ErrorType = "parse"

	// Name resolution errors
	ErrorTypeName ErrorType = "name"

	// File errors
	ErrorTypeFileNotFound ErrorType = "file_not_found"
	ErrorTypeFileTooLarge ErrorType = "file_too_large"
	ErrorTypePermission   ErrorType = "permission"

	// Configuration errors
	ErrorTypeConfig ErrorType = "config"
	ErrorTypeRule   ErrorType = "rule"
)

var (
	// ErrInvalidClassName is returned for self/parent/static used with a qualifier
	ErrInvalidClassName = errors.New("invalid class name")

	// ErrDynamicName is returned when a name node does not hold a string literal
	ErrDynamicName = errors.New("name is not a string literal")

	// ErrStackUnderflow is the cause of an InvariantError raised by popping an empty stack
	ErrStackUnderflow = errors.New("stack underflow")

	// ErrStackMismatch is the cause of an InvariantError raised when a pop does not match its push
	ErrStackMismatch = errors.New("stack pop mismatch")
)

// InvariantError reports broken traversal bookkeeping. It signals a framework or
// visitor defect rather than bad input.
type InvariantError struct {
	Type       ErrorType
	Stack      string
	Underlying error
	Timestamp  time.Time
}

// NewInvariantError creates a new invariant error for the named stack
func NewInvariantError(stack string, err error) *InvariantError {
	return &InvariantError{
		Type:       ErrorTypeInvariant,
		Stack:      stack,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *InvariantError) Error() string {
	return fmt.Sprintf("%s stack: %v", e.Stack, e.Underlying)
}

// Unwrap returns the underlying error for errors.Is/As
func (e *InvariantError) Unwrap() error {
	return e.Underlying
}

// RootReplacementError is reported when a visitor tries to replace the root node
type RootReplacementError struct {
	Type      ErrorType
	Path      string
	Timestamp time.Time
}

// NewRootReplacementError creates a new root replacement error
func NewRootReplacementError() *RootReplacementError {
	return &RootReplacementError{
		Type:      ErrorTypeParse,
		Timestamp: time.Now(),
	}
}

// WithPath adds the source path to the error
func (e *RootReplacementError) WithPath(path string) *RootReplacementError {
	e.Path = path
	return e
}

// Error implements the error interface
func (e *RootReplacementError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("parse error in %s: visitor attempted to replace the root node, which is unsupported", e.Path)
	}
	return "parse error: visitor attempted to replace the root node, which is unsupported"
}

// ParseError reports source the host parser could not turn into a tree
type ParseError struct {
	Type      ErrorType
	Path      string
	Line      int
	Column    int
	Message   string
	Timestamp time.Time
}

// NewParseError creates a new parse error at a 1-based line and column
func NewParseError(path string, line, column int, message string) *ParseError {
	return &ParseError{
		Type:      ErrorTypeParse,
		Path:      path,
		Line:      line,
		Column:    column,
		Message:   message,
		Timestamp: time.Now(),
	}
}

// Error implements the error interface
func (e *ParseError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("parse error in %s at %d:%d: %s", e.Path, e.Line, e.Column, e.Message)
	}
	return fmt.Sprintf("parse error at %d:%d: %s", e.Line, e.Column, e.Message)
}

// NameError represents a name that could not be resolved
type NameError struct {
	Type       ErrorType
	Name       string
	Underlying error
}

// NewNameError creates a new name resolution error
func NewNameError(name string, err error) *NameError {
	return &NameError{
		Type:       ErrorTypeName,
		Name:       name,
		Underlying: err,
	}
}

// Error implements the error interface
func (e *NameError) Error() string {
	return fmt.Sprintf("cannot resolve %q: %v", e.Name, e.Underlying)
}

// Unwrap returns the underlying error
func (e *NameError) Unwrap() error {
	return e.Underlying
}

// FileError represents a file-related error
type FileError struct {
	Type       ErrorType
	Path       string
	Operation  string
	Underlying error
	Timestamp  time.Time
}

// NewFileError creates a new file error
func NewFileError(op, path string, err error) *FileError {
	errorType := ErrorTypeFileNotFound
	if isPermissionError(err) {
		errorType = ErrorTypePermission
	}

	return &FileError{
		Type:       errorType,
		Path:       path,
		Operation:  op,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// NewFileTooLargeError creates a file error for a file over the size limit
func NewFileTooLargeError(path string, size, limit int64) *FileError {
	return &FileError{
		Type:       ErrorTypeFileTooLarge,
		Path:       path,
		Operation:  "read",
		Underlying: fmt.Errorf("%d bytes exceeds limit of %d", size, limit),
		Timestamp:  time.Now(),
	}
}

func isPermissionError(err error) bool {
	return err != nil && errors.Is(err, fs.ErrPermission)
}

// Error implements the error interface
func (e *FileError) Error() string {
	return fmt.Sprintf("file %s failed for %s: %v", e.Operation, e.Path, e.Underlying)
}

// Unwrap returns the underlying error
func (e *FileError) Unwrap() error {
	return e.Underlying
}

// ConfigError represents a configuration error
type ConfigError struct {
	Type       ErrorType
	Field      string
	Value      string
	Underlying error
	Timestamp  time.Time
}

// NewConfigError creates a new config error
func NewConfigError(field, value string, err error) *ConfigError {
	return &ConfigError{
		Type:       ErrorTypeConfig,
		Field:      field,
		Value:      value,
		Underlying: err,
		Timestamp:  time.Now(),
	}
}

// Error implements the error interface
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error for field %s (value %s): %v", e.Field, e.Value, e.Underlying)
}

// Unwrap returns the underlying error
func (e *ConfigError) Unwrap() error {
	return e.Underlying
}

// RuleError represents an invalid declarative rewrite rule
type RuleError struct {
	Type       ErrorType
	Source     string
	Index      int
	Name       string
	Underlying error
}

// NewRuleError creates a new rule error for the index-th rule of a source file
func NewRuleError(source string, index int, name string, err error) *RuleError {
	return &RuleError{
		Type:       ErrorTypeRule,
		Source:     source,
		Index:      index,
		Name:       name,
		Underlying: err,
	}
}

// Error implements the error interface
func (e *RuleError) Error() string {
	return fmt.Sprintf("rule %d (%s) in %s: %v", e.Index, e.Name, e.Source, e.Underlying)
}

// Unwrap returns the underlying error
func (e *RuleError) Unwrap() error {
	return e.Underlying
}

// MultiError represents multiple errors
type MultiError struct {
	Errors []error
}

// NewMultiError creates a new multi-error
func NewMultiError(errs []error) *MultiError {
	// Filter out nil errors
	filtered := make([]error, 0, len(errs))
	for _, err := range errs {
		if err != nil {
			filtered = append(filtered, err)
		}
	}
	return &MultiError{Errors: filtered}
}

// Error implements the error interface
func (e *MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d errors: %v", len(e.Errors), e.Errors)
}

// Unwrap returns all errors
func (e *MultiError) Unwrap() []error {
	return e.Errors
}

// ErrOrNil returns nil when no errors were collected
func (e *MultiError) ErrOrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// TypeOf classifies err by the first typed error in its chain. Errors this package
// did not create report an empty type.
func TypeOf(err error) ErrorType {
	var (
		invariant *InvariantError
		root      *RootReplacementError
		parse     *ParseError
		name      *NameError
		file      *FileError
		config    *ConfigError
		rule      *RuleError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &invariant):
		return invariant.Type
	case errors.As(err, &root):
		return root.Type
	case errors.As(err, &parse):
		return parse.Type
	case errors.As(err, &name):
		return name.Type
	case errors.As(err, &file):
		return file.Type
	case errors.As(err, &config):
		return config.Type
	case errors.As(err, &rule):
		return rule.Type
	}
	return ""
}
