package source

import (
	"errors"
	"fmt"
)

// Common errors for source operations.
var (
	// ErrIsDirectory indicates a source path points at a directory.
	ErrIsDirectory = errors.New("path is a directory")
)

// UnknownKindError indicates a kind identifier that does not name a source.
type UnknownKindError struct {
	Name string
}

func (e *UnknownKindError) Error() string {
	return fmt.Sprintf("unknown source kind %q", e.Name)
}

// ErrUnknownKind creates an error for an unrecognized kind identifier.
func ErrUnknownKind(name string) error {
	return &UnknownKindError{Name: name}
}

// SourceNotFoundError indicates the requested source does not exist.
type SourceNotFoundError struct {
	Kind Kind
}

func (e *SourceNotFoundError) Error() string {
	return fmt.Sprintf("source %q not found", e.Kind)
}

// ErrSourceNotFound creates an error for a missing source.
func ErrSourceNotFound(kind Kind) error {
	return &SourceNotFoundError{Kind: kind}
}

// ReadError indicates a source file could not be stat-ed or read.
// The previously loaded hosts are kept when this happens.
type ReadError struct {
	Kind Kind
	Path string
	Op   string // "stat" or "read"
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("source %s: %s %s: %v", e.Kind, e.Op, e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// WrapReadError wraps an error with source context.
func WrapReadError(kind Kind, path, op string, err error) error {
	return &ReadError{
		Kind: kind,
		Path: path,
		Op:   op,
		Err:  err,
	}
}

// RecordValidationError indicates a host record that cannot be turned into
// an ssh command line.
type RecordValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *RecordValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}
