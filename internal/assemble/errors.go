package assemble

import (
	"errors"
	"fmt"
)

// Sentinel errors for errors.Is checks against the typed errors below.
var (
	ErrInvalidImportName = errors.New("invalid import name")
	ErrMaxDepthExceeded  = errors.New("maximum import depth exceeded")
	ErrUnreadableFile    = errors.New("unreadable file")
)

// InvalidImportNameError reports a directive whose name redirects the path.
type InvalidImportNameError struct {
	Name string // offending import name
	File string // file holding the directive
}

func (e *InvalidImportNameError) Error() string {
	return fmt.Sprintf("invalid filename %q imported from %s: do not include path redirections", e.Name, e.File)
}

// Is matches ErrInvalidImportName.
func (e *InvalidImportNameError) Is(target error) bool {
	return target == ErrInvalidImportName
}

// MaxDepthExceededError reports an import nested deeper than the budget allows.
type MaxDepthExceededError struct {
	Name     string // file that would have been imported
	MaxDepth int    // configured budget
}

func (e *MaxDepthExceededError) Error() string {
	return fmt.Sprintf("maximum import depth %d exceeded at %s: possible circular import?", e.MaxDepth, e.Name)
}

// Is matches ErrMaxDepthExceeded.
func (e *MaxDepthExceededError) Is(target error) bool {
	return target == ErrMaxDepthExceeded
}

// UnreadableFileError reports a master or import file that could not be read.
type UnreadableFileError struct {
	Name string
	Err  error
}

func (e *UnreadableFileError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Name, e.Err)
}

// Is matches ErrUnreadableFile.
func (e *UnreadableFileError) Is(target error) bool {
	return target == ErrUnreadableFile
}

// Unwrap returns the underlying I/O error.
func (e *UnreadableFileError) Unwrap() error {
	return e.Err
}
