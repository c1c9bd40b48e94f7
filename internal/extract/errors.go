package extract

import (
	"errors"
	"fmt"
)

// Extraction failure taxonomy. Collection-level failures abort a run;
// everything recoverable travels as Diagnostics instead.
var (
	// ErrNoSourcesFound means the search paths contained no candidate
	// files after excludes, or no search path exists at all.
	ErrNoSourcesFound = errors.New("no source files found")

	// ErrPermissionDenied means a search path could not be read.
	ErrPermissionDenied = errors.New("permission denied reading sources")
)

// Error wraps a failure with the file or directory it originated from.
// Unwrap exposes the underlying sentinel or cause for errors.Is checks.
type Error struct {
	Err  error
	Path string
}

func (e *Error) Error() string {
	if e.Path == "" || e.Path == "." {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s (in %s)", e.Err.Error(), e.Path)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapPath attaches a path to an error, leaving nil alone.
func wrapPath(err error, path string) error {
	if err == nil {
		return nil
	}
	return &Error{Err: err, Path: path}
}
