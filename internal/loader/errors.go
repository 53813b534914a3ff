package loader

import (
	"errors"
	"fmt"
)

// ErrMalformedDocument indicates a content unit whose metadata header is
// missing, unterminated, or undecodable. The error is fatal to a build run.
var ErrMalformedDocument = errors.New("loader: malformed document")

// MalformedDocumentError carries the source location of the offending
// document so run failures can name the defect precisely.
type MalformedDocumentError struct {
	Path   string
	Reason error
}

func (e *MalformedDocumentError) Error() string {
	if e.Reason == nil {
		return fmt.Sprintf("malformed document %s", e.Path)
	}
	return fmt.Sprintf("malformed document %s: %v", e.Path, e.Reason)
}

func (e *MalformedDocumentError) Unwrap() error {
	return ErrMalformedDocument
}

func malformed(path string, reason error) error {
	return &MalformedDocumentError{Path: path, Reason: reason}
}
