package ingestion

import (
	"errors"
	"fmt"
)

// ErrUnsupportedEncoding is returned when uploaded bytes are neither UTF-8 nor Latin-1 text.
var ErrUnsupportedEncoding = errors.New("unsupported encoding")

// DecodeWarning is the user-facing message shown when a file cannot be decoded.
const DecodeWarning = "Unable to read file. Unsupported encoding."

// ParseError represents a failure to parse an uploaded file
type ParseError struct {
	Filename string
	Kind     SourceKind
	Message  string
	Cause    error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("failed to parse %s file %s: %s: %v", e.Kind, e.Filename, e.Message, e.Cause)
	}
	return fmt.Sprintf("failed to parse %s file %s: %s", e.Kind, e.Filename, e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}
