package jacoco

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyInput is returned for zero-length input, distinct from a
	// well-formed report that happens to contain no packages.
	ErrEmptyInput = errors.New("empty report input")

	// ErrFormatMismatch is returned when the document is well-formed XML
	// but its root element is not a JaCoCo report.
	ErrFormatMismatch = errors.New("root element is not a jacoco report")
)

// ParseError wraps an XML syntax error encountered while decoding a report.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed report markup: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// MalformedReportError indicates well-formed markup missing a required
// structural field. Path identifies the offending node, e.g.
// "report/package[0]/class[2]/method[1]".
type MalformedReportError struct {
	Path   string
	Reason string
}

func (e *MalformedReportError) Error() string {
	return fmt.Sprintf("malformed report at %s: %s", e.Path, e.Reason)
}
