package codec

import (
	"errors"
	"fmt"
)

// ErrUnsupportedFormat matches any *UnsupportedFormatError via errors.Is.
var ErrUnsupportedFormat = errors.New("unsupported format")

// UnsupportedFormatError reports a format tag that names no codec.
type UnsupportedFormatError struct {
	Name string
}

func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported format: %s", e.Name)
}

// Is lets errors.Is(err, ErrUnsupportedFormat) succeed.
func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// ErrUnencodable matches any *EncodeError via errors.Is.
var ErrUnencodable = errors.New("value cannot be encoded")

// EncodeError reports a transaction the target format cannot represent
// so that its own decoder would accept it. Nothing is written when an
// encoder returns one.
type EncodeError struct {
	Format string
	ID     string
	Msg    string
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encode error in %s: transaction %q: %s", e.Format, e.ID, e.Msg)
}

// Is lets errors.Is(err, ErrUnencodable) succeed.
func (e *EncodeError) Is(target error) bool {
	return target == ErrUnencodable
}

// ParseError describes malformed input. Line is 1-based; 0 means the
// format has no line structure (Binary) or the failure is not tied to one.
type ParseError struct {
	Format string
	Line   int
	Msg    string
	Err    error
}

func (e *ParseError) Error() string {
	msg := e.Msg
	if e.Line > 0 {
		msg = fmt.Sprintf("line %d: %s", e.Line, msg)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return fmt.Sprintf("parse error in %s: %s", e.Format, msg)
}

func (e *ParseError) Unwrap() error { return e.Err }

// IOError wraps a failure of the underlying stream.
type IOError struct {
	Op  string // "read" or "write"
	Err error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("I/O error during %s: %v", e.Op, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

func parseErr(format string, line int, msg string, cause error) error {
	return &ParseError{Format: format, Line: line, Msg: msg, Err: cause}
}

func readErr(err error) error {
	return &IOError{Op: "read", Err: err}
}

func writeErr(err error) error {
	return &IOError{Op: "write", Err: err}
}

func encodeErr(format, id, msg string) error {
	return &EncodeError{Format: format, ID: id, Msg: msg}
}
