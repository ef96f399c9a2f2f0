package protocol

import (
	"errors"
	"fmt"
)

var (
	ErrShortFrame    = errors.New("protocol: frame shorter than 3 bytes")
	ErrMissingComma  = errors.New("protocol: missing comma after frame kind")
	ErrUnknownKind   = errors.New("protocol: unknown frame kind")
	ErrMissingDigits = errors.New("protocol: rotation has no digits")
	ErrTrailingBytes = errors.New("protocol: trailing bytes after frame")
	ErrRotationRange = errors.New("protocol: rotation outside int32 range")
)

// ParseError reports a line that violates the frame grammar.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed frame %q: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err is or wraps a ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
