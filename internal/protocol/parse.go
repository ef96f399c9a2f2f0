package protocol

import (
	"fmt"
	"math"
	"strings"
)

const (
	StartMarker = "I"
	EndMarker   = "FIN"

	minFrameLen = 3
)

// Classify reports whether a line is a start marker, an end marker or a
// candidate frame. Bytes following a marker are ignored.
func Classify(line string) LineClass {
	switch {
	case strings.HasPrefix(line, EndMarker):
		return LineEnd
	case strings.HasPrefix(line, StartMarker):
		return LineStart
	default:
		return LineFrame
	}
}

// Parser converts one line into a Frame. The zero value is strict.
type Parser struct {
	// AllowTrailing accepts bytes after the single character of a load frame.
	AllowTrailing bool
}

// Parse parses a line with the strict parser.
func Parse(line string) (Frame, error) {
	return Parser{}.Parse(line)
}

// Parse is a pure function of line; every input yields a Frame or a
// *ParseError.
func (p Parser) Parse(line string) (Frame, error) {
	if len(line) < minFrameLen {
		return Frame{}, &ParseError{Line: line, Err: ErrShortFrame}
	}
	if line[1] != ',' {
		return Frame{}, &ParseError{Line: line, Err: ErrMissingComma}
	}

	switch line[0] {
	case 'L':
		if len(line) > minFrameLen && !p.AllowTrailing {
			return Frame{}, &ParseError{Line: line, Err: ErrTrailingBytes}
		}
		return Load(line[2]), nil
	case 'M':
		n, err := parseSteps(line[2:])
		if err != nil {
			return Frame{}, &ParseError{Line: line, Err: err}
		}
		return Rotate(n), nil
	default:
		return Frame{}, &ParseError{Line: line, Err: fmt.Errorf("%w: %q", ErrUnknownKind, line[0])}
	}
}

func parseSteps(s string) (int32, error) {
	neg := false
	i := 0
	if i < len(s) && s[i] == '-' {
		neg = true
		i++
	}
	start := i
	var mag int64
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		mag = mag*10 + int64(s[i]-'0')
		if mag > math.MaxInt32+1 {
			return 0, ErrRotationRange
		}
		i++
	}
	if i == start {
		return 0, ErrMissingDigits
	}
	if i != len(s) {
		return 0, ErrTrailingBytes
	}
	if neg {
		mag = -mag
	}
	if mag > math.MaxInt32 || mag < math.MinInt32 {
		return 0, ErrRotationRange
	}
	return int32(mag), nil
}
