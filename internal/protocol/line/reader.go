// Package line splits a serial byte stream into PRT-7 lines.
//
// A line ends at '\r' or '\n' (any mix of both). Terminators are stripped and
// empty lines are never returned. A line that reaches the length limit
// without a terminator is returned as-is and reading resumes after it.
package line

import (
	"bufio"
	"io"
)

// DefaultMaxLen matches the 100-byte line buffer of the reference firmware
// host (99 bytes plus terminator).
const DefaultMaxLen = 99

type Reader struct {
	r      *bufio.Reader
	maxLen int
	buf    []byte
}

func NewReader(r io.Reader, maxLen int) *Reader {
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}
	return &Reader{
		r:      bufio.NewReader(r),
		maxLen: maxLen,
		buf:    make([]byte, 0, maxLen),
	}
}

// Next blocks until a non-empty line is available. At end of input a pending
// unterminated line is returned first; after that Next returns io.EOF.
func (r *Reader) Next() (string, error) {
	r.buf = r.buf[:0]
	for {
		b, err := r.r.ReadByte()
		if err != nil {
			if len(r.buf) > 0 {
				return string(r.buf), nil
			}
			return "", err
		}
		if b == '\r' || b == '\n' {
			if len(r.buf) > 0 {
				return string(r.buf), nil
			}
			continue
		}
		r.buf = append(r.buf, b)
		if len(r.buf) >= r.maxLen {
			return string(r.buf), nil
		}
	}
}
