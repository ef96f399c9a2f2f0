package protocol

import "fmt"

// Kind tags the Frame variant.
type Kind uint8

const (
	KindLoad Kind = iota + 1
	KindRotate
)

func (k Kind) String() string {
	switch k {
	case KindLoad:
		return "load"
	case KindRotate:
		return "rotate"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// Frame is one decoded command. Char is set for KindLoad, Steps for KindRotate.
type Frame struct {
	Kind  Kind
	Char  byte
	Steps int32
}

func Load(c byte) Frame {
	return Frame{Kind: KindLoad, Char: c}
}

func Rotate(n int32) Frame {
	return Frame{Kind: KindRotate, Steps: n}
}

func (f Frame) String() string {
	switch f.Kind {
	case KindLoad:
		return fmt.Sprintf("L,%c", f.Char)
	case KindRotate:
		return fmt.Sprintf("M,%d", f.Steps)
	default:
		return f.Kind.String()
	}
}

// LineClass is the classification of a line before frame parsing.
type LineClass uint8

const (
	LineFrame LineClass = iota
	LineStart
	LineEnd
)

func (c LineClass) String() string {
	switch c {
	case LineStart:
		return "start"
	case LineEnd:
		return "end"
	default:
		return "frame"
	}
}
