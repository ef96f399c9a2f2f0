package message

// Buffer accumulates decoded characters in arrival order. It is append-only
// for the lifetime of a session.
type Buffer struct {
	data []byte
}

func NewBuffer() *Buffer {
	return &Buffer{data: make([]byte, 0, 64)}
}

func (b *Buffer) Append(c byte) {
	b.data = append(b.data, c)
}

func (b *Buffer) Len() int {
	return len(b.data)
}

// Render returns the decoded message. The returned string does not alias the
// buffer.
func (b *Buffer) Render() string {
	return string(b.data)
}
