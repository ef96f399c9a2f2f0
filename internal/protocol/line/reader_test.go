package line

import (
	"errors"
	"io"
	"strings"
	"testing"
	"testing/iotest"
)

func readAll(t *testing.T, r *Reader) []string {
	t.Helper()
	var out []string
	for {
		l, err := r.Next()
		if errors.Is(err, io.EOF) {
			return out
		}
		if err != nil {
			t.Fatalf("next: %v", err)
		}
		out = append(out, l)
	}
}

func TestReaderSplitsOnAnyTerminator(t *testing.T) {
	in := "I\nL,A\r\nM,-3\rL, \n\n\r\r\nFIN\n"
	got := readAll(t, NewReader(strings.NewReader(in), 0))
	want := []string{"I", "L,A", "M,-3", "L, ", "FIN"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected lines: %q", got)
	}
}

func TestReaderFlushesUnterminatedLineAtEOF(t *testing.T) {
	got := readAll(t, NewReader(strings.NewReader("L,A\nFIN"), 0))
	if len(got) != 2 || got[1] != "FIN" {
		t.Fatalf("unexpected lines: %q", got)
	}
}

func TestReaderEmptyInput(t *testing.T) {
	r := NewReader(strings.NewReader("\r\n\n"), 0)
	if _, err := r.Next(); !errors.Is(err, io.EOF) {
		t.Fatalf("expected EOF, got %v", err)
	}
}

func TestReaderSplitsOverlongLines(t *testing.T) {
	got := readAll(t, NewReader(strings.NewReader("ABCDEFG\nL,A\n"), 3))
	want := []string{"ABC", "DEF", "G", "L,A"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("unexpected lines: %q", got)
	}
}

func TestReaderHandlesByteAtATimeSource(t *testing.T) {
	src := iotest.OneByteReader(strings.NewReader("M,12\r\nL,Z\r\n"))
	got := readAll(t, NewReader(src, 0))
	if len(got) != 2 || got[0] != "M,12" || got[1] != "L,Z" {
		t.Fatalf("unexpected lines: %q", got)
	}
}

func TestReaderPropagatesReadErrors(t *testing.T) {
	boom := errors.New("boom")
	r := NewReader(iotest.ErrReader(boom), 0)
	if _, err := r.Next(); !errors.Is(err, boom) {
		t.Fatalf("expected read error, got %v", err)
	}
}
