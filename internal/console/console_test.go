package console

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/danmuck/prt7/internal/decoder"
	"github.com/danmuck/prt7/internal/protocol/line"
	"github.com/danmuck/prt7/internal/testutil/testlog"
)

func TestSinkRendersSessionTranscript(t *testing.T) {
	testlog.Start(t)

	var out bytes.Buffer
	sink := NewSink(&out, ColorAuto)
	input := "I\nM,5\nL,A\nL, \nX,Y\nM,-2\nFIN\n"
	res, err := decoder.NewSession(decoder.DefaultConfig(), sink).
		Run(context.Background(), line.NewReader(strings.NewReader(input), 0))
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res.Message != "F " {
		t.Fatalf("unexpected message: %q", res.Message)
	}

	want := "--- Inicio de transmision ---\n\n" +
		"Trama: [M,5] -> ROTANDO ROTOR +5\n\n" +
		"Trama: [L,A] -> Fragmento 'A' decodificado como 'F'.\n\n" +
		"Trama: [L, ] -> Fragmento ' ' decodificado como ' '.\n\n" +
		"Trama: [X,Y] -> ERROR: Trama mal formada\n" +
		"Trama: [M,-2] -> ROTANDO ROTOR -2\n\n" +
		"\n--- Fin de transmision ---\n" +
		"  --- Mensaje Decodificado ---:\nF \n"
	if out.String() != want {
		t.Fatalf("unexpected transcript:\n%q\nwant:\n%q", out.String(), want)
	}
}

func TestRotateTrace(t *testing.T) {
	cases := map[int32]string{
		3:  "ROTANDO ROTOR +3",
		0:  "ROTANDO ROTOR 0",
		-7: "ROTANDO ROTOR -7",
	}
	for n, want := range cases {
		if got := RotateTrace(n); got != want {
			t.Fatalf("rotate %d: got=%q want=%q", n, got, want)
		}
	}
}

func TestEmptyMessageStillPrintsLine(t *testing.T) {
	var out bytes.Buffer
	if err := NewSink(&out, ColorNever).Emit(decoder.Event{Kind: decoder.EventMessage}); err != nil {
		t.Fatalf("emit: %v", err)
	}
	if out.String() != MessageHeader+"\n\n" {
		t.Fatalf("unexpected output: %q", out.String())
	}
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("broken pipe") }

func TestSinkWriteFailure(t *testing.T) {
	err := NewSink(brokenWriter{}, ColorNever).Emit(decoder.Event{Kind: decoder.EventStart})
	if err == nil || !strings.Contains(err.Error(), "broken pipe") {
		t.Fatalf("expected write error, got %v", err)
	}
}

func TestParseColorMode(t *testing.T) {
	if ParseColorMode(" Always ") != ColorAlways || ParseColorMode("never") != ColorNever || ParseColorMode("x") != ColorAuto {
		t.Fatalf("unexpected color mode parsing")
	}
	if NewSink(&bytes.Buffer{}, ColorAuto).color {
		t.Fatalf("auto mode must not color a buffer")
	}
}

func TestLoadTraceKeepsRawBytes(t *testing.T) {
	testlog.Start(t)

	var out bytes.Buffer
	sink := NewSink(&out, ColorNever)
	events := []decoder.Event{
		{Kind: decoder.EventFrame, Line: "L,\xe9"},
		{Kind: decoder.EventLoad, In: 0xe9, Out: 0xe9},
	}
	for _, ev := range events {
		if err := sink.Emit(ev); err != nil {
			t.Fatalf("emit: %v", err)
		}
	}
	want := "Trama: [L,\xe9] -> Fragmento '\xe9' decodificado como '\xe9'.\n\n"
	if out.String() != want {
		t.Fatalf("unexpected load trace: %q", out.String())
	}
}
