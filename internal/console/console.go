// Package console renders decoder events as operator diagnostics.
package console

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/danmuck/prt7/internal/decoder"
	"github.com/mattn/go-isatty"
)

const (
	StartBanner     = "--- Inicio de transmision ---"
	EndBanner       = "--- Fin de transmision ---"
	MessageHeader   = "  --- Mensaje Decodificado ---:"
	MalformedNotice = "ERROR: Trama mal formada"
	Title           = "  DECODIFICADOR PRT-7"
	ShutdownNotice  = "Sistema apagado correctamente."
)

// ColorMode selects when styling is applied.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

var (
	bannerStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	rotateStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	messageStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
)

// Sink writes events to w in the PRT-7 console layout.
type Sink struct {
	w     io.Writer
	color bool
}

func NewSink(w io.Writer, mode ColorMode) *Sink {
	return &Sink{w: w, color: useColor(w, mode)}
}

func (s *Sink) Emit(ev decoder.Event) error {
	var err error
	switch ev.Kind {
	case decoder.EventStart:
		_, err = fmt.Fprintf(s.w, "%s\n\n", s.style(bannerStyle, StartBanner))
	case decoder.EventFrame:
		_, err = fmt.Fprintf(s.w, "Trama: [%s] -> ", ev.Line)
	case decoder.EventMalformed:
		_, err = fmt.Fprintf(s.w, "%s\n", s.style(errorStyle, MalformedNotice))
	case decoder.EventLoad:
		_, err = fmt.Fprintf(s.w, "Fragmento '%s' decodificado como '%s'.\n\n", []byte{ev.In}, []byte{ev.Out})
	case decoder.EventRotate:
		_, err = fmt.Fprintf(s.w, "%s\n\n", s.style(rotateStyle, RotateTrace(ev.Steps)))
	case decoder.EventEnd:
		_, err = fmt.Fprintf(s.w, "\n%s\n", s.style(bannerStyle, EndBanner))
	case decoder.EventMessage:
		_, err = fmt.Fprintf(s.w, "%s\n%s\n", s.style(bannerStyle, MessageHeader), s.style(messageStyle, ev.Message))
	}
	if err != nil {
		return fmt.Errorf("console: write %s: %w", ev.Kind, err)
	}
	return nil
}

// RotateTrace formats a rotation; positive steps carry an explicit '+'.
func RotateTrace(n int32) string {
	if n > 0 {
		return fmt.Sprintf("ROTANDO ROTOR +%d", n)
	}
	return fmt.Sprintf("ROTANDO ROTOR %d", n)
}

func (s *Sink) style(st lipgloss.Style, text string) string {
	if !s.color || text == "" {
		return text
	}
	return st.Render(text)
}

// ParseColorMode accepts auto, always and never; anything else is auto.
func ParseColorMode(raw string) ColorMode {
	switch ColorMode(strings.ToLower(strings.TrimSpace(raw))) {
	case ColorAlways:
		return ColorAlways
	case ColorNever:
		return ColorNever
	default:
		return ColorAuto
	}
}

func useColor(w io.Writer, mode ColorMode) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}
