// Package prompt asks the operator for the serial device path.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

const Question = "Ingrese el puerto serial del Arduino:"

var ErrCanceled = errors.New("prompt: canceled by operator")

var (
	questionStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	hintStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
)

func hint(def string) string {
	return fmt.Sprintf("(Puerto: %s)", def)
}

// Device asks for a device path on out and reads the answer from in. A
// terminal gets an editable input field; anything else is read as one
// line. An empty answer selects def. Canceling ctx abandons the read and
// returns ErrCanceled.
func Device(ctx context.Context, in io.Reader, out io.Writer, def string) (string, error) {
	if f, ok := in.(*os.File); ok && isatty.IsTerminal(f.Fd()) {
		return interactive(ctx, f, out, def)
	}
	return plain(ctx, in, out, def)
}

type answer struct {
	raw string
	err error
}

func plain(ctx context.Context, in io.Reader, out io.Writer, def string) (string, error) {
	if _, err := fmt.Fprintf(out, "%s\n%s\n", Question, hint(def)); err != nil {
		return "", err
	}
	// The read cannot be interrupted, so it may outlive a canceled prompt.
	done := make(chan answer, 1)
	go func() {
		raw, err := bufio.NewReader(in).ReadString('\n')
		done <- answer{raw: raw, err: err}
	}()

	select {
	case <-ctx.Done():
		return "", ErrCanceled
	case a := <-done:
		if a.err != nil && !errors.Is(a.err, io.EOF) {
			return "", fmt.Errorf("prompt: read device: %w", a.err)
		}
		return choose(a.raw, def), nil
	}
}

func interactive(ctx context.Context, in *os.File, out io.Writer, def string) (string, error) {
	final, err := tea.NewProgram(newModel(def),
		tea.WithContext(ctx),
		tea.WithInput(in),
		tea.WithOutput(out),
	).Run()
	if err != nil {
		if ctx.Err() != nil {
			return "", ErrCanceled
		}
		return "", fmt.Errorf("prompt: %w", err)
	}
	m, ok := final.(model)
	if !ok {
		return "", fmt.Errorf("prompt: unexpected model %T", final)
	}
	if m.canceled {
		return "", ErrCanceled
	}
	return choose(m.value, def), nil
}

func choose(raw, def string) string {
	if v := strings.TrimSpace(raw); v != "" {
		return v
	}
	return def
}

type model struct {
	input    textinput.Model
	def      string
	value    string
	done     bool
	canceled bool
}

func newModel(def string) model {
	ti := textinput.New()
	ti.Placeholder = def
	ti.CharLimit = 255
	ti.Focus()
	return model{input: ti, def: def}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.Type {
		case tea.KeyEnter:
			m.value = m.input.Value()
			m.done = true
			return m, tea.Quit
		case tea.KeyCtrlC, tea.KeyEsc:
			m.canceled = true
			return m, tea.Quit
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// View keeps the question and hint on screen after the prompt closes so
// the transcript shows what was asked.
func (m model) View() string {
	header := fmt.Sprintf("%s\n%s\n", questionStyle.Render(Question), hintStyle.Render(hint(m.def)))
	if m.done || m.canceled {
		return header
	}
	return header + m.input.View() + "\n"
}
