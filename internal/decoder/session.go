package decoder

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/danmuck/prt7/internal/message"
	"github.com/danmuck/prt7/internal/protocol"
	"github.com/danmuck/prt7/internal/rotor"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	uuid "github.com/satori/go.uuid"
)

var (
	ErrUnexpectedEOF    = errors.New("decoder: line source closed before FIN")
	ErrSessionFinished  = errors.New("decoder: session already finished")
	ErrInvalidEOFPolicy = errors.New("decoder: invalid eof policy")
)

// Phase is the advisory session state. Frames are applied in every phase
// except Finished.
type Phase uint8

const (
	PhaseAwaitingStart Phase = iota
	PhaseRunning
	PhaseFinished
)

func (p Phase) String() string {
	switch p {
	case PhaseAwaitingStart:
		return "awaiting_start"
	case PhaseRunning:
		return "running"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// EOFPolicy controls what happens when the line source ends before FIN.
type EOFPolicy string

const (
	EOFEmit EOFPolicy = "emit"
	EOFFail EOFPolicy = "fail"
)

func ParseEOFPolicy(raw string) (EOFPolicy, error) {
	switch EOFPolicy(strings.ToLower(strings.TrimSpace(raw))) {
	case "", EOFEmit:
		return EOFEmit, nil
	case EOFFail:
		return EOFFail, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidEOFPolicy, raw)
	}
}

// LineSource yields non-empty lines with terminators stripped. It returns
// io.EOF once the stream is exhausted.
type LineSource interface {
	Next() (string, error)
}

// Config configures one decoding session.
type Config struct {
	SessionID string
	Parser    protocol.Parser
	EOFPolicy EOFPolicy
}

func DefaultConfig() Config {
	return Config{EOFPolicy: EOFEmit}
}

// Stats counts what a session has seen.
type Stats struct {
	Lines     int
	Starts    int
	Loads     int
	Rotations int
	Malformed int
}

// Result is the outcome of a session. Message holds the decoded text so far,
// even when Run returns an error.
type Result struct {
	SessionID string
	Message   string
	Phase     Phase
	Ended     bool
	Offset    int
	Stats     Stats
}

// Session exclusively owns one rotor and one message buffer.
type Session struct {
	cfg    Config
	sink   Sink
	rotor  *rotor.Rotor
	buf    *message.Buffer
	phase  Phase
	ended  bool
	stats  Stats
	seq    uint64
	logger zerolog.Logger
}

func NewSession(cfg Config, sink Sink) *Session {
	if strings.TrimSpace(cfg.SessionID) == "" {
		cfg.SessionID = uuid.NewV4().String()
	}
	if cfg.EOFPolicy == "" {
		cfg.EOFPolicy = EOFEmit
	}
	if sink == nil {
		sink = Sinks(nil)
	}
	return &Session{
		cfg:    cfg,
		sink:   sink,
		rotor:  rotor.New(),
		buf:    message.NewBuffer(),
		phase:  PhaseAwaitingStart,
		logger: log.With().Str("session", cfg.SessionID).Logger(),
	}
}

func (s *Session) ID() string {
	return s.cfg.SessionID
}

func (s *Session) Phase() Phase {
	return s.phase
}

func (s *Session) Offset() int {
	return s.rotor.Offset()
}

// Message returns the decoded text accumulated so far.
func (s *Session) Message() string {
	return s.buf.Render()
}

func (s *Session) Result() Result {
	return Result{
		SessionID: s.cfg.SessionID,
		Message:   s.buf.Render(),
		Phase:     s.phase,
		Ended:     s.ended,
		Offset:    s.rotor.Offset(),
		Stats:     s.stats,
	}
}

// Run consumes lines until FIN, end of input, a read failure or ctx
// cancellation. The final message is emitted on FIN and, under EOFEmit, on
// end of input.
func (s *Session) Run(ctx context.Context, src LineSource) (Result, error) {
	s.logger.Info().Str("eof_policy", string(s.cfg.EOFPolicy)).Msg("session_start")
	for s.phase != PhaseFinished {
		if err := ctx.Err(); err != nil {
			s.logger.Warn().Err(err).Int("decoded", s.buf.Len()).Msg("session_canceled")
			return s.Result(), err
		}

		line, err := src.Next()
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				s.logger.Warn().Err(ctxErr).Int("decoded", s.buf.Len()).Msg("session_canceled")
				return s.Result(), ctxErr
			}
			if errors.Is(err, io.EOF) {
				return s.closeAtEOF()
			}
			return s.Result(), fmt.Errorf("decoder: read line: %w", err)
		}

		if err := s.Step(line); err != nil {
			return s.Result(), err
		}
	}
	return s.Result(), nil
}

// Step processes one line. It returns ErrSessionFinished once FIN has been
// handled, and otherwise only fails when a sink fails.
func (s *Session) Step(line string) error {
	if s.phase == PhaseFinished {
		return ErrSessionFinished
	}
	if line == "" {
		return nil
	}
	s.stats.Lines++

	switch protocol.Classify(line) {
	case protocol.LineStart:
		s.stats.Starts++
		if s.phase == PhaseAwaitingStart {
			s.phase = PhaseRunning
		}
		s.logger.Debug().Str("phase", s.phase.String()).Msg("start_marker")
		return s.emit(Event{Kind: EventStart})
	case protocol.LineEnd:
		s.ended = true
		if err := s.emit(Event{Kind: EventEnd}); err != nil {
			return err
		}
		return s.finish()
	}

	if err := s.emit(Event{Kind: EventFrame, Line: line}); err != nil {
		return err
	}

	frame, err := s.cfg.Parser.Parse(line)
	if err != nil {
		s.stats.Malformed++
		s.logger.Warn().Str("line", line).Err(err).Msg("malformed_frame")
		return s.emit(Event{Kind: EventMalformed, Line: line, Err: err})
	}

	ev := Apply(frame, s.rotor, s.buf)
	ev.Line = line
	switch frame.Kind {
	case protocol.KindLoad:
		s.stats.Loads++
	case protocol.KindRotate:
		s.stats.Rotations++
	}
	s.logger.Debug().
		Str("frame", frame.String()).
		Int("offset", s.rotor.Offset()).
		Msg("frame_applied")
	return s.emit(ev)
}

// Apply executes one frame against the rotor and buffer and returns the
// matching load or rotate event.
func Apply(f protocol.Frame, r *rotor.Rotor, b *message.Buffer) Event {
	switch f.Kind {
	case protocol.KindLoad:
		out := r.Map(f.Char)
		b.Append(out)
		return Event{Kind: EventLoad, In: f.Char, Out: out, Offset: r.Offset()}
	case protocol.KindRotate:
		r.Rotate(f.Steps)
		return Event{Kind: EventRotate, Steps: f.Steps, Offset: r.Offset()}
	default:
		return Event{Kind: EventMalformed, Err: fmt.Errorf("%w: %v", protocol.ErrUnknownKind, f.Kind), Offset: r.Offset()}
	}
}

func (s *Session) closeAtEOF() (Result, error) {
	if s.cfg.EOFPolicy == EOFFail {
		s.phase = PhaseFinished
		s.logger.Error().Int("decoded", s.buf.Len()).Msg("unexpected_eof")
		return s.Result(), ErrUnexpectedEOF
	}
	s.logger.Warn().Int("decoded", s.buf.Len()).Msg("eof_before_fin")
	if err := s.finish(); err != nil {
		return s.Result(), err
	}
	return s.Result(), nil
}

func (s *Session) finish() error {
	s.phase = PhaseFinished
	msg := s.buf.Render()
	s.logger.Info().
		Int("lines", s.stats.Lines).
		Int("loads", s.stats.Loads).
		Int("rotations", s.stats.Rotations).
		Int("malformed", s.stats.Malformed).
		Bool("fin", s.ended).
		Msg("session_end")
	return s.emit(Event{Kind: EventMessage, Message: msg})
}

func (s *Session) emit(ev Event) error {
	s.seq++
	ev.Seq = s.seq
	ev.Session = s.cfg.SessionID
	ev.Time = time.Now()
	if ev.Kind != EventLoad && ev.Kind != EventRotate {
		ev.Offset = s.rotor.Offset()
	}
	if err := s.sink.Emit(ev); err != nil {
		return fmt.Errorf("decoder: emit %s: %w", ev.Kind, err)
	}
	return nil
}
