package decoder

import (
	"errors"
	"time"
)

type EventKind uint8

const (
	EventStart EventKind = iota + 1
	EventFrame
	EventMalformed
	EventLoad
	EventRotate
	EventEnd
	EventMessage
)

func (k EventKind) String() string {
	switch k {
	case EventStart:
		return "start"
	case EventFrame:
		return "frame"
	case EventMalformed:
		return "malformed"
	case EventLoad:
		return "load"
	case EventRotate:
		return "rotate"
	case EventEnd:
		return "end"
	case EventMessage:
		return "message"
	default:
		return "unknown"
	}
}

// Event is one observable step of a session. Fields are populated per kind:
// Line for frame/malformed, In/Out for load, Steps for rotate, Message for
// message. Offset is the rotor offset after the event.
type Event struct {
	Kind    EventKind
	Session string
	Seq     uint64
	Time    time.Time
	Line    string
	In      byte
	Out     byte
	Steps   int32
	Offset  int
	Message string
	Err     error
}

// Sink receives session events in order.
type Sink interface {
	Emit(Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event) error

func (f SinkFunc) Emit(ev Event) error {
	return f(ev)
}

// Sinks fans an event out to every sink. All sinks see the event even when an
// earlier one fails; the failures are joined.
type Sinks []Sink

func (s Sinks) Emit(ev Event) error {
	var errs []error
	for _, sink := range s {
		if sink == nil {
			continue
		}
		if err := sink.Emit(ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Recorder keeps every event it receives. Useful for tests and replays.
type Recorder struct {
	Events []Event
}

func (r *Recorder) Emit(ev Event) error {
	r.Events = append(r.Events, ev)
	return nil
}

// Kinds returns the recorded event kinds in order.
func (r *Recorder) Kinds() []EventKind {
	out := make([]EventKind, 0, len(r.Events))
	for _, ev := range r.Events {
		out = append(out, ev.Kind)
	}
	return out
}
