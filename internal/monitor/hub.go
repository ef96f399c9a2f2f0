package monitor

import (
	"sync"
	"time"

	"github.com/danmuck/prt7/internal/decoder"
	"github.com/rs/zerolog/log"
)

const clientBuffer = 64

// WireEvent is the JSON form of a decoder event.
type WireEvent struct {
	Kind    string    `json:"kind"`
	Session string    `json:"session"`
	Seq     uint64    `json:"seq"`
	Time    time.Time `json:"time"`
	Line    string    `json:"line,omitempty"`
	In      string    `json:"in,omitempty"`
	Out     string    `json:"out,omitempty"`
	Steps   int32     `json:"steps,omitempty"`
	Offset  int       `json:"offset"`
	Message string    `json:"message,omitempty"`
	Error   string    `json:"error,omitempty"`
}

func toWire(ev decoder.Event) WireEvent {
	w := WireEvent{
		Kind:    ev.Kind.String(),
		Session: ev.Session,
		Seq:     ev.Seq,
		Time:    ev.Time,
		Line:    ev.Line,
		Steps:   ev.Steps,
		Offset:  ev.Offset,
		Message: ev.Message,
	}
	if ev.Kind == decoder.EventLoad {
		w.In = string([]byte{ev.In})
		w.Out = string([]byte{ev.Out})
	}
	if ev.Err != nil {
		w.Error = ev.Err.Error()
	}
	return w
}

// Snapshot is the monitor's view of the current session.
type Snapshot struct {
	Session   string `json:"session"`
	Offset    int    `json:"offset"`
	Decoded   string `json:"decoded"`
	Events    uint64 `json:"events"`
	Malformed int    `json:"malformed"`
	Started   bool   `json:"started"`
	Finished  bool   `json:"finished"`
}

// Hub fans session events out to websocket clients. Slow clients drop
// events instead of stalling the decoder.
type Hub struct {
	mu      sync.RWMutex
	clients map[chan WireEvent]struct{}
	state   Snapshot
	decoded []byte
}

func NewHub() *Hub {
	return &Hub{clients: make(map[chan WireEvent]struct{})}
}

// Emit implements decoder.Sink and never fails.
func (h *Hub) Emit(ev decoder.Event) error {
	w := toWire(ev)

	h.mu.Lock()
	if h.state.Session != ev.Session {
		h.state = Snapshot{Session: ev.Session}
		h.decoded = h.decoded[:0]
	}
	h.state.Events++
	h.state.Offset = ev.Offset
	switch ev.Kind {
	case decoder.EventStart:
		h.state.Started = true
	case decoder.EventLoad:
		h.decoded = append(h.decoded, ev.Out)
	case decoder.EventMalformed:
		h.state.Malformed++
	case decoder.EventMessage:
		h.state.Finished = true
	}
	h.state.Decoded = string(h.decoded)
	for ch := range h.clients {
		select {
		case ch <- w:
		default:
			log.Warn().Str("kind", w.Kind).Uint64("seq", w.Seq).Msg("monitor_client_lagging")
		}
	}
	h.mu.Unlock()
	return nil
}

func (h *Hub) Snapshot() Snapshot {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

func (h *Hub) subscribe() chan WireEvent {
	ch := make(chan WireEvent, clientBuffer)
	h.mu.Lock()
	h.clients[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *Hub) unsubscribe(ch chan WireEvent) {
	h.mu.Lock()
	if _, ok := h.clients[ch]; ok {
		delete(h.clients, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// Clients returns the number of connected subscribers.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
