package fsm

import (
	"unicode/utf8"

	"github.com/stateforward/go-fsm/kinds"
)

// MaxIDLength is the longest event or transition identifier, in bytes.
// Longer identifiers are truncated on a rune boundary.
const MaxIDLength = 64

// Reserved event identifiers.
const (
	// Start is fed to the initial step when a pointer starts.
	Start = "_start"
	// Stop ends the engine loop when it is next read from the inbox.
	Stop = "_stop"
	// Direct labels a transition that is taken without waiting for an event.
	Direct = "_direct"
)

// Event is a trigger delivered to a pointer. Events are values: signalling
// one hands a copy to the inbox, and the engine consumes it exactly once.
type Event struct {
	ID      string
	Payload any
}

func NewEvent(id string, maybePayload ...any) Event {
	var payload any
	if len(maybePayload) > 0 {
		payload = maybePayload[0]
	}
	return Event{ID: boundID(id), Payload: payload}
}

func (event Event) Kind() uint64 {
	switch event.ID {
	case Start:
		return kinds.StartEvent
	case Stop:
		return kinds.StopEvent
	case Direct:
		return kinds.DirectEvent
	}
	return kinds.Event
}

func boundID(id string) string {
	if len(id) <= MaxIDLength {
		return id
	}
	n := MaxIDLength
	for n > 0 && !utf8.RuneStart(id[n]) {
		n--
	}
	return id[:n]
}
