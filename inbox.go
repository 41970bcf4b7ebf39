package fsm

import (
	"log/slog"

	"github.com/stateforward/go-fsm/queue"
)

type inbox struct {
	events *queue.Queue[Event]
}

func newInbox() *inbox {
	return &inbox{events: queue.New[Event]()}
}

func (inbox *inbox) push(event Event) {
	inbox.events.Push(event)
}

func (inbox *inbox) popOrWait() Event {
	return inbox.events.PopWait()
}

func (inbox *inbox) len() int {
	return inbox.events.Len()
}

// cleanup discards whatever is still queued once the engine has stopped.
func (inbox *inbox) cleanup(logger *slog.Logger) {
	for _, event := range inbox.events.Cleanup() {
		logger.Debug("discarding queued event", slog.String("event", event.ID))
	}
}
