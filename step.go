package fsm

import (
	"context"
	"log/slog"

	"github.com/stateforward/go-fsm/kinds"
)

// StepID is a stable handle to a step owned by a Registry. The zero value
// never names a step.
type StepID uint64

const NoStep StepID = 0

// Result is what an entry action returns: either Stay, which hands control
// back to the transition table, or a redirection built with RedirectTo.
type Result struct {
	target StepID
}

var Stay = Result{}

// RedirectTo makes the engine enter step immediately, with the same event,
// without consulting transitions or the inbox.
func RedirectTo(step StepID) Result {
	return Result{target: step}
}

func (result Result) Redirect() (StepID, bool) {
	return result.target, result.target != NoStep
}

// Entry is the action run on the pointer's goroutine each time a step is
// entered.
type Entry func(ctx *Context) Result

// Noop is the entry action for terminal or placeholder steps.
var Noop Entry = func(*Context) Result { return Stay }

// Context is handed to an entry action for the duration of the call. The
// embedded context is cancelled once the pointer is asked to stop.
type Context struct {
	context.Context
	Event   Event
	Pointer *Pointer
	Step    StepID
	Args    any
	Logger  *slog.Logger
}

// Transition is a directed edge owned by its source step.
type Transition struct {
	Event  string
	Target StepID
}

func (transition Transition) Kind() uint64 {
	if transition.Event == Direct {
		return kinds.Direct
	}
	return kinds.Transition
}

type step struct {
	id          StepID
	entry       Entry
	args        any
	transitions []Transition
}

// match returns the first transition labelled with id.
func match(transitions []Transition, id string) (Transition, bool) {
	for _, transition := range transitions {
		if transition.Event == id {
			return transition, true
		}
	}
	return Transition{}, false
}
