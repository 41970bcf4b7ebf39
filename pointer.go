package fsm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/stateforward/go-fsm/clock"
	"github.com/stateforward/go-fsm/kinds"
	"github.com/stateforward/go-fsm/pkg/telemetry"
)

// Logger is the default logger used when none is provided
var Logger = slog.Default()

const tracerName = "github.com/stateforward/go-fsm"

var (
	ErrNotStopped    = errors.New("pointer is not stopped")
	ErrTimeout       = errors.New("wait timed out")
	ErrNullReference = errors.New("null reference")
)

type RunState int32

const (
	Stopped RunState = iota
	Starting
	Running
	Closing
)

func (state RunState) String() string {
	switch state {
	case Stopped:
		return "stopped"
	case Starting:
		return "starting"
	case Running:
		return "running"
	case Closing:
		return "closing"
	}
	return fmt.Sprintf("RunState(%d)", int32(state))
}

// Visit identifies one entry into a step. Generation increases on every
// entry, so two visits to the same step are told apart.
type Visit struct {
	Step       StepID
	Generation uint64
}

// Pointer is one running instance of a machine. It owns a goroutine and an
// event inbox, and walks the step graph of its Registry.
//
// current and generation are written only by the pointer's own goroutine,
// always under mu and followed by a broadcast on cond.
type Pointer struct {
	id       uuid.UUID
	name     string
	registry *Registry
	inbox    *inbox

	mu         sync.Mutex
	cond       *sync.Cond
	state      RunState
	current    StepID
	generation uint64
	deleted    bool
	cancel     context.CancelFunc
	done       chan struct{}

	parent context.Context
	logger *slog.Logger
	tracer trace.Tracer
	clock  clock.Clock
}

// NewPointer creates a stopped pointer bound to registry. It does not run
// until Start is called.
func NewPointer(registry *Registry, opts ...Option) *Pointer {
	pointer := &Pointer{
		id:       uuid.New(),
		registry: registry,
		inbox:    newInbox(),
		parent:   context.Background(),
		logger:   Logger,
		tracer:   telemetry.NewProvider().Tracer(tracerName),
		clock:    clock.Make(),
	}
	pointer.cond = sync.NewCond(&pointer.mu)
	for _, opt := range opts {
		opt(pointer)
	}
	pointer.logger = pointer.logger.With(slog.String("pointer", pointer.id.String()))
	if pointer.name != "" {
		pointer.logger = pointer.logger.With(slog.String("name", pointer.name))
	}
	return pointer
}

func (pointer *Pointer) ID() uuid.UUID {
	return pointer.id
}

func (pointer *Pointer) String() string {
	if pointer == nil {
		return "<nil>"
	}
	if pointer.name != "" {
		return pointer.name
	}
	return pointer.id.String()
}

func (pointer *Pointer) State() RunState {
	pointer.mu.Lock()
	defer pointer.mu.Unlock()
	return pointer.state
}

func (pointer *Pointer) Current() StepID {
	pointer.mu.Lock()
	defer pointer.mu.Unlock()
	return pointer.current
}

func (pointer *Pointer) Visit() Visit {
	pointer.mu.Lock()
	defer pointer.mu.Unlock()
	return Visit{Step: pointer.current, Generation: pointer.generation}
}

// Pending returns the number of events waiting in the inbox.
func (pointer *Pointer) Pending() int {
	return pointer.inbox.len()
}

// Start launches the pointer's goroutine at init and returns once the entry
// action of init has begun. It fails with ErrNotStopped unless the pointer is
// stopped, and with ErrUnknownStep if init cannot be entered.
func (pointer *Pointer) Start(init StepID) error {
	if pointer == nil {
		Logger.Warn("asking to start a nil pointer")
		return ErrNullReference
	}
	_, span := pointer.tracer.Start(pointer.parent, "fsm.start", trace.WithAttributes(
		telemetry.PointerID(pointer.id.String()),
		telemetry.StepID(init),
	))
	defer span.End()

	pointer.mu.Lock()
	defer pointer.mu.Unlock()
	if err := pointer.start(init); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	return nil
}

func (pointer *Pointer) start(init StepID) error {
	if pointer.deleted {
		return fmt.Errorf("start: %w", ErrNullReference)
	}
	if pointer.state != Stopped {
		pointer.logger.Error("a pointer can't be started if it's not stopped",
			slog.String("state", pointer.state.String()))
		return fmt.Errorf("start: %w (%s)", ErrNotStopped, pointer.state)
	}
	if !pointer.registry.Contains(init) {
		return fmt.Errorf("start at %d: %w", init, ErrUnknownStep)
	}

	ctx, cancel := context.WithCancel(pointer.parent)
	done := make(chan struct{})
	generation := pointer.generation
	pointer.current = init
	pointer.state = Starting
	pointer.cancel = cancel
	pointer.done = done
	go pointer.run(ctx, init, done)

	for pointer.state == Starting {
		pointer.cond.Wait()
	}
	if pointer.generation == generation {
		// the goroutine gave up before entering init
		cancel()
		return fmt.Errorf("start at %d: %w", init, ErrUnknownStep)
	}
	return nil
}

// Signal queues event for the pointer. It never blocks and may be called from
// any goroutine. Events are delivered in the order they were signalled.
func (pointer *Pointer) Signal(event Event) {
	if pointer == nil {
		Logger.Warn("asking to signal a nil pointer", slog.String("event", event.ID))
		return
	}
	pointer.mu.Lock()
	deleted := pointer.deleted
	pointer.mu.Unlock()
	if deleted {
		pointer.logger.Warn("signal to a deleted pointer dropped", slog.String("event", event.ID))
		return
	}
	event.ID = boundID(event.ID)
	pointer.inbox.push(event)
}

// Join stops the pointer and waits for its goroutine to return. Joining a
// stopped pointer only discards queued events. Join must not be called from
// an entry action of the same pointer; signal Stop instead.
func (pointer *Pointer) Join() {
	if pointer == nil {
		Logger.Warn("asking to join a nil pointer")
		return
	}
	_, span := pointer.tracer.Start(pointer.parent, "fsm.join", trace.WithAttributes(
		telemetry.PointerID(pointer.id.String()),
	))
	defer span.End()

	pointer.mu.Lock()
	defer pointer.mu.Unlock()
	for pointer.state == Starting || pointer.state == Closing {
		pointer.cond.Wait()
	}
	span.SetAttributes(telemetry.State(pointer.state))
	if pointer.state == Running {
		pointer.inbox.push(NewEvent(Stop))
		// a pointer busy in a direct chain sees this before it reads Stop
		pointer.state = Closing
		pointer.cond.Broadcast()
		cancel, done := pointer.cancel, pointer.done

		pointer.mu.Unlock()
		cancel()
		<-done
		pointer.mu.Lock()

		pointer.state = Stopped
		pointer.cond.Broadcast()
		pointer.logger.Debug("pointer stopped")
	}
	pointer.inbox.cleanup(pointer.logger)
}

// Delete joins the pointer and makes it unusable.
func (pointer *Pointer) Delete() {
	if pointer == nil {
		Logger.Warn("asking to delete a nil pointer")
		return
	}
	pointer.Join()
	pointer.mu.Lock()
	pointer.deleted = true
	pointer.mu.Unlock()
}

func (pointer *Pointer) run(ctx context.Context, current StepID, done chan<- struct{}) {
	defer close(done)
	defer pointer.finish()

	event := NewEvent(Start)
	result, ok := pointer.enterStep(ctx, current, event)
	for ok {
		if pointer.State() != Running {
			return
		}
		if target, redirect := result.Redirect(); redirect {
			current = target
			result, ok = pointer.enterStep(ctx, current, event)
			continue
		}
		transitions, found := pointer.transitions(current)
		if !found {
			return
		}
		if len(transitions) > 0 && kinds.IsKind(transitions[0].Kind(), kinds.Direct) {
			current = transitions[0].Target
			result, ok = pointer.enterStep(ctx, current, event)
			continue
		}

		event = pointer.inbox.popOrWait()
		if kinds.IsKind(event.Kind(), kinds.StopEvent) {
			return
		}
		if transitions, found = pointer.transitions(current); !found {
			return
		}
		transition, matched := match(transitions, event.ID)
		if !matched {
			pointer.drop(ctx, current, event)
			continue
		}
		current = transition.Target
		result, ok = pointer.enterStep(ctx, current, event)
	}
}

// enterStep publishes id as the current step, wakes every waiter, then runs
// the step's entry action outside the lock.
func (pointer *Pointer) enterStep(ctx context.Context, id StepID, event Event) (Result, bool) {
	s, ok := pointer.registry.lookup(id)
	if !ok {
		pointer.logger.Error("cannot enter a step that is not registered",
			slog.Uint64("step", uint64(id)),
			slog.String("event", event.ID))
		return Stay, false
	}
	ctx, span := pointer.tracer.Start(ctx, "fsm.enter", trace.WithAttributes(
		telemetry.PointerID(pointer.id.String()),
		telemetry.StepID(id),
		telemetry.EventID(event.ID),
	))
	defer span.End()

	pointer.mu.Lock()
	pointer.current = id
	pointer.generation++
	if pointer.state == Starting {
		pointer.state = Running
	}
	pointer.cond.Broadcast()
	pointer.mu.Unlock()

	pointer.logger.Debug("entering step",
		slog.Uint64("step", uint64(id)),
		slog.String("event", event.ID))
	return s.entry(&Context{
		Context: ctx,
		Event:   event,
		Pointer: pointer,
		Step:    id,
		Args:    s.args,
		Logger:  pointer.logger,
	}), true
}

func (pointer *Pointer) transitions(current StepID) ([]Transition, bool) {
	s, ok := pointer.registry.lookup(current)
	if !ok {
		pointer.logger.Error("current step is no longer registered",
			slog.Uint64("step", uint64(current)))
		return nil, false
	}
	return s.transitions, true
}

// drop discards an event the current step has no transition for. This is
// not an error.
func (pointer *Pointer) drop(ctx context.Context, current StepID, event Event) {
	pointer.logger.Debug("no transition for event",
		slog.Uint64("step", uint64(current)),
		slog.String("event", event.ID))
	_, span := pointer.tracer.Start(ctx, "fsm.drop", trace.WithAttributes(
		telemetry.PointerID(pointer.id.String()),
		telemetry.StepID(current),
		telemetry.EventID(event.ID),
	))
	span.End()
}

// finish runs when the goroutine returns. If the first step was never
// entered the pointer falls back to Stopped so Start can report it.
func (pointer *Pointer) finish() {
	pointer.mu.Lock()
	defer pointer.mu.Unlock()
	if pointer.state == Starting {
		pointer.state = Stopped
	}
	pointer.cond.Broadcast()
}
