package fsm

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
)

var (
	ErrUnknownStep = errors.New("unknown step")
	ErrInvalidID   = errors.New("invalid event identifier")
)

// Registry owns every step it creates. Pointers and transitions refer to
// steps only through StepID handles, so a deleted step can never be reached
// through a stale reference: lookups of it simply fail.
//
// The registry is safe for concurrent use, but the graph is expected to be
// built before any pointer traverses it.
type Registry struct {
	mu     sync.RWMutex
	steps  map[StepID]*step
	last   StepID
	logger *slog.Logger
}

func NewRegistry() *Registry {
	return &Registry{
		steps:  map[StepID]*step{},
		logger: Logger,
	}
}

// Create registers a new step with no transitions. A nil entry is replaced
// by Noop.
func (registry *Registry) Create(entry Entry, args any) StepID {
	if entry == nil {
		entry = Noop
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.last++
	id := registry.last
	registry.steps[id] = &step{id: id, entry: entry, args: args}
	return id
}

// Connect appends a transition from one step to another. Graphs may be
// cyclic, and a repeated event on the same source is accepted even though
// only the first such transition can ever be taken.
func (registry *Registry) Connect(from, to StepID, event string) error {
	if event == "" {
		return fmt.Errorf("connect %d -> %d: %w", from, to, ErrInvalidID)
	}
	registry.mu.Lock()
	defer registry.mu.Unlock()
	source, ok := registry.steps[from]
	if !ok {
		return fmt.Errorf("connect from %d: %w", from, ErrUnknownStep)
	}
	if _, ok := registry.steps[to]; !ok {
		return fmt.Errorf("connect to %d: %w", to, ErrUnknownStep)
	}
	event = boundID(event)
	if _, exists := match(source.transitions, event); exists {
		registry.logger.Warn("transition shadowed by an earlier one",
			slog.Uint64("from", uint64(from)),
			slog.Uint64("to", uint64(to)),
			slog.String("event", event))
	}
	source.transitions = append(source.transitions, Transition{Event: event, Target: to})
	return nil
}

// Delete removes a step and its transitions. Transitions of other steps that
// target it are left in place; a pointer taking one, or sitting on the
// deleted step, stops at that lookup.
func (registry *Registry) Delete(id StepID) error {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, ok := registry.steps[id]; !ok {
		return fmt.Errorf("delete %d: %w", id, ErrUnknownStep)
	}
	delete(registry.steps, id)
	return nil
}

// DeleteAll drops every step and reports how many were removed. Intended for
// teardown once every pointer using these steps has been joined.
func (registry *Registry) DeleteAll() int {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	n := len(registry.steps)
	registry.steps = map[StepID]*step{}
	return n
}

func (registry *Registry) Len() int {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	return len(registry.steps)
}

func (registry *Registry) Contains(id StepID) bool {
	_, ok := registry.lookup(id)
	return ok
}

// Transitions returns a copy of the step's outgoing transitions in match
// order.
func (registry *Registry) Transitions(id StepID) ([]Transition, error) {
	s, ok := registry.lookup(id)
	if !ok {
		return nil, fmt.Errorf("transitions of %d: %w", id, ErrUnknownStep)
	}
	return append([]Transition(nil), s.transitions...), nil
}

// lookup returns a snapshot of the step. The transitions slice shares its
// backing array with the registry but is never written below its length.
func (registry *Registry) lookup(id StepID) (step, bool) {
	if registry == nil {
		return step{}, false
	}
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	s, ok := registry.steps[id]
	if !ok {
		return step{}, false
	}
	return *s, true
}
