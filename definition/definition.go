// Package definition loads a step graph from a YAML document into a
// Registry. Entry actions are code, so the document names them and the
// caller supplies the implementations.
//
//	initial: idle
//	steps:
//	  - name: idle
//	    entry: log
//	    transitions:
//	      - event: work
//	        target: busy
//	  - name: busy
//	    transitions:
//	      - event: _direct
//	        target: idle
package definition

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"gopkg.in/yaml.v3"

	"github.com/stateforward/go-fsm"
	"github.com/stateforward/go-fsm/pkg/set"
)

var (
	ErrInvalid       = errors.New("invalid definition")
	ErrUnknownAction = errors.New("unknown entry action")
)

type Document struct {
	Initial string    `yaml:"initial"`
	Steps   []StepDef `yaml:"steps"`
}

type StepDef struct {
	Name string `yaml:"name"`
	// Entry names an action in the Actions passed to Build. Empty means
	// fsm.Noop.
	Entry       string          `yaml:"entry,omitempty"`
	Args        any             `yaml:"args,omitempty"`
	Transitions []TransitionDef `yaml:"transitions,omitempty"`
}

type TransitionDef struct {
	Event  string `yaml:"event"`
	Target string `yaml:"target"`
}

// Actions maps the entry names used in a document to their code.
type Actions map[string]fsm.Entry

// Graph maps step names to the handles created for them.
type Graph struct {
	Steps   map[string]fsm.StepID
	Initial fsm.StepID
}

func (graph *Graph) Step(name string) (fsm.StepID, bool) {
	id, ok := graph.Steps[name]
	return id, ok
}

func Parse(data []byte) (*Document, error) {
	return Decode(bytes.NewReader(data))
}

func Decode(r io.Reader) (*Document, error) {
	var document Document
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&document); err != nil {
		return nil, fmt.Errorf("decode definition: %w", err)
	}
	return &document, nil
}

// Validate checks that names are unique and every reference resolves. Entry
// names are checked by Build, which knows the actions.
func (document *Document) Validate() error {
	if len(document.Steps) == 0 {
		return fmt.Errorf("%w: no steps", ErrInvalid)
	}
	names := set.New[string]()
	for i, step := range document.Steps {
		if step.Name == "" {
			return fmt.Errorf("%w: step %d has no name", ErrInvalid, i)
		}
		if names.Contains(step.Name) {
			return fmt.Errorf("%w: duplicate step %q", ErrInvalid, step.Name)
		}
		names.Add(step.Name)
	}
	for _, step := range document.Steps {
		for _, transition := range step.Transitions {
			if transition.Event == "" {
				return fmt.Errorf("%w: step %q has a transition without an event", ErrInvalid, step.Name)
			}
			if !names.Contains(transition.Target) {
				return fmt.Errorf("%w: step %q targets unknown step %q", ErrInvalid, step.Name, transition.Target)
			}
		}
	}
	if document.Initial != "" && !names.Contains(document.Initial) {
		return fmt.Errorf("%w: unknown initial step %q", ErrInvalid, document.Initial)
	}
	return nil
}

// Build validates the document and creates its steps and transitions in
// registry, in document order. Nothing is created if validation fails. The
// initial step defaults to the first one listed.
func (document *Document) Build(registry *fsm.Registry, actions Actions) (*Graph, error) {
	if err := document.Validate(); err != nil {
		return nil, err
	}
	entries := make([]fsm.Entry, len(document.Steps))
	for i, step := range document.Steps {
		if step.Entry == "" {
			entries[i] = fsm.Noop
			continue
		}
		entry, ok := actions[step.Entry]
		if !ok || entry == nil {
			return nil, fmt.Errorf("step %q: %w %q", step.Name, ErrUnknownAction, step.Entry)
		}
		entries[i] = entry
	}

	graph := &Graph{Steps: make(map[string]fsm.StepID, len(document.Steps))}
	for i, step := range document.Steps {
		graph.Steps[step.Name] = registry.Create(entries[i], step.Args)
	}
	for _, step := range document.Steps {
		for _, transition := range step.Transitions {
			if err := registry.Connect(graph.Steps[step.Name], graph.Steps[transition.Target], transition.Event); err != nil {
				return nil, fmt.Errorf("step %q: %w", step.Name, err)
			}
		}
	}
	initial := document.Initial
	if initial == "" {
		initial = document.Steps[0].Name
	}
	graph.Initial = graph.Steps[initial]
	return graph, nil
}

// Load decodes, validates and builds in one call.
func Load(r io.Reader, registry *fsm.Registry, actions Actions) (*Graph, error) {
	document, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return document.Build(registry, actions)
}
