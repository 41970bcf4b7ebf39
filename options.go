package fsm

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"github.com/stateforward/go-fsm/clock"
)

type Option func(*Pointer)

func WithLogger(logger *slog.Logger) Option {
	return func(pointer *Pointer) {
		if logger != nil {
			pointer.logger = logger
		}
	}
}

// WithTracer records pointer spans on tracer instead of the no-op tracer.
func WithTracer(tracer trace.Tracer) Option {
	return func(pointer *Pointer) {
		if tracer != nil {
			pointer.tracer = tracer
		}
	}
}

// WithClock sets the time source used by timed waits.
func WithClock(c clock.Clock) Option {
	return func(pointer *Pointer) {
		if c != nil {
			pointer.clock = c
		}
	}
}

// WithContext sets the parent of the context handed to entry actions.
func WithContext(ctx context.Context) Option {
	return func(pointer *Pointer) {
		if ctx != nil {
			pointer.parent = ctx
		}
	}
}

func WithName(name string) Option {
	return func(pointer *Pointer) {
		pointer.name = name
	}
}
