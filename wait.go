package fsm

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

const forever time.Duration = -1

// WaitStep blocks until the pointer's current step is step. It returns at
// once if it already is.
func (pointer *Pointer) WaitStep(step StepID) {
	if err := pointer.WaitStepContext(context.Background(), step); err != nil {
		Logger.Warn("wait for step failed", slog.Uint64("step", uint64(step)), slog.Any("error", err))
	}
}

// WaitLeavingStep blocks until the pointer's current step is anything but
// step.
func (pointer *Pointer) WaitLeavingStep(step StepID) {
	if err := pointer.WaitLeavingStepContext(context.Background(), step); err != nil {
		Logger.Warn("wait for leaving step failed", slog.Uint64("step", uint64(step)), slog.Any("error", err))
	}
}

// WaitStepTimeout is WaitStep bounded by timeout. It returns ErrTimeout if
// the deadline passes first.
func (pointer *Pointer) WaitStepTimeout(step StepID, timeout time.Duration) error {
	return pointer.wait(context.Background(), timeout, func() bool {
		return pointer.current == step
	})
}

func (pointer *Pointer) WaitLeavingStepTimeout(step StepID, timeout time.Duration) error {
	return pointer.wait(context.Background(), timeout, func() bool {
		return pointer.current != step
	})
}

func (pointer *Pointer) WaitStepContext(ctx context.Context, step StepID) error {
	return pointer.wait(ctx, forever, func() bool {
		return pointer.current == step
	})
}

func (pointer *Pointer) WaitLeavingStepContext(ctx context.Context, step StepID) error {
	return pointer.wait(ctx, forever, func() bool {
		return pointer.current != step
	})
}

// WaitVisitEnded blocks until the pointer has entered any step after visit,
// including a re-entry of the same step.
func (pointer *Pointer) WaitVisitEnded(ctx context.Context, visit Visit) error {
	return pointer.wait(ctx, forever, func() bool {
		return pointer.generation != visit.Generation
	})
}

// wait re-evaluates done under the pointer lock on every broadcast until it
// holds, ctx is done, or timeout elapses. A negative timeout never elapses.
func (pointer *Pointer) wait(ctx context.Context, timeout time.Duration, done func() bool) error {
	if pointer == nil {
		return fmt.Errorf("wait: %w", ErrNullReference)
	}
	wake := func() {
		pointer.mu.Lock()
		pointer.cond.Broadcast()
		pointer.mu.Unlock()
	}
	stop := context.AfterFunc(ctx, wake)
	defer stop()

	var deadline time.Time
	if timeout >= 0 {
		deadline = pointer.clock.Now().Add(timeout)
		timer := pointer.clock.AfterFunc(timeout, wake)
		defer timer.Stop()
	}

	pointer.mu.Lock()
	defer pointer.mu.Unlock()
	for !done() {
		if err := ctx.Err(); err != nil {
			return err
		}
		if timeout >= 0 && !pointer.clock.Now().Before(deadline) {
			return ErrTimeout
		}
		pointer.cond.Wait()
	}
	return nil
}
