package delivery

import (
	"context"
	"fmt"
	"runtime"
)

// Scheduler runs a function on a later scheduling turn and waits for it.
type Scheduler interface {
	Defer(ctx context.Context, fn func(ctx context.Context) error) error
}

// NextTurn runs fn on a new goroutine after yielding the processor. A panic
// in fn is returned as ErrActivationPanic. Defer always waits for fn to
// return, so callers can release resources fn uses once Defer returns.
type NextTurn struct{}

func (NextTurn) Defer(ctx context.Context, fn func(ctx context.Context) error) error {
	done := make(chan error, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- fmt.Errorf("%w: %v", ErrActivationPanic, r)
			}
		}()
		runtime.Gosched()
		done <- fn(ctx)
	}()
	return <-done
}

// Immediate runs fn inline on the caller's goroutine.
type Immediate struct{}

func (Immediate) Defer(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
