// Package threadloop provides a small cooperative-cancellation background
// task, the shape the radix store's and the event engine's maintenance
// passes need: start once, signal a stop request, wait for exit.
package threadloop

import (
	"context"
	"sync"
	"sync/atomic"
)

// Loop runs fn once in its own goroutine and cancels fn's context when Stop
// is called; fn does its own looping. fn is expected to block on ctx.Done() (or a timer selecting on it) at its
// natural suspension point rather than checking ctx mid-iteration, mirroring
// the "cancellation observed only at the sleep/poll point" contract of a
// cooperatively-cancelled background thread.
type Loop struct {
	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// Start launches fn in a new goroutine. Calling Start again while the loop
// is already running does nothing, matching startGC's idempotent guard.
func (l *Loop) Start(fn func(ctx context.Context)) {
	if !l.running.CompareAndSwap(false, true) {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel

	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		fn(ctx)
	}()
}

// Stop requests cancellation and blocks until the loop goroutine has
// returned. Calling Stop when the loop is not running (never started, or
// already stopped) is a no-op. A stopped loop can be started again.
func (l *Loop) Stop() {
	if !l.running.CompareAndSwap(true, false) {
		return
	}
	l.cancel()
	l.wg.Wait()
}

// Running reports whether the loop is currently active.
func (l *Loop) Running() bool {
	return l.running.Load()
}
