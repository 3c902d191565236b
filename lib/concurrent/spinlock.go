package concurrent

import (
	"runtime"
	"sync/atomic"
)

// SpinLock is a test-and-set lock meant to be held only for the short,
// bounded-length child-list mutations the radix store's nodes perform —
// never across a blocking call.
type SpinLock struct {
	locked atomic.Bool
}

// Lock spins until the lock is acquired.
func (s *SpinLock) Lock() {
	for !s.locked.CompareAndSwap(false, true) {
		runtime.Gosched()
	}
}

// Unlock releases the lock.
func (s *SpinLock) Unlock() {
	s.locked.Store(false)
}
