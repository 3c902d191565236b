// Package concurrent provides small lock-free structures shared by the
// store and engine: a head-CAS stack used for the radix store's maintenance
// lists, which only ever need atomic prepend plus a single whole-list drain.
package concurrent

import (
	"runtime"
	"sync/atomic"
)

// stackNode is one link in a Stack[T], mirroring the node[T] wrapper a
// lock-free MPSC queue uses for its own push loop.
type stackNode[T any] struct {
	value T
	next  atomic.Pointer[stackNode[T]]
}

// Stack is a lock-free singly-linked LIFO stack built on an atomic
// compare-and-swap head-prepend — the same push discipline as a lock-free
// MPSC queue's tail-CAS loop, simplified to a bare stack: this structure is
// only ever pushed concurrently and drained once, in full, under a
// maintenance pass, never streamed to a consumer goroutine.
type Stack[T any] struct {
	head atomic.Pointer[stackNode[T]]
}

// Push prepends value to the stack. Safe for any number of concurrent
// callers.
func (s *Stack[T]) Push(value T) {
	n := &stackNode[T]{value: value}
	var backoff uint8
	for {
		head := s.head.Load()
		n.next.Store(head)
		if s.head.CompareAndSwap(head, n) {
			return
		}
		if backoff < 10 {
			backoff++
			for i := 0; i < 1<<backoff; i++ {
				runtime.Gosched()
			}
		}
		runtime.Gosched()
	}
}

// Drain atomically swaps the whole stack out for empty and returns its
// former contents as a slice in reverse push order (most recently pushed
// first).
func (s *Stack[T]) Drain() []T {
	n := s.head.Swap(nil)
	var out []T
	for n != nil {
		out = append(out, n.value)
		n = n.next.Load()
	}
	return out
}

// Empty reports whether the stack currently has no elements. This is a
// snapshot only; concurrent pushers may invalidate it immediately.
func (s *Stack[T]) Empty() bool {
	return s.head.Load() == nil
}

// Len returns an approximate count of elements currently on the stack.
// O(n) and diagnostic-only, mirroring a lock-free queue's own Len().
func (s *Stack[T]) Len() int {
	count := 0
	for n := s.head.Load(); n != nil; n = n.next.Load() {
		count++
	}
	return count
}
