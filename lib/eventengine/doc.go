// Package eventengine implements a multi-worker event dispatcher.
//
// A session begins at a single root event and is processed by one of N
// worker goroutines. Each event is fanned out to the listeners registered
// for its type; a listener may append child events onto the session,
// which form the session's next generation and are only dispatched once
// every event in the current generation has completed. A session-level
// callback can halt further generations.
//
// Listener removal is logical: a removed listener's callback is cleared
// atomically so in-flight dispatch can never observe a freed listener.
// Physical removal happens later, in a maintenance pass, under the
// engine's listener-list writer lock.
package eventengine
