package eventengine

import "sync/atomic"

// eventDef is a registered event type: its formatter and the head of its
// atomically-prepended listener list.
type eventDef struct {
	eid       EventTypeID
	formatter Formatter
	listeners atomic.Pointer[Listener]
}

// Listener is a handle returned by AddListener. Its callback is cleared
// (logical removal) rather than the listener being unlinked immediately,
// so a concurrent dispatch can never observe a freed listener.
type Listener struct {
	def       *eventDef
	cb        atomic.Pointer[ListenerCB]
	destroyCB ListenerDestroyCB
	user      any
	next      atomic.Pointer[Listener]
}

func newListener(def *eventDef, cb ListenerCB, destroyCB ListenerDestroyCB, user any) *Listener {
	l := &Listener{def: def, destroyCB: destroyCB, user: user}
	l.cb.Store(&cb)
	return l
}

// prepend atomically pushes l onto def's listener list head.
func (d *eventDef) prepend(l *Listener) {
	for {
		head := d.listeners.Load()
		l.next.Store(head)
		if d.listeners.CompareAndSwap(head, l) {
			return
		}
	}
}

// removeDead unlinks every listener whose callback is nil, returning them
// for destruction. Must be called only while holding the listener-list
// writer lock.
func (d *eventDef) removeDead() []*Listener {
	var dead []*Listener
	var prev *Listener
	cur := d.listeners.Load()
	for cur != nil {
		next := cur.next.Load()
		if cur.cb.Load() == nil {
			if prev != nil {
				prev.next.Store(next)
			} else {
				d.listeners.Store(next)
			}
			dead = append(dead, cur)
		} else {
			prev = cur
		}
		cur = next
	}
	return dead
}
