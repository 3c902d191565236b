package eventengine

import "sync"

// Session is a FIFO of event groups produced by one root event and its
// descendants. It lives from StartSession until every group has been
// processed or the session callback halts processing.
//
// The C original leaves a session's group/event FIFOs entirely
// unsynchronized, trusting that session_append is only ever called from
// the worker goroutine currently processing that session (e.g. from
// inside a listener callback). Append's signature here is exported and
// callable from anywhere, so mu guards the FIFOs explicitly rather than
// inheriting that assumption.
type Session struct {
	engine *Engine
	mu     sync.Mutex
	head   *eventGroup
	tail   *eventGroup
	cb     SessionCallback
	user   any

	next *Session // engine queue link, guarded by engine.qspin
}

func newSession(engine *Engine, cb SessionCallback, user any) *Session {
	return &Session{engine: engine, cb: cb, user: user}
}

// pushGroup appends a group to the back of the session's group queue.
func (s *Session) pushGroup(g *eventGroup) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushGroupLocked(g)
}

func (s *Session) pushGroupLocked(g *eventGroup) {
	if s.tail != nil {
		s.tail.next = g
	} else {
		s.head = g
	}
	s.tail = g
}

// popGroup pops the front group of the session's group queue.
func (s *Session) popGroup() *eventGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := s.head
	if g != nil {
		s.head = g.next
		g.next = nil
		if s.head == nil {
			s.tail = nil
		}
	}
	return g
}

// backGroup returns the session's current back group, the one Append
// joins per the next-generation attachment rule.
func (s *Session) backGroup() *eventGroup {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tail
}

// Append adds a child event to the session's current back group. Per the
// generation rule, events appended this way are dispatched in the next
// generation, not the one currently being processed — attaching to the
// front group would instead extend the generation in flight and is not
// this engine's behavior.
func (s *Session) Append(eid EventTypeID, data any, destroyCB EventDestroyCB, user any) bool {
	def, ok := s.engine.findDef(eid)
	if !ok {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	grp := s.tail
	if grp == nil {
		return false
	}
	event := newEvent(def, grp, data, destroyCB, user)
	grp.pushEvent(event)
	return true
}

// destroy tears down every group still queued on the session (each of
// which tears down its own events, invoking their destroy callbacks with
// dispatched=false unless they were already dispatched), then reports
// SessionDestroy to the session callback.
func (s *Session) destroy() {
	s.mu.Lock()
	groups := s.head
	s.head, s.tail = nil, nil
	s.mu.Unlock()

	for g := groups; g != nil; {
		next := g.next
		for e := g.popEvent(); e != nil; e = g.popEvent() {
			e.destroy()
		}
		g = next
	}

	if s.cb != nil {
		s.cb(s, &SessionMessage{Reason: SessionDestroy}, s.user)
	}
}

// process drains the session's groups, dispatching one generation at a
// time. A fresh group one level deeper is pushed onto the session before
// the current group's events are processed, which is what makes an
// Append during dispatch land in the next generation rather than this
// one.
func (s *Session) process() {
	run := true
	for run {
		grp := s.popGroup()
		if grp == nil {
			break
		}
		if grp.head == nil {
			continue
		}

		next := newGroup(s, grp.depth+1)
		s.pushGroup(next)

		for run {
			event := grp.popEvent()
			if event == nil {
				break
			}
			run = s.dispatch(event)
			event.destroy()
		}

		// A halted dispatch leaves undispatched events behind in grp;
		// they still need their destroy callbacks run.
		for e := grp.popEvent(); e != nil; e = grp.popEvent() {
			e.destroy()
		}
	}

	s.destroy()
}
