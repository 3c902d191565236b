package eventengine

import "sync"

// Event carries one occurrence of a registered type through a session.
type Event struct {
	def        *eventDef
	group      *eventGroup
	data       any
	dispatched bool
	destroyCB  EventDestroyCB
	user       any
	next       *Event // group FIFO link, guarded by the owning session's mu

	strepOnce sync.Once
	strep     string
}

func newEvent(def *eventDef, group *eventGroup, data any, destroyCB EventDestroyCB, user any) *Event {
	return &Event{def: def, group: group, data: data, destroyCB: destroyCB, user: user}
}

// EventTypeID returns the type this event was raised as.
func (e *Event) EventTypeID() EventTypeID {
	return e.def.eid
}

// Data returns the data passed to StartSession or Session.Append.
func (e *Event) Data() any {
	return e.data
}

// Dispatched reports whether this event was offered to its type's
// listeners. An event can be destroyed without ever dispatching, e.g. a
// child event appended onto a generation that a halted session never
// reaches.
func (e *Event) Dispatched() bool {
	return e.dispatched
}

// Depth returns the generation this event belongs to; the session's
// originating event is depth 0.
func (e *Event) Depth() int {
	return e.group.depth
}

// Strep lazily renders the event through its type's formatter, caching
// the result for subsequent calls. Types registered without a formatter
// always report the empty string.
func (e *Event) Strep() string {
	e.strepOnce.Do(func() {
		if e.def.formatter == nil {
			return
		}
		buf := make([]byte, MaxStrepSize)
		n := e.def.formatter(e, buf)
		if n < 0 {
			n = 0
		}
		if n > len(buf) {
			n = len(buf)
		}
		e.strep = string(buf[:n])
	})
	return e.strep
}

func (e *Event) destroy() {
	if e.destroyCB != nil {
		e.destroyCB(e, e.dispatched, e.user)
	}
}

// eventGroup is a FIFO of events belonging to one generation of a
// session.
type eventGroup struct {
	session *Session
	depth   int
	head    *Event
	tail    *Event
	next    *eventGroup // session queue link, guarded by the owning session's mu
}

func newGroup(session *Session, depth int) *eventGroup {
	return &eventGroup{session: session, depth: depth}
}

// pushEvent appends event to the back of the group. Caller must hold the
// owning session's mu.
func (g *eventGroup) pushEvent(e *Event) {
	if g.tail != nil {
		g.tail.next = e
	} else {
		g.head = e
	}
	g.tail = e
}

// popEvent pops the front event. Caller must hold the owning session's mu.
func (g *eventGroup) popEvent() *Event {
	e := g.head
	if e != nil {
		g.head = e.next
		e.next = nil
		if g.head == nil {
			g.tail = nil
		}
	}
	return e
}
