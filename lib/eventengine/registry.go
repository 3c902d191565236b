package eventengine

import "github.com/puzpuzpuz/xsync/v3"

// defRegistry is the concurrent event-type definition table.
type defRegistry = xsync.MapOf[EventTypeID, *eventDef]

// RegisterType registers eid with formatter, which may be nil. Reports
// false if eid is already registered. The type registry uses a
// puzpuzpuz/xsync MapOf, the same concurrent map the teacher keys its
// shard entries by, in place of the original's atomically-prepended
// linked list walked linearly on every lookup.
func (e *Engine) RegisterType(eid EventTypeID, formatter Formatter) bool {
	def := &eventDef{eid: eid, formatter: formatter}
	_, loaded := e.defs.LoadOrStore(eid, def)
	return !loaded
}

func (e *Engine) findDef(eid EventTypeID) (*eventDef, bool) {
	return e.defs.Load(eid)
}

func newDefRegistry() *defRegistry {
	return xsync.NewMapOf[EventTypeID, *eventDef]()
}
