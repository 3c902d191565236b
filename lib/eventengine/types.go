package eventengine

// EventTypeID identifies a registered event type.
type EventTypeID uint32

// Formatter renders an event's data into buf for Event.Strep, returning
// the number of bytes written. buf is never larger than MaxStrepSize.
type Formatter func(event *Event, buf []byte) int

// EventDestroyCB is invoked exactly once per event, when the event is
// torn down, regardless of whether it was ever dispatched.
type EventDestroyCB func(event *Event, dispatched bool, user any)

// ListenerCB is a listener's callback. Its return value is reported to
// the session callback as a ListenerResult and otherwise ignored: only
// the session callback's Halt can stop a session.
type ListenerCB func(session *Session, event *Event, user any) bool

// ListenerDestroyCB is invoked once a logically removed listener has been
// physically unlinked by the maintenance pass, or at engine Close.
type ListenerDestroyCB func(eid EventTypeID, user any)

// SessionReason identifies why a SessionCallback was invoked.
type SessionReason int

const (
	// ListenerResult reports one listener's return value for an event.
	ListenerResult SessionReason = iota
	// EventComplete reports that every listener for an event has run.
	EventComplete
	// SessionDestroy reports that the session is being torn down.
	SessionDestroy
)

func (r SessionReason) String() string {
	switch r {
	case ListenerResult:
		return "ListenerResult"
	case EventComplete:
		return "EventComplete"
	case SessionDestroy:
		return "SessionDestroy"
	default:
		return "Unknown"
	}
}

// SessionMessage carries the data for one SessionCallback invocation. The
// fields populated depend on Reason:
//
//   - ListenerResult: Event, Val
//   - EventComplete: Event, Depth, and Halt (settable by the callback)
//   - SessionDestroy: no other field is populated
type SessionMessage struct {
	Reason SessionReason
	Event  *Event
	Val    bool
	Depth  int
	Halt   bool
}

// SessionCallback observes a session's progress. It is called
// synchronously from the worker goroutine processing the session, except
// for the SessionDestroy of a session torn down by CancelSession or Close,
// which is reported on the goroutine making that call.
type SessionCallback func(session *Session, msg *SessionMessage, user any)

// MaxStrepSize caps the buffer passed to a Formatter.
const MaxStrepSize = 4096
