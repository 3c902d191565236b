package eventengine

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/eneq/misc/lib/concurrent"
	"github.com/eneq/misc/lib/db/util"
	"github.com/eneq/misc/lib/logging"
	"github.com/eneq/misc/lib/threadloop"
)

// Engine is a multi-worker event dispatcher: sessions are enqueued,
// picked up by one of N worker goroutines, and dispatched generation by
// generation to the listeners registered for each event's type.
type Engine struct {
	defs *defRegistry

	lock sync.RWMutex // guards listener-list structural mutation

	qspin concurrent.SpinLock // guards the session queue pointers
	qhead *Session
	qtail *Session

	mu   sync.Mutex // paired with cond, per the consumer-wait contract
	cond *sync.Cond

	workerCancel context.CancelFunc
	workerWG     sync.WaitGroup

	maintenance threadloop.Loop
	mfreq       time.Duration

	seed uint64

	closed  atomic.Bool
	logger  *logging.Logger
	metrics *engineMetrics
}

// Option configures an Engine at construction time.
type Option func(*Engine)

// WithLogger overrides the engine's default logger.
func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// New starts an engine with nWorkers worker goroutines and a maintenance
// pass run every maintenancePeriod. Both must be positive; New returns nil
// otherwise.
func New(nWorkers int, maintenancePeriod time.Duration, opts ...Option) *Engine {
	if nWorkers < 1 || maintenancePeriod <= 0 {
		return nil
	}

	e := &Engine{
		defs:   newDefRegistry(),
		mfreq:  maintenancePeriod,
		seed:   util.GenerateSeed(),
		logger: logging.New("eventengine"),
	}
	e.cond = sync.NewCond(&e.mu)
	e.metrics = newEngineMetrics()

	for _, opt := range opts {
		opt(e)
	}

	ctx, cancel := context.WithCancel(context.Background())
	e.workerCancel = cancel
	for i := 0; i < nWorkers; i++ {
		e.workerWG.Add(1)
		go e.worker(ctx)
	}

	e.maintenance.Start(e.maintenanceLoop)
	return e
}

// AddListener registers cb against eid, returning a handle usable with
// RemoveListener. Reports nil if eid is not registered.
func (e *Engine) AddListener(eid EventTypeID, cb ListenerCB, destroyCB ListenerDestroyCB, user any) *Listener {
	if cb == nil {
		return nil
	}
	def, ok := e.findDef(eid)
	if !ok {
		return nil
	}

	l := newListener(def, cb, destroyCB, user)

	e.lock.RLock()
	def.prepend(l)
	e.lock.RUnlock()

	e.metrics.listenersActive.Inc(1)
	return l
}

// RemoveListener logically removes l: its callback is cleared so it will
// not be invoked again, but the node itself is unlinked and its destroy
// callback fired only by the next maintenance pass (or Close).
func (e *Engine) RemoveListener(l *Listener) {
	if l == nil {
		return
	}
	e.lock.RLock()
	l.cb.Store(nil)
	e.lock.RUnlock()
}

// StartSession builds a session containing one generation-0 group with
// one event of type eid, then enqueues it for a worker to process.
// Reports nil if eid is not registered.
func (e *Engine) StartSession(eid EventTypeID, data any, eventCB EventDestroyCB, sessionCB SessionCallback, user any) *Session {
	def, ok := e.findDef(eid)
	if !ok {
		return nil
	}

	session := newSession(e, sessionCB, user)
	grp := newGroup(session, 0)
	session.pushGroup(grp)
	event := newEvent(def, grp, data, eventCB, user)
	grp.pushEvent(event)

	e.pushSession(session)
	e.metrics.sessionsStarted.Inc(1)

	e.mu.Lock()
	e.cond.Signal()
	e.mu.Unlock()

	return session
}

// CancelSession removes session from the queue if it has not yet been
// picked up by a worker, reporting true iff it was still queued. A
// cancelled session's remaining events have their destroy callbacks
// fired with dispatched=false.
func (e *Engine) CancelSession(session *Session) bool {
	if session == nil {
		return false
	}

	e.qspin.Lock()
	found := false
	var prev *Session
	for cur := e.qhead; cur != nil; cur = cur.next {
		if cur == session {
			if prev != nil {
				prev.next = cur.next
			} else {
				e.qhead = cur.next
			}
			if e.qtail == cur {
				e.qtail = prev
			}
			found = true
			break
		}
		prev = cur
	}
	e.qspin.Unlock()

	if found {
		e.metrics.sessionsCancelled.Inc(1)
		session.destroy()
	}
	return found
}

func (e *Engine) pushSession(s *Session) {
	e.qspin.Lock()
	defer e.qspin.Unlock()
	if e.qtail != nil {
		e.qtail.next = s
	} else {
		e.qhead = s
	}
	e.qtail = s
}

func (e *Engine) popSession() *Session {
	e.qspin.Lock()
	defer e.qspin.Unlock()
	s := e.qhead
	if s != nil {
		e.qhead = s.next
		if e.qhead == nil {
			e.qtail = nil
		}
		s.next = nil
	}
	return s
}

// dispatch fans event out to its type's listeners, reporting a
// ListenerResult for each invoked callback and an EventComplete once
// they have all run. It returns false if the session callback set Halt,
// signalling process to stop generating further generations.
func (s *Session) dispatch(e *Event) bool {
	e.dispatched = true
	engine := s.engine

	engine.lock.RLock()
	for l := e.def.listeners.Load(); l != nil; l = l.next.Load() {
		cbPtr := l.cb.Load()
		if cbPtr == nil {
			continue
		}
		result := (*cbPtr)(s, e, l.user)
		engine.metrics.listenerInvocations.Inc(1)
		if s.cb != nil {
			s.cb(s, &SessionMessage{Reason: ListenerResult, Event: e, Val: result}, s.user)
		}
	}
	engine.lock.RUnlock()

	engine.metrics.eventsDispatched.Inc(1)

	if s.cb == nil {
		return true
	}
	msg := &SessionMessage{Reason: EventComplete, Event: e, Depth: e.Depth()}
	s.cb(s, msg, s.user)
	return !msg.Halt
}

func (e *Engine) worker(ctx context.Context) {
	defer e.workerWG.Done()
	for {
		session := e.waitForSession(ctx)
		if session == nil {
			return
		}
		session.process()
	}
}

func (e *Engine) waitForSession(ctx context.Context) *Session {
	e.mu.Lock()
	defer e.mu.Unlock()
	for {
		if s := e.popSession(); s != nil {
			return s
		}
		if ctx.Err() != nil {
			return nil
		}
		e.cond.Wait()
	}
}

func (e *Engine) maintenanceLoop(ctx context.Context) {
	ticker := time.NewTicker(e.mfreq)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.runMaintenanceCycle()
		}
	}
}

// runMaintenanceCycle unlinks every logically removed listener across
// every registered type, under the writer lock, then invokes each one's
// destroy callback once it is safely detached.
func (e *Engine) runMaintenanceCycle() {
	var dead []*Listener

	e.lock.Lock()
	e.defs.Range(func(_ EventTypeID, def *eventDef) bool {
		dead = append(dead, def.removeDead()...)
		return true
	})
	e.lock.Unlock()

	for _, l := range dead {
		e.metrics.listenersActive.Dec(1)
		if l.destroyCB != nil {
			l.destroyCB(l.def.eid, l.user)
		}
	}
	e.logger.Debugf("maintenance cycle complete: %d listeners reclaimed", len(dead))
}

// GenerateEventTypeID derives a stable EventTypeID from a type name.
func (e *Engine) GenerateEventTypeID(name string) EventTypeID {
	return EventTypeID(util.HashString(name, e.seed))
}

// Close stops every worker and the maintenance goroutine, waits for them
// to exit, then tears down every still-queued session and every
// registered type's remaining listeners.
func (e *Engine) Close() {
	e.closed.Store(true)

	e.workerCancel()
	e.mu.Lock()
	e.cond.Broadcast()
	e.mu.Unlock()
	e.workerWG.Wait()

	e.maintenance.Stop()

	for {
		s := e.popSession()
		if s == nil {
			break
		}
		s.destroy()
	}

	e.defs.Range(func(_ EventTypeID, def *eventDef) bool {
		for l := def.listeners.Load(); l != nil; l = l.next.Load() {
			if l.destroyCB != nil {
				l.destroyCB(def.eid, l.user)
			}
		}
		return true
	})
}
