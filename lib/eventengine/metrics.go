package eventengine

import "github.com/rcrowley/go-metrics"

// engineMetrics tracks dispatcher activity with rcrowley/go-metrics
// counters, independent of the registry used by the other metrics dep
// this repository carries (lib/radixstore uses VictoriaMetrics/metrics
// gauges for the store's live state instead).
type engineMetrics struct {
	registry metrics.Registry

	sessionsStarted     metrics.Counter
	sessionsCancelled   metrics.Counter
	eventsDispatched    metrics.Counter
	listenerInvocations metrics.Counter
	listenersActive     metrics.Counter
}

func newEngineMetrics() *engineMetrics {
	r := metrics.NewRegistry()
	return &engineMetrics{
		registry:            r,
		sessionsStarted:     metrics.GetOrRegisterCounter("eventengine.sessions.started", r),
		sessionsCancelled:   metrics.GetOrRegisterCounter("eventengine.sessions.cancelled", r),
		eventsDispatched:    metrics.GetOrRegisterCounter("eventengine.events.dispatched", r),
		listenerInvocations: metrics.GetOrRegisterCounter("eventengine.listeners.invocations", r),
		listenersActive:     metrics.GetOrRegisterCounter("eventengine.listeners.active", r),
	}
}

// Stats snapshots the engine's go-metrics registry into a plain map,
// keyed by metric name, for the CLI's events demo command.
func (e *Engine) Stats() map[string]int64 {
	out := make(map[string]int64)
	e.metrics.registry.Each(func(name string, i any) {
		if c, ok := i.(metrics.Counter); ok {
			out[name] = c.Count()
		}
	})
	return out
}
