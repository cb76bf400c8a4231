package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Drop reasons
const (
	ReasonOutOfScope = "out_of_scope"
	ReasonNoChange   = "no_change"
	ReasonNoRecord   = "no_record"
	ReasonInternal   = "internal_error"
)

// Sink names
const (
	SinkLog     = "log"
	SinkChannel = "channel"
)

// Metrics holds the pipeline counters on a private registry
type Metrics struct {
	registry *prometheus.Registry

	eventsReceived    *prometheus.CounterVec
	eventsDropped     *prometheus.CounterVec
	recordsDispatched prometheus.Counter
	sinkFailures      *prometheus.CounterVec
	actorLookups      *prometheus.CounterVec
	archivedFiles     *prometheus.CounterVec
}

// New creates and registers all collectors
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
	}
	m.eventsReceived = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "guildlog",
		Name:      "events_received_total",
		Help:      "Gateway events handed to the pipeline",
	}, []string{"kind"})
	m.eventsDropped = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "guildlog",
		Name:      "events_dropped_total",
		Help:      "Events that produced no record",
	}, []string{"kind", "reason"})
	m.recordsDispatched = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "guildlog",
		Name:      "records_dispatched_total",
		Help:      "Records handed to the sinks",
	})
	m.sinkFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "guildlog",
		Name:      "sink_failures_total",
		Help:      "Failed deliveries per sink",
	}, []string{"sink"})
	m.actorLookups = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "guildlog",
		Name:      "actor_lookups_total",
		Help:      "Audit log actor lookups by outcome",
	}, []string{"outcome"})
	m.archivedFiles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "guildlog",
		Name:      "archived_files_total",
		Help:      "Day log files processed by the archiver",
	}, []string{"result"})

	m.registry.MustRegister(
		m.eventsReceived,
		m.eventsDropped,
		m.recordsDispatched,
		m.sinkFailures,
		m.actorLookups,
		m.archivedFiles,
		collectors.NewGoCollector(),
	)
	return m
}

// Handler serves the registry in the exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// The methods below accept a nil receiver so components can run without metrics.

// EventReceived counts an event entering the pipeline
func (m *Metrics) EventReceived(kind string) {
	if m == nil {
		return
	}
	m.eventsReceived.WithLabelValues(kind).Inc()
}

// EventDropped counts an event that produced no record
func (m *Metrics) EventDropped(kind, reason string) {
	if m == nil {
		return
	}
	m.eventsDropped.WithLabelValues(kind, reason).Inc()
}

// RecordDispatched counts a record handed to the sinks
func (m *Metrics) RecordDispatched() {
	if m == nil {
		return
	}
	m.recordsDispatched.Inc()
}

// SinkFailed counts a failed append or send
func (m *Metrics) SinkFailed(sink string) {
	if m == nil {
		return
	}
	m.sinkFailures.WithLabelValues(sink).Inc()
}

// ActorLookup counts audit log lookups by outcome
func (m *Metrics) ActorLookup(outcome string) {
	if m == nil {
		return
	}
	m.actorLookups.WithLabelValues(outcome).Inc()
}

// FileArchived counts archive attempts by result
func (m *Metrics) FileArchived(result string) {
	if m == nil {
		return
	}
	m.archivedFiles.WithLabelValues(result).Inc()
}
