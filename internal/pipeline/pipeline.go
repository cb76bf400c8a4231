package pipeline

import (
	"context"
	"runtime/debug"

	"github.com/john/guildlog/internal/event"
	"github.com/john/guildlog/internal/filter"
	"github.com/john/guildlog/internal/format"
	"github.com/john/guildlog/internal/logging"
	"github.com/john/guildlog/internal/metrics"
	"github.com/john/guildlog/internal/record"
	"github.com/john/guildlog/internal/resolver"
)

// Dispatcher is the final stage
type Dispatcher interface {
	Dispatch(ctx context.Context, eventID string, rec record.Record)
}

// Pipeline runs filter, resolver, formatter and sink for one event at a time.
// It holds no per-event state and is safe for concurrent use.
type Pipeline struct {
	gate     *filter.Gate
	resolver *resolver.Resolver
	sink     Dispatcher
	metrics  *metrics.Metrics
}

// New creates a pipeline. res may be nil to skip actor lookups.
func New(gate *filter.Gate, res *resolver.Resolver, sink Dispatcher, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		gate:     gate,
		resolver: res,
		sink:     sink,
		metrics:  m,
	}
}

// Process handles one event. Nothing escapes: every failure is logged here.
func (p *Pipeline) Process(ctx context.Context, ev event.Event) {
	kind := ev.Kind.String()
	defer func() {
		if r := recover(); r != nil {
			logging.Critical("event %s (%s): pipeline panic: %v\n%s", ev.ID, kind, r, debug.Stack())
			p.metrics.EventDropped(kind, metrics.ReasonInternal)
		}
	}()

	p.metrics.EventReceived(kind)

	changes, ok := p.gate.Accept(ev)
	if !ok {
		p.metrics.EventDropped(kind, dropReason(ev, p.gate))
		return
	}

	var actor *event.User
	if p.resolver != nil {
		actor = p.resolver.Resolve(ctx, ev)
	}

	rec, ok, err := format.Format(ev, changes, actor)
	if err != nil {
		logging.Critical("event %s: cannot format %s with payload %T: %v", ev.ID, kind, ev.Payload, err)
		p.metrics.EventDropped(kind, metrics.ReasonInternal)
		return
	}
	if !ok {
		logging.Debug("event %s: %s produced no record", ev.ID, kind)
		p.metrics.EventDropped(kind, metrics.ReasonNoRecord)
		return
	}

	p.sink.Dispatch(ctx, ev.ID, rec)
}

// dropReason tells scope misses from no-op updates, for metrics only
func dropReason(ev event.Event, gate *filter.Gate) string {
	if !gate.InScope(ev) {
		return metrics.ReasonOutOfScope
	}
	return metrics.ReasonNoChange
}
