package resolver

import (
	"context"
	"errors"
	"time"

	"github.com/john/guildlog/internal/event"
	"github.com/john/guildlog/internal/logging"
	"github.com/john/guildlog/internal/metrics"
)

// AuditTrail looks up who performed the most recent action of a kind.
// A nil user with a nil error means the trail had no matching entry.
type AuditTrail interface {
	LatestActor(ctx context.Context, guildID string, kind event.Kind) (*event.User, error)
}

// Applies reports whether the gateway payload for kind lacks the actor
func Applies(kind event.Kind) bool {
	switch kind {
	case event.MemberBanned, event.MemberUnbanned, event.MemberUpdated,
		event.GuildMetadataChanged,
		event.ChannelCreated, event.ChannelDeleted, event.ChannelUpdated,
		event.RoleCreated, event.RoleDeleted, event.RoleUpdated:
		return true
	}
	return false
}

// Resolver performs one bounded, best-effort audit trail lookup per event
type Resolver struct {
	trail   AuditTrail
	timeout time.Duration
	metrics *metrics.Metrics
}

// New creates a resolver. Each lookup is cut off after timeout.
func New(trail AuditTrail, timeout time.Duration, m *metrics.Metrics) *Resolver {
	return &Resolver{
		trail:   trail,
		timeout: timeout,
		metrics: m,
	}
}

type lookupResult struct {
	user *event.User
	err  error
}

// Resolve returns the acting user, or nil when it could not be determined.
// Failures degrade the record; they are never returned to the caller.
func (r *Resolver) Resolve(ctx context.Context, ev event.Event) *event.User {
	if !Applies(ev.Kind) || r.trail == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	// The trail may ignore ctx, so the wait is bounded here as well
	done := make(chan lookupResult, 1)
	go func() {
		user, err := r.trail.LatestActor(ctx, ev.GuildID, ev.Kind)
		done <- lookupResult{user: user, err: err}
	}()

	var res lookupResult
	select {
	case res = <-done:
	case <-ctx.Done():
		res = lookupResult{err: ctx.Err()}
	}

	switch {
	case res.err != nil && errors.Is(res.err, context.DeadlineExceeded):
		logging.Warn("event %s: audit log lookup for %s timed out after %v", ev.ID, ev.Kind, r.timeout)
		r.metrics.ActorLookup("timeout")
		return nil
	case res.err != nil:
		logging.Warn("event %s: audit log lookup for %s failed: %v", ev.ID, ev.Kind, res.err)
		r.metrics.ActorLookup("error")
		return nil
	case res.user == nil:
		logging.Warn("event %s: no audit log entry for %s", ev.ID, ev.Kind)
		r.metrics.ActorLookup("not_found")
		return nil
	}

	r.metrics.ActorLookup("found")
	return res.user
}
