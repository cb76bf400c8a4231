package dispatch

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/john/guildlog/internal/logging"
	"github.com/john/guildlog/internal/metrics"
	"github.com/john/guildlog/internal/notifier"
	"github.com/john/guildlog/internal/record"
)

// Appender is the durable log
type Appender interface {
	Append(guildID string, rec record.Record) (string, error)
}

// Sender is the notification channel
type Sender interface {
	Send(ctx context.Context, rec record.Record) error
}

// Sink delivers each record to the durable log and then the notification
// channel. The two deliveries are independent and at most once.
type Sink struct {
	guildID  string
	appender Appender
	sender   Sender
	metrics  *metrics.Metrics
}

// New creates a sink for the monitored guild
func New(guildID string, appender Appender, sender Sender, m *metrics.Metrics) *Sink {
	return &Sink{
		guildID:  guildID,
		appender: appender,
		sender:   sender,
		metrics:  m,
	}
}

// Dispatch appends then sends. Failures are reported and swallowed.
func (s *Sink) Dispatch(ctx context.Context, eventID string, rec record.Record) {
	s.metrics.RecordDispatched()

	if path, err := s.appender.Append(s.guildID, rec); err != nil {
		logging.Error("event %s: append to %s failed: %v (record: %s)", eventID, path, err, summary(rec))
		s.metrics.SinkFailed(metrics.SinkLog)
	}

	if err := s.sender.Send(ctx, rec); err != nil {
		if errors.Is(err, notifier.ErrChannelUnavailable) {
			logging.Warn("event %s: log channel unavailable, skipping send: %v", eventID, err)
		} else {
			logging.Warn("event %s: send to log channel failed: %v", eventID, err)
		}
		s.metrics.SinkFailed(metrics.SinkChannel)
	}
}

func summary(rec record.Record) string {
	data, err := json.Marshal(rec)
	if err != nil {
		return rec.Title
	}
	return string(data)
}
