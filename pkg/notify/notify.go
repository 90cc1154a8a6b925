// Package notify fans alert events out to the configured channels: Slack and
// Discord webhooks plus optional SMTP email. Each channel is disabled simply
// by leaving its environment unset; a failing channel never blocks the rest.
package notify

import (
	"context"
	"time"

	"github.com/indexwatch/relevance-router/pkg/decision"
	"github.com/indexwatch/relevance-router/pkg/observability/logging"
	"github.com/indexwatch/relevance-router/pkg/observability/metrics"
)

// Event is the payload sent to notifiers.
type Event struct {
	Decision   decision.Verdict `json:"decision"`
	Confidence float64          `json:"confidence"`
	Reasons    []string         `json:"reasons"`
	TS         time.Time        `json:"ts"`
}

// TopReason returns the first reason or an empty string.
func (e Event) TopReason() string {
	if len(e.Reasons) == 0 {
		return ""
	}
	return e.Reasons[0]
}

// Notifier delivers one event to one channel.
type Notifier interface {
	// Name identifies the channel in logs and metrics.
	Name() string
	Send(ctx context.Context, ev Event) error
}

// Mux fans an event out to every notifier, logging failures and continuing.
type Mux struct {
	notifiers []Notifier
}

// NewMux builds a multiplexer over the given notifiers.
func NewMux(notifiers ...Notifier) *Mux {
	return &Mux{notifiers: notifiers}
}

// MuxFromEnv wires the standard channel set from the environment.
func MuxFromEnv() *Mux {
	return NewMux(SlackFromEnv(), DiscordFromEnv(), EmailFromEnv())
}

// Notify delivers ev to all channels.
func (m *Mux) Notify(ctx context.Context, ev Event) {
	for _, n := range m.notifiers {
		if err := n.Send(ctx, ev); err != nil {
			metrics.NotificationsSent.WithLabelValues(n.Name(), "error").Inc()
			logging.Warnf("notify %s failed: %v", n.Name(), err)
			continue
		}
		metrics.NotificationsSent.WithLabelValues(n.Name(), "ok").Inc()
	}
}
