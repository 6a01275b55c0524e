// Package alerting sends a notification to an external sink whenever the
// controller patches a workload's pod template annotations. It is entirely
// optional: NewAlerter returns a NoOpAlerter unless an alert webhook is
// configured.
package alerting

import (
	"context"
	"time"

	"github.com/opsguru/signature-reloader/internal/pkg/config"
)

// AlertMessage describes a signature patch that was applied to a workload.
// ConfigChange summarizes which annotation keys were patched: either the
// single key that changed, or a count when the debounce window coalesced
// more than one source change into a single patch.
type AlertMessage struct {
	WorkloadKind      string
	WorkloadName      string
	WorkloadNamespace string
	ConfigChange      string
	PatchedAt         time.Time
}

// Alerter sends a notification for an applied signature patch.
type Alerter interface {
	Send(ctx context.Context, message AlertMessage) error
}

// NewAlerter builds an Alerter from cfg. It returns a NoOpAlerter unless
// alerting is enabled and a webhook URL is configured.
func NewAlerter(cfg *config.Config) Alerter {
	alertCfg := cfg.Alerting
	if !alertCfg.Enabled || alertCfg.WebhookURL == "" {
		return &NoOpAlerter{}
	}

	switch alertCfg.Sink {
	case "slack":
		return NewSlackAlerter(alertCfg.WebhookURL, alertCfg.Proxy, alertCfg.Additional)
	case "teams":
		return NewTeamsAlerter(alertCfg.WebhookURL, alertCfg.Proxy, alertCfg.Additional)
	case "gchat":
		return NewGChatAlerter(alertCfg.WebhookURL, alertCfg.Proxy, alertCfg.Additional)
	default:
		return NewRawAlerter(alertCfg.WebhookURL, alertCfg.Proxy, alertCfg.Additional, alertCfg.Structured)
	}
}

// NoOpAlerter discards every message. Used when alerting is not configured.
type NoOpAlerter struct{}

func (a *NoOpAlerter) Send(ctx context.Context, message AlertMessage) error {
	return nil
}
