package alerting

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// RawAlerter posts a signature-patch notification as either plain text
// (default, for sinks that just want a line of text) or structured JSON
// (for sinks that parse the payload themselves).
type RawAlerter struct {
	webhookURL string
	additional string
	structured bool
	client     *httpClient
}

// NewRawAlerter builds a RawAlerter. If structured is true, Send posts JSON;
// otherwise it posts plain text.
func NewRawAlerter(webhookURL, proxyURL, additional string, structured bool) *RawAlerter {
	return &RawAlerter{
		webhookURL: webhookURL,
		additional: additional,
		structured: structured,
		client:     newHTTPClient(proxyURL),
	}
}

// rawMessage is the JSON payload for the structured raw sink.
type rawMessage struct {
	Event             string `json:"event"`
	WorkloadKind      string `json:"workloadKind"`
	WorkloadName      string `json:"workloadName"`
	WorkloadNamespace string `json:"workloadNamespace"`
	ConfigChange      string `json:"configChange"`
	PatchedAt         string `json:"patchedAt"`
	Additional        string `json:"additional,omitempty"`
}

func (a *RawAlerter) Send(ctx context.Context, message AlertMessage) error {
	if a.structured {
		return a.sendStructured(ctx, message)
	}
	return a.sendPlainText(ctx, message)
}

func (a *RawAlerter) sendStructured(ctx context.Context, message AlertMessage) error {
	msg := rawMessage{
		Event:             "signature_patch",
		WorkloadKind:      message.WorkloadKind,
		WorkloadName:      message.WorkloadName,
		WorkloadNamespace: message.WorkloadNamespace,
		ConfigChange:      message.ConfigChange,
		PatchedAt:         message.PatchedAt.Format("2006-01-02T15:04:05Z07:00"),
		Additional:        a.additional,
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling raw message: %w", err)
	}

	return a.client.post(ctx, a.webhookURL, body)
}

func (a *RawAlerter) sendPlainText(ctx context.Context, message AlertMessage) error {
	text := a.formatMessage(message)
	// Strip the markdown emphasis used by the other senders; plain-text
	// sinks don't render it.
	text = strings.ReplaceAll(text, "*", "")
	return a.client.postText(ctx, a.webhookURL, text)
}

func (a *RawAlerter) formatMessage(msg AlertMessage) string {
	text := fmt.Sprintf(
		"signature-reloader patched %s/%s (%s) for %s at %s",
		msg.WorkloadNamespace, msg.WorkloadName, msg.WorkloadKind,
		msg.ConfigChange, msg.PatchedAt.Format("2006-01-02 15:04:05 UTC"),
	)

	if a.additional != "" {
		text = a.additional + " : " + text
	}

	return text
}
