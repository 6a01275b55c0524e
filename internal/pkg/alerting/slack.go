package alerting

import (
	"context"
	"encoding/json"
	"fmt"
)

// SlackAlerter posts a signature-patch notification to a Slack incoming
// webhook.
type SlackAlerter struct {
	webhookURL string
	additional string
	client     *httpClient
}

// NewSlackAlerter builds a SlackAlerter. additional, if set, is prepended to
// every message (e.g. a cluster name so multi-cluster alerts stay readable
// in a shared channel).
func NewSlackAlerter(webhookURL, proxyURL, additional string) *SlackAlerter {
	return &SlackAlerter{
		webhookURL: webhookURL,
		additional: additional,
		client:     newHTTPClient(proxyURL),
	}
}

// slackMessage is a Slack incoming-webhook payload. Only the subset of
// fields this sender uses are kept; the rest of Slack's schema (threading,
// interactive buttons, blocks) goes unused here.
type slackMessage struct {
	Attachments []slackAttachment `json:"attachments,omitempty"`
}

type slackAttachment struct {
	Color      string       `json:"color,omitempty"`
	AuthorName string       `json:"author_name,omitempty"`
	Text       string       `json:"text,omitempty"`
	Fields     []slackField `json:"fields,omitempty"`
}

type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

func (a *SlackAlerter) Send(ctx context.Context, message AlertMessage) error {
	msg := slackMessage{
		Attachments: []slackAttachment{
			{
				Color:      "good",
				AuthorName: "signature-reloader",
				Text:       a.formatMessage(message),
				Fields: []slackField{
					{Title: "Workload", Value: fmt.Sprintf("%s/%s (%s)", message.WorkloadNamespace, message.WorkloadName, message.WorkloadKind), Short: true},
					{Title: "Change", Value: message.ConfigChange, Short: true},
				},
			},
		},
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling slack message: %w", err)
	}

	return a.client.post(ctx, a.webhookURL, body)
}

func (a *SlackAlerter) formatMessage(msg AlertMessage) string {
	text := fmt.Sprintf(
		"Patched pod template annotations on *%s/%s* (%s) for %s at %s",
		msg.WorkloadNamespace, msg.WorkloadName, msg.WorkloadKind,
		msg.ConfigChange, msg.PatchedAt.Format("2006-01-02 15:04:05 UTC"),
	)

	if a.additional != "" {
		text = a.additional + "\n" + text
	}

	return text
}
