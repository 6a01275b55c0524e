package alerting

import (
	"context"
	"encoding/json"
	"fmt"
)

// GChatAlerter posts a signature-patch notification to a Google Chat
// incoming webhook.
type GChatAlerter struct {
	webhookURL string
	additional string
	client     *httpClient
}

// NewGChatAlerter builds a GChatAlerter.
func NewGChatAlerter(webhookURL, proxyURL, additional string) *GChatAlerter {
	return &GChatAlerter{
		webhookURL: webhookURL,
		additional: additional,
		client:     newHTTPClient(proxyURL),
	}
}

// gchatMessage is a Google Chat card payload.
type gchatMessage struct {
	Cards []gchatCard `json:"cards,omitempty"`
}

type gchatCard struct {
	Header   gchatHeader    `json:"header"`
	Sections []gchatSection `json:"sections"`
}

type gchatHeader struct {
	Title    string `json:"title"`
	Subtitle string `json:"subtitle,omitempty"`
}

type gchatSection struct {
	Widgets []gchatWidget `json:"widgets"`
}

type gchatWidget struct {
	KeyValue *gchatKeyValue `json:"keyValue,omitempty"`
}

type gchatKeyValue struct {
	TopLabel string `json:"topLabel"`
	Content  string `json:"content"`
}

func (a *GChatAlerter) Send(ctx context.Context, message AlertMessage) error {
	msg := a.buildMessage(message)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling gchat message: %w", err)
	}

	return a.client.post(ctx, a.webhookURL, body)
}

func (a *GChatAlerter) buildMessage(msg AlertMessage) gchatMessage {
	widgets := []gchatWidget{
		{KeyValue: &gchatKeyValue{TopLabel: "Workload", Content: fmt.Sprintf("%s/%s (%s)", msg.WorkloadNamespace, msg.WorkloadName, msg.WorkloadKind)}},
		{KeyValue: &gchatKeyValue{TopLabel: "Change", Content: msg.ConfigChange}},
		{KeyValue: &gchatKeyValue{TopLabel: "Patched at", Content: msg.PatchedAt.Format("2006-01-02 15:04:05 UTC")}},
	}

	return gchatMessage{
		Cards: []gchatCard{
			{
				Header: gchatHeader{
					Title:    "signature-reloader patched pod template annotations",
					Subtitle: a.additional,
				},
				Sections: []gchatSection{
					{Widgets: widgets},
				},
			},
		},
	}
}
