package alerting

import (
	"context"
	"encoding/json"
	"fmt"
)

// TeamsAlerter posts a signature-patch notification to a Microsoft Teams
// incoming webhook connector.
type TeamsAlerter struct {
	webhookURL string
	additional string
	client     *httpClient
}

// NewTeamsAlerter builds a TeamsAlerter.
func NewTeamsAlerter(webhookURL, proxyURL, additional string) *TeamsAlerter {
	return &TeamsAlerter{
		webhookURL: webhookURL,
		additional: additional,
		client:     newHTTPClient(proxyURL),
	}
}

// teamsMessage is a Teams MessageCard payload.
type teamsMessage struct {
	Type       string         `json:"@type"`
	Context    string         `json:"@context"`
	ThemeColor string         `json:"themeColor"`
	Summary    string         `json:"summary"`
	Sections   []teamsSection `json:"sections"`
}

type teamsSection struct {
	ActivityTitle    string      `json:"activityTitle"`
	ActivitySubtitle string      `json:"activitySubtitle,omitempty"`
	Facts            []teamsFact `json:"facts"`
}

type teamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

func (a *TeamsAlerter) Send(ctx context.Context, message AlertMessage) error {
	msg := a.buildMessage(message)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling teams message: %w", err)
	}

	return a.client.post(ctx, a.webhookURL, body)
}

func (a *TeamsAlerter) buildMessage(msg AlertMessage) teamsMessage {
	facts := []teamsFact{
		{Name: "Workload", Value: fmt.Sprintf("%s/%s (%s)", msg.WorkloadNamespace, msg.WorkloadName, msg.WorkloadKind)},
		{Name: "Change", Value: msg.ConfigChange},
		{Name: "Patched at", Value: msg.PatchedAt.Format("2006-01-02 15:04:05 UTC")},
	}

	return teamsMessage{
		Type:       "MessageCard",
		Context:    "http://schema.org/extensions",
		ThemeColor: "0076D7",
		Summary:    "signature-reloader patched pod template annotations",
		Sections: []teamsSection{
			{
				ActivityTitle:    "signature-reloader patched pod template annotations",
				ActivitySubtitle: a.additional,
				Facts:            facts,
			},
		},
	}
}
