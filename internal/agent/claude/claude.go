// Package claude implements the reasoning agent on top of the Anthropic
// Messages API.
package claude

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/linnemanlabs/warden/internal/decide"
	"github.com/linnemanlabs/warden/internal/incident"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "claude-sonnet-4-5"

const maxTokens = 1024

const systemPrompt = `You are an infrastructure incident analyst. Given an ` +
	`infrastructure alarm and recent log excerpts, recommend a concrete next ` +
	`action for the on-call engineer. Be concise. End your answer with a line ` +
	`of the form "Confidence: <0.0-1.0>" reflecting how certain you are.`

// Client calls the Anthropic API to analyze incidents. It implements
// decide.Agent.
type Client struct {
	client anthropic.Client
	model  string
}

// New creates a Client authenticated with apiKey. model may be empty.
func New(apiKey, model string) *Client {
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		model:  model,
	}
}

// Analyze submits the incident to the model and returns its completion. The
// incident key anchors the prompt so repeated invocations for the same
// incident are recognizable in conversation logs.
func (c *Client) Analyze(ctx context.Context, incidentKey string, ictx *incident.Context) (*decide.Analysis, error) {
	prompt := buildPrompt(incidentKey, ictx)

	resp, err := c.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(c.model),
		MaxTokens: maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: systemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("anthropic api: %w", err)
	}

	var completion strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			completion.WriteString(block.Text)
		}
	}
	if completion.Len() == 0 {
		return nil, fmt.Errorf("anthropic api: empty completion")
	}

	return &decide.Analysis{Completion: completion.String()}, nil
}

func buildPrompt(incidentKey string, ictx *incident.Context) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Incident ID: %s\n", incidentKey)
	fmt.Fprintf(&b, "Alarm: %s\n", ictx.AlarmName)
	fmt.Fprintf(&b, "State: %s\n", ictx.AlarmState)
	if ictx.AlarmReason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", ictx.AlarmReason)
	}
	fmt.Fprintf(&b, "Region: %s\n", ictx.Region)
	fmt.Fprintf(&b, "Account: %s\n", ictx.Account)

	if len(ictx.LogLines) > 0 {
		b.WriteString("\nRecent error logs:\n")
		for _, line := range ictx.LogLines {
			fmt.Fprintf(&b, "  %s\n", line)
		}
	} else {
		b.WriteString("\nNo recent error logs were found for this period.\n")
	}

	b.WriteString("\nWhat should the on-call engineer do?")
	return b.String()
}
