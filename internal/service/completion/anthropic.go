package completion

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

const anthropicMaxTokens = 4096

// AnthropicCompleter generates completions via the Anthropic messages API.
// Anthropic has no JSON mode, so the system prompt carries the burden of
// keeping output parseable.
type AnthropicCompleter struct {
	client anthropic.Client
	model  anthropic.Model
}

// NewAnthropicCompleter builds a completer for the given model. baseURL may
// be empty to use the default API endpoint.
func NewAnthropicCompleter(apiKey, baseURL, model string) *AnthropicCompleter {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = string(anthropic.ModelClaudeSonnet4_5)
	}
	return &AnthropicCompleter{
		client: anthropic.NewClient(opts...),
		model:  anthropic.Model(model),
	}
}

// Complete sends the transcript and returns the concatenated text blocks of
// the response.
func (c *AnthropicCompleter) Complete(ctx context.Context, messages []Message) (string, error) {
	var system []anthropic.TextBlockParam
	conversation := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			system = append(system, anthropic.TextBlockParam{Text: m.Content})
		case RoleAssistant:
			conversation = append(conversation, anthropic.NewAssistantMessage(anthropic.NewTextBlock(m.Content)))
		default:
			conversation = append(conversation, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     c.model,
		Messages:  conversation,
		MaxTokens: anthropicMaxTokens,
		System:    system,
	}

	resp, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("completion: anthropic messages: %w", err)
	}

	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("completion: anthropic messages: no text content returned")
	}
	return sb.String(), nil
}
