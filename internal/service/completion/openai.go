package completion

import (
	"context"
	"fmt"
	"strings"

	openaisdk "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
)

// OpenAICompleter generates completions via the OpenAI chat completions API.
type OpenAICompleter struct {
	client openaisdk.Client
	model  openaisdk.ChatModel
}

// NewOpenAICompleter builds a completer for the given model. baseURL may be
// empty to use the default API endpoint.
func NewOpenAICompleter(apiKey, baseURL, model string) *OpenAICompleter {
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if strings.TrimSpace(baseURL) != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if model == "" {
		model = string(openaisdk.ChatModelGPT4oMini)
	}
	return &OpenAICompleter{
		client: openaisdk.NewClient(opts...),
		model:  openaisdk.ChatModel(model),
	}
}

// Complete sends the transcript and returns the raw assistant content.
// JSON mode is always requested since callers parse the output as an action.
func (c *OpenAICompleter) Complete(ctx context.Context, messages []Message) (string, error) {
	params := openaisdk.ChatCompletionNewParams{
		Model:    c.model,
		Messages: toOpenAIMessages(messages),
		ResponseFormat: openaisdk.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("completion: openai chat: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion: openai chat: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []Message) []openaisdk.ChatCompletionMessageParamUnion {
	out := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			out = append(out, openaisdk.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openaisdk.AssistantMessage(m.Content))
		default:
			out = append(out, openaisdk.UserMessage(m.Content))
		}
	}
	return out
}
