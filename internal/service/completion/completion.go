// Package completion defines the chat completion provider interface used by
// the reasoning loop, with OpenAI, Anthropic, and Ollama implementations.
package completion

import "context"

// Role identifies the author of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is a single turn in a chat transcript.
type Message struct {
	Role    Role
	Content string
}

// Completer generates a single completion for a chat transcript. The
// reasoning loop prompts for strict JSON output, so implementations should
// enable JSON mode where the backend supports it.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}
