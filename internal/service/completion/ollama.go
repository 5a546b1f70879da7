package completion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// OllamaCompleter generates completions via a local Ollama server's chat
// endpoint. Requests run in JSON mode so output stays machine-parseable.
type OllamaCompleter struct {
	baseURL string
	model   string
	client  *http.Client
}

// NewOllamaCompleter builds a completer against the given Ollama base URL
// (for example http://localhost:11434).
func NewOllamaCompleter(baseURL, model string) *OllamaCompleter {
	return &OllamaCompleter{
		baseURL: strings.TrimRight(baseURL, "/"),
		model:   model,
		client:  &http.Client{Timeout: 120 * time.Second},
	}
}

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Format   string              `json:"format,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaChatMessage `json:"message"`
}

// Complete sends the transcript to /api/chat and returns the response content.
func (c *OllamaCompleter) Complete(ctx context.Context, messages []Message) (string, error) {
	chat := make([]ollamaChatMessage, len(messages))
	for i, m := range messages {
		chat[i] = ollamaChatMessage{Role: string(m.Role), Content: m.Content}
	}

	body, err := json.Marshal(ollamaChatRequest{
		Model:    c.model,
		Messages: chat,
		Stream:   false,
		Format:   "json",
	})
	if err != nil {
		return "", fmt.Errorf("completion: marshal ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("completion: create ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("completion: ollama chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("completion: ollama chat returned status %d: %s", resp.StatusCode, string(b))
	}

	var out ollamaChatResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("completion: decode ollama response: %w", err)
	}
	if out.Message.Content == "" {
		return "", fmt.Errorf("completion: ollama chat returned empty content")
	}
	return out.Message.Content, nil
}
