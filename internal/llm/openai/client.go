package openai

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"briefly-backend/internal/llm"
	"briefly-backend/internal/shared/metrics"
	"briefly-backend/internal/shared/telemetry"
)

// DefaultBaseURL is Mistral's OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.mistral.ai/v1"

// Client implements llm.ChatClient against any OpenAI-compatible chat
// completions API.
type Client struct {
	client  *openai.Client
	timeout time.Duration
}

// NewClient constructs a client for the given endpoint.
func NewClient(apiKey, baseURL string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("LLM_API_KEY is required")
	}
	cfg := openai.DefaultConfig(apiKey)
	if strings.TrimSpace(baseURL) == "" {
		baseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(baseURL, "/")
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	return &Client{client: openai.NewClientWithConfig(cfg), timeout: timeout}, nil
}

// Complete sends one chat completion request and returns the first choice.
func (c *Client) Complete(ctx context.Context, model string, messages []llm.Message, format llm.Format) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:    model,
		Messages: convertMessages(messages),
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: responseFormatType(format),
		},
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, req)
	metrics.ObserveLLMCall(model, string(format), err, time.Since(start))
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return "", fmt.Errorf("llm request timeout: %w", err)
		}
		return "", fmt.Errorf("llm chat failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", llm.ErrEmptyResponse
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", llm.ErrEmptyResponse
	}
	telemetry.Info("llm.usage", map[string]any{
		"model":             model,
		"format":            string(format),
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
		"total_tokens":      resp.Usage.TotalTokens,
		"duration_ms":       time.Since(start).Milliseconds(),
	})
	return content, nil
}

func responseFormatType(format llm.Format) openai.ChatCompletionResponseFormatType {
	if format == llm.FormatJSON {
		return openai.ChatCompletionResponseFormatTypeJSONObject
	}
	return openai.ChatCompletionResponseFormatTypeText
}

func convertMessages(messages []llm.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, m := range messages {
		out = append(out, openai.ChatCompletionMessage{Role: string(m.Role), Content: m.Content})
	}
	return out
}

var _ llm.ChatClient = (*Client)(nil)
