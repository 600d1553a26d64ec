package llm

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
)

// Role of a chat message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one chat turn.
type Message struct {
	Role    Role
	Content string
}

// Format is a hint for the provider's output format. Providers may ignore it.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
)

// ChatClient completes a chat with an LLM provider.
type ChatClient interface {
	Complete(ctx context.Context, model string, messages []Message, format Format) (string, error)
}

// System builds a system message.
func System(content string) Message { return Message{Role: RoleSystem, Content: content} }

// User builds a user message.
func User(content string) Message { return Message{Role: RoleUser, Content: content} }

// ErrEmptyResponse is returned when the provider responds without content.
var ErrEmptyResponse = errors.New("llm response empty content")

// PlaceholderClient answers without calling a provider. It is used in dev
// when no API key is configured.
type PlaceholderClient struct{}

// Complete echoes a short digest of the last user message in the requested format.
func (PlaceholderClient) Complete(ctx context.Context, model string, messages []Message, format Format) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var text string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			text = messages[i].Content
			break
		}
	}
	text = strings.TrimSpace(text)
	if len(text) > 200 {
		text = text[:200]
	}
	if format == FormatJSON {
		raw, err := json.Marshal(map[string]string{"Title": firstLine(text), "Summary": "Placeholder summary: " + text})
		return string(raw), err
	}
	return "Summary: Placeholder summary: " + text, nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 60 {
		s = s[:60]
	}
	if s == "" {
		return "Untitled"
	}
	return s
}
