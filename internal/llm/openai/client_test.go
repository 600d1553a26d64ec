package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"briefly-backend/internal/llm"
)

type capturedRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"messages"`
	ResponseFormat struct {
		Type string `json:"type"`
	} `json:"response_format"`
}

func newTestServer(t *testing.T, status int, content string, captured *capturedRequest) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected auth header %q", got)
		}
		if captured != nil {
			if err := json.NewDecoder(r.Body).Decode(captured); err != nil {
				t.Errorf("decode request: %v", err)
			}
		}
		w.Header().Set("Content-Type", "application/json")
		if status != http.StatusOK {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"slow down","type":"rate_limit"}}`))
			return
		}
		resp := map[string]any{
			"id":      "cmpl-1",
			"object":  "chat.completion",
			"model":   "open-mistral-nemo",
			"choices": []map[string]any{{"index": 0, "message": map[string]string{"role": "assistant", "content": content}}},
			"usage":   map[string]int{"prompt_tokens": 3, "completion_tokens": 4, "total_tokens": 7},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
}

func TestCompleteSendsMessagesAndFormat(t *testing.T) {
	var captured capturedRequest
	srv := newTestServer(t, http.StatusOK, "  {\"Title\":\"T\",\"Summary\":\"S\"}  ", &captured)
	defer srv.Close()

	client, err := NewClient("key", srv.URL+"/v1/", time.Second)
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	out, err := client.Complete(context.Background(), "open-codestral-mamba", []llm.Message{llm.System("sys"), llm.User("code")}, llm.FormatJSON)
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if out != `{"Title":"T","Summary":"S"}` {
		t.Fatalf("unexpected output %q", out)
	}
	if captured.Model != "open-codestral-mamba" {
		t.Fatalf("unexpected model %q", captured.Model)
	}
	if captured.ResponseFormat.Type != "json_object" {
		t.Fatalf("expected json_object format, got %q", captured.ResponseFormat.Type)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" || captured.Messages[1].Content != "code" {
		t.Fatalf("unexpected messages %+v", captured.Messages)
	}
}

func TestCompleteProviderError(t *testing.T) {
	srv := newTestServer(t, http.StatusTooManyRequests, "", nil)
	defer srv.Close()

	client, _ := NewClient("key", srv.URL+"/v1", time.Second)
	_, err := client.Complete(context.Background(), "m", []llm.Message{llm.User("x")}, llm.FormatText)
	var apiErr *goopenai.APIError
	if !errors.As(err, &apiErr) || apiErr.HTTPStatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 APIError, got %v", err)
	}
	if !llm.ShouldRetry(err) {
		t.Fatalf("expected 429 to be retryable")
	}
}

func TestCompleteEmptyContent(t *testing.T) {
	srv := newTestServer(t, http.StatusOK, "   ", nil)
	defer srv.Close()

	client, _ := NewClient("key", srv.URL+"/v1", time.Second)
	if _, err := client.Complete(context.Background(), "m", nil, llm.FormatText); !errors.Is(err, llm.ErrEmptyResponse) {
		t.Fatalf("expected ErrEmptyResponse, got %v", err)
	}
}

func TestNewClientRequiresKey(t *testing.T) {
	if _, err := NewClient(" ", "", time.Second); err == nil {
		t.Fatalf("expected error for missing key")
	}
}
