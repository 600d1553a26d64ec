package llm

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"briefly-backend/internal/shared/telemetry"
)

// RetryingClient retries transient provider failures with linear backoff.
type RetryingClient struct {
	Base        ChatClient
	MaxAttempts int
	Backoff     time.Duration
}

// NewRetryingClient wraps base. maxAttempts below 1 means a single attempt.
func NewRetryingClient(base ChatClient, maxAttempts int, backoff time.Duration) *RetryingClient {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &RetryingClient{Base: base, MaxAttempts: maxAttempts, Backoff: backoff}
}

func (r *RetryingClient) Complete(ctx context.Context, model string, messages []Message, format Format) (string, error) {
	var out string
	var err error
	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		out, err = r.Base.Complete(ctx, model, messages, format)
		if err == nil || !ShouldRetry(err) || attempt == r.MaxAttempts {
			return out, err
		}
		delay := r.Backoff * time.Duration(attempt)
		telemetry.Warn("llm.retry", map[string]any{"attempt": attempt, "model": model, "delay_ms": delay.Milliseconds(), "err": err})
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return out, err
}

// ShouldRetry reports whether err looks transient: timeouts, rate limits,
// provider 5xx and dropped connections.
func ShouldRetry(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode == 429 || apiErr.HTTPStatusCode >= 500
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode == 429 || reqErr.HTTPStatusCode >= 500
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range []string{"connection reset", "connection refused", "broken pipe", "tls handshake timeout", "unexpected eof"} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
